package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/expedientix/edn-core/internal/async"
	"github.com/expedientix/edn-core/internal/checklist"
	"github.com/expedientix/edn-core/internal/common"
	"github.com/expedientix/edn-core/internal/compile"
	"github.com/expedientix/edn-core/internal/entity"
	"github.com/expedientix/edn-core/internal/extract"
	"github.com/expedientix/edn-core/internal/ingest"
	"github.com/expedientix/edn-core/internal/rules"
	"github.com/expedientix/edn-core/internal/store"
)

// app bundles the wired pipeline components shared by the subcommands.
type app struct {
	cfg       *common.Config
	logger    *slog.Logger
	processor *compile.Processor
	generator *checklist.Generator
}

func newApp() *app {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	extractor := extract.NewExtractor(extract.Config{
		Pdftotext: cfg.Extract.Pdftotext,
		MaxPages:  cfg.Extract.MaxPages,
		Timeout:   cfg.Extract.Timeout,
	}, logger)
	processor := compile.NewProcessor(extractor, extract.FSMetadataReader{}, nil, logger)
	loader := rules.NewConfigLoader(cfg.Rules.ConfigDir, logger)
	engine := rules.NewEngine(rules.DefaultRegistry(), loader, logger)
	generator := checklist.NewGenerator(engine, logger)

	return &app{cfg: cfg, logger: logger, processor: processor, generator: generator}
}

func (a *app) openStore(ctx context.Context) (store.CaseStore, error) {
	return store.OpenSQLite(ctx, a.cfg.Store.Path, a.logger)
}

// compileCase runs the full compile + evaluate sequence for one folder.
func (a *app) compileCase(ctx context.Context, caseID, folder string) (*entity.CaseRecord, error) {
	record, err := a.processor.ProcessCase(ctx, caseID, folder)
	if err != nil {
		return nil, err
	}
	a.generator.Generate(record)
	return record, nil
}

func main() {
	a := newApp()

	root := &cobra.Command{
		Use:           "edn",
		Short:         "Compile utility-complaint case folders into evidence-linked records and checklists",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newProcessCmd(a), newWatchCmd(a), newExportCmd(a), newListCmd(a))

	if err := root.Execute(); err != nil {
		a.logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newProcessCmd(a *app) *cobra.Command {
	var (
		caseID  string
		outJSON string
		outXLSX string
		save    bool
	)
	cmd := &cobra.Command{
		Use:   "process <case-folder>",
		Short: "Compile one case folder and generate its checklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			folder := args[0]
			if caseID == "" {
				caseID = filepath.Base(filepath.Clean(folder))
			}

			record, err := a.compileCase(ctx, caseID, folder)
			if err != nil {
				return err
			}

			if save {
				st, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer func() {
					_ = st.Close()
				}()
				if err := st.Save(ctx, record); err != nil {
					return err
				}
			}

			if outJSON != "" {
				b, err := checklist.MarshalJSON(record.Checklist)
				if err != nil {
					return err
				}
				if err := os.WriteFile(outJSON, b, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outJSON, err)
				}
			}
			if outXLSX != "" {
				b, err := checklist.ExportXLSX(record.Checklist)
				if err != nil {
					return err
				}
				if err := os.WriteFile(outXLSX, b, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outXLSX, err)
				}
			}

			fmt.Printf("case %s: %d documents, %d alerts, case type %s\n",
				record.CaseID, len(record.Documents), len(record.Alerts), record.CaseType)
			return nil
		},
	}
	cmd.Flags().StringVar(&caseID, "case-id", "", "case id (defaults to the folder name)")
	cmd.Flags().StringVar(&outJSON, "out-json", "", "write the checklist as JSON to this path")
	cmd.Flags().StringVar(&outXLSX, "out-xlsx", "", "write the checklist as XLSX to this path")
	cmd.Flags().BoolVar(&save, "save", false, "persist the compiled record to the case store")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <root>",
		Short: "Watch a root directory and compile case folders as they appear",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = st.Close()
			}()

			queue := async.NewCaseQueue(func(ctx context.Context, job async.Job) error {
				record, err := a.compileCase(ctx, job.CaseID, job.Folder)
				if err != nil {
					return err
				}
				return st.Save(ctx, record)
			}, a.logger,
				async.WithWorkers(a.cfg.Worker.Workers),
				async.WithQueueSize(a.cfg.Worker.QueueSize),
				async.WithCaseTimeout(a.cfg.Worker.CaseTimeout),
			)
			defer queue.Shutdown(context.Background())

			events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
				Root:        args[0],
				InitialScan: true,
			}, a.logger)
			if err != nil {
				return err
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case folder, ok := <-events:
					if !ok {
						return nil
					}
					job := async.Job{CaseID: filepath.Base(folder), Folder: folder}
					if err := queue.Enqueue(ctx, job); err != nil {
						a.logger.Warn("enqueue failed", "folder", folder, "error", err)
					}
				case err, ok := <-errs:
					if ok && err != nil {
						a.logger.Error("watcher error", "error", err)
					}
				}
			}
		},
	}
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <case-id>",
		Short: "Export the stored checklist of a case as XLSX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = st.Close()
			}()

			record, err := st.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if record.Checklist == nil {
				return fmt.Errorf("case %s has no generated checklist", args[0])
			}
			b, err := checklist.ExportXLSX(record.Checklist)
			if err != nil {
				return err
			}
			if out == "" {
				out = args[0] + "_checklist.xlsx"
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output path (defaults to <case-id>_checklist.xlsx)")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = st.Close()
			}()

			summaries, err := st.List(ctx)
			if err != nil {
				return err
			}
			for _, s := range summaries {
				fmt.Printf("%s\t%s\t%s\t%s\n",
					s.CaseID, s.CaseType, s.Status, s.ProcessedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
