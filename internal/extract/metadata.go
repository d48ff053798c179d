package extract

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/expedientix/edn-core/constants"
	"github.com/expedientix/edn-core/internal/entity"
)

// FSMetadataReader reads file metadata from the local filesystem.
type FSMetadataReader struct{}

func (FSMetadataReader) Read(path string) (entity.FileMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return entity.FileMetadata{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return entity.FileMetadata{
		SizeBytes: info.Size(),
		ModTime:   info.ModTime().UTC(),
		Extension: constants.NormalizeExt(filepath.Ext(path)),
	}, nil
}
