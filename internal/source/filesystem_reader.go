package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemReader reads definitions from a local directory. Keys are paths
// relative to the directory.
type FilesystemReader struct {
	dir string
}

// NewFilesystemReader creates a reader rooted at dir.
func NewFilesystemReader(dir string) (*FilesystemReader, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("definition directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("definition directory %s is not a directory", dir)
	}
	return &FilesystemReader{dir: dir}, nil
}

// Read implements Reader.
func (r *FilesystemReader) Read(ctx context.Context, key string) (DefinitionBlob, error) {
	location := "directory " + r.dir
	if err := ctx.Err(); err != nil {
		return DefinitionBlob{}, &SourceUnavailableError{Location: location, Key: key, Err: err}
	}

	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return DefinitionBlob{}, &SourceUnavailableError{
			Location: location,
			Key:      key,
			Err:      errors.New("key escapes the definition directory"),
		}
	}

	content, err := os.ReadFile(filepath.Join(r.dir, clean))
	if err != nil {
		return DefinitionBlob{}, &SourceUnavailableError{Location: location, Key: key, Err: err}
	}
	return DefinitionBlob{Key: key, RawContent: content}, nil
}
