// Package source reads workflow definition blobs from storage.
//
// Readers never retry. Any failure to fetch or fully drain a blob is
// returned as a *SourceUnavailableError.
package source

import (
	"context"
	"fmt"
)

// DefinitionBlob is the raw content of one definition object.
type DefinitionBlob struct {
	Key        string
	RawContent []byte
}

// Reader fetches definition blobs by key.
type Reader interface {
	Read(ctx context.Context, key string) (DefinitionBlob, error)
}

// SourceUnavailableError reports that a definition could not be read.
type SourceUnavailableError struct {
	// Location names the store, e.g. "bucket defs" or "directory /srv/defs".
	Location string
	Key      string
	Err      error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("definition %q unavailable from %s: %v", e.Key, e.Location, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}
