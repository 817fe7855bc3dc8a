package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/justworkflowit/workflow-deployer/internal/secrets"
	"github.com/justworkflowit/workflow-deployer/internal/source"
)

// Source is an in-memory source.Reader.
type Source struct {
	mu    sync.Mutex
	blobs map[string]string
	errs  map[string]error
	reads []string
}

// NewSource creates a source holding blobs keyed by storage key.
func NewSource(blobs map[string]string) *Source {
	s := &Source{blobs: make(map[string]string), errs: make(map[string]error)}
	for k, v := range blobs {
		s.blobs[k] = v
	}
	return s
}

// Put stores or replaces a blob.
func (s *Source) Put(key, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = content
}

// Fail makes reads of key fail with err.
func (s *Source) Fail(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[key] = err
}

// Reads returns the keys read so far, in order.
func (s *Source) Reads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.reads))
	copy(out, s.reads)
	return out
}

// Read implements source.Reader.
func (s *Source) Read(_ context.Context, key string) (source.DefinitionBlob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads = append(s.reads, key)

	if err := s.errs[key]; err != nil {
		return source.DefinitionBlob{}, &source.SourceUnavailableError{Location: "memory", Key: key, Err: err}
	}
	content, ok := s.blobs[key]
	if !ok {
		return source.DefinitionBlob{}, &source.SourceUnavailableError{Location: "memory", Key: key, Err: errors.New("no such key")}
	}
	return source.DefinitionBlob{Key: key, RawContent: []byte(content)}, nil
}

// Resolver is a fixed-value secrets.Resolver.
type Resolver struct {
	mu    sync.Mutex
	value string
	err   error
	calls int
}

// NewResolver returns a resolver that always yields value.
func NewResolver(value string) *Resolver {
	return &Resolver{value: value}
}

// NewFailingResolver returns a resolver that always fails with err.
func NewFailingResolver(err error) *Resolver {
	return &Resolver{err: err}
}

// Calls returns how many times Resolve was called.
func (r *Resolver) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// Resolve implements secrets.Resolver.
func (r *Resolver) Resolve(_ context.Context, ref secrets.Reference) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return "", &secrets.SecretUnavailableError{Ref: ref, Reason: "resolver failure", Err: r.err}
	}
	return r.value, nil
}
