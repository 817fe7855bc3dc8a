package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemReader_Read(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "workflows"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "workflows", "billing.json"), []byte(`{"workflowName":"billing"}`), 0o600))

	reader, err := NewFilesystemReader(dir)
	require.NoError(t, err)

	t.Run("reads nested key", func(t *testing.T) {
		blob, err := reader.Read(context.Background(), "workflows/billing.json")
		require.NoError(t, err)
		assert.Equal(t, "workflows/billing.json", blob.Key)
		assert.JSONEq(t, `{"workflowName":"billing"}`, string(blob.RawContent))
	})

	t.Run("missing key is unavailable", func(t *testing.T) {
		_, err := reader.Read(context.Background(), "workflows/missing.json")
		var unavailable *SourceUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, "workflows/missing.json", unavailable.Key)
		assert.Equal(t, "directory "+dir, unavailable.Location)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("rejects traversal", func(t *testing.T) {
		_, err := reader.Read(context.Background(), "../etc/passwd")
		var unavailable *SourceUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Contains(t, err.Error(), "escapes")
	})
}

func TestNewFilesystemReader_NotDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o600))

	_, err := NewFilesystemReader(file)
	assert.Error(t, err)

	_, err = NewFilesystemReader(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestMinioConfig_Validate(t *testing.T) {
	assert.NoError(t, MinioConfig{Endpoint: "s3.amazonaws.com", Bucket: "defs"}.Validate())
	assert.Error(t, MinioConfig{Bucket: "defs"}.Validate())
	assert.Error(t, MinioConfig{Endpoint: "https://s3.amazonaws.com", Bucket: "defs"}.Validate())
	assert.Error(t, MinioConfig{Endpoint: "s3.amazonaws.com"}.Validate())
}

// newFakeS3 serves a single object under /defs/ and NoSuchKey for anything else.
func newFakeS3(t *testing.T, key, body string) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/defs/"+key {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
				`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message>` +
				`<Key>` + strings.TrimPrefix(r.URL.Path, "/defs/") + `</Key><BucketName>defs</BucketName></Error>`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("ETag", `"abc123"`)
		w.Header().Set("Last-Modified", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).Format(http.TimeFormat))
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return strings.TrimPrefix(server.URL, "http://")
}

func TestMinioReader_Read(t *testing.T) {
	endpoint := newFakeS3(t, "billing.json", `{"workflowName":"billing"}`)

	reader, err := NewMinioReader(MinioConfig{
		Endpoint:  endpoint,
		Region:    "us-east-1",
		Bucket:    "defs",
		AccessKey: "access",
		SecretKey: "secret",
	})
	require.NoError(t, err)

	t.Run("drains object", func(t *testing.T) {
		blob, err := reader.Read(context.Background(), "billing.json")
		require.NoError(t, err)
		assert.Equal(t, `{"workflowName":"billing"}`, string(blob.RawContent))
	})

	t.Run("missing object is unavailable", func(t *testing.T) {
		_, err := reader.Read(context.Background(), "missing.json")
		var unavailable *SourceUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, "missing.json", unavailable.Key)
		assert.Equal(t, "bucket defs", unavailable.Location)
		assert.Contains(t, err.Error(), "NoSuchKey")
	})
}

func TestNewMinioReaderWithClient_RequiresClient(t *testing.T) {
	_, err := NewMinioReaderWithClient(nil, "defs")
	assert.Error(t, err)
}
