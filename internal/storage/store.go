package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
)

// ErrNotFound is returned by Open for a key that was never committed.
var ErrNotFound = errors.New("chunk not found")

// Store holds one sink per chunk, keyed by name. Writes only become visible
// once committed, so a failed fetch never leaves a half-written part behind.
type Store struct {
	bucket *blob.Bucket
	dir    string
	// created is set when OpenDir made dir, so Close only removes directories
	// this store owns.
	created bool
}

// OpenDir stores chunks as files under dir, creating it if needed.
func OpenDir(dir string) (*Store, error) {
	_, statErr := os.Stat(dir)
	created := os.IsNotExist(statErr)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating temp directory: %w", err)
	}
	bucket, err := fileblob.OpenBucket(dir, &fileblob.Options{Metadata: fileblob.MetadataDontWrite, NoTempDir: true})
	if err != nil {
		return nil, fmt.Errorf("error opening chunk directory %s: %w", dir, err)
	}
	return &Store{bucket: bucket, dir: dir, created: created}, nil
}

// OpenMemory keeps chunks in process memory only.
func OpenMemory() *Store {
	return &Store{bucket: memblob.OpenBucket(nil)}
}

// Dir is the backing directory, empty for in-memory stores.
func (s *Store) Dir() string {
	return s.dir
}

type ChunkWriter struct {
	w       *blob.Writer
	cancel  context.CancelFunc
	written int64
}

// Create starts a new sink for key. Exactly one of Commit or Abort must follow.
func (s *Store) Create(ctx context.Context, key string) (*ChunkWriter, error) {
	wctx, cancel := context.WithCancel(ctx)
	w, err := s.bucket.NewWriter(wctx, key, &blob.WriterOptions{ContentType: "application/octet-stream"})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("error creating chunk %s: %w", key, err)
	}
	return &ChunkWriter{w: w, cancel: cancel}, nil
}

func (cw *ChunkWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.written += int64(n)
	return n, err
}

func (cw *ChunkWriter) Written() int64 {
	return cw.written
}

func (cw *ChunkWriter) Commit() error {
	defer cw.cancel()
	return cw.w.Close()
}

// Abort discards everything written so far.
func (cw *ChunkWriter) Abort() {
	cw.cancel()
	cw.w.Close()
}

// Open returns a reader for a committed chunk along with its size.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, 0, fmt.Errorf("error opening chunk %s: %w", key, err)
	}
	return r, r.Size(), nil
}

// Keys lists committed chunk names starting with prefix.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error listing chunks: %w", err)
		}
		if !obj.IsDir {
			keys = append(keys, obj.Key)
		}
	}
	return keys, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Delete(ctx, key); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf("error deleting chunk %s: %w", key, err)
	}
	return nil
}

// DeleteKeys removes exactly the given chunks.
func (s *Store) DeleteKeys(ctx context.Context, keys []string) error {
	for _, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the bucket and removes the directory if OpenDir created it
// and nothing is left in it.
func (s *Store) Close() error {
	err := s.bucket.Close()
	if s.created {
		if entries, rerr := os.ReadDir(s.dir); rerr == nil && len(entries) == 0 {
			os.Remove(s.dir)
		}
	}
	return err
}
