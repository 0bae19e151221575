// Package blob abstracts the document stores a batch run reads composites
// from and writes them to. Semantics mirror a minimal subset of S3 so the
// S3 adapter is nearly 1:1 while the filesystem adapter emulates them.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local filesystem (default, dev)
	DriverS3         Driver = "s3"     // S3 / MinIO compatible
	DriverMemory     Driver = "memory" // in-memory (tests)
)

// Info describes a stored blob.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is the interface batch runs use to read and write documents. Put
// overwrites: reruns of the same task produce the same keys.
type Store interface {
	// Put stores a blob at key, replacing any existing blob.
	Put(ctx context.Context, key string, r io.Reader) (Info, error)
	// Get retrieves the blob contents. Returns ErrNotFound if missing.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Head returns metadata only. Returns ErrNotFound if missing.
	Head(ctx context.Context, key string) (Info, error)
	// Delete removes a blob. Returns (false, nil) if not found.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns blobs whose key has the provided prefix, key ascending.
	List(ctx context.Context, prefix string) ([]Info, error)
	// Driver returns the configured backend driver string.
	Driver() Driver
}

// ErrNotFound is returned when a key has no blob.
var ErrNotFound = errors.New("blob: not found")
