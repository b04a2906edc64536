package storage

import "io"

// BlobStore is where exported reports land.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	URL(key string) (string, error) // fs returns "file://..."
}
