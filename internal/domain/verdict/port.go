package verdict

import (
	"context"
	"io"
)

// Repository port for the violation store. Commit is append-biased: it
// front-inserts and rejects duplicate ids rather than overwriting. List and
// Get are read-only; an absent or unreadable backing store reads as empty,
// never as an error.
type Repository interface {
	Commit(ctx context.Context, r *Record) error
	List(ctx context.Context) ([]*Record, error)
	Get(ctx context.Context, id RecordID) (*Record, error)
}

// EvidenceStore port for persisting uploaded evidence images. Put returns
// the URL recorded on the verdict.
type EvidenceStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}
