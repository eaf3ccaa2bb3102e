package scans

import (
	"context"
	"io"
)

// Repository port untuk history scan.
// Implementations serialize every mutation; List returns a snapshot.
type Repository interface {
	Append(ctx context.Context, r Record) error
	List(ctx context.Context) ([]Record, error)
	ClearAll(ctx context.Context) error
	DeleteWhere(ctx context.Context, codes []string) (int, error)
	Count(ctx context.Context) (int, error)
}

// ArtifactStore port (penyimpanan file export CSV)
type ArtifactStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// Submitter forwards an accepted code to the history (remote API or local store).
type Submitter interface {
	Submit(ctx context.Context, code string) error
}
