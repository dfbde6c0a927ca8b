package scans

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	Insert(ctx context.Context, s *Scan) error
	// MarkCompleted and MarkFailed only move in-flight rows; a terminal row
	// yields ErrNotFound.
	MarkCompleted(ctx context.Context, id ScanID, res AnalysisResult) error
	MarkFailed(ctx context.Context, id ScanID) error
	Get(ctx context.Context, owner string, id ScanID) (*Scan, error)
	// List returns newest first. An empty owner lists every scan.
	List(ctx context.Context, owner string, limit int) ([]*Scan, error)
}

// ImageStore port (interface untuk penyimpanan gambar)
type ImageStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}
