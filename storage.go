package inquiry

import (
	"context"
	"time"
)

// Collections stored by the repository.
const (
	CollectionForms      = "forms"
	CollectionSignatures = "signatures"
	CollectionInquiries  = "inquiries"
)

// Record is one stored JSON snapshot.
type Record struct {
	Collection string    `json:"collection"`
	Key        string    `json:"key"`
	Value      []byte    `json:"value"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Repository persists opaque JSON snapshots keyed by (collection, key).
// Implementations return NOT_FOUND and ALREADY_EXISTS InquiryErrors.
type Repository interface {
	Create(ctx context.Context, collection, key string, value []byte) error
	Read(ctx context.Context, collection, key string) (*Record, error)
	Update(ctx context.Context, collection, key string, value []byte) error
	Delete(ctx context.Context, collection, key string) error
	// List returns records ordered by key.
	List(ctx context.Context, collection string) ([]Record, error)
}
