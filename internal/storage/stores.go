package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/lychee-technology/inquiry"
)

// Store maps a collection of JSON snapshots onto values of type T.
type Store[T any] struct {
	repo       inquiry.Repository
	collection string
	key        func(*T) string
}

func newStore[T any](repo inquiry.Repository, collection string, key func(*T) string) *Store[T] {
	return &Store[T]{repo: repo, collection: collection, key: key}
}

// Create inserts v. It fails with ALREADY_EXISTS when the key is taken.
func (s *Store[T]) Create(ctx context.Context, v *T) error {
	data, err := s.encode(v)
	if err != nil {
		return err
	}
	return s.repo.Create(ctx, s.collection, s.key(v), data)
}

// Get loads the value stored under key.
func (s *Store[T]) Get(ctx context.Context, key string) (*T, error) {
	rec, err := s.repo.Read(ctx, s.collection, key)
	if err != nil {
		return nil, err
	}
	return s.decode(rec)
}

// Put replaces an existing value.
func (s *Store[T]) Put(ctx context.Context, v *T) error {
	data, err := s.encode(v)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, s.collection, s.key(v), data)
}

// Delete removes the value stored under key.
func (s *Store[T]) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, s.collection, key)
}

// List returns every value ordered by key.
func (s *Store[T]) List(ctx context.Context) ([]*T, error) {
	recs, err := s.repo.List(ctx, s.collection)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(recs))
	for i := range recs {
		v, err := s.decode(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Store[T]) encode(v *T) ([]byte, error) {
	if strings.TrimSpace(s.key(v)) == "" {
		return nil, inquiry.NewSchemaError(inquiry.ErrCodeSchemaInvalid, "id", s.collection+" entry has no id")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, inquiry.NewInternalError("encode "+s.collection, err)
	}
	return data, nil
}

func (s *Store[T]) decode(rec *inquiry.Record) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(rec.Value, v); err != nil {
		return nil, inquiry.NewInternalError(fmt.Sprintf("decode %s/%s", rec.Collection, rec.Key), err)
	}
	return v, nil
}

// Stores groups the typed stores over one repository.
type Stores struct {
	Forms      *Store[inquiry.Form]
	Signatures *Store[inquiry.Signature]
	Inquiries  *InquiryStore
}

// NewStores builds the typed stores.
func NewStores(repo inquiry.Repository) *Stores {
	return &Stores{
		Forms: newStore(repo, inquiry.CollectionForms, func(f *inquiry.Form) string {
			return f.ID
		}),
		Signatures: newStore(repo, inquiry.CollectionSignatures, func(s *inquiry.Signature) string {
			return s.ID
		}),
		Inquiries: &InquiryStore{
			Store: newStore(repo, inquiry.CollectionInquiries, func(q *inquiry.Inquiry) string {
				return q.ID.String()
			}),
		},
	}
}

// InquiryStore adds per-form listing to the inquiry collection.
type InquiryStore struct {
	*Store[inquiry.Inquiry]
}

// ListByForm returns the inquiries of one form, oldest first.
func (s *InquiryStore) ListByForm(ctx context.Context, formID string) ([]*inquiry.Inquiry, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := slices.DeleteFunc(all, func(q *inquiry.Inquiry) bool { return q.FormID != formID })
	slices.SortStableFunc(out, func(a, b *inquiry.Inquiry) int {
		return a.ReceivedAt.Compare(b.ReceivedAt)
	})
	return out, nil
}
