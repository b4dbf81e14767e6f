// Package store persists uploaded size reports for the viewer server.
//
// Backends:
//   - [MemoryStore]: process-local, for tests and single-shot serving
//   - [FileStore]: one JSON document per report in a directory
//   - [MongoStore]: a MongoDB collection, for shared deployments
//
// Reports are addressed by uuid strings assigned in [New]. Lookups of
// unknown ids fail with errors.ErrCodeReportNotFound.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/sizemap/pkg/errors"
)

// Report is a stored size report. Data holds the raw report JSON; List
// leaves it empty.
type Report struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Size      uint64    `json:"size" bson:"size"`
	Hash      string    `json:"hash" bson:"hash"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Data      []byte    `json:"data,omitempty" bson:"data,omitempty"`
}

// New returns a report with a fresh id.
func New(name string, size uint64, hash string, data []byte) *Report {
	return &Report{
		ID:        uuid.NewString(),
		Name:      name,
		Size:      size,
		Hash:      hash,
		CreatedAt: time.Now().UTC(),
		Data:      data,
	}
}

// Meta returns r without its payload.
func (r *Report) Meta() *Report {
	m := *r
	m.Data = nil
	return &m
}

// Store is a report repository.
type Store interface {
	// Put inserts or replaces a report.
	Put(ctx context.Context, r *Report) error
	// Get returns the report with its data.
	Get(ctx context.Context, id string) (*Report, error)
	// List returns report metadata, newest first.
	List(ctx context.Context) ([]*Report, error)
	// Delete removes a report; deleting an unknown id is an error.
	Delete(ctx context.Context, id string) error
	Close() error
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeReportNotFound, "report %s not found", id)
}

func storageErr(err error, op string) error {
	return errors.Wrap(errors.ErrCodeStorage, err, "store: %s", op)
}
