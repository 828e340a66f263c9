// Package store persists layout snapshots so a settled picture can be
// reopened, rendered or served later.
//
// Two backends implement [Store]:
//   - [DirStore]: one JSON file per record, for the CLI
//   - [MongoStore]: a MongoDB collection, for frame servers
//
// Records are addressed by a random UUID assigned on first save.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	errs "github.com/matzehuels/comboom/pkg/errors"
	"github.com/matzehuels/comboom/pkg/layout"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("snapshot not found")

// Record is a stored snapshot with its provenance.
type Record struct {
	ID           string          `json:"id" bson:"_id"`
	Name         string          `json:"name" bson:"name"`
	ManifestHash string          `json:"manifest_hash,omitempty" bson:"manifest_hash,omitempty"`
	CreatedAt    time.Time       `json:"created_at" bson:"created_at"`
	Snapshot     layout.Snapshot `json:"snapshot" bson:"snapshot"`
}

// Info summarizes a record without its snapshot.
type Info struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Members   int       `json:"members" bson:"members"`
	Clusters  int       `json:"clusters" bson:"clusters"`
}

// Info returns the record summary.
func (r *Record) Info() Info {
	return Info{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		Members:   len(r.Snapshot.Members),
		Clusters:  len(r.Snapshot.Clusters),
	}
}

// Store persists records.
type Store interface {
	// Save writes rec, assigning ID and CreatedAt when empty, and returns
	// the id.
	Save(ctx context.Context, rec *Record) (string, error)

	// Load returns the record with id, or an error matching ErrNotFound.
	Load(ctx context.Context, id string) (*Record, error)

	// List returns summaries, newest first.
	List(ctx context.Context) ([]Info, error)

	// Delete removes a record. Deleting a missing id matches ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// prepare fills in the id and timestamp of a record about to be saved.
func prepare(rec *Record, now time.Time) error {
	if rec == nil {
		return errs.New(errs.ErrCodeInvalidInput, "record is nil")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if err := ValidateID(rec.ID); err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now.UTC()
	}
	return nil
}

// ValidateID checks that id is a UUID, which also keeps it safe to use as
// a file name.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid snapshot id %q", id)
	}
	return nil
}

// notFound wraps ErrNotFound with the not-found error code.
func notFound(id string) error {
	return errs.Wrap(errs.ErrCodeNotFound, ErrNotFound, "snapshot %s", id)
}
