package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	errs "github.com/matzehuels/comboom/pkg/errors"
)

// DirStore keeps one JSON file per record in a directory.
type DirStore struct {
	dir string
	now func() time.Time
}

// NewDirStore creates the directory if needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "create snapshot dir")
	}
	return &DirStore{dir: dir, now: time.Now}, nil
}

// Dir returns the storage directory.
func (s *DirStore) Dir() string { return s.dir }

// Save writes rec as <id>.json, assigning an id and timestamp when missing.
func (s *DirStore) Save(ctx context.Context, rec *Record) (string, error) {
	if err := prepare(rec, s.now()); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeInternal, err, "encode record")
	}
	if err := os.WriteFile(s.path(rec.ID), data, 0644); err != nil {
		return "", errs.Wrap(errs.ErrCodeInternal, err, "write record")
	}
	return rec.ID, nil
}

// Load reads the record with id, or returns ErrNotFound.
func (s *DirStore) Load(ctx context.Context, id string) (*Record, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "read record")
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode record %s", id)
	}
	return &rec, nil
}

// List reads every record in the directory. Unreadable files are skipped.
func (s *DirStore) List(ctx context.Context) ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "list snapshots")
	}
	var out []Info
	for _, e := range entries {
		id, ok := strings.CutSuffix(e.Name(), ".json")
		if !ok || e.IsDir() {
			continue
		}
		rec, err := s.Load(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, rec.Info())
	}
	slices.SortFunc(out, func(a, b Info) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

// Delete removes the record with id, or returns ErrNotFound.
func (s *DirStore) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return notFound(id)
	}
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "delete record")
	}
	return nil
}

// Close is a no-op.
func (s *DirStore) Close(context.Context) error { return nil }

func (s *DirStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

var _ Store = (*DirStore)(nil)
