// Package csvfile stores collections as delimited text files, one file per
// collection with a single header row.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ipms/placement-hub/internal/infrastructure/persistence/records"
)

// Store is a records.Store over a directory.
type Store struct {
	dir   string
	files map[string]string

	mu     sync.Mutex
	closed bool
}

// New returns a store rooted at dir. files maps collection names to file
// names; collections without an entry use "<collection>.csv".
func New(dir string, files map[string]string) (*Store, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("csvfile: create data dir: %w", err)
	}
	names := make(map[string]string, len(files))
	for k, v := range files {
		if v != "" {
			names[k] = v
		}
	}
	return &Store{dir: dir, files: names}, nil
}

// Path returns the file backing collection.
func (s *Store) Path(collection string) string {
	name, ok := s.files[collection]
	if !ok {
		name = collection + ".csv"
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// Load reads the collection file. A missing file is an empty table.
func (s *Store) Load(ctx context.Context, collection string) (records.Table, error) {
	if err := s.check(ctx); err != nil {
		return records.Table{}, err
	}

	f, err := os.Open(s.Path(collection))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return records.Table{}, nil
		}
		return records.Table{}, fmt.Errorf("csvfile: open %s: %w", collection, err)
	}
	defer f.Close()

	return read(f)
}

// Save rewrites the collection file through a temporary file in the same
// directory so a failed write leaves the previous file intact.
func (s *Store) Save(ctx context.Context, collection string, t records.Table) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	path := s.Path(collection)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("csvfile: create dir for %s: %w", collection, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("csvfile: create temp for %s: %w", collection, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp, t); err != nil {
		tmp.Close()
		return fmt.Errorf("csvfile: write %s: %w", collection, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("csvfile: close %s: %w", collection, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("csvfile: replace %s: %w", collection, err)
	}
	return nil
}

// Close marks the store closed. Files are only open during Load and Save.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return records.ErrClosed
	}
	return nil
}

func read(r io.Reader) (records.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var t records.Table
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return records.Table{}, err
		}
		if isBlank(row) {
			continue
		}
		if t.Header == nil {
			t.Header = row
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func write(w io.Writer, t records.Table) error {
	cw := csv.NewWriter(w)
	if len(t.Header) > 0 {
		if err := cw.Write(t.Header); err != nil {
			return err
		}
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func isBlank(row []string) bool {
	for _, f := range row {
		if f != "" {
			return false
		}
	}
	return true
}
