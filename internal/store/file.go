package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/actinia-org/actinia-gdi/internal/ir"
)

const templateExt = ".json"

// FileStore keeps each template in <dir>/<name>.json. Templates may also be
// grouped in subdirectories; lookups then use the first match in lexical
// walk order.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created on
// the first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the root directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}

// Get returns the template stored under name.
func (s *FileStore) Get(ctx context.Context, name string) (Record, error) {
	path, err := s.find(name)
	if err != nil {
		return Record{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("read template %s: %w", name, err)
	}
	return Record{Name: name, Source: data, Hash: ir.TemplateHash(data)}, nil
}

// Names returns the distinct template names found under the root.
func (s *FileStore) Names(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	names := []string{}
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), templateExt) {
			return nil
		}
		name := strings.TrimSuffix(d.Name(), templateExt)
		if ValidateName(name) != nil {
			return nil
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return names, nil
	}
	if err != nil {
		return nil, fmt.Errorf("walk templates: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Create writes a new template at the root.
func (s *FileStore) Create(ctx context.Context, name string, source []byte) error {
	if err := checkWrite(name, source); err != nil {
		return err
	}
	if _, err := s.find(name); err == nil {
		return exists(name)
	} else if !IsNotFound(err) {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create template dir: %w", err)
	}
	return writeAtomic(filepath.Join(s.dir, name+templateExt), source)
}

// Update overwrites the file an existing template lives in.
func (s *FileStore) Update(ctx context.Context, name string, source []byte) error {
	if err := checkWrite(name, source); err != nil {
		return err
	}
	path, err := s.find(name)
	if err != nil {
		return err
	}
	return writeAtomic(path, source)
}

// Delete removes the file an existing template lives in.
func (s *FileStore) Delete(ctx context.Context, name string) error {
	path, err := s.find(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete template %s: %w", name, err)
	}
	return nil
}

// find resolves name to a file path: the root first, then subdirectories.
func (s *FileStore) find(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	direct := filepath.Join(s.dir, name+templateExt)
	if info, err := os.Stat(direct); err == nil && !info.IsDir() {
		return direct, nil
	}

	var found string
	target := name + templateExt
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == target {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("walk templates: %w", err)
	}
	if found == "" {
		return "", notFound(name)
	}
	return found, nil
}

// writeAtomic writes data to a sibling temp file and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*"+templateExt)
	if err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write template: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}
