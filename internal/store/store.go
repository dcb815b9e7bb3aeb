package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/actinia-org/actinia-gdi/internal/ir"
)

// Sentinel errors shared by all backends. Backends wrap them with the
// template name, so match with errors.Is.
var (
	ErrNotFound      = errors.New("template not found")
	ErrExists        = errors.New("template already exists")
	ErrInvalidName   = errors.New("invalid template name")
	ErrInvalidSource = errors.New("template source is not valid JSON")
)

// Record is a stored template.
type Record struct {
	Name     string
	Source   []byte
	Hash     string
	Revision int64
}

// Reader looks up template sources by name.
type Reader interface {
	Get(ctx context.Context, name string) (Record, error)
	Names(ctx context.Context) ([]string, error)
}

// Writer mutates stored templates.
type Writer interface {
	Create(ctx context.Context, name string, source []byte) error
	Update(ctx context.Context, name string, source []byte) error
	Delete(ctx context.Context, name string) error
}

// Store is a readable and writable template store.
type Store interface {
	Reader
	Writer
	Close() error
}

// HashIndex looks up templates by content hash.
type HashIndex interface {
	NamesWithHash(ctx context.Context, hash string) ([]string, error)
}

// Duplicates returns the templates other than name whose content equals
// source, ordered by name. Stores without a HashIndex are scanned.
func Duplicates(ctx context.Context, r Reader, name string, source []byte) ([]string, error) {
	hash := ir.TemplateHash(source)

	var names []string
	if idx, ok := r.(HashIndex); ok {
		found, err := idx.NamesWithHash(ctx, hash)
		if err != nil {
			return nil, err
		}
		names = found
	} else {
		all, err := r.Names(ctx)
		if err != nil {
			return nil, err
		}
		for _, n := range all {
			rec, err := r.Get(ctx, n)
			if err != nil {
				return nil, err
			}
			if rec.Hash == hash {
				names = append(names, n)
			}
		}
	}

	out := []string{}
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out, nil
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// ValidateName rejects names that cannot be used as a store key or file name.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// IsNotFound returns true if err reports a missing template.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsExists returns true if err reports a name collision.
func IsExists(err error) bool {
	return errors.Is(err, ErrExists)
}

func checkWrite(name string, source []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if !json.Valid(source) {
		return fmt.Errorf("%w: %s", ErrInvalidSource, name)
	}
	return nil
}

func notFound(name string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

func exists(name string) error {
	return fmt.Errorf("%w: %s", ErrExists, name)
}
