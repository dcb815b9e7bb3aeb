package describe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/actinia-org/actinia-gdi/internal/ir"
)

// Request asks for the description of one module. BatchKey correlates the
// calls of one resolution; it never changes the answer.
type Request struct {
	Module   string
	BatchKey string
}

// Source yields the raw interface-description XML of a module.
type Source interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

// Lister enumerates the modules a source can describe, as summaries
// without parameter lists.
type Lister interface {
	ListModules(ctx context.Context) ([]ir.Module, error)
}

// Invalidator is implemented by sources that keep descriptions around.
type Invalidator interface {
	Invalidate(ctx context.Context, module string) error
}

var moduleNamePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)

// ValidateModuleName rejects names that are unsafe to pass to the engine.
func ValidateModuleName(name string) error {
	if !moduleNamePattern.MatchString(name) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidModuleName, name)
	}
	return nil
}

// DirSource reads <dir>/<module>.xml dumps produced ahead of time with
// `<module> --interface-description`.
type DirSource struct {
	Dir string
}

// Fetch reads the dump for req.Module.
func (s DirSource) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if err := ValidateModuleName(req.Module); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, req.Module+".xml"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, req.Module)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExecutionFailed, req.Module, err)
	}
	return data, nil
}

// ListModules parses every dump in the directory, ordered by module id.
func (s DirSource) ListModules(ctx context.Context) ([]ir.Module, error) {
	paths, err := filepath.Glob(filepath.Join(s.Dir, "*.xml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	modules := make([]ir.Module, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		m, err := ParseInterfaceDescription(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		modules = append(modules, m.Summary())
	}
	sort.SliceStable(modules, func(i, j int) bool { return modules[i].ID < modules[j].ID })
	return modules, nil
}

// Runner executes a command and returns its stdout and stderr.
type Runner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// execRunner runs the command with os/exec.
func execRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// ExecSource asks a GRASS installation for descriptions:
//
//	<bin> --tmp-location XY --exec <module> --interface-description
type ExecSource struct {
	Bin      string
	Location string
	Timeout  time.Duration
	Run      Runner
}

// NewExecSource returns a source running bin with a temporary XY location.
func NewExecSource(bin string, timeout time.Duration) *ExecSource {
	return &ExecSource{Bin: bin, Location: "XY", Timeout: timeout, Run: execRunner}
}

func (s *ExecSource) exec(ctx context.Context, args ...string) ([]byte, []byte, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	run := s.Run
	if run == nil {
		run = execRunner
	}
	location := s.Location
	if location == "" {
		location = "XY"
	}
	full := append([]string{"--tmp-location", location, "--exec"}, args...)
	return run(ctx, s.Bin, full...)
}

// Fetch runs the module with --interface-description.
func (s *ExecSource) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if err := ValidateModuleName(req.Module); err != nil {
		return nil, err
	}
	stdout, stderr, err := s.exec(ctx, req.Module, "--interface-description")
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if strings.Contains(strings.ToLower(msg), "not found") {
			return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, req.Module)
		}
		return nil, fmt.Errorf("%w: %s: %v: %s", ErrExecutionFailed, req.Module, err, msg)
	}
	return stdout, nil
}

// searchResult is one entry of `g.search.modules -j` output.
type searchResult struct {
	Name       string `json:"name"`
	Attributes struct {
		Description string `json:"description"`
		Keywords    string `json:"keywords"`
	} `json:"attributes"`
}

// ListModules runs g.search.modules and returns one summary per module.
func (s *ExecSource) ListModules(ctx context.Context) ([]ir.Module, error) {
	stdout, stderr, err := s.exec(ctx, "g.search.modules", "-j")
	if err != nil {
		return nil, fmt.Errorf("%w: g.search.modules: %v: %s", ErrExecutionFailed, err, strings.TrimSpace(string(stderr)))
	}
	var results []searchResult
	if err := json.Unmarshal(stdout, &results); err != nil {
		return nil, fmt.Errorf("%w: g.search.modules output: %v", ErrInvalidDescription, err)
	}
	modules := make([]ir.Module, 0, len(results))
	for _, r := range results {
		modules = append(modules, ir.Module{
			ID:          r.Name,
			Description: r.Attributes.Description,
			Categories:  parseCategories(r.Attributes.Keywords),
			Parameters:  []ir.Parameter{},
			Returns:     []ir.Parameter{},
		})
	}
	sort.SliceStable(modules, func(i, j int) bool { return modules[i].ID < modules[j].ID })
	return modules, nil
}
