package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// InterfaceDir returns the absolute path of the bundled GRASS
// interface-description dumps (r.slope.aspect, r.mapcalc.simple,
// r.neighbors).
func InterfaceDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("testutil: cannot locate source file")
	}
	return filepath.Join(filepath.Dir(file), "testdata", "interfaces")
}

// TemplateDir writes templates (name -> JSON source) into a fresh temp
// directory and returns it.
func TemplateDir(t *testing.T, templates map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	WriteTemplates(t, dir, templates)
	return dir
}

// WriteTemplates writes each template to <dir>/<name>.json.
func WriteTemplates(t *testing.T, dir string, templates map[string]string) {
	t.Helper()
	for name, src := range templates {
		path := filepath.Join(dir, name+".json")
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			t.Fatalf("write template %s: %v", name, err)
		}
	}
}
