package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Layer priorities of the built-in sources. A Manager applies sources in
// ascending priority, so a key set by flags wins over env, file and defaults.
const (
	PriorityDefaults = 10
	PriorityFile     = 20
	PriorityEnv      = 30
	PriorityFlags    = 40
)

// Source is one configuration layer.
type Source interface {
	// Name identifies the layer in load errors.
	Name() string
	Priority() int
	Load(k *koanf.Koanf) error
}

// DefaultSource seeds every known key from DefaultConfig.
type DefaultSource struct{}

func (s *DefaultSource) Name() string  { return "defaults" }
func (s *DefaultSource) Priority() int { return PriorityDefaults }

func (s *DefaultSource) Load(k *koanf.Koanf) error {
	return k.Load(confmap.Provider(DefaultConfigAsMap(), "."), nil)
}

// FileSource reads a YAML file. An empty Path or a file that does not exist
// contributes nothing.
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string  { return "file:" + s.Path }
func (s *FileSource) Priority() int { return PriorityFile }

func (s *FileSource) Load(k *koanf.Koanf) error {
	if s.Path == "" {
		return nil
	}
	switch _, err := os.Stat(s.Path); {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return err
	}
	if err := k.Load(file.Provider(s.Path), yaml.Parser()); err != nil {
		return fmt.Errorf("parse %s: %w", s.Path, err)
	}
	return nil
}

// EnvSource reads variables named by EnvName, e.g.
//
//	GMOD_LOG_LEVEL         -> log.level
//	GMOD_STORE_SQLITE_PATH -> store.sqlite_path
//
// The mapping is built from the known keys because a key segment may
// itself contain an underscore.
type EnvSource struct {
	Prefix string // EnvPrefix when empty
}

func (s *EnvSource) Name() string  { return "env" }
func (s *EnvSource) Priority() int { return PriorityEnv }

func (s *EnvSource) Load(k *koanf.Koanf) error {
	prefix := s.Prefix
	if prefix == "" {
		prefix = EnvPrefix
	}
	known := make(map[string]string)
	for key := range DefaultConfigAsMap() {
		known[EnvName(prefix, key)] = key
	}
	return k.Load(env.Provider(prefix, ".", func(name string) string {
		return known[name]
	}), nil)
}

// EnvName returns the environment variable that sets key.
func EnvName(prefix, key string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// FlagKeys lists the persistent flags that double as configuration keys.
var FlagKeys = map[string]string{
	"log-level":    "log.level",
	"store":        "store.backend",
	"store-dir":    "store.dir",
	"sqlite-path":  "store.sqlite_path",
	"redis-addr":   "store.redis.addr",
	"source":       "describe.source",
	"grass-bin":    "describe.grass_bin",
	"xml-dir":      "describe.xml_dir",
	"override-dir": "describe.override_dir",
	"max-depth":    "engine.max_depth",
}

// FlagSource applies the flags in FlagKeys that were set explicitly.
// Debug forces log.level to debug on top of them.
type FlagSource struct {
	Flags *pflag.FlagSet
	Debug bool
}

func (s *FlagSource) Name() string  { return "flags" }
func (s *FlagSource) Priority() int { return PriorityFlags }

func (s *FlagSource) Load(k *koanf.Koanf) error {
	if s.Flags != nil {
		toKey := func(f *pflag.Flag) (string, any) {
			key, ok := FlagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, f.Value.String()
		}
		if err := k.Load(posflag.ProviderWithFlag(s.Flags, ".", k, toKey), nil); err != nil {
			return err
		}
	}
	if s.Debug {
		return k.Set("log.level", "debug")
	}
	return nil
}

// DefaultSources is the layer stack used by Load.
func DefaultSources(configPath string, flags *pflag.FlagSet, debug bool) []Source {
	return []Source{
		&DefaultSource{},
		&FileSource{Path: configPath},
		&EnvSource{Prefix: EnvPrefix},
		&FlagSource{Flags: flags, Debug: debug},
	}
}
