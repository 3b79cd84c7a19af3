// Package config holds the process-wide parallelism settings of the
// transpose engine, decoded from a TOML file:
//
//	[parallelism]
//	rigor = "measure"
//	sync-transposes = false
//
// InitLibrary installs the file named by $PENCIL_CONFIG, if set; everything
// else falls back to Default.
package config

import (
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Parallelism configures plan construction defaults.
type Parallelism struct {
	// Rigor names the default planning-effort level used when a transpose
	// is built without explicit rigor flags: one of "estimate", "measure",
	// "patient" or "exhaustive" (case-insensitive).
	Rigor string `toml:"rigor"`

	// SyncTransposes inserts a barrier before every gather/scatter, which
	// can help diagnose rank skew on slow interconnects.
	SyncTransposes bool `toml:"sync-transposes"`
}

// Settings is the full decoded configuration.
type Settings struct {
	Parallelism Parallelism `toml:"parallelism"`
}

// rigorNames is the accepted set for Parallelism.Rigor; the engine maps
// them onto its planning-effort flags.
var rigorNames = map[string]bool{
	"estimate":   true,
	"measure":    true,
	"patient":    true,
	"exhaustive": true,
}

// Default returns the settings used when no file is installed.
func Default() Settings {
	return Settings{
		Parallelism: Parallelism{
			Rigor: "measure",
		},
	}
}

func (s Settings) validate() error {
	if !rigorNames[strings.ToLower(s.Parallelism.Rigor)] {
		return errors.Errorf("unknown parallelism rigor %q", s.Parallelism.Rigor)
	}
	return nil
}

// Load decodes settings from r. Missing fields keep their defaults.
func Load(r io.Reader) (Settings, error) {
	s := Default()
	if err := toml.NewDecoder(r).Decode(&s); err != nil {
		return Settings{}, errors.WithMessage(err, "decoding config")
	}
	if err := s.validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadFile decodes settings from the named TOML file.
func LoadFile(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, errors.WithMessagef(err, "opening config %q", path)
	}
	defer f.Close()
	s, err := Load(f)
	if err != nil {
		return Settings{}, errors.WithMessagef(err, "config %q", path)
	}
	return s, nil
}

var current atomic.Pointer[Settings]

// Current returns the installed settings, or Default when none were
// installed.
func Current() Settings {
	if s := current.Load(); s != nil {
		return *s
	}
	return Default()
}

// Install makes s the process-wide settings.
func Install(s Settings) error {
	if err := s.validate(); err != nil {
		return err
	}
	current.Store(&s)
	return nil
}

// InstallFile loads and installs the named TOML file.
func InstallFile(path string) error {
	s, err := LoadFile(path)
	if err != nil {
		return err
	}
	current.Store(&s)
	return nil
}
