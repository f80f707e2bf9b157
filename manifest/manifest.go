// Package manifest handles lumen.toml inspection profiles.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a lumen.toml inspection profile.
type Manifest struct {
	Profile Profile `toml:"profile"`
	Output  Output  `toml:"output"`
	Dumps   Dumps   `toml:"dumps"`

	// Dir is the directory containing the lumen.toml file (set at load time).
	Dir string `toml:"-"`
}

// Profile contains profile metadata.
type Profile struct {
	Name string `toml:"name"`
}

// Output configures the diagnostic sinks.
type Output struct {
	// Tee is the secondary sink path; empty leaves the secondary sink
	// disarmed. Relative paths resolve against the manifest directory.
	Tee string `toml:"tee"`

	// Telemetry is the CBOR record stream path; empty disables it.
	Telemetry string `toml:"telemetry"`
}

// Dumps selects which runtime sweeps run after graph inspection.
type Dumps struct {
	Atoms   bool `toml:"atoms"`
	Objects bool `toml:"objects"`
}

// Load parses a lumen.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "lumen.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a lumen.toml file,
// then loads and returns the manifest. Returns nil if none is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "lumen.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// TeePath returns the absolute secondary sink path, or "" if disabled.
func (m *Manifest) TeePath() string {
	return m.resolve(m.Output.Tee)
}

// TelemetryPath returns the absolute telemetry path, or "" if disabled.
func (m *Manifest) TelemetryPath() string {
	return m.resolve(m.Output.Telemetry)
}

func (m *Manifest) resolve(p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
