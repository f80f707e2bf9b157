package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "lumen.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[profile]
name = "debug"

[output]
tee = "out/dump.txt"
telemetry = "/var/log/lumen.cbor"

[dumps]
atoms = true
objects = false
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if m.Profile.Name != "debug" {
		t.Errorf("profile name: got %q", m.Profile.Name)
	}
	if m.TeePath() != filepath.Join(dir, "out", "dump.txt") {
		t.Errorf("tee path: got %q", m.TeePath())
	}
	if m.TelemetryPath() != "/var/log/lumen.cbor" {
		t.Errorf("absolute telemetry path should pass through, got %q", m.TelemetryPath())
	}
	if !m.Dumps.Atoms || m.Dumps.Objects {
		t.Errorf("dumps: got %+v", m.Dumps)
	}
}

func TestLoad_EmptyPathsDisabled(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[profile]\nname = \"x\"\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.TeePath() != "" || m.TelemetryPath() != "" {
		t.Error("unset output paths should stay empty")
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for missing lumen.toml")
	}
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "not [valid toml")

	if _, err := Load(dir); err == nil {
		t.Error("expected parse error")
	}
}

func TestFindAndLoad_WalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[profile]\nname = \"found\"\n")

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if m == nil || m.Profile.Name != "found" {
		t.Errorf("expected the root manifest, got %+v", m)
	}
}
