package config

import (
	"os"
	"path/filepath"
	"testing"
)

const defaultsYAML = `
encoder:
  fps: 30
  bitrateBps: 4194304
  gop: 30
  codec: 0
  vbr: false
  payloadSize: 1024
stream:
  selected: 0
  wfbKey: default-key
server:
  mode: direct
  gsIp: 192.168.1.100
`

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadWithoutOverrideUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	defaultsPath := writeTemp(t, dir, "defaults.yaml", defaultsYAML)
	overridePath := filepath.Join(dir, "overrides.yaml") // does not exist

	result := Load(defaultsPath, overridePath)
	if got := result.Config.GetEncoder().FPS; got != 30 {
		t.Fatalf("FPS = %d, want 30", got)
	}
	if got := result.Config.GetServer().GSIP; got != "192.168.1.100" {
		t.Fatalf("GSIP = %q, want 192.168.1.100", got)
	}
}

func TestLoadLayersOverrideOnTopOfDefaults(t *testing.T) {
	dir := t.TempDir()
	defaultsPath := writeTemp(t, dir, "defaults.yaml", defaultsYAML)
	overridePath := writeTemp(t, dir, "overrides.yaml", "encoder:\n  fps: 60\n")

	result := Load(defaultsPath, overridePath)
	if got := result.Config.GetEncoder().FPS; got != 60 {
		t.Fatalf("FPS = %d, want 60 (overridden)", got)
	}
	// Fields the override didn't touch must still come from defaults.
	if got := result.Config.GetEncoder().GOP; got != 30 {
		t.Fatalf("GOP = %d, want 30 (from defaults)", got)
	}
	if got := result.Defaults.GetEncoder().FPS; got != 30 {
		t.Fatalf("Defaults.FPS = %d, want unaffected 30", got)
	}
}

func TestLoadIgnoresMalformedOverride(t *testing.T) {
	dir := t.TempDir()
	defaultsPath := writeTemp(t, dir, "defaults.yaml", defaultsYAML)
	overridePath := writeTemp(t, dir, "overrides.yaml", "not: valid: yaml: at: all:\n  -\n")

	result := Load(defaultsPath, overridePath)
	if got := result.Config.GetEncoder().FPS; got != 30 {
		t.Fatalf("FPS = %d, want defaults preserved after malformed override", got)
	}
}

func TestSaveOverridesWritesOnlyChangedFields(t *testing.T) {
	dir := t.TempDir()
	defaultsPath := writeTemp(t, dir, "defaults.yaml", defaultsYAML)
	result := Load(defaultsPath, filepath.Join(dir, "overrides.yaml"))

	enc := result.Config.GetEncoder()
	enc.FPS = 60
	result.Config.SetEncoder(enc)

	outPath := filepath.Join(dir, "saved.yaml")
	if err := SaveOverrides(outPath, result.Config, result.Defaults); err != nil {
		t.Fatalf("SaveOverrides: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read saved overrides: %v", err)
	}

	reloaded := Load(defaultsPath, outPath)
	if got := reloaded.Config.GetEncoder().FPS; got != 60 {
		t.Fatalf("reloaded FPS = %d, want 60", got)
	}
	if got := reloaded.Config.GetEncoder().GOP; got != 30 {
		t.Fatalf("reloaded GOP = %d, want unchanged 30", got)
	}
	if len(data) == 0 {
		t.Fatal("expected a non-empty diff file")
	}
}

func TestCameraAccessorsDefaultToZeroValueForUnknownIndex(t *testing.T) {
	cfg := &Config{Cameras: map[int]CameraConfig{}}
	got := cfg.GetCamera(7)
	if got != (CameraConfig{}) {
		t.Fatalf("GetCamera(unknown) = %+v, want zero value", got)
	}

	cfg.SetCamera(7, CameraConfig{Brightness: 50})
	if got := cfg.GetCamera(7).Brightness; got != 50 {
		t.Fatalf("Brightness = %d, want 50", got)
	}
}

func TestSetCameraOnNilMapInitializesIt(t *testing.T) {
	cfg := &Config{}
	cfg.SetCamera(0, CameraConfig{FocusMode: 1})
	if got := cfg.GetCamera(0).FocusMode; got != 1 {
		t.Fatalf("FocusMode = %d, want 1", got)
	}
}
