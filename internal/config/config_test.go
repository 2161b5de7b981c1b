package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(KeyCredentials, "", "")
	fs.Bool(KeyColor, false, "")
	fs.Bool(KeyNoColor, false, "")
	fs.String(KeyMailTo, "", "")
	fs.String(KeyMailFrom, "", "")
	fs.String(KeyErrorTo, "", "")
	fs.Bool(KeyPersist, false, "")
	fs.String(KeyState, "~/.gicowa", "")
	fs.String(KeyHistory, "", "")
	fs.Bool(KeyVerbose, false, "")
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs
}

// isolate points HOME and XDG_CONFIG_HOME at a temp dir so a real user
// config never leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	return dir
}

func TestDir_RespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error = %v", err)
	}
	if dir != "/tmp/xdg/gicowa" {
		t.Errorf("Dir() = %q, want /tmp/xdg/gicowa", dir)
	}
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	s, err := Load(testFlags(t), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Persist || s.NoColor || s.MailTo != "" || s.ConfigFile != "" {
		t.Errorf("unexpected settings: %+v", s)
	}
	if want := filepath.Join(home, ".gicowa"); s.StatePath != want {
		t.Errorf("StatePath = %q, want %q", s.StatePath, want)
	}
}

func TestLoad_Precedence(t *testing.T) {
	home := isolate(t)

	cfgDir := filepath.Join(home, ".config", "gicowa")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "mailto = \"file@example.com\"\nerrorto = \"ops@example.com\"\npersist = true\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("GICOWA_ERRORTO", "env@example.com")
	t.Setenv("GICOWA_NO_COLOR", "true")

	s, err := Load(testFlags(t, "--mailto", "flag@example.com"), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.MailTo != "flag@example.com" {
		t.Errorf("MailTo = %q, flag should win", s.MailTo)
	}
	if s.ErrorTo != "env@example.com" {
		t.Errorf("ErrorTo = %q, env should beat the file", s.ErrorTo)
	}
	if !s.Persist {
		t.Error("Persist should come from the config file")
	}
	if !s.NoColor {
		t.Error("NoColor should come from GICOWA_NO_COLOR")
	}
	if s.ConfigFile == "" {
		t.Error("ConfigFile should name the file that was read")
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	isolate(t)

	_, err := Load(testFlags(t), filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Error("expected an error for a missing explicit config file")
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("mailto = = ="), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(testFlags(t), path); err == nil {
		t.Error("expected an error for malformed TOML")
	}
}

func TestExpandHome(t *testing.T) {
	home := isolate(t)

	if got := expandHome("~/state"); got != filepath.Join(home, "state") {
		t.Errorf("expandHome() = %q", got)
	}
	if got := expandHome("/abs/state"); got != "/abs/state" {
		t.Errorf("expandHome() = %q", got)
	}
}
