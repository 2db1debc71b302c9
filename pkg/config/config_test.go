package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sampleConfig struct {
	Name    string `split_words:"true" default:"desk"`
	MaxTurn int    `split_words:"true" default:"3"`
}

type validatedConfig struct {
	Mode string `default:"bogus"`
}

var errBadMode = errors.New("bad mode")

func (c *validatedConfig) Validate() error {
	if c.Mode != "ok" {
		return errBadMode
	}
	return nil
}

func TestExportEnvironmentKeepsExistingVariables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "CFGTEST_NAME=from-file\nCFGTEST_MAX_TURN=9\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("CFGTEST_NAME", "from-env")
	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment() error = %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("CFGTEST_MAX_TURN") })

	if got := os.Getenv("CFGTEST_NAME"); got != "from-env" {
		t.Fatalf("CFGTEST_NAME = %q, want from-env", got)
	}
	if got := os.Getenv("CFGTEST_MAX_TURN"); got != "9" {
		t.Fatalf("CFGTEST_MAX_TURN = %q, want 9", got)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	conf, err := New[sampleConfig]("CFGDEFAULT")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Name != "desk" || conf.MaxTurn != 3 {
		t.Fatalf("unexpected config: %+v", conf)
	}
}

func TestNewRunsValidator(t *testing.T) {
	_, err := New[validatedConfig]("CFGVALID")
	if !errors.Is(err, errBadMode) {
		t.Fatalf("expected errBadMode, got %v", err)
	}

	t.Setenv("CFGVALID_MODE", "ok")
	conf, err := New[validatedConfig]("CFGVALID")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Mode != "ok" {
		t.Fatalf("Mode = %q, want ok", conf.Mode)
	}
}
