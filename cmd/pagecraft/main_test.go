package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCommandWiring(t *testing.T) {
	cmd := newRootCommand()

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"serve", "migrate"} {
		if !names[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}
	for _, flag := range []string{"config", "env-file"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestMigrateRequiresPostgres(t *testing.T) {
	t.Setenv("PAGECRAFT_DATABASE__DRIVER", "memory")
	dir := t.TempDir()

	cmd := newRootCommand()
	cmd.SetArgs([]string{
		"migrate",
		"--config", filepath.Join(dir, "missing.yaml"),
		"--env-file", filepath.Join(dir, "missing.env"),
	})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("migrate with the memory driver should fail")
	}
	if !strings.Contains(err.Error(), "postgres") {
		t.Errorf("error should name the required driver: %v", err)
	}
}

func TestSetupRejectsBadConfig(t *testing.T) {
	t.Setenv("PAGECRAFT_LOG__LEVEL", "loud")
	dir := t.TempDir()

	_, _, err := setup(&rootOptions{
		ConfigFile: filepath.Join(dir, "missing.yaml"),
		EnvFile:    filepath.Join(dir, "missing.env"),
	})
	if err == nil {
		t.Fatal("an invalid log level should fail setup")
	}
}
