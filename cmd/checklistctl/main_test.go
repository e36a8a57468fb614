package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	yaml := "jwt:\n  secret: test\nstore:\n  backend: gorm\ndb:\n  driver: sqlite\n  dsn: " +
		filepath.ToSlash(filepath.Join(dir, "ctl.db")) + "\n  logLevel: silent\n"
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrateCreateAndPromote(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "migrate", "--config", cfg)
	if err != nil || !strings.Contains(out, "migrated gorm store") {
		t.Fatalf("migrate: %v %q", err, out)
	}
	out, err = run(t, "user", "create", "--config", cfg, "--username", "root", "--password", "secret-pw")
	if err != nil || !strings.Contains(out, "root (user)") {
		t.Fatalf("create: %v %q", err, out)
	}
	out, err = run(t, "user", "role", "root", "admin", "--config", cfg)
	if err != nil || !strings.Contains(out, "root is now admin") {
		t.Fatalf("role: %v %q", err, out)
	}
	if _, err := run(t, "user", "role", "ghost", "admin", "--config", cfg); err == nil {
		t.Fatal("unknown user should fail")
	}
	if _, err := run(t, "user", "create", "--config", cfg, "--username", "x", "--password", "y", "--role", "root"); err == nil {
		t.Fatal("invalid role should fail")
	}
}
