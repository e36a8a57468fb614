package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadAppliesDefaults(t *testing.T) {
	p := writeConfig(t, "jwt:\n  secret: test-secret\n")
	c := Load(p)

	if c.Store.Backend != "gorm" {
		t.Errorf("store backend: got %q", c.Store.Backend)
	}
	if c.DB.Driver != "sqlite" || !c.DB.AutoMigrate {
		t.Errorf("db defaults: %+v", c.DB)
	}
	if c.App.HTTP.Port != 8080 || c.App.Admin.Port != 8081 {
		t.Errorf("ports: %d / %d", c.App.HTTP.Port, c.App.Admin.Port)
	}
	if c.Session.TTLMin != 120 || c.Session.KeyPrefix != "sess:" {
		t.Errorf("session: %+v", c.Session)
	}
	if c.Limits.MaxBodyBytes != 1<<20 {
		t.Errorf("max body: %d", c.Limits.MaxBodyBytes)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	p := writeConfig(t, `
app:
  http:
    port: 9090
store:
  backend: mongo
mongo:
  uri: mongodb://localhost:27017
  database: lists
jwt:
  secret: s
  accessTokenTTLMin: 5
`)
	c := Load(p)
	if c.App.HTTP.Port != 9090 {
		t.Errorf("port: %d", c.App.HTTP.Port)
	}
	if c.Store.Backend != "mongo" || c.Mongo.Database != "lists" || c.Mongo.URI == "" {
		t.Errorf("mongo: %+v / %+v", c.Store, c.Mongo)
	}
	if c.JWT.AccessTokenTTLMin != 5 {
		t.Errorf("ttl: %d", c.JWT.AccessTokenTTLMin)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	p := writeConfig(t, "jwt:\n  secret: s\n")
	t.Setenv("APP_REDIS_ADDR", "redis:6380")
	c := Load(p)
	if c.Redis.Addr != "redis:6380" {
		t.Errorf("redis addr: %q", c.Redis.Addr)
	}
}
