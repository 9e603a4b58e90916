package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"giving-hand-api-server/config"
)

func write(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Server.Port != "8080" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Sweep.Interval != time.Minute || cfg.Mirror.ReconcileInterval != 5*time.Minute {
		t.Errorf("intervals = %v, %v", cfg.Sweep.Interval, cfg.Mirror.ReconcileInterval)
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "config.yaml", `
server:
  port: "9000"
  corsOrigins: ["https://givinghand.example"]
store:
  driver: mongo
mongo:
  uri: mongodb://localhost:27017
  dbName: fromfile
  transactions: true
mirror:
  enabled: true
  reconcileInterval: 30s
jwt:
  secret: file-secret
  expiration: 12h
log:
  level: debug
  format: json
`)
	t.Setenv("MONGO_DBNAME", "fromenv")
	t.Setenv("SWEEP_INTERVAL", "15s")

	cfg, err := config.LoadConfig(dir)
	if err != nil {
		t.Fatal(err)
	}

	want := config.Config{
		Server:   config.ServerConfig{Port: "9000", CORSOrigins: []string{"https://givinghand.example"}},
		Store:    config.StoreConfig{Driver: "mongo"},
		Mongo:    config.MongoConfig{URI: "mongodb://localhost:27017", DBName: "fromenv", Transactions: true},
		SQLite:   config.SQLiteConfig{Path: "giving-hand.db"},
		Mirror:   config.MirrorConfig{Enabled: true, Path: "giving-hand-mirror.db", ReconcileInterval: 30 * time.Second},
		Sweep:    config.SweepConfig{Interval: 15 * time.Second},
		JWT:      config.JWTConfig{Secret: "file-secret", Expiration: "12h"},
		Telegram: config.TelegramConfig{Timeout: 60},
		Log:      config.LogConfig{Level: "debug", Format: "json"},
		Seed:     config.SeedConfig{AdminEmail: "admin@givinghand.local"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
	if string(cfg.JWTSecret()) != "file-secret" {
		t.Errorf("secret = %q", cfg.JWTSecret())
	}
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, ".env", "SERVER_PORT=7070\n")
	t.Setenv("SERVER_PORT", "")
	os.Unsetenv("SERVER_PORT")

	cfg, err := config.LoadConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("port = %q, want the .env value", cfg.Server.Port)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	for name, body := range map[string]string{
		"unknown driver": "store:\n  driver: postgres\n",
		"mongo sans uri": "store:\n  driver: mongo\n",
		"bad expiration": "jwt:\n  expiration: forever\n",
		"malformed yaml": "server: [\n",
		"zero sweep":     "sweep:\n  interval: 0s\n",
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			write(t, dir, "config.yaml", body)
			if _, err := config.LoadConfig(dir); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
