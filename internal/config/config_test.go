package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load with absent file: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Store.Backend != "file" || cfg.Evidence.Backend != "local" {
		t.Errorf("backends = %q / %q", cfg.Store.Backend, cfg.Evidence.Backend)
	}
	if cfg.ClassifierTimeout() != 45*time.Second {
		t.Errorf("timeout = %v", cfg.ClassifierTimeout())
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
log:
  level: debug
classifier:
  model: gpt-4o
  timeoutSeconds: 30
  referenceDate: "2025-12-06"
store:
  backend: postgres
  database:
    host: db
    port: 5432
    user: placard
    password: secret
    name: violations
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Classifier.Model != "gpt-4o" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ClassifierTimeout() != 30*time.Second {
		t.Errorf("timeout = %v", cfg.ClassifierTimeout())
	}
	want := time.Date(2025, 12, 6, 0, 0, 0, 0, time.UTC)
	if !cfg.ReferenceDate().Equal(want) {
		t.Errorf("referenceDate = %v", cfg.ReferenceDate())
	}
	dsn := cfg.PostgresDSN()
	if dsn != "host=db port=5432 user=placard password=secret dbname=violations sslmode=disable" {
		t.Errorf("dsn = %q", dsn)
	}
}

func TestCredentialPriority(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")

	path := writeConfig(t, "classifier:\n  apiKey: sk-file\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Credential(); got != "sk-file" {
		t.Errorf("credential = %q, want config file value first", got)
	}

	cfg.Classifier.APIKey = ""
	if got := cfg.Credential(); got != "sk-env" {
		t.Errorf("credential = %q, want env fallback", got)
	}

	t.Setenv("OPENAI_API_KEY", "")
	if got := cfg.Credential(); got != "" {
		t.Errorf("credential = %q, want empty when unset everywhere", got)
	}
}

func TestMySQLDSN(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: mysql
  database:
    host: localhost
    port: 3306
    user: root
    password: pw
    name: placard
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "root:pw@tcp(localhost:3306)/placard?parseTime=true&charset=utf8mb4&loc=UTC"
	if got := cfg.MySQLDSN(); got != want {
		t.Errorf("dsn = %q", got)
	}
}
