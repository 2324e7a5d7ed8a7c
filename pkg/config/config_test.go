package config

import (
	"os"
	"path/filepath"
	"testing"
)

// chdirTemp moves the test into a temp directory so Load() looks for
// config.yaml there.
func chdirTemp(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})
	return tmpDir
}

func TestLoad_MissingYAMLUsesEnvAndDefaults(t *testing.T) {
	chdirTemp(t)

	os.Unsetenv("PGHOST")
	os.Unsetenv("PORT")
	t.Setenv("PGDATABASE", "scrumdeck_custom")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default Port=8080, got %s", cfg.Port)
	}
	if cfg.BindAddr != "127.0.0.1" {
		t.Errorf("expected default BindAddr=127.0.0.1, got %s", cfg.BindAddr)
	}
	if cfg.Database.Database != "scrumdeck_custom" {
		t.Errorf("expected Database=scrumdeck_custom (from env), got %s", cfg.Database.Database)
	}
	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}
	if cfg.MigrationsPath != "migrations" {
		t.Errorf("expected default MigrationsPath=migrations, got %s", cfg.MigrationsPath)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	tmpDir := chdirTemp(t)

	yamlContent := `
port: "3443"
env: "test"
database:
  host: "db.example.com"
  user: "yamluser"
  database: "yamldb"
`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("PORT", "4443")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load("v1")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "4443" {
		t.Errorf("expected Port=4443 (from env), got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("expected Env=production (from env), got %s", cfg.Env)
	}
	if cfg.Database.Host != "db.example.com" {
		t.Errorf("expected Database.Host=db.example.com (from yaml), got %s", cfg.Database.Host)
	}
}

func TestLoad_PasswordOnlyFromEnv(t *testing.T) {
	tmpDir := chdirTemp(t)

	// A password in YAML must be ignored; only PGPASSWORD counts.
	yamlContent := `
database:
  password: "from-yaml"
`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("PGPASSWORD", "from-env")

	cfg, err := Load("v1")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Database.Password != "from-env" {
		t.Errorf("expected Password=from-env, got %s", cfg.Database.Password)
	}
}

func TestParseJWKSEndpoints(t *testing.T) {
	chdirTemp(t)

	t.Setenv("JWKS_ENDPOINTS", "https://auth.example.com= https://auth.example.com/jwks.json ,https://other.example.com=https://other.example.com/keys")

	cfg, err := Load("v1")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if len(cfg.Auth.JWKSEndpoints) != 2 {
		t.Fatalf("expected 2 JWKS endpoints, got %d", len(cfg.Auth.JWKSEndpoints))
	}
	if got := cfg.Auth.JWKSEndpoints["https://auth.example.com"]; got != "https://auth.example.com/jwks.json" {
		t.Errorf("unexpected endpoint for auth issuer: %s", got)
	}
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	c := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "scrumdeck",
		Password: "secret",
		Database: "scrumdeck_engine",
		SSLMode:  "disable",
	}

	want := "host=localhost port=5432 user=scrumdeck password=secret dbname=scrumdeck_engine sslmode=disable"
	if got := c.ConnectionString(); got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}
}
