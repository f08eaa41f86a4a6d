package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
debug: true
server:
  host: 0.0.0.0
  port: 9090
elasticsearch:
  addresses:
    - http://es1:9200
    - http://es2:9200
  username: karte
  password: secret
storage:
  database_path: /var/lib/karte/karte.db
auth:
  enabled: true
  secret: hmac-secret
indices:
  allowed:
    - clinical-*
    - registry
  projects:
    clinical: clinical-patients
query:
  default_size: 25
  max_size: 500
  join_fetch_limit: 2000
export:
  max_rows: 5000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !cfg.Debug {
		t.Error("debug not set")
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9090 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if !reflect.DeepEqual(cfg.Elasticsearch.Addresses, []string{"http://es1:9200", "http://es2:9200"}) {
		t.Errorf("addresses = %v", cfg.Elasticsearch.Addresses)
	}
	if cfg.Elasticsearch.Username != "karte" || cfg.Elasticsearch.Password != "secret" {
		t.Errorf("credentials = %+v", cfg.Elasticsearch)
	}
	if cfg.Storage.DatabasePath != "/var/lib/karte/karte.db" {
		t.Errorf("database path = %q", cfg.Storage.DatabasePath)
	}
	if !cfg.Auth.Enabled || cfg.Auth.Secret != "hmac-secret" {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if !reflect.DeepEqual(cfg.Indices.Allowed, []string{"clinical-*", "registry"}) {
		t.Errorf("allowed = %v", cfg.Indices.Allowed)
	}
	if cfg.Indices.Projects["clinical"] != "clinical-patients" {
		t.Errorf("projects = %v", cfg.Indices.Projects)
	}
	if cfg.Query.DefaultSize != 25 || cfg.Query.MaxSize != 500 || cfg.Query.JoinFetchLimit != 2000 {
		t.Errorf("query = %+v", cfg.Query)
	}
	if cfg.Export.MaxRows != 5000 {
		t.Errorf("export = %+v", cfg.Export)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "debug: false\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if !reflect.DeepEqual(cfg.Elasticsearch.Addresses, []string{"http://localhost:9200"}) {
		t.Errorf("address default = %v", cfg.Elasticsearch.Addresses)
	}
	if cfg.Storage.DatabasePath != "/usr/local/var/karte/data/karte.db" {
		t.Errorf("database path default = %q", cfg.Storage.DatabasePath)
	}
	if cfg.Query.DefaultSize != 50 || cfg.Query.MaxSize != 1000 || cfg.Query.JoinFetchLimit != 1000 {
		t.Errorf("query defaults = %+v", cfg.Query)
	}
	if cfg.Export.MaxRows != 10000 {
		t.Errorf("export default = %+v", cfg.Export)
	}
	if cfg.Auth.Enabled {
		t.Error("auth enabled by default")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load succeeded on a missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [not a map")); err == nil {
		t.Error("Load succeeded on invalid YAML")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"absolute unchanged", "/var/lib/karte.db", "/var/lib/karte.db"},
		{"config relative", "./data/karte.db", "/etc/karte/data/karte.db"},
		{"home relative", "karte/karte.db", filepath.Join(home, "karte/karte.db")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandPath(tt.path, "/etc/karte"); got != tt.want {
				t.Errorf("expandPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
