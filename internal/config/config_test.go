package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"caseline/internal/config"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := config.Default()
	if cfg.Server.Listen != "127.0.0.1:8787" {
		t.Fatalf("default listen = %q", cfg.Server.Listen)
	}
	if cfg.Server.BasePath != "/v0" {
		t.Fatalf("default base path = %q", cfg.Server.BasePath)
	}
	if len(cfg.Webhooks) != 0 {
		t.Fatalf("default webhooks not empty: %+v", cfg.Webhooks)
	}
}

func TestLoadMissingConfig(t *testing.T) {
	dir := t.TempDir()
	_, err := config.Load(dir)
	if err == nil || !strings.Contains(err.Error(), "config init") {
		t.Fatalf("load missing: %v", err)
	}
	cfg, err := config.LoadOptional(dir)
	if err != nil || cfg != nil {
		t.Fatalf("load optional missing: cfg=%v err=%v", cfg, err)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := config.Path(dir)
	if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Listen != "127.0.0.1:8787" {
		t.Fatalf("listen = %q", cfg.Server.Listen)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing listen",
			yaml: "server:\n  base_path: /v0\n",
			want: "listen",
		},
		{
			name: "webhook without name",
			yaml: "server:\n  listen: \"127.0.0.1:1\"\nwebhooks:\n  - url: https://example.com/h\n",
			want: "name is required",
		},
		{
			name: "duplicate webhook name",
			yaml: "server:\n  listen: \"127.0.0.1:1\"\nwebhooks:\n  - name: a\n    url: https://example.com/h\n  - name: a\n    url: https://example.com/h\n",
			want: "duplicate",
		},
		{
			name: "relative webhook url",
			yaml: "server:\n  listen: \"127.0.0.1:1\"\nwebhooks:\n  - name: a\n    url: /hooks\n",
			want: "not absolute",
		},
		{
			name: "non-http scheme",
			yaml: "server:\n  listen: \"127.0.0.1:1\"\nwebhooks:\n  - name: a\n    url: ftp://example.com/h\n",
			want: "scheme",
		},
		{
			name: "negative timeout",
			yaml: "server:\n  listen: \"127.0.0.1:1\"\nwebhooks:\n  - name: a\n    url: https://example.com/h\n    timeout_seconds: -1\n",
			want: "timeout_seconds",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.FromYAML([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("got %v, want error containing %q", err, tc.want)
			}
		})
	}
}

func TestValidateTemplatesPath(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "nope.yml")
	yaml := "server:\n  listen: \"127.0.0.1:1\"\ntemplates:\n  path: " + missing + "\n"
	if _, err := config.FromYAML([]byte(yaml)); err == nil {
		t.Fatalf("expected error for missing templates path")
	}
	present := filepath.Join(dir, "templates.yml")
	if err := os.WriteFile(present, []byte("templates: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	yaml = "server:\n  listen: \"127.0.0.1:1\"\ntemplates:\n  path: " + present + "\n"
	if _, err := config.FromYAML([]byte(yaml)); err != nil {
		t.Fatalf("valid templates path rejected: %v", err)
	}
}
