package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/scipunch/feedsnap/cache"
)

func TestReadOverridesDefaults(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	blob := `
feed_url = "https://example.com/rss"
max_entries = 5

[fetch]
timeout_seconds = 3
user_agent = "test-agent"

[inline]
extractor = "readability"
max_words = 10
`
	if err := os.WriteFile(cfgPath, []byte(blob), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := Read(cfgPath)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	want := Default()
	want.FeedURL = "https://example.com/rss"
	want.MaxEntries = 5
	want.Fetch.TimeoutSeconds = 3
	want.Fetch.UserAgent = "test-agent"
	want.Inline.Extractor = "readability"
	want.Inline.MaxWords = 10

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteRead(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "nested", "feedsnap", "config.toml")

	cfg := Default()
	cfg.FeedURL = "https://example.com/atom.xml"
	cfg.Cache.Enabled = false
	cfg.Inline.Enabled = false

	if err := Write(cfgPath, cfg); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := Read(cfgPath)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.toml"))
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestReadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		blob    string
		wantErr string
	}{
		{"malformed toml", "max_entries = = 3", "failed to decode"},
		{"zero entries", "max_entries = 0", "max_entries"},
		{"unknown extractor", "[inline]\nextractor = \"telegram\"", "inline.extractor"},
		{"negative timeout", "[fetch]\ntimeout_seconds = -1", "timeout_seconds"},
		{"unknown log level", "[fetch]\nlog_level = \"loud\"", "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(cfgPath, []byte(tt.blob), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Read(cfgPath)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateDefault(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestDefaultDatabasePath(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")
	got := Default().DatabasePath
	if got != cache.DefaultCachePath() || got != "/tmp/cache/feedsnap/cache.db" {
		t.Errorf("default database path %q does not follow the snapshot store", got)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := DefaultPath(); got != "/tmp/xdg/feedsnap/config.toml" {
		t.Errorf("unexpected path %q", got)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/reader")
	if got := DefaultPath(); got != "/home/reader/.config/feedsnap/config.toml" {
		t.Errorf("unexpected path %q", got)
	}

	t.Setenv("HOME", "")
	if got := DefaultPath(); got != "config.toml" {
		t.Errorf("expected a relative fallback without HOME, got %q", got)
	}
}
