package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/termex/pkg/termex/annotate/lexicon"
	"github.com/cognicore/termex/pkg/termex/internalerr"
	"github.com/cognicore/termex/pkg/termex/rank"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.MaxChunkSize != 200000 || cfg.MinFrequency != 1 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoadYAMLAndEnv(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "termex.yaml")

	content := `max_chunk_size: 5000
min_frequency: 2
sort: asc
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TERMEX_MIN_FREQUENCY", "3")
	t.Setenv("TERMEX_LOG_FORMAT", "json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.MaxChunkSize != 5000 {
		t.Errorf("Expected max chunk size from file, got %d", cfg.MaxChunkSize)
	}
	if cfg.MinFrequency != 3 {
		t.Errorf("Expected env to override min frequency, got %d", cfg.MinFrequency)
	}
	if cfg.Sort != "asc" || cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if cfg.Annotator != "prose" {
		t.Errorf("Expected default annotator to survive, got %q", cfg.Annotator)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "termex.yaml")
	if err := os.WriteFile(path, []byte("min_frequency: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected invalid config, got %v", err)
	}
}

func TestLoadRejectsNonIntegerEnv(t *testing.T) {
	t.Setenv("TERMEX_MIN_FREQUENCY", "two")
	if _, err := Load(""); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected invalid config, got %v", err)
	}
}

func TestLexiconAnnotatorRequiresPath(t *testing.T) {
	cfg := Default()
	cfg.Annotator = "lexicon"
	if err := cfg.Validate(); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected lexicon path to be required, got %v", err)
	}
}

func TestParseMinFrequency(t *testing.T) {
	if n, err := ParseMinFrequency(" 4 "); err != nil || n != 4 {
		t.Errorf("expected 4, got %d (%v)", n, err)
	}
	for _, bad := range []string{"0", "-2", "1.5", "abc", ""} {
		if _, err := ParseMinFrequency(bad); !errors.Is(err, internalerr.ErrInvalidConfig) {
			t.Errorf("%q: expected invalid config, got %v", bad, err)
		}
	}
}

func TestBuildLexiconComponents(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "lexicon.yaml")
	if err := os.WriteFile(path, []byte("tags:\n  ADJ: [brown]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.Annotator = "lexicon"
	cfg.LexiconPath = path
	cfg.Sort = "asc"

	comp, err := cfg.Build(nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, ok := comp.Annotator.(*lexicon.Annotator); !ok {
		t.Errorf("expected lexicon annotator, got %T", comp.Annotator)
	}
	if comp.Sort != rank.Ascending || comp.Extractor == nil {
		t.Errorf("unexpected components %+v", comp)
	}

	req := cfg.Request("text")
	if req.MaxChunkSize != cfg.MaxChunkSize || req.MinFrequency != cfg.MinFrequency {
		t.Errorf("request does not carry config limits: %+v", req)
	}
}
