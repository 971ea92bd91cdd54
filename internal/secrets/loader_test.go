package secrets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadInlineValue(t *testing.T) {
	t.Parallel()

	got, err := Load(Source{Name: "hunter api key", Value: "  abc123  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "abc123" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}

func TestLoadFileTakesPrecedence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("from-file\n"), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}

	got, err := Load(Source{Name: "serp api key", Value: "inline", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-file" {
		t.Fatalf("expected file contents to win, got %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	emptyFile := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(emptyFile, []byte("   \n"), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}

	tests := []struct {
		name string
		src  Source
	}{
		{"nothing configured", Source{Name: "api key"}},
		{"missing file", Source{Name: "api key", File: filepath.Join(t.TempDir(), "missing")}},
		{"empty file", Source{Name: "api key", File: emptyFile}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Load(tt.src); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}
