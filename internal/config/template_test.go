package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTemplateFile_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.yaml")
	content := `template:
  name: solar_progress_update
  language: en_US
timezone: Asia/Kolkata
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	tf, err := LoadTemplateFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tmpl := Template{Name: "default", Language: "xx", DocumentPattern: "keep", TimeZone: "UTC"}
	tf.apply(&tmpl)

	if tmpl.Name != "solar_progress_update" || tmpl.Language != "en_US" {
		t.Fatalf("unexpected template: %+v", tmpl)
	}
	if tmpl.DocumentPattern != "keep" {
		t.Fatalf("empty pattern should not override, got %q", tmpl.DocumentPattern)
	}
	if tmpl.TimeZone != "Asia/Kolkata" {
		t.Fatalf("unexpected timezone %q", tmpl.TimeZone)
	}
}

func TestLoadTemplateFile_FileNotFound(t *testing.T) {
	if _, err := LoadTemplateFile("/nonexistent/path/template.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadTemplateFile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.yaml")
	if err := os.WriteFile(path, []byte("template: [unclosed"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	if _, err := LoadTemplateFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadTemplateFile_NameWithWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.yaml")
	if err := os.WriteFile(path, []byte("template:\n  name: solar progress\n"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	if _, err := LoadTemplateFile(path); err == nil {
		t.Fatal("expected validation error")
	}
}
