package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TemplateFile is the optional YAML override for message template settings:
//
//	template: {name, language}
//	document_pattern: users/{userId}/mountingProgress/{itemName}
//	timezone: Asia/Kolkata
type TemplateFile struct {
	Template struct {
		Name     string `yaml:"name"`
		Language string `yaml:"language"`
	} `yaml:"template"`
	DocumentPattern string `yaml:"document_pattern"`
	TimeZone        string `yaml:"timezone"`
}

// LoadTemplateFile parses a YAML template file from the given path.
func LoadTemplateFile(path string) (TemplateFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TemplateFile{}, fmt.Errorf("read template file: %w", err)
	}

	var tf TemplateFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return TemplateFile{}, fmt.Errorf("parse template file: %w", err)
	}

	if name := strings.TrimSpace(tf.Template.Name); name != "" && strings.ContainsAny(name, " \t") {
		return TemplateFile{}, fmt.Errorf("template file: template name %q must not contain whitespace", name)
	}

	return tf, nil
}

// apply overlays non-empty file values onto t.
func (tf TemplateFile) apply(t *Template) {
	if v := strings.TrimSpace(tf.Template.Name); v != "" {
		t.Name = v
	}
	if v := strings.TrimSpace(tf.Template.Language); v != "" {
		t.Language = v
	}
	if v := strings.TrimSpace(tf.DocumentPattern); v != "" {
		t.DocumentPattern = v
	}
	if v := strings.TrimSpace(tf.TimeZone); v != "" {
		t.TimeZone = v
	}
}
