package collection

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/veccoll/internal/domain"
)

// NameSeparator joins name tokens. Slugs only ever contain single hyphens,
// so a double underscore cannot appear inside a token.
const NameSeparator = "__"

// DeriveName computes the canonical collection name:
// <stem>__[provider__]<model>[__variant].
// The result depends on nothing but its arguments.
func DeriveName(source, provider, model, variant string) (string, error) {
	if strings.TrimSpace(model) == "" {
		return "", fmt.Errorf("embedding model is required to derive a name: %w", domain.ErrInvalidConfiguration)
	}

	stem := Slugify(fileStem(source))
	if stem == "" {
		return "", fmt.Errorf("source %q has no usable file name: %w", source, domain.ErrInvalidConfiguration)
	}

	parts := []string{stem}
	if p := Slugify(provider); p != "" {
		parts = append(parts, p)
	}
	m := Slugify(model)
	if m == "" {
		return "", fmt.Errorf("embedding model %q has no alphanumeric characters: %w", model, domain.ErrInvalidConfiguration)
	}
	parts = append(parts, m)
	if v := Slugify(variant); v != "" {
		parts = append(parts, v)
	}

	return strings.Join(parts, NameSeparator), nil
}

// Slugify lowercases s and collapses every run of characters outside [a-z0-9]
// into a single hyphen, trimming hyphens at both ends. ASCII only.
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	pendingSep := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteByte(c)
			continue
		}
		pendingSep = true
	}

	return b.String()
}

// fileStem returns the file name of path without its final extension.
// Both slash styles are accepted so names do not depend on the host OS.
func fileStem(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	ext := filepath.Ext(path)
	if ext == path {
		// dotfile such as ".cards": the whole name is the stem
		return path
	}
	return strings.TrimSuffix(path, ext)
}
