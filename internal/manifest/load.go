package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bianoble/dirsync/internal/inventory"
)

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	if errs := Validate(&m); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return &m, nil
}

// Save writes a manifest atomically using a temp file and rename.
func Save(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp manifest %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp manifest to %s: %w", path, err)
	}

	return nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("manifest validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Manifest for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(m *Manifest) []string {
	var errs []string

	if m.Version != Version {
		errs = append(errs, fmt.Sprintf("unsupported version %d — only version %d is supported", m.Version, Version))
	}

	// A snapshot maps each content to exactly one name and each name holds
	// exactly one content.
	hashes := make(map[inventory.ContentHash]bool)
	names := make(map[string]bool)
	for i, e := range m.Entries {
		prefix := fmt.Sprintf("entry[%d]", i)
		if e.Name != "" {
			prefix = fmt.Sprintf("entry '%s'", e.Name)
		}

		hash, err := inventory.ParseHash(e.Hash)
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("%s: invalid hash '%s'", prefix, e.Hash))
		case hashes[hash]:
			errs = append(errs, fmt.Sprintf("%s: duplicate hash '%s'", prefix, e.Hash))
		default:
			hashes[hash] = true
		}

		switch {
		case e.Name == "":
			errs = append(errs, fmt.Sprintf("%s: 'name' is required", prefix))
		case !filepath.IsLocal(filepath.FromSlash(e.Name)):
			errs = append(errs, fmt.Sprintf("%s: name must be a relative path inside the root", prefix))
		case names[e.Name]:
			errs = append(errs, fmt.Sprintf("%s: duplicate name", prefix))
		default:
			names[e.Name] = true
		}
	}

	return errs
}
