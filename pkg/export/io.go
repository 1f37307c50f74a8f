package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
)

// Encode writes v to w as indented JSON without HTML escaping.
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile encodes v into path. The file is written to a temporary name in
// the same directory and renamed into place, so readers never observe a
// partial file.
func WriteFile(path string, v any) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := Encode(f, v); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// Write stores e as the three lookup files in dir, creating dir if needed.
// It returns the written paths in [Files] order.
func Write(dir string, e *Export) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	values := map[string]any{
		TypeIDsFile:    e.TypeIDs,
		TypeNamesFile:  e.TypeNames,
		BlueprintsFile: e.Blueprints,
	}
	paths := make([]string, 0, len(Files))
	for _, name := range Files {
		path := filepath.Join(dir, name)
		if err := WriteFile(path, values[name]); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ReadFile decodes the JSON file at path into v.
func ReadFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Read loads the three lookup files from dir. Collisions are not persisted;
// Unnamed is rebuilt from null names, in ascending order.
func Read(dir string) (*Export, error) {
	e := New()
	if err := ReadFile(filepath.Join(dir, TypeIDsFile), &e.TypeIDs); err != nil {
		return nil, err
	}
	if err := ReadFile(filepath.Join(dir, TypeNamesFile), &e.TypeNames); err != nil {
		return nil, err
	}
	if err := ReadFile(filepath.Join(dir, BlueprintsFile), &e.Blueprints); err != nil {
		return nil, err
	}
	for id, entry := range e.TypeIDs {
		if entry.Name == nil {
			e.Unnamed = append(e.Unnamed, id)
		}
	}
	slices.Sort(e.Unnamed)
	return e, nil
}
