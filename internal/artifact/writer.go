// Package artifact serializes the grouped, enriched theme index to its
// single JSON document.
package artifact

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/caolib/typora-themes-gallery/internal/domain"
)

//go:embed schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("themes.schema.json", schemaJSON)

// Marshal renders the artifact bytes and checks them against the embedded
// schema, so a malformed artifact can never reach disk.
func Marshal(groups []*domain.Group) ([]byte, error) {
	if groups == nil {
		groups = []*domain.Group{}
	}
	data, err := json.MarshalIndent(groups, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal artifact: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to re-read artifact for validation: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("artifact failed schema validation: %w", err)
	}
	return data, nil
}

// Write replaces the artifact at path atomically: the bytes land in a
// temporary file first and are renamed into place, so a failed run leaves
// any previous artifact untouched.
func Write(path string, groups []*domain.Group) error {
	data, err := Marshal(groups)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".themes-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}

// Read loads a previously written artifact, used by the interactive stats
// refresh to discover which groups to re-query.
func Read(path string) ([]*domain.Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}
	var groups []*domain.Group
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&groups); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}
	return groups, nil
}
