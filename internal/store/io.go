package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Load reads and parses the task document at path. Malformed JSON or a
// document without a tasks sequence fails with ErrCorruptStore.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}

	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrCorruptStore, path, err)
	}
	if d.Tasks == nil {
		return nil, fmt.Errorf("%w: %s has no tasks sequence", ErrCorruptStore, path)
	}
	d.Reindex()
	return &d, nil
}

// LoadWithSchema loads the document and additionally validates the raw
// JSON against the JSON Schema at schemaPath. Schema violations fail
// with ErrCorruptStore. An empty schemaPath behaves like Load.
func LoadWithSchema(path, schemaPath string) (*Document, error) {
	if schemaPath == "" {
		return Load(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}

	absSchema, err := filepath.Abs(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("resolve schema path: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile(absSchema)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", schemaPath, err)
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrCorruptStore, path, err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, path, err)
	}

	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrCorruptStore, path, err)
	}
	if d.Tasks == nil {
		return nil, fmt.Errorf("%w: %s has no tasks sequence", ErrCorruptStore, path)
	}
	d.Reindex()
	return &d, nil
}

// Save writes the full document to path with write-temp-then-replace
// semantics, so a crash mid-write never leaves a partial file. Output
// uses 2-space indentation and a trailing newline.
func (d *Document) Save(path string) error {
	d.normalize()

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal task file: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tasks-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace task file: %w", err)
	}
	return nil
}

// normalize drops empty optional collections so that load→save is a
// semantic no-op: an empty subtask list becomes absent, a nil task
// dependency list becomes the empty list (dependencies are always
// serialized for tasks).
func (d *Document) normalize() {
	for i := range d.Tasks {
		t := &d.Tasks[i]
		if t.Dependencies == nil {
			t.Dependencies = []int{}
		}
		if len(t.Subtasks) == 0 {
			t.Subtasks = nil
		}
		for j := range t.Subtasks {
			st := &t.Subtasks[j]
			if len(st.Dependencies) == 0 {
				st.Dependencies = nil
			}
		}
	}
}
