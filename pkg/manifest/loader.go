package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a request file from the given path.
//
// The file format is determined by extension: .yaml/.yml for YAML,
// .json for JSON. If the extension is unrecognized, YAML is attempted
// first, then JSON.
//
// Returns an error if:
//   - The file cannot be read (not found, permission denied, etc.)
//   - The file content is not valid YAML or JSON
//   - The content fails schema validation
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("request file not found: %s", path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("permission denied reading request file: %s", path)
		}
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}

	return LoadFromBytes(data, path)
}

// LoadFromBytes parses and validates a request file from raw bytes.
//
// The path parameter is used for error messages and format detection.
// Validation runs on the raw data (converted to JSON) before parsing
// into the typed struct, so unknown fields are rejected
// (additionalProperties: false in the schema).
func LoadFromBytes(data []byte, path string) (*Manifest, error) {
	if len(data) == 0 {
		return nil, errors.New("request file is empty")
	}

	jsonData, err := toJSON(data, path)
	if err != nil {
		return nil, err
	}

	if err := ValidateRaw(jsonData); err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(jsonData, &m); err != nil {
		return nil, fmt.Errorf("failed to parse request file: %w", err)
	}
	return &m, nil
}

// LoadFromReader reads and validates a request file from an io.Reader.
func LoadFromReader(r io.Reader, path string) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}
	return LoadFromBytes(data, path)
}

// toJSON converts the input to JSON based on the file extension.
// YAML input is round-tripped through an intermediate any so map keys
// become strings.
func toJSON(data []byte, path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if !json.Valid(data) {
			return nil, fmt.Errorf("request file is not valid JSON: %s", path)
		}
		return data, nil
	case ".yaml", ".yml":
		return yamlToJSON(data)
	default:
		if converted, err := yamlToJSON(data); err == nil {
			return converted, nil
		}
		if json.Valid(data) {
			return data, nil
		}
		return nil, fmt.Errorf("request file is neither valid YAML nor JSON: %s", path)
	}
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("request file is not valid YAML: %w", err)
	}
	return json.Marshal(doc)
}
