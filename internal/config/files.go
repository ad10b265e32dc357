package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReadDocument decodes a YAML (.yaml, .yml) or JSON (.json) file into out.
func ReadDocument(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, out)
	case ".json":
		err = json.Unmarshal(data, out)
	default:
		return fmt.Errorf("unsupported file type %q (want .yaml, .yml or .json)", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadParameters loads a flat parameter mapping such as
//
//	PLS_Cu: 2.5
//	PLS_Ac: 1.6
//	initial_vv_guess: 10
func ReadParameters(path string) (map[string]float64, error) {
	params := map[string]float64{}
	if err := ReadDocument(path, &params); err != nil {
		return nil, err
	}
	if len(params) == 0 {
		return nil, fmt.Errorf("%s holds no parameters", filepath.Base(path))
	}
	return params, nil
}
