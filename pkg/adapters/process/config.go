package process

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// HandlerConfig declares one external command serving a story handler.
type HandlerConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile is the layout of a handlers.yaml (or .json) file.
type ConfigFile struct {
	Handlers []HandlerConfig `yaml:"handlers" json:"handlers"`
}

// LoadHandlers reads handler declarations keyed by name. The format follows
// the extension: .json is JSON, anything else YAML. A missing file declares
// nothing; an entry without a name or command, or a repeated name, is an error.
func LoadHandlers(path string) (map[string]HandlerConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]HandlerConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read handlers %s: %w", path, err)
	}

	unmarshal := yaml.Unmarshal
	if strings.EqualFold(filepath.Ext(path), ".json") {
		unmarshal = json.Unmarshal
	}
	var file ConfigFile
	if err := unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse handlers %s: %w", path, err)
	}

	byName := make(map[string]HandlerConfig, len(file.Handlers))
	for i, h := range file.Handlers {
		switch {
		case h.Name == "":
			return nil, fmt.Errorf("%s: handler #%d has no name", path, i+1)
		case h.Command == "":
			return nil, fmt.Errorf("%s: handler %q has no command", path, h.Name)
		}
		if _, dup := byName[h.Name]; dup {
			return nil, fmt.Errorf("%s: handler %q declared twice", path, h.Name)
		}
		byName[h.Name] = h
	}
	return byName, nil
}
