// Package config loads the optional csproject.json project file.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// FileName is the project file looked for at the project root.
const FileName = "csproject.json"

// ErrInvalidConfig is returned when the project file doesn't match the
// schema.
var ErrInvalidConfig = errors.New("invalid project configuration")

//go:embed schema.json
var schemaJSON string

// Config describes where a project's files are and how to watch them.
type Config struct {
	SceneDirectory string   `json:"sceneDirectory"`
	StartupFile    string   `json:"startupFile"`
	StatsFile      string   `json:"statsFile"`
	DebounceMillis int      `json:"debounceMillis"`
	Ignore         []string `json:"ignore"`
	// Snapshot is where to save the index between runs. Empty disables it.
	Snapshot string `json:"snapshot"`
}

// Default returns the configuration used when there is no project file.
func Default() *Config {
	return &Config{
		SceneDirectory: ".",
		StartupFile:    "startup.txt",
		StatsFile:      "choicescript_stats.txt",
		DebounceMillis: 250,
	}
}

// Debounce is how long to wait for a file to stop changing.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// SceneDir returns the scene directory resolved against root.
func (c *Config) SceneDir(root string) string {
	if filepath.IsAbs(c.SceneDirectory) {
		return c.SceneDirectory
	}
	return filepath.Join(root, c.SceneDirectory)
}

// Ignored reports whether a scene file should be skipped.
func (c *Config) Ignored(name string) bool {
	for _, pattern := range c.Ignore {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// Load reads root/csproject.json, or returns Default if there is none.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", FileName, err)
	}
	return Parse(data)
}

// Parse validates data against the project schema and fills in defaults
// for missing fields.
func Parse(data []byte) (*Config, error) {
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile project schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

var (
	schemaOnce     sync.Once
	schemaCompiled *jsonschema.Schema
	schemaErr      error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true
		if compiler.Formats == nil {
			compiler.Formats = make(map[string]func(interface{}) bool)
		}
		compiler.Formats["glob"] = func(v interface{}) bool {
			s, ok := v.(string)
			if !ok {
				return true // Type validation happens separately
			}
			_, err := path.Match(s, "")
			return err == nil
		}

		url := "schema://csproject.json"
		if err := compiler.AddResource(url, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schemaCompiled, schemaErr = compiler.Compile(url)
	})
	return schemaCompiled, schemaErr
}
