// Package config loads the optional kayak.yaml project configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the project root.
const FileName = "kayak.yaml"

// Defaults applied when kayak.yaml leaves a value empty.
const (
	DefaultOutput     = "kayak_rsx.go"
	DefaultCoreImport = "github.com/go-drift/kayak/pkg/core"
)

// Config represents the optional kayak.yaml configuration.
type Config struct {
	Generate GenerateConfig `yaml:"generate"`
}

// GenerateConfig contains settings for kayak generate.
type GenerateConfig struct {
	Output     string   `yaml:"output,omitempty"`
	CoreImport string   `yaml:"core_import,omitempty"`
	Tags       []string `yaml:"tags,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root       string
	ModulePath string
	Output     string
	CoreImport string
	Tags       []string
}

// LoadOptional reads kayak.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	return &cfg, nil
}

// Resolve loads kayak.yaml (if present) and resolves defaults.
func Resolve(dir string) (*Resolved, error) {
	modulePath, err := modulePath(dir)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	output := strings.TrimSpace(cfg.Generate.Output)
	if output == "" {
		output = DefaultOutput
	}
	if err := validateOutput(output); err != nil {
		return nil, err
	}

	coreImport := strings.TrimSpace(cfg.Generate.CoreImport)
	if coreImport == "" {
		coreImport = DefaultCoreImport
	}
	if err := module.CheckImportPath(coreImport); err != nil {
		return nil, fmt.Errorf("generate.core_import: %w", err)
	}

	return &Resolved{
		Root:       dir,
		ModulePath: modulePath,
		Output:     output,
		CoreImport: coreImport,
		Tags:       cfg.Generate.Tags,
	}, nil
}

// FindProjectRoot walks up from the current directory to find go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindProjectRootFrom(dir)
}

// FindProjectRootFrom walks up from dir to find go.mod.
func FindProjectRootFrom(dir string) (string, error) {
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a Go module (no go.mod found)")
		}
		dir = parent
	}
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}

func validateOutput(name string) error {
	if filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("generate.output must be a file name, not a path (got %q)", name)
	}
	if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
		return fmt.Errorf("generate.output must be a non-test .go file (got %q)", name)
	}
	return nil
}
