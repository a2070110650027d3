package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation"
	"sigs.k8s.io/yaml"
)

const (
	ConfigKind       = "Config"
	ConfigApiVersion = "manifestor.dev/v1"

	DefaultApplication       = "manifestor"
	DefaultFieldManagerGroup = "manifestor.dev"
)

type Config struct {
	metav1.TypeMeta `json:",inline"`

	// Application identifies the upstream application the manifest sets belong to.
	Application string `json:"application"`

	// FieldManager holds the manager name and group used for server-side apply.
	FieldManager *FieldManager `json:"fieldManager,omitempty"`

	// ManifestSets holds the manifest sets managed by this application.
	ManifestSets []ManifestSetSpec `json:"manifestSets,omitempty"`
}

type FieldManager struct {
	// Name overrides the field manager of the reconciled objects,
	// when empty '<application>-<manifest set>' is used.
	Name string `json:"name,omitempty"`

	// Group sets the ownership label key prefix.
	Group string `json:"group"`
}

// ManifestSetSpec describes a release catalog and the manipulations applied to it.
type ManifestSetSpec struct {
	// Name of the manifest set, used in the ownership labels.
	Name string `json:"name"`

	// Path to the catalog base directory, relative paths are resolved
	// against the config file directory.
	Path string `json:"path"`

	// Namespace is the default namespace of the namespaced objects.
	Namespace string `json:"namespace,omitempty"`

	// CreateNamespace adds the default namespace to the desired objects.
	CreateNamespace bool `json:"createNamespace,omitempty"`

	// ValuesFile is a YAML file re-read on every access, its values take
	// precedence over the inline values.
	ValuesFile string `json:"valuesFile,omitempty"`

	// Values holds the inline configuration, e.g. 'release' and 'image-registry'.
	Values Values `json:"values,omitempty"`
}

// NewConfig returns a config with the default field manager.
func NewConfig() *Config {
	return &Config{
		TypeMeta: metav1.TypeMeta{
			Kind:       ConfigKind,
			APIVersion: ConfigApiVersion,
		},
		Application:  DefaultApplication,
		FieldManager: defaultFieldManager(),
	}
}

func defaultFieldManager() *FieldManager {
	return &FieldManager{
		Group: DefaultFieldManagerGroup,
	}
}

// DefaultConfigPath returns '$HOME/.manifestor/config'
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".manifestor/config"), nil
}

// Read loads the config from the specified path,
// if the config file is not found, a default is returned.
func Read(configPath string) (*Config, error) {
	if configPath == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("$HOME dir can't be determined, error: %w", err)
		}
		configPath = p
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return NewConfig(), nil
	}

	cfgData, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(cfgData, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s failed, error: %w", configPath, err)
	}

	if cfg.Application == "" {
		cfg.Application = DefaultApplication
	}

	if cfg.FieldManager == nil {
		cfg.FieldManager = defaultFieldManager()
	}

	if cfg.FieldManager.Group == "" {
		return nil, fmt.Errorf("the field manager group can't be empty")
	}

	baseDir := filepath.Dir(configPath)
	for i, spec := range cfg.ManifestSets {
		if spec.Path != "" && !filepath.IsAbs(spec.Path) {
			cfg.ManifestSets[i].Path = filepath.Join(baseDir, spec.Path)
		}
		if spec.ValuesFile != "" && !filepath.IsAbs(spec.ValuesFile) {
			cfg.ManifestSets[i].ValuesFile = filepath.Join(baseDir, spec.ValuesFile)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the application and manifest set names can be used as label values
// and that every manifest set is unique and points to a catalog.
func (c *Config) Validate() error {
	if errs := validation.IsValidLabelValue(c.Application); len(errs) > 0 {
		return fmt.Errorf("invalid application '%s': %v", c.Application, errs)
	}

	seen := make(map[string]bool, len(c.ManifestSets))
	for _, spec := range c.ManifestSets {
		if spec.Name == "" {
			return fmt.Errorf("manifest set name can't be empty")
		}
		if errs := validation.IsValidLabelValue(spec.Name); len(errs) > 0 {
			return fmt.Errorf("invalid manifest set name '%s': %v", spec.Name, errs)
		}
		if seen[spec.Name] {
			return fmt.Errorf("duplicate manifest set '%s'", spec.Name)
		}
		seen[spec.Name] = true
		if spec.Path == "" {
			return fmt.Errorf("manifest set '%s' path can't be empty", spec.Name)
		}
	}
	return nil
}

// Lookup returns the manifest set with the given name.
func (c *Config) Lookup(name string) (ManifestSetSpec, bool) {
	for _, spec := range c.ManifestSets {
		if spec.Name == name {
			return spec, true
		}
	}
	return ManifestSetSpec{}, false
}

// Write saves the config at the given path, if no path is specified
// it will create or override '$HOME/.manifestor/config'.
func (c *Config) Write(configPath string) error {
	if configPath == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		configPath = p
	}

	if err := os.MkdirAll(filepath.Dir(configPath), os.FileMode(0755)); err != nil {
		return err
	}

	cfgData, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := os.WriteFile(configPath, cfgData, os.FileMode(0666)); err != nil {
		return err
	}

	return nil
}
