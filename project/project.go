// Package project loads the linkage configuration of a project: where its
// classes come from, which release it targets and where resolved
// descriptors are cached.
package project

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/dhamidi/linkage/java/modules"
	"github.com/dhamidi/linkage/java/symbols"
)

// ConfigFiles are the file names LoadFrom looks for, in order.
var ConfigFiles = []string{"linkage.yaml", "linkage.yml", "linkage.toml"}

// ErrNoConfig is returned by LoadFrom when a directory holds no
// configuration file and no lib directory.
var ErrNoConfig = errors.New("no linkage configuration found")

type Config struct {
	Classpath       []string `yaml:"classpath" toml:"classpath"`
	ModulePath      []string `yaml:"module_path" toml:"module_path"`
	JavaHome        string   `yaml:"java_home" toml:"java_home"`
	TargetRelease   int      `yaml:"target_release" toml:"target_release"`
	CacheFile       string   `yaml:"cache_file" toml:"cache_file"`
	ToolVersion     string   `yaml:"tool_version" toml:"tool_version"`
	RequesterModule string   `yaml:"requester_module" toml:"requester_module"`

	// Dir is the directory relative paths were resolved against.
	Dir string `yaml:"-" toml:"-"`
	// File is the configuration file, empty when the configuration was
	// derived from the directory layout.
	File string `yaml:"-" toml:"-"`
}

// Load reads the configuration of the current directory.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom reads the first of ConfigFiles found in dir. Without one, a
// lib directory of jars is taken as the classpath.
func LoadFrom(dir string) (*Config, error) {
	for _, name := range ConfigFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	jars, err := libJars(filepath.Join(dir, "lib"))
	if err != nil || len(jars) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoConfig, dir)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	return &Config{Classpath: jars, Dir: abs}, nil
}

// LoadFile reads a YAML or TOML configuration file, chosen by extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	switch filepath.Ext(path) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	cfg.Dir = dir
	cfg.File = path
	cfg.resolvePaths()
	return cfg, nil
}

func (c *Config) resolvePaths() {
	for i, p := range c.Classpath {
		c.Classpath[i] = c.resolve(p)
	}
	for i, p := range c.ModulePath {
		c.ModulePath[i] = c.resolve(p)
	}
	c.JavaHome = c.resolve(c.JavaHome)
	c.CacheFile = c.resolve(c.CacheFile)
}

func (c *Config) resolve(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// libJars lists the jars in dir in name order.
func libJars(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var jars []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".jar") {
			jars = append(jars, filepath.Join(dir, e.Name()))
		}
	}
	return jars, nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var result error
	if c.TargetRelease < 0 {
		result = multierror.Append(result, fmt.Errorf("target_release must not be negative, got %d", c.TargetRelease))
	}
	for i, entry := range c.Classpath {
		if strings.TrimSpace(entry) == "" {
			result = multierror.Append(result, fmt.Errorf("classpath entry %d is empty", i))
		}
	}
	for i, entry := range c.ModulePath {
		if strings.TrimSpace(entry) == "" {
			result = multierror.Append(result, fmt.Errorf("module_path entry %d is empty", i))
		}
	}
	if len(c.Classpath) == 0 && c.JavaHome == "" {
		result = multierror.Append(result, errors.New("classpath is empty and java_home is not set"))
	}
	return result
}

// PlatformClasspath lists the jmods of JavaHome in name order.
func (c *Config) PlatformClasspath() ([]string, error) {
	if c.JavaHome == "" {
		return nil, nil
	}
	pattern := filepath.Join(c.JavaHome, "jmods", "*.jmod")
	jmods, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("list platform modules: %w", err)
	}
	sort.Strings(jmods)
	return jmods, nil
}

// FullClasspath is the configured classpath followed by the platform
// modules.
func (c *Config) FullClasspath() ([]string, error) {
	platform, err := c.PlatformClasspath()
	if err != nil {
		return nil, err
	}
	return append(append([]string(nil), c.Classpath...), platform...), nil
}

// SymbolOptions returns the symbol table options for this configuration.
func (c *Config) SymbolOptions() (symbols.Options, error) {
	classpath, err := c.FullClasspath()
	if err != nil {
		return symbols.Options{}, err
	}
	return symbols.Options{
		Classpath:     classpath,
		Fingerprint:   Fingerprint(classpath),
		TargetRelease: c.TargetRelease,
		CacheFile:     c.CacheFile,
		ToolVersion:   c.ToolVersion,
	}, nil
}

// ModuleGraph builds the module graph of the platform and module path.
func (c *Config) ModuleGraph() (*modules.Graph, error) {
	var platform []modules.ModuleSource
	if c.JavaHome != "" {
		var err error
		platform, err = modules.PlatformModules(c.JavaHome)
		if err != nil {
			return nil, err
		}
	}
	return modules.Build(platform, c.ModulePath)
}

// Fingerprint identifies the state of a classpath: the SHA-256 of each
// entry's path, size and modification time. Missing entries contribute
// their path only.
func Fingerprint(entries []string) string {
	h := sha256.New()
	for _, entry := range entries {
		h.Write([]byte(entry))
		h.Write([]byte{0})
		if info, err := os.Stat(entry); err == nil {
			h.Write([]byte(strconv.FormatInt(info.Size(), 10)))
			h.Write([]byte{0})
			h.Write([]byte(strconv.FormatInt(info.ModTime().UnixNano(), 10)))
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
