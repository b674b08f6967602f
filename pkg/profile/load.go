package profile

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var builtin embed.FS

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://depcheck.schemas.local/profile.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	errSchema      error
)

func profileSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			errSchema = fmt.Errorf("profile schema load failed: %w", err)
			return
		}
		compiledSchema, errSchema = c.Compile(schemaURL)
		if errSchema != nil {
			errSchema = fmt.Errorf("profile schema compile failed: %w", errSchema)
		}
	})
	return compiledSchema, errSchema
}

// document is the on-disk shape of a profile file.
type document struct {
	HostVersion string                `yaml:"hostVersion"`
	Packages    map[string]Descriptor `yaml:"packages"`
}

// Parse decodes and validates one YAML profile. source names the file in
// error messages.
func Parse(data []byte, source string) (Profile, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", source, err)
	}

	schema, err := profileSchema()
	if err != nil {
		return Profile{}, err
	}
	value, err := jsonValue(raw)
	if err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", source, err)
	}
	if err := schema.Validate(value); err != nil {
		return Profile{}, fmt.Errorf("profile %s: schema validation failed: %w", source, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", source, err)
	}
	p, err := New(doc.HostVersion, doc.Packages)
	if err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", source, err)
	}
	return p, nil
}

// jsonValue converts a YAML-decoded value into the plain JSON value types
// the schema validator understands.
func jsonValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("not representable as JSON: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func isProfileFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// LoadDir parses every *.yaml and *.yml file in dir, in file name order.
func LoadDir(dir string) ([]Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles directory: %w", err)
	}
	var profiles []Profile
	for _, e := range entries {
		if e.IsDir() || !isProfileFile(e.Name()) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(p) //nolint:gosec // path comes from the configured profiles dir
		if err != nil {
			return nil, fmt.Errorf("failed to read profile: %w", err)
		}
		prof, err := Parse(data, p)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, prof)
	}
	return profiles, nil
}

// Builtin returns the profiles compiled into the binary.
func Builtin() ([]Profile, error) {
	entries, err := fs.ReadDir(builtin, "data")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	profiles := make([]Profile, 0, len(names))
	for _, name := range names {
		data, err := builtin.ReadFile(path.Join("data", name))
		if err != nil {
			return nil, err
		}
		p, err := Parse(data, name)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// Default returns a registry of the built-in profiles.
func Default() (*Registry, error) {
	profiles, err := Builtin()
	if err != nil {
		return nil, err
	}
	return NewRegistry(profiles...)
}

// Load returns the built-in registry, with profiles from dir (if non-empty)
// replacing or extending it.
func Load(dir string) (*Registry, error) {
	reg, err := Default()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return reg, nil
	}
	extra, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return Merge(reg, extra...)
}
