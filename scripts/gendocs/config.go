package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// ConfigField is one key of depcheck.yaml.
type ConfigField struct {
	Key         string
	Type        string
	Default     string
	Description string
	Section     string
}

// configFields lists the keys read by internal/cli/config.
func configFields() []ConfigField {
	return []ConfigField{
		{Key: "profiles_dir", Type: "string", Description: "Directory of extra profile files, relative to the config file", Section: "general"},
		{Key: "runtime_cutoff", Type: "string", Description: "Local runtime version; package versions needing a newer runtime are skipped", Section: "general"},
		{Key: "concurrency", Type: "int", Default: "4", Description: "Number of manifests checked in parallel", Section: "general"},
		{Key: "output", Type: "string", Default: "auto", Description: "Output format: auto, text, markdown, json", Section: "general"},
		{Key: "verbose", Type: "bool", Default: "false", Description: "Log debug output to stderr", Section: "general"},

		{Key: "check.write", Type: "bool", Default: "false", Description: "Write updated manifests back to disk", Section: "check"},
		{Key: "check.kind", Type: "string", Description: "Package kind for every manifest: app or library", Section: "check"},
		{Key: "check.capabilities", Type: "[]string", Description: "Capabilities for every manifest", Section: "check"},
		{Key: "check.host_version", Type: "string", Description: "Supported host versions, e.g. `^0.63 || ^0.64`", Section: "check"},
		{Key: "check.dev_host_version", Type: "string", Description: "Host versions used for local development", Section: "check"},

		{Key: "watch.debounce", Type: "duration", Default: "200ms", Description: "Quiet period after a change before re-checking", Section: "watch"},

		{Key: "devtools.host", Type: "string", Description: "Dev server host, this machine's hostname when empty", Section: "devtools"},
		{Key: "devtools.port", Type: "int", Default: "8081", Description: "Dev server port", Section: "devtools"},
		{Key: "devtools.https", Type: "bool", Default: "false", Description: "Connect to the dev server over HTTPS", Section: "devtools"},
	}
}

// envName returns the environment variable that sets key.
func envName(key string) string {
	return "DEPCHECK_" + strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}

// generateConfigDocs writes configuration.md.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating configuration docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "depcheck configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("depcheck reads `depcheck.yaml` (or `depcheck.yml`) from the current directory or the nearest parent directory.")

	sections := []struct{ name, title, intro string }{
		{"general", "General", "Top-level settings:"},
		{"check", "Check", "Settings applied to every checked manifest. They override the `depcheck` field of package.json."},
		{"watch", "Watch", "Settings for `depcheck watch`:"},
		{"devtools", "Devtools", "Location of the dev server used by `depcheck devtools`:"},
	}
	fields := configFields()
	for _, s := range sections {
		w.Header(2, s.title)
		w.Paragraph(s.intro)

		var rows [][]string
		for _, f := range fields {
			if f.Section != s.name {
				continue
			}
			defVal := f.Default
			if defVal == "" {
				defVal = "-"
			}
			rows = append(rows, []string{InlineCode(f.Key), f.Type, InlineCode(defVal), f.Description})
		}
		w.Table([]string{"Key", "Type", "Default", "Description"}, rows)
	}

	w.Header(2, "Example")
	w.CodeBlock("yaml", `profiles_dir: ./profiles
runtime_cutoff: "14.17.0"

check:
  kind: library
  host_version: "^0.63 || ^0.64"
  dev_host_version: "0.64"

watch:
  debounce: 500ms`)

	filename := filepath.Join(outDir, "configuration.md")
	if err := os.WriteFile(filename, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated configuration.md")
	return nil
}
