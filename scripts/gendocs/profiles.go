package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/leapstack-labs/depcheck/pkg/profile"
)

// generateProfileDocs writes profiles.md, the built-in compatibility matrix.
func generateProfileDocs(outDir string) error {
	log.Printf("Generating profile docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	reg, err := profile.Default()
	if err != nil {
		return fmt.Errorf("failed to load built-in profiles: %w", err)
	}
	profiles := reg.Profiles()

	w := NewMarkdownWriter()
	w.Frontmatter("Profiles", "Built-in compatibility profiles")
	w.GeneratedMarker()

	w.Header(1, "Profiles")
	w.Paragraph("Each column is one host version. Cells show the package and version a capability resolves to. Development-only packages are marked with *.")

	headers := append([]string{"Capability"}, profile.HostVersions(profiles)...)
	var rows [][]string
	for _, c := range capabilities(profiles) {
		row := []string{InlineCode(c)}
		for _, p := range profiles {
			row = append(row, cell(c, p))
		}
		rows = append(rows, row)
	}
	w.Table(headers, rows)

	filename := filepath.Join(outDir, "profiles.md")
	if err := os.WriteFile(filename, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated profiles.md")
	return nil
}

func capabilities(profiles []profile.Profile) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, p := range profiles {
		for _, c := range p.Capabilities() {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				names = append(names, c)
			}
		}
	}
	sort.Strings(names)
	return names
}

func cell(capability string, p profile.Profile) string {
	d, ok := p.Lookup(capability)
	if !ok {
		return "-"
	}
	s := InlineCode(d.Name + "@" + d.Version)
	if d.DevOnly {
		s += " *"
	}
	return s
}
