package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/depcheck/internal/cli"
	"github.com/leapstack-labs/depcheck/pkg/manifest"
)

const (
	profilesPage      = "/reference/profiles"
	configurationPage = "/reference/configuration"
)

// kitFieldDocs describes each key of the depcheck field in package.json.
var kitFieldDocs = map[string]string{
	"kind":           "How versions are placed: `app` pins them in dependencies, `library` declares peer ranges and pins devDependencies.",
	"capabilities":   "Capabilities the package needs, e.g. `core-ios` or `react`. The [profiles](" + profilesPage + ") page lists every capability.",
	"hostVersion":    "Supported host versions, e.g. `^0.63 || ^0.64`. Every profile when omitted. Peer ranges span all of them.",
	"devHostVersion": "Host versions used for local development, narrowed from hostVersion. Pins come from these profiles.",
}

const kitExample = `{
  "name": "example-library",
  "version": "1.0.0",
  "depcheck": {
    "kind": "library",
    "capabilities": ["core-android", "core-ios", "react"],
    "hostVersion": "^0.63 || ^0.64",
    "devHostVersion": "0.64"
  }
}`

// exitStatus holds the meaning of each exit code per command. Commands not
// listed exit 1 on any error.
var exitStatus = map[string][][]string{
	"check": {
		{"0", "Every configured manifest is up to date, or was written with `--write`. Manifests without a `depcheck` field are reported as skipped and do not fail the run."},
		{"1", "At least one manifest is out of date, or a manifest could not be read, parsed or resolved."},
	},
	"watch": {
		{"0", "Stopped by an interrupt. Out-of-date and unconfigured manifests are reported on each run and never stop the watch."},
		{"1", "The manifests or the profiles directory could not be watched, or the profiles failed to load."},
	},
	"devtools": {
		{"0", "The debugger was opened, or `--list` printed the connected apps."},
		{"1", "The dev server could not be reached, no app is connected, or neither Chrome nor Edge could open the debugger."},
	},
}

// seeAlso links each command to the reference pages it depends on.
var seeAlso = map[string][]string{
	"check":    {"[Package configuration](/cli#package-configuration)", "[Profiles](" + profilesPage + ")", "[Configuration](" + configurationPage + ")"},
	"watch":    {"[Package configuration](/cli#package-configuration)", "[Configuration](" + configurationPage + ")"},
	"profiles": {"[Profiles](" + profilesPage + ")"},
}

// generateCLIDocs writes index.md and one page per command.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	pages := cliPages(cli.NewRootCmd())
	names := make([]string, 0, len(pages))
	for name := range pages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := os.WriteFile(filepath.Join(outDir, name), pages[name], 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		log.Printf("  Generated %s", name)
	}
	return nil
}

// cliPages renders the CLI reference keyed by file name.
func cliPages(root *cobra.Command) map[string][]byte {
	pages := map[string][]byte{"index.md": cliIndex(root)}
	for _, cmd := range documentedCommands(root) {
		pages[cmd.Name()+".md"] = commandPage(cmd)
	}
	return pages
}

func documentedCommands(root *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.Hidden || cmd.Name() == "help" || cmd.Name() == "__complete" {
			continue
		}
		out = append(out, cmd)
	}
	return out
}

func cliIndex(root *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for depcheck")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph("depcheck keeps the dependency versions in package.json in line with the host versions a package supports. " +
		"Each capability a package needs is looked up in the [compatibility profiles](" + profilesPage + ") and written to the right bucket.")

	w.Header(2, "Installation")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/depcheck/cmd/depcheck@latest")

	w.Header(2, "Package configuration")
	w.Paragraph("A package opts in with a `depcheck` field in its package.json:")
	w.CodeBlock("json", kitExample)
	writeKitTable(w)
	w.Paragraph("The `--kind`, `--capabilities`, `--host-version` and `--dev-host-version` flags, and the `check` section of " +
		"[depcheck.yaml](" + configurationPage + "), override the field for every manifest of a run. " +
		"A manifest left without a kind or capabilities is skipped.")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range documentedCommands(root) {
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	writeFlagsTable(w, root.PersistentFlags())

	w.Header(2, "Environment Variables")
	var envRows [][]string
	for _, f := range configFields() {
		envRows = append(envRows, []string{InlineCode(envName(f.Key)), f.Description})
	}
	w.Table([]string{"Variable", "Description"}, envRows)
	w.Paragraph("Nested keys use a double underscore. Flags take precedence over environment variables, which take precedence over `depcheck.yaml`.")

	w.Header(2, "Exit Codes")
	w.Paragraph("Skipped manifests never change the exit code, so `depcheck check` can run over a whole workspace in CI. " +
		"See each command page for details.")
	writeExitTable(w, exitStatus["check"])

	return w.Bytes()
}

// kitFields returns the JSON names of the depcheck field in declaration
// order.
func kitFields() []string {
	t := reflect.TypeOf(manifest.Kit{})
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		names = append(names, name)
	}
	return names
}

func writeKitTable(w *MarkdownWriter) {
	var kinds []string
	for _, k := range manifest.Kinds() {
		kinds = append(kinds, InlineCode(string(k)))
	}

	var rows [][]string
	for _, name := range kitFields() {
		desc := kitFieldDocs[name]
		if name == "kind" {
			desc += " One of " + strings.Join(kinds, ", ") + "."
		}
		rows = append(rows, []string{InlineCode(name), desc})
	}
	w.Table([]string{"Field", "Description"}, rows)
}

func writeExitTable(w *MarkdownWriter, rows [][]string) {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{InlineCode(r[0]), r[1]})
	}
	w.Table([]string{"Code", "Meaning"}, out)
}

func commandPage(cmd *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	useLine := cmd.UseLine()
	if !strings.HasPrefix(useLine, "depcheck") {
		useLine = "depcheck " + useLine
	}
	w.CodeBlock("bash", useLine)

	if cmd.HasLocalFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, cmd.LocalFlags())
	}
	if cmd.HasInheritedFlags() {
		w.Header(2, "Global Options")
		writeFlagsTable(w, cmd.InheritedFlags())
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", cleanExample(cmd.Example))
	}

	if rows, ok := exitStatus[cmd.Name()]; ok {
		w.Header(2, "Exit Status")
		writeExitTable(w, rows)
	}

	if links, ok := seeAlso[cmd.Name()]; ok {
		w.Header(2, "See Also")
		w.BulletList(links)
	}

	return w.Bytes()
}

func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		short := ""
		if f.Shorthand != "" {
			short = "-" + f.Shorthand
		}
		def := f.DefValue
		if def != "" && f.Value.Type() == "string" {
			def = InlineCode(def)
		}
		rows = append(rows, []string{InlineCode("--" + f.Name), short, def, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Option", "Short", "Default", "Description"}, rows)
}

// cleanExample strips the indentation cobra examples share.
func cleanExample(example string) string {
	lines := strings.Split(example, "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent == -1 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return strings.TrimSpace(example)
	}
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
