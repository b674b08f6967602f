package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/depcheck/internal/cli"
)

func TestCLIPages(t *testing.T) {
	pages := cliPages(cli.NewRootCmd())

	for _, name := range []string{"index.md", "check.md", "watch.md", "profiles.md", "devtools.md", "version.md", "completion.md"} {
		assert.Contains(t, pages, name)
	}

	tests := []struct {
		page string
		want []string
	}{
		{
			page: "index.md",
			want: []string{
				generatedHeader,
				"## Package configuration",
				`"depcheck": {`,
				"| `kind` |",
				"| `capabilities` |",
				"| `hostVersion` |",
				"| `devHostVersion` |",
				"One of `app`, `library`.",
				"`^0.63 \\|\\| ^0.64`",
				"(/reference/profiles)",
				"(/reference/configuration)",
				"[`check`](/cli/check)",
				"`DEPCHECK_CHECK__HOST_VERSION`",
				"Skipped manifests never change the exit code",
			},
		},
		{
			page: "check.md",
			want: []string{
				"depcheck check [package.json...] [flags]",
				"| `--write` |",
				"## Exit Status",
				"Manifests without a `depcheck` field are reported as skipped and do not fail the run.",
				"At least one manifest is out of date",
				"[Profiles](/reference/profiles)",
			},
		},
		{
			page: "profiles.md",
			want: []string{"| `--host-versions` |", "| `--resolve` |", "## See Also", "[Profiles](/reference/profiles)"},
		},
		{
			page: "devtools.md",
			want: []string{"## Exit Status", "neither Chrome nor Edge"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.page, func(t *testing.T) {
			out := string(pages[tt.page])
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}

	assert.NotContains(t, string(pages["version.md"]), "## Exit Status")
}

func TestKitFieldsAreDocumented(t *testing.T) {
	fields := kitFields()
	require.NotEmpty(t, fields)
	for _, name := range fields {
		assert.NotEmpty(t, kitFieldDocs[name], "depcheck field %q has no description", name)
	}
	assert.Len(t, kitFieldDocs, len(fields))
}

func TestGenerateCLIDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateCLIDocs(dir))

	data, err := os.ReadFile(filepath.Join(dir, "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# CLI Reference")

	_, err = os.Stat(filepath.Join(dir, "check.md"))
	assert.NoError(t, err)
}

func TestCleanExample(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  # a\n  depcheck check", want: "# a\ndepcheck check"},
		{in: "  # a\n\n    depcheck check --write", want: "# a\n\n  depcheck check --write"},
		{in: "depcheck profiles", want: "depcheck profiles"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanExample(tt.in))
	}
}
