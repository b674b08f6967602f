package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/depcheck/internal/cli/output"
	"github.com/leapstack-labs/depcheck/pkg/profile"
	"github.com/leapstack-labs/depcheck/pkg/resolve"
)

// ProfileOutput is the JSON output for one profile.
type ProfileOutput struct {
	HostVersion string                        `json:"hostVersion"`
	Packages    map[string]profile.Descriptor `json:"packages"`
}

// ResolvedOutput is the JSON output of profiles --resolve: the version each
// capability collapses to across the selected host versions.
type ResolvedOutput struct {
	Mode         string            `json:"mode"`
	HostVersions []string          `json:"hostVersions"`
	Resolved     map[string]string `json:"resolved"`
}

// NewProfilesCommand creates the profiles command.
func NewProfilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles [capability...]",
		Short: "Show the compatibility matrix",
		Long: `Show the package each capability resolves to at every known host version.

Built-in profiles are merged with the profile files found in --profiles-dir.
Cells marked with * are development-only packages.

With --resolve, a last column shows what each capability collapses to across
the selected host versions: direct pins the newest, development the oldest,
and peer spans every distinct version.`,
		Example: `  # Show the whole matrix
  depcheck profiles

  # Show two capabilities for the host versions a library supports
  depcheck profiles --host-versions "^0.63 || ^0.64" core-ios react

  # Show the peer range a library would declare
  depcheck profiles --host-versions "^0.63 || ^0.64" --resolve peer react

  # Export the matrix for other tools
  depcheck profiles -o json`,
		RunE: runProfiles,
	}

	cmd.Flags().String("host-versions", "", "Only show profiles matching these host versions")
	cmd.Flags().String("resolve", "", "Add the version each capability resolves to (direct, development, peer)")
	_ = cmd.RegisterFlagCompletionFunc("resolve", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, m := range resolve.Modes() {
			names = append(names, m.String())
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runProfiles(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	var mode *resolve.Mode
	if name, _ := cmd.Flags().GetString("resolve"); name != "" {
		m, err := resolve.ParseMode(name)
		if err != nil {
			return err
		}
		mode = &m
	}

	profiles := cc.Registry.Profiles()
	if hv, _ := cmd.Flags().GetString("host-versions"); hv != "" {
		profiles, err = cc.Registry.Select(hv)
		if err != nil {
			return err
		}
	}

	capabilities := args
	if len(capabilities) == 0 {
		capabilities = allCapabilities(profiles)
	}

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if mode != nil {
			return r.JSON(resolvedJSON(profiles, capabilities, *mode))
		}
		return r.JSON(profilesJSON(profiles, capabilities))
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Profiles (%d host versions)", len(profiles))))
		r.Println("")
		matrixTable(r.Writer(), profiles, capabilities, mode).RenderMarkdown()
	default:
		r.Header(1, fmt.Sprintf("Profiles (%d host versions)", len(profiles)))
		t := matrixTable(r.Writer(), profiles, capabilities, mode)
		t.SetStyle(table.StyleLight)
		t.Render()
	}
	return nil
}

func allCapabilities(profiles []profile.Profile) []string {
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

// resolvedVersion collapses capability over profiles, or "-" when no
// profile provides it.
func resolvedVersion(profiles []profile.Profile, capability string, mode resolve.Mode) string {
	descriptors := profile.Collect(profiles, capability)
	if len(descriptors) == 0 {
		return "-"
	}
	return resolve.Resolve(descriptors, mode)
}

func matrixTable(w io.Writer, profiles []profile.Profile, capabilities []string, mode *resolve.Mode) table.Writer {
	titleCaser := cases.Title(language.English)

	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := table.Row{titleCaser.String("capability")}
	for _, p := range profiles {
		header = append(header, p.HostVersion)
	}
	if mode != nil {
		header = append(header, titleCaser.String("resolved")+" ("+mode.String()+")")
	}
	t.AppendHeader(header)

	for _, c := range capabilities {
		row := table.Row{c}
		for _, p := range profiles {
			row = append(row, formatCell(c, p))
		}
		if mode != nil {
			row = append(row, resolvedVersion(profiles, c, *mode))
		}
		t.AppendRow(row)
	}
	return t
}

func formatCell(capability string, p profile.Profile) string {
	d, ok := p.Lookup(capability)
	if !ok {
		return "-"
	}
	cell := d.Version
	if d.Name != capability {
		cell = d.Name + "@" + d.Version
	}
	if d.DevOnly {
		cell += " *"
	}
	return cell
}

func profilesJSON(profiles []profile.Profile, capabilities []string) []ProfileOutput {
	out := make([]ProfileOutput, 0, len(profiles))
	for _, p := range profiles {
		pkgs := make(map[string]profile.Descriptor)
		for _, c := range capabilities {
			if d, ok := p.Lookup(c); ok {
				pkgs[c] = d
			}
		}
		out = append(out, ProfileOutput{HostVersion: p.HostVersion, Packages: pkgs})
	}
	return out
}

func resolvedJSON(profiles []profile.Profile, capabilities []string, mode resolve.Mode) ResolvedOutput {
	out := ResolvedOutput{
		Mode:         mode.String(),
		HostVersions: make([]string, 0, len(profiles)),
		Resolved:     make(map[string]string),
	}
	for _, p := range profiles {
		out.HostVersions = append(out.HostVersions, p.HostVersion)
	}
	for _, c := range capabilities {
		if len(profile.Collect(profiles, c)) > 0 {
			out.Resolved[c] = resolvedVersion(profiles, c, mode)
		}
	}
	return out
}
