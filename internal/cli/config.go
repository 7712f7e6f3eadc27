package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/autosync/internal/config"
	"github.com/mrz1836/autosync/internal/logging"
	"github.com/mrz1836/autosync/internal/tui"
)

// AddConfigCommand adds the config command group to the root command.
func AddConfigCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect autosync configuration",
		Long: `Inspect the configuration autosync resolves for a checkout.

Layers, highest precedence first:
  - command-line flags
  - AUTOSYNC_* environment variables
  - project: <repo>/.autosync/config.yaml, or the file given with --config
  - main_repo: the main checkout's project config, for linked worktrees
  - global: $AUTOSYNC_HOME/config.yaml (default ~/.autosync/config.yaml)
  - built-in defaults`,
	}

	var dir string
	cmd.PersistentFlags().StringVarP(&dir, "dir", "C", "", "checkout whose configuration to resolve (default: current directory)")

	cmd.AddCommand(newConfigShowCmd(flags, &dir))
	cmd.AddCommand(newConfigPathCmd(flags, &dir))
	cmd.AddCommand(newConfigValidateCmd(flags, &dir))
	root.AddCommand(cmd)
}

func newConfigShowCmd(flags *GlobalFlags, dir *string) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration",
		Long: `Display the effective configuration and where each value comes from:
default, global, main_repo, project or env. Credentials embedded in the
remote URL are masked.`,
		Example: `  autosync config show
  autosync config show --raw > .autosync/config.yaml
  autosync config show -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.Context(), cmd.OutOrStdout(), flags, *dir, raw)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the effective configuration as YAML")
	return cmd
}

func runConfigShow(ctx context.Context, w io.Writer, flags *GlobalFlags, dir string, raw bool) error {
	ec, err := ResolveExecutionContext(ctx, dir, flags.ConfigFile)
	if err != nil {
		return err
	}

	settings := config.AnnotateSources(config.Settings(ec.Config), ec.Paths)
	for i := range settings {
		if s, ok := settings[i].Value.(string); ok {
			settings[i].Value = logging.RedactURL(s)
		}
	}

	if raw {
		return writeYAML(w, settingsDocument(settings))
	}

	if flags.Output == OutputJSON {
		return tui.NewOutput(w, tui.FormatJSON).JSON(settings)
	}

	tui.CheckNoColor()
	displaySettings(w, ec, settings, newConfigShowStyles())
	return nil
}

// configShowStyles contains styling for the config show command output.
type configShowStyles struct {
	header  lipgloss.Style
	section lipgloss.Style
	key     lipgloss.Style
	value   lipgloss.Style
	sources map[config.Source]lipgloss.Style
	dim     lipgloss.Style
}

func newConfigShowStyles() *configShowStyles {
	return &configShowStyles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(tui.ColorPrimary).
			MarginBottom(1),
		section: lipgloss.NewStyle().Bold(true),
		key:     lipgloss.NewStyle().Foreground(tui.ColorPrimary),
		value:   lipgloss.NewStyle(),
		sources: map[config.Source]lipgloss.Style{
			config.SourceEnv:      lipgloss.NewStyle().Foreground(tui.ColorError),
			config.SourceProject:  lipgloss.NewStyle().Foreground(tui.ColorWarning),
			config.SourceMainRepo: lipgloss.NewStyle().Foreground(tui.ColorWarning),
			config.SourceGlobal:   lipgloss.NewStyle().Foreground(tui.ColorSuccess),
			config.SourceDefault:  lipgloss.NewStyle().Foreground(tui.ColorMuted),
		},
		dim: lipgloss.NewStyle().Foreground(tui.ColorMuted),
	}
}

// displaySettings prints settings grouped by section, e.g.
//
//	sync:
//	  remote: origin  (default)
func displaySettings(w io.Writer, ec *ExecutionContext, settings []config.Setting, styles *configShowStyles) {
	_, _ = fmt.Fprintln(w, styles.header.Render("autosync configuration for "+ec.WorkDir))

	section := ""
	for _, s := range settings {
		group, key, _ := strings.Cut(s.Key, ".")
		if group != section {
			if section != "" {
				_, _ = fmt.Fprintln(w)
			}
			section = group
			_, _ = fmt.Fprintln(w, styles.section.Render(group+":"))
		}

		value := fmt.Sprint(s.Value)
		if value == "" {
			value = styles.dim.Render(`""`)
		} else {
			value = styles.value.Render(value)
		}
		_, _ = fmt.Fprintf(w, "  %s: %s  %s\n",
			styles.key.Render(key), value, styles.sources[s.Source].Render("("+string(s.Source)+")"))
	}
}

func newConfigPathCmd(flags *GlobalFlags, dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "List the config files read for a checkout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ec, err := ResolveExecutionContext(cmd.Context(), *dir, flags.ConfigFile)
			if err != nil {
				return err
			}
			return printConfigPaths(tui.NewOutput(cmd.OutOrStdout(), flags.Output), ec.Paths)
		},
	}
}

func printConfigPaths(out tui.Output, p config.Paths) error {
	layers := []struct {
		source config.Source
		path   string
	}{
		{config.SourceGlobal, p.Global},
		{config.SourceMainRepo, p.MainRepo},
		{config.SourceProject, p.Project},
	}

	rows := make([][]string, 0, len(layers))
	for _, l := range layers {
		if l.path == "" {
			continue
		}
		state := "missing"
		if _, err := os.Stat(l.path); err == nil {
			state = "found"
		}
		rows = append(rows, []string{string(l.source), l.path, state})
	}
	out.Table([]string{"LAYER", "PATH", "STATE"}, rows)
	return nil
}

func newConfigValidateCmd(flags *GlobalFlags, dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the merged configuration is valid",
		Long: `Load every config layer for the checkout and validate the result,
including the commit message template. Exits 2 when it is invalid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ec, err := ResolveExecutionContext(cmd.Context(), *dir, flags.ConfigFile)
			if err != nil {
				return err
			}
			tui.NewOutput(cmd.OutOrStdout(), flags.Output).Success("Configuration is valid for " + ec.WorkDir)
			return nil
		},
	}
}

// settingsDocument nests dotted settings into the layout of config.yaml.
// Durations are already rendered as strings, so the document loads back
// through the normal config path.
func settingsDocument(settings []config.Setting) map[string]map[string]any {
	doc := make(map[string]map[string]any)
	for _, s := range settings {
		group, key, _ := strings.Cut(s.Key, ".")
		if doc[group] == nil {
			doc[group] = make(map[string]any)
		}
		doc[group][key] = s.Value
	}
	return doc
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}
