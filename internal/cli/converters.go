package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/crosspost-dev/go-crosspost/pkg/tagconv"
)

func newConvertersCommand(a *app) *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:     "converters",
		Aliases: []string{"tags"},
		Short:   "Manage tag converters",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if root := cmd.Root(); root.PersistentPreRunE != nil {
				if err := root.PersistentPreRunE(cmd, args); err != nil {
					return err
				}
			}
			if dsn != "" {
				a.cfg.Converters.DSN = dsn
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&dsn, "dsn", "", "SQLite DSN of the converter store")

	cmd.AddCommand(newConvertersListCommand(a))
	cmd.AddCommand(newConvertersAddCommand(a))
	cmd.AddCommand(newConvertersRemoveCommand(a))
	return cmd
}

func newConvertersListCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tag converters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			return writeEntries(out, entries)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json)")
	return cmd
}

func writeEntries(w io.Writer, entries []tagconv.Entry) error {
	var b strings.Builder
	for _, entry := range entries {
		keys := make([]string, 0, len(entry.ConvertTo))
		for key := range entry.ConvertTo {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%q", key, entry.ConvertTo[key]))
		}
		fmt.Fprintf(&b, "%s\t%s\n", entry.Tag, strings.Join(parts, " "))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func newConvertersAddCommand(a *app) *cobra.Command {
	var mappings []string
	cmd := &cobra.Command{
		Use:   "add [tag]",
		Short: "Add a tag converter",
		Long: `Add a tag converter. Each --to maps a destination (or "default") to
the replacement tag; an empty replacement drops the tag there.

Examples:
  crosspost converters add cat --to default=feline --to furaffinity=housecat
  crosspost converters add  # Interactive mode`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tag string
			if len(args) == 1 {
				tag = args[0]
			}
			if tag == "" {
				prompt := &survey.Input{Message: "Tag:"}
				if err := survey.AskOne(prompt, &tag, survey.WithValidator(survey.Required)); err != nil {
					return err
				}
			}
			if len(mappings) == 0 {
				var raw string
				prompt := &survey.Multiline{Message: "Conversions (destination=tag, one per line):"}
				if err := survey.AskOne(prompt, &raw, survey.WithValidator(survey.Required)); err != nil {
					return err
				}
				mappings = strings.Split(raw, "\n")
			}

			convertTo, err := parseMappings(mappings)
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			entry := tagconv.Entry{Tag: strings.TrimSpace(tag), ConvertTo: convertTo}
			if err := store.Create(cmd.Context(), &entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", entry.Tag, entry.ID)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&mappings, "to", nil, "destination=replacement (repeatable)")
	return cmd
}

// parseMappings reads destination=replacement pairs. Blank lines are
// skipped; the replacement may be empty.
func parseMappings(lines []string) (map[string]string, error) {
	out := make(map[string]string, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		destination, replacement, ok := strings.Cut(line, "=")
		destination = strings.TrimSpace(destination)
		if !ok || destination == "" {
			return nil, fmt.Errorf("invalid conversion %q (want destination=tag)", line)
		}
		out[destination] = strings.TrimSpace(replacement)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one conversion is required")
	}
	return out, nil
}

func newConvertersRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <tag>",
		Aliases: []string{"rm"},
		Short:   "Remove a tag converter",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.GetByTag(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), entry.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", entry.Tag)
			return nil
		},
	}
}
