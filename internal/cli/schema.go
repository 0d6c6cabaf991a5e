package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crosspost-dev/go-crosspost/internal/config"
	"github.com/crosspost-dev/go-crosspost/pkg/schema"
)

func newSchemaCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect field-schema tables",
	}

	var dir, openapi string
	check := &cobra.Command{
		Use:   "check",
		Short: "Load and validate the configured schema table",
		Long: `Load the field-schema table and report each destination's capability.

Examples:
  crosspost schema check
  crosspost schema check --dir ./schemas
  crosspost schema check --openapi ./destinations.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if dir != "" || openapi != "" {
				cfg.Schema = config.SchemaConfig{Dir: dir, OpenAPI: openapi}
			}
			table, err := loadTable(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			a.logger.Debug("schema table loaded")
			return writeSchemaSummary(cmd.OutOrStdout(), table)
		},
	}
	check.Flags().StringVar(&dir, "dir", "", "Directory of YAML/JSON schema files")
	check.Flags().StringVar(&openapi, "openapi", "", "OpenAPI document declaring destination schemas")
	check.MarkFlagsMutuallyExclusive("dir", "openapi")

	cmd.AddCommand(check)
	return cmd
}

func writeSchemaSummary(w io.Writer, table schema.Table) error {
	var b strings.Builder
	fmt.Fprintf(&b, "default: %d fields\n", len(table.Default.Fields))
	for _, name := range table.Names() {
		scope := table.Scope(name)
		spec := scope.Capability()
		tags := "no tags"
		if spec.TagsSupported != nil && *spec.TagsSupported {
			tags = "tags"
			if limit := scope.MaxTags(); limit != nil {
				tags = fmt.Sprintf("tags<=%d", *limit)
			}
			if spec.MaxTags != nil {
				tags += fmt.Sprintf(" cap<=%d", *spec.MaxTags)
			}
		}
		description := string(spec.Dialect)
		if limit := scope.MaxLength("description"); limit != nil {
			description += fmt.Sprintf("<=%d", *limit)
		}
		if spec.Template != "" {
			description += " template=" + spec.Template
		}
		line := fmt.Sprintf("%s: %s, description %s", name, tags, description)
		if len(spec.TagTransforms) > 0 {
			line += ", transforms " + strings.Join(spec.TagTransforms, "+")
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("ok\n")
	_, err := io.WriteString(w, b.String())
	return err
}
