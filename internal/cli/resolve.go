package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
	"github.com/crosspost-dev/go-crosspost/pkg/orchestrator"
	"github.com/crosspost-dev/go-crosspost/pkg/submission"
)

type resolveOptions struct {
	submission   string
	destinations []string
	interactive  bool
	format       string
}

func newResolveCommand(a *app) *cobra.Command {
	opts := &resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a submission for its destinations",
		Long: `Resolve a submission file into the content each destination receives.

Examples:
  crosspost resolve --submission post.yaml
  crosspost resolve --submission post.yaml --destination bluesky --destination mastodon
  crosspost resolve --submission post.yaml --interactive --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runResolve(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.submission, "submission", "s", "", "Submission file (YAML or JSON)")
	cmd.Flags().StringArrayVarP(&opts.destinations, "destination", "d", nil, "Destination to resolve (repeatable)")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Pick destinations interactively")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format (text, json)")
	_ = cmd.MarkFlagRequired("submission")
	return cmd
}

func (a *app) runResolve(cmd *cobra.Command, opts *resolveOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q (use text or json)", opts.format)
	}
	ctx := cmd.Context()

	sub, err := submission.Load(opts.submission)
	if err != nil {
		return err
	}
	orch, closeFn, err := a.newOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	names := opts.destinations
	if len(names) == 0 {
		names = sub.Order
	}
	if len(names) == 0 {
		names = orch.Table().Names()
	}
	if opts.interactive {
		names, err = pickDestinations(candidates(sub.Order, orch.Table().Names()), names)
		if err != nil {
			return err
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("no destinations selected")
	}

	req := orchestrator.Request{Defaults: sub.Defaults}
	for _, name := range names {
		req.Targets = append(req.Targets, orchestrator.Target{Destination: name, Options: sub.Destination(name)})
	}
	results, err := orch.Resolve(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		err = writeJSON(out, results)
	} else {
		err = writeText(out, results)
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d destinations failed", failed, len(results))
	}
	return nil
}

// candidates lists the submission's destinations first, then every other
// destination the table declares.
func candidates(order, known []string) []string {
	seen := make(map[string]struct{}, len(order)+len(known))
	out := make([]string, 0, len(order)+len(known))
	for _, name := range append(append([]string{}, order...), known...) {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func pickDestinations(options, defaults []string) ([]string, error) {
	prompt := &survey.MultiSelect{
		Message: "Destinations:",
		Options: options,
		Default: defaults,
	}
	var selected []string
	if err := survey.AskOne(prompt, &selected, survey.WithValidator(survey.Required)); err != nil {
		return nil, err
	}
	return selected, nil
}

type jsonResolution struct {
	Destination string        `json:"destination"`
	Result      *model.Result `json:"result,omitempty"`
	Error       string        `json:"error,omitempty"`
}

func writeJSON(w io.Writer, results []orchestrator.Resolution) error {
	payload := make([]jsonResolution, 0, len(results))
	for _, res := range results {
		entry := jsonResolution{Destination: res.Destination}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		} else {
			result := res.Result
			entry.Result = &result
		}
		payload = append(payload, entry)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(payload)
}

func writeText(w io.Writer, results []orchestrator.Resolution) error {
	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "== %s\n", res.Destination)
		if res.Err != nil {
			fmt.Fprintf(&b, "error: %v\n", res.Err)
			continue
		}
		r := res.Result
		fmt.Fprintf(&b, "title: %s\n", r.Title)
		if r.ContentWarning != "" {
			fmt.Fprintf(&b, "content warning: %s\n", r.ContentWarning)
		}
		if r.Rating != "" {
			fmt.Fprintf(&b, "rating: %s\n", r.Rating)
		}
		fmt.Fprintf(&b, "tags: %s\n", strings.Join(r.Tags, ", "))
		if len(r.Fields) > 0 {
			keys := make([]string, 0, len(r.Fields))
			for key := range r.Fields {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Fprintf(&b, "%s: %v\n", key, r.Fields[key])
			}
		}
		if r.Description == nil {
			b.WriteString("description: (none)\n")
		} else {
			fmt.Fprintf(&b, "description:\n%s\n", strings.ReplaceAll(*r.Description, "\r\n", "\n"))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
