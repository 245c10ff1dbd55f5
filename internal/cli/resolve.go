package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mixer/internal/compiler"
	"github.com/roach88/mixer/internal/composer"
	"github.com/roach88/mixer/internal/ir"
	"github.com/roach88/mixer/internal/suppression"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Target string // only resolve this target
}

// ResolvedMixin is one surviving mixin in integration order.
type ResolvedMixin struct {
	Name         string   `json:"name"`
	Kind         string   `json:"kind"`
	Priority     int      `json:"priority"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// TargetResolution is the resolved mixin list of one target.
type TargetResolution struct {
	Target     string          `json:"target"`
	Rules      []string        `json:"rules,omitempty"`
	Mixins     []ResolvedMixin `json:"mixins"`
	Suppressed []string        `json:"suppressed,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// ResolveResult holds the resolution of every selected target.
type ResolveResult struct {
	Targets []TargetResolution `json:"targets"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <config-dir>",
		Short: "Print each target's effective mixins",
		Long: `Print each target's effective mixins after suppression and ordering.

Suppression rules run in declaration order over a copy of the target's
mixins. Survivors follow their dependencies; ties go to higher priority,
then to the lower name.

Examples:
  mixer resolve ./mixins
  mixer resolve ./mixins --target shop.Order --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Target, "target", "", "only resolve this target")

	return cmd
}

func runResolve(opts *ResolveOptions, configDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, err := loadOrFail(formatter, configDir)
	if err != nil {
		return err
	}
	targets, err := selectTargets(formatter, loadResult.Config, opts.Target)
	if err != nil {
		return err
	}

	result := ResolveResult{Targets: make([]TargetResolution, 0, len(targets))}
	failed := 0
	for _, t := range targets {
		res := resolveTarget(t)
		if res.Error != "" {
			failed++
		}
		result.Targets = append(result.Targets, res)
	}

	if formatter.IsJSON() {
		if failed > 0 {
			if err := formatter.Failure(ErrCodeCompose, fmt.Sprintf("%d target(s) failed to resolve", failed), result); err != nil {
				return err
			}
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		writeResolveText(formatter, result)
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d target(s) failed to resolve", failed))
	}
	return nil
}

func resolveTarget(t *compiler.Target) TargetResolution {
	res := TargetResolution{
		Target: string(t.Descriptor.Name()),
		Mixins: []ResolvedMixin{},
	}
	for _, r := range t.Rules {
		res.Rules = append(res.Rules, suppression.Describe(r))
	}

	contexts, err := composer.Resolve(t.Descriptor, t.Mixins, t.Rules...)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	kept := make(map[ir.TypeName]bool, len(contexts))
	for _, ctx := range contexts {
		kept[ctx.Name()] = true
		res.Mixins = append(res.Mixins, ResolvedMixin{
			Name:         string(ctx.Name()),
			Kind:         ctx.Kind().String(),
			Priority:     ctx.Priority(),
			Dependencies: typeStrings(ctx.Dependencies()),
		})
	}
	for _, name := range t.Mixins.SortedNames() {
		if !kept[name] {
			res.Suppressed = append(res.Suppressed, string(name))
		}
	}
	return res
}

func writeResolveText(formatter *OutputFormatter, result ResolveResult) {
	w := formatter.Writer
	for i, t := range result.Targets {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, t.Target)
		for _, r := range t.Rules {
			fmt.Fprintf(w, "  rule: %s\n", r)
		}
		if t.Error != "" {
			fmt.Fprintf(w, "  ✗ %s\n", t.Error)
			continue
		}
		if len(t.Mixins) == 0 {
			fmt.Fprintln(w, "  (no mixins)")
		}
		for n, m := range t.Mixins {
			line := fmt.Sprintf("  %d. %s (%s, priority %d)", n+1, m.Name, m.Kind, m.Priority)
			if len(m.Dependencies) > 0 {
				line += " after " + strings.Join(m.Dependencies, ", ")
			}
			fmt.Fprintln(w, line)
		}
		for _, s := range t.Suppressed {
			fmt.Fprintf(w, "  - %s (suppressed)\n", s)
		}
	}
}

// selectTargets returns the configured targets in name order, or only the
// named one.
func selectTargets(formatter *OutputFormatter, cfg *compiler.Config, only string) ([]*compiler.Target, error) {
	if only != "" {
		t, ok := cfg.Targets[ir.TypeName(only)]
		if !ok {
			msg := fmt.Sprintf("target %s is not configured", only)
			_ = formatter.Error(ErrCodeUnknownTarget, msg, nil)
			return nil, NewExitError(ExitCommandError, msg)
		}
		return []*compiler.Target{t}, nil
	}

	names := cfg.TargetNames()
	targets := make([]*compiler.Target, len(names))
	for i, name := range names {
		targets[i] = cfg.Targets[name]
	}
	return targets, nil
}

func typeStrings(names []ir.TypeName) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}
