package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mixer/internal/composer"
	"github.com/roach88/mixer/internal/identity"
	"github.com/roach88/mixer/internal/ir"
)

// IdentityOptions holds flags for the identity command.
type IdentityOptions struct {
	*RootOptions
	Target string // only print identities of this target
}

// MixinIdentity is the composition identity of one surviving mixin.
type MixinIdentity struct {
	Target     string         `json:"target"`
	Mixin      string         `json:"mixin"`
	Name       string         `json:"name"` // store name and flat key prefix
	Hash       string         `json:"hash"`
	Overriders []string       `json:"overriders"`
	Overridden []string       `json:"overridden"`
	Properties map[string]any `json:"properties,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// IdentityResult holds the identities of every selected target.
type IdentityResult struct {
	Identities []MixinIdentity `json:"identities"`
	Errors     []string        `json:"errors,omitempty"`
}

// NewIdentityCommand creates the identity command.
func NewIdentityCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IdentityOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "identity <config-dir>",
		Short: "Print composition identities and their flat serialization",
		Long: `Print the composition identity of every surviving mixin: its content
hash, its overrider and overridden method sets, and the flat key/value
properties it serializes to under the name "<target>+<mixin>".

Examples:
  mixer identity ./mixins
  mixer identity ./mixins --target shop.Order --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIdentity(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Target, "target", "", "only print identities of this target")

	return cmd
}

func runIdentity(opts *IdentityOptions, configDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, err := loadOrFail(formatter, configDir)
	if err != nil {
		return err
	}
	targets, err := selectTargets(formatter, loadResult.Config, opts.Target)
	if err != nil {
		return err
	}

	result := IdentityResult{Identities: []MixinIdentity{}}
	failed := 0
	for _, t := range targets {
		contexts, err := composer.Resolve(t.Descriptor, t.Mixins, t.Rules...)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			failed++
			continue
		}
		for _, ctx := range contexts {
			mi := describeIdentity(t.Descriptor.Name(), composer.IdentityFor(t.Descriptor, ctx))
			if mi.Error != "" {
				failed++
			}
			result.Identities = append(result.Identities, mi)
		}
	}

	if formatter.IsJSON() {
		if failed > 0 {
			if err := formatter.Failure(ErrCodeUnserializable, fmt.Sprintf("%d identity error(s)", failed), result); err != nil {
				return err
			}
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		writeIdentityText(formatter, result)
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d identity error(s)", failed))
	}
	return nil
}

// identityName is the store name of a target's mixin identity. It doubles
// as the flat key prefix.
func identityName(target, mixin ir.TypeName) string {
	return string(target) + "+" + string(mixin)
}

func describeIdentity(target ir.TypeName, id identity.CompositionIdentity) MixinIdentity {
	name := identityName(target, id.Mixin().Name())
	mi := MixinIdentity{
		Target:     string(target),
		Mixin:      string(id.Mixin().Name()),
		Name:       name,
		Hash:       id.Hash(),
		Overriders: refStrings(id.Overriders()),
		Overridden: refStrings(id.Overridden()),
	}

	bag, err := identity.Flatten(id, name)
	if err != nil {
		mi.Error = err.Error()
		return mi
	}
	mi.Properties = make(map[string]any, bag.Len())
	for _, k := range bag.Keys() {
		v, _ := bag.Value(k)
		mi.Properties[k] = v
	}
	return mi
}

func writeIdentityText(formatter *OutputFormatter, result IdentityResult) {
	w := formatter.Writer
	for i, mi := range result.Identities {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n  hash: %s\n", mi.Name, mi.Hash)
		fmt.Fprintf(w, "  overriders: %s\n", joinOrNone(mi.Overriders))
		fmt.Fprintf(w, "  overridden: %s\n", joinOrNone(mi.Overridden))
		if mi.Error != "" {
			fmt.Fprintf(w, "  ✗ %s\n", mi.Error)
			continue
		}
		if formatter.Verbose {
			for _, k := range sortedKeys(mi.Properties) {
				fmt.Fprintf(w, "    %s = %v\n", k, mi.Properties[k])
			}
		}
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "✗ %s\n", e)
	}
}

func refStrings(refs []ir.MethodRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.String()
	}
	return out
}

func joinOrNone(ss []string) string {
	if len(ss) == 0 {
		return "(none)"
	}
	return strings.Join(ss, ", ")
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
