package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mixer/internal/compiler"
	"github.com/roach88/mixer/internal/composer"
	"github.com/roach88/mixer/internal/identity"
	"github.com/roach88/mixer/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Database string
}

// Inspect statuses.
const (
	InspectOK         = "ok"         // rehydrates and matches the configuration
	InspectChanged    = "changed"    // rehydrates but the configuration now derives another identity
	InspectOrphaned   = "orphaned"   // rehydrates but its target no longer composes the mixin
	InspectUnresolved = "unresolved" // a class or method no longer resolves
	InspectError      = "error"
)

// InspectedIdentity is one stored identity checked against the configuration.
type InspectedIdentity struct {
	Name   string `json:"name"`
	Mixin  string `json:"mixin"`
	Hash   string `json:"hash"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// InspectResult summarizes an inspection.
type InspectResult struct {
	Database   string              `json:"database"`
	Identities []InspectedIdentity `json:"identities"`
	Unresolved int                 `json:"unresolved"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <config-dir>",
		Short: "Rehydrate stored identities against a configuration",
		Long: `Rehydrate every identity stored by build against the configuration's
types and report members that no longer resolve.

Statuses:
  ok          rehydrates and matches the configuration
  changed     rehydrates, but the configuration derives a different identity
  orphaned    rehydrates, but the target no longer composes the mixin
  unresolved  a stored class or method no longer exists

Exit codes:
  0 - Every identity rehydrates
  1 - One or more identities are unresolved
  2 - Command error (database not found, bad configuration)

Example:
  mixer inspect --db ./mixer.db ./mixins`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runInspect(opts *InspectOptions, configDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	// Don't let Open create an empty database.
	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		msg := fmt.Sprintf("database not found: %s", opts.Database)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	loadResult, err := loadOrFail(formatter, configDir)
	if err != nil {
		return err
	}
	cfg := loadResult.Config

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, fmt.Sprintf("failed to open database: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	stored, err := st.ListIdentities(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list identities", err)
	}

	current := currentIdentities(cfg)
	result := InspectResult{Database: opts.Database, Identities: make([]InspectedIdentity, 0, len(stored))}
	for _, s := range stored {
		ii := InspectedIdentity{Name: s.Name, Mixin: s.Mixin, Hash: s.Hash}

		id, err := st.LoadIdentity(ctx, s.Name, cfg.Universe)
		var ue *identity.UnresolvedMemberError
		switch {
		case errors.As(err, &ue):
			ii.Status = InspectUnresolved
			ii.Detail = ue.Error()
			result.Unresolved++
		case err != nil:
			ii.Status = InspectError
			ii.Detail = err.Error()
			result.Unresolved++
		default:
			ii.Status, ii.Detail = compareIdentity(id, current[s.Name])
		}
		result.Identities = append(result.Identities, ii)
	}

	if formatter.IsJSON() {
		if result.Unresolved > 0 {
			if err := formatter.Failure(ErrCodeUnresolved, fmt.Sprintf("%d identity(s) unresolved", result.Unresolved), result); err != nil {
				return err
			}
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		writeInspectText(formatter, result)
	}

	if result.Unresolved > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d identity(s) unresolved", result.Unresolved))
	}
	return nil
}

// currentIdentities derives the identity of every mixin the configuration
// composes, keyed by store name. Targets that fail to resolve contribute
// nothing.
func currentIdentities(cfg *compiler.Config) map[string]identity.CompositionIdentity {
	out := make(map[string]identity.CompositionIdentity)
	for _, name := range cfg.TargetNames() {
		t := cfg.Targets[name]
		contexts, err := composer.Resolve(t.Descriptor, t.Mixins, t.Rules...)
		if err != nil {
			continue
		}
		for _, ctx := range contexts {
			out[identityName(name, ctx.Name())] = composer.IdentityFor(t.Descriptor, ctx)
		}
	}
	return out
}

func compareIdentity(stored, current identity.CompositionIdentity) (status, detail string) {
	switch {
	case current.IsZero():
		return InspectOrphaned, "no configured target composes this mixin"
	case stored.Equal(current):
		return InspectOK, ""
	default:
		return InspectChanged, fmt.Sprintf("configuration derives %s", current.Hash())
	}
}

func writeInspectText(formatter *OutputFormatter, result InspectResult) {
	w := formatter.Writer
	if len(result.Identities) == 0 {
		fmt.Fprintf(w, "No identities stored in %s\n", result.Database)
		return
	}
	for _, ii := range result.Identities {
		target, _, _ := strings.Cut(ii.Name, "+")
		line := fmt.Sprintf("%-10s %s (%s)", ii.Status, ii.Name, shortHash(ii.Hash))
		if ii.Detail != "" {
			line += ": " + ii.Detail
		}
		fmt.Fprintln(w, line)
		formatter.VerboseLog("  target %s, mixin %s", target, ii.Mixin)
	}
	fmt.Fprintf(w, "\n%d identity(s), %d unresolved\n", len(result.Identities), result.Unresolved)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
