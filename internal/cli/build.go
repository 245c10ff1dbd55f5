package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/mixer/internal/composer"
	"github.com/roach88/mixer/internal/ctorcache"
	"github.com/roach88/mixer/internal/emit"
	"github.com/roach88/mixer/internal/identity"
	"github.com/roach88/mixer/internal/store"
	"github.com/roach88/mixer/internal/typecache"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Database string
	Target   string

	// Names overrides the generated type name generator (for testing).
	// If nil, defaults to emit.UUIDv7Generator.
	Names emit.NameGenerator
}

// Build statuses.
const (
	StatusSaved     = "saved"
	StatusUnchanged = "unchanged"
	StatusFailed    = "failed"
)

// BuiltType is one composed mixin and the fate of its identity.
type BuiltType struct {
	Mixin  string `json:"mixin"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	Hash   string `json:"hash"`
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BuiltTarget is the composition of one target.
type BuiltTarget struct {
	Target string      `json:"target"`
	Types  []BuiltType `json:"types"`
	Error  string      `json:"error,omitempty"`
}

// BuildResult summarizes a build.
type BuildResult struct {
	Database string          `json:"database"`
	Targets  []BuiltTarget   `json:"targets"`
	Saved    int             `json:"saved"`
	Failed   int             `json:"failed"`
	Stats    typecache.Stats `json:"stats"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <config-dir>",
		Short: "Compose every target and persist identities",
		Long: `Compose every target through the type composition cache and persist
each surviving mixin's identity to a SQLite database (created if missing).

Identities are stored under "<target>+<mixin>". Rebuilding an unchanged
configuration leaves the database untouched. An identity whose content
changed since it was stored is reported as a conflict; delete the database
or the stale identity to accept the change.

Example:
  mixer build --db ./mixer.db ./mixins`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Target, "target", "", "only build this target")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runBuild(opts *BuildOptions, configDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	loadResult, err := loadOrFail(formatter, configDir)
	if err != nil {
		return err
	}
	targets, err := selectTargets(formatter, loadResult.Config, opts.Target)
	if err != nil {
		return err
	}

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
	known := make(map[string]string, len(stored))
	for _, s := range stored {
		known[s.Name] = s.Hash
	}

	var builderOpts []emit.BuilderOption
	if opts.Names != nil {
		builderOpts = append(builderOpts, emit.WithNameGenerator(opts.Names))
	}
	types := typecache.New(typecache.WithBuilder(emit.NewBuilder(builderOpts...)))
	ctors := ctorcache.New(types, ctorcache.WithCompiler(emit.Compiler{}))
	comp := composer.New(types, ctors)

	result := BuildResult{Database: opts.Database, Targets: make([]BuiltTarget, 0, len(targets))}
	for _, t := range targets {
		bt := BuiltTarget{Target: string(t.Descriptor.Name()), Types: []BuiltType{}}

		c, err := comp.Compose(t.Descriptor, t.Mixins, t.Rules...)
		if err != nil {
			bt.Error = err.Error()
			result.Failed++
			result.Targets = append(result.Targets, bt)
			continue
		}

		for _, e := range c.Entries {
			name := identityName(t.Descriptor.Name(), e.Context.Name())
			b := BuiltType{
				Mixin: string(e.Context.Name()),
				Type:  e.Type.TypeName(),
				Name:  name,
				Hash:  e.Identity.Hash(),
			}

			_, existed := known[name]
			switch err := st.SaveIdentity(ctx, name, e.Identity); {
			case err != nil:
				b.Status = StatusFailed
				b.Code = saveErrorCode(err)
				b.Error = err.Error()
				result.Failed++
				slog.Warn("identity not saved", "name", name, "error", err)
			case existed:
				b.Status = StatusUnchanged
			default:
				b.Status = StatusSaved
				result.Saved++
			}
			bt.Types = append(bt.Types, b)
		}
		result.Targets = append(result.Targets, bt)
	}
	result.Stats = types.Stats()

	if formatter.IsJSON() {
		if result.Failed > 0 {
			if err := formatter.Failure(buildErrorCode(result), fmt.Sprintf("%d failure(s)", result.Failed), result); err != nil {
				return err
			}
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		writeBuildText(formatter, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("build finished with %d failure(s)", result.Failed))
	}
	return nil
}

// buildErrorCode picks the code of the first failure.
func buildErrorCode(result BuildResult) string {
	for _, t := range result.Targets {
		if t.Error != "" {
			return ErrCodeCompose
		}
		for _, b := range t.Types {
			if b.Code != "" {
				return b.Code
			}
		}
	}
	return ErrCodeGeneric
}

func saveErrorCode(err error) string {
	switch {
	case errors.Is(err, store.ErrIdentityConflict):
		return ErrCodeIdentityChanged
	case identity.IsUnsupported(err):
		return ErrCodeUnserializable
	default:
		return ErrCodeStore
	}
}

func writeBuildText(formatter *OutputFormatter, result BuildResult) {
	w := formatter.Writer
	for _, t := range result.Targets {
		fmt.Fprintln(w, t.Target)
		if t.Error != "" {
			fmt.Fprintf(w, "  ✗ %s\n", t.Error)
			continue
		}
		for _, b := range t.Types {
			if b.Error != "" {
				fmt.Fprintf(w, "  ✗ %s: %s\n", b.Mixin, b.Error)
				continue
			}
			fmt.Fprintf(w, "  %s %s -> %s\n", statusMark(b.Status), b.Mixin, b.Type)
		}
	}
	fmt.Fprintf(w, "\n%d saved, %d failed (%s)\n", result.Saved, result.Failed, result.Database)
	formatter.VerboseLog("type cache: %d built, %d hits, %d failures",
		result.Stats.Builds, result.Stats.Hits, result.Stats.Failures)
}

func statusMark(status string) string {
	if status == StatusUnchanged {
		return "="
	}
	return "+"
}
