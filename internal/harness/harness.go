package harness

import (
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/mixer/internal/compiler"
	"github.com/roach88/mixer/internal/composer"
	"github.com/roach88/mixer/internal/ctorcache"
	"github.com/roach88/mixer/internal/emit"
	"github.com/roach88/mixer/internal/ir"
	"github.com/roach88/mixer/internal/typecache"
)

// Harness composes scenario targets through a fresh pair of caches.
// Generated type names use a sequence generator so results are
// reproducible.
type Harness struct {
	types    *typecache.Cache
	composer *composer.Composer
}

// New creates a harness with empty caches.
func New() *Harness {
	types := typecache.New(typecache.WithBuilder(
		emit.NewBuilder(emit.WithNameGenerator(&emit.SequenceGenerator{}))))
	ctors := ctorcache.New(types, ctorcache.WithCompiler(emit.Compiler{}))
	return &Harness{
		types:    types,
		composer: composer.New(types, ctors),
	}
}

// Run executes a scenario in a fresh harness and returns the result.
//
// Execution flow:
// 1. Compile the scenario's CUE configuration
// 2. Compose the target (suppression, ordering, identities, type cache)
// 3. Make the requested constructor calls
// 4. Compare the outcome with the scenario's expectations
//
// The returned error reports scenario setup failures only. A composition
// failure is recorded in Result.Error and checked against Expect.Error.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(scenario)
}

// Run executes a scenario against h's caches. Running several scenarios on
// one harness shares generated types between equal identities.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	cfg, err := LoadConfig(scenario)
	if err != nil {
		return nil, err
	}
	target, ok := cfg.Targets[ir.TypeName(scenario.Target)]
	if !ok {
		return nil, fmt.Errorf("scenario %s: target %s is not configured", scenario.Name, scenario.Target)
	}

	result := NewResult(scenario.Target)

	comp, err := h.composer.Compose(target.Descriptor, target.Mixins, target.Rules...)
	if err != nil {
		result.Error = err.Error()
		checkExpectations(scenario, result)
		return result, nil
	}

	for _, e := range comp.Entries {
		result.Mixins = append(result.Mixins, MixinResult{
			Name:       string(e.Context.Name()),
			Kind:       e.Context.Kind().String(),
			Priority:   e.Context.Priority(),
			Type:       e.Type.TypeName(),
			Overriders: refStrings(e.Identity.Overriders()),
			Overridden: refStrings(e.Identity.Overridden()),
		})
	}

	for _, call := range scenario.Constructors {
		result.Constructors = append(result.Constructors, h.construct(comp, call))
	}

	checkExpectations(scenario, result)
	return result, nil
}

func (h *Harness) construct(comp *composer.Composition, call ConstructorCall) ConstructorResult {
	res := ConstructorResult{Mixin: call.Mixin, Signature: call.Signature}

	idx := -1
	for i, name := range comp.Names() {
		if string(name) == call.Mixin {
			idx = i
			break
		}
	}
	if idx < 0 {
		res.Error = fmt.Sprintf("mixin %s is not part of the composition", call.Mixin)
		return res
	}

	sig, err := ir.ParseSignature(call.Signature)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	args := make([]any, len(call.Args))
	for i, a := range call.Args {
		args[i] = a
	}

	v, err := h.composer.NewInstance(comp, idx, sig, call.NonPublic, args...)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	inst, ok := v.(*emit.Instance)
	if !ok {
		res.Error = fmt.Sprintf("unexpected instance %T", v)
		return res
	}
	res.Instance = fmt.Sprintf("%s(%s)", inst.Type.TypeName(), strings.Join(call.Args, ","))
	return res
}

// LoadConfig compiles the scenario's mixin configuration. Config files are
// unified in the order listed.
func LoadConfig(scenario *Scenario) (*compiler.Config, error) {
	ctx := cuecontext.New()

	var v cue.Value
	if scenario.Config != "" {
		v = ctx.CompileString(scenario.Config, cue.Filename(scenario.Name+".cue"))
	} else {
		for i, path := range scenario.ConfigFiles {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			file := ctx.CompileBytes(data, cue.Filename(path))
			if i == 0 {
				v = file
			} else {
				v = v.Unify(file)
			}
		}
	}

	cfg, err := compiler.CompileConfig(v)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	return cfg, nil
}

func refStrings(refs []ir.MethodRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.String()
	}
	return out
}
