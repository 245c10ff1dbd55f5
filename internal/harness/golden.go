package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mixer/internal/ir"
)

// Snapshot captures the composition of a scenario for golden comparison.
type Snapshot struct {
	ScenarioName string
	Result       *Result
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization. ir.MarshalCanonical only handles primitives, string slices,
// []any and map[string]any.
func (s *Snapshot) toCanonicalMap() map[string]any {
	mixins := make([]any, len(s.Result.Mixins))
	for i, m := range s.Result.Mixins {
		mixins[i] = map[string]any{
			"name":       m.Name,
			"kind":       m.Kind,
			"priority":   m.Priority,
			"type":       m.Type,
			"overriders": m.Overriders,
			"overridden": m.Overridden,
		}
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"target":        s.Result.Target,
		"mixins":        mixins,
	}
	if s.Result.Error != "" {
		result["error"] = s.Result.Error
	}
	if len(s.Result.Constructors) > 0 {
		calls := make([]any, len(s.Result.Constructors))
		for i, c := range s.Result.Constructors {
			call := map[string]any{
				"mixin":     c.Mixin,
				"signature": c.Signature,
			}
			if c.Instance != "" {
				call["instance"] = c.Instance
			}
			if c.Error != "" {
				call["error"] = c.Error
			}
			calls[i] = call
		}
		result["constructors"] = calls
	}
	return result
}

// MarshalSnapshot returns the canonical JSON snapshot of result, the
// content of its golden file.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := Snapshot{ScenarioName: scenarioName, Result: result}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its composition against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check Pass; returns an error if the
// scenario could not be executed.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against the golden file for
// scenarioName without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
