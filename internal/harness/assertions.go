package harness

import (
	"fmt"
	"slices"
	"strings"
)

// checkExpectations compares result with the scenario's expectations and
// records every mismatch on result.
func checkExpectations(s *Scenario, result *Result) {
	if s.Expect.Error != "" {
		switch {
		case result.Error == "":
			result.AddError(fmt.Sprintf("expected error containing %q, composition succeeded with %v",
				s.Expect.Error, result.MixinNames()))
		case !strings.Contains(result.Error, s.Expect.Error):
			result.AddError(fmt.Sprintf("expected error containing %q, got %q", s.Expect.Error, result.Error))
		}
		return
	}
	if result.Error != "" {
		result.AddError("unexpected error: " + result.Error)
		return
	}

	want := s.Expect.Mixins
	if want == nil {
		want = []string{}
	}
	if got := result.MixinNames(); !slices.Equal(got, want) {
		result.AddError(fmt.Sprintf("mixins: expected %v, got %v", want, got))
	}

	for _, name := range sortedKeys(s.Expect.Identities) {
		exp := s.Expect.Identities[name]
		m, ok := result.mixin(name)
		if !ok {
			continue // already reported as a mixin mismatch
		}
		if err := matchRefs(name, "overriders", exp.Overriders, m.Overriders); err != "" {
			result.AddError(err)
		}
		if err := matchRefs(name, "overridden", exp.Overridden, m.Overridden); err != "" {
			result.AddError(err)
		}
	}

	for i, call := range s.Constructors {
		got := result.Constructors[i]
		switch {
		case call.Error == "" && got.Error != "":
			result.AddError(fmt.Sprintf("constructors[%d]: unexpected error: %s", i, got.Error))
		case call.Error != "" && !strings.Contains(got.Error, call.Error):
			result.AddError(fmt.Sprintf("constructors[%d]: expected error containing %q, got %q", i, call.Error, got.Error))
		}
	}
}

func matchRefs(mixin, set string, want, got []string) string {
	if want == nil {
		want = []string{}
	}
	if slices.Equal(want, got) {
		return ""
	}
	return fmt.Sprintf("%s %s: expected %v, got %v", mixin, set, want, got)
}

func sortedKeys(m map[string]IdentityExpect) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
