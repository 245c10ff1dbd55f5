package harness

// MixinResult is one surviving mixin of a composed target.
type MixinResult struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Priority   int      `json:"priority"`
	Type       string   `json:"type"`
	Overriders []string `json:"overriders"`
	Overridden []string `json:"overridden"`
}

// ConstructorResult is the outcome of one constructor call.
type ConstructorResult struct {
	Mixin     string `json:"mixin"`
	Signature string `json:"signature"`
	Instance  string `json:"instance,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if every expectation matches.
	Pass bool `json:"pass"`

	Target string `json:"target"`

	// Mixins are the surviving mixins in integration order.
	Mixins []MixinResult `json:"mixins"`

	Constructors []ConstructorResult `json:"constructors,omitempty"`

	// Error is the composition error, if composing failed.
	Error string `json:"error,omitempty"`

	// Errors contains expectation mismatches.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(target string) *Result {
	return &Result{
		Pass:   true,
		Target: target,
		Mixins: []MixinResult{},
		Errors: []string{},
	}
}

// AddError adds a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// MixinNames returns the surviving mixin names in order.
func (r *Result) MixinNames() []string {
	names := make([]string, len(r.Mixins))
	for i, m := range r.Mixins {
		names[i] = m.Name
	}
	return names
}

func (r *Result) mixin(name string) (MixinResult, bool) {
	for _, m := range r.Mixins {
		if m.Name == name {
			return m, true
		}
	}
	return MixinResult{}, false
}
