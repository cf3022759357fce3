// Package envsub resolves ${VAR}-style references inside cluster submit
// command templates (cmd/run.go's submitCommand expansion, spec section
// 4.5), where one parameter's value may itself reference another parameter.
// Grounded on the teacher's envsub package, which solves the same
// chained-reference problem for zim's build parameters.
package envsub

import (
	"fmt"
	"strings"

	"github.com/drone/envsubst"
)

// resolver resolves ${name} references against a set of already-resolved
// values plus a pool of raw parameters still awaiting substitution,
// detecting reference cycles along the way.
type resolver struct {
	resolved map[string]interface{}
	pending  map[string]interface{}
	visiting map[string]bool
	err      error
}

func (r *resolver) resolve(raw string) string {
	out, err := envsubst.Eval(raw, r.lookup)
	if err != nil && r.err == nil {
		r.err = err
	}
	return out
}

func (r *resolver) lookup(name string) string {
	if v, ok := r.resolved[name]; ok {
		return fmt.Sprintf("%v", v)
	}
	if r.visiting[name] {
		r.err = fmt.Errorf("recursion detected resolving %s", name)
		return ""
	}
	raw, ok := r.pending[name]
	if !ok {
		r.err = fmt.Errorf("unknown variable: %s", name)
		return ""
	}
	if _, isString := raw.(string); !isString {
		r.resolved[name] = raw
		return fmt.Sprintf("%v", raw)
	}
	r.visiting[name] = true
	value := r.resolve(fmt.Sprintf("%v", raw))
	r.visiting[name] = false
	r.resolved[name] = value
	return value
}

// Eval resolves every string-valued entry in parameters, following chains of
// ${other} references, and merges the resolved values into state. Entries
// already present in state are treated as resolved and take precedence over
// a same-named entry in parameters.
func Eval(state map[string]interface{}, parameters map[string]interface{}) error {
	r := &resolver{resolved: state, pending: parameters, visiting: map[string]bool{}}
	for name, value := range parameters {
		if _, already := state[name]; already {
			continue
		}
		s, ok := value.(string)
		if !ok {
			state[name] = value
			continue
		}
		state[name] = r.resolve(s)
	}
	return r.err
}

// EvalString resolves the ${VAR} references in input against parameters,
// returning input unchanged (and skipping the allocation of a resolver
// entirely) when it contains no reference syntax at all.
func EvalString(input string, parameters map[string]interface{}) (string, error) {
	if !strings.Contains(input, "${") {
		return input, nil
	}
	r := &resolver{resolved: map[string]interface{}{}, pending: parameters, visiting: map[string]bool{}}
	out := r.resolve(input)
	if r.err != nil {
		return "", r.err
	}
	return out, nil
}

// EvalStrings applies EvalString across inputs, stopping at the first error.
func EvalStrings(inputs []string, parameters map[string]interface{}) ([]string, error) {
	out := make([]string, len(inputs))
	for i, input := range inputs {
		resolved, err := EvalString(input, parameters)
		if err != nil {
			return nil, err
		}
		out[i] = resolved
	}
	return out, nil
}

// GenericMap widens a string-valued map to the interface{}-valued map Eval
// and EvalString expect, for callers that build their parameter sets as
// map[string]string.
func GenericMap(m map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
