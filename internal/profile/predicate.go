package profile

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
)

// newEnv for package predicates; the only variable is `pkg`.
func newEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("pkg", cel.StringType),
		ext.Strings(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// Predicate matches a package name by exact membership or a CEL expression.
type Predicate struct {
	expr     string
	prg      cel.Program
	packages map[string]struct{}
}

func compilePredicate(env *cel.Env, expr string, packages []string) (*Predicate, error) {
	p := &Predicate{
		expr:     expr,
		packages: toSet(packages),
	}
	if expr == "" {
		return p, nil
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compile error in %q: %w", expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expression %q must return bool, got %v", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program error in %q: %w", expr, err)
	}
	p.prg = prg
	return p, nil
}

// Match reports whether pkg satisfies the predicate. Evaluation errors count
// as no match.
func (p *Predicate) Match(pkg string) bool {
	if p == nil {
		return false
	}
	if _, ok := p.packages[pkg]; ok {
		return true
	}
	if p.prg == nil {
		return false
	}

	out, _, err := p.prg.Eval(map[string]interface{}{"pkg": pkg})
	if err != nil {
		return false
	}
	matched, ok := out.Value().(bool)
	return ok && matched
}

// Expr returns the source expression, empty for pure membership predicates.
func (p *Predicate) Expr() string {
	if p == nil {
		return ""
	}
	return p.expr
}

// Packages in the exact-match set
func (p *Predicate) Packages() []string {
	if p == nil {
		return nil
	}
	return setToSortedSlice(p.packages)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}
