package filter

import (
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/marquee/tmdb"
)

// ExprFilter represents a compiled expr filter
type ExprFilter struct {
	program *vm.Program
	expr    string
}

// CompileExprFilter compiles an expr filter expression
func CompileExprFilter(expression string) (*ExprFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
			Position:   -1,
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(createHelperFunctions()),
		expr.AsBool(),
	)
	if err != nil {
		return nil, newCompilationError(expression, err)
	}

	return &ExprFilter{
		program: program,
		expr:    expression,
	}, nil
}

// Evaluate reports whether item matches the filter. Runtime errors count as no match.
func (f *ExprFilter) Evaluate(item tmdb.ListingItem) bool {
	matched, err := f.Run(item)
	return err == nil && matched
}

// Run evaluates the filter and returns any runtime error
func (f *ExprFilter) Run(item tmdb.ListingItem) (bool, error) {
	result, err := expr.Run(f.program, createRuntimeEnvironment(item))
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expr,
			ItemTitle:  item.Title,
			Reason:     "failed to run expression",
			Err:        err,
		}
	}

	// AsBool guarantees the result type
	return result.(bool), nil
}

// String returns the original expression
func (f *ExprFilter) String() string {
	return f.expr
}

// CreateExprFilter creates a filter function from an expression
func CreateExprFilter(expression string) (func(tmdb.ListingItem) bool, error) {
	filter, err := CompileExprFilter(expression)
	if err != nil {
		return nil, err
	}

	return filter.Evaluate, nil
}
