package fanout

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/openshelf/catalog/common/models"
)

// FilterEvaluator evaluates per-subscription CEL filter expressions against
// change events. A subscription without a filter always matches; a filter
// that fails to compile or evaluate also matches, so a bad expression can
// silence itself but never someone's notifications.
type FilterEvaluator struct {
	cache map[string]cel.Program
	mu    sync.RWMutex
}

// NewFilterEvaluator creates a new filter evaluator with caching
func NewFilterEvaluator() *FilterEvaluator {
	return &FilterEvaluator{
		cache: make(map[string]cel.Program),
	}
}

// Matches reports whether the event passes the subscription filter
func (e *FilterEvaluator) Matches(expr *string, event *models.ChangeEvent) (bool, error) {
	if expr == nil || *expr == "" {
		return true, nil
	}

	prg, err := e.program(*expr)
	if err != nil {
		return true, err
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"event": map[string]interface{}{
			"kind":        string(event.Kind),
			"entity_type": string(event.EntityType),
			"actor_id":    event.ActorID,
			"label":       event.Label,
		},
	})
	if err != nil {
		return true, fmt.Errorf("filter evaluation error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return true, fmt.Errorf("filter did not return boolean, got %T", out.Value())
	}

	return result, nil
}

// program returns the compiled form of expr, compiling and caching on miss
func (e *FilterEvaluator) program(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, exists := e.cache[expr]
	e.mu.RUnlock()
	if exists {
		return prg, nil
	}

	prg, err := compileFilter(expr)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[expr] = prg
	e.mu.Unlock()

	return prg, nil
}

// compileFilter compiles a CEL filter expression
func compileFilter(expr string) (cel.Program, error) {
	env, err := cel.NewEnv(
		cel.Variable("event", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("filter compilation error: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return prg, nil
}
