package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"lynxform/pkg/logger"
	"lynxform/pkg/utils"
)

// DefaultCustomTimeout bounds a single custom-expression invocation.
// Mapping definitions may come from operators, not developers, so an
// unbounded expression must not stall the pipeline.
const DefaultCustomTimeout = 100 * time.Millisecond

// exprRunner compiles and caches custom transform expressions. Expressions
// run against a fixed environment: the input value plus date/time and JSON
// helpers. Nothing else from the host is reachable.
type exprRunner struct {
	mu      sync.Mutex
	cache   map[string]*vm.Program
	timeout time.Duration
}

func newExprRunner(timeout time.Duration) *exprRunner {
	if timeout <= 0 {
		timeout = DefaultCustomTimeout
	}
	return &exprRunner{
		cache:   make(map[string]*vm.Program),
		timeout: timeout,
	}
}

func exprEnv(ctx context.Context, value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"ctx":   ctx,
		"value": value,
		"now": func() time.Time {
			return time.Now().UTC()
		},
		"parse_time": func(v interface{}) (time.Time, error) {
			return utils.ParseDateTime(v)
		},
		"format_time": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
		"to_string": func(v interface{}) string {
			return utils.ToString(v)
		},
		"json_encode": func(v interface{}) (string, error) {
			b, err := json.Marshal(v)
			return string(b), err
		},
		"json_decode": func(s string) (interface{}, error) {
			var out interface{}
			err := json.Unmarshal([]byte(s), &out)
			return out, err
		},
	}
}

// Run evaluates src against value. The expression's result is the
// transformed value. Compilation results are cached per source string since
// the same rule is applied to every record of a batch.
func (r *exprRunner) Run(ctx context.Context, src string, value interface{}) (interface{}, error) {
	prog, err := r.compile(src)
	if err != nil {
		return nil, fmt.Errorf("custom transformation failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := vm.Run(prog, exprEnv(ctx, value))
	if err != nil {
		return nil, fmt.Errorf("custom transformation failed: %w", err)
	}
	return out, nil
}

func (r *exprRunner) compile(src string) (*vm.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prog, ok := r.cache[src]; ok {
		return prog, nil
	}

	// The env is only known at run time: `value` may be any JSON shape, so
	// compilation must not pin it to a concrete type.
	prog, err := expr.Compile(src,
		expr.AllowUndefinedVariables(),
		// The VM aborts long-running expressions when the deadline passes.
		expr.WithContext("ctx"),
	)
	if err != nil {
		return nil, err
	}
	logger.Debugf("compiled custom expression %q", src)
	r.cache[src] = prog
	return prog, nil
}
