package core

import (
	"fmt"
	"strings"
	"sync"

	"github.com/itchyny/gojq"
)

// jqQueryCache holds compiled jq programs keyed by expression text.
var jqQueryCache sync.Map

// jqVariables are bound for every expression in this order.
var jqVariables = []string{"$search", "$status", "$sort"}

// JQPredicate compiles a jq expression into a record filter. A record is kept
// when the first value the expression emits is neither false nor null.
// The active search, status and sort mode are available as $search,
// $status and $sort.
//
// Example: `.amount > 100 and (.tags | index("vip"))`
func JQPredicate(expr string) (Predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	code, err := getCachedQuery(expr)
	if err != nil {
		return nil, err
	}

	return func(rec Record, active ActiveFilters) bool {
		iter := code.Run(jqValue(map[string]any(rec)), active.Search, active.Status, string(active.SortMode))
		v, ok := iter.Next()
		if !ok {
			return false
		}
		if _, isErr := v.(error); isErr {
			return false
		}
		return v != nil && v != false
	}, nil
}

func getCachedQuery(expr string) (*gojq.Code, error) {
	if code, ok := jqQueryCache.Load(expr); ok {
		cached, ok := code.(*gojq.Code)
		if !ok {
			return nil, fmt.Errorf("%w: invalid cached jq code for %q", ErrInvalidPredicate, expr)
		}
		return cached, nil
	}

	parsed, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPredicate, err)
	}

	code, err := gojq.Compile(parsed, gojq.WithVariables(jqVariables))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPredicate, err)
	}

	jqQueryCache.Store(expr, code)
	return code, nil
}

// jqValue converts a cell value into the types gojq accepts. Driver and time
// values become their plain text.
func jqValue(v any) any {
	switch val := v.(type) {
	case nil, string, bool, int, float64:
		return val
	case int32:
		return int(val)
	case int64:
		return int(val)
	case float32:
		return float64(val)
	case Record:
		return jqValue(map[string]any(val))
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = jqValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = jqValue(item)
		}
		return out
	}
	if n, ok := valueNumber(v, false); ok {
		return n
	}
	return Stringify(v)
}
