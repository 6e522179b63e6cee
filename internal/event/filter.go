package event

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
)

// Filter wraps a compiled CEL program evaluated against hop events. A viewer
// session may attach one to narrow its stream. When disabled, Eval always
// returns true.
type Filter struct {
	prog    cel.Program
	enabled bool
}

// NewFilter compiles the given CEL expression. An empty expression yields a
// disabled filter that matches everything.
func NewFilter(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("direction", cel.StringType),
		cel.Variable("topic", cel.StringType),
		cel.Variable("note", cel.StringType),
		cel.Variable("subscriber", cel.StringType),
		cel.Variable("publisher", cel.StringType),
		cel.Variable("ts_ms", cel.IntType),
		cel.Variable("text", cel.StringType),
		// Expose parsed JSON payload (map/list/values) for field filtering
		cel.Variable("json", cel.DynType),
		// Current time in ms for windowed filters
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return Filter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return Filter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return Filter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return Filter{}, err
	}
	return Filter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against an event. When disabled,
// returns true. Evaluation errors (e.g. a field reference into a non-object
// payload) count as non-matches rather than failing the session.
func (f Filter) Eval(ev Event) bool {
	if !f.enabled {
		return true
	}
	var jsonObj any
	_ = json.Unmarshal(ev.Payload, &jsonObj)
	out, _, err := f.prog.Eval(map[string]any{
		"direction":  string(ev.Direction),
		"topic":      ev.Topic,
		"note":       ev.Note,
		"subscriber": ev.Subscriber,
		"publisher":  ev.Publisher,
		"ts_ms":      ev.TsMs,
		"text":       string(ev.Payload),
		"json":       jsonObj,
		"now_ms":     time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
