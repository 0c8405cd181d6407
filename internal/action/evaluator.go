package action

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nidhogg/cogkernel/internal/graph"
)

// Evaluator runs an inline code fragment: one or more statements, separated
// by newlines or semicolons, each of the form `name(arg, arg, ...)`. This
// is deliberately small and closed — it is not a general scripting
// language, only enough primitive constructors and calls to express the
// handful of effects an inline fragment is meant for (inject activation,
// nudge the mode, log a line, or graft a node/edge). Anything else a node's
// code attribute wants to do belongs in a named Registry handler instead.
type Evaluator struct {
	Logf func(format string, args ...interface{})
}

// NewEvaluator creates an Evaluator. logf may be nil to discard print().
func NewEvaluator(logf func(format string, args ...interface{})) *Evaluator {
	return &Evaluator{Logf: logf}
}

// Run parses and executes every statement in code against ac, stopping (and
// returning the error) at the first statement that fails.
func (e *Evaluator) Run(code string, ac *Context) error {
	for _, stmt := range splitStatements(code) {
		if stmt == "" {
			continue
		}
		if err := e.runStatement(stmt, ac); err != nil {
			return fmt.Errorf("action: inline fragment %q: %w", stmt, err)
		}
	}
	return nil
}

func splitStatements(code string) []string {
	replaced := strings.ReplaceAll(code, ";", "\n")
	lines := strings.Split(replaced, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (e *Evaluator) runStatement(stmt string, ac *Context) error {
	name, rawArgs, err := splitCall(stmt)
	if err != nil {
		return err
	}
	args := splitArgs(rawArgs)

	switch name {
	case "print":
		if len(args) != 1 {
			return fmt.Errorf("print wants 1 arg, got %d", len(args))
		}
		v, err := resolveArg(ac, args[0])
		if err != nil {
			return err
		}
		if e.Logf != nil {
			e.Logf("%v", v)
		}
		return nil

	case "inject":
		if len(args) != 3 {
			return fmt.Errorf("inject wants 3 args, got %d", len(args))
		}
		nodeID, err := resolveString(ac, args[0])
		if err != nil {
			return err
		}
		strength, err := resolveFloat(ac, args[1])
		if err != nil {
			return err
		}
		tag, err := resolveString(ac, args[2])
		if err != nil {
			return err
		}
		ac.Activation.Inject(nodeID, strength, tag)
		return nil

	case "set_mode":
		if len(args) != 1 {
			return fmt.Errorf("set_mode wants 1 arg, got %d", len(args))
		}
		delta, err := resolveFloat(ac, args[0])
		if err != nil {
			return err
		}
		ac.Activation.SetMode(delta)
		return nil

	case "add_node":
		if len(args) != 3 {
			return fmt.Errorf("add_node wants 3 args, got %d", len(args))
		}
		id, err := resolveString(ac, args[0])
		if err != nil {
			return err
		}
		typ, err := resolveString(ac, args[1])
		if err != nil {
			return err
		}
		nodeName, err := resolveString(ac, args[2])
		if err != nil {
			return err
		}
		if ac.Graph.HasNode(id) {
			return nil
		}
		n, err := graph.NewNode(id, graph.NodeType(typ), 0.5, graph.Semantic)
		if err != nil {
			return err
		}
		n.Attributes[graph.AttrName] = graph.Normalize(nodeName)
		return ac.Graph.AddNode(n)

	case "add_edge":
		if len(args) != 4 {
			return fmt.Errorf("add_edge wants 4 args, got %d", len(args))
		}
		src, err := resolveString(ac, args[0])
		if err != nil {
			return err
		}
		dst, err := resolveString(ac, args[1])
		if err != nil {
			return err
		}
		relation, err := resolveString(ac, args[2])
		if err != nil {
			return err
		}
		weight, err := resolveFloat(ac, args[3])
		if err != nil {
			return err
		}
		return ac.Graph.AddEdge(&graph.Edge{Src: src, Dst: dst, Relation: relation, Weight: weight})

	default:
		return fmt.Errorf("unknown action primitive %q", name)
	}
}

// splitCall parses `name(args)` into its name and raw argument string.
func splitCall(stmt string) (name, rawArgs string, err error) {
	open := strings.IndexByte(stmt, '(')
	if open < 0 || !strings.HasSuffix(stmt, ")") {
		return "", "", fmt.Errorf("expected name(args) form")
	}
	return strings.TrimSpace(stmt[:open]), stmt[open+1 : len(stmt)-1], nil
}

// splitArgs splits rawArgs on commas that are not inside a quoted string.
func splitArgs(rawArgs string) []string {
	rawArgs = strings.TrimSpace(rawArgs)
	if rawArgs == "" {
		return nil
	}
	var args []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(rawArgs); i++ {
		c := rawArgs[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case c == ',' && !inQuote:
			args = append(args, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	args = append(args, strings.TrimSpace(cur.String()))
	return args
}

// resolveArg evaluates one literal or identifier argument to a Go value.
func resolveArg(ac *Context, arg string) (interface{}, error) {
	switch {
	case len(arg) >= 2 && arg[0] == '"' && arg[len(arg)-1] == '"':
		return arg[1 : len(arg)-1], nil
	case arg == "focus_of_attention":
		return ac.Focus, nil
	case arg == "text":
		return ac.Text, nil
	case arg == "node_id":
		return ac.NodeID, nil
	case arg == "true":
		return true, nil
	case arg == "false":
		return false, nil
	default:
		if f, err := strconv.ParseFloat(arg, 64); err == nil {
			return f, nil
		}
		return nil, fmt.Errorf("unresolvable argument %q", arg)
	}
}

func resolveString(ac *Context, arg string) (string, error) {
	v, err := resolveArg(ac, arg)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q is not a string", arg)
	}
	return s, nil
}

func resolveFloat(ac *Context, arg string) (float64, error) {
	v, err := resolveArg(ac, arg)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("argument %q is not a number", arg)
	}
	return f, nil
}
