package templating

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/spf13/cast"
)

// defaultFunc is the filter that makes a variable optional.
const defaultFunc = "default"

var segmentPattern = regexp.MustCompile(`(?s)\{\{(.*?)\}\}`)

// segment is one {{ }} occurrence in the template source.
type segment struct {
	start, end int
	code       string
	vars       []string
	defaulted  map[string]bool
}

// scan locates and parses every segment in source, in order.
func scan(source []byte) ([]segment, error) {
	locs := segmentPattern.FindAllSubmatchIndex(source, -1)
	segments := make([]segment, 0, len(locs))
	for _, loc := range locs {
		code := unescapeJSON(strings.TrimSpace(string(source[loc[2]:loc[3]])))
		seg := segment{start: loc[0], end: loc[1], code: code}
		if err := seg.parse(); err != nil {
			return nil, &ExpressionError{Expression: code, Err: err}
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// unescapeJSON undoes JSON string escaping so `\"` inside a template value
// reaches the expression parser as `"`.
func unescapeJSON(code string) string {
	if !strings.Contains(code, `\`) {
		return code
	}
	var out string
	if err := json.Unmarshal([]byte(`"`+code+`"`), &out); err != nil {
		return code
	}
	return out
}

func (s *segment) parse() error {
	if s.code == "" {
		return fmt.Errorf("empty expression")
	}
	tree, err := parser.Parse(s.code)
	if err != nil {
		return err
	}
	v := &variableVisitor{
		callees:   map[*ast.IdentifierNode]bool{},
		locals:    map[string]bool{},
		defaulted: map[string]bool{},
	}
	ast.Walk(&tree.Node, v)

	seen := map[string]bool{}
	for _, id := range v.idents {
		if v.callees[id] || v.locals[id.Value] || seen[id.Value] {
			continue
		}
		seen[id.Value] = true
		s.vars = append(s.vars, id.Value)
	}
	s.defaulted = v.defaulted
	return nil
}

// variableVisitor collects free identifiers. Walk is post-order, so callee
// and local names are filtered after the walk.
type variableVisitor struct {
	idents    []*ast.IdentifierNode
	callees   map[*ast.IdentifierNode]bool
	locals    map[string]bool
	defaulted map[string]bool
}

func (v *variableVisitor) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		v.idents = append(v.idents, n)
	case *ast.CallNode:
		callee, ok := n.Callee.(*ast.IdentifierNode)
		if !ok {
			return
		}
		v.callees[callee] = true
		if callee.Value == defaultFunc && len(n.Arguments) > 0 {
			if arg, ok := n.Arguments[0].(*ast.IdentifierNode); ok {
				v.defaulted[arg.Value] = true
			}
		}
	case *ast.BinaryNode:
		if n.Operator != "??" {
			return
		}
		if arg, ok := n.Left.(*ast.IdentifierNode); ok {
			v.defaulted[arg.Value] = true
		}
	case *ast.VariableDeclaratorNode:
		v.locals[n.Name] = true
	}
}

// evaluate runs the segment against bindings and formats the result.
// Unbound variables evaluate to nil.
func (s *segment) evaluate(bindings map[string]string) (string, error) {
	env := make(map[string]any, len(s.vars))
	for _, name := range s.vars {
		if value, ok := bindings[name]; ok {
			env[name] = value
		}
	}
	program, err := expr.Compile(s.code,
		expr.Env(env),
		expr.AllowUndefinedVariables(),
		expr.Function(defaultFunc, defaultFilter),
	)
	if err != nil {
		return "", err
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", nil
	}
	return cast.ToStringE(out)
}

// defaultFilter returns its first argument unless it is nil.
func defaultFilter(params ...any) (any, error) {
	if len(params) == 0 || len(params) > 2 {
		return nil, fmt.Errorf("%s expects 1 or 2 arguments, got %d", defaultFunc, len(params))
	}
	if params[0] != nil || len(params) == 1 {
		return params[0], nil
	}
	return params[1], nil
}
