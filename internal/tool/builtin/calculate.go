// calculate evaluates arithmetic expressions using go/parser and go/ast
// rather than a hand-rolled tokenizer; no third-party expression-evaluation
// library is pulled in for what is a purely algorithmic concern.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/dispatchd/dispatchd/internal/tool"
)

// CalculateTool evaluates a simple arithmetic expression (+, -, *, /,
// parentheses, unary minus) over floating-point operands.
type CalculateTool struct{}

func NewCalculateTool() *CalculateTool { return &CalculateTool{} }

func (t *CalculateTool) Name() string        { return "calculate" }
func (t *CalculateTool) Description() string { return "Evaluates an arithmetic expression, e.g. \"(2 + 3) * 4\"." }

func (t *CalculateTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "expression", Type: "string", Description: "Arithmetic expression to evaluate", Required: true},
	)
}

func (t *CalculateTool) Init(_ context.Context) error { return nil }
func (t *CalculateTool) Close() error                 { return nil }

func (t *CalculateTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a struct {
		Expression string `json:"expression"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("failed to parse arguments: %v", err)}, nil
	}
	expr := strings.TrimSpace(a.Expression)
	if expr == "" {
		return tool.ToolResult{Error: "expression must not be empty"}, nil
	}

	result, err := evalArithmetic(expr)
	if err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("could not evaluate %q: %v", expr, err)}, nil
	}
	return tool.ToolResult{Output: fmt.Sprintf("%g", result)}, nil
}

// evalArithmetic parses expr as a Go expression (reusing go/parser's
// tokenizer purely for +,-,*,/ and parens — no identifiers, calls, or
// assignment are permitted) and evaluates it over float64.
func evalArithmetic(expr string) (float64, error) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return 0, fmt.Errorf("invalid expression: %w", err)
	}
	return evalNode(node)
}

func evalNode(n ast.Expr) (float64, error) {
	switch v := n.(type) {
	case *ast.BasicLit:
		if v.Kind != token.INT && v.Kind != token.FLOAT {
			return 0, fmt.Errorf("unsupported literal %q", v.Value)
		}
		var f float64
		if _, err := fmt.Sscanf(v.Value, "%g", &f); err != nil {
			return 0, fmt.Errorf("invalid number %q", v.Value)
		}
		return f, nil
	case *ast.ParenExpr:
		return evalNode(v.X)
	case *ast.UnaryExpr:
		x, err := evalNode(v.X)
		if err != nil {
			return 0, err
		}
		switch v.Op {
		case token.ADD:
			return x, nil
		case token.SUB:
			return -x, nil
		default:
			return 0, fmt.Errorf("unsupported unary operator %s", v.Op)
		}
	case *ast.BinaryExpr:
		x, err := evalNode(v.X)
		if err != nil {
			return 0, err
		}
		y, err := evalNode(v.Y)
		if err != nil {
			return 0, err
		}
		switch v.Op {
		case token.ADD:
			return x + y, nil
		case token.SUB:
			return x - y, nil
		case token.MUL:
			return x * y, nil
		case token.QUO:
			if y == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return x / y, nil
		default:
			return 0, fmt.Errorf("unsupported operator %s", v.Op)
		}
	default:
		return 0, fmt.Errorf("unsupported expression component")
	}
}
