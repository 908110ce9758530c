package templater

import "fmt"

// Span is a byte range in the template source.
type Span struct {
	Start, End int
}

func (s Span) String() string { return fmt.Sprintf("%d..%d", s.Start, s.End) }

// ExpressionNode is a node of a parsed template.
type ExpressionNode interface {
	NodeSpan() Span
}

// Identifier is a keyword, a lambda parameter or self.
type Identifier struct {
	Name string
	Span Span
}

type StringLiteral struct {
	Value string
	Span  Span
}

type IntegerLiteral struct {
	Value int64
	Span  Span
}

type BooleanLiteral struct {
	Value bool
	Span  Span
}

// FunctionCall is a global function call, or the call part of a method
// call.
type FunctionCall struct {
	Name     string
	NameSpan Span
	Args     []ExpressionNode
	ArgsSpan Span
	Span     Span
}

// MethodCall is obj.method(args).
type MethodCall struct {
	Object   ExpressionNode
	Function *FunctionCall
	Span     Span
}

// Lambda is |params| body. It is only valid as a method argument.
type Lambda struct {
	Params     []string
	ParamsSpan Span
	Body       ExpressionNode
	Span       Span
}

type UnaryOpKind int

const (
	OpNot UnaryOpKind = iota
	OpNegate
)

type UnaryOp struct {
	Op   UnaryOpKind
	Arg  ExpressionNode
	Span Span
}

type BinaryOpKind int

const (
	OpLogicalOr BinaryOpKind = iota
	OpLogicalAnd
	OpEq
	OpNe
	OpGe
	OpGt
	OpLe
	OpLt
)

type BinaryOp struct {
	Op       BinaryOpKind
	LHS, RHS ExpressionNode
	Span     Span
}

// Concat is a ++ b ++ ...
type Concat struct {
	Nodes []ExpressionNode
	Span  Span
}

func (n *Identifier) NodeSpan() Span     { return n.Span }
func (n *StringLiteral) NodeSpan() Span  { return n.Span }
func (n *IntegerLiteral) NodeSpan() Span { return n.Span }
func (n *BooleanLiteral) NodeSpan() Span { return n.Span }
func (n *FunctionCall) NodeSpan() Span   { return n.Span }
func (n *MethodCall) NodeSpan() Span     { return n.Span }
func (n *Lambda) NodeSpan() Span         { return n.Span }
func (n *UnaryOp) NodeSpan() Span        { return n.Span }
func (n *BinaryOp) NodeSpan() Span       { return n.Span }
func (n *Concat) NodeSpan() Span         { return n.Span }

// Helpers for building templates in Go. Nodes built this way carry zero
// spans.

func Ident(name string) *Identifier   { return &Identifier{Name: name} }
func Str(s string) *StringLiteral     { return &StringLiteral{Value: s} }
func Int(v int64) *IntegerLiteral     { return &IntegerLiteral{Value: v} }
func Bool(v bool) *BooleanLiteral     { return &BooleanLiteral{Value: v} }
func Not(arg ExpressionNode) *UnaryOp { return &UnaryOp{Op: OpNot, Arg: arg} }

func Call(name string, args ...ExpressionNode) *FunctionCall {
	return &FunctionCall{Name: name, Args: args}
}

func CallMethod(obj ExpressionNode, name string, args ...ExpressionNode) *MethodCall {
	return &MethodCall{Object: obj, Function: Call(name, args...)}
}

func Fn(param string, body ExpressionNode) *Lambda {
	return &Lambda{Params: []string{param}, Body: body}
}

func Binary(op BinaryOpKind, lhs, rhs ExpressionNode) *BinaryOp {
	return &BinaryOp{Op: op, LHS: lhs, RHS: rhs}
}

func Cat(nodes ...ExpressionNode) *Concat { return &Concat{Nodes: nodes} }

// ExpectNoArguments fails unless the call has no arguments.
func (c *FunctionCall) ExpectNoArguments() error {
	_, _, err := c.ExpectArguments(0, 0)
	return err
}

// ExpectExactArguments returns the arguments if there are exactly n.
func (c *FunctionCall) ExpectExactArguments(n int) ([]ExpressionNode, error) {
	args, _, err := c.ExpectArguments(n, 0)
	return args, err
}

// ExpectArguments splits the arguments into required ones and optional
// ones. Missing optional arguments are nil.
func (c *FunctionCall) ExpectArguments(required, optional int) ([]ExpressionNode, []ExpressionNode, error) {
	n := len(c.Args)
	if n < required || n > required+optional {
		var msg string
		switch {
		case optional == 0:
			msg = fmt.Sprintf("Expected %d arguments", required)
		default:
			msg = fmt.Sprintf("Expected %d to %d arguments", required, required+optional)
		}
		return nil, nil, c.invalidArguments(msg)
	}
	opt := make([]ExpressionNode, optional)
	copy(opt, c.Args[required:])
	return c.Args[:required], opt, nil
}

// ExpectSomeArguments returns the arguments if there are at least n.
func (c *FunctionCall) ExpectSomeArguments(n int) ([]ExpressionNode, error) {
	if len(c.Args) < n {
		return nil, c.invalidArguments(fmt.Sprintf("Expected at least %d arguments", n))
	}
	return c.Args, nil
}

func (c *FunctionCall) invalidArguments(msg string) error {
	return &TemplateParseError{
		Kind:    ErrorInvalidArguments,
		Message: fmt.Sprintf("Function %q: %s", c.Name, msg),
		Span:    c.ArgsSpan,
	}
}

// ExpectStringLiteral returns the value of a string literal node.
func ExpectStringLiteral(node ExpressionNode) (string, error) {
	if lit, ok := node.(*StringLiteral); ok {
		return lit.Value, nil
	}
	return "", &TemplateParseError{Kind: ErrorExpression, Message: "Expected string literal", Span: node.NodeSpan()}
}
