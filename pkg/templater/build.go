package templater

import (
	"errors"
	"fmt"
	"maps"
	"math"
)

// MethodBuilder binds a method call on self.
type MethodBuilder func(b *Builder, ctx *BuildContext, self Value, call *FunctionCall) (Value, error)

// FunctionBuilder binds a global function call.
type FunctionBuilder func(b *Builder, ctx *BuildContext, call *FunctionCall) (Value, error)

// MethodTable maps method names to builders.
type MethodTable map[string]MethodBuilder

// Table holds functions and per-type methods contributed by a language or
// an extension.
type Table struct {
	Functions map[string]FunctionBuilder
	Methods   map[string]MethodTable
}

func NewTable() *Table {
	return &Table{
		Functions: map[string]FunctionBuilder{},
		Methods:   map[string]MethodTable{},
	}
}

// AddFunction registers a global function.
func (t *Table) AddFunction(name string, fn FunctionBuilder) error {
	if _, ok := t.Functions[name]; ok {
		return fmt.Errorf("function %q: %w", name, ErrConflictingDefinition)
	}
	t.Functions[name] = fn
	return nil
}

// AddMethod registers a method of the type named typeName.
func (t *Table) AddMethod(typeName, name string, m MethodBuilder) error {
	methods := t.Methods[typeName]
	if methods == nil {
		methods = MethodTable{}
		t.Methods[typeName] = methods
	}
	if _, ok := methods[name]; ok {
		return fmt.Errorf("method %q of type %q: %w", name, typeName, ErrConflictingDefinition)
	}
	methods[name] = m
	return nil
}

// AddMethods registers every method in methods.
func (t *Table) AddMethods(typeName string, methods MethodTable) error {
	for name, m := range methods {
		if err := t.AddMethod(typeName, name, m); err != nil {
			return err
		}
	}
	return nil
}

// Merge adds the definitions of other. Redefinitions are rejected.
func (t *Table) Merge(other *Table) error {
	for name, fn := range other.Functions {
		if err := t.AddFunction(name, fn); err != nil {
			return err
		}
	}
	for typeName, methods := range other.Methods {
		if err := t.AddMethods(typeName, methods); err != nil {
			return err
		}
	}
	return nil
}

// Method adapts a typed method implementation to a MethodBuilder of k.
func Method[T any](k *Kind[T], f func(b *Builder, ctx *BuildContext, self Property[T], call *FunctionCall) (Value, error)) MethodBuilder {
	return func(b *Builder, ctx *BuildContext, self Value, call *FunctionCall) (Value, error) {
		p, ok := PropertyOf(k, self)
		if !ok {
			return nil, expectedType(k.Name, self.TypeName(), call.Span)
		}
		return f(b, ctx, p, call)
	}
}

// BuildContext carries the names visible while binding a node.
type BuildContext struct {
	locals map[string]Value
	self   Value
}

// NewBuildContext returns a context whose keywords are methods of self.
func NewBuildContext(self Value) *BuildContext {
	return &BuildContext{self: self}
}

// WithLocal returns a copy of c with name bound to v.
func (c *BuildContext) WithLocal(name string, v Value) *BuildContext {
	locals := maps.Clone(c.locals)
	if locals == nil {
		locals = map[string]Value{}
	}
	locals[name] = v
	return &BuildContext{locals: locals, self: c.self}
}

func (c *BuildContext) Local(name string) (Value, bool) {
	v, ok := c.locals[name]
	return v, ok
}

func (c *BuildContext) Self() Value { return c.self }

// Builder binds expression trees to values.
type Builder struct {
	table *Table
	diags Diagnostics
}

// NewBuilder returns a builder for the core functions and methods plus
// the given tables.
func NewBuilder(tables ...*Table) (*Builder, error) {
	table := CoreTable()
	for _, t := range tables {
		if err := table.Merge(t); err != nil {
			return nil, err
		}
	}
	return &Builder{table: table}, nil
}

// Diagnostics returns the warnings recorded while building.
func (b *Builder) Diagnostics() *Diagnostics { return &b.diags }

// Build binds node in ctx.
func (b *Builder) Build(ctx *BuildContext, node ExpressionNode) (Value, error) {
	switch n := node.(type) {
	case *Identifier:
		return b.buildIdentifier(ctx, n)
	case *StringLiteral:
		return StringKind.Wrap(Literal(n.Value)), nil
	case *IntegerLiteral:
		return IntegerKind.Wrap(Literal(n.Value)), nil
	case *BooleanLiteral:
		return BooleanKind.Wrap(Literal(n.Value)), nil
	case *FunctionCall:
		fn, ok := b.table.Functions[n.Name]
		if !ok {
			return nil, &TemplateParseError{
				Kind:    ErrorFunctionNotFound,
				Message: fmt.Sprintf("Function %q doesn't exist", n.Name),
				Span:    nameSpan(n),
			}
		}
		return fn(b, ctx, n)
	case *MethodCall:
		self, err := b.Build(ctx, n.Object)
		if err != nil {
			return nil, err
		}
		return b.BuildMethod(ctx, self, n.Function)
	case *Lambda:
		return nil, ExpressionError(n.Span, nil, "Lambda cannot be defined here")
	case *UnaryOp:
		return b.buildUnary(ctx, n)
	case *BinaryOp:
		return b.buildBinary(ctx, n)
	case *Concat:
		ts := make([]Template, 0, len(n.Nodes))
		for _, node := range n.Nodes {
			t, err := b.ExpectTemplate(ctx, node)
			if err != nil {
				return nil, err
			}
			ts = append(ts, t)
		}
		return TemplateValue(ConcatTemplates(ts...)), nil
	case nil:
		return nil, errors.New("templater: nil expression")
	default:
		return nil, fmt.Errorf("templater: unsupported node %T", node)
	}
}

func (b *Builder) buildIdentifier(ctx *BuildContext, n *Identifier) (Value, error) {
	if v, ok := ctx.Local(n.Name); ok {
		return v, nil
	}
	self := ctx.Self()
	if n.Name == "self" && self != nil {
		return self, nil
	}
	if self != nil {
		if m, recv, ok := b.lookupMethod(self, n.Name); ok {
			return m(b, ctx, recv, &FunctionCall{Name: n.Name, NameSpan: n.Span, ArgsSpan: n.Span, Span: n.Span})
		}
	}
	return nil, &TemplateParseError{
		Kind:    ErrorKeywordNotFound,
		Message: fmt.Sprintf("Keyword %q doesn't exist", n.Name),
		Span:    n.Span,
	}
}

// BuildMethod binds call as a method of self.
func (b *Builder) BuildMethod(ctx *BuildContext, self Value, call *FunctionCall) (Value, error) {
	m, recv, ok := b.lookupMethod(self, call.Name)
	if !ok {
		return nil, &TemplateParseError{
			Kind:    ErrorMethodNotFound,
			Message: fmt.Sprintf("Method %q doesn't exist for type %q", call.Name, self.TypeName()),
			Span:    nameSpan(call),
		}
	}
	return m(b, ctx, recv, call)
}

// lookupMethod finds name in the table for the type of self, then in the
// built-in methods of its kind. Options forward to their element type,
// in which case the returned receiver is the unwrapped value.
func (b *Builder) lookupMethod(self Value, name string) (MethodBuilder, Value, bool) {
	if m, ok := b.table.Methods[self.TypeName()][name]; ok {
		return m, self, true
	}
	if m, ok := self.methods()[name]; ok {
		return m, self, true
	}
	if inner, ok := self.unwrapOption(); ok {
		return b.lookupMethod(inner, name)
	}
	return nil, nil, false
}

func (b *Builder) buildUnary(ctx *BuildContext, n *UnaryOp) (Value, error) {
	switch n.Op {
	case OpNot:
		p, err := b.ExpectBoolean(ctx, n.Arg)
		if err != nil {
			return nil, err
		}
		return BooleanKind.Wrap(Map(p, func(v bool) bool { return !v })), nil
	case OpNegate:
		p, err := b.ExpectInteger(ctx, n.Arg)
		if err != nil {
			return nil, err
		}
		return IntegerKind.Wrap(AndThen(p, func(v int64) (int64, error) {
			if v == math.MinInt64 {
				return 0, PropertyErrorf("Attempt to negate with overflow")
			}
			return -v, nil
		})), nil
	}
	return nil, ExpressionError(n.Span, nil, "Unknown unary operator")
}

func (b *Builder) buildBinary(ctx *BuildContext, n *BinaryOp) (Value, error) {
	switch n.Op {
	case OpLogicalOr, OpLogicalAnd:
		lhs, err := b.ExpectBoolean(ctx, n.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := b.ExpectBoolean(ctx, n.RHS)
		if err != nil {
			return nil, err
		}
		short := n.Op == OpLogicalOr
		return BooleanKind.Wrap(func() (bool, error) {
			l, err := lhs()
			if err != nil || l == short {
				return l, err
			}
			return rhs()
		}), nil
	}

	lhs, err := b.Build(ctx, n.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := b.Build(ctx, n.RHS)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case OpEq, OpNe:
		eq, ok := lhs.TryIntoEq(rhs)
		if !ok {
			return nil, cannotCompare(lhs, rhs, n.Span)
		}
		if n.Op == OpNe {
			eq = Map(eq, func(v bool) bool { return !v })
		}
		return BooleanKind.Wrap(eq), nil
	case OpGe, OpGt, OpLe, OpLt:
		cmp, ok := lhs.TryIntoCmp(rhs)
		if !ok {
			return nil, cannotCompare(lhs, rhs, n.Span)
		}
		op := n.Op
		return BooleanKind.Wrap(Map(cmp, func(c int) bool {
			switch op {
			case OpGe:
				return c >= 0
			case OpGt:
				return c > 0
			case OpLe:
				return c <= 0
			default:
				return c < 0
			}
		})), nil
	}
	return nil, ExpressionError(n.Span, nil, "Unknown binary operator")
}

func cannotCompare(lhs, rhs Value, span Span) error {
	return ExpressionError(span, nil, "Cannot compare expressions of type %q and %q", lhs.TypeName(), rhs.TypeName())
}

func nameSpan(call *FunctionCall) Span {
	if call.NameSpan != (Span{}) {
		return call.NameSpan
	}
	return call.Span
}

// ExpectBoolean binds node and coerces it to Boolean.
func (b *Builder) ExpectBoolean(ctx *BuildContext, node ExpressionNode) (Property[bool], error) {
	v, err := b.Build(ctx, node)
	if err != nil {
		return nil, err
	}
	p, ok := v.TryIntoBoolean()
	if !ok {
		return nil, expectedType("Boolean", v.TypeName(), node.NodeSpan())
	}
	return p, nil
}

// ExpectInteger binds node and coerces it to Integer.
func (b *Builder) ExpectInteger(ctx *BuildContext, node ExpressionNode) (Property[int64], error) {
	v, err := b.Build(ctx, node)
	if err != nil {
		return nil, err
	}
	p, ok := v.TryIntoInteger()
	if !ok {
		return nil, expectedType("Integer", v.TypeName(), node.NodeSpan())
	}
	return p, nil
}

// ExpectUsize binds node as a non-negative integer.
func (b *Builder) ExpectUsize(ctx *BuildContext, node ExpressionNode) (Property[int], error) {
	p, err := b.ExpectInteger(ctx, node)
	if err != nil {
		return nil, err
	}
	return AndThen(p, func(v int64) (int, error) {
		if v < 0 || v > math.MaxInt {
			return 0, PropertyErrorf("Out of range integer")
		}
		return int(v), nil
	}), nil
}

// ExpectPlainText binds node and coerces it to String.
func (b *Builder) ExpectPlainText(ctx *BuildContext, node ExpressionNode) (Property[string], error) {
	v, err := b.Build(ctx, node)
	if err != nil {
		return nil, err
	}
	p, ok := v.TryIntoPlainText()
	if !ok {
		return nil, expectedType("String", v.TypeName(), node.NodeSpan())
	}
	return p, nil
}

// ExpectTemplate binds node and coerces it to Template.
func (b *Builder) ExpectTemplate(ctx *BuildContext, node ExpressionNode) (Template, error) {
	v, err := b.Build(ctx, node)
	if err != nil {
		return nil, err
	}
	t, ok := v.TryIntoTemplate()
	if !ok {
		return nil, expectedType("Template", v.TypeName(), node.NodeSpan())
	}
	return t, nil
}
