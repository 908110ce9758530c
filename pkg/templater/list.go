package templater

import "io"

// OptionKind returns the kind of optional elem values. Methods of elem
// apply to the option, failing at evaluation time when it is absent.
func OptionKind[T any](elem *Kind[T]) *Kind[Option[T]] {
	k := &Kind[Option[T]]{
		Name: "Option<" + elem.Name + ">",
		Bool: func(o Option[T]) bool { return o.Valid },
	}
	if elem.Render != nil {
		k.Render = func(tf *TemplateFormatter, o Option[T]) error {
			if !o.Valid {
				return nil
			}
			return elem.Render(tf, o.Value)
		}
	}
	if elem.Int != nil {
		k.Int = func(o Option[T]) (int64, error) {
			if !o.Valid {
				return 0, PropertyErrorf("No %s available", elem.Name)
			}
			return elem.Int(o.Value)
		}
	}
	k.unwrap = func(p Property[Option[T]]) Value {
		return elem.Wrap(Unwrap(p, elem.Name))
	}
	return k
}

// ListKind returns the kind of elem lists. A renderable elem makes the
// list renderable, items joined by sep.
func ListKind[T any](elem *Kind[T], sep string) *Kind[[]T] {
	k := &Kind[[]T]{
		Name: "List<" + elem.Name + ">",
		Bool: func(items []T) bool { return len(items) > 0 },
	}
	if elem.Render != nil {
		k.Render = func(tf *TemplateFormatter, items []T) error {
			for i, item := range items {
				if i > 0 {
					if _, err := io.WriteString(tf, sep); err != nil {
						return err
					}
				}
				if err := elem.Render(tf, item); err != nil {
					return err
				}
			}
			return nil
		}
	}
	k.builtin = listMethods(k, elem)
	return k
}

func listMethods[T any](k *Kind[[]T], elem *Kind[T]) MethodTable {
	table := MethodTable{
		"len": Method(k, func(_ *Builder, _ *BuildContext, self Property[[]T], call *FunctionCall) (Value, error) {
			if err := call.ExpectNoArguments(); err != nil {
				return nil, err
			}
			return IntegerKind.Wrap(Map(self, func(items []T) int64 { return int64(len(items)) })), nil
		}),
		"filter": Method(k, func(b *Builder, ctx *BuildContext, self Property[[]T], call *FunctionCall) (Value, error) {
			pred, ph, err := lambdaPredicate(b, ctx, call, elem)
			if err != nil {
				return nil, err
			}
			return k.Wrap(AndThen(self, func(items []T) ([]T, error) {
				var out []T
				for _, item := range items {
					keep, err := evalWith(ph, item, pred)
					if err != nil {
						return nil, err
					}
					if keep {
						out = append(out, item)
					}
				}
				return out, nil
			})), nil
		}),
		"any": Method(k, func(b *Builder, ctx *BuildContext, self Property[[]T], call *FunctionCall) (Value, error) {
			pred, ph, err := lambdaPredicate(b, ctx, call, elem)
			if err != nil {
				return nil, err
			}
			return BooleanKind.Wrap(AndThen(self, func(items []T) (bool, error) {
				for _, item := range items {
					ok, err := evalWith(ph, item, pred)
					if err != nil || ok {
						return ok, err
					}
				}
				return false, nil
			})), nil
		}),
		"all": Method(k, func(b *Builder, ctx *BuildContext, self Property[[]T], call *FunctionCall) (Value, error) {
			pred, ph, err := lambdaPredicate(b, ctx, call, elem)
			if err != nil {
				return nil, err
			}
			return BooleanKind.Wrap(AndThen(self, func(items []T) (bool, error) {
				for _, item := range items {
					ok, err := evalWith(ph, item, pred)
					if err != nil || !ok {
						return ok, err
					}
				}
				return true, nil
			})), nil
		}),
		"map": Method(k, func(b *Builder, ctx *BuildContext, self Property[[]T], call *FunctionCall) (Value, error) {
			args, err := call.ExpectExactArguments(1)
			if err != nil {
				return nil, err
			}
			ph, inner, body, err := lambdaScope(ctx, args[0], elem)
			if err != nil {
				return nil, err
			}
			t, err := b.ExpectTemplate(inner, body)
			if err != nil {
				return nil, err
			}
			return ListTemplateValue(&mappedList[T]{items: self, param: ph, body: t, sep: Text(" ")}), nil
		}),
	}
	if elem.Render != nil {
		table["join"] = Method(k, func(b *Builder, ctx *BuildContext, self Property[[]T], call *FunctionCall) (Value, error) {
			args, err := call.ExpectExactArguments(1)
			if err != nil {
				return nil, err
			}
			sep, err := b.ExpectTemplate(ctx, args[0])
			if err != nil {
				return nil, err
			}
			return TemplateValue(TemplateFunc(func(tf *TemplateFormatter) error {
				items, err := self()
				if err != nil {
					return tf.HandleError(err)
				}
				for i, item := range items {
					if i > 0 {
						if err := sep.Format(tf); err != nil {
							return err
						}
					}
					if err := elem.Render(tf, item); err != nil {
						return err
					}
				}
				return nil
			})), nil
		})
	}
	return table
}

// lambdaScope binds the single parameter of a lambda node to a fresh
// placeholder of kind elem.
func lambdaScope[T any](ctx *BuildContext, node ExpressionNode, elem *Kind[T]) (*Placeholder[T], *BuildContext, ExpressionNode, error) {
	lambda, ok := node.(*Lambda)
	if !ok {
		return nil, nil, nil, ExpressionError(node.NodeSpan(), nil, "Expected lambda expression")
	}
	if len(lambda.Params) != 1 {
		return nil, nil, nil, &TemplateParseError{
			Kind:    ErrorInvalidArguments,
			Message: "Expected 1 lambda parameters",
			Span:    lambda.ParamsSpan,
		}
	}
	ph := &Placeholder[T]{}
	return ph, ctx.WithLocal(lambda.Params[0], elem.Wrap(ph.Property())), lambda.Body, nil
}

func lambdaPredicate[T any](b *Builder, ctx *BuildContext, call *FunctionCall, elem *Kind[T]) (Property[bool], *Placeholder[T], error) {
	args, err := call.ExpectExactArguments(1)
	if err != nil {
		return nil, nil, err
	}
	ph, inner, body, err := lambdaScope(ctx, args[0], elem)
	if err != nil {
		return nil, nil, err
	}
	pred, err := b.ExpectBoolean(inner, body)
	if err != nil {
		return nil, nil, err
	}
	return pred, ph, nil
}

func evalWith[T, U any](ph *Placeholder[T], v T, p Property[U]) (U, error) {
	var out U
	err := ph.With(v, func() error {
		var err error
		out, err = p()
		return err
	})
	return out, err
}

type mappedList[T any] struct {
	items Property[[]T]
	param *Placeholder[T]
	body  Template
	sep   Template
}

func (l *mappedList[T]) Format(tf *TemplateFormatter) error {
	items, err := l.items()
	if err != nil {
		return tf.HandleError(err)
	}
	for i, item := range items {
		if i > 0 {
			if err := l.sep.Format(tf); err != nil {
				return err
			}
		}
		if err := l.param.With(item, func() error { return l.body.Format(tf) }); err != nil {
			return err
		}
	}
	return nil
}

func (l *mappedList[T]) Join(sep Template) ListTemplate {
	out := *l
	out.sep = sep
	return &out
}
