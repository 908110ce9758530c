package templater

import "strings"

func coreFunctions() map[string]FunctionBuilder {
	return map[string]FunctionBuilder{
		"if":        buildIf,
		"concat":    buildConcat,
		"separate":  buildSeparate,
		"label":     buildLabel,
		"coalesce":  buildCoalesce,
		"surround":  buildSurround,
		"stringify": buildStringify,
	}
}

func expectTemplates(b *Builder, ctx *BuildContext, nodes []ExpressionNode) ([]Template, error) {
	ts := make([]Template, 0, len(nodes))
	for _, node := range nodes {
		t, err := b.ExpectTemplate(ctx, node)
		if err != nil {
			return nil, err
		}
		ts = append(ts, t)
	}
	return ts, nil
}

// record renders t into a recorder so emptiness can be checked before
// anything reaches tf.
func record(tf *TemplateFormatter, t Template) (*Recorder, error) {
	rec := &Recorder{}
	if err := t.Format(tf.Sub(rec)); err != nil {
		return nil, err
	}
	return rec, nil
}

func buildIf(b *Builder, ctx *BuildContext, call *FunctionCall) (Value, error) {
	req, opt, err := call.ExpectArguments(2, 1)
	if err != nil {
		return nil, err
	}
	cond, err := b.ExpectBoolean(ctx, req[0])
	if err != nil {
		return nil, err
	}
	then, err := b.ExpectTemplate(ctx, req[1])
	if err != nil {
		return nil, err
	}
	var otherwise Template
	if opt[0] != nil {
		if otherwise, err = b.ExpectTemplate(ctx, opt[0]); err != nil {
			return nil, err
		}
	}
	return TemplateValue(TemplateFunc(func(tf *TemplateFormatter) error {
		ok, err := cond()
		if err != nil {
			return tf.HandleError(err)
		}
		switch {
		case ok:
			return then.Format(tf)
		case otherwise != nil:
			return otherwise.Format(tf)
		}
		return nil
	})), nil
}

func buildConcat(b *Builder, ctx *BuildContext, call *FunctionCall) (Value, error) {
	ts, err := expectTemplates(b, ctx, call.Args)
	if err != nil {
		return nil, err
	}
	return TemplateValue(ConcatTemplates(ts...)), nil
}

func buildSeparate(b *Builder, ctx *BuildContext, call *FunctionCall) (Value, error) {
	args, err := call.ExpectSomeArguments(1)
	if err != nil {
		return nil, err
	}
	sep, err := b.ExpectTemplate(ctx, args[0])
	if err != nil {
		return nil, err
	}
	contents, err := expectTemplates(b, ctx, args[1:])
	if err != nil {
		return nil, err
	}
	return TemplateValue(TemplateFunc(func(tf *TemplateFormatter) error {
		first := true
		for _, t := range contents {
			rec, err := record(tf, t)
			if err != nil {
				return err
			}
			if rec.IsEmpty() {
				continue
			}
			if !first {
				if err := sep.Format(tf); err != nil {
					return err
				}
			}
			first = false
			if err := rec.Replay(tf); err != nil {
				return err
			}
		}
		return nil
	})), nil
}

func buildLabel(b *Builder, ctx *BuildContext, call *FunctionCall) (Value, error) {
	args, err := call.ExpectExactArguments(2)
	if err != nil {
		return nil, err
	}
	label, err := b.ExpectPlainText(ctx, args[0])
	if err != nil {
		return nil, err
	}
	content, err := b.ExpectTemplate(ctx, args[1])
	if err != nil {
		return nil, err
	}
	return TemplateValue(TemplateFunc(func(tf *TemplateFormatter) error {
		text, err := label()
		if err != nil {
			return tf.HandleError(err)
		}
		labels := strings.Fields(text)
		for _, l := range labels {
			tf.PushLabel(l)
		}
		err = content.Format(tf)
		for range labels {
			tf.PopLabel()
		}
		return err
	})), nil
}

func buildCoalesce(b *Builder, ctx *BuildContext, call *FunctionCall) (Value, error) {
	contents, err := expectTemplates(b, ctx, call.Args)
	if err != nil {
		return nil, err
	}
	return TemplateValue(TemplateFunc(func(tf *TemplateFormatter) error {
		for _, t := range contents {
			rec, err := record(tf, t)
			if err != nil {
				return err
			}
			if !rec.IsEmpty() {
				return rec.Replay(tf)
			}
		}
		return nil
	})), nil
}

func buildSurround(b *Builder, ctx *BuildContext, call *FunctionCall) (Value, error) {
	args, err := call.ExpectExactArguments(3)
	if err != nil {
		return nil, err
	}
	ts, err := expectTemplates(b, ctx, args)
	if err != nil {
		return nil, err
	}
	prefix, suffix, content := ts[0], ts[1], ts[2]
	return TemplateValue(TemplateFunc(func(tf *TemplateFormatter) error {
		rec, err := record(tf, content)
		if err != nil {
			return err
		}
		if rec.IsEmpty() {
			return nil
		}
		if err := prefix.Format(tf); err != nil {
			return err
		}
		if err := rec.Replay(tf); err != nil {
			return err
		}
		return suffix.Format(tf)
	})), nil
}

func buildStringify(b *Builder, ctx *BuildContext, call *FunctionCall) (Value, error) {
	args, err := call.ExpectExactArguments(1)
	if err != nil {
		return nil, err
	}
	text, err := b.ExpectPlainText(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return StringKind.Wrap(text), nil
}
