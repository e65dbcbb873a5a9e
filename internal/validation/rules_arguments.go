package validation

import (
	"errors"

	language "github.com/hanpama/querycheck/internal/language"
	"github.com/hanpama/querycheck/internal/schema"
)

// argumentsAreDefined rejects arguments and input object fields their owner
// does not declare.
type argumentsAreDefined struct{ BaseVisitor }

func (argumentsAreDefined) EnterArgument(ctx *Context, arg *language.Argument, parent Parent) {
	if ctx.ArgumentDefinition() != nil {
		return
	}
	kind, owner, ok := describeParent("ArgumentsAreDefined", parent)
	if !ok {
		return
	}
	var declared []*schema.InputValue
	switch p := parent.(type) {
	case FieldParent:
		declared = ctx.Schema().Arguments(p.Def)
	case DirectiveParent:
		declared = ctx.Schema().Arguments(p.Def)
	case InputObjectParent:
		declared = ctx.Schema().Arguments(p.Def)
	}
	ctx.Report(errArgumentNotAccepted(kind, owner, arg.Name, ctx.didYouMean(arg.Name, inputValueNames(declared)), arg.Position))
}

func inputValueNames(values []*schema.InputValue) []string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = v.Name
	}
	return names
}

// argumentNamesAreUnique rejects fields and directives given the same
// argument twice.
type argumentNamesAreUnique struct{ BaseVisitor }

func (argumentNamesAreUnique) EnterField(ctx *Context, field *language.Field) {
	reportDuplicateArguments(ctx, field.Arguments)
}

func (argumentNamesAreUnique) EnterDirective(ctx *Context, dir *language.Directive, _ language.DirectiveLocation) {
	reportDuplicateArguments(ctx, dir.Arguments)
}

func reportDuplicateArguments(ctx *Context, args language.ArgumentList) {
	var order []string
	byName := map[string][]*language.Position{}
	for _, a := range args {
		if _, ok := byName[a.Name]; !ok {
			order = append(order, a.Name)
		}
		byName[a.Name] = append(byName[a.Name], a.Position)
	}
	for _, name := range order {
		if positions := byName[name]; len(positions) > 1 {
			ctx.Report(errDuplicateArgument(name, positions))
		}
	}
}

// inputObjectNamesAreUnique rejects input object literals giving a field twice.
type inputObjectNamesAreUnique struct{ BaseVisitor }

func (inputObjectNamesAreUnique) EnterValue(ctx *Context, value *language.Value, _ ArgumentParent) {
	if value.Kind != language.ObjectValue {
		return
	}
	var order []string
	byName := map[string][]*language.Position{}
	for _, c := range value.Children {
		if _, ok := byName[c.Name]; !ok {
			order = append(order, c.Name)
		}
		byName[c.Name] = append(byName[c.Name], c.Position)
	}
	for _, name := range order {
		if positions := byName[name]; len(positions) > 1 {
			ctx.Report(errDuplicateInputField(name, positions))
		}
	}
}

// requiredArgumentsArePresent requires every non-null argument without a
// default to be given.
type requiredArgumentsArePresent struct{ BaseVisitor }

func (requiredArgumentsArePresent) EnterField(ctx *Context, field *language.Field) {
	def := ctx.FieldDefinition()
	if def == nil {
		return
	}
	if missing := missingArguments(ctx.Schema().Arguments(def), field.Arguments); len(missing) > 0 {
		ctx.Report(errMissingRequiredArguments("Field", field.Name, missing, field.Position))
	}
}

func (requiredArgumentsArePresent) EnterDirective(ctx *Context, dir *language.Directive, _ language.DirectiveLocation) {
	def := ctx.DirectiveDefinition()
	if def == nil {
		return
	}
	if missing := missingArguments(ctx.Schema().Arguments(def), dir.Arguments); len(missing) > 0 {
		ctx.Report(errMissingRequiredArguments("Directive", dir.Name, missing, dir.Position))
	}
}

func missingArguments(declared []*schema.InputValue, given language.ArgumentList) []string {
	var missing []string
	for _, d := range declared {
		if d.IsRequired() && given.ForName(d.Name) == nil {
			missing = append(missing, d.Name)
		}
	}
	return missing
}

// requiredInputObjectAttributesArePresent requires input object literals to
// give every required field.
type requiredInputObjectAttributesArePresent struct{ BaseVisitor }

func (requiredInputObjectAttributesArePresent) EnterValue(ctx *Context, value *language.Value, _ ArgumentParent) {
	if value.Kind != language.ObjectValue {
		return
	}
	obj := inputObjectType(ctx.Schema(), ctx.InputType())
	if obj == nil {
		return
	}
	for _, f := range ctx.Schema().Arguments(obj) {
		if f.IsRequired() && value.Children.ForName(f.Name) == nil {
			ctx.Report(errMissingInputObjectAttribute(f.Name, obj.Name, f.Type.String(), value.Position))
		}
	}
}

// argumentLiteralsAreCompatible checks literal arguments of fields and
// directives against their declared types. Unknown and missing input object
// fields are left to the rules above.
type argumentLiteralsAreCompatible struct{ BaseVisitor }

func (argumentLiteralsAreCompatible) EnterArgument(ctx *Context, arg *language.Argument, parent Parent) {
	def := ctx.ArgumentDefinition()
	if def == nil {
		return
	}
	var kind, owner string
	switch p := parent.(type) {
	case FieldParent:
		kind, owner = "Field", p.Node.Name
	case DirectiveParent:
		kind, owner = "Directive", p.Node.Name
	case InputObjectParent:
		return
	default:
		panic(invariant("ArgumentLiteralsAreCompatible", "unexpected parent %T", parent))
	}
	err := ctx.Schema().CheckLiteral(def.Type, arg.Value)
	if err == nil {
		return
	}
	var lerr *schema.LiteralError
	if errors.As(err, &lerr) && (lerr.Kind == schema.LiteralUnknownField || lerr.Kind == schema.LiteralMissingField) {
		return
	}
	ctx.Report(errIncompatibleLiteral(kind, owner, arg.Name, language.PrintValue(arg.Value), def.Type.String(), arg.Position))
}

// oneOfInputObjectsAreValid requires exactly one non-null field in literals
// of @oneOf input objects.
type oneOfInputObjectsAreValid struct{ BaseVisitor }

func (oneOfInputObjectsAreValid) EnterValue(ctx *Context, value *language.Value, _ ArgumentParent) {
	if value.Kind != language.ObjectValue {
		return
	}
	obj := inputObjectType(ctx.Schema(), ctx.InputType())
	if obj == nil || !obj.OneOf {
		return
	}
	if len(value.Children) != 1 {
		ctx.Report(errOneOfKeyCount(obj.Name, value.Position))
		return
	}
	only := value.Children[0]
	switch only.Value.Kind {
	case language.NullValue:
		ctx.Report(errOneOfNullValue(obj.Name, only.Name, only.Position))
	case language.Variable:
		op := ctx.Operation()
		if op == nil {
			return
		}
		if vd := op.VariableDefinitions.ForName(only.Value.Raw); vd != nil && !vd.Type.NonNull {
			ctx.Report(errOneOfNullableVariable(obj.Name, only.Value.Raw, only.Position))
		}
	}
}
