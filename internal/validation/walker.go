package validation

import (
	"sort"

	language "github.com/hanpama/querycheck/internal/language"
	"github.com/hanpama/querycheck/internal/schema"
)

// Visitor receives a callback for every node of a document. Enter hooks run
// pre-order; calling Context.SkipChildren from one keeps the walker out of
// that node's subtree. Leave hooks run for every entered node.
type Visitor interface {
	EnterDocument(ctx *Context, doc *language.QueryDocument)
	LeaveDocument(ctx *Context, doc *language.QueryDocument)
	EnterOperation(ctx *Context, op *language.OperationDefinition)
	LeaveOperation(ctx *Context, op *language.OperationDefinition)
	EnterFragmentDefinition(ctx *Context, def *language.FragmentDefinition)
	LeaveFragmentDefinition(ctx *Context, def *language.FragmentDefinition)
	EnterVariableDefinition(ctx *Context, def *language.VariableDefinition)
	LeaveVariableDefinition(ctx *Context, def *language.VariableDefinition)
	EnterField(ctx *Context, field *language.Field)
	LeaveField(ctx *Context, field *language.Field)
	EnterInlineFragment(ctx *Context, frag *language.InlineFragment)
	LeaveInlineFragment(ctx *Context, frag *language.InlineFragment)
	EnterFragmentSpread(ctx *Context, spread *language.FragmentSpread)
	LeaveFragmentSpread(ctx *Context, spread *language.FragmentSpread)
	EnterDirective(ctx *Context, dir *language.Directive, loc language.DirectiveLocation)
	LeaveDirective(ctx *Context, dir *language.Directive, loc language.DirectiveLocation)
	EnterArgument(ctx *Context, arg *language.Argument, parent Parent)
	LeaveArgument(ctx *Context, arg *language.Argument, parent Parent)
	EnterValue(ctx *Context, value *language.Value, parent ArgumentParent)
	LeaveValue(ctx *Context, value *language.Value, parent ArgumentParent)
}

// BaseVisitor implements every hook as a no-op. Rules embed it and override
// the hooks they care about.
type BaseVisitor struct{}

func (BaseVisitor) EnterDocument(*Context, *language.QueryDocument)                            {}
func (BaseVisitor) LeaveDocument(*Context, *language.QueryDocument)                            {}
func (BaseVisitor) EnterOperation(*Context, *language.OperationDefinition)                     {}
func (BaseVisitor) LeaveOperation(*Context, *language.OperationDefinition)                     {}
func (BaseVisitor) EnterFragmentDefinition(*Context, *language.FragmentDefinition)             {}
func (BaseVisitor) LeaveFragmentDefinition(*Context, *language.FragmentDefinition)             {}
func (BaseVisitor) EnterVariableDefinition(*Context, *language.VariableDefinition)             {}
func (BaseVisitor) LeaveVariableDefinition(*Context, *language.VariableDefinition)             {}
func (BaseVisitor) EnterField(*Context, *language.Field)                                       {}
func (BaseVisitor) LeaveField(*Context, *language.Field)                                       {}
func (BaseVisitor) EnterInlineFragment(*Context, *language.InlineFragment)                     {}
func (BaseVisitor) LeaveInlineFragment(*Context, *language.InlineFragment)                     {}
func (BaseVisitor) EnterFragmentSpread(*Context, *language.FragmentSpread)                     {}
func (BaseVisitor) LeaveFragmentSpread(*Context, *language.FragmentSpread)                     {}
func (BaseVisitor) EnterDirective(*Context, *language.Directive, language.DirectiveLocation)   {}
func (BaseVisitor) LeaveDirective(*Context, *language.Directive, language.DirectiveLocation)   {}
func (BaseVisitor) EnterArgument(*Context, *language.Argument, Parent)                         {}
func (BaseVisitor) LeaveArgument(*Context, *language.Argument, Parent)                         {}
func (BaseVisitor) EnterValue(*Context, *language.Value, ArgumentParent)                       {}
func (BaseVisitor) LeaveValue(*Context, *language.Value, ArgumentParent)                       {}

// Context is the state of one validation run as seen from the node being
// visited. It is created per run and never shared.
type Context struct {
	schema    TypeSystem
	doc       *language.QueryDocument
	opts      *Options
	fragments *fragmentGraph

	operation *language.OperationDefinition
	fragment  *language.FragmentDefinition
	path      language.Path
	types     []*schema.Type
	fields    []*schema.Field
	directive *schema.Directive
	arguments []*schema.InputValue
	inputs    []*schema.TypeRef

	rule     string
	skip     bool
	errors   List
	possible map[string]map[string]bool
}

func newContext(ts TypeSystem, doc *language.QueryDocument, opts *Options) *Context {
	return &Context{
		schema:    ts,
		doc:       doc,
		opts:      opts,
		fragments: buildFragmentGraph(doc),
		possible:  map[string]map[string]bool{},
	}
}

func (c *Context) Schema() TypeSystem                  { return c.schema }
func (c *Context) Document() *language.QueryDocument  { return c.doc }
func (c *Context) Options() Options                   { return *c.opts }

// Operation is the operation being walked, or nil inside a fragment definition.
func (c *Context) Operation() *language.OperationDefinition { return c.operation }

// CurrentFragment is the fragment definition being walked, or nil inside an operation.
func (c *Context) CurrentFragment() *language.FragmentDefinition { return c.fragment }

// Fragment returns the first fragment definition named name, or nil.
func (c *Context) Fragment(name string) *language.FragmentDefinition {
	return c.fragments.defs[name]
}

// ParentType is the type of the selection set enclosing the current node.
// It is nil outside selection sets and under unknown types.
func (c *Context) ParentType() *schema.Type {
	if len(c.types) == 0 {
		return nil
	}
	return c.types[len(c.types)-1]
}

// FieldDefinition is the definition of the innermost field being walked.
func (c *Context) FieldDefinition() *schema.Field {
	if len(c.fields) == 0 {
		return nil
	}
	return c.fields[len(c.fields)-1]
}

// DirectiveDefinition is the definition of the directive being walked.
func (c *Context) DirectiveDefinition() *schema.Directive { return c.directive }

// ArgumentDefinition is the definition of the innermost argument or input
// object field being walked.
func (c *Context) ArgumentDefinition() *schema.InputValue {
	if len(c.arguments) == 0 {
		return nil
	}
	return c.arguments[len(c.arguments)-1]
}

// InputType is the type the value being walked is expected to have.
func (c *Context) InputType() *schema.TypeRef {
	if len(c.inputs) == 0 {
		return nil
	}
	return c.inputs[len(c.inputs)-1]
}

// Path returns a copy of the path to the current node.
func (c *Context) Path() language.Path {
	out := make(language.Path, len(c.path))
	copy(out, c.path)
	return out
}

// SkipChildren keeps the walker out of the subtree of the node whose Enter
// hook is running. The remaining rules still see the node itself. For a
// field only the selection set is skipped.
func (c *Context) SkipChildren() { c.skip = true }

// Report records a finding. Rule and Path default to the running rule and
// the current path.
func (c *Context) Report(err *Error) {
	if err.Rule == "" {
		err.Rule = c.rule
	}
	if err.Path == nil {
		err.Path = c.Path()
	}
	c.errors = append(c.errors, err)
}

type ruleVisitor struct {
	name    string
	visitor Visitor
}

type walker struct {
	ctx      *Context
	visitors []ruleVisitor
}

func (w *walker) each(fn func(Visitor)) {
	for _, rv := range w.visitors {
		w.ctx.rule = rv.name
		fn(rv.visitor)
	}
	w.ctx.rule = ""
}

// enter runs an Enter hook on every visitor and reports whether the walker
// should descend.
func (w *walker) enter(fn func(Visitor)) bool {
	w.ctx.skip = false
	w.each(fn)
	descend := !w.ctx.skip
	w.ctx.skip = false
	return descend
}

type definition struct {
	op    *language.OperationDefinition
	frag  *language.FragmentDefinition
	start int
}

// definitions returns operations and fragments in source order.
func definitions(doc *language.QueryDocument) []definition {
	defs := make([]definition, 0, len(doc.Operations)+len(doc.Fragments))
	for _, op := range doc.Operations {
		d := definition{op: op}
		if op.Position != nil {
			d.start = op.Position.Start
		}
		defs = append(defs, d)
	}
	for _, f := range doc.Fragments {
		d := definition{frag: f}
		if f.Position != nil {
			d.start = f.Position.Start
		}
		defs = append(defs, d)
	}
	sort.SliceStable(defs, func(i, j int) bool { return defs[i].start < defs[j].start })
	return defs
}

func (w *walker) walkDocument(doc *language.QueryDocument) {
	ctx := w.ctx
	w.each(func(v Visitor) { v.EnterDocument(ctx, doc) })
	for _, def := range definitions(doc) {
		if def.op != nil {
			w.walkOperation(def.op)
		} else {
			w.walkFragmentDefinition(def.frag)
		}
	}
	w.each(func(v Visitor) { v.LeaveDocument(ctx, doc) })
}

func operationLocation(op language.Operation) language.DirectiveLocation {
	switch op {
	case language.Mutation:
		return language.LocationMutation
	case language.Subscription:
		return language.LocationSubscription
	default:
		return language.LocationQuery
	}
}

func (w *walker) walkOperation(op *language.OperationDefinition) {
	ctx := w.ctx
	ctx.operation = op
	ctx.path = language.Path{language.PathName(language.OperationLabel(op))}

	if w.enter(func(v Visitor) { v.EnterOperation(ctx, op) }) {
		w.walkDirectives(op.Directives, operationLocation(op.Operation))
		for _, vd := range op.VariableDefinitions {
			w.walkVariableDefinition(vd)
		}
		ctx.types = append(ctx.types, ctx.schema.RootType(op.Operation))
		w.walkSelectionSet(op.SelectionSet)
		ctx.types = ctx.types[:len(ctx.types)-1]
	}
	w.each(func(v Visitor) { v.LeaveOperation(ctx, op) })

	ctx.operation = nil
	ctx.path = nil
}

func (w *walker) walkFragmentDefinition(def *language.FragmentDefinition) {
	ctx := w.ctx
	ctx.fragment = def
	ctx.path = language.Path{language.PathName("fragment " + def.Name)}

	if w.enter(func(v Visitor) { v.EnterFragmentDefinition(ctx, def) }) {
		w.walkDirectives(def.Directives, language.LocationFragmentDefinition)
		ctx.types = append(ctx.types, ctx.schema.Type(def.TypeCondition))
		w.walkSelectionSet(def.SelectionSet)
		ctx.types = ctx.types[:len(ctx.types)-1]
	}
	w.each(func(v Visitor) { v.LeaveFragmentDefinition(ctx, def) })

	ctx.fragment = nil
	ctx.path = nil
}

func (w *walker) walkVariableDefinition(def *language.VariableDefinition) {
	ctx := w.ctx
	if w.enter(func(v Visitor) { v.EnterVariableDefinition(ctx, def) }) {
		w.walkDirectives(def.Directives, language.LocationVariableDefinition)
	}
	w.each(func(v Visitor) { v.LeaveVariableDefinition(ctx, def) })
}

func (w *walker) walkSelectionSet(set language.SelectionSet) {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *language.Field:
			w.walkField(sel)
		case *language.InlineFragment:
			w.walkInlineFragment(sel)
		case *language.FragmentSpread:
			w.walkFragmentSpread(sel)
		default:
			panic(invariant("", "unexpected selection %T", sel))
		}
	}
}

func responseKey(f *language.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

func (w *walker) walkField(field *language.Field) {
	ctx := w.ctx
	def := ctx.schema.Field(ctx.ParentType(), field.Name)
	ctx.fields = append(ctx.fields, def)
	ctx.path = append(ctx.path, language.PathName(responseKey(field)))

	descend := w.enter(func(v Visitor) { v.EnterField(ctx, field) })
	// Arguments are walked even for skipped fields so variable usages are
	// always recorded.
	w.walkDirectives(field.Directives, language.LocationField)
	w.walkArguments(field.Arguments, FieldParent{Node: field, Def: def})
	if descend && len(field.SelectionSet) > 0 {
		var ret *schema.Type
		if def != nil {
			ret = ctx.schema.Type(def.Type.GetNamedType())
		}
		ctx.types = append(ctx.types, ret)
		w.walkSelectionSet(field.SelectionSet)
		ctx.types = ctx.types[:len(ctx.types)-1]
	}
	w.each(func(v Visitor) { v.LeaveField(ctx, field) })

	ctx.path = ctx.path[:len(ctx.path)-1]
	ctx.fields = ctx.fields[:len(ctx.fields)-1]
}

func (w *walker) walkInlineFragment(frag *language.InlineFragment) {
	ctx := w.ctx
	typ := ctx.ParentType()
	if frag.TypeCondition != "" {
		typ = ctx.schema.Type(frag.TypeCondition)
	}

	if w.enter(func(v Visitor) { v.EnterInlineFragment(ctx, frag) }) {
		w.walkDirectives(frag.Directives, language.LocationInlineFragment)
		ctx.types = append(ctx.types, typ)
		w.walkSelectionSet(frag.SelectionSet)
		ctx.types = ctx.types[:len(ctx.types)-1]
	}
	w.each(func(v Visitor) { v.LeaveInlineFragment(ctx, frag) })
}

func (w *walker) walkFragmentSpread(spread *language.FragmentSpread) {
	ctx := w.ctx
	if w.enter(func(v Visitor) { v.EnterFragmentSpread(ctx, spread) }) {
		w.walkDirectives(spread.Directives, language.LocationFragmentSpread)
	}
	w.each(func(v Visitor) { v.LeaveFragmentSpread(ctx, spread) })
}

func (w *walker) walkDirectives(dirs language.DirectiveList, loc language.DirectiveLocation) {
	ctx := w.ctx
	for _, dir := range dirs {
		def := ctx.schema.Directive(dir.Name)
		ctx.directive = def
		if w.enter(func(v Visitor) { v.EnterDirective(ctx, dir, loc) }) {
			w.walkArguments(dir.Arguments, DirectiveParent{Node: dir, Def: def})
		}
		w.each(func(v Visitor) { v.LeaveDirective(ctx, dir, loc) })
		ctx.directive = nil
	}
}

func (w *walker) walkArguments(args language.ArgumentList, parent Parent) {
	for _, arg := range args {
		w.walkArgument(arg, parent)
	}
}

func (w *walker) walkArgument(arg *language.Argument, parent Parent) {
	ctx := w.ctx
	var def *schema.InputValue
	switch p := parent.(type) {
	case FieldParent:
		if p.Def != nil {
			def = ctx.schema.Argument(p.Def, arg.Name)
		}
	case DirectiveParent:
		if p.Def != nil {
			def = ctx.schema.Argument(p.Def, arg.Name)
		}
	case InputObjectParent:
		if p.Def != nil {
			def = ctx.schema.Argument(p.Def, arg.Name)
		}
	default:
		panic(invariant("", "unexpected argument parent %T", parent))
	}
	var expected *schema.TypeRef
	if def != nil {
		expected = def.Type
	}

	ctx.arguments = append(ctx.arguments, def)
	ctx.path = append(ctx.path, language.PathName(arg.Name))
	if w.enter(func(v Visitor) { v.EnterArgument(ctx, arg, parent) }) {
		w.walkValue(arg.Value, expected, ArgumentParent{Node: arg, Def: def, Parent: parent})
	}
	w.each(func(v Visitor) { v.LeaveArgument(ctx, arg, parent) })
	ctx.path = ctx.path[:len(ctx.path)-1]
	ctx.arguments = ctx.arguments[:len(ctx.arguments)-1]
}

func (w *walker) walkValue(value *language.Value, expected *schema.TypeRef, parent ArgumentParent) {
	if value == nil {
		return
	}
	ctx := w.ctx
	ctx.inputs = append(ctx.inputs, expected)
	if w.enter(func(v Visitor) { v.EnterValue(ctx, value, parent) }) {
		switch value.Kind {
		case language.ListValue:
			item := listItemType(expected)
			for _, child := range value.Children {
				w.walkValue(child.Value, item, parent)
			}
		case language.ObjectValue:
			obj := InputObjectParent{Node: value, Def: inputObjectType(ctx.schema, expected)}
			for _, child := range value.Children {
				w.walkArgument(&language.Argument{Name: child.Name, Value: child.Value, Position: child.Position}, obj)
			}
		}
	}
	w.each(func(v Visitor) { v.LeaveValue(ctx, value, parent) })
	ctx.inputs = ctx.inputs[:len(ctx.inputs)-1]
}

// listItemType is the type expected of each item of a list literal. A
// non-list type expects its items to be of itself, which lets single values
// coerce to lists.
func listItemType(ref *schema.TypeRef) *schema.TypeRef {
	if ref == nil {
		return nil
	}
	ref = ref.Nullable()
	if ref.Kind == schema.TypeRefKindList {
		return ref.OfType
	}
	return ref
}

func inputObjectType(ts TypeSystem, ref *schema.TypeRef) *schema.Type {
	if ref == nil {
		return nil
	}
	t := ts.Type(ref.GetNamedType())
	if t == nil || t.Kind != schema.TypeKindInputObject {
		return nil
	}
	return t
}
