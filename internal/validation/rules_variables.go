package validation

import (
	language "github.com/hanpama/querycheck/internal/language"
	"github.com/hanpama/querycheck/internal/schema"
)

// variableNamesAreUnique rejects operations declaring a variable twice.
type variableNamesAreUnique struct{ BaseVisitor }

func (variableNamesAreUnique) EnterOperation(ctx *Context, op *language.OperationDefinition) {
	var order []string
	byName := map[string][]*language.Position{}
	for _, vd := range op.VariableDefinitions {
		if _, ok := byName[vd.Variable]; !ok {
			order = append(order, vd.Variable)
		}
		byName[vd.Variable] = append(byName[vd.Variable], vd.Position)
	}
	for _, name := range order {
		if positions := byName[name]; len(positions) > 1 {
			ctx.Report(errDuplicateVariable(name, positions))
		}
	}
}

// variablesAreInputTypes requires variable types to name defined input types.
type variablesAreInputTypes struct{ BaseVisitor }

func (variablesAreInputTypes) EnterVariableDefinition(ctx *Context, def *language.VariableDefinition) {
	name := def.Type.Name()
	t := ctx.Schema().Type(name)
	switch {
	case t == nil:
		candidates := typeNamesWhere(ctx.Schema(), (*schema.Type).IsInputType)
		ctx.Report(errUndefinedVariableType(name, def.Variable, ctx.didYouMean(name, candidates), def.Position))
	case !t.IsInputType():
		ctx.Report(errNonInputVariableType(name, def.Variable, def.Position))
	}
}

// variableDefaultValuesAreCorrectlyTyped checks default values against the
// declared variable type.
type variableDefaultValuesAreCorrectlyTyped struct{ BaseVisitor }

func (variableDefaultValuesAreCorrectlyTyped) EnterVariableDefinition(ctx *Context, def *language.VariableDefinition) {
	if def.DefaultValue == nil {
		return
	}
	if t := ctx.Schema().Type(def.Type.Name()); t == nil || !t.IsInputType() {
		return
	}
	if err := ctx.Schema().CheckLiteral(schema.TypeRefFromAST(def.Type), def.DefaultValue); err != nil {
		ctx.Report(errBadDefaultValue(def.Variable, def.Type.String(), def.DefaultValue.Position))
	}
}

type variableUsage struct {
	name string
	pos  *language.Position
	path language.Path

	// Set for usages in argument positions.
	expected        *schema.TypeRef
	argument        string
	locationDefault bool
}

// variableScope records what one operation or fragment does with variables.
type variableScope struct {
	usages  []variableUsage
	spreads []string
}

// variableScopes tracks variable usages and fragment spreads per operation
// and per fragment so usages can be attributed to every operation that
// reaches them.
type variableScopes struct {
	BaseVisitor
	ops   map[*language.OperationDefinition]*variableScope
	frags map[string]*variableScope
}

func newScopes() variableScopes {
	return variableScopes{
		ops:   map[*language.OperationDefinition]*variableScope{},
		frags: map[string]*variableScope{},
	}
}

func (s *variableScopes) current(ctx *Context) *variableScope {
	if op := ctx.Operation(); op != nil {
		if s.ops[op] == nil {
			s.ops[op] = &variableScope{}
		}
		return s.ops[op]
	}
	if f := ctx.CurrentFragment(); f != nil {
		if s.frags[f.Name] == nil {
			s.frags[f.Name] = &variableScope{}
		}
		return s.frags[f.Name]
	}
	panic(invariant("", "variable scope outside of any definition"))
}

func (s *variableScopes) EnterFragmentSpread(ctx *Context, spread *language.FragmentSpread) {
	scope := s.current(ctx)
	scope.spreads = append(scope.spreads, spread.Name)
}

func (s *variableScopes) EnterValue(ctx *Context, value *language.Value, parent ArgumentParent) {
	if value.Kind != language.Variable {
		return
	}
	u := variableUsage{name: value.Raw, pos: value.Position, path: ctx.Path()}
	if expected := ctx.InputType(); expected != nil {
		u.expected = expected
		u.argument = parent.Node.Name
		u.locationDefault = parent.Def != nil && parent.Def.HasDefault && parent.Node.Value == value
	}
	scope := s.current(ctx)
	scope.usages = append(scope.usages, u)
}

// closure returns the usages of op and of every fragment it reaches,
// directly first and then in spread order. Each fragment is followed once,
// so cycles terminate.
func (s *variableScopes) closure(op *language.OperationDefinition) []variableUsage {
	root := s.ops[op]
	if root == nil {
		return nil
	}
	out := append([]variableUsage(nil), root.usages...)
	visited := map[string]bool{}
	var follow func([]string)
	follow = func(spreads []string) {
		for _, name := range spreads {
			if visited[name] {
				continue
			}
			visited[name] = true
			scope := s.frags[name]
			if scope == nil {
				continue
			}
			out = append(out, scope.usages...)
			follow(scope.spreads)
		}
	}
	follow(root.spreads)
	return out
}

func (s *variableScopes) EnterOperation(ctx *Context, op *language.OperationDefinition) {
	s.current(ctx)
}

// variablesAreUsedAndDefined requires every declared variable to be used by
// its operation, through fragments included, and every used variable to be
// declared.
type variablesAreUsedAndDefined struct {
	variableScopes
}

func newVariablesAreUsedAndDefined() *variablesAreUsedAndDefined {
	return &variablesAreUsedAndDefined{variableScopes: newScopes()}
}

func (r *variablesAreUsedAndDefined) LeaveDocument(ctx *Context, doc *language.QueryDocument) {
	for _, op := range doc.Operations {
		label := language.Path{language.PathName(language.OperationLabel(op))}
		usages := r.closure(op)

		used := map[string]bool{}
		var usedOrder []string
		usedAt := map[string][]*language.Position{}
		for _, u := range usages {
			if !used[u.name] {
				used[u.name] = true
				usedOrder = append(usedOrder, u.name)
			}
			usedAt[u.name] = append(usedAt[u.name], u.pos)
		}

		declared := map[string]bool{}
		for _, vd := range op.VariableDefinitions {
			declared[vd.Variable] = true
			if !used[vd.Variable] {
				err := errUnusedVariable(vd.Variable, operationName(op), vd.Position)
				err.Path = label
				ctx.Report(err)
			}
		}
		for _, name := range usedOrder {
			if declared[name] {
				continue
			}
			err := errUndeclaredVariable(name, operationName(op), usedAt[name])
			err.Path = label
			ctx.Report(err)
		}
	}
}

// variableUsagesAreAllowed requires a variable's declared type to fit every
// argument position it is used in.
type variableUsagesAreAllowed struct {
	variableScopes
}

func newVariableUsagesAreAllowed() *variableUsagesAreAllowed {
	return &variableUsagesAreAllowed{variableScopes: newScopes()}
}

func (r *variableUsagesAreAllowed) LeaveDocument(ctx *Context, doc *language.QueryDocument) {
	for _, op := range doc.Operations {
		for _, u := range r.closure(op) {
			if u.expected == nil {
				continue
			}
			vd := op.VariableDefinitions.ForName(u.name)
			if vd == nil {
				continue
			}
			if t := ctx.Schema().Type(vd.Type.Name()); t == nil || !t.IsInputType() {
				continue
			}
			varType := schema.TypeRefFromAST(vd.Type)
			expected := u.expected
			hasDefault := vd.DefaultValue != nil && vd.DefaultValue.Kind != language.NullValue
			if expected.IsNonNull() && !varType.IsNonNull() && (hasDefault || u.locationDefault) {
				expected = expected.OfType
			}
			if kind := variableMismatch(varType, expected); kind != "" {
				err := errVariableMismatch(kind, u.name, u.argument, varType.String(), u.expected.String(), u.pos)
				err.Path = u.path
				ctx.Report(err)
			}
		}
	}
}

// variableMismatch names the way varType fails to fit expected, or returns
// "" when a value of varType is always acceptable there.
func variableMismatch(varType, expected *schema.TypeRef) string {
	if expected.IsNonNull() {
		if !varType.IsNonNull() {
			return "Nullability mismatch"
		}
		return variableMismatch(varType.OfType, expected.OfType)
	}
	if varType.IsNonNull() {
		return variableMismatch(varType.OfType, expected)
	}
	if expected.Kind == schema.TypeRefKindList {
		if varType.Kind != schema.TypeRefKindList {
			return "List dimension mismatch"
		}
		return variableMismatch(varType.OfType, expected.OfType)
	}
	if varType.Kind == schema.TypeRefKindList {
		return "List dimension mismatch"
	}
	if varType.Named != expected.Named {
		return "Type mismatch"
	}
	return ""
}
