package validation

import (
	language "github.com/hanpama/querycheck/internal/language"
)

// fragmentNamesAreUnique rejects documents defining a fragment name twice.
type fragmentNamesAreUnique struct{ BaseVisitor }

func (*fragmentNamesAreUnique) LeaveDocument(ctx *Context, doc *language.QueryDocument) {
	var order []string
	byName := map[string][]*language.Position{}
	for _, f := range doc.Fragments {
		if _, ok := byName[f.Name]; !ok {
			order = append(order, f.Name)
		}
		byName[f.Name] = append(byName[f.Name], f.Position)
	}
	for _, name := range order {
		if positions := byName[name]; len(positions) > 1 {
			err := errDuplicateFragmentName(name, positions)
			err.Path = language.Path{language.PathName("fragment " + name)}
			ctx.Report(err)
		}
	}
}

// fragmentsAreFinite reports every fragment that spreads itself, directly or
// through other fragments.
type fragmentsAreFinite struct{ BaseVisitor }

func (fragmentsAreFinite) EnterFragmentDefinition(ctx *Context, def *language.FragmentDefinition) {
	if ctx.Fragment(def.Name) != def {
		return
	}
	cycle, ok := ctx.fragments.cycles[def.Name]
	if !ok {
		return
	}
	ctx.Report(errInfiniteLoop(def.Name, cycle, def.Position))
}

type spreadSite struct {
	name string
	pos  *language.Position
	path language.Path
}

// fragmentsAreUsed requires every spread fragment to be defined and every
// defined fragment to be reachable from some operation.
type fragmentsAreUsed struct {
	BaseVisitor
	spreads []spreadSite
}

func (r *fragmentsAreUsed) EnterFragmentSpread(ctx *Context, spread *language.FragmentSpread) {
	r.spreads = append(r.spreads, spreadSite{name: spread.Name, pos: spread.Position, path: ctx.Path()})
}

func (r *fragmentsAreUsed) LeaveDocument(ctx *Context, doc *language.QueryDocument) {
	for _, s := range r.spreads {
		if ctx.Fragment(s.name) == nil {
			err := errUndefinedFragment(s.name, s.pos)
			err.Path = s.path
			ctx.Report(err)
		}
	}
	used := map[string]bool{}
	for _, op := range doc.Operations {
		for _, name := range ctx.fragments.reachable(op) {
			used[name] = true
		}
	}
	for _, f := range doc.Fragments {
		if used[f.Name] || ctx.Fragment(f.Name) != f {
			continue
		}
		err := errUnusedFragment(f.Name, f.Position)
		err.Path = language.Path{language.PathName("fragment " + f.Name)}
		ctx.Report(err)
	}
}

// fragmentTypesExist rejects type conditions naming unknown types.
type fragmentTypesExist struct{ BaseVisitor }

func (fragmentTypesExist) EnterInlineFragment(ctx *Context, frag *language.InlineFragment) {
	if frag.TypeCondition == "" || ctx.Schema().Type(frag.TypeCondition) != nil {
		return
	}
	ctx.Report(errUndefinedFragmentType(frag.TypeCondition, frag.Position))
	ctx.SkipChildren()
}

func (fragmentTypesExist) EnterFragmentDefinition(ctx *Context, def *language.FragmentDefinition) {
	if ctx.Schema().Type(def.TypeCondition) != nil {
		return
	}
	ctx.Report(errUndefinedFragmentType(def.TypeCondition, def.Position))
	ctx.SkipChildren()
}

// fragmentsAreOnCompositeTypes rejects fragments on scalars, enums and input
// objects.
type fragmentsAreOnCompositeTypes struct{ BaseVisitor }

func (fragmentsAreOnCompositeTypes) EnterInlineFragment(ctx *Context, frag *language.InlineFragment) {
	if frag.TypeCondition == "" {
		return
	}
	if t := ctx.Schema().Type(frag.TypeCondition); t != nil && !t.IsComposite() {
		ctx.Report(errFragmentOnNonComposite(t.Name, frag.Position))
		ctx.SkipChildren()
	}
}

func (fragmentsAreOnCompositeTypes) EnterFragmentDefinition(ctx *Context, def *language.FragmentDefinition) {
	if t := ctx.Schema().Type(def.TypeCondition); t != nil && !t.IsComposite() {
		ctx.Report(errFragmentOnNonComposite(t.Name, def.Position))
		ctx.SkipChildren()
	}
}

// fragmentSpreadsArePossible rejects fragments whose type shares no concrete
// type with the selection set they are spread into.
type fragmentSpreadsArePossible struct{ BaseVisitor }

func (fragmentSpreadsArePossible) EnterInlineFragment(ctx *Context, frag *language.InlineFragment) {
	if frag.TypeCondition == "" {
		return
	}
	parent := ctx.ParentType()
	t := ctx.Schema().Type(frag.TypeCondition)
	if !parent.IsComposite() || !t.IsComposite() || ctx.typesOverlap(parent, t) {
		return
	}
	ctx.Report(errImpossibleSpread("", t.Name, parent.Name, frag.Position))
}

func (fragmentSpreadsArePossible) EnterFragmentSpread(ctx *Context, spread *language.FragmentSpread) {
	def := ctx.Fragment(spread.Name)
	if def == nil {
		return
	}
	parent := ctx.ParentType()
	t := ctx.Schema().Type(def.TypeCondition)
	if !parent.IsComposite() || !t.IsComposite() || ctx.typesOverlap(parent, t) {
		return
	}
	ctx.Report(errImpossibleSpread(spread.Name, t.Name, parent.Name, spread.Position))
}
