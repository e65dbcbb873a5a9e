package validation

import (
	language "github.com/hanpama/querycheck/internal/language"
)

// directivesAreDefined rejects directives the schema does not define.
type directivesAreDefined struct{ BaseVisitor }

func (directivesAreDefined) EnterDirective(ctx *Context, dir *language.Directive, _ language.DirectiveLocation) {
	if ctx.DirectiveDefinition() != nil {
		return
	}
	ctx.Report(errUndefinedDirective(dir.Name, ctx.didYouMean(dir.Name, ctx.Schema().DirectiveNames()), dir.Position))
}

// directivesAreInValidLocations rejects directives applied where their
// definition does not allow.
type directivesAreInValidLocations struct{ BaseVisitor }

func (directivesAreInValidLocations) EnterDirective(ctx *Context, dir *language.Directive, loc language.DirectiveLocation) {
	def := ctx.DirectiveDefinition()
	if def == nil || def.HasLocation(string(loc)) {
		return
	}
	allowed := make([]string, len(def.Locations))
	for i, l := range def.Locations {
		allowed[i] = locationTarget(l)
	}
	ctx.Report(errMisplacedDirective(dir.Name, locationTarget(string(loc)), allowed, dir.Position))
}

// uniqueDirectivesPerLocation rejects non-repeatable directives applied more
// than once to the same node.
type uniqueDirectivesPerLocation struct{ BaseVisitor }

func (uniqueDirectivesPerLocation) EnterOperation(ctx *Context, op *language.OperationDefinition) {
	reportRepeatedDirectives(ctx, op.Directives)
}

func (uniqueDirectivesPerLocation) EnterFragmentDefinition(ctx *Context, def *language.FragmentDefinition) {
	reportRepeatedDirectives(ctx, def.Directives)
}

func (uniqueDirectivesPerLocation) EnterVariableDefinition(ctx *Context, def *language.VariableDefinition) {
	reportRepeatedDirectives(ctx, def.Directives)
}

func (uniqueDirectivesPerLocation) EnterField(ctx *Context, field *language.Field) {
	reportRepeatedDirectives(ctx, field.Directives)
}

func (uniqueDirectivesPerLocation) EnterInlineFragment(ctx *Context, frag *language.InlineFragment) {
	reportRepeatedDirectives(ctx, frag.Directives)
}

func (uniqueDirectivesPerLocation) EnterFragmentSpread(ctx *Context, spread *language.FragmentSpread) {
	reportRepeatedDirectives(ctx, spread.Directives)
}

func reportRepeatedDirectives(ctx *Context, dirs language.DirectiveList) {
	var order []string
	byName := map[string][]*language.Position{}
	for _, d := range dirs {
		def := ctx.Schema().Directive(d.Name)
		if def == nil || def.IsRepeatable {
			continue
		}
		if _, ok := byName[d.Name]; !ok {
			order = append(order, d.Name)
		}
		byName[d.Name] = append(byName[d.Name], d.Position)
	}
	for _, name := range order {
		if positions := byName[name]; len(positions) > 1 {
			ctx.Report(errRepeatedDirective(name, positions))
		}
	}
}
