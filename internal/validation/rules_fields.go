package validation

import (
	"strings"

	language "github.com/hanpama/querycheck/internal/language"
	"github.com/hanpama/querycheck/internal/schema"
)

// fieldsAreDefinedOnType rejects selections of fields the parent type does
// not declare.
type fieldsAreDefinedOnType struct{ BaseVisitor }

func (fieldsAreDefinedOnType) EnterField(ctx *Context, field *language.Field) {
	parent := ctx.ParentType()
	if parent == nil || ctx.FieldDefinition() != nil {
		return
	}
	if parent.Kind == schema.TypeKindUnion {
		ctx.Report(errSelectionOnUnion(parent.Name, field.Position))
	} else {
		var names []string
		for _, f := range ctx.Schema().Fields(parent) {
			names = append(names, f.Name)
		}
		ctx.Report(errUndefinedField(field.Name, parent.Name, ctx.didYouMean(field.Name, names), field.Position))
	}
	ctx.SkipChildren()
}

// fieldsHaveAppropriateSelections requires sub-selections on composite
// fields and forbids them on leaves.
type fieldsHaveAppropriateSelections struct{ BaseVisitor }

func (fieldsHaveAppropriateSelections) EnterField(ctx *Context, field *language.Field) {
	def := ctx.FieldDefinition()
	if def == nil {
		return
	}
	ret := ctx.Schema().Type(def.Type.GetNamedType())
	if ret == nil {
		return
	}
	switch {
	case ret.IsLeaf() && len(field.SelectionSet) > 0:
		kind := "scalars"
		if ret.Kind == schema.TypeKindEnum {
			kind = "enums"
		}
		ctx.Report(errSelectionsOnLeaf(kind, field.Name, ret.Name, selectionNames(field.SelectionSet), field.Position))
		ctx.SkipChildren()
	case ret.IsComposite() && len(field.SelectionSet) == 0:
		ctx.Report(errMissingSelections(field.Name, ret.Name, field.Position))
	}
}

func selectionNames(set language.SelectionSet) []string {
	names := make([]string, 0, len(set))
	for _, sel := range set {
		switch sel := sel.(type) {
		case *language.Field:
			names = append(names, sel.Name)
		case *language.InlineFragment:
			if sel.TypeCondition == "" {
				names = append(names, "...")
			} else {
				names = append(names, "... on "+sel.TypeCondition)
			}
		case *language.FragmentSpread:
			names = append(names, "..."+sel.Name)
		}
	}
	return names
}

// typeNamesWhere lists schema types matching keep, for suggestions.
func typeNamesWhere(ts TypeSystem, keep func(*schema.Type) bool) []string {
	var out []string
	for _, name := range ts.TypeNames() {
		if strings.HasPrefix(name, "__") {
			continue
		}
		if t := ts.Type(name); t != nil && keep(t) {
			out = append(out, name)
		}
	}
	return out
}
