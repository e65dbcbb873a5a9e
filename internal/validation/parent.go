package validation

import (
	language "github.com/hanpama/querycheck/internal/language"
	"github.com/hanpama/querycheck/internal/schema"
)

// Parent is the node an argument or value hangs off. The set of parents is
// closed; rules switch over it and treat anything else as an invariant
// violation.
type Parent interface {
	isParent()
}

// FieldParent owns the arguments of a field selection. Def is nil when the
// field is not defined on its parent type.
type FieldParent struct {
	Node *language.Field
	Def  *schema.Field
}

// DirectiveParent owns the arguments of an applied directive.
type DirectiveParent struct {
	Node *language.Directive
	Def  *schema.Directive
}

// InputObjectParent owns the fields of an input object literal, which are
// walked like arguments. Def is nil when the expected type is unknown or not
// an input object.
type InputObjectParent struct {
	Node *language.Value
	Def  *schema.Type
}

// ArgumentParent owns a value. Values nested in lists keep the argument they
// appear under.
type ArgumentParent struct {
	Node   *language.Argument
	Def    *schema.InputValue
	Parent Parent
}

func (FieldParent) isParent()       {}
func (DirectiveParent) isParent()   {}
func (InputObjectParent) isParent() {}
func (ArgumentParent) isParent()    {}

// describeParent names an argument owner the way messages refer to it:
// ("Field", "name"), ("Directive", "include") or ("InputObject", "PetInput").
// ok is false when the owner itself is undefined.
func describeParent(rule string, p Parent) (kind, name string, ok bool) {
	switch p := p.(type) {
	case FieldParent:
		return "Field", p.Node.Name, p.Def != nil
	case DirectiveParent:
		return "Directive", p.Node.Name, p.Def != nil
	case InputObjectParent:
		if p.Def == nil {
			return "InputObject", "", false
		}
		return "InputObject", p.Def.Name, true
	case ArgumentParent:
		return "Argument", p.Node.Name, p.Def != nil
	default:
		panic(invariant(rule, "unexpected parent %T", p))
	}
}
