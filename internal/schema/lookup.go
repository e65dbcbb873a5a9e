package schema

import (
	"sort"

	language "github.com/hanpama/querycheck/internal/language"
)

// Meta-fields every schema answers without declaring them.
var (
	typenameField = NewField("__typename", "The name of the current Object type at runtime.", NonNullType(NamedType("String")))
	schemaField   = NewField("__schema", "Access the current type schema of this server.", NonNullType(NamedType("__Schema")))
	typeField     = NewField("__type", "Request the type information of a single type.", NamedType("__Type")).
			AddArgument(NewInputValue("name", "", NonNullType(NamedType("String"))))
)

// Type returns the named type, or nil.
func (s *Schema) Type(name string) *Type { return s.Types[name] }

// Directive returns the named directive definition, or nil.
func (s *Schema) Directive(name string) *Directive { return s.Directives[name] }

// RootType returns the type operations of kind op start from, or nil when the
// schema is not configured for op.
func (s *Schema) RootType(op language.Operation) *Type {
	switch op {
	case language.Mutation:
		return s.GetMutationType()
	case language.Subscription:
		return s.GetSubscriptionType()
	default:
		return s.GetQueryType()
	}
}

// Field looks up a selectable field of owner, including __typename on every
// composite type and __schema / __type on the query root.
func (s *Schema) Field(owner *Type, name string) *Field {
	if !owner.IsComposite() {
		return nil
	}
	switch name {
	case typenameField.Name:
		return typenameField
	case schemaField.Name, typeField.Name:
		if owner.Name != s.QueryType || s.Types["__Schema"] == nil {
			return nil
		}
		if name == schemaField.Name {
			return schemaField
		}
		return typeField
	}
	for _, f := range owner.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Fields lists the declared fields of owner. Unions have none.
func (s *Schema) Fields(owner *Type) []*Field {
	if owner == nil {
		return nil
	}
	return owner.Fields
}

func (s *Schema) Argument(owner ArgumentOwner, name string) *InputValue {
	if owner == nil {
		return nil
	}
	for _, a := range owner.ArgumentDefinitions() {
		if a.Name == name {
			return a
		}
	}
	return nil
}

func (s *Schema) Arguments(owner ArgumentOwner) []*InputValue {
	if owner == nil {
		return nil
	}
	return owner.ArgumentDefinitions()
}

// PossibleTypes returns the concrete object types t may resolve to at runtime,
// sorted by name. An object type's only possible type is itself.
func (s *Schema) PossibleTypes(t *Type) []*Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case TypeKindObject:
		return []*Type{t}
	case TypeKindInterface, TypeKindUnion:
		out := make([]*Type, 0, len(t.PossibleTypes))
		for _, name := range t.PossibleTypes {
			if pt := s.Types[name]; pt != nil {
				out = append(out, pt)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out
	default:
		return nil
	}
}

// TypeNames lists all type names in sorted order.
func (s *Schema) TypeNames() []string {
	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DirectiveNames lists all directive names in sorted order.
func (s *Schema) DirectiveNames() []string {
	names := make([]string, 0, len(s.Directives))
	for name := range s.Directives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TypeRefFromAST converts a type reference written in a document.
func TypeRefFromAST(t *language.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var ref *TypeRef
	if t.Elem != nil {
		ref = ListType(TypeRefFromAST(t.Elem))
	} else {
		ref = NamedType(t.NamedType)
	}
	if t.NonNull {
		ref = NonNullType(ref)
	}
	return ref
}
