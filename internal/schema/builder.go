package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	language "github.com/hanpama/querycheck/internal/language"
)

// BuildFromSDL parses SDL string and returns the corresponding Schema.
func BuildFromSDL(sdl string) (*Schema, error) {
	return BuildFromSources(&language.Source{Name: "schema.graphql", Input: sdl})
}

// LoadFiles builds one schema out of every SDL file matched by patterns.
// Matches are read in lexical order so extensions apply deterministically.
func LoadFiles(patterns ...string) (*Schema, error) {
	var sources []*language.Source
	seen := map[string]bool{}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("schema pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("schema pattern %q matched no files", pattern)
		}
		sort.Strings(matches)
		for _, path := range matches {
			if seen[path] {
				continue
			}
			seen[path] = true
			content, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read schema: %w", err)
			}
			sources = append(sources, &language.Source{Name: path, Input: string(content)})
		}
	}
	return BuildFromSources(sources...)
}

// BuildFromSources parses every source on top of the built-in definitions and
// builds the merged schema.
func BuildFromSources(sources ...*language.Source) (*Schema, error) {
	doc, err := language.ParseSchemaSource(builtinSource())
	if err != nil {
		return nil, fmt.Errorf("builtin schema: %w", err)
	}
	for _, src := range sources {
		d, err := language.ParseSchemaSource(src)
		if err != nil {
			return nil, err
		}
		doc.Merge(d)
	}
	return BuildFromDocument(doc)
}

// BuildFromDocument builds a Schema from a parsed SDL document, folding every
// extension into its base definition. doc is not modified.
func BuildFromDocument(doc *language.SchemaDocument) (*Schema, error) {
	b := &builder{
		s:    NewSchema(""),
		defs: map[string]*language.Definition{},
		exts: map[string][]*language.Definition{},
	}
	b.collect(doc)
	for _, name := range b.order {
		b.s.AddType(b.buildType(b.defs[name], b.exts[name]))
	}
	for _, def := range doc.Directives {
		b.addDirective(def)
	}
	b.setRoots(doc)
	b.linkPossibleTypes()
	b.checkReferences()

	if len(b.violations) > 0 {
		return nil, b.violations
	}
	return b.s, nil
}

type builder struct {
	s          *Schema
	defs       map[string]*language.Definition
	exts       map[string][]*language.Definition
	order      []string
	violations ValidationError
}

func (b *builder) collect(doc *language.SchemaDocument) {
	for _, def := range doc.Definitions {
		if prev, dup := b.defs[def.Name]; dup {
			if prev.BuiltIn && !def.BuiltIn {
				b.defs[def.Name] = def
				continue
			}
			b.violations = append(b.violations, violationDuplicateType(def.Name, def.Position))
			continue
		}
		b.defs[def.Name] = def
		b.order = append(b.order, def.Name)
	}
	for _, ext := range doc.Extensions {
		base, ok := b.defs[ext.Name]
		if !ok {
			b.violations = append(b.violations, violationExtensionOfUnknownType(ext.Name, ext.Position))
			continue
		}
		if base.Kind != ext.Kind {
			b.violations = append(b.violations, violationExtensionKindMismatch(ext.Name, base.Kind, ext.Kind, ext.Position))
			continue
		}
		b.exts[ext.Name] = append(b.exts[ext.Name], ext)
	}
}

func (b *builder) buildType(def *language.Definition, exts []*language.Definition) *Type {
	t := NewType(def.Name, TypeKind(def.Kind), def.Description)
	t.BuiltIn = def.BuiltIn

	seen := map[string]bool{}
	parts := append([]*language.Definition{def}, exts...)
	for _, part := range parts {
		for _, iface := range part.Interfaces {
			t.AddInterface(iface)
		}
		switch part.Kind {
		case language.Object, language.Interface:
			for _, f := range part.Fields {
				if seen[f.Name] {
					b.violations = append(b.violations, violationDuplicateField(string(part.Kind), f.Name, def.Name, f.Position))
					continue
				}
				seen[f.Name] = true
				t.AddField(buildField(f))
			}
		case language.InputObject:
			for _, f := range part.Fields {
				if seen[f.Name] {
					b.violations = append(b.violations, violationDuplicateField(string(part.Kind), f.Name, def.Name, f.Position))
					continue
				}
				seen[f.Name] = true
				t.AddInputField(buildInputValue(f.Name, f.Description, f.Type, f.DefaultValue, f.Directives))
			}
		case language.Union:
			for _, member := range part.Types {
				t.AddPossibleType(member)
			}
		case language.Enum:
			for _, v := range part.EnumValues {
				ev := NewEnumValue(v.Name, v.Description)
				if reason, ok := deprecation(v.Directives); ok {
					ev.Deprecate(reason)
				}
				t.AddEnumValue(ev)
			}
		}
		if part.Directives.ForName("oneOf") != nil {
			t.SetOneOf(true)
		}
		if d := part.Directives.ForName("specifiedBy"); d != nil {
			if url := d.Arguments.ForName("url"); url != nil && url.Value != nil {
				t.SetSpecifiedBy(url.Value.Raw)
			}
		}
	}
	return t
}

func buildField(def *language.FieldDefinition) *Field {
	f := NewField(def.Name, def.Description, TypeRefFromAST(def.Type))
	if reason, ok := deprecation(def.Directives); ok {
		f.Deprecate(reason)
	}
	for _, arg := range def.Arguments {
		f.AddArgument(buildInputValue(arg.Name, arg.Description, arg.Type, arg.DefaultValue, arg.Directives))
	}
	return f
}

func buildInputValue(name, description string, typ *language.Type, def *language.Value, directives language.DirectiveList) *InputValue {
	in := NewInputValue(name, description, TypeRefFromAST(typ))
	if def != nil {
		in.SetDefault(literalToGo(def))
	}
	if reason, ok := deprecation(directives); ok {
		in.Deprecate(reason)
	}
	return in
}

func deprecation(directives language.DirectiveList) (string, bool) {
	d := directives.ForName("deprecated")
	if d == nil {
		return "", false
	}
	if reason := d.Arguments.ForName("reason"); reason != nil && reason.Value != nil {
		return reason.Value.Raw, true
	}
	return "No longer supported", true
}

func (b *builder) addDirective(def *language.DirectiveDefinition) {
	builtIn := def.Position != nil && def.Position.Src != nil && def.Position.Src.BuiltIn
	if prev := b.s.Directives[def.Name]; prev != nil && !prev.BuiltIn {
		b.violations = append(b.violations, violationDuplicateDirective(def.Name, def.Position))
		return
	}
	d := NewDirective(def.Name, def.Description).SetRepeatable(def.IsRepeatable)
	d.BuiltIn = builtIn
	for _, loc := range def.Locations {
		d.AddLocation(string(loc))
	}
	for _, arg := range def.Arguments {
		d.AddArgument(buildInputValue(arg.Name, arg.Description, arg.Type, arg.DefaultValue, arg.Directives))
	}
	b.s.AddDirective(d)
}

func (b *builder) setRoots(doc *language.SchemaDocument) {
	defs := append(append([]*language.SchemaDefinition{}, doc.Schema...), doc.SchemaExtension...)
	if len(defs) == 0 {
		for op, name := range map[language.Operation]string{
			language.Query:        "Query",
			language.Mutation:     "Mutation",
			language.Subscription: "Subscription",
		} {
			if t := b.s.Types[name]; t != nil && t.Kind == TypeKindObject {
				b.setRoot(op, name)
			}
		}
		return
	}
	if len(doc.Schema) > 0 {
		b.s.Description = doc.Schema[0].Description
	}
	for _, sd := range defs {
		for _, ot := range sd.OperationTypes {
			if t := b.s.Types[ot.Type]; t == nil || t.Kind != TypeKindObject {
				b.violations = append(b.violations, violationRootTypeNotObject(ot.Operation, ot.Type, ot.Position))
				continue
			}
			b.setRoot(ot.Operation, ot.Type)
		}
	}
}

func (b *builder) setRoot(op language.Operation, name string) {
	switch op {
	case language.Query:
		b.s.SetQueryType(name)
	case language.Mutation:
		b.s.SetMutationType(name)
	case language.Subscription:
		b.s.SetSubscriptionType(name)
	}
}

// linkPossibleTypes records every object type on the interfaces it implements
// and checks union membership.
func (b *builder) linkPossibleTypes() {
	for _, name := range b.order {
		t := b.s.Types[name]
		switch t.Kind {
		case TypeKindObject, TypeKindInterface:
			for _, iname := range t.Interfaces {
				iface := b.s.Types[iname]
				pos := b.defs[name].Position
				if iface == nil {
					b.violations = append(b.violations, violationUnknownInterface(iname, name, pos))
					continue
				}
				if iface.Kind != TypeKindInterface {
					b.violations = append(b.violations, violationNotAnInterface(iname, name, pos))
					continue
				}
				if t.Kind == TypeKindObject {
					iface.AddPossibleType(name)
				}
			}
		case TypeKindUnion:
			for _, member := range t.PossibleTypes {
				if mt := b.s.Types[member]; mt == nil || mt.Kind != TypeKindObject {
					b.violations = append(b.violations, violationUnionMemberNotObject(member, name, b.defs[name].Position))
				}
			}
		}
	}
}

func (b *builder) checkReferences() {
	check := func(ref *TypeRef, where string, pos *language.Position) {
		if name := ref.GetNamedType(); b.s.Types[name] == nil {
			b.violations = append(b.violations, violationUnknownType(name, where, pos))
		}
	}
	for _, name := range b.order {
		t := b.s.Types[name]
		pos := b.defs[name].Position
		for _, f := range t.Fields {
			check(f.Type, name+"."+f.Name, pos)
			for _, a := range f.Arguments {
				check(a.Type, name+"."+f.Name+"("+a.Name+":)", pos)
			}
		}
		for _, f := range t.InputFields {
			check(f.Type, name+"."+f.Name, pos)
		}
	}
	for _, name := range b.s.DirectiveNames() {
		d := b.s.Directives[name]
		for _, a := range d.Arguments {
			check(a.Type, "@"+name+"("+a.Name+":)", nil)
		}
	}
}
