package language

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

func ParseQuery(source string) (*QueryDocument, error) {
	return ParseQueryNamed("", source)
}

// ParseQueryNamed parses an executable document. name is reported in parse
// errors and kept on every node position.
func ParseQueryNamed(name, source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func ParseSchema(name, source string) (*SchemaDocument, error) {
	return ParseSchemaSource(&ast.Source{Name: name, Input: source})
}

func ParseSchemaSource(src *Source) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(src)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DocumentHash fingerprints the source text a document was parsed from.
// It returns "" for documents built by hand.
func DocumentHash(doc *QueryDocument) string {
	src := documentSource(doc)
	if src == nil {
		return ""
	}
	return SourceHash(src.Input)
}

// SourceHash fingerprints raw document text, parsed or not.
func SourceHash(text string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(text))
}

func documentSource(doc *QueryDocument) *Source {
	if doc == nil {
		return nil
	}
	if doc.Position != nil && doc.Position.Src != nil {
		return doc.Position.Src
	}
	for _, op := range doc.Operations {
		if op.Position != nil && op.Position.Src != nil {
			return op.Position.Src
		}
	}
	for _, f := range doc.Fragments {
		if f.Position != nil && f.Position.Src != nil {
			return f.Position.Src
		}
	}
	return nil
}

// PrintValue renders a literal in GraphQL syntax, with ", " between list items
// and object fields. ast.Value.String joins with a bare "," and quotes strings
// the Go way, neither of which matches diagnostic texts.
func PrintValue(v *Value) string {
	if v == nil {
		return ""
	}
	var b strings.Builder
	printValue(&b, v)
	return b.String()
}

func printValue(b *strings.Builder, v *Value) {
	switch v.Kind {
	case Variable:
		b.WriteByte('$')
		b.WriteString(v.Raw)
	case StringValue, BlockValue:
		writeString(b, v.Raw)
	case ListValue:
		b.WriteByte('[')
		for i, c := range v.Children {
			if i > 0 {
				b.WriteString(", ")
			}
			printValue(b, c.Value)
		}
		b.WriteByte(']')
	case ObjectValue:
		b.WriteByte('{')
		for i, c := range v.Children {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.Name)
			b.WriteString(": ")
			printValue(b, c.Value)
		}
		b.WriteByte('}')
	default:
		b.WriteString(v.Raw)
	}
}

// writeString quotes s as a GraphQL string literal. Control characters
// without a short escape become \uXXXX.
func writeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}

// OperationLabel names an operation the way diagnostics refer to it:
// "query Name", or "query" for an anonymous one.
func OperationLabel(op *OperationDefinition) string {
	kind := string(op.Operation)
	if kind == "" {
		kind = string(Query)
	}
	if op.Name == "" {
		return kind
	}
	return kind + " " + op.Name
}
