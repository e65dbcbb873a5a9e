package schema

import (
	"fmt"
	"math"
	"strconv"

	language "github.com/hanpama/querycheck/internal/language"
)

// LiteralErrorKind classifies why a literal does not fit its input type.
type LiteralErrorKind int

const (
	// LiteralMismatch is a value of the wrong shape or out of range.
	LiteralMismatch LiteralErrorKind = iota
	// LiteralNull is null in a non-null position.
	LiteralNull
	// LiteralUnknownField is an input object field the type does not declare.
	LiteralUnknownField
	// LiteralMissingField is an omitted required input object field.
	LiteralMissingField
)

// LiteralError describes the first problem found in a literal.
type LiteralError struct {
	Kind    LiteralErrorKind
	Type    *TypeRef
	Message string
}

func (e *LiteralError) Error() string { return e.Message }

// CheckLiteral reports whether value can be coerced to ref at validation time.
// Variables are accepted anywhere; whether their declared type fits is a
// separate question. Custom scalars accept any literal.
func (s *Schema) CheckLiteral(ref *TypeRef, value *language.Value) error {
	if ref == nil || value == nil {
		return nil
	}
	if value.Kind == language.Variable {
		return nil
	}
	if ref.IsNonNull() {
		if value.Kind == language.NullValue {
			return &LiteralError{Kind: LiteralNull, Type: ref, Message: fmt.Sprintf("null is not allowed for %s", ref)}
		}
		return s.CheckLiteral(ref.OfType, value)
	}
	if value.Kind == language.NullValue {
		return nil
	}
	if ref.Kind == TypeRefKindList {
		if value.Kind != language.ListValue {
			// A single item coerces to a list of one.
			return s.CheckLiteral(ref.OfType, value)
		}
		for _, c := range value.Children {
			if err := s.CheckLiteral(ref.OfType, c.Value); err != nil {
				return err
			}
		}
		return nil
	}

	t := s.Types[ref.Named]
	if t == nil {
		return nil
	}
	switch t.Kind {
	case TypeKindScalar:
		return checkScalar(t, ref, value)
	case TypeKindEnum:
		if value.Kind != language.EnumValue || t.EnumValue(value.Raw) == nil {
			return mismatch(ref, value)
		}
		return nil
	case TypeKindInputObject:
		return s.checkInputObject(t, ref, value)
	default:
		return mismatch(ref, value)
	}
}

func (s *Schema) checkInputObject(t *Type, ref *TypeRef, value *language.Value) error {
	if value.Kind != language.ObjectValue {
		return mismatch(ref, value)
	}
	for _, c := range value.Children {
		field := s.Argument(t, c.Name)
		if field == nil {
			return &LiteralError{Kind: LiteralUnknownField, Type: ref, Message: fmt.Sprintf("field %q is not defined by %s", c.Name, t.Name)}
		}
		if err := s.CheckLiteral(field.Type, c.Value); err != nil {
			return err
		}
	}
	for _, field := range t.InputFields {
		if field.IsRequired() && value.Children.ForName(field.Name) == nil {
			return &LiteralError{Kind: LiteralMissingField, Type: ref, Message: fmt.Sprintf("field %q of %s is required", field.Name, t.Name)}
		}
	}
	return nil
}

func checkScalar(t *Type, ref *TypeRef, value *language.Value) error {
	switch t.Name {
	case "Int":
		if value.Kind != language.IntValue {
			return mismatch(ref, value)
		}
		n, err := strconv.ParseInt(value.Raw, 10, 64)
		if err != nil || n > math.MaxInt32 || n < math.MinInt32 {
			return mismatch(ref, value)
		}
	case "Float":
		if value.Kind != language.IntValue && value.Kind != language.FloatValue {
			return mismatch(ref, value)
		}
		if _, err := strconv.ParseFloat(value.Raw, 64); err != nil {
			return mismatch(ref, value)
		}
	case "String":
		if value.Kind != language.StringValue && value.Kind != language.BlockValue {
			return mismatch(ref, value)
		}
	case "Boolean":
		if value.Kind != language.BooleanValue {
			return mismatch(ref, value)
		}
	case "ID":
		if value.Kind != language.StringValue && value.Kind != language.IntValue {
			return mismatch(ref, value)
		}
	}
	return nil
}

func mismatch(ref *TypeRef, value *language.Value) *LiteralError {
	return &LiteralError{
		Kind:    LiteralMismatch,
		Type:    ref,
		Message: fmt.Sprintf("%s is not a valid %s", language.PrintValue(value), ref),
	}
}

// literalToGo converts a constant literal to a plain Go value.
func literalToGo(value *language.Value) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.IntValue:
		iv, _ := strconv.Atoi(value.Raw)
		return iv
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.StringValue, language.BlockValue, language.EnumValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = literalToGo(c.Value)
		}
		return out
	case language.ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			m[f.Name] = literalToGo(f.Value)
		}
		return m
	default:
		return nil
	}
}
