package schema

import (
	"fmt"

	language "github.com/hanpama/querycheck/internal/language"
)

// Violation is a problem found while assembling a schema from SDL.
type Violation struct {
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "schema violations found:\n"
	for _, v := range e {
		line := "- " + v.Message
		if v.File != "" {
			line += fmt.Sprintf(" %s:%d:%d", v.File, v.Line, v.Column)
		}
		msg += line + "\n"
	}
	return msg
}

func violationWithPosition(message string, pos *language.Position) *Violation {
	v := &Violation{Message: message}
	if pos == nil {
		return v
	}
	if pos.Src != nil {
		v.File = pos.Src.Name
	}
	v.Line = pos.Line
	v.Column = pos.Column
	return v
}

// Keep messages stable; tests match on them.

func violationDuplicateType(name string, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Duplicate type %q", name), pos)
}

func violationDuplicateDirective(name string, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Duplicate directive @%s", name), pos)
}

func violationExtensionOfUnknownType(name string, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Cannot extend type %q because it is not defined", name), pos)
}

func violationExtensionKindMismatch(name string, want, got language.DefinitionKind, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Cannot extend %s %q with a %s extension", want, name, got), pos)
}

func violationUnknownType(name, where string, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Unknown type %q referenced by %s", name, where), pos)
}

func violationUnknownInterface(name, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Type %q implements unknown interface %q", typeName, name), pos)
}

func violationNotAnInterface(name, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Type %q implements %q which is not an interface", typeName, name), pos)
}

func violationUnionMemberNotObject(member, union string, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Union %q member %q must be an object type", union, member), pos)
}

func violationRootTypeNotObject(op language.Operation, name string, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Root %s type %q must be a defined object type", op, name), pos)
}

func violationDuplicateField(kind, fieldName, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Duplicate field %q found in %s %q", fieldName, kind, typeName), pos)
}
