package validation

import (
	"fmt"
	"strings"

	language "github.com/hanpama/querycheck/internal/language"
)

// Codes carried in Error.Extensions["code"]. Consumers match on these.
const (
	CodeUniquelyNamedOperations             = "uniquelyNamedOperations"
	CodeMissingQueryConfiguration           = "missingQueryConfiguration"
	CodeMissingMutationConfiguration        = "missingMutationConfiguration"
	CodeMissingSubscriptionConfiguration    = "missingSubscriptionConfiguration"
	CodeUndefinedField                      = "undefinedField"
	CodeSelectionMismatch                   = "selectionMismatch"
	CodeFieldConflict                       = "fieldConflict"
	CodeFragmentNotUnique                   = "fragmentNotUnique"
	CodeInfiniteLoop                        = "infiniteLoop"
	CodeUseAndDefineFragment                = "useAndDefineFragment"
	CodeUndefinedType                       = "undefinedType"
	CodeFragmentOnNonCompositeType          = "fragmentOnNonCompositeType"
	CodeCannotSpreadFragment                = "cannotSpreadFragment"
	CodeArgumentNotAccepted                 = "argumentNotAccepted"
	CodeArgumentNotUnique                   = "argumentNotUnique"
	CodeInputFieldNotUnique                 = "inputFieldNotUnique"
	CodeMissingRequiredArguments            = "missingRequiredArguments"
	CodeMissingRequiredInputObjectAttribute = "missingRequiredInputObjectAttribute"
	CodeArgumentLiteralsIncompatible        = "argumentLiteralsIncompatible"
	CodeInvalidOneOfInputObject             = "invalidOneOfInputObject"
	CodeUndefinedDirective                  = "undefinedDirective"
	CodeDirectiveCannotBeApplied            = "directiveCannotBeApplied"
	CodeDirectiveNotUniqueForLocation       = "directiveNotUniqueForLocation"
	CodeVariableNotUnique                   = "variableNotUnique"
	CodeVariableRequiresValidType           = "variableRequiresValidType"
	CodeDefaultValueInvalidType             = "defaultValueInvalidType"
	CodeVariableNotUsed                     = "variableNotUsed"
	CodeVariableNotDefined                  = "variableNotDefined"
	CodeVariableMismatch                    = "variableMismatch"
)

// Error is one validation finding.
type Error struct {
	Message    string
	Path       language.Path
	Locations  []language.Location
	Rule       string
	Extensions map[string]any
}

func (e *Error) Error() string { return e.Message }

// Code returns the taxonomy code of the finding.
func (e *Error) Code() string {
	code, _ := e.Extensions["code"].(string)
	return code
}

// GQLError converts the finding to the GraphQL wire error shape.
func (e *Error) GQLError() *language.Error {
	return &language.Error{
		Message:    e.Message,
		Path:       e.Path,
		Locations:  e.Locations,
		Extensions: e.Extensions,
		Rule:       e.Rule,
	}
}

// List is the result of a validation run. An empty list means the document
// may be executed.
type List []*Error

func (l List) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "\n")
}

func (l List) GQLErrors() language.ErrorList {
	out := make(language.ErrorList, len(l))
	for i, e := range l {
		out[i] = e.GQLError()
	}
	return out
}

// Messages lists the message of every finding, in order.
func (l List) Messages() []string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Message
	}
	return msgs
}

// InvariantError is raised, as a panic, when a rule meets a node it cannot
// have been written for. It is a bug, not a finding.
type InvariantError struct {
	Rule    string
	Message string
}

func (e *InvariantError) Error() string {
	if e.Rule == "" {
		return "validation invariant violated: " + e.Message
	}
	return fmt.Sprintf("validation invariant violated in %s: %s", e.Rule, e.Message)
}

func invariant(rule, format string, args ...any) *InvariantError {
	return &InvariantError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

func locations(positions ...*language.Position) []language.Location {
	out := make([]language.Location, 0, len(positions))
	for _, p := range positions {
		if p == nil {
			continue
		}
		out = append(out, language.Location{Line: p.Line, Column: p.Column})
	}
	return out
}
