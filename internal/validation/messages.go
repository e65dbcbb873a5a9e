package validation

import (
	"fmt"
	"strconv"
	"strings"

	language "github.com/hanpama/querycheck/internal/language"
)

// Finding constructors. Messages and extension keys are matched on by
// clients; keep them stable.

func newError(code, message string, ext map[string]any, positions ...*language.Position) *Error {
	if ext == nil {
		ext = map[string]any{}
	}
	ext["code"] = code
	return &Error{Message: message, Locations: locations(positions...), Extensions: ext}
}

func errAnonymousOperationNotAlone(positions []*language.Position) *Error {
	return newError(CodeUniquelyNamedOperations,
		"Operation name is required when multiple operations are present",
		nil, positions...)
}

func errDuplicateOperationName(name string, positions []*language.Position) *Error {
	return newError(CodeUniquelyNamedOperations,
		fmt.Sprintf("Operation name %q must be unique", name),
		map[string]any{"operationName": name}, positions...)
}

func errMissingRootType(op language.Operation, pos *language.Position) *Error {
	code, plural := CodeMissingQueryConfiguration, "queries"
	switch op {
	case language.Mutation:
		code, plural = CodeMissingMutationConfiguration, "mutations"
	case language.Subscription:
		code, plural = CodeMissingSubscriptionConfiguration, "subscriptions"
	}
	return newError(code, "Schema is not configured for "+plural, nil, pos)
}

func errUndefinedField(field, typeName, suggestion string, pos *language.Position) *Error {
	return newError(CodeUndefinedField,
		fmt.Sprintf("Field '%s' doesn't exist on type '%s'%s", field, typeName, suggestion),
		map[string]any{"typeName": typeName, "fieldName": field}, pos)
}

func errSelectionOnUnion(union string, pos *language.Position) *Error {
	return newError(CodeSelectionMismatch,
		fmt.Sprintf("Selections can't be made directly on unions (see selections on %s)", union),
		map[string]any{"nodeName": union}, pos)
}

func errSelectionsOnLeaf(kind, field, typeName string, selections []string, pos *language.Position) *Error {
	quoted := make([]string, len(selections))
	for i, s := range selections {
		quoted[i] = strconv.Quote(s)
	}
	nodeName := fmt.Sprintf("field '%s'", field)
	return newError(CodeSelectionMismatch,
		fmt.Sprintf("Selections can't be made on %s (%s returns %s but has selections [%s])",
			kind, nodeName, typeName, strings.Join(quoted, ", ")),
		map[string]any{"nodeName": nodeName}, pos)
}

func errMissingSelections(field, typeName string, pos *language.Position) *Error {
	nodeName := fmt.Sprintf("field '%s'", field)
	return newError(CodeSelectionMismatch,
		fmt.Sprintf("Field must have selections (%s returns %s but has no selections. Did you mean '%s { ... }'?)",
			nodeName, typeName, field),
		map[string]any{"nodeName": nodeName}, pos)
}

func errDuplicateFragmentName(name string, positions []*language.Position) *Error {
	return newError(CodeFragmentNotUnique,
		fmt.Sprintf("Fragment name %q must be unique", name),
		map[string]any{"fragmentName": name}, positions...)
}

func errInfiniteLoop(name string, cycle []string, pos *language.Position) *Error {
	return newError(CodeInfiniteLoop,
		fmt.Sprintf("Fragment %s contains an infinite loop", name),
		map[string]any{"fragmentName": name, "cycle": cycle}, pos)
}

func errUndefinedFragment(name string, pos *language.Position) *Error {
	return newError(CodeUseAndDefineFragment,
		fmt.Sprintf("Fragment %s was used, but not defined", name),
		map[string]any{"fragmentName": name}, pos)
}

func errUnusedFragment(name string, pos *language.Position) *Error {
	return newError(CodeUseAndDefineFragment,
		fmt.Sprintf("Fragment %s was defined, but not used", name),
		map[string]any{"fragmentName": name}, pos)
}

func errUndefinedFragmentType(typeName string, pos *language.Position) *Error {
	return newError(CodeUndefinedType,
		fmt.Sprintf("No such type %s, so it can't be a fragment condition", typeName),
		map[string]any{"typeName": typeName}, pos)
}

func errFragmentOnNonComposite(typeName string, pos *language.Position) *Error {
	return newError(CodeFragmentOnNonCompositeType,
		fmt.Sprintf("Invalid fragment on type %s (must be Union, Interface or Object)", typeName),
		map[string]any{"typeName": typeName}, pos)
}

// errImpossibleSpread reports a fragment whose type can never match its
// surroundings. name is empty for inline fragments.
func errImpossibleSpread(name, typeName, parent string, pos *language.Position) *Error {
	msg := fmt.Sprintf("Fragment on %s can't be spread inside %s", typeName, parent)
	fragmentName := "unknown"
	if name != "" {
		msg = fmt.Sprintf("Fragment %s on %s can't be spread inside %s", name, typeName, parent)
		fragmentName = name
	}
	return newError(CodeCannotSpreadFragment, msg,
		map[string]any{"fragmentName": fragmentName, "type": typeName, "parent": parent}, pos)
}

func errArgumentNotAccepted(kind, owner, arg, suggestion string, pos *language.Position) *Error {
	return newError(CodeArgumentNotAccepted,
		fmt.Sprintf("%s '%s' doesn't accept argument '%s'%s", kind, owner, arg, suggestion),
		map[string]any{"name": owner, "typeName": kind, "argumentName": arg}, pos)
}

func errDuplicateArgument(name string, positions []*language.Position) *Error {
	return newError(CodeArgumentNotUnique,
		fmt.Sprintf("There can be only one argument named %q", name),
		map[string]any{"name": name}, positions...)
}

func errDuplicateInputField(name string, positions []*language.Position) *Error {
	return newError(CodeInputFieldNotUnique,
		fmt.Sprintf("There can be only one input field named %q", name),
		map[string]any{"name": name}, positions...)
}

func errMissingRequiredArguments(kind, owner string, missing []string, pos *language.Position) *Error {
	joined := strings.Join(missing, ", ")
	return newError(CodeMissingRequiredArguments,
		fmt.Sprintf("%s '%s' is missing required arguments: %s", kind, owner, joined),
		map[string]any{"className": kind, "name": owner, "arguments": joined}, pos)
}

func errMissingInputObjectAttribute(field, typeName, fieldType string, pos *language.Position) *Error {
	return newError(CodeMissingRequiredInputObjectAttribute,
		fmt.Sprintf("Argument '%s' on InputObject '%s' is required. Expected type %s", field, typeName, fieldType),
		map[string]any{"argumentName": field, "argumentType": fieldType, "inputObjectType": typeName}, pos)
}

func errIncompatibleLiteral(kind, owner, arg, literal, typeName string, pos *language.Position) *Error {
	return newError(CodeArgumentLiteralsIncompatible,
		fmt.Sprintf("Argument '%s' on %s '%s' has an invalid value (%s). Expected type '%s'.", arg, kind, owner, literal, typeName),
		map[string]any{"typeName": kind, "argumentName": arg}, pos)
}

func errOneOfKeyCount(typeName string, pos *language.Position) *Error {
	return newError(CodeInvalidOneOfInputObject,
		fmt.Sprintf("OneOf Input Object '%s' must specify exactly one key.", typeName),
		map[string]any{"inputObjectType": typeName}, pos)
}

func errOneOfNullValue(typeName, field string, pos *language.Position) *Error {
	return newError(CodeInvalidOneOfInputObject,
		fmt.Sprintf("Argument '%s.%s' must be non-null.", typeName, field),
		map[string]any{"inputObjectType": typeName, "argumentName": field}, pos)
}

func errOneOfNullableVariable(typeName, variable string, pos *language.Position) *Error {
	return newError(CodeInvalidOneOfInputObject,
		fmt.Sprintf("Variable '%s' must be non-nullable to be used for OneOf Input Object '%s'.", variable, typeName),
		map[string]any{"inputObjectType": typeName, "variableName": variable}, pos)
}

func errUndefinedDirective(name, suggestion string, pos *language.Position) *Error {
	return newError(CodeUndefinedDirective,
		fmt.Sprintf("Directive @%s is not defined%s", name, suggestion),
		map[string]any{"directiveName": name}, pos)
}

func errMisplacedDirective(name, target string, allowed []string, pos *language.Position) *Error {
	return newError(CodeDirectiveCannotBeApplied,
		fmt.Sprintf("'@%s' can't be applied to %s (allowed: %s)", name, target, strings.Join(allowed, ", ")),
		map[string]any{"targetName": target, "name": name}, pos)
}

func errRepeatedDirective(name string, positions []*language.Position) *Error {
	return newError(CodeDirectiveNotUniqueForLocation,
		fmt.Sprintf("The directive %q can only be used once at this location.", name),
		map[string]any{"directiveName": name}, positions...)
}

func errDuplicateVariable(name string, positions []*language.Position) *Error {
	return newError(CodeVariableNotUnique,
		fmt.Sprintf("There can only be one variable named %q", name),
		map[string]any{"variableName": name}, positions...)
}

func errUndefinedVariableType(typeName, variable, suggestion string, pos *language.Position) *Error {
	return newError(CodeVariableRequiresValidType,
		fmt.Sprintf("%s isn't a defined input type (on $%s)%s", typeName, variable, suggestion),
		map[string]any{"typeName": typeName, "variableName": variable}, pos)
}

func errNonInputVariableType(typeName, variable string, pos *language.Position) *Error {
	return newError(CodeVariableRequiresValidType,
		fmt.Sprintf("%s isn't a valid input type (on $%s)", typeName, variable),
		map[string]any{"typeName": typeName, "variableName": variable}, pos)
}

func errBadDefaultValue(variable, typeName string, pos *language.Position) *Error {
	return newError(CodeDefaultValueInvalidType,
		fmt.Sprintf("Default value for $%s doesn't match type %s", variable, typeName),
		map[string]any{"variableName": variable, "typeName": typeName}, pos)
}

func errUnusedVariable(variable, operation string, pos *language.Position) *Error {
	return newError(CodeVariableNotUsed,
		fmt.Sprintf("Variable $%s is declared by %s but not used", variable, operation),
		map[string]any{"variableName": variable}, pos)
}

func errUndeclaredVariable(variable, operation string, positions []*language.Position) *Error {
	return newError(CodeVariableNotDefined,
		fmt.Sprintf("Variable $%s is used by %s but not declared", variable, operation),
		map[string]any{"variableName": variable}, positions...)
}

func errVariableMismatch(kind, variable, argument, varType, argType string, pos *language.Position) *Error {
	return newError(CodeVariableMismatch,
		fmt.Sprintf("%s on variable $%s and argument %s (%s / %s)", kind, variable, argument, varType, argType),
		map[string]any{"variableName": variable, "typeName": varType, "argumentName": argument, "errorMessage": kind}, pos)
}

// operationName is how variable diagnostics name an operation:
// its name, or "anonymous query" and the like.
func operationName(op *language.OperationDefinition) string {
	if op.Name != "" {
		return op.Name
	}
	kind := string(op.Operation)
	if kind == "" {
		kind = string(language.Query)
	}
	return "anonymous " + kind
}

var locationTargets = map[string]string{
	string(language.LocationQuery):              "queries",
	string(language.LocationMutation):           "mutations",
	string(language.LocationSubscription):       "subscriptions",
	string(language.LocationField):              "fields",
	string(language.LocationFragmentDefinition): "fragment definitions",
	string(language.LocationFragmentSpread):     "fragment spreads",
	string(language.LocationInlineFragment):     "inline fragments",
	string(language.LocationVariableDefinition): "variable definitions",
}

// locationTarget renders a directive location in messages, e.g. "fields".
func locationTarget(loc string) string {
	if t, ok := locationTargets[loc]; ok {
		return t
	}
	return strings.ToLower(strings.ReplaceAll(loc, "_", " ")) + "s"
}
