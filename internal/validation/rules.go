package validation

import (
	"fmt"
	"strings"
)

// Rule is a named validation check. New returns a fresh Visitor holding the
// rule's state for one run.
type Rule struct {
	Name string
	New  func() Visitor
}

func stateless(v Visitor) func() Visitor {
	return func() Visitor { return v }
}

var registry = []Rule{
	{Name: "OperationNamesAreValid", New: func() Visitor { return &operationNamesAreValid{names: map[string][]*operationRef{}} }},
	{Name: "RootTypeExists", New: stateless(rootTypeExists{})},
	{Name: "FieldsAreDefinedOnType", New: stateless(fieldsAreDefinedOnType{})},
	{Name: "FieldsHaveAppropriateSelections", New: stateless(fieldsHaveAppropriateSelections{})},
	{Name: "FieldsWillMerge", New: newFieldsWillMerge},
	{Name: "FragmentNamesAreUnique", New: func() Visitor { return &fragmentNamesAreUnique{} }},
	{Name: "FragmentsAreFinite", New: stateless(fragmentsAreFinite{})},
	{Name: "FragmentsAreUsed", New: func() Visitor { return &fragmentsAreUsed{} }},
	{Name: "FragmentTypesExist", New: stateless(fragmentTypesExist{})},
	{Name: "FragmentsAreOnCompositeTypes", New: stateless(fragmentsAreOnCompositeTypes{})},
	{Name: "FragmentSpreadsArePossible", New: stateless(fragmentSpreadsArePossible{})},
	{Name: "ArgumentsAreDefined", New: stateless(argumentsAreDefined{})},
	{Name: "ArgumentNamesAreUnique", New: stateless(argumentNamesAreUnique{})},
	{Name: "InputObjectNamesAreUnique", New: stateless(inputObjectNamesAreUnique{})},
	{Name: "RequiredArgumentsArePresent", New: stateless(requiredArgumentsArePresent{})},
	{Name: "RequiredInputObjectAttributesArePresent", New: stateless(requiredInputObjectAttributesArePresent{})},
	{Name: "ArgumentLiteralsAreCompatible", New: stateless(argumentLiteralsAreCompatible{})},
	{Name: "OneOfInputObjectsAreValid", New: stateless(oneOfInputObjectsAreValid{})},
	{Name: "DirectivesAreDefined", New: stateless(directivesAreDefined{})},
	{Name: "DirectivesAreInValidLocations", New: stateless(directivesAreInValidLocations{})},
	{Name: "UniqueDirectivesPerLocation", New: stateless(uniqueDirectivesPerLocation{})},
	{Name: "VariableNamesAreUnique", New: stateless(variableNamesAreUnique{})},
	{Name: "VariablesAreInputTypes", New: stateless(variablesAreInputTypes{})},
	{Name: "VariableDefaultValuesAreCorrectlyTyped", New: stateless(variableDefaultValuesAreCorrectlyTyped{})},
	{Name: "VariablesAreUsedAndDefined", New: func() Visitor { return newVariablesAreUsedAndDefined() }},
	{Name: "VariableUsagesAreAllowed", New: func() Visitor { return newVariableUsagesAreAllowed() }},
}

// RuleNames lists every registered rule in the order rules run.
func RuleNames() []string {
	names := make([]string, len(registry))
	for i, r := range registry {
		names[i] = r.Name
	}
	return names
}

func selectRules(allow, deny []string) ([]Rule, error) {
	known := map[string]bool{}
	for _, r := range registry {
		known[r.Name] = true
	}
	var unknown []string
	for _, name := range append(append([]string(nil), allow...), deny...) {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("validation: unknown rules: %s", strings.Join(unknown, ", "))
	}

	allowed := toSet(allow)
	denied := toSet(deny)
	var out []Rule
	for _, r := range registry {
		if len(allowed) > 0 && !allowed[r.Name] {
			continue
		}
		if denied[r.Name] {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
