package validation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	language "github.com/hanpama/querycheck/internal/language"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestValidateScenarios(t *testing.T) {
	t.Run("aliased fields with different names conflict", func(t *testing.T) {
		errs := validate(t, petSchemaSDL, `{ dog { a: name a: nickname } }`)
		require.Len(t, errs, 1)
		assert.Equal(t, CodeFieldConflict, errs[0].Code())
		assert.Equal(t, "Field 'a' has a field conflict: name or nickname?", errs[0].Message)
	})

	t.Run("exclusive type conditions never conflict", func(t *testing.T) {
		errs := validate(t, petSchemaSDL, `{ animal { ... on Dog { a: name } ... on Cat { a: nickname } } }`)
		require.Empty(t, errs)
	})

	t.Run("self spreading fragment reports one cycle", func(t *testing.T) {
		errs := validate(t, petSchemaSDL, `{ dog { ...F } } fragment F on Dog { name ...F }`)
		require.Len(t, errs, 1)
		assert.Equal(t, CodeInfiniteLoop, errs[0].Code())
		assert.Equal(t, "Fragment F contains an infinite loop", errs[0].Message)
		assert.Equal(t, []string{"F", "F"}, errs[0].Extensions["cycle"])
	})

	t.Run("unused and undeclared variables", func(t *testing.T) {
		errs := validate(t, petSchemaSDL, `query Q($x: Int) { dog { name(surname: $y) } }`)
		require.Equal(t, []string{
			"Variable $x is declared by Q but not used",
			"Variable $y is used by Q but not declared",
		}, errs.Messages())
		assert.Equal(t, CodeVariableNotUsed, errs[0].Code())
		assert.Equal(t, CodeVariableNotDefined, errs[1].Code())
		assert.Equal(t, language.Path{language.PathName("query Q")}, errs[1].Path)
	})

	t.Run("different enum arguments conflict", func(t *testing.T) {
		errs := validate(t, petSchemaSDL, `{ dog { doesKnowCommand(dogCommand: SIT) doesKnowCommand(dogCommand: HEEL) } }`)
		require.Len(t, errs, 1)
		assert.Equal(t, `Field 'doesKnowCommand' has an argument conflict: {dogCommand:"SIT"} or {dogCommand:"HEEL"}?`, errs[0].Message)
		assert.Equal(t, CodeFieldConflict, errs[0].Code())
	})

	t.Run("impossible fragment spread", func(t *testing.T) {
		errs := validate(t, petSchemaSDL, `{ dog { ...CatFields } } fragment CatFields on Cat { meowVolume }`)
		require.Len(t, errs, 1)
		assert.Equal(t, "Fragment CatFields on Cat can't be spread inside Dog", errs[0].Message)
		assert.Equal(t, language.Path{language.PathName("query"), language.PathName("dog")}, errs[0].Path)
		assert.Equal(t, "FragmentSpreadsArePossible", errs[0].Rule)
	})
}

func TestValidateValidDocuments(t *testing.T) {
	queries := []string{
		`{ dog { name nickname barkVolume toys { name size } } }`,
		`query Pets($n: Int = 3, $f: DogFilter) { dogs(limit: $n, filter: $f) { name } }`,
		`{ dogs(filter: { name: "Rex", minBark: 2 }) { ...DogFields } } fragment DogFields on Dog { name }`,
		`{ lookup(by: { id: "1" }) { name } }`,
		`query ($id: ID!) { lookup(by: { id: $id }) { __typename } }`,
		`{ dog { name @tag(name: "a") @tag(name: "b") @cached(ttl: 10) } }`,
		`query @cached(ttl: 5) { pet { ... on Dog { barkVolume } ... on Cat { meowVolume } } }`,
		`mutation { registerPet(params: { name: "Tom", species: CAT }) { name } }`,
		`query A { dog { name } } query B { cat { name } }`,
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			errs := validate(t, petSchemaSDL, q)
			require.Empty(t, errs.Messages())
		})
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	v, err := New(mustSchema(t, petSchemaSDL))
	require.NoError(t, err)
	doc := mustParse(t, `
query Q($unused: Int) {
  dog { a: name a: nickname ...Missing }
  cat { ...OnDog }
}
fragment OnDog on Dog { barkVolume }
fragment Unused on Cat { meowVolume }`)

	first := v.Validate(doc)
	second := v.Validate(doc)
	require.NotEmpty(t, first)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestValidateOrdersByLocation(t *testing.T) {
	errs := validate(t, petSchemaSDL, `
fragment Unused on Cat { meowVolume }
{
  dog { nope }
  cat { ...Missing }
}`)
	require.Equal(t, []string{
		"Fragment Unused was defined, but not used",
		"Field 'nope' doesn't exist on type 'Dog'",
		"Fragment Missing was used, but not defined",
	}, errs.Messages())
	for i := 1; i < len(errs); i++ {
		assert.LessOrEqual(t, errs[i-1].Locations[0].Line, errs[i].Locations[0].Line)
	}
}

func TestValidateVariableClosureThroughFragments(t *testing.T) {
	query := `
query Q($used: Boolean, $unused: Int) { dog { ...A } }
fragment A on Dog { ...B }
fragment B on Dog { name(surname: $used) nickname @include(if: $missing) }`
	errs := validate(t, petSchemaSDL, query, WithRules("VariablesAreUsedAndDefined"))
	require.Equal(t, []string{
		"Variable $unused is declared by Q but not used",
		"Variable $missing is used by Q but not declared",
	}, errs.Messages())
}

func TestValidateInvalidOwnersStillUseVariables(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{`query Q($v: Boolean) { dog { unknown(x: $v) } }`, "Field 'unknown' doesn't exist on type 'Dog'"},
		{`query Q($v: Boolean) { dog { name(nope: $v) } }`, "Field 'name' doesn't accept argument 'nope'"},
		{`query Q($v: Boolean!) { dog { name @nope(if: $v) } }`, "Directive @nope is not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			errs := validate(t, petSchemaSDL, tt.query)
			require.Equal(t, []string{tt.want}, errs.Messages())
		})
	}
}

func TestValidateSuggestions(t *testing.T) {
	query := `{ dog { nam } }`

	errs := validate(t, petSchemaSDL, query, WithSuggestions(true))
	require.Equal(t, []string{"Field 'nam' doesn't exist on type 'Dog' (Did you mean `name`?)"}, errs.Messages())

	errs = validate(t, petSchemaSDL, query)
	require.Equal(t, []string{"Field 'nam' doesn't exist on type 'Dog'"}, errs.Messages())
}

func TestNew(t *testing.T) {
	s := mustSchema(t, petSchemaSDL)

	t.Run("all rules by default", func(t *testing.T) {
		v, err := New(s)
		require.NoError(t, err)
		require.Equal(t, RuleNames(), v.Rules())
	})

	t.Run("selected rules keep registry order", func(t *testing.T) {
		v, err := New(s, WithRules("FieldsWillMerge", "RootTypeExists"))
		require.NoError(t, err)
		require.Equal(t, []string{"RootTypeExists", "FieldsWillMerge"}, v.Rules())
	})

	t.Run("disabled rules are skipped", func(t *testing.T) {
		v, err := New(s, WithoutRules("FieldsWillMerge"))
		require.NoError(t, err)
		require.Len(t, v.Rules(), len(RuleNames())-1)
		require.NotContains(t, v.Rules(), "FieldsWillMerge")
	})

	t.Run("unknown rules", func(t *testing.T) {
		_, err := New(s, WithRules("Nope"), WithoutRules("AlsoNope"))
		require.EqualError(t, err, "validation: unknown rules: Nope, AlsoNope")
	})

	t.Run("negative max errors", func(t *testing.T) {
		_, err := New(s, WithMaxErrors(-1))
		require.Error(t, err)
	})

	t.Run("missing type system", func(t *testing.T) {
		_, err := New(nil)
		require.EqualError(t, err, "validation: type system is required")
	})
}

func TestRuleNamesOrder(t *testing.T) {
	names := RuleNames()
	require.Len(t, names, 26)
	require.Equal(t, "OperationNamesAreValid", names[0])
	require.Equal(t, "FieldsWillMerge", names[4])
	require.Equal(t, "VariableUsagesAreAllowed", names[len(names)-1])
}

func TestValidateLogsSummary(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	v, err := New(mustSchema(t, petSchemaSDL), WithLogger(zap.New(core)))
	require.NoError(t, err)

	v.Validate(mustParse(t, `{ dog { a: name a: nickname } }`))

	entries := logs.FilterMessage("validated document").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(1), fields["errors"])
	assert.Equal(t, int64(1), fields["conflicts"])
	assert.Equal(t, int64(1), fields["operations"])
	assert.NotEmpty(t, fields["documentHash"])
}

func TestErrorConversion(t *testing.T) {
	errs := validate(t, petSchemaSDL, `{ dog { nope } }`)
	require.Len(t, errs, 1)

	gql := errs.GQLErrors()
	require.Len(t, gql, 1)
	assert.Equal(t, "Field 'nope' doesn't exist on type 'Dog'", gql[0].Message)
	assert.Equal(t, "FieldsAreDefinedOnType", gql[0].Rule)
	assert.Equal(t, []language.Location{{Line: 1, Column: 9}}, gql[0].Locations)
	assert.Equal(t, CodeUndefinedField, gql[0].Extensions["code"])
	assert.Equal(t, "Field 'nope' doesn't exist on type 'Dog'", errs.Error())
}

type strayParent struct{}

func (strayParent) isParent() {}

func TestDescribeParentRejectsUnknownParents(t *testing.T) {
	require.PanicsWithError(t,
		"validation invariant violated in ArgumentsAreDefined: unexpected parent validation.strayParent",
		func() { describeParent("ArgumentsAreDefined", strayParent{}) })
}
