package validation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	language "github.com/hanpama/querycheck/internal/language"
	"github.com/stretchr/testify/require"
)

func mergeMessages(t *testing.T, sdl, query string, opts ...Option) []string {
	t.Helper()
	opts = append([]Option{WithRules("FieldsWillMerge")}, opts...)
	return validate(t, sdl, query, opts...).Messages()
}

func TestFieldsWillMergeMessages(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "unique fields",
			query: `{ dog { name nickname } }`,
		},
		{
			name:  "identical fields",
			query: `{ dog { name name } }`,
		},
		{
			name: "identical fields with identical input objects",
			query: `mutation {
				registerPet(params: { name: "Fido", species: DOG }) { name }
				registerPet(params: { name: "Fido", species: DOG }) { __typename }
			}`,
		},
		{
			name:  "identical fields with identical args",
			query: `{ dog { doesKnowCommand(dogCommand: SIT) doesKnowCommand(dogCommand: SIT) } }`,
		},
		{
			name: "identical fields with identical values",
			query: `query($dogCommand: PetCommand) {
				dog { doesKnowCommand(dogCommand: $dogCommand) doesKnowCommand(dogCommand: $dogCommand) }
			}`,
		},
		{
			name:  "identical aliases and fields",
			query: `{ dog { otherName: name otherName: name } }`,
		},
		{
			name:  "different args with different aliases",
			query: `{ dog { knowsSit: doesKnowCommand(dogCommand: SIT) knowsDown: doesKnowCommand(dogCommand: DOWN) } }`,
		},
		{
			name: "conflicting args value and var",
			query: `query ($dogCommand: PetCommand) {
				dog { doesKnowCommand(dogCommand: SIT) doesKnowCommand(dogCommand: $dogCommand) }
			}`,
			want: []string{`Field 'doesKnowCommand' has an argument conflict: {dogCommand:"SIT"} or {dogCommand:"$dogCommand"}?`},
		},
		{
			name: "multiple conflicting args value and var",
			query: `query ($dogCommand: PetCommand) {
				dog {
					doesKnowCommand(dogCommand: SIT)
					doesKnowCommand(dogCommand: HEEL)
					doesKnowCommand(dogCommand: $dogCommand)
				}
			}`,
			want: []string{`Field 'doesKnowCommand' has an argument conflict: {dogCommand:"SIT"} or {dogCommand:"HEEL"} or {dogCommand:"$dogCommand"}?`},
		},
		{
			name: "conflicting args two vars",
			query: `query ($varOne: PetCommand, $varTwo: PetCommand) {
				dog { doesKnowCommand(dogCommand: $varOne) doesKnowCommand(dogCommand: $varTwo) }
			}`,
			want: []string{`Field 'doesKnowCommand' has an argument conflict: {dogCommand:"$varOne"} or {dogCommand:"$varTwo"}?`},
		},
		{
			name:  "different directives with different aliases",
			query: `{ dog { nameIfTrue: name @include(if: true) nameIfFalse: name @include(if: false) } }`,
		},
		{
			name:  "different skip/include directives accepted",
			query: `{ dog { name @include(if: true) name @include(if: false) } }`,
		},
		{
			name:  "same aliases with different field targets",
			query: `{ dog { fido: name fido: nickname } }`,
			want:  []string{"Field 'fido' has a field conflict: name or nickname?"},
		},
		{
			name:  "multiple aliases with different field targets",
			query: `{ dog { fido: name fido: nickname fido: barkVolume } }`,
			want:  []string{"Field 'fido' has a field conflict: name or nickname or barkVolume?"},
		},
		{
			name:  "alias masking direct field access",
			query: `{ dog { name: nickname name } }`,
			want:  []string{"Field 'name' has a field conflict: nickname or name?"},
		},
		{
			name:  "different args, second adds an argument",
			query: `{ dog { doesKnowCommand doesKnowCommand(dogCommand: HEEL) } }`,
			want:  []string{`Field 'doesKnowCommand' has an argument conflict: {} or {dogCommand:"HEEL"}?`},
		},
		{
			name:  "different args, second missing an argument",
			query: `{ dog { doesKnowCommand(dogCommand: SIT) doesKnowCommand } }`,
			want:  []string{`Field 'doesKnowCommand' has an argument conflict: {dogCommand:"SIT"} or {}?`},
		},
		{
			name:  "conflicting arg values",
			query: `{ toy { image(maxWidth: 10) image(maxWidth: 20) } }`,
			want:  []string{`Field 'image' has an argument conflict: {maxWidth:"10"} or {maxWidth:"20"}?`},
		},
		{
			name:  "very deep conflict",
			query: `{ dog { toys { x: name } } dog { toys { x: size } } }`,
			want:  []string{"Field 'x' has a field conflict: name or size?"},
		},
		{
			name:  "same aliases allowed on non-overlapping fields",
			query: `{ pet { ... on Dog { name } ... on Cat { name: nickname } } }`,
		},
		{
			name: "nested spreads on the same type with a conflict",
			query: `{ dog { name ...D } }
				fragment D on Dog { ...D2 }
				fragment D2 on Dog { name: __typename }`,
			want: []string{"Field 'name' has a field conflict: name or __typename?"},
		},
		{
			name:  "same aliases not allowed on different interfaces",
			query: `{ pet { ... on Pet { name } ... on Mammal { name: nickname } } }`,
			want:  []string{"Field 'name' has a field conflict: name or nickname?"},
		},
		{
			name:  "same aliases on divergent abstract types",
			query: `{ animal { ... on Feline { volume: meowVolume } ... on Canine { volume: barkVolume } } }`,
		},
		{
			name: "same aliases allowed on different parent interfaces and different concrete types",
			query: `{ pet { ... on Pet { ...X } ... on Mammal { ...Y } } }
				fragment X on Dog { name }
				fragment Y on Cat { name: nickname }`,
		},
		{
			name: "different args where no conflict is possible",
			query: `{ pet { ... on Dog { ...X } ... on Cat { ...Y } } }
				fragment X on Pet { name(surname: true) }
				fragment Y on Pet { name }`,
		},
		{
			name:  "different args where no conflict is possible, inline",
			query: `{ pet { ... on Dog { ... on Pet { name } } ... on Cat { name(surname: true) } } }`,
		},
		{
			name:  "different args where no conflict is possible with uneven abstract scoping",
			query: `{ pet { ... on Pet { ... on Dog { name } } ... on Cat { name(surname: true) } } }`,
		},
		{
			name: "different args where no conflict is possible deep",
			query: `{ pet { ... on Dog { ...X } } pet { ... on Cat { ...Y } } }
				fragment X on Pet { name(surname: true) }
				fragment Y on Pet { name }`,
		},
		{
			name: "cyclic fragments are not expanded",
			query: `{ dog { ...A name: nickname } }
				fragment A on Dog { name ...B }
				fragment B on Dog { ...A }`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeMessages(t, petSchemaSDL, tt.query)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("messages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFieldsWillMergeConflictInFragments(t *testing.T) {
	query := `{
  pet {
    ...A
    ...B
    name
  }
}

fragment A on Dog {
  x: name
}

fragment B on Dog {
  x: nickname
  name: nickname
}`

	t.Run("unlimited", func(t *testing.T) {
		got := mergeMessages(t, petSchemaSDL, query)
		require.Equal(t, []string{
			"Field 'name' has a field conflict: name or nickname?",
			"Field 'x' has a field conflict: name or nickname?",
		}, got)
	})

	t.Run("limited", func(t *testing.T) {
		got := mergeMessages(t, petSchemaSDL, query, WithMaxErrors(1))
		require.Equal(t, []string{"Field 'x' has a field conflict: name or nickname?"}, got)
	})
}

func TestFieldsWillMergeDeepConflict(t *testing.T) {
	query := `
{
  dog {
    x: name
  }
  dog {
    x: nickname
  }
}`
	errs := validate(t, petSchemaSDL, query, WithRules("FieldsWillMerge"))
	want := List{{
		Message:   "Field 'x' has a field conflict: name or nickname?",
		Path:      language.Path{language.PathName("query")},
		Locations: []language.Location{{Line: 4, Column: 5}, {Line: 7, Column: 5}},
		Rule:      "FieldsWillMerge",
		Extensions: map[string]any{
			"code":      "fieldConflict",
			"fieldName": "x",
			"conflicts": "name or nickname",
		},
	}}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldsWillMergeDeepConflictWithMultipleIssues(t *testing.T) {
	query := `{
  dog {
    x: name
    y: barkVolume
  }
  dog {
    x: nickname
    y: doesKnowCommand
  }
}`
	require.Equal(t, []string{
		"Field 'x' has a field conflict: name or nickname?",
		"Field 'y' has a field conflict: barkVolume or doesKnowCommand?",
	}, mergeMessages(t, petSchemaSDL, query))

	require.Equal(t, []string{
		"Field 'x' has a field conflict: name or nickname?",
	}, mergeMessages(t, petSchemaSDL, query, WithMaxErrors(1)))
}

func TestFieldsWillMergeManyArguments(t *testing.T) {
	query := `query ($a: PetCommand, $b: PetCommand, $c: PetCommand, $d: PetCommand, $e: PetCommand, $f: PetCommand) {
		dog {
			doesKnowCommand(dogCommand: SIT)
			doesKnowCommand(dogCommand: HEEL)
			doesKnowCommand(dogCommand: JUMP)
			doesKnowCommand(dogCommand: DOWN)
			doesKnowCommand(dogCommand: $a)
			doesKnowCommand(dogCommand: $b)
			doesKnowCommand(dogCommand: $c)
			doesKnowCommand(dogCommand: $d)
			doesKnowCommand(dogCommand: $e)
			doesKnowCommand(dogCommand: $f)
		}
	}`
	got := mergeMessages(t, petSchemaSDL, query)
	require.Len(t, got, 1)
	require.Regexp(t, `SIT.*HEEL.*JUMP.*DOWN.*\$a.*\$b.*\$c.*\$d.*\$e.*\$f`, got[0])
}

func TestFieldsWillMergeMaxErrors(t *testing.T) {
	var signature, fields []string
	for n := 1; n <= 20; n++ {
		signature = append(signature, fmt.Sprintf("$arg%d: PetCommand", n))
		fields = append(fields, fmt.Sprintf("doesKnowCommand(dogCommand: $arg%d)", n))
	}
	query := fmt.Sprintf("query (%s) { dog { %s } }", strings.Join(signature, ", "), strings.Join(fields, " "))

	got := mergeMessages(t, petSchemaSDL, query, WithMaxErrors(10))
	require.Len(t, got, 1)
	for n := 1; n <= 11; n++ {
		require.Contains(t, got[0], fmt.Sprintf(`"$arg%d"`, n))
	}
	require.NotContains(t, got[0], `"$arg12"`)
}

func TestFieldsWillMergeListArguments(t *testing.T) {
	sdl := `
type Query {
  field(categories: [Category!]): Int
}

enum Category {
  A
  B
  C
}`

	t.Run("no conflict", func(t *testing.T) {
		query := `{ field(categories: [A, B, C]) ...Q } fragment Q on Query { field(categories: [A, B, C]) }`
		require.Empty(t, mergeMessages(t, sdl, query))
	})

	t.Run("conflict", func(t *testing.T) {
		query := `
{
  field(categories: [A, B])
  ...Q
}
fragment Q on Query {
  field(categories: [A, B, C])
}`
		errs := validate(t, sdl, query, WithRules("FieldsWillMerge"))
		require.Len(t, errs, 1)
		require.Equal(t, `Field 'field' has an argument conflict: {categories:"[A, B]"} or {categories:"[A, B, C]"}?`, errs[0].Message)
		require.Equal(t, []language.Location{{Line: 3, Column: 3}, {Line: 7, Column: 3}}, errs[0].Locations)
		require.Equal(t, "fieldConflict", errs[0].Code())
		require.Equal(t, `{categories:"[A, B]"} or {categories:"[A, B, C]"}`, errs[0].Extensions["conflicts"])
	})
}

func TestFieldsWillMergeFragmentPairInAnotherScope(t *testing.T) {
	fragments := `
fragment A on Pet { x: name }
fragment B on Pet { x: nickname }`
	want := []string{"Field 'x' has a field conflict: name or nickname?"}

	t.Run("overlapping spreads alone", func(t *testing.T) {
		require.Equal(t, want, mergeMessages(t, petSchemaSDL, `{ dog { ...A ...B } }`+fragments))
	})

	t.Run("after an exclusive comparison of the same pair", func(t *testing.T) {
		query := `{
  pet { ... on Dog { ...A } ... on Cat { ...B } }
  dog { ...A ...B }
}` + fragments
		require.Equal(t, want, mergeMessages(t, petSchemaSDL, query))
	})

	t.Run("exclusive spreads alone", func(t *testing.T) {
		query := `{ pet { ... on Dog { ...A } ... on Cat { ...B } } }` + fragments
		require.Empty(t, mergeMessages(t, petSchemaSDL, query))
	})
}

func TestFieldsWillMergeBoxes(t *testing.T) {
	t.Run("compatible return shapes on different return types", func(t *testing.T) {
		query := `{
			someBox {
				... on SomeBox { deepBox { unrelatedField } }
				... on StringBox { deepBox { unrelatedField } }
			}
		}`
		require.Empty(t, mergeMessages(t, boxSchemaSDL, query))
	})

	t.Run("non-exclusive comparison after an exclusive one", func(t *testing.T) {
		query := `{
			someBox { ... on IntBox { deepBox { ...X } } }
			someBox { ... on StringBox { deepBox { ...Y } } }
			memoed: someBox { ... on IntBox { deepBox { ...X } } }
			memoed: someBox { ... on StringBox { deepBox { ...Y } } }
			other: someBox { ...X }
			other: someBox { ...Y }
		}
		fragment X on SomeBox { scalar: deepBox { unrelatedField } }
		fragment Y on SomeBox { scalar: unrelatedField }`
		require.Contains(t, mergeMessages(t, boxSchemaSDL, query),
			"Field 'scalar' has a field conflict: deepBox or unrelatedField?")
	})

	t.Run("return types are only compared when asked", func(t *testing.T) {
		query := `{ someBox { ... on IntBox { scalar } ... on StringBox { scalar } } }`
		require.Empty(t, mergeMessages(t, boxSchemaSDL, query))
		require.Equal(t,
			[]string{"Field 'scalar' has a return_type conflict: `Int` or `String`?"},
			mergeMessages(t, boxSchemaSDL, query, WithReturnTypeConflicts(true)))
	})

	t.Run("non-null wrappers differ", func(t *testing.T) {
		query := `{
			someBox {
				... on NonNullStringBox1 { scalar }
				... on StringBox { scalar }
			}
		}`
		require.Equal(t,
			[]string{"Field 'scalar' has a return_type conflict: `String!` or `String`?"},
			mergeMessages(t, boxSchemaSDL, query, WithReturnTypeConflicts(true)))
	})

	t.Run("same non-null leaf on both sides", func(t *testing.T) {
		query := `{
			someBox {
				... on NonNullStringBox1 { scalar }
				... on NonNullStringBox2 { scalar }
			}
		}`
		require.Empty(t, mergeMessages(t, boxSchemaSDL, query, WithReturnTypeConflicts(true)))
	})
}

func TestFieldsWillMergeSymmetry(t *testing.T) {
	pairs := [][2]string{
		{`{ dog { a: name a: nickname } }`, `{ dog { a: nickname a: name } }`},
		{`{ animal { ... on Dog { a: name } ... on Cat { a: nickname } } }`, `{ animal { ... on Cat { a: nickname } ... on Dog { a: name } } }`},
		{`{ dog { name(surname: true) name } }`, `{ dog { name name(surname: true) } }`},
	}
	for _, p := range pairs {
		forward := validate(t, petSchemaSDL, p[0], WithRules("FieldsWillMerge"))
		backward := validate(t, petSchemaSDL, p[1], WithRules("FieldsWillMerge"))
		require.Equal(t, len(forward), len(backward), "%s vs %s", p[0], p[1])
		for i := range forward {
			require.Equal(t, forward[i].Extensions["fieldName"], backward[i].Extensions["fieldName"])
		}
	}
}

func TestSerializeArguments(t *testing.T) {
	doc := mustParse(t, `{ f(a: 1, b: "two", c: [X, Y], d: {e: $v}) g }`)
	f := doc.Operations[0].SelectionSet[0].(*language.Field)
	g := doc.Operations[0].SelectionSet[1].(*language.Field)
	require.Equal(t, `{a:"1",b:"\"two\"",c:"[X, Y]",d:"{e: $v}"}`, serializeArguments(f.Arguments))
	require.Equal(t, "{}", serializeArguments(g.Arguments))
}

func TestSameArgumentsIgnoresOrder(t *testing.T) {
	doc := mustParse(t, `{ f(a: 1, b: 2) f(b: 2, a: 1) f(a: 1) f(a: 1, b: 3) }`)
	set := doc.Operations[0].SelectionSet
	args := func(i int) language.ArgumentList { return set[i].(*language.Field).Arguments }
	require.True(t, sameArguments(args(0), args(1)))
	require.False(t, sameArguments(args(0), args(2)))
	require.False(t, sameArguments(args(0), args(3)))
}
