package schema

import (
	_ "embed"

	language "github.com/hanpama/querycheck/internal/language"
)

// builtin.graphql holds the scalars, directives and introspection types every
// schema carries. It is parsed together with user SDL so user documents can
// extend or reference them like any other definition.
//
//go:embed builtin.graphql
var builtinSDL string

func builtinSource() *language.Source {
	return &language.Source{Name: "builtin.graphql", Input: builtinSDL, BuiltIn: true}
}
