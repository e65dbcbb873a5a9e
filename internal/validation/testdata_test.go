package validation

import (
	"testing"

	language "github.com/hanpama/querycheck/internal/language"
	"github.com/hanpama/querycheck/internal/schema"
	"github.com/stretchr/testify/require"
)

const petSchemaSDL = `
type Query {
  dog: Dog
  cat: Cat
  pet: Pet
  toy: Toy
  animal: Animal
  dogs(limit: Int = 10, filter: DogFilter): [Dog!]
  lookup(by: Selector): Pet
}

union Animal = Dog | Cat

type Mutation {
  registerPet(params: PetParams): Pet
}

enum PetCommand {
  SIT
  HEEL
  JUMP
  DOWN
}

enum ToySize {
  SMALL
  LARGE
}

enum PetSpecies {
  DOG
  CAT
}

input PetParams {
  name: String!
  species: PetSpecies!
}

input DogFilter {
  name: String!
  minBark: Int
}

input Selector @oneOf {
  id: ID
  name: String
}

interface Mammal {
  name(surname: Boolean = false): String!
  nickname: String
}

interface Pet {
  name(surname: Boolean = false): String!
  nickname: String
  toys: [Toy!]!
}

interface Canine {
  barkVolume: Int!
}

interface Feline {
  meowVolume: Int!
}

type Dog implements Pet & Mammal & Canine {
  name(surname: Boolean = false): String!
  nickname: String
  doesKnowCommand(dogCommand: PetCommand): Boolean!
  barkVolume: Int!
  toys: [Toy!]!
}

type Cat implements Pet & Mammal & Feline {
  name(surname: Boolean = false): String!
  nickname: String
  doesKnowCommand(catCommand: PetCommand): Boolean!
  meowVolume: Int!
  toys: [Toy!]!
}

type Toy {
  name: String!
  size: ToySize!
  image(maxWidth: Int!): String!
}

directive @cached(ttl: Int!) on FIELD | QUERY
directive @tag(name: String!) repeatable on FIELD
`

const boxSchemaSDL = `
type Query {
  someBox: SomeBox
  connection: Connection
}

type Edge {
  id: ID
  name: String
}

interface SomeBox {
  deepBox: SomeBox
  unrelatedField: String
}

type StringBox implements SomeBox {
  scalar: String
  deepBox: StringBox
  unrelatedField: String
  listStringBox: [StringBox]
  stringBox: StringBox
  intBox: IntBox
}

type IntBox implements SomeBox {
  scalar: Int
  deepBox: IntBox
  unrelatedField: String
  listStringBox: [StringBox]
  stringBox: StringBox
  intBox: IntBox
}

interface NonNullStringBox1 {
  scalar: String!
}

type NonNullStringBox1Impl implements SomeBox & NonNullStringBox1 {
  scalar: String!
  unrelatedField: String
  deepBox: SomeBox
}

interface NonNullStringBox2 {
  scalar: String!
}

type NonNullStringBox2Impl implements SomeBox & NonNullStringBox2 {
  scalar: String!
  unrelatedField: String
  deepBox: SomeBox
}

type Connection {
  edges: [Edge]
}
`

func mustSchema(t *testing.T, sdl string) *schema.Schema {
	t.Helper()
	s, err := schema.BuildFromSDL(sdl)
	require.NoError(t, err)
	return s
}

func mustParse(t *testing.T, query string) *language.QueryDocument {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	return doc
}

func validate(t *testing.T, sdl, query string, opts ...Option) List {
	t.Helper()
	v, err := New(mustSchema(t, sdl), opts...)
	require.NoError(t, err)
	return v.Validate(mustParse(t, query))
}

func withCode(errs List, code string) List {
	var out List
	for _, e := range errs {
		if e.Code() == code {
			out = append(out, e)
		}
	}
	return out
}
