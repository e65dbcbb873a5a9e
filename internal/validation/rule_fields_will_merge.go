package validation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	language "github.com/hanpama/querycheck/internal/language"
	"github.com/hanpama/querycheck/internal/schema"
)

// fieldsWillMerge proves that every pair of fields sharing a response key
// can be merged into one response value.
//
// Searches start at every operation, field and fragment definition. Each
// search flattens inline fragments into groups of field occurrences keyed
// by response key, compares occurrences within each group, and then
// compares those groups against every fragment spread and every pair of
// spreads. Occurrences whose type scopes can never hold the same object are
// mutually exclusive and do not conflict on name or arguments, but their
// sub-selections are still merged.
type fieldsWillMerge struct {
	BaseVisitor

	ctx *Context
	// compared remembers fragment pairs already compared under the same
	// spread scopes and exclusivity.
	compared map[fragmentPair]bool
	count    int

	conflicts    []*conflict
	conflictsKey map[conflictKey]*conflict
}

// fragmentPair identifies one fragment comparison. Exclusivity of the
// fields compared depends on where each fragment is spread, so the effective
// types of both spread scopes are part of the key.
type fragmentPair struct {
	a, b           string
	scopeA, scopeB string
	exclusive      bool
}

func (r *fieldsWillMerge) newFragmentPair(s1, s2 spreadRef, exclusive bool) fragmentPair {
	a, b := s1.name, s2.name
	scopeA, scopeB := r.scopeKey(s1.scopes), r.scopeKey(s2.scopes)
	if b < a {
		a, b = b, a
		scopeA, scopeB = scopeB, scopeA
	}
	return fragmentPair{a: a, b: b, scopeA: scopeA, scopeB: scopeB, exclusive: exclusive}
}

// scopeKey renders the effective types of a scope list as a sorted name
// list. "*" stands for a list with no known type.
func (r *fieldsWillMerge) scopeKey(scopes []*schema.Type) string {
	set, ok := r.ctx.effectiveTypes(scopes)
	if !ok {
		return "*"
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

type conflictKind int

const (
	conflictField conflictKind = iota
	conflictArgument
	conflictReturnType
)

func (k conflictKind) describe() string {
	switch k {
	case conflictArgument:
		return "an argument"
	case conflictReturnType:
		return "a return_type"
	default:
		return "a field"
	}
}

type conflictKey struct {
	kind conflictKind
	key  string
}

// conflict collects every disagreeing pair found at one response key.
type conflict struct {
	kind   conflictKind
	key    string
	values []string
	nodes  []*language.Field
}

func (c *conflict) add(v1, v2 string, n1, n2 *language.Field) {
	for _, v := range []string{v1, v2} {
		if !containsString(c.values, v) {
			c.values = append(c.values, v)
		}
	}
	for _, n := range []*language.Field{n1, n2} {
		if !containsField(c.nodes, n) {
			c.nodes = append(c.nodes, n)
		}
	}
}

func (c *conflict) toError() *Error {
	joined := strings.Join(c.values, " or ")
	positions := make([]*language.Position, len(c.nodes))
	for i, n := range c.nodes {
		positions[i] = n.Position
	}
	return newError(CodeFieldConflict,
		fmt.Sprintf("Field '%s' has %s conflict: %s?", c.key, c.kind.describe(), joined),
		map[string]any{"fieldName": c.key, "conflicts": joined},
		positions...)
}

// fieldOccurrence is one field selection, with the types whose selection
// sets it is nested in, outermost first.
type fieldOccurrence struct {
	node   *language.Field
	def    *schema.Field
	owner  *schema.Type
	scopes []*schema.Type
}

type spreadRef struct {
	name   string
	scopes []*schema.Type
}

type fieldGroups struct {
	keys  []string
	byKey map[string][]*fieldOccurrence
}

func (g *fieldGroups) add(f *fieldOccurrence) {
	key := responseKey(f.node)
	if _, ok := g.byKey[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.byKey[key] = append(g.byKey[key], f)
}

func newFieldsWillMerge() Visitor {
	return &fieldsWillMerge{compared: map[fragmentPair]bool{}}
}

func (r *fieldsWillMerge) EnterOperation(ctx *Context, op *language.OperationDefinition) {
	r.search(ctx, op.SelectionSet, ctx.Schema().RootType(op.Operation))
}

func (r *fieldsWillMerge) EnterField(ctx *Context, field *language.Field) {
	def := ctx.FieldDefinition()
	if def == nil || len(field.SelectionSet) == 0 {
		return
	}
	r.search(ctx, field.SelectionSet, ctx.Schema().Type(def.Type.GetNamedType()))
}

func (r *fieldsWillMerge) EnterFragmentDefinition(ctx *Context, def *language.FragmentDefinition) {
	r.search(ctx, def.SelectionSet, ctx.Schema().Type(def.TypeCondition))
}

// search checks one selection set and reports what it found, one finding
// per kind and response key.
func (r *fieldsWillMerge) search(ctx *Context, set language.SelectionSet, owner *schema.Type) {
	if owner == nil {
		return
	}
	r.ctx = ctx
	r.conflicts = nil
	r.conflictsKey = map[conflictKey]*conflict{}

	groups, spreads := r.collect(set, owner, []*schema.Type{owner})
	r.findConflictsWithin(groups)
	visited := map[string]bool{}
	for i, spread := range spreads {
		r.fieldsVersusFragment(spread, groups, false, visited)
		for _, other := range spreads[i+1:] {
			r.fragmentVersusFragment(spread, other, false)
		}
	}

	for _, c := range r.conflicts {
		ctx.Report(c.toError())
	}
	r.conflicts = nil
	r.conflictsKey = nil
}

// collect groups the fields of set by response key, flattening inline
// fragments. Fragment spreads are returned for lazy resolution.
func (r *fieldsWillMerge) collect(set language.SelectionSet, owner *schema.Type, scopes []*schema.Type) (*fieldGroups, []spreadRef) {
	groups := &fieldGroups{byKey: map[string][]*fieldOccurrence{}}
	var spreads []spreadRef
	r.collectInto(groups, &spreads, set, owner, scopes)
	return groups, spreads
}

func (r *fieldsWillMerge) collectInto(groups *fieldGroups, spreads *[]spreadRef, set language.SelectionSet, owner *schema.Type, scopes []*schema.Type) {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *language.Field:
			groups.add(&fieldOccurrence{
				node:   sel,
				def:    r.ctx.Schema().Field(owner, sel.Name),
				owner:  owner,
				scopes: scopes,
			})
		case *language.InlineFragment:
			typ := owner
			if sel.TypeCondition != "" {
				typ = r.ctx.Schema().Type(sel.TypeCondition)
			}
			if typ == nil {
				continue
			}
			r.collectInto(groups, spreads, sel.SelectionSet, typ, appendScope(scopes, typ))
		case *language.FragmentSpread:
			*spreads = append(*spreads, spreadRef{name: sel.Name, scopes: scopes})
		default:
			panic(invariant("FieldsWillMerge", "unexpected selection %T", sel))
		}
	}
}

// appendScope never shares a backing array between sibling scope lists.
func appendScope(scopes []*schema.Type, t *schema.Type) []*schema.Type {
	return append(scopes[:len(scopes):len(scopes)], t)
}

// expandFragment resolves a spread to its fields, scoped under the spread's
// position. ok is false for unknown or cyclic fragments.
func (r *fieldsWillMerge) expandFragment(spread spreadRef) (*fieldGroups, []spreadRef, bool) {
	def := r.ctx.Fragment(spread.name)
	if def == nil || r.ctx.fragments.cyclic(spread.name) {
		return nil, nil, false
	}
	typ := r.ctx.Schema().Type(def.TypeCondition)
	if typ == nil {
		return nil, nil, false
	}
	groups, spreads := r.collect(def.SelectionSet, typ, appendScope(spread.scopes, typ))
	return groups, spreads, true
}

func (r *fieldsWillMerge) findConflictsWithin(groups *fieldGroups) {
	for _, key := range groups.keys {
		fields := groups.byKey[key]
		for i := 0; i < len(fields); i++ {
			for j := i + 1; j < len(fields); j++ {
				r.findConflict(key, fields[i], fields[j], false)
			}
		}
	}
}

func (r *fieldsWillMerge) findConflictsBetween(g1, g2 *fieldGroups, exclusive bool) {
	for _, key := range g1.keys {
		others, ok := g2.byKey[key]
		if !ok {
			continue
		}
		for _, f1 := range g1.byKey[key] {
			for _, f2 := range others {
				r.findConflict(key, f1, f2, exclusive)
			}
		}
	}
}

// fieldsVersusFragment compares groups against the fields of a spread
// fragment and, transitively, the fragments it spreads. visited is scoped to
// one set of groups.
func (r *fieldsWillMerge) fieldsVersusFragment(spread spreadRef, groups *fieldGroups, exclusive bool, visited map[string]bool) {
	if visited[spread.name] {
		return
	}
	visited[spread.name] = true

	fragGroups, fragSpreads, ok := r.expandFragment(spread)
	if !ok {
		return
	}
	r.findConflictsBetween(groups, fragGroups, exclusive)
	for _, nested := range fragSpreads {
		r.fieldsVersusFragment(nested, groups, exclusive, visited)
	}
}

func (r *fieldsWillMerge) fragmentVersusFragment(s1, s2 spreadRef, exclusive bool) {
	if s1.name == s2.name {
		return
	}
	pair := r.newFragmentPair(s1, s2, exclusive)
	if r.compared[pair] {
		return
	}
	r.compared[pair] = true

	g1, sp1, ok1 := r.expandFragment(s1)
	g2, sp2, ok2 := r.expandFragment(s2)
	if !ok1 || !ok2 {
		return
	}
	r.findConflictsBetween(g1, g2, exclusive)
	for _, s := range sp2 {
		r.fragmentVersusFragment(s1, s, exclusive)
	}
	for _, s := range sp1 {
		r.fragmentVersusFragment(s, s2, exclusive)
	}
}

func (r *fieldsWillMerge) capped() bool {
	limit := r.ctx.opts.MaxErrors
	return limit > 0 && r.count >= limit
}

func (r *fieldsWillMerge) findConflict(key string, f1, f2 *fieldOccurrence, parentsExclusive bool) {
	if r.capped() {
		return
	}
	if f1.def == nil || f2.def == nil {
		return
	}
	exclusive := parentsExclusive || r.ctx.mutuallyExclusive(f1.scopes, f2.scopes)

	if !exclusive {
		if f1.node.Name != f2.node.Name {
			r.record(conflictField, key, f1.node.Name, f2.node.Name, f1.node, f2.node)
		}
		if !sameArguments(f1.node.Arguments, f2.node.Arguments) {
			r.record(conflictArgument, key,
				serializeArguments(f1.node.Arguments), serializeArguments(f2.node.Arguments),
				f1.node, f2.node)
		}
	}

	if r.ctx.opts.ReturnTypeConflicts && r.conflictsKey[conflictKey{conflictField, key}] == nil &&
		returnTypesConflict(r.ctx.Schema(), f1.def.Type, f2.def.Type) {
		r.record(conflictReturnType, key,
			"`"+f1.def.Type.String()+"`", "`"+f2.def.Type.String()+"`",
			f1.node, f2.node)
	}

	r.findSubSelectionConflicts(f1, f2, exclusive)
}

func (r *fieldsWillMerge) findSubSelectionConflicts(f1, f2 *fieldOccurrence, exclusive bool) {
	if len(f1.node.SelectionSet) == 0 && len(f2.node.SelectionSet) == 0 {
		return
	}
	t1 := r.ctx.Schema().Type(f1.def.Type.GetNamedType())
	t2 := r.ctx.Schema().Type(f2.def.Type.GetNamedType())
	if t1 == nil || t2 == nil {
		return
	}
	g1, sp1 := r.collect(f1.node.SelectionSet, t1, []*schema.Type{t1})
	g2, sp2 := r.collect(f2.node.SelectionSet, t2, []*schema.Type{t2})

	r.findConflictsBetween(g1, g2, exclusive)

	visited1 := map[string]bool{}
	for _, s := range sp2 {
		r.fieldsVersusFragment(s, g1, exclusive, visited1)
	}
	visited2 := map[string]bool{}
	for _, s := range sp1 {
		r.fieldsVersusFragment(s, g2, exclusive, visited2)
	}
	for _, s1 := range sp1 {
		for _, s2 := range sp2 {
			r.fragmentVersusFragment(s1, s2, exclusive)
		}
	}
}

func (r *fieldsWillMerge) record(kind conflictKind, key, v1, v2 string, n1, n2 *language.Field) {
	ck := conflictKey{kind: kind, key: key}
	c := r.conflictsKey[ck]
	if c == nil {
		c = &conflict{kind: kind, key: key}
		r.conflictsKey[ck] = c
		r.conflicts = append(r.conflicts, c)
	}
	c.add(v1, v2, n1, n2)
	r.count++
}

// sameArguments compares argument lists by name and printed value,
// regardless of order.
func sameArguments(a1, a2 language.ArgumentList) bool {
	if len(a1) != len(a2) {
		return false
	}
	for _, arg := range a1 {
		other := a2.ForName(arg.Name)
		if other == nil {
			return false
		}
		if language.PrintValue(arg.Value) != language.PrintValue(other.Value) {
			return false
		}
	}
	return true
}

// serializeArguments renders arguments the way conflict messages show them:
// {name:"literal",...}.
func serializeArguments(args language.ArgumentList) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.Name + ":" + strconv.Quote(language.PrintValue(arg.Value))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// returnTypesConflict reports whether two field types produce differently
// shaped responses: different wrappers, or different leaf types.
func returnTypesConflict(ts TypeSystem, t1, t2 *schema.TypeRef) bool {
	switch {
	case t1.IsNonNull() || t2.IsNonNull():
		if t1.IsNonNull() && t2.IsNonNull() {
			return returnTypesConflict(ts, t1.OfType, t2.OfType)
		}
		return true
	case t1.Kind == schema.TypeRefKindList || t2.Kind == schema.TypeRefKindList:
		if t1.Kind == t2.Kind {
			return returnTypesConflict(ts, t1.OfType, t2.OfType)
		}
		return true
	}
	n1, n2 := ts.Type(t1.Named), ts.Type(t2.Named)
	if n1.IsLeaf() || n2.IsLeaf() {
		return t1.Named != t2.Named
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsField(list []*language.Field, f *language.Field) bool {
	for _, v := range list {
		if v == f {
			return true
		}
	}
	return false
}
