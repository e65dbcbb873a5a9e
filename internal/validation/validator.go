package validation

import (
	"fmt"
	"sort"
	"time"

	language "github.com/hanpama/querycheck/internal/language"
	"github.com/hanpama/querycheck/internal/schema"
	"go.uber.org/zap"
)

// TypeSystem is the read-only view of a schema the rules consult.
// Implementations must be safe for concurrent use.
type TypeSystem interface {
	Type(name string) *schema.Type
	Field(owner *schema.Type, name string) *schema.Field
	Fields(owner *schema.Type) []*schema.Field
	Argument(owner schema.ArgumentOwner, name string) *schema.InputValue
	Arguments(owner schema.ArgumentOwner) []*schema.InputValue
	Directive(name string) *schema.Directive
	PossibleTypes(t *schema.Type) []*schema.Type
	RootType(op language.Operation) *schema.Type
	CheckLiteral(ref *schema.TypeRef, value *language.Value) error
	TypeNames() []string
	DirectiveNames() []string
}

var _ TypeSystem = (*schema.Schema)(nil)

type Options struct {
	// MaxErrors caps the number of field conflicts searched for. 0 means no cap.
	MaxErrors int

	// Rules, when non-empty, is the only set of rules run.
	Rules []string

	// DisabledRules are skipped even if listed in Rules.
	DisabledRules []string

	// Suggestions appends "Did you mean" hints to undefined-name findings.
	Suggestions bool

	// ReturnTypeConflicts also reports fields whose response shapes differ.
	ReturnTypeConflicts bool

	Logger *zap.Logger
}

type Option func(*Options)

func WithMaxErrors(n int) Option                { return func(o *Options) { o.MaxErrors = n } }
func WithRules(names ...string) Option          { return func(o *Options) { o.Rules = names } }
func WithoutRules(names ...string) Option       { return func(o *Options) { o.DisabledRules = names } }
func WithSuggestions(enable bool) Option        { return func(o *Options) { o.Suggestions = enable } }
func WithReturnTypeConflicts(enable bool) Option { return func(o *Options) { o.ReturnTypeConflicts = enable } }
func WithLogger(l *zap.Logger) Option           { return func(o *Options) { o.Logger = l } }

// Validator checks documents against one type system. It holds no per-run
// state, so one Validator may validate many documents concurrently.
type Validator struct {
	ts    TypeSystem
	opt   Options
	rules []Rule
}

// New creates a Validator running the registered rules selected by opts.
func New(ts TypeSystem, opts ...Option) (*Validator, error) {
	if ts == nil {
		return nil, fmt.Errorf("validation: type system is required")
	}
	op := Options{Logger: zap.NewNop()}
	for _, f := range opts {
		f(&op)
	}
	if op.Logger == nil {
		op.Logger = zap.NewNop()
	}
	if op.MaxErrors < 0 {
		return nil, fmt.Errorf("validation: max errors must not be negative, got %d", op.MaxErrors)
	}
	rules, err := selectRules(op.Rules, op.DisabledRules)
	if err != nil {
		return nil, err
	}
	return &Validator{ts: ts, opt: op, rules: rules}, nil
}

// Rules returns the names of the rules this Validator runs, in order.
func (v *Validator) Rules() []string {
	names := make([]string, len(v.rules))
	for i, r := range v.rules {
		names[i] = r.Name
	}
	return names
}

// Validate walks doc once with fresh instances of every rule and returns the
// findings ordered by location. Panics raised by rules are not recovered.
func (v *Validator) Validate(doc *language.QueryDocument) List {
	start := time.Now()
	ctx := newContext(v.ts, doc, &v.opt)
	w := &walker{ctx: ctx, visitors: make([]ruleVisitor, len(v.rules))}
	for i, r := range v.rules {
		w.visitors[i] = ruleVisitor{name: r.Name, visitor: r.New()}
	}
	if doc != nil {
		w.walkDocument(doc)
	}
	errs := sortAndDedupe(ctx.errors)

	if ce := v.opt.Logger.Check(zap.DebugLevel, "validated document"); ce != nil {
		conflicts := 0
		for _, e := range errs {
			if e.Code() == CodeFieldConflict {
				conflicts++
			}
		}
		var ops, frags int
		if doc != nil {
			ops, frags = len(doc.Operations), len(doc.Fragments)
		}
		ce.Write(
			zap.String("documentHash", language.DocumentHash(doc)),
			zap.Int("operations", ops),
			zap.Int("fragments", frags),
			zap.Int("errors", len(errs)),
			zap.Int("conflicts", conflicts),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return errs
}

// sortAndDedupe orders findings by their first location, keeping traversal
// order for ties, and drops exact repeats.
func sortAndDedupe(errs List) List {
	sort.SliceStable(errs, func(i, j int) bool {
		li, lj := errs[i].Locations, errs[j].Locations
		if len(li) == 0 || len(lj) == 0 {
			return len(li) > len(lj)
		}
		if li[0].Line != lj[0].Line {
			return li[0].Line < lj[0].Line
		}
		return li[0].Column < lj[0].Column
	})
	out := make(List, 0, len(errs))
	seen := map[string]bool{}
	for _, e := range errs {
		key := fingerprint(e)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

func fingerprint(e *Error) string {
	return fmt.Sprintf("%s\x00%s\x00%v\x00%v", e.Code(), e.Message, e.Path, e.Locations)
}
