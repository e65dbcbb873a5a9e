package validation

import (
	language "github.com/hanpama/querycheck/internal/language"
)

type operationRef struct {
	pos  *language.Position
	path language.Path
}

// operationNamesAreValid requires every operation to be named when there is
// more than one, and names to be unique.
type operationNamesAreValid struct {
	BaseVisitor
	order []string
	names map[string][]*operationRef
	count int
}

func (r *operationNamesAreValid) EnterOperation(ctx *Context, op *language.OperationDefinition) {
	r.count++
	if _, ok := r.names[op.Name]; !ok {
		r.order = append(r.order, op.Name)
	}
	r.names[op.Name] = append(r.names[op.Name], &operationRef{pos: op.Position, path: ctx.Path()})
}

func (r *operationNamesAreValid) LeaveDocument(ctx *Context, _ *language.QueryDocument) {
	if anonymous := r.names[""]; r.count > 1 && len(anonymous) > 0 {
		err := errAnonymousOperationNotAlone(positionsOf(anonymous))
		err.Path = anonymous[0].path
		ctx.Report(err)
	}
	for _, name := range r.order {
		refs := r.names[name]
		if name == "" || len(refs) < 2 {
			continue
		}
		err := errDuplicateOperationName(name, positionsOf(refs))
		err.Path = refs[0].path
		ctx.Report(err)
	}
}

func positionsOf(refs []*operationRef) []*language.Position {
	out := make([]*language.Position, len(refs))
	for i, r := range refs {
		out[i] = r.pos
	}
	return out
}

// rootTypeExists rejects operations the schema has no root type for.
type rootTypeExists struct{ BaseVisitor }

func (rootTypeExists) EnterOperation(ctx *Context, op *language.OperationDefinition) {
	if ctx.Schema().RootType(op.Operation) != nil {
		return
	}
	ctx.Report(errMissingRootType(op.Operation, op.Position))
	ctx.SkipChildren()
}
