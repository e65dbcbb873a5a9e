package reqid

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
)

// Header carries the request id between clients and the server.
const Header = "X-Request-Id"

// ID identifies one request. It is never zero.
type ID uint64

func (id ID) String() string { return fmt.Sprintf("%016x", uint64(id)) }

// Parse reads an id in the form String produces.
func Parse(s string) (ID, bool) {
	if len(s) == 0 || len(s) > 16 {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 16, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return ID(n), true
}

type key struct{}

// NewContext returns a copy of parent carrying a fresh random id.
func NewContext(parent context.Context) (context.Context, ID) {
	id := ID(rand.Uint64())
	for id == 0 {
		id = ID(rand.Uint64())
	}
	return WithID(parent, id), id
}

func WithID(parent context.Context, id ID) context.Context {
	return context.WithValue(parent, key{}, id)
}

// FromContext extracts the request id from ctx.
func FromContext(ctx context.Context) (ID, bool) {
	id, ok := ctx.Value(key{}).(ID)
	return id, ok
}
