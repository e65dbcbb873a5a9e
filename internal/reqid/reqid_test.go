package reqid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	ctx, id := NewContext(context.Background())
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, id, got)
	require.NotZero(t, id)

	_, ok = FromContext(context.Background())
	require.False(t, ok)
}

func TestWithID(t *testing.T) {
	got, ok := FromContext(WithID(context.Background(), 42))
	require.True(t, ok)
	require.Equal(t, ID(42), got)
}

func TestStringAndParse(t *testing.T) {
	id := ID(0xbeef)
	require.Equal(t, "000000000000beef", id.String())

	parsed, ok := Parse(id.String())
	require.True(t, ok)
	require.Equal(t, id, parsed)

	for _, bad := range []string{"", "0", "xyz", "0123456789abcdef0"} {
		_, ok := Parse(bad)
		assert.False(t, ok, bad)
	}
}
