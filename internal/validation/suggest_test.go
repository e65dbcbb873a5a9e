package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestionList(t *testing.T) {
	tests := []struct {
		input   string
		options []string
		want    []string
	}{
		{"nam", []string{"name", "nickname", "toys"}, []string{"name"}},
		{"name", []string{"name", "Name", "names"}, []string{"Name", "names"}},
		{"xyz", []string{"name", "barkVolume"}, []string{}},
		{"ab", []string{"ac", "ad", "ae", "af", "ag", "ah", "ai"}, []string{"ac", "ad", "ae", "af", "ag"}},
		{"dg", []string{"dog", "dogs", "dig"}, []string{"dig", "dog"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, suggestionList(tt.input, tt.options))
		})
	}
}

func TestDidYouMean(t *testing.T) {
	ctx := &Context{opts: &Options{Suggestions: true}}
	assert.Equal(t, " (Did you mean `dog`?)", ctx.didYouMean("dgo", []string{"dog", "toy"}))
	assert.Equal(t, " (Did you mean `bat`, `cat` or `hat`?)", ctx.didYouMean("at", []string{"cat", "hat", "bat"}))
	assert.Equal(t, "", ctx.didYouMean("zzzzzz", []string{"dog"}))

	ctx.opts.Suggestions = false
	assert.Equal(t, "", ctx.didYouMean("dgo", []string{"dog"}))
}
