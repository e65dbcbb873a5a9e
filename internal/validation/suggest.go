package validation

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

const maxSuggestions = 5

// suggestionList picks the options close enough to input to be a likely typo,
// nearest first.
func suggestionList(input string, options []string) []string {
	type candidate struct {
		name     string
		distance int
	}
	threshold := len(input)*2/5 + 1
	lowered := strings.ToLower(input)

	var found []candidate
	for _, opt := range options {
		if opt == input {
			continue
		}
		d := levenshtein.ComputeDistance(lowered, strings.ToLower(opt))
		if d > threshold {
			continue
		}
		if d == 0 {
			// Differs only in case; still rank it after exact spellings.
			d = 1
		}
		found = append(found, candidate{name: opt, distance: d})
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].distance != found[j].distance {
			return found[i].distance < found[j].distance
		}
		return found[i].name < found[j].name
	})
	if len(found) > maxSuggestions {
		found = found[:maxSuggestions]
	}
	out := make([]string, len(found))
	for i, c := range found {
		out[i] = c.name
	}
	return out
}

// didYouMean formats a suggestion suffix such as " (Did you mean `dog`?)",
// or "" when suggestions are off or nothing is close.
func (c *Context) didYouMean(input string, options []string) string {
	if !c.opts.Suggestions {
		return ""
	}
	list := suggestionList(input, options)
	if len(list) == 0 {
		return ""
	}
	quoted := make([]string, len(list))
	for i, s := range list {
		quoted[i] = "`" + s + "`"
	}
	if len(quoted) == 1 {
		return " (Did you mean " + quoted[0] + "?)"
	}
	return " (Did you mean " + strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1] + "?)"
}
