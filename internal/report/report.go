package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	language "github.com/hanpama/querycheck/internal/language"
	"github.com/hanpama/querycheck/internal/validation"
	"gopkg.in/yaml.v3"
)

// Result is the outcome of checking one document.
type Result struct {
	// Source names the document, e.g. a file path or "requests.json#2".
	Source       string
	DocumentHash string
	Errors       validation.List
	// Err is set when the document could not be read or parsed.
	Err error
}

func (r Result) Valid() bool { return r.Err == nil && len(r.Errors) == 0 }

type Renderer interface {
	Render(w io.Writer, results []Result) error
}

// Formats lists the accepted output format names.
var Formats = []string{"human", "json", "yaml"}

// New returns the renderer for format. Colour only applies to human output.
func New(format string, colour bool) (Renderer, error) {
	switch format {
	case "", "human":
		return Human{Color: colour}, nil
	case "json":
		return JSON{Indent: "  "}, nil
	case "yaml":
		return YAML{}, nil
	default:
		return nil, fmt.Errorf("report: unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// Human prints one line per finding, compiler style, and a summary.
type Human struct {
	Color bool
}

func (h Human) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if h.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (h Human) Render(w io.Writer, results []Result) error {
	source := h.paint(color.Bold)
	bad := h.paint(color.FgRed)
	good := h.paint(color.FgGreen)
	faint := h.paint(color.Faint)

	var failed, findings int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			if _, err := fmt.Fprintf(w, "%s: %s %s\n", source.Sprint(r.Source), bad.Sprint("error:"), r.Err); err != nil {
				return err
			}
		case len(r.Errors) == 0:
			if _, err := fmt.Fprintf(w, "%s: %s\n", source.Sprint(r.Source), good.Sprint("ok")); err != nil {
				return err
			}
		default:
			failed++
			findings += len(r.Errors)
			for _, e := range r.Errors {
				if _, err := fmt.Fprintf(w, "%s%s: %s %s\n",
					source.Sprint(r.Source), position(e.Locations), e.Message, faint.Sprintf("[%s]", e.Code())); err != nil {
					return err
				}
			}
		}
	}
	summary := fmt.Sprintf("%d %s checked, %d failed, %d %s",
		len(results), plural(len(results), "document", "documents"),
		failed, findings, plural(findings, "finding", "findings"))
	if failed > 0 {
		summary = bad.Sprint(summary)
	} else {
		summary = good.Sprint(summary)
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

func position(locs []language.Location) string {
	if len(locs) == 0 {
		return ""
	}
	return fmt.Sprintf(":%d:%d", locs[0].Line, locs[0].Column)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

type JSON struct {
	Indent string
}

func (j JSON) Render(w io.Writer, results []Result) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", j.Indent)
	return enc.Encode(views(results))
}

type YAML struct{}

func (YAML) Render(w io.Writer, results []Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(views(results)); err != nil {
		return err
	}
	return enc.Close()
}

type documentView struct {
	Source       string        `json:"source" yaml:"source"`
	Valid        bool          `json:"valid" yaml:"valid"`
	DocumentHash string        `json:"documentHash,omitempty" yaml:"documentHash,omitempty"`
	Failure      string        `json:"failure,omitempty" yaml:"failure,omitempty"`
	Errors       []findingView `json:"errors" yaml:"errors"`
}

type findingView struct {
	Message    string         `json:"message" yaml:"message"`
	Rule       string         `json:"rule" yaml:"rule"`
	Path       []string       `json:"path,omitempty" yaml:"path,omitempty,flow"`
	Locations  []locationView `json:"locations,omitempty" yaml:"locations,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

type locationView struct {
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

func views(results []Result) []documentView {
	out := make([]documentView, len(results))
	for i, r := range results {
		v := documentView{
			Source:       r.Source,
			Valid:        r.Valid(),
			DocumentHash: r.DocumentHash,
			Errors:       make([]findingView, len(r.Errors)),
		}
		if r.Err != nil {
			v.Failure = r.Err.Error()
		}
		for j, e := range r.Errors {
			v.Errors[j] = findingOf(e)
		}
		out[i] = v
	}
	return out
}

func findingOf(e *validation.Error) findingView {
	f := findingView{Message: e.Message, Rule: e.Rule, Extensions: e.Extensions}
	for _, p := range e.Path {
		f.Path = append(f.Path, fmt.Sprint(p))
	}
	for _, l := range e.Locations {
		f.Locations = append(f.Locations, locationView{Line: l.Line, Column: l.Column})
	}
	return f
}
