package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fatih/color"
	language "github.com/hanpama/querycheck/internal/language"
	"github.com/hanpama/querycheck/internal/report"
	"github.com/hanpama/querycheck/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func NewValidateCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [flags] FILE...",
		Short: "Validate query documents or captured GraphQL requests",
		Long: "Validate GraphQL query documents against a schema.\n\n" +
			"Each FILE is either a query document (.graphql, .gql) or a captured\n" +
			"GraphQL-over-HTTP request body (.json), a single request or a batch.\n" +
			"Every document is validated independently. The exit status is non-zero\n" +
			"when any document has findings or cannot be parsed.\n\n" +
			"Examples:\n" +
			"  querycheck validate --schema 'schema/*.graphql' queries/*.graphql\n" +
			"  querycheck validate --schema schema.graphql -o json captured.json\n",
		Args: cobra.MinimumNArgs(1),
	}
	keys := addValidationFlags(cmd.Flags())
	cmd.Flags().StringP("output", "o", "human", "Output format. One of: human, json, yaml")
	keys["output"] = "output"

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.loadConfig(cmd.Flags(), keys)
		if err != nil {
			return err
		}
		renderer, err := report.New(cfg.Output, useColor(cmd.OutOrStdout()))
		if err != nil {
			return err
		}
		v, err := cli.newValidator(cfg)
		if err != nil {
			return err
		}
		results, err := checkFiles(context.Background(), v, args, cli.log)
		if err != nil {
			return err
		}
		if err := renderer.Render(cmd.OutOrStdout(), results); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		for _, r := range results {
			if !r.Valid() {
				return ErrRejected
			}
		}
		return nil
	}
	return cmd
}

func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && f == os.Stdout && !color.NoColor
}

// document is one query text to check, named for reporting.
type document struct {
	source string
	query  string
}

// checkFiles validates every document of every path concurrently and
// returns the results in argument order, documents of a file in file order.
func checkFiles(ctx context.Context, v server.Validator, paths []string, log *zap.Logger) ([]report.Result, error) {
	perFile := make([][]report.Result, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			docs, err := readDocuments(path)
			if err != nil {
				perFile[i] = []report.Result{{Source: path, Err: err}}
				return nil
			}
			results := make([]report.Result, len(docs))
			for j, doc := range docs {
				results[j] = checkDocument(v, doc)
			}
			perFile[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []report.Result
	for _, results := range perFile {
		out = append(out, results...)
	}
	log.Debug("validated files", zap.Int("files", len(paths)), zap.Int("documents", len(out)))
	return out, nil
}

func readDocuments(path string) ([]document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return []document{{source: path, query: string(content)}}, nil
	}
	reqs, batch, err := server.DecodeRequests(content)
	if err != nil {
		return nil, fmt.Errorf("request capture: %w", err)
	}
	docs := make([]document, len(reqs))
	for i, req := range reqs {
		docs[i] = document{source: path, query: req.Query}
		if batch {
			docs[i].source = fmt.Sprintf("%s#%d", path, i)
		}
	}
	return docs, nil
}

func checkDocument(v server.Validator, doc document) report.Result {
	res := report.Result{Source: doc.source, DocumentHash: language.SourceHash(doc.query)}
	parsed, err := language.ParseQueryNamed(doc.source, doc.query)
	if err != nil {
		res.Err = syntaxError(err)
		return res
	}
	res.Errors = v.Validate(parsed)
	return res
}

func syntaxError(err error) error {
	var ge *language.Error
	if errors.As(err, &ge) && len(ge.Locations) > 0 {
		return fmt.Errorf("syntax error at %d:%d: %s", ge.Locations[0].Line, ge.Locations[0].Column, ge.Message)
	}
	return fmt.Errorf("syntax error: %w", err)
}
