package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hanpama/querycheck/internal/command"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var log *zap.Logger
	root := command.NewRootCommand(command.Env{
		Version: version,
		NewLogger: func(debug bool) (*zap.Logger, error) {
			var err error
			log, err = newLogger(debug)
			return log, err
		},
	})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if log != nil {
		_ = log.Sync()
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, command.ErrRejected):
		return 1
	default:
		fmt.Fprintf(stderr, "querycheck: %v\n", err)
		return 2
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
