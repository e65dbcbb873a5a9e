package command

import (
	"errors"
	"fmt"

	"github.com/hanpama/querycheck/internal/config"
	"github.com/hanpama/querycheck/internal/schema"
	"github.com/hanpama/querycheck/internal/validation"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// ErrRejected is returned by validate when at least one document has
// findings or could not be parsed. The findings themselves have already
// been printed.
var ErrRejected = errors.New("one or more documents were rejected")

// Env carries what the binary provides to every command.
type Env struct {
	Version string
	// NewLogger builds the process logger once flags are parsed. Nil means
	// logging is discarded.
	NewLogger func(debug bool) (*zap.Logger, error)
}

// CLI is the state shared by the root command and its subcommands.
type CLI struct {
	env        Env
	configFile string
	debug      bool
	loader     *config.Loader
	log        *zap.Logger
}

func NewRootCommand(env Env) *cobra.Command {
	cli := &CLI{env: env, loader: config.NewLoader(), log: zap.NewNop()}
	cmd := &cobra.Command{
		Use:           "querycheck",
		Short:         "Validate GraphQL documents against a schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cli.env.NewLogger == nil {
				return nil
			}
			log, err := cli.env.NewLogger(cli.debug)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			cli.log = log
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cli.configFile, "config", "", "Config file (YAML, JSON or TOML)")
	cmd.PersistentFlags().BoolVar(&cli.debug, "debug", false, "Log at debug level")

	cmd.AddCommand(
		NewValidateCommand(cli),
		NewServeCommand(cli),
		NewRulesCommand(),
		NewVersionCommand(cli),
	)
	return cmd
}

// loadConfig binds the named flags of fs over their config keys and loads
// the layered configuration.
func (c *CLI) loadConfig(fs *pflag.FlagSet, flagKeys map[string]string) (*config.Config, error) {
	for flag, key := range flagKeys {
		f := fs.Lookup(flag)
		if f == nil {
			return nil, fmt.Errorf("no flag named %q", flag)
		}
		if err := c.loader.BindFlag(key, f); err != nil {
			return nil, err
		}
	}
	return c.loader.Load(c.configFile)
}

// newValidator loads the schema files of cfg and configures a validator for
// them.
func (c *CLI) newValidator(cfg *config.Config) (*validation.Validator, error) {
	sch, err := schema.LoadFiles(cfg.Schema...)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	c.log.Debug("loaded schema", zap.Strings("patterns", cfg.Schema), zap.Int("types", len(sch.Types)))
	return validation.New(sch,
		validation.WithMaxErrors(cfg.MaxErrors),
		validation.WithRules(cfg.Rules...),
		validation.WithoutRules(cfg.DisabledRules...),
		validation.WithSuggestions(cfg.Suggestions),
		validation.WithReturnTypeConflicts(cfg.ReturnTypeConflicts),
		validation.WithLogger(c.log),
	)
}

// addValidationFlags declares the flags shared by validate and serve and
// returns their config keys.
func addValidationFlags(fs *pflag.FlagSet) map[string]string {
	fs.StringSlice("schema", nil, "SDL files or glob patterns making up the schema")
	fs.Int("max-errors", 0, "Stop reporting field conflicts after this many (0 for no limit)")
	fs.StringSlice("rules", nil, "Run only these rules")
	fs.StringSlice("disable-rules", nil, "Skip these rules")
	fs.Bool("suggestions", false, "Add did-you-mean hints to messages")
	fs.Bool("return-type-conflicts", false, "Report fields that merge with different return types")
	return map[string]string{
		"schema":                "schema",
		"max-errors":            "max_errors",
		"rules":                 "rules",
		"disable-rules":         "disabled_rules",
		"suggestions":           "suggestions",
		"return-type-conflicts": "return_type_conflicts",
	}
}
