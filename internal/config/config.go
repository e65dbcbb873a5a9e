package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read, e.g.
// QUERYCHECK_SERVER_ADDR for server.addr.
const EnvPrefix = "QUERYCHECK"

// Config is everything a validate or serve run needs.
type Config struct {
	// Schema lists SDL files or glob patterns making up the schema.
	Schema              []string `mapstructure:"schema" validate:"required,min=1,dive,required"`
	MaxErrors           int      `mapstructure:"max_errors" validate:"gte=0"`
	Rules               []string `mapstructure:"rules"`
	DisabledRules       []string `mapstructure:"disabled_rules"`
	Suggestions         bool     `mapstructure:"suggestions"`
	ReturnTypeConflicts bool     `mapstructure:"return_type_conflicts"`
	Output              string   `mapstructure:"output" validate:"oneof=human json yaml"`
	Server              Server   `mapstructure:"server"`
}

type Server struct {
	Addr         string        `mapstructure:"addr" validate:"required,hostname_port"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes" validate:"gte=0"`
	Pretty       bool          `mapstructure:"pretty"`
	// CORS lists allowed origins; "*" allows any. Empty disables CORS.
	CORS         []string `mapstructure:"cors"`
	OTLPEndpoint string   `mapstructure:"otlp_endpoint" validate:"omitempty,hostname_port"`
	ServiceName  string   `mapstructure:"service_name" validate:"required"`
}

var defaults = map[string]any{
	"schema":                []string{},
	"max_errors":            0,
	"rules":                 []string{},
	"disabled_rules":        []string{},
	"suggestions":           false,
	"return_type_conflicts": false,
	"output":                "human",
	"server.addr":           ":8080",
	"server.timeout":        10 * time.Second,
	"server.max_body_bytes": int64(1 << 20),
	"server.pretty":         false,
	"server.cors":           []string{},
	"server.otlp_endpoint":  "",
	"server.service_name":   "querycheck",
}

// Loader layers defaults, an optional config file, environment variables
// and command line flags, in increasing precedence.
type Loader struct {
	v *viper.Viper
}

func NewLoader() *Loader {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// BindFlag makes flag override key when it is set on the command line.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if _, ok := defaults[key]; !ok {
		return fmt.Errorf("config: unknown key %q", key)
	}
	if err := l.v.BindPFlag(key, flag); err != nil {
		return fmt.Errorf("config: bind %s: %w", key, err)
	}
	return nil
}

// Load reads file, if not empty, and returns the merged, checked
// configuration.
func (l *Loader) Load(file string) (*Config, error) {
	if file != "" {
		l.v.SetConfigFile(file)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	}
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := Check(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Check validates cfg field constraints and reports every violation at once.
func Check(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("config: %w", err)
	}
	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		msgs[i] = describe(fe)
	}
	return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	key := fe.Namespace()
	if i := strings.IndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", key, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", key, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", key, fe.Param(), fe.Value())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port, got %q", key, fe.Value())
	default:
		return fmt.Sprintf("%s fails %s", key, fe.Tag())
	}
}
