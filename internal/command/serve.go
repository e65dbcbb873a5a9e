package command

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hanpama/querycheck/internal/config"
	"github.com/hanpama/querycheck/internal/events"
	"github.com/hanpama/querycheck/internal/server"
	"github.com/hanpama/querycheck/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownGrace = 5 * time.Second

func NewServeCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [flags]",
		Short: "Serve validation over GraphQL-over-HTTP",
		Long: "Run an HTTP service answering whether GraphQL requests are valid\n" +
			"against the schema. Requests are never executed.\n\n" +
			"Examples:\n" +
			"  querycheck serve --schema schema.graphql --addr :8080\n",
		Args: cobra.NoArgs,
	}
	keys := addValidationFlags(cmd.Flags())
	fs := cmd.Flags()
	fs.String("addr", ":8080", "Listen address")
	fs.Duration("timeout", 10*time.Second, "Per-request timeout")
	fs.Int64("max-body-bytes", 1<<20, "Largest accepted request body (0 for no limit)")
	fs.Bool("pretty", false, "Indent JSON responses")
	fs.StringSlice("cors", nil, "Allowed CORS origins, * for any")
	fs.String("otlp-endpoint", "", "OTLP/gRPC collector host:port for traces")
	for flag, key := range map[string]string{
		"addr":           "server.addr",
		"timeout":        "server.timeout",
		"max-body-bytes": "server.max_body_bytes",
		"pretty":         "server.pretty",
		"cors":           "server.cors",
		"otlp-endpoint":  "server.otlp_endpoint",
	} {
		keys[flag] = key
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.loadConfig(cmd.Flags(), keys)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return cli.serve(ctx, cfg)
	}
	return cmd
}

// serve runs the validation service until ctx is done, then drains open
// requests.
func (c *CLI) serve(ctx context.Context, cfg *config.Config) error {
	v, err := c.newValidator(cfg)
	if err != nil {
		return err
	}
	bus := events.NewBus()
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Server.OTLPEndpoint, cfg.Server.ServiceName, bus)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			c.log.Warn("failed to flush traces", zap.Error(err))
		}
	}()

	handler, err := newHandler(cfg.Server, v, c.log, bus)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	c.log.Info("serving validation", zap.String("addr", ln.Addr().String()), zap.Strings("schema", cfg.Schema))

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}
	c.log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func newHandler(cfg config.Server, v server.Validator, log *zap.Logger, bus *events.Bus) (http.Handler, error) {
	opts := []server.Option{
		server.WithTimeout(cfg.Timeout),
		server.WithMaxBodyBytes(cfg.MaxBodyBytes),
		server.WithLogger(log),
		server.WithEventBus(bus),
	}
	if cfg.Pretty {
		opts = append(opts, server.WithPretty())
	}
	if len(cfg.CORS) > 0 {
		opts = append(opts, server.WithCORS(cfg.CORS...))
	}
	h, err := server.New(v, opts...)
	if err != nil {
		return nil, err
	}
	return h, nil
}
