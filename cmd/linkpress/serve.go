package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/linkpress"
)

func newServeCommand(o *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server.",
		Example: `
LINKPRESS_ADMIN_PASSWORD=secret LINKPRESS_SESSION_SECRET=$(openssl rand -hex 32) linkpress serve
linkpress serve --addr :8080 --config /etc/linkpress.yaml
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := o.siteConfig()
			if addr != "" {
				cfg.Addr = addr
			}
			return serve(cmd.Context(), o, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config).")
	return cmd
}

func serve(ctx context.Context, o *options, cfg linkpress.SiteConfig) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := linkpress.New(cfg)
	app.Echo.Logger = o.logger
	if err := app.Init(ctx); err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() {
		o.logger.Infof("listening on %s", app.Config.Addr)
		errc <- app.Start(ctx)
	}()

	select {
	case err := <-errc:
		app.Close()
		return err
	case <-ctx.Done():
	}

	o.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
