// cmd/f1-previews/serve.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"f1-previews/internal/api"
	"f1-previews/internal/common/config"

	"github.com/spf13/cobra"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			a.loadState(ctx)

			router := api.NewRouter(api.Deps{
				Previews: a.previews,
				Pipeline: a.generator,
				Prompts:  a.prompts,
				Results: map[string]api.ResultsSource{
					a.f1api.Name():  a.f1api,
					a.openf1.Name(): a.openf1,
				},
				DefaultSource: a.cfg.Generation.ResultsSource,
				Schedule:      a.f1api,
				Championship:  a.f1api,
				Season:        a.season,
				Logger:        a.log,
			})

			srv := &http.Server{
				Addr:         a.cfg.Server.Address,
				Handler:      router,
				ReadTimeout:  config.GetDuration(a.cfg.Server.ReadTimeout),
				WriteTimeout: config.GetDuration(a.cfg.Server.WriteTimeout),
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("HTTP server listening", map[string]interface{}{"address": srv.Addr})
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.log.Info("shutdown signal received, stopping server", nil)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(a.cfg.Server.ShutdownTimeout))
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			a.log.Info("server stopped", nil)
			return nil
		},
	}
}
