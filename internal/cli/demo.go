package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"sheetdesk-cli/internal/model"
	"sheetdesk-cli/internal/server"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// demoSeed is a small starting configuration for trying out the panel.
func demoSeed() *model.ConfigSnapshot {
	return &model.ConfigSnapshot{
		GlobalSettings: model.GlobalSettings{TransferDestination: model.DefaultTransferDestination},
		SheetConfigs: []model.SheetConfig{
			{
				SheetID:             uuid.NewString(),
				SheetName:           "Sheet A",
				SpreadsheetIDs:      "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms",
				BankDestination:     "0123456789",
				BankNameDestination: "ACME BANK",
				DanaUsed:            "no",
			},
			{
				SheetID:             uuid.NewString(),
				SheetName:           "Sheet B",
				SpreadsheetIDs:      "1qpyC0XzvTcKT6EISywvqESX3A0MwQoFDE8p-Bll4hps",
				BankDestination:     "9876543210",
				BankNameDestination: "EXAMPLE SAVINGS",
				DanaUsed:            "yes",
			},
		},
	}
}

func newDemoCmd(app *App) *cobra.Command {
	var addr string
	var seed bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a local demo backend (config API + SSE + live status page)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(app)
			var seedSnap *model.ConfigSnapshot
			if seed {
				seedSnap = demoSeed()
			}
			srv, err := server.NewServer(server.Config{Logger: log, Seed: seedSnap})
			if err != nil {
				return err
			}

			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("demo backend listening", "addr", addr)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOr("SHEETDESK_DEMO_ADDR", "localhost:8000"), "Listen address")
	cmd.Flags().BoolVar(&seed, "seed", false, "Start with a small example configuration")
	return cmd
}
