package cli

import (
	"os/signal"
	"sync"
	"syscall"

	"sheetdesk-cli/internal/push"

	"github.com/spf13/cobra"
)

func newWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow server push events and print them as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Events arrive on the listener goroutine; serialize writes.
			var mu sync.Mutex
			emit := func(eventType, sheetName string) {
				mu.Lock()
				defer mu.Unlock()
				out := map[string]any{"type": eventType}
				if sheetName != "" {
					out["sheet_name"] = sheetName
				}
				_ = writeOut(cmd, app, out)
			}

			log := newLogger(app)
			listener := push.NewListener(resolveServerURL(app), push.Handlers{
				ConfigUpdated: func() { emit(push.EventConfigUpdated, "") },
				DataProcessed: func(sheetName string) { emit(push.EventDataProcessed, sheetName) },
				StateChange: func(s push.State) {
					log.Debug("push connection state changed", "state", s.String())
				},
			}, log)
			defer listener.Close()

			listener.Connect()
			<-ctx.Done()
			return nil
		},
	}
}
