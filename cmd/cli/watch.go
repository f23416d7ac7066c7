package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// downloadCommand mirrors the server's event channel command
type downloadCommand struct {
	Action     string   `json:"action"`
	References []string `json:"references"`
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream download events from the server",
	Long: `Connects to the server's event channel and prints every event as it happens.
With --download, a download command is sent first and its job streams into the
same output. Disconnecting never cancels a job.`,
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		downloads, _ := cmd.Flags().GetStringSlice("download")
		jsonOut, _ := cmd.Flags().GetBool("json")

		query := ""
		if jsonOut {
			query = "format=json"
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		exitOnError(watchEvents(ctx, websocketURL(serverURL, query), downloads, os.Stdout))
	},
}

// watchEvents prints every message from the event channel until ctx ends or
// the server closes the connection
func watchEvents(ctx context.Context, wsURL string, downloads []string, out io.Writer) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}
	defer conn.Close()

	if len(downloads) > 0 {
		if err := conn.WriteJSON(downloadCommand{Action: "download", References: downloads}); err != nil {
			return fmt.Errorf("failed to send download command: %w", err)
		}
	}

	done := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			fmt.Fprintln(out, string(data))
		}
	}()

	select {
	case <-ctx.Done():
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
		<-done
		return nil
	case err := <-done:
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			return nil
		}
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) {
			return fmt.Errorf("server closed the event channel: %s", closeErr.Text)
		}
		return err
	}
}

func init() {
	watchCmd.Flags().StringSlice("download", nil, "Reference to fetch before watching (repeatable)")
	watchCmd.Flags().Bool("json", false, "Print events as JSON objects")
}
