package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"ExoVista/internal/service/stream"
	"ExoVista/internal/services/ingest"
)

var streamFlags struct {
	url     string
	timeout time.Duration
}

var streamCmd = &cobra.Command{
	Use:   "stream <file.csv|file.json>",
	Short: "Send a file's observations to a running server over the websocket API",
	Args:  cobra.ExactArgs(1),
	RunE:  runStream,
}

func init() {
	f := streamCmd.Flags()
	f.StringVar(&streamFlags.url, "url", "ws://localhost:8080/api/stream", "websocket endpoint")
	f.DurationVar(&streamFlags.timeout, "timeout", 30*time.Second, "overall timeout")
}

func runStream(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	rows, err := ingest.NewParser().ParseFile(filepath.Base(args[0]), f)
	f.Close()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if streamFlags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, streamFlags.timeout)
		defer cancel()
	}

	var reqs []stream.Request
	for _, row := range rows {
		if row.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "line %d: %v\n", row.Line, row.Err)
			continue
		}
		reqs = append(reqs, stream.Request{Observation: row.Observation, Mode: "file"})
	}

	c := stream.New(streamFlags.url, 0)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Close()

	enc := json.NewEncoder(cmd.OutOrStdout())
	return c.Exchange(ctx, reqs, func(r stream.Reply) error {
		if r.Err != "" {
			return enc.Encode(map[string]string{"error": r.Err})
		}
		return enc.Encode(r.Report)
	})
}
