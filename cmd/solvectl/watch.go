package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/spf13/cobra"

	"github.com/dreamware/solvernet/internal/cluster"
	"github.com/dreamware/solvernet/internal/statustable"
)

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\x1b[H\x1b[2J"

// maxLineBytes bounds one stream message.
const maxLineBytes = 1 << 20

func newWatchCmd() *cobra.Command {
	var (
		addr   string
		redraw bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the ranked worker roster as the balancer pushes it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var d net.Dialer
			conn, err := d.DialContext(cmd.Context(), "tcp", addr)
			if err != nil {
				return fmt.Errorf("connect to health stream: %w", err)
			}
			defer conn.Close()
			fmt.Fprintf(cmd.ErrOrStderr(), "connected to %s\n", addr)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
			defer stop()

			err = watch(conn, cmd.OutOrStdout(), redraw)
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "localhost:5000", "balancer health stream address")
	cmd.Flags().BoolVar(&redraw, "clear", true, "clear the screen before each table")
	return cmd
}

// watch renders every pushed roster until the stream ends. A clean close by
// the balancer is reported as io.EOF wrapped in a message.
func watch(r io.Reader, w io.Writer, redraw bool) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	for sc.Scan() {
		var ranked []cluster.RankedWorker
		if err := json.Unmarshal(sc.Bytes(), &ranked); err != nil {
			return fmt.Errorf("decode roster: %w", err)
		}
		if redraw {
			fmt.Fprint(w, clearScreen)
		}
		fmt.Fprintln(w, statustable.Render(ranked))
		fmt.Fprintln(w, statustable.Summary(ranked))
	}
	if err := sc.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return fmt.Errorf("health stream closed: %w", io.EOF)
}
