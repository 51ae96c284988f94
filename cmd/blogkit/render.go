package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eringen/blogkit/markdown"
	"github.com/eringen/blogkit/preview"
)

func newRenderCmd() *cobra.Command {
	var watch bool
	var out string
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a markdown file to HTML (stdin when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := markdown.New(markdown.WithLogger(getEnv(cmd).logger))
			write := func(src []byte) error {
				html := r.Render(string(src))
				if out == "" {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), html)
					return err
				}
				return os.WriteFile(out, []byte(html+"\n"), 0o644)
			}

			if len(args) == 0 {
				if watch {
					return fmt.Errorf("--watch needs a file")
				}
				src, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				return write(src)
			}
			if !watch {
				src, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				return write(src)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			logger := getEnv(cmd).logger
			logger.Info("blogkit: watching", "file", args[0])
			return preview.WatchFile(ctx, args[0], preview.DefaultDelay, func(src []byte) {
				if err := write(src); err != nil {
					logger.Error("blogkit: render", "file", args[0], "err", err)
					return
				}
				logger.Debug("blogkit: rendered", "file", args[0], "bytes", len(src))
			})
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-render whenever the file changes")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write HTML to this file instead of stdout")
	return cmd
}
