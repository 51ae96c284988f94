package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/blogkit"
	"github.com/eringen/blogkit/views"
)

type ctxKey string

const envKey ctxKey = "env"

// env is what PersistentPreRunE resolves for every subcommand.
type env struct {
	v      *viper.Viper
	cfg    blogkit.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	var verbose bool

	cmd := &cobra.Command{
		Use:           "blogkit",
		Short:         "blogkit - a personal blog engine built with Go, Echo and templ",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			cfg, err := blogkit.LoadConfig(v)
			if err != nil {
				return err
			}
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)

			cmd.SetContext(context.WithValue(cmd.Context(), envKey, &env{v: v, cfg: cfg, logger: logger}))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (yaml|toml|json)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newNewCmd())
	cmd.AddCommand(newVersionCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }
	return cmd
}

func getEnv(cmd *cobra.Command) *env {
	e, ok := cmd.Context().Value(envKey).(*env)
	if !ok {
		panic("blogkit: command context not initialized")
	}
	return e
}

// newApp builds the application with the default theme.
func newApp(cmd *cobra.Command) (*blogkit.App, error) {
	e := getEnv(cmd)
	app := blogkit.New(e.cfg, views.Default(), blogkit.WithLogger(e.logger))
	if err := app.Init(cmd.Context()); err != nil {
		return nil, errors.Join(err, app.Close())
	}
	return app, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the blogkit version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Printf("blogkit %s\n", version)
			return nil
		},
	}
}
