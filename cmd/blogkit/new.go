package main

import (
	"github.com/spf13/cobra"

	"github.com/eringen/blogkit/scaffold"
)

func newNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new <dir>",
		Short: "Create a new blog with a config file, a welcome post and a stylesheet",
		Args:  cobra.ExactArgs(1),
		// Creating a site needs no existing configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			data, err := scaffold.NewData(dir)
			if err != nil {
				return err
			}
			files, err := scaffold.Write(dir, data)
			if err != nil {
				return err
			}
			cmd.Printf("Created %s:\n", dir)
			for _, f := range files {
				cmd.Printf("  %s\n", f)
			}
			cmd.Printf("\nAdmin password: %s\n\nNext steps:\n  cd %s\n  blogkit serve\n", data.Password, dir)
			return nil
		},
	}
}
