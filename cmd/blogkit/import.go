package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/eringen/blogkit"
)

func newImportCmd() *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "import [dir]",
		Short: "Copy markdown posts with front matter into the database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := getEnv(cmd)
			dir := e.cfg.Posts.LocalDir
			if len(args) == 1 {
				dir = args[0]
			}
			posts, loadErr := blogkit.LoadLocalPosts(dir)
			if loadErr != nil {
				e.logger.Warn("blogkit: some files were skipped", "dir", dir, "err", loadErr)
			}

			store, err := blogkit.NewStore(e.cfg.Database.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			var created, updated, skipped int
			for _, p := range posts {
				err := store.CreatePost(ctx, p)
				switch {
				case err == nil:
					created++
				case errors.Is(err, blogkit.ErrDuplicateID) && overwrite:
					if err := store.UpdatePost(ctx, p.ID, blogkit.PostPatch{
						Title:   &p.Title,
						Tag:     &p.Tag,
						Summary: &p.Summary,
						Content: &p.Content,
						Image:   &p.Image,
						Series:  &p.Series,
					}); err != nil {
						return err
					}
					updated++
				case errors.Is(err, blogkit.ErrDuplicateID):
					skipped++
				default:
					return err
				}
			}
			cmd.Printf("imported %d, updated %d, skipped %d existing\n", created, updated, skipped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "update posts whose id already exists")
	return cmd
}
