package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func showCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <itemSeq>",
		Short: "Show a medicine with its ingredient table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			fc, err := opts.newFeed(cmd)
			if err != nil {
				return err
			}

			profile, err := fc.Profile(ctx, args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			printProfile(cmd.OutOrStdout(), profile)
			return nil
		},
	}
}
