package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medimatch/medimatch/pkg/feed"
	"github.com/medimatch/medimatch/pkg/pagination"
)

// Recommendation kinds of the similar command.
const (
	byIngredient = "ingredient"
	byEfficacy   = "efficacy"
)

func similarCmd(opts *options) *cobra.Command {
	var (
		by         string
		ingredient string
		efficacy   string
		pages      int
	)

	cmd := &cobra.Command{
		Use:   "similar <itemSeq>",
		Short: "List medicines with the same ingredient or efficacy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			itemSeq := args[0]
			if by != byIngredient && by != byEfficacy {
				return fmt.Errorf("--by must be %q or %q, got %q", byIngredient, byEfficacy, by)
			}

			fc, err := opts.newFeed(cmd)
			if err != nil {
				return err
			}

			profile, err := fc.Profile(ctx, itemSeq)
			if err != nil {
				return fmt.Errorf("%s: %w", itemSeq, err)
			}

			w := cmd.OutOrStdout()

			if by == byIngredient {
				if ingredient == "" && len(profile.MainIngredients) > 0 {
					ingredient = profile.MainIngredients[0]
				}
				src := fc.ByIngredient(itemSeq, ingredient)
				if !src.Enabled {
					fmt.Fprintln(w, "No ingredient information for this medicine.")
					return nil
				}

				state, err := fetchPages(ctx, pagination.NewQuery(src), pages)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Same ingredient as %s (%s)\n\n", profile.Medicine.ItemName, ingredient)
				printPermissions(w, feed.ExcludeItem(state.Items, itemSeq, feed.PermissionSeq))
				printFooter(w, state)
				return nil
			}

			if efficacy == "" {
				efficacy = profile.Medicine.EfcyQesitm
			}
			src := fc.ByEfficacy(itemSeq, efficacy)
			if !src.Enabled {
				fmt.Fprintln(w, "No efficacy information for this medicine.")
				return nil
			}

			state, err := fetchPages(ctx, pagination.NewQuery(src), pages)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Same efficacy as %s\n\n", profile.Medicine.ItemName)
			printMedicines(w, feed.ExcludeItem(state.Items, itemSeq, feed.MedicineSeq))
			printFooter(w, state)
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", byIngredient, "recommend by ingredient or efficacy")
	cmd.Flags().StringVar(&ingredient, "ingredient", "", "ingredient name (default: first main ingredient)")
	cmd.Flags().StringVar(&efficacy, "efficacy", "", "efficacy text (default: the medicine's efficacy)")
	cmd.Flags().IntVarP(&pages, "pages", "p", 1, "number of pages to fetch")
	return cmd
}
