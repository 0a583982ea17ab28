package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/medimatch/medimatch/pkg/medicine"
	"github.com/medimatch/medimatch/pkg/pagination"
)

func searchCmd(opts *options) *cobra.Command {
	var (
		searchType string
		pages      int
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search medicines by product name or symptom",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			fc, err := opts.newFeed(cmd)
			if err != nil {
				return err
			}

			src := fc.Search(args[0], medicine.SearchType(searchType))
			if !src.Enabled {
				return errors.New(medicine.MsgSearchParamsRequired)
			}

			store := pagination.NewStore[medicine.MedicineItem](pagination.DefaultStoreConfig())
			q := store.Open(src)

			if all {
				return fetchAll(ctx, cmd.OutOrStdout(), q, src.Fetch)
			}

			state, err := fetchPages(ctx, q, pages)
			if err != nil {
				return err
			}
			printMedicines(cmd.OutOrStdout(), state.Items)
			printFooter(cmd.OutOrStdout(), state)
			return nil
		},
	}

	cmd.Flags().StringVarP(&searchType, "type", "t", string(medicine.SearchTypeMedicine), "search type: medicine or symptom")
	cmd.Flags().IntVarP(&pages, "pages", "p", 1, "number of pages to fetch")
	cmd.Flags().BoolVar(&all, "all", false, "fetch every page")
	return cmd
}

// fetchPages walks q until n pages are loaded or the result set ends.
func fetchPages[T any](ctx context.Context, q *pagination.Query[T], n int) (pagination.State[T], error) {
	if n < 1 {
		n = 1
	}
	for {
		state := q.State()
		if !state.HasNextPage || len(state.Pages) >= n {
			return state, nil
		}
		if err := q.FetchNext(ctx); err != nil {
			return state, err
		}
	}
}

// fetchAll loads page 1 through q and the remaining pages in parallel.
func fetchAll(ctx context.Context, w io.Writer, q *pagination.Query[medicine.MedicineItem], fetch pagination.PageFunc[medicine.MedicineItem]) error {
	state, err := fetchPages(ctx, q, 1)
	if err != nil {
		return err
	}
	if len(state.Pages) == 0 {
		return nil
	}

	first := state.Pages[0]
	fetched, err := pagination.NewBatchFetcher[medicine.MedicineItem](pagination.DefaultConfig()).FetchAll(ctx, fetch, &first)
	printMedicines(w, pagination.Flatten(fetched))
	if err != nil {
		return fmt.Errorf("fetched %d pages: %w", len(fetched), err)
	}
	fmt.Fprintf(w, "\n%d results\n", first.TotalCount)
	return nil
}
