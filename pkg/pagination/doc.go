// Package pagination aggregates page-numbered result sets from the upstream
// medicine API.
//
// The upstream service reports pageNo, numOfRows and totalCount on every
// page. A Query walks such a result set one page at a time (the
// infinite-scroll pattern): FetchNext fetches the next page, State exposes
// the flattened items together with fetching, error and has-more flags.
// A Store keeps one Query per query key so that repeated lookups of the same
// search reuse the pages already fetched.
//
// Example usage:
//
//	store := pagination.NewStore[medicine.MedicineItem](pagination.DefaultStoreConfig())
//	q := store.Open(source)
//	for q.State().HasNextPage {
//		if err := q.FetchNext(ctx); err != nil {
//			return err
//		}
//	}
//	items := q.State().Items
//
// BatchFetcher covers the other access pattern: fetch page 1 to learn the
// page count, then fetch the remaining pages in parallel.
package pagination
