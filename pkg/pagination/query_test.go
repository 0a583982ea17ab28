package pagination

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

// pagedInts serves total items split into pages of rows.
func pagedInts(total, rows int) PageFunc[int] {
	return func(_ context.Context, pageNo int) (Page[int], error) {
		var items []int
		for i := (pageNo - 1) * rows; i < pageNo*rows && i < total; i++ {
			items = append(items, i)
		}
		return Page[int]{Items: items, PageNo: pageNo, NumOfRows: rows, TotalCount: total}, nil
	}
}

func enabledSource(fetch PageFunc[int]) Source[int] {
	return Source[int]{Key: Key{"test"}, Feed: "test", Enabled: true, Fetch: fetch}
}

func TestQuery_FetchUntilExhausted(t *testing.T) {
	q := NewQuery(enabledSource(pagedInts(25, 10)))
	ctx := context.Background()

	if !q.State().HasNextPage {
		t.Fatal("HasNextPage should be true before the first page")
	}

	wantHasNext := []bool{true, true, false}
	for i, want := range wantHasNext {
		if err := q.FetchNext(ctx); err != nil {
			t.Fatalf("FetchNext() #%d error = %v", i+1, err)
		}
		if got := q.State().HasNextPage; got != want {
			t.Errorf("after page %d HasNextPage = %v, want %v", i+1, got, want)
		}
	}

	state := q.State()
	if len(state.Pages) != 3 {
		t.Fatalf("pages = %d, want 3", len(state.Pages))
	}
	if len(state.Items) != 25 {
		t.Fatalf("items = %d, want 25", len(state.Items))
	}
	for i, v := range state.Items {
		if v != i {
			t.Fatalf("items[%d] = %d, want fetch order", i, v)
		}
	}

	// Exhausted: no further fetches.
	if err := q.FetchNext(ctx); err != nil {
		t.Fatalf("FetchNext() after exhaustion error = %v", err)
	}
	if len(q.State().Pages) != 3 {
		t.Error("FetchNext() after exhaustion should be a no-op")
	}
}

func TestQuery_ZeroTotal(t *testing.T) {
	q := NewQuery(enabledSource(func(_ context.Context, pageNo int) (Page[int], error) {
		return Page[int]{PageNo: 5, NumOfRows: 10, TotalCount: 0}, nil
	}))

	if err := q.FetchNext(context.Background()); err != nil {
		t.Fatalf("FetchNext() error = %v", err)
	}
	if q.State().HasNextPage {
		t.Error("HasNextPage should be false when totalCount is 0")
	}
}

func TestQuery_ErrorKeepsCursor(t *testing.T) {
	var calls []int
	fail := true
	q := NewQuery(enabledSource(func(ctx context.Context, pageNo int) (Page[int], error) {
		calls = append(calls, pageNo)
		if pageNo == 2 && fail {
			return Page[int]{}, errors.New("upstream down")
		}
		return pagedInts(25, 10)(ctx, pageNo)
	}))
	ctx := context.Background()

	if err := q.FetchNext(ctx); err != nil {
		t.Fatalf("page 1 error = %v", err)
	}
	if err := q.FetchNext(ctx); err == nil {
		t.Fatal("page 2 should fail")
	}

	state := q.State()
	if state.Err == nil {
		t.Error("State().Err should hold the failure")
	}
	if len(state.Pages) != 1 {
		t.Errorf("pages = %d, want 1", len(state.Pages))
	}
	if !state.HasNextPage {
		t.Error("HasNextPage should stay true after a failure")
	}
	if state.IsFetching {
		t.Error("IsFetching should be false after the failure")
	}

	fail = false
	if err := q.FetchNext(ctx); err != nil {
		t.Fatalf("retry error = %v", err)
	}

	if want := []int{1, 2, 2}; len(calls) != len(want) || calls[1] != 2 || calls[2] != 2 {
		t.Errorf("fetched pages = %v, want %v", calls, want)
	}
	if q.State().Err != nil {
		t.Error("a successful fetch should clear the error")
	}
}

func TestQuery_Disabled(t *testing.T) {
	var called atomic.Bool
	q := NewQuery(Source[int]{
		Key:     Key{"medicines", "", ""},
		Enabled: false,
		Fetch: func(context.Context, int) (Page[int], error) {
			called.Store(true)
			return Page[int]{}, nil
		},
	})

	if err := q.FetchNext(context.Background()); err != nil {
		t.Fatalf("FetchNext() error = %v", err)
	}
	if called.Load() {
		t.Error("disabled query must not fetch")
	}

	state := q.State()
	if !state.Disabled || state.HasNextPage || len(state.Items) != 0 {
		t.Errorf("unexpected disabled state: %+v", state)
	}
}

func TestQuery_SingleFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32

	q := NewQuery(enabledSource(func(ctx context.Context, pageNo int) (Page[int], error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return pagedInts(25, 10)(ctx, pageNo)
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = q.FetchNext(context.Background())
	}()

	<-started
	if !q.State().IsFetching {
		t.Error("IsFetching should be true while a fetch is outstanding")
	}

	// Concurrent calls while the first is in flight are no-ops.
	for i := 0; i < 5; i++ {
		if err := q.FetchNext(context.Background()); err != nil {
			t.Fatalf("concurrent FetchNext() error = %v", err)
		}
	}

	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("fetch calls = %d, want 1", n)
	}
	if q.State().IsFetching {
		t.Error("IsFetching should be false once the fetch resolved")
	}
}

func TestQuery_ResetDiscardsInFlightPage(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	q := NewQuery(enabledSource(func(ctx context.Context, pageNo int) (Page[int], error) {
		close(started)
		<-release
		return pagedInts(25, 10)(ctx, pageNo)
	}))

	done := make(chan error)
	go func() { done <- q.FetchNext(context.Background()) }()

	<-started
	q.Reset()
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("FetchNext() error = %v", err)
	}
	if n := len(q.State().Pages); n != 0 {
		t.Errorf("pages = %d, want 0 after reset", n)
	}
}
