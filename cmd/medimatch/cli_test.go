package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/medimatch/medimatch/internal/server"
	"github.com/medimatch/medimatch/internal/testutil"
	"github.com/medimatch/medimatch/pkg/client"
	"github.com/medimatch/medimatch/pkg/medicine"
	"github.com/medimatch/medimatch/pkg/pagination"
)

func newAPIServer(t *testing.T) string {
	t.Helper()

	mock := testutil.NewMockUpstream()
	t.Cleanup(mock.Close)

	cfg := client.DefaultConfig(testutil.TestServiceKey)
	cfg.BaseURL = mock.URL()
	cfg.Retry.MaxAttempts = 1
	upstream, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}

	svc := medicine.NewService(upstream, medicine.DefaultConfig(), zerolog.Nop())
	api := httptest.NewServer(server.New(svc, zerolog.Nop()).Handler())
	t.Cleanup(api.Close)
	return api.URL
}

// run executes the CLI with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestSearch_FirstPage(t *testing.T) {
	api := newAPIServer(t)

	out, err := run(t, "--api-url", api, "search", "해열진통정")
	if err != nil {
		t.Fatalf("search error = %v", err)
	}

	if !strings.Contains(out, "해열진통정1호") || strings.Contains(out, "해열진통정11호") {
		t.Errorf("expected only the first page:\n%s", out)
	}
	if !strings.Contains(out, "page 1 of 3, 23 results") {
		t.Errorf("missing footer:\n%s", out)
	}
	if !strings.Contains(out, "--pages 2") {
		t.Errorf("missing next page hint:\n%s", out)
	}
}

func TestSearch_Pages(t *testing.T) {
	api := newAPIServer(t)

	out, err := run(t, "--api-url", api, "search", "해열진통정", "--pages", "5")
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	if !strings.Contains(out, "해열진통정23호") {
		t.Errorf("last item missing:\n%s", out)
	}
	if !strings.Contains(out, "page 3 of 3") || strings.Contains(out, "more results") {
		t.Errorf("unexpected footer:\n%s", out)
	}
}

func TestSearch_All(t *testing.T) {
	api := newAPIServer(t)

	out, err := run(t, "--api-url", api, "search", "해열진통정", "--all")
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	for _, name := range []string{"해열진통정1호", "해열진통정15호", "해열진통정23호"} {
		if !strings.Contains(out, name) {
			t.Errorf("missing %s", name)
		}
	}
	if !strings.Contains(out, "23 results") {
		t.Errorf("missing result count:\n%s", out)
	}
}

func TestSearch_BySymptom(t *testing.T) {
	api := newAPIServer(t)

	out, err := run(t, "--api-url", api, "search", "생리통", "--type", "symptom")
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	if !strings.Contains(out, "게보린정") {
		t.Errorf("expected 게보린정:\n%s", out)
	}
}

func TestSearch_InvalidParamsSkipNetwork(t *testing.T) {
	var hits atomic.Int32
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer api.Close()

	tests := [][]string{
		{"search", "   "},
		{"search", "타이레놀", "--type", "brand"},
	}
	for _, args := range tests {
		_, err := run(t, append([]string{"--api-url", api.URL}, args...)...)
		if err == nil || err.Error() != medicine.MsgSearchParamsRequired {
			t.Errorf("%v: error = %v", args, err)
		}
	}

	if n := hits.Load(); n != 0 {
		t.Errorf("API requests = %d, want 0", n)
	}
}

func TestShow(t *testing.T) {
	api := newAPIServer(t)

	out, err := run(t, "--api-url", api, "show", testutil.SeqGeworin)
	if err != nil {
		t.Fatalf("show error = %v", err)
	}

	for _, want := range []string{"게보린정", "[효능]", "중추신경흥분제", "카페인무수물", "50 밀리그램", "Caffeine Anhydrous"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestShow_Errors(t *testing.T) {
	api := newAPIServer(t)

	if _, err := run(t, "--api-url", api, "show", testutil.SeqNotFound); err == nil {
		t.Error("expected not found error")
	}
	if _, err := run(t, "--api-url", api, "show", "abc"); err == nil {
		t.Error("expected invalid code error")
	}
}

func TestSimilar_ByIngredient(t *testing.T) {
	api := newAPIServer(t)

	out, err := run(t, "--api-url", api, "similar", testutil.SeqTylenol, "--pages", "3")
	if err != nil {
		t.Fatalf("similar error = %v", err)
	}
	if !strings.Contains(out, "(Acetaminophen)") {
		t.Errorf("missing ingredient heading:\n%s", out)
	}
	if strings.Contains(out, testutil.SeqTylenol+" ") {
		t.Errorf("viewed medicine listed:\n%s", out)
	}
	if !strings.Contains(out, "해열진통정23호") {
		t.Errorf("missing last recommendation:\n%s", out)
	}
}

func TestSimilar_ByEfficacy(t *testing.T) {
	api := newAPIServer(t)

	out, err := run(t, "--api-url", api, "similar", testutil.SeqTylenol, "--by", "efficacy", "--efficacy", "두통")
	if err != nil {
		t.Fatalf("similar error = %v", err)
	}
	if !strings.Contains(out, "게보린정") {
		t.Errorf("expected 게보린정:\n%s", out)
	}
	if !strings.Contains(out, "more results") {
		t.Errorf("expected more results hint:\n%s", out)
	}
}

func TestSimilar_NoIngredientData(t *testing.T) {
	api := newAPIServer(t)

	out, err := run(t, "--api-url", api, "similar", testutil.SeqNoIngr)
	if err != nil {
		t.Fatalf("similar error = %v", err)
	}
	if !strings.Contains(out, "No ingredient information") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestSimilar_InvalidBy(t *testing.T) {
	if _, err := run(t, "similar", testutil.SeqTylenol, "--by", "color"); err == nil {
		t.Error("expected error for unknown --by")
	}
}

func TestPrintFooter(t *testing.T) {
	tests := []struct {
		name  string
		state pagination.State[int]
		want  string
	}{
		{"no pages", pagination.State[int]{}, ""},
		{
			"more pages",
			pagination.State[int]{
				Pages:       []pagination.Page[int]{{PageNo: 1, NumOfRows: 10, TotalCount: 25}},
				HasNextPage: true,
			},
			"\npage 1 of 3, 25 results\nmore results: --pages 2 or --all\n",
		},
		{
			"empty last page",
			pagination.State[int]{Pages: []pagination.Page[int]{{PageNo: 1, NumOfRows: 10}}},
			"\npage 1 of 1, 0 results\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printFooter(&buf, tt.state)
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"두통", 10, "두통"},
		{"이 약은\n두통에  사용합니다.", 40, "이 약은 두통에 사용합니다."},
		{"가나다라마", 3, "가나다…"},
	}

	for _, tt := range tests {
		if got := summarize(tt.in, tt.n); got != tt.want {
			t.Errorf("summarize(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
