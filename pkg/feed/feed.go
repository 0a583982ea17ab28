// Package feed reads the paginated result sets of the medimatch HTTP API.
//
// Each result set is exposed as a pagination.Source. Parameters are
// validated before anything is sent: a Source built from a missing or
// invalid parameter is disabled and never reaches the network.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medimatch/medimatch/pkg/medicine"
	"github.com/medimatch/medimatch/pkg/pagination"
)

// Feed names, used as the first element of query keys.
const (
	FeedSearch     = "medicines"
	FeedIngredient = "recommendedByIngredient"
	FeedEfficacy   = "recommendedByEfficacy"
)

// APIError is a non-2xx response of the HTTP API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// Client calls the medimatch HTTP API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "feed").Logger()
	}
}

// New creates a Client for the API at baseURL (e.g. http://localhost:8080).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("api url must be absolute: %q", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Search is the search result list for a query and search type.
func (c *Client) Search(query string, searchType medicine.SearchType) pagination.Source[medicine.MedicineItem] {
	query = strings.TrimSpace(query)
	src := pagination.Source[medicine.MedicineItem]{
		Key:     pagination.Key{FeedSearch, query, string(searchType)},
		Feed:    "search",
		Enabled: query != "" && searchType.Valid(),
	}
	if src.Enabled {
		src.Fetch = func(ctx context.Context, pageNo int) (pagination.Page[medicine.MedicineItem], error) {
			params := url.Values{"query": {query}, "searchType": {string(searchType)}}
			return fetchPage[medicine.MedicineItem](ctx, c, "/api/search", params, pageNo, medicine.MsgSearchFailed)
		}
	}
	return src
}

// ByIngredient lists medicines sharing an ingredient with itemSeq.
func (c *Client) ByIngredient(itemSeq, ingredient string) pagination.Source[medicine.PermissionItem] {
	ingredient = strings.TrimSpace(ingredient)
	src := pagination.Source[medicine.PermissionItem]{
		Key:     pagination.Key{FeedIngredient, itemSeq, ingredient},
		Feed:    "ingredient",
		Enabled: medicine.ValidItemSeq(itemSeq) && ingredient != "",
	}
	if src.Enabled {
		src.Fetch = func(ctx context.Context, pageNo int) (pagination.Page[medicine.PermissionItem], error) {
			params := url.Values{"item_ingr_name": {ingredient}}
			return fetchPage[medicine.PermissionItem](ctx, c, "/api/ingredient", params, pageNo, medicine.MsgIngredientListFailed)
		}
	}
	return src
}

// ByEfficacy lists medicines whose efficacy text matches efficacy.
func (c *Client) ByEfficacy(itemSeq, efficacy string) pagination.Source[medicine.MedicineItem] {
	efficacy = strings.TrimSpace(efficacy)
	src := pagination.Source[medicine.MedicineItem]{
		Key:     pagination.Key{FeedEfficacy, itemSeq, efficacy},
		Feed:    "efficacy",
		Enabled: medicine.ValidItemSeq(itemSeq) && efficacy != "",
	}
	if src.Enabled {
		src.Fetch = func(ctx context.Context, pageNo int) (pagination.Page[medicine.MedicineItem], error) {
			params := url.Values{"efcyQesitm": {efficacy}}
			return fetchPage[medicine.MedicineItem](ctx, c, "/api/efficacy", params, pageNo, medicine.MsgEfficacyFailed)
		}
	}
	return src
}

// Profile fetches the detail page data of a medicine.
func (c *Client) Profile(ctx context.Context, itemSeq string) (*medicine.Profile, error) {
	if !medicine.ValidItemSeq(itemSeq) {
		return nil, medicine.ErrInvalidCode
	}

	var profile medicine.Profile
	found, err := c.get(ctx, "/api/medicine/"+url.PathEscape(itemSeq), nil, medicine.MsgDetailFailed, &profile)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", medicine.ErrMedicineNotFound, apiErr.Message)
		}
		return nil, err
	}
	if !found {
		return nil, medicine.ErrMedicineNotFound
	}
	return &profile, nil
}

// fetchPage requests one page. A null body is an empty last page.
func fetchPage[T any](ctx context.Context, c *Client, path string, params url.Values, pageNo int, failure string) (pagination.Page[T], error) {
	params.Set("pageNo", strconv.Itoa(pageNo))

	var resp medicine.Response[T]
	found, err := c.get(ctx, path, params, failure, &resp)
	if err != nil {
		return pagination.Page[T]{}, err
	}
	if !found {
		return pagination.Page[T]{PageNo: pageNo, NumOfRows: medicine.DefaultNumOfRows}, nil
	}
	return resp.Page(), nil
}

// get decodes the JSON body into out. It reports false for a null body.
func (c *Client) get(ctx context.Context, path string, params url.Values, failure string, out any) (bool, error) {
	u := c.baseURL.JoinPath(path)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s: %w", failure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read response body: %w", err)
	}

	c.logger.Debug().Str("path", path).Int("status", resp.StatusCode).Int("bytes", len(body)).Msg("API response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body, failure)}
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return false, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

// errorMessage returns the message field of an error body, or fallback.
func errorMessage(body []byte, fallback string) string {
	var e struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err != nil || e.Message == "" {
		return fallback
	}
	return e.Message
}

// ExcludeItem returns items without the entries whose code equals itemSeq.
func ExcludeItem[T any](items []T, itemSeq string, seqOf func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if seqOf(it) != itemSeq {
			out = append(out, it)
		}
	}
	return out
}

// MedicineSeq returns the item code of a medicine list entry.
func MedicineSeq(m medicine.MedicineItem) string { return m.ItemSeq }

// PermissionSeq returns the item code of a permission list entry.
func PermissionSeq(p medicine.PermissionItem) string { return p.ItemSeq }
