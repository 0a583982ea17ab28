// Package testutil provides testing utilities for the medimatch services.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/medimatch/medimatch/pkg/medicine"
)

// Upstream paths served by the mock, matching the medicine endpoints.
const (
	PathDrugInfo         = "/" + medicine.EndpointDrugInfo
	PathIngredientDetail = "/" + medicine.EndpointIngredientDetail
	PathPermissionList   = "/" + medicine.EndpointPermissionList
)

// TestServiceKey is the key the mock accepts unless configured otherwise.
const TestServiceKey = "test-service-key"

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockUpstream is a configurable mock of the drug information services.
// Without custom handlers it answers from its Catalog with real paging.
type MockUpstream struct {
	server     *httptest.Server
	mu         sync.RWMutex
	handlers   map[string]func(w http.ResponseWriter, r *http.Request)
	catalog    Catalog
	serviceKey string

	// Tracking
	RequestCount int
	LastQuery    url.Values
	LastHeader   http.Header
}

// NewMockUpstream creates a mock upstream serving DefaultCatalog.
func NewMockUpstream() *MockUpstream {
	mock := &MockUpstream{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		catalog:    DefaultCatalog(),
		serviceKey: TestServiceKey,
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastQuery = r.URL.Query()
		mock.LastHeader = r.Header.Clone()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL, usable as the client base URL.
func (m *MockUpstream) URL() string {
	return m.server.URL + "/"
}

// Close shuts down the mock server.
func (m *MockUpstream) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockUpstream) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastQuery = nil
	m.LastHeader = nil
}

// SetCatalog replaces the data served by the default handler.
func (m *MockUpstream) SetCatalog(c Catalog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = c
}

// SetServiceKey changes the accepted service key. An empty key accepts
// any request.
func (m *MockUpstream) SetServiceKey(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serviceKey = key
}

// SetHandler sets a custom handler for a specific path.
func (m *MockUpstream) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockUpstream) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockUpstream) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetLastQuery returns the query of the most recent request.
func (m *MockUpstream) GetLastQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastQuery
}

// defaultHandler answers the three endpoints from the catalog.
func (m *MockUpstream) defaultHandler(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	catalog := m.catalog
	serviceKey := m.serviceKey
	m.mu.RUnlock()

	q := r.URL.Query()
	if serviceKey != "" && q.Get("serviceKey") != serviceKey {
		writeXML(w, NewErrorDocument("30", "SERVICE_KEY_IS_NOT_REGISTERED_ERROR"))
		return
	}

	pageNo := atoiOr(q.Get("pageNo"), 1)
	numOfRows := atoiOr(q.Get("numOfRows"), 10)

	switch r.URL.Path {
	case PathDrugInfo:
		var matched []medicine.MedicineItem
		for _, item := range catalog.Medicines {
			if seq := q.Get("itemSeq"); seq != "" && item.ItemSeq != seq {
				continue
			}
			if name := q.Get("itemName"); name != "" && !strings.Contains(item.ItemName, name) {
				continue
			}
			if eff := q.Get("efcyQesitm"); eff != "" && !strings.Contains(item.EfcyQesitm, eff) {
				continue
			}
			matched = append(matched, item)
		}
		writeJSON(w, Envelope(matched, pageNo, numOfRows))

	case PathIngredientDetail:
		var matched []medicine.IngredientItem
		for _, item := range catalog.Ingredients {
			if seq := q.Get("item_seq"); seq != "" && item.ItemSeq != seq {
				continue
			}
			matched = append(matched, item)
		}
		writeJSON(w, Envelope(matched, pageNo, numOfRows))

	case PathPermissionList:
		var matched []medicine.PermissionItem
		for _, item := range catalog.Permissions {
			if name := q.Get("item_ingr_name"); name != "" && !strings.Contains(item.ItemIngrName, name) {
				continue
			}
			matched = append(matched, item)
		}
		writeJSON(w, Envelope(matched, pageNo, numOfRows))

	default:
		w.Header().Set("Content-Type", "text/xml;charset=UTF-8")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "<error>not found</error>")
	}
}

// Envelope pages items the way the upstream services do: the body carries
// the requested page and the total count of all matches.
func Envelope[T any](items []T, pageNo, numOfRows int) medicine.Response[T] {
	start := (pageNo - 1) * numOfRows
	if start > len(items) || start < 0 {
		start = len(items)
	}
	end := start + numOfRows
	if end > len(items) {
		end = len(items)
	}

	return medicine.Response[T]{
		Header: medicine.Header{ResultCode: medicine.ResultCodeNormal, ResultMsg: "NORMAL SERVICE."},
		Body: medicine.Body[T]{
			Items:      medicine.Items[T](items[start:end]),
			PageNo:     medicine.Int(pageNo),
			NumOfRows:  medicine.Int(numOfRows),
			TotalCount: medicine.Int(len(items)),
		},
	}
}

// NewErrorDocument renders the XML error document of the data.go.kr gateway.
func NewErrorDocument(reasonCode, authMsg string) string {
	return `<OpenAPI_ServiceResponse>
	<cmmMsgHeader>
		<errMsg>SERVICE ERROR</errMsg>
		<returnAuthMsg>` + authMsg + `</returnAuthMsg>
		<returnReasonCode>` + reasonCode + `</returnReasonCode>
	</cmmMsgHeader>
</OpenAPI_ServiceResponse>`
}

// NewJSONResponse creates a 200 OK response with a JSON body.
func NewJSONResponse(v any) MockResponse {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(data),
		Headers:    map[string]string{"Content-Type": "application/json;charset=UTF-8"},
	}
}

// NewLimitExceededResponse creates the error document sent once the
// daily request allowance of the key is used up.
func NewLimitExceededResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       NewErrorDocument("22", "LIMITED_NUMBER_OF_SERVICE_REQUESTS_EXCEEDS_ERROR"),
		Headers:    map[string]string{"Content-Type": "text/xml;charset=UTF-8"},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       "Internal Server Error",
		Headers:    map[string]string{"Content-Type": "text/plain"},
	}
}

// NewTooManyRequestsResponse creates a 429 Too Many Requests response.
func NewTooManyRequestsResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       "Too Many Requests",
		Headers:    map[string]string{"Content-Type": "text/plain"},
	}
}

// NewFlakyHandler fails with status for the first failures calls, then
// delegates to next.
func NewFlakyHandler(failures, status int, next http.HandlerFunc) func(w http.ResponseWriter, r *http.Request) {
	var mu sync.Mutex
	calls := 0
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		if n <= failures {
			w.WriteHeader(status)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func writeXML(w http.ResponseWriter, doc string) {
	w.Header().Set("Content-Type", "text/xml;charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, doc)
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
