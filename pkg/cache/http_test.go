package cache

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestResponseToEntry(t *testing.T) {
	tests := []struct {
		name    string
		resp    *http.Response
		ttl     time.Duration
		wantTTL time.Duration
		wantErr bool
	}{
		{
			name: "json response with ttl",
			resp: &http.Response{
				StatusCode: 200,
				Header: http.Header{
					"Content-Type": []string{"application/json;charset=UTF-8"},
					"Set-Cookie":   []string{"session=abc"},
				},
				Body: io.NopCloser(bytes.NewReader([]byte(`{"header":{"resultCode":"00"}}`))),
			},
			ttl:     time.Hour,
			wantTTL: time.Hour,
		},
		{
			name: "default ttl",
			resp: &http.Response{
				StatusCode: 200,
				Header:     http.Header{},
				Body:       io.NopCloser(bytes.NewReader([]byte(`{}`))),
			},
			ttl:     0,
			wantTTL: DefaultTTL,
		},
		{
			name:    "nil response",
			resp:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := ResponseToEntry(tt.resp, tt.ttl)
			if (err != nil) != tt.wantErr {
				t.Errorf("ResponseToEntry() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			// Verify body was read and restored
			body, _ := io.ReadAll(tt.resp.Body)
			if !bytes.Equal(body, entry.Data) {
				t.Errorf("restored body = %q, entry data = %q", body, entry.Data)
			}

			if entry.StatusCode != tt.resp.StatusCode {
				t.Errorf("StatusCode = %v, want %v", entry.StatusCode, tt.resp.StatusCode)
			}
			if entry.Headers.Get("Set-Cookie") != "" {
				t.Error("only the content type should be kept")
			}
			if ct := tt.resp.Header.Get("Content-Type"); entry.Headers.Get("Content-Type") != ct {
				t.Errorf("Content-Type = %q, want %q", entry.Headers.Get("Content-Type"), ct)
			}

			ttl := entry.TTL()
			if ttl > tt.wantTTL || ttl < tt.wantTTL-2*time.Second {
				t.Errorf("TTL() = %v, want about %v", ttl, tt.wantTTL)
			}
		})
	}
}

func TestEntryToResponse(t *testing.T) {
	entry := &CacheEntry{
		Data:       []byte(`{"body":{"items":[]}}`),
		StatusCode: http.StatusOK,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		CachedAt:   time.Now().Add(-time.Minute),
		Expires:    time.Now().Add(time.Hour),
	}

	resp := EntryToResponse(entry)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
	if resp.Header.Get(HeaderCache) != "HIT" {
		t.Errorf("%s = %q, want HIT", HeaderCache, resp.Header.Get(HeaderCache))
	}
	if resp.Header.Get("Age") != "60" {
		t.Errorf("Age = %q, want 60", resp.Header.Get("Age"))
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != string(entry.Data) {
		t.Errorf("body = %s", body)
	}

	// The entry itself must not be modified
	if entry.Headers.Get(HeaderCache) != "" {
		t.Error("EntryToResponse modified entry headers")
	}
}

func TestEntryToResponse_ZeroStatus(t *testing.T) {
	resp := EntryToResponse(&CacheEntry{Data: []byte("{}")})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
}
