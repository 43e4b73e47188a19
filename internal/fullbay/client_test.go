package fullbay

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// roundTripperFunc lets tests intercept the public IP lookup while passing
// everything else through to the real transport.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testHTTPClient(ip string) *http.Client {
	return &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if strings.Contains(req.URL.Host, "ipify") {
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(strings.NewReader(ip)),
					Header:     make(http.Header),
				}, nil
			}
			return http.DefaultTransport.RoundTrip(req)
		}),
	}
}

func fixedClock(dateStr string) func() time.Time {
	t, _ := time.Parse("2006-01-02", dateStr)
	return func() time.Time { return t }
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(""); err != ErrMissingAPIKey {
		t.Fatalf("NewClient(\"\") error = %v, want ErrMissingAPIKey", err)
	}
}

func TestGenerateToken(t *testing.T) {
	client, err := NewClient("secret-key",
		WithClock(fixedClock("2026-08-15")),
		WithHTTPClient(testHTTPClient("203.0.113.9")),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	got := client.GenerateToken(context.Background())

	sum := sha1.Sum([]byte("secret-key" + "2026-08-15" + "203.0.113.9"))
	want := hex.EncodeToString(sum[:])
	if got != want {
		t.Errorf("GenerateToken = %s, want SHA1(key+date+ip) = %s", got, want)
	}

	// The token rolls over with the UTC date.
	client2, _ := NewClient("secret-key",
		WithClock(fixedClock("2026-08-16")),
		WithHTTPClient(testHTTPClient("203.0.113.9")),
	)
	if client2.GenerateToken(context.Background()) == got {
		t.Error("token must change when the date changes")
	}
}

func TestFetchInvoicesForDate(t *testing.T) {
	var gotQuery atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		w.Write([]byte(`{"resultSet": [
			{"primaryKey": 910179, "invoiceNumber": "INV-1"},
			{"primaryKey": "910180", "invoiceNumber": "INV-2"}
		]}`))
	}))
	defer server.Close()

	client, err := NewClient("key-1",
		WithBaseURL(server.URL),
		WithHTTPClient(testHTTPClient("203.0.113.9")),
		WithClock(fixedClock("2026-08-15")),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	date, _ := time.Parse("2006-01-02", "2026-08-14")
	docs, err := client.FetchInvoicesForDate(context.Background(), date)
	if err != nil {
		t.Fatalf("FetchInvoicesForDate: %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].Invoice.PrimaryKey.String() != "910179" {
		t.Errorf("first invoice id = %q, want 910179", docs[0].Invoice.PrimaryKey.String())
	}
	if docs[1].Invoice.PrimaryKey.String() != "910180" {
		t.Errorf("second invoice id = %q, want 910180", docs[1].Invoice.PrimaryKey.String())
	}
	if len(docs[0].Raw) == 0 {
		t.Error("raw payload must be preserved alongside the decoded invoice")
	}

	query := gotQuery.Load().(url.Values)
	if got := query.Get("startDate"); got != "2026-08-14" {
		t.Errorf("startDate = %q, want 2026-08-14", got)
	}
	if got := query.Get("endDate"); got != "2026-08-14" {
		t.Errorf("endDate = %q, want 2026-08-14", got)
	}
	if got := query.Get("key"); got != "key-1" {
		t.Errorf("key = %q, want key-1", got)
	}
	if got := query.Get("token"); len(got) != 40 {
		t.Errorf("token = %q, want a 40-char SHA1 hex digest", got)
	}
}

func TestFetchInvoicesResponseShapes(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCount int
		wantErr   bool
	}{
		{"resultSet envelope", `{"resultSet": [{"primaryKey": 1}]}`, 1, false},
		{"invoices envelope", `{"invoices": [{"primaryKey": 1}, {"primaryKey": 2}]}`, 2, false},
		{"data envelope", `{"data": [{"primaryKey": 1}]}`, 1, false},
		{"bare array", `[{"primaryKey": 1}]`, 1, false},
		{"empty resultSet", `{"resultSet": []}`, 0, false},
		{"no recognised field", `{"something": []}`, 0, false},
		{"api error field", `{"error": "invalid token"}`, 0, true},
		{"invalid json", `{{{`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, _ := NewClient("k",
				WithBaseURL(server.URL),
				WithHTTPClient(testHTTPClient("1.2.3.4")),
			)

			docs, err := client.FetchInvoicesForDate(context.Background(), time.Now())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchInvoicesForDate: %v", err)
			}
			if len(docs) != tt.wantCount {
				t.Errorf("got %d documents, want %d", len(docs), tt.wantCount)
			}
		})
	}
}

func TestFetchInvoicesAPIErrorType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "invalid token"}`))
	}))
	defer server.Close()

	client, _ := NewClient("k",
		WithBaseURL(server.URL),
		WithHTTPClient(testHTTPClient("1.2.3.4")),
	)

	_, err := client.FetchInvoicesForDate(context.Background(), time.Now())
	if err == nil || !strings.Contains(err.Error(), "invalid token") {
		t.Fatalf("error = %v, want the API's error message", err)
	}
}

func TestFetchInvoicesSkipsUndecodableDocuments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resultSet": ["not an invoice", {"primaryKey": 7}]}`))
	}))
	defer server.Close()

	client, _ := NewClient("k",
		WithBaseURL(server.URL),
		WithHTTPClient(testHTTPClient("1.2.3.4")),
	)

	docs, err := client.FetchInvoicesForDate(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("FetchInvoicesForDate: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want the one decodable invoice", len(docs))
	}
	if docs[0].Invoice.PrimaryKey.String() != "7" {
		t.Errorf("invoice id = %q, want 7", docs[0].Invoice.PrimaryKey.String())
	}
}

func TestFetchInvoicesRetriesRateLimit(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"resultSet": [{"primaryKey": 1}]}`))
	}))
	defer server.Close()

	client, _ := NewClient("k",
		WithBaseURL(server.URL),
		WithHTTPClient(testHTTPClient("1.2.3.4")),
	)

	docs, err := client.FetchInvoicesForDate(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("FetchInvoicesForDate: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1 after retry", len(docs))
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("server saw %d calls, want 2", got)
	}
}

func TestFetchInvoicesRetriesServerErrors(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"resultSet": []}`))
	}))
	defer server.Close()

	client, _ := NewClient("k",
		WithBaseURL(server.URL),
		WithHTTPClient(testHTTPClient("1.2.3.4")),
	)

	if _, err := client.FetchInvoicesForDate(context.Background(), time.Now()); err != nil {
		t.Fatalf("FetchInvoicesForDate: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
}

func TestFetchInvoicesClientErrorDoesNotRetry(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client, _ := NewClient("k",
		WithBaseURL(server.URL),
		WithHTTPClient(testHTTPClient("1.2.3.4")),
	)

	if _, err := client.FetchInvoicesForDate(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error for 403 response")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server saw %d calls, want exactly 1", got)
	}
}
