package nocodb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sgoldberg/nocogo/fault"
	"github.com/sgoldberg/nocogo/where"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{
		BaseURL:       srv.URL,
		Auth:          APIToken("test-token"),
		HTTPClient:    srv.Client(),
		RetryAttempts: 1,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return client, srv
}

func TestListRecordsSendsFilterAndAuth(t *testing.T) {
	var gotPath, gotWhere, gotToken string

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotWhere = r.URL.Query().Get("where")
		gotToken = r.Header.Get("xc-token")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"records":[{"id":1,"fields":{"Name":"Alice"}}]}`)) //nolint:errcheck
	}))

	f, err := where.Eq("Name", "Alice")
	if err != nil {
		t.Fatalf("where.Eq: %v", err)
	}

	list, err := client.ListRecords(context.Background(), "base1", "tbl1", ListOptions{Filter: f})
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}

	if gotPath != "/api/v3/data/base1/tbl1/records" {
		t.Errorf("path = %q, want %q", gotPath, "/api/v3/data/base1/tbl1/records")
	}
	if gotWhere != "(Name,eq,Alice)" {
		t.Errorf("where param = %q, want %q", gotWhere, "(Name,eq,Alice)")
	}
	if gotToken != "test-token" {
		t.Errorf("xc-token header = %q, want %q", gotToken, "test-token")
	}
	if len(list.Records) != 1 || list.Records[0].Fields["Name"] != "Alice" {
		t.Errorf("unexpected records: %+v", list.Records)
	}
}

func TestCountRecords(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/data/base1/tbl1/count" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"count":42}`)) //nolint:errcheck
	}))

	count, err := client.CountRecords(context.Background(), "base1", "tbl1", nil)
	if err != nil {
		t.Fatalf("CountRecords: %v", err)
	}
	if count != 42 {
		t.Errorf("count = %d, want 42", count)
	}
}

func TestListAllRecordsFollowsCursor(t *testing.T) {
	var srv *httptest.Server

	calls := 0
	client, s := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch calls {
		case 1:
			w.Write([]byte(`{"records":[{"id":1,"fields":{}}],"next":"` + srv.URL + `/api/v3/data/base1/tbl1/records?page=2"}`)) //nolint:errcheck
		default:
			if r.URL.Query().Get("page") != "2" {
				t.Errorf("follow-up page = %q, want 2", r.URL.Query().Get("page"))
			}
			w.Write([]byte(`{"records":[{"id":2,"fields":{}}]}`)) //nolint:errcheck
		}
	}))
	srv = s

	records, err := client.ListAllRecords(context.Background(), "base1", "tbl1", ListOptions{})
	if err != nil {
		t.Fatalf("ListAllRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if calls != 2 {
		t.Errorf("made %d calls, want 2", calls)
	}
}

func TestStatusFaultMapping(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{http.StatusBadRequest, "validation"},
		{http.StatusUnprocessableEntity, "validation"},
		{http.StatusUnauthorized, "permission_denied"},
		{http.StatusForbidden, "permission_denied"},
		{http.StatusNotFound, "not_found"},
		{http.StatusTooManyRequests, "rate_limited"},
		{http.StatusBadGateway, "remote"},
	}

	for _, tt := range tests {
		f := statusFault(tt.status, nil)
		if string(f.Code()) != tt.code {
			t.Errorf("statusFault(%d).Code() = %q, want %q", tt.status, f.Code(), tt.code)
		}
	}
}

func TestNotFoundBecomesFault(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"no such record"}`, http.StatusNotFound)
	}))

	_, err := client.GetRecord(context.Background(), "base1", "tbl1", "99")
	if !fault.IsCode(err, fault.NotFoundCode) {
		t.Errorf("GetRecord error = %v, want not_found fault", err)
	}
}

func TestRetryOnServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"count":1}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client, err := New(Config{
		BaseURL:       srv.URL,
		Auth:          APIToken("t"),
		HTTPClient:    srv.Client(),
		RetryAttempts: 2,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	count, err := client.CountRecords(context.Background(), "b", "t", nil)
	if err != nil {
		t.Fatalf("CountRecords after retry: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if calls != 2 {
		t.Errorf("made %d calls, want 2", calls)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := New(Config{
		BaseURL:       srv.URL,
		Auth:          APIToken("t"),
		HTTPClient:    srv.Client(),
		RetryAttempts: 3,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := client.CountRecords(context.Background(), "b", "t", nil); !fault.IsCode(err, fault.ValidationCode) {
		t.Errorf("error = %v, want validation fault", err)
	}
	if calls != 1 {
		t.Errorf("made %d calls, want 1 (4xx must not retry)", calls)
	}
}

func TestConfigValidate(t *testing.T) {
	if _, err := New(Config{Auth: APIToken("t")}); err == nil {
		t.Error("New without base URL should fail")
	}
	if _, err := New(Config{BaseURL: "https://example.com"}); err == nil {
		t.Error("New without auth should fail")
	}
}

func TestJWTAuthHeader(t *testing.T) {
	key, value := JWTAuthToken("jwt-value").Header()
	if key != "xc-auth" || value != "jwt-value" {
		t.Errorf("JWTAuthToken.Header() = %q %q", key, value)
	}
}
