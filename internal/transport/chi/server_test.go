package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/veccoll/internal/domain"
	healthuc "github.com/kailas-cloud/veccoll/internal/usecase/health"
	reportuc "github.com/kailas-cloud/veccoll/internal/usecase/report"
	"github.com/kailas-cloud/veccoll/internal/usecase/store"
)

// --- Fakes ---

type fakeReporter struct {
	rows []reportuc.Row
	err  error
}

func (f *fakeReporter) Report(context.Context) ([]reportuc.Row, error) { return f.rows, f.err }

type fakeQuerier struct {
	fn func(ctx context.Context, selector, text string, limit int) (string, []store.Match, error)
}

func (f *fakeQuerier) Query(ctx context.Context, selector, text string, limit int) (string, []store.Match, error) {
	return f.fn(ctx, selector, text, limit)
}

type fakeHealth struct{ report healthuc.Report }

func (f *fakeHealth) Check(context.Context) healthuc.Report { return f.report }

func newTestServer(rep Reporter, q Querier, h HealthChecker) *httptest.Server {
	if rep == nil {
		rep = &fakeReporter{}
	}
	if q == nil {
		q = &fakeQuerier{fn: func(context.Context, string, string, int) (string, []store.Match, error) {
			return "", nil, nil
		}}
	}
	if h == nil {
		h = &fakeHealth{report: healthuc.Report{Status: healthuc.Healthy}}
	}
	return httptest.NewServer(NewServer(rep, q, h, nil).Routes(nil))
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

// --- Tests ---

func TestReport(t *testing.T) {
	expected := 42
	srv := newTestServer(&fakeReporter{rows: []reportuc.Row{
		{Name: "cards__openai__text-embedding-3-small", Live: 42, Expected: &expected},
	}}, nil, nil)
	defer srv.Close()

	var body struct {
		Collections []reportuc.JSONRow `json:"collections"`
	}
	if code := getJSON(t, srv.URL+"/v1/report", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(body.Collections) != 1 || body.Collections[0].Status != reportuc.StatusOK {
		t.Errorf("body = %+v", body)
	}
}

func TestReport_ListFailure(t *testing.T) {
	srv := newTestServer(&fakeReporter{err: errors.New("connection refused")}, nil, nil)
	defer srv.Close()

	var errResp ErrorResponse
	if code := getJSON(t, srv.URL+"/v1/report", &errResp); code != http.StatusInternalServerError {
		t.Fatalf("status = %d", code)
	}
	if errResp.Code != ErrorCodeInternal || errResp.Message != "internal error" {
		t.Errorf("error = %+v", errResp)
	}
}

func TestQuery(t *testing.T) {
	var gotSelector, gotText string
	var gotLimit int
	q := &fakeQuerier{fn: func(_ context.Context, selector, text string, limit int) (string, []store.Match, error) {
		gotSelector, gotText, gotLimit = selector, text, limit
		return "cards", []store.Match{{ID: "https://cards.example/1", Distance: 0.1, Score: 0.9}}, nil
	}}
	srv := newTestServer(nil, q, nil)
	defer srv.Close()

	var body queryResponse
	if code := getJSON(t, srv.URL+"/v1/collections/2/query?q=worm&limit=3", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if gotSelector != "2" || gotText != "worm" || gotLimit != 3 {
		t.Errorf("Query(%q, %q, %d)", gotSelector, gotText, gotLimit)
	}
	if body.Collection != "cards" || len(body.Results) != 1 || body.Results[0].ID != "https://cards.example/1" {
		t.Errorf("body = %+v", body)
	}
}

func TestQuery_DefaultLimitAndEmptyResults(t *testing.T) {
	var gotLimit int
	q := &fakeQuerier{fn: func(_ context.Context, _, _ string, limit int) (string, []store.Match, error) {
		gotLimit = limit
		return "cards", nil, nil
	}}
	srv := newTestServer(nil, q, nil)
	defer srv.Close()

	var body map[string]any
	if code := getJSON(t, srv.URL+"/v1/collections/cards/query?q=worm", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if gotLimit != defaultQueryLimit {
		t.Errorf("limit = %d, want %d", gotLimit, defaultQueryLimit)
	}
	if results, ok := body["results"].([]any); !ok || len(results) != 0 {
		t.Errorf("results = %v, want empty array", body["results"])
	}
}

func TestQuery_BadRequests(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	defer srv.Close()

	for _, path := range []string{
		"/v1/collections/cards/query",
		"/v1/collections/cards/query?q=worm&limit=0",
		"/v1/collections/cards/query?q=worm&limit=abc",
		"/v1/collections/cards/query?q=worm&limit=101",
	} {
		var errResp ErrorResponse
		if code := getJSON(t, srv.URL+path, &errResp); code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", path, code)
		}
		if errResp.Code != ErrorCodeBadRequest {
			t.Errorf("%s: code = %s", path, errResp.Code)
		}
	}
}

func TestQuery_DomainErrors(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		wantErr  ErrorCode
	}{
		{fmt.Errorf("attach: %w", domain.ErrNotFound), http.StatusNotFound, ErrorCodeCollectionNotFound},
		{fmt.Errorf("embed: %w", domain.ErrEmbeddingProviderError), http.StatusBadGateway, ErrorCodeEmbeddingProvider},
		{fmt.Errorf("resolve: %w", domain.ErrUnsupportedProvider), http.StatusUnprocessableEntity, ErrorCodeUnsupported},
		{errors.New("boom"), http.StatusInternalServerError, ErrorCodeInternal},
	}
	for _, tc := range tests {
		t.Run(string(tc.wantErr), func(t *testing.T) {
			q := &fakeQuerier{fn: func(context.Context, string, string, int) (string, []store.Match, error) {
				return "", nil, tc.err
			}}
			srv := newTestServer(nil, q, nil)
			defer srv.Close()

			var errResp ErrorResponse
			if code := getJSON(t, srv.URL+"/v1/collections/cards/query?q=worm", &errResp); code != tc.wantCode {
				t.Errorf("status = %d, want %d", code, tc.wantCode)
			}
			if errResp.Code != tc.wantErr {
				t.Errorf("code = %s, want %s", errResp.Code, tc.wantErr)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			h := &fakeHealth{report: healthuc.Report{
				Status: tc.status,
				Checks: map[string]healthuc.CheckResult{"collections": healthuc.CheckOK},
			}}
			srv := newTestServer(nil, nil, h)
			defer srv.Close()

			var body healthResponse
			if code := getJSON(t, srv.URL+"/healthz", &body); code != tc.want {
				t.Errorf("status = %d, want %d", code, tc.want)
			}
			if body.Status != tc.status {
				t.Errorf("body status = %q", body.Status)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	defer srv.Close()

	if code := getJSON(t, srv.URL+"/metrics", nil); code != http.StatusOK {
		t.Errorf("status = %d", code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestRecoverer(t *testing.T) {
	q := &fakeQuerier{fn: func(context.Context, string, string, int) (string, []store.Match, error) {
		panic("boom")
	}}
	srv := newTestServer(nil, q, nil)
	defer srv.Close()

	var errResp ErrorResponse
	if code := getJSON(t, srv.URL+"/v1/collections/cards/query?q=worm", &errResp); code != http.StatusInternalServerError {
		t.Errorf("status = %d", code)
	}
	if errResp.Code != ErrorCodeInternal {
		t.Errorf("code = %s", errResp.Code)
	}
}
