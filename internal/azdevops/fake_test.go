package azdevops

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Afrawles/weekreport/internal/report"
)

var testSettings = report.Settings{Token: "abc", Organization: "org1"}

type recordedRequest struct {
	Path     string
	Query    string
	User     string
	Password string
	Body     []byte
}

// fakeDevOps mimics the wiql and workitemsbatch endpoints. WIQL answers are
// keyed by the date column a query filters on.
type fakeDevOps struct {
	mu       sync.Mutex
	wiql     map[string][]int
	items    map[int]json.RawMessage
	status   map[string]int // endpoint -> forced status
	requests []recordedRequest
}

func newFakeDevOps() *fakeDevOps {
	return &fakeDevOps{
		wiql:   make(map[string][]int),
		items:  make(map[int]json.RawMessage),
		status: make(map[string]int),
	}
}

func (f *fakeDevOps) addItem(id int, fields string) {
	f.items[id] = json.RawMessage(fields)
}

func (f *fakeDevOps) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakeDevOps) count(endpoint string) int {
	n := 0
	for _, r := range f.recorded() {
		if strings.HasSuffix(r.Path, "/"+endpoint) {
			n++
		}
	}
	return n
}

func (f *fakeDevOps) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	user, pass, _ := r.BasicAuth()

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Path:     r.URL.Path,
		Query:    r.URL.RawQuery,
		User:     user,
		Password: pass,
		Body:     body,
	})
	f.mu.Unlock()

	endpoint := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	if code := f.status[endpoint]; code != 0 {
		http.Error(w, `{"message":"forced failure"}`, code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch endpoint {
	case endpointWIQL:
		var req wiqlRequest
		_ = json.Unmarshal(body, &req)
		refs := []workItemReference{}
		for column, ids := range f.wiql {
			if strings.Contains(req.Query, column) {
				for _, id := range ids {
					refs = append(refs, workItemReference{ID: id})
				}
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"workItems": refs})
	case endpointBatch:
		var req batchRequest
		_ = json.Unmarshal(body, &req)
		var value []map[string]any
		for _, id := range req.IDs {
			fields, ok := f.items[id]
			if !ok {
				continue
			}
			value = append(value, map[string]any{"id": id, "fields": fields})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"count": len(value), "value": value})
	default:
		http.NotFound(w, r)
	}
}

func noSleepRetrier() *Retrier {
	r := NewRetrier(discardLogger())
	r.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return r
}

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	base := []Option{
		WithBaseURL(srv.URL),
		WithLogger(discardLogger()),
		WithRetrier(noSleepRetrier()),
	}
	return NewClient(append(base, opts...)...)
}
