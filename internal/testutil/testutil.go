// Package testutil provides shared test helpers: an in-memory REST backend,
// a recording failure reporter, and a throwaway failure journal.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/starford/atrium/internal/controller"
	"github.com/starford/atrium/internal/journal"
)

// NetworkFailure makes Fail drop the connection instead of answering.
const NetworkFailure = -1

var idPrefixes = map[string]string{
	"clients":  "c",
	"projects": "p",
	"tasks":    "t",
}

// Backend is an in-memory implementation of the REST API served by httptest.
type Backend struct {
	*httptest.Server

	mu       sync.Mutex
	items    map[string][]map[string]any
	failures map[string]int
	gates    map[string]chan struct{}
	requests []string
	seq      map[string]int
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		items:    map[string][]map[string]any{"clients": {}, "projects": {}, "tasks": {}},
		failures: map[string]int{},
		gates:    map[string]chan struct{}{},
		seq:      map[string]int{},
	}

	r := chi.NewRouter()
	r.Use(b.intercept)
	r.Get("/projects/recent", b.recent)
	r.Get("/tasks/overview", b.overview)
	r.Route("/{resource}", func(r chi.Router) {
		r.Get("/", b.list)
		r.Post("/", b.create)
		r.Get("/count", b.count)
		r.Put("/{id}", b.update)
		r.Delete("/{id}", b.remove)
	})

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Close)
	return b
}

// Seed appends items to resource, keeping any IDs they carry. Later creates
// never reuse a seeded ID.
func (b *Backend) Seed(resource string, items ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, it := range items {
		data, err := json.Marshal(it)
		if err != nil {
			panic(err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			panic(err)
		}
		b.items[resource] = append(b.items[resource], m)
		if id, ok := m["id"].(string); ok {
			if n, err := strconv.Atoi(strings.TrimPrefix(id, idPrefixes[resource])); err == nil && n > b.seq[resource] {
				b.seq[resource] = n
			}
		}
	}
}

// Fail makes every method request on resource answer with status, or drop
// the connection when status is NetworkFailure.
func (b *Backend) Fail(method, resource string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+resource] = status
}

// Recover clears all injected failures.
func (b *Backend) Recover() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = map[string]int{}
}

// Gate holds the next method request on resource until release is called.
func (b *Backend) Gate(method, resource string) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.gates[method+" "+resource] = ch
	b.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Requests returns every "METHOD /path" received so far.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

// Len returns the number of stored items in resource.
func (b *Backend) Len(resource string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items[resource])
}

func (b *Backend) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resource := firstSegment(r.URL.Path)
		key := r.Method + " " + resource

		b.mu.Lock()
		b.requests = append(b.requests, r.Method+" "+r.URL.Path)
		status, failing := b.failures[key]
		gate := b.gates[key]
		delete(b.gates, key)
		b.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}

		if failing {
			if status == NetworkFailure {
				if hj, ok := w.(http.Hijacker); ok {
					if conn, _, err := hj.Hijack(); err == nil {
						conn.Close()
						return
					}
				}
				status = http.StatusBadGateway
			}
			writeJSON(w, status, map[string]string{"error": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) list(w http.ResponseWriter, r *http.Request) {
	resource, ok := b.resource(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	out := append([]map[string]any{}, b.items[resource]...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) count(w http.ResponseWriter, r *http.Request) {
	resource, ok := b.resource(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	n := len(b.items[resource])
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (b *Backend) create(w http.ResponseWriter, r *http.Request) {
	resource, ok := b.resource(w, r)
	if !ok {
		return
	}
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	b.mu.Lock()
	id := b.nextID(resource)
	body["id"] = id
	b.items[resource] = append(b.items[resource], body)
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, body)
}

// nextID returns the next unused ID for resource. Callers hold b.mu.
func (b *Backend) nextID(resource string) string {
	for {
		b.seq[resource]++
		id := fmt.Sprintf("%s%d", idPrefixes[resource], b.seq[resource])
		if !slices.ContainsFunc(b.items[resource], func(it map[string]any) bool { return it["id"] == id }) {
			return id
		}
	}
}

func (b *Backend) update(w http.ResponseWriter, r *http.Request) {
	resource, ok := b.resource(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	body["id"] = id

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, it := range b.items[resource] {
		if it["id"] == id {
			b.items[resource][i] = body
			writeJSON(w, http.StatusOK, body)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}

func (b *Backend) remove(w http.ResponseWriter, r *http.Request) {
	resource, ok := b.resource(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	b.mu.Lock()
	defer b.mu.Unlock()
	items := b.items[resource]
	for i, it := range items {
		if it["id"] == id {
			b.items[resource] = append(items[:i:i], items[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}

func (b *Backend) recent(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	projects := b.items["projects"]
	out := make([]map[string]any, 0, 3)
	for i := len(projects) - 1; i >= 0 && len(out) < 3; i-- {
		out = append(out, projects[i])
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) overview(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	counts := map[string]int{"todo": 0, "in_progress": 0, "done": 0}
	for _, it := range b.items["tasks"] {
		if s, ok := it["status"].(string); ok {
			counts[s]++
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, counts)
}

func (b *Backend) resource(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "resource")
	if _, ok := idPrefixes[name]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown resource"})
		return "", false
	}
	return name, true
}

func firstSegment(path string) string {
	for len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return path
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Reporter records every failure it receives.
type Reporter struct {
	mu       sync.Mutex
	failures []controller.Failure
}

// Report implements controller.Reporter.
func (r *Reporter) Report(_ context.Context, f controller.Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, f)
}

// Failures returns the recorded failures.
func (r *Reporter) Failures() []controller.Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]controller.Failure(nil), r.failures...)
}

// TestJournal creates a temporary failure journal that is automatically cleaned up.
func TestJournal(t *testing.T) *journal.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "atrium-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := journal.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
