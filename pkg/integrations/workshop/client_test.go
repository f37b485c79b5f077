package workshop

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jfahler/loadmasterbot/pkg/cache"
	"github.com/jfahler/loadmasterbot/pkg/httputil"
	"github.com/jfahler/loadmasterbot/pkg/integrations"
)

// pageServer serves testdata files by id and counts requests.
func pageServer(t *testing.T, pages map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		file, ok := pages[r.URL.Query().Get("id")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		data, err := os.ReadFile(file)
		if err != nil {
			t.Errorf("read %s: %v", file, err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testClient(t *testing.T, srv *httptest.Server, backend cache.Cache, sizes SizeSource) *Client {
	t.Helper()
	return NewClient(backend, Options{
		BaseURL: srv.URL + "/sharedfiles/filedetails/?id=",
		HTTP:    integrations.HTTPOptions{Rate: -1},
		Retry:   &httputil.Policy{Attempts: 2, Delay: time.Millisecond},
		Sizes:   sizes,
		Logger:  log.New(os.Stderr),
	})
}

type fakeSizes map[string]float64

func (f fakeSizes) Size(_ context.Context, id string) (float64, bool, error) {
	gb, ok := f[id]
	return gb, ok, nil
}

func checkSize(t *testing.T, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Fatalf("SizeGB = nil, want %v", want)
	}
	if math.Abs(*got-want) > 1e-9 {
		t.Errorf("SizeGB = %v, want %v", *got, want)
	}
}

func TestFetchItem(t *testing.T) {
	srv, _ := pageServer(t, map[string]string{"2477276806": "testdata/item.html"})
	c := testClient(t, srv, nil, nil)

	meta, err := c.FetchItem(context.Background(), "2477276806", false)
	if err != nil {
		t.Fatalf("FetchItem() failed: %v", err)
	}

	if meta.ID != "2477276806" {
		t.Errorf("ID = %q", meta.ID)
	}
	if meta.Name != "Unsung Redux Vietnam Vehicles" {
		t.Errorf("Name = %q", meta.Name)
	}
	if want := srv.URL + "/sharedfiles/filedetails/?id=2477276806"; meta.URL != want {
		t.Errorf("URL = %q, want %q", meta.URL, want)
	}
	// stats panel wins over text mentions
	checkSize(t, meta.SizeGB, 2.0)

	// compatible-only expansions are not dependencies
	wantDeps := []string{"450814997", "463939057", "S.O.G. Prairie Fire", "Western Sahara"}
	if !reflect.DeepEqual(meta.Dependencies, wantDeps) {
		t.Errorf("Dependencies = %v, want %v", meta.Dependencies, wantDeps)
	}
	if want := []string{"S.O.G. Prairie Fire"}; !reflect.DeepEqual(meta.Expansions.Required, want) {
		t.Errorf("Required = %v, want %v", meta.Expansions.Required, want)
	}
	if want := []string{"Western Sahara"}; !reflect.DeepEqual(meta.Expansions.Optional, want) {
		t.Errorf("Optional = %v, want %v", meta.Expansions.Optional, want)
	}
	if want := []string{"Reaction Forces"}; !reflect.DeepEqual(meta.Expansions.Compatible, want) {
		t.Errorf("Compatible = %v, want %v", meta.Expansions.Compatible, want)
	}
	if !strings.Contains(meta.Description, "Vehicle pack") {
		t.Errorf("Description = %q", meta.Description)
	}
	if meta.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestFetchItemTextSize(t *testing.T) {
	srv, _ := pageServer(t, map[string]string{"1": "testdata/textsize.html"})
	c := testClient(t, srv, nil, nil)

	meta, err := c.FetchItem(context.Background(), "1", false)
	if err != nil {
		t.Fatalf("FetchItem() failed: %v", err)
	}

	if meta.Name != "Takistan Reworked" {
		t.Errorf("Name = %q, want title prefix stripped", meta.Name)
	}
	checkSize(t, meta.SizeGB, 3.5)
	want := []string{"Global Mobilization - Cold War Germany"}
	if !reflect.DeepEqual(meta.Expansions.Required, want) {
		t.Errorf("Required = %v, want %v", meta.Expansions.Required, want)
	}
	// required expansions from page text become dependencies
	if !reflect.DeepEqual(meta.Dependencies, want) {
		t.Errorf("Dependencies = %v, want %v", meta.Dependencies, want)
	}
}

func TestFetchItemDegradedPage(t *testing.T) {
	srv, _ := pageServer(t, map[string]string{
		"123456789": "testdata/minimal.html",
		"555555555": "testdata/minimal.html",
		"777777777": "testdata/minimal.html",
	})
	c := testClient(t, srv, nil, fakeSizes{"777777777": 4.25})
	ctx := context.Background()

	meta, err := c.FetchItem(ctx, "555555555", false)
	if err != nil {
		t.Fatalf("FetchItem() failed: %v", err)
	}
	if meta.Name != "Item 555555555" {
		t.Errorf("Name = %q, want placeholder", meta.Name)
	}
	if meta.SizeGB != nil {
		t.Errorf("SizeGB = %v, size is never defaulted at this layer", *meta.SizeGB)
	}
	if len(meta.Dependencies) != 0 {
		t.Errorf("Dependencies = %v, want none", meta.Dependencies)
	}
	if !meta.Expansions.Empty() {
		t.Errorf("Expansions = %+v, want empty", meta.Expansions)
	}

	// static known-size table
	known, err := c.FetchItem(ctx, "123456789", false)
	if err != nil {
		t.Fatalf("FetchItem() failed: %v", err)
	}
	checkSize(t, known.SizeGB, 1.2)

	// long-lived size store
	stored, err := c.FetchItem(ctx, "777777777", false)
	if err != nil {
		t.Fatalf("FetchItem() failed: %v", err)
	}
	checkSize(t, stored.SizeGB, 4.25)
}

func TestFetchItemNotFound(t *testing.T) {
	srv, _ := pageServer(t, nil)
	c := testClient(t, srv, nil, nil)

	if _, err := c.FetchItem(context.Background(), "999", false); !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("FetchItem() error = %v, want ErrNotFound", err)
	}
}

func TestFetchItemServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	c := testClient(t, srv, nil, nil)

	if _, err := c.FetchItem(context.Background(), "1", false); !errors.Is(err, integrations.ErrNetwork) {
		t.Errorf("FetchItem() error = %v, want ErrNetwork", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server hits = %d, want 2 (5xx is retried)", got)
	}
}

func TestFetchItemCaching(t *testing.T) {
	srv, hits := pageServer(t, map[string]string{"2477276806": "testdata/item.html"})
	mem := cache.NewMemoryCache()
	c := testClient(t, srv, mem, nil)
	ctx := context.Background()

	first, err := c.FetchItem(ctx, "2477276806", false)
	if err != nil {
		t.Fatalf("first FetchItem() failed: %v", err)
	}
	second, err := c.FetchItem(ctx, "2477276806", false)
	if err != nil {
		t.Fatalf("second FetchItem() failed: %v", err)
	}

	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}
	if first.Name != second.Name {
		t.Errorf("cached Name = %q, want %q", second.Name, first.Name)
	}
	checkSize(t, second.SizeGB, *first.SizeGB)

	if _, hit, _ := mem.Get(ctx, "workshop:item:2477276806"); !hit {
		t.Error("item page not stored in cache")
	}

	if _, err := c.FetchItem(ctx, "2477276806", true); err != nil {
		t.Fatalf("refresh FetchItem() failed: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server hits = %d, want 2 (refresh bypasses the cache)", got)
	}
}

func TestFetchItemFailureNotCached(t *testing.T) {
	srv, hits := pageServer(t, nil)
	mem := cache.NewMemoryCache()
	c := testClient(t, srv, mem, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.FetchItem(ctx, "42", false); err == nil {
			t.Fatal("FetchItem() of missing item succeeded")
		}
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server hits = %d, want 2", got)
	}
	if mem.Len() != 0 {
		t.Errorf("Len() = %d, failures should not be cached", mem.Len())
	}
}

func TestFetchItemContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	c := testClient(t, srv, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := c.FetchItem(ctx, "1", false); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("FetchItem() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestNewClientDiscardsLogsByDefault(t *testing.T) {
	c := NewClient(nil, Options{})
	if c.logger == nil {
		t.Fatal("logger is nil")
	}
	if c.logger == log.Default() {
		t.Error("nil Logger should not fall back to the process-wide logger")
	}
}
