package server

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/bastiangx/pickserve/pkg/catalog"
	"github.com/bastiangx/pickserve/pkg/config"
	"github.com/bastiangx/pickserve/pkg/option"
	"github.com/bastiangx/pickserve/pkg/resolve"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var people = []option.Option{
	{Label: "John Smith", Value: "js1"},
	{Label: "Johnson", Value: "js2"},
	{Label: "Café", Value: "cafe-1"},
	{Label: "Alpha", Value: "XY-100"},
}

func testLimits() config.ServerConfig {
	return config.DefaultConfig().Server
}

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(people, "en")
	if err != nil {
		t.Fatal(err)
	}
	return cat
}

// startServer connects a client to a server over in-memory pipes.
func startServer(t *testing.T, cat *catalog.Catalog, limits config.ServerConfig) *Client {
	t.Helper()
	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()

	srv := NewServerWithIO(cat, limits, reqR, respW)
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(context.Background())
		respW.Close()
	}()

	client := NewClient(respR, reqW)
	t.Cleanup(func() {
		client.Close()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve returned %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("server did not stop after the client closed")
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
	return client
}

func TestSearchRanksResults(t *testing.T) {
	client := startServer(t, newCatalog(t), testLimits())

	results, err := client.Search(context.Background(), "joh", 10, "")
	if err != nil {
		t.Fatal(err)
	}
	var labels []string
	var ranks []uint16
	for _, r := range results {
		labels = append(labels, r.Label)
		ranks = append(ranks, r.Rank)
	}
	if want := []string{"John Smith", "Johnson"}; !reflect.DeepEqual(labels, want) {
		t.Errorf("labels = %v, want %v", labels, want)
	}
	if want := []uint16{1, 2}; !reflect.DeepEqual(ranks, want) {
		t.Errorf("ranks = %v, want %v", ranks, want)
	}
	if want := []option.Span{{Start: 0, End: 3}}; !reflect.DeepEqual(results[0].Slices, want) {
		t.Errorf("slices = %v, want %v", results[0].Slices, want)
	}
	if results[0].Score != option.ScorePrefix || results[0].Matched != option.TargetLabel {
		t.Errorf("unexpected match info %+v", results[0])
	}
}

func TestFetchLookupKeepsOrder(t *testing.T) {
	client := startServer(t, newCatalog(t), testLimits())

	opts, err := client.Fetch(context.Background(), resolve.Lookup([]string{"js2", "missing", "js1", "js2"}), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := option.Values(opts); !reflect.DeepEqual(got, []string{"js2", "js1"}) {
		t.Errorf("values = %v", got)
	}
	if opts[0].Label != "Johnson" {
		t.Errorf("label = %q", opts[0].Label)
	}
}

func TestQueryBounds(t *testing.T) {
	limits := testLimits()
	limits.MaxQuery = 3
	client := startServer(t, newCatalog(t), limits)

	_, err := client.Search(context.Background(), "johnson", 10, "")
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Code != CodeBadRequest {
		t.Fatalf("err = %v, want a bad request", err)
	}

	// Lookups are not bound by query length.
	if _, err := client.Fetch(context.Background(), resolve.Lookup([]string{"cafe-1"}), 0, nil); err != nil {
		t.Errorf("lookup failed: %v", err)
	}
}

func TestLimitIsClamped(t *testing.T) {
	limits := testLimits()
	limits.MaxLimit = 1
	client := startServer(t, newCatalog(t), limits)

	results, err := client.Search(context.Background(), "", 50, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestStatsCountsServedRequests(t *testing.T) {
	client := startServer(t, newCatalog(t), testLimits())
	ctx := context.Background()

	if _, err := client.Search(ctx, "café", 5, ""); err != nil {
		t.Fatal(err)
	}
	st, err := client.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Options != len(people) || st.Served != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestReload(t *testing.T) {
	ctx := context.Background()

	client := startServer(t, newCatalog(t), testLimits())
	_, err := client.Reload(ctx)
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Code != CodeInternal {
		t.Errorf("reload of in-memory catalog: err = %v", err)
	}

	path := filepath.Join(t.TempDir(), "catalog.toml")
	write := func(body string) {
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("[[option]]\nlabel = \"One\"\nvalue = \"1\"\n")
	cat, err := catalog.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	fileClient := startServer(t, cat, testLimits())

	write("[[option]]\nlabel = \"One\"\nvalue = \"1\"\n\n[[option]]\nlabel = \"Two\"\nvalue = \"2\"\n")
	n, err := fileClient.Reload(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("reloaded %d options, want 2", n)
	}
	results, err := fileClient.Search(ctx, "two", 5, "")
	if err != nil || len(results) != 1 || results[0].Value != "2" {
		t.Errorf("search after reload = %v, %v", results, err)
	}
}

func TestCancelledContext(t *testing.T) {
	client := startServer(t, newCatalog(t), testLimits())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Fetch(ctx, resolve.Search("joh"), 5, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestClosedClient(t *testing.T) {
	client := startServer(t, newCatalog(t), testLimits())
	client.Close()
	if _, err := client.Search(context.Background(), "joh", 5, ""); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestResolverOverClient(t *testing.T) {
	client := startServer(t, newCatalog(t), testLimits())

	states := make(chan resolve.State, 16)
	r := resolve.New(resolve.Config{
		Fetcher:   client,
		Immediate: true,
		OnChange:  func(s resolve.State) { states <- s },
	})
	defer r.Close()

	r.Update(resolve.Params{SearchText: "joh", Open: true, Selected: []string{"cafe-1"}})

	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-states:
			if s.Loading {
				continue
			}
			if s.Err != nil {
				t.Fatal(s.Err)
			}
			if len(s.Filtered) != 2 {
				t.Fatalf("filtered = %d, want 2", len(s.Filtered))
			}
			if s.Lookup["cafe-1"].Label != "Café" {
				t.Errorf("selected label not resolved: %+v", s.Lookup)
			}
			return
		case <-deadline:
			t.Fatal("resolver never settled")
		}
	}
}

func TestBadFrameGetsErrorReply(t *testing.T) {
	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()
	srv := NewServerWithIO(newCatalog(t), testLimits(), reqR, respW)
	go func() {
		srv.Serve(context.Background())
		respW.Close()
	}()
	defer reqW.Close()

	read := func() Response {
		t.Helper()
		body, err := readFrame(respR)
		if err != nil {
			t.Fatal(err)
		}
		var resp Response
		if err := msgpack.Unmarshal(body, &resp); err != nil {
			t.Fatal(err)
		}
		return resp
	}

	if resp := read(); resp.Status != StatusReady {
		t.Fatalf("first frame = %+v, want ready", resp)
	}

	// 0xc1 is never used by msgpack.
	if _, err := reqW.Write([]byte{0, 0, 0, 1, 0xc1}); err != nil {
		t.Fatal(err)
	}
	if resp := read(); resp.Status != StatusError || resp.Code != CodeBadRequest {
		t.Errorf("bad frame reply = %+v", resp)
	}

	if err := writeFrame(reqW, Request{ID: "s", Op: OpStats}); err != nil {
		t.Fatal(err)
	}
	if resp := read(); resp.ID != "s" || resp.Stats == nil {
		t.Errorf("server stopped answering after a bad frame: %+v", resp)
	}

	if err := writeFrame(reqW, Request{ID: "u", Op: "explode"}); err != nil {
		t.Fatal(err)
	}
	if resp := read(); resp.Code != CodeBadRequest || !strings.Contains(resp.Error, "explode") {
		t.Errorf("unknown op reply = %+v", resp)
	}
}

func TestPendingRequests(t *testing.T) {
	s := NewServerWithIO(newCatalog(t), testLimits(), strings.NewReader(""), io.Discard)

	ctx, ok := s.register(context.Background(), "a")
	if !ok {
		t.Fatal("register failed")
	}
	if _, dup := s.register(context.Background(), "a"); dup {
		t.Error("duplicate id accepted")
	}
	if s.inFlight() != 1 {
		t.Errorf("in flight = %d", s.inFlight())
	}

	s.cancel("a")
	if !errors.Is(ctx.Err(), context.Canceled) {
		t.Errorf("ctx err = %v", ctx.Err())
	}
	s.cancel("unknown")

	s.unregister("a")
	if s.inFlight() != 0 {
		t.Errorf("in flight = %d after unregister", s.inFlight())
	}
}

func TestFetchAfterCancelRepliesCancelled(t *testing.T) {
	var out bytes.Buffer
	s := NewServerWithIO(newCatalog(t), testLimits(), strings.NewReader(""), &out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.handleFetch(ctx, Request{ID: "x", Op: OpFetch, Query: "joh"})

	body, err := readFrame(&out)
	if err != nil {
		t.Fatal(err)
	}
	var resp Response
	if err := msgpack.Unmarshal(body, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID != "x" || resp.Status != StatusCancelled {
		t.Errorf("response = %+v", resp)
	}
}

func TestCancelReachesQueuedFetch(t *testing.T) {
	var out bytes.Buffer
	s := NewServerWithIO(newCatalog(t), testLimits(), strings.NewReader(""), &out)

	// Every worker is busy.
	sem := semaphore.NewWeighted(1)
	if !sem.TryAcquire(1) {
		t.Fatal("could not take the only worker")
	}
	defer sem.Release(1)

	encode := func(req Request) []byte {
		t.Helper()
		body, err := msgpack.Marshal(req)
		if err != nil {
			t.Fatal(err)
		}
		return body
	}
	fetch := encode(Request{ID: "q", Op: OpFetch, Query: "joh"})
	cancel := encode(Request{ID: "q", Op: OpCancel})

	var g errgroup.Group
	done := make(chan struct{})
	go func() {
		s.dispatch(context.Background(), &g, sem, fetch)
		s.dispatch(context.Background(), &g, sem, cancel)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch blocked while every worker was busy")
	}
	g.Wait()

	body, err := readFrame(&out)
	if err != nil {
		t.Fatal(err)
	}
	var resp Response
	if err := msgpack.Unmarshal(body, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID != "q" || resp.Status != StatusCancelled {
		t.Errorf("queued fetch reply = %+v, want cancelled", resp)
	}
	if s.inFlight() != 0 {
		t.Errorf("in flight = %d after cancel", s.inFlight())
	}
}

func TestFrameLimits(t *testing.T) {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], MaxFrameSize+1)
	if _, err := readFrame(bytes.NewReader(header[:])); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("err = %v, want ErrFrameTooLarge", err)
	}

	if _, err := readFrame(bytes.NewReader([]byte{0, 0, 0, 9, 1})); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("truncated body err = %v", err)
	}
	if _, err := readFrame(bytes.NewReader(nil)); err != io.EOF {
		t.Errorf("empty stream err = %v, want io.EOF", err)
	}
}
