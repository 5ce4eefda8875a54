package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/bastiangx/pickserve/pkg/option"
	"github.com/bastiangx/pickserve/pkg/resolve"
)

var people = []option.Option{
	{Label: "John Smith", Value: "js1"},
	{Label: "Johnson", Value: "js2"},
	{Label: "Café Müller", Value: "cafe"},
	{Label: "Mary Jones", Value: "mj"},
}

func labels(ms []option.Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Label
	}
	return out
}

func mustNew(t *testing.T, opts []option.Option) *Catalog {
	t.Helper()
	c, err := New(opts, "en")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestSearch(t *testing.T) {
	c := mustNew(t, people)
	tests := []struct {
		query string
		limit int
		want  []string
	}{
		{"joh", 10, []string{"John Smith", "Johnson"}},
		{"joh", 1, []string{"John Smith"}},
		{"muller", 10, []string{"Café Müller"}},
		{"CAFE", 10, []string{"Café Müller"}},
		{"jones mary", 10, []string{"Mary Jones"}},
		{"js1, mj", 10, []string{"John Smith", "Mary Jones"}},
		{"", 2, []string{"John Smith", "Johnson"}},
		{"zebra", 10, []string{}},
	}
	for _, tt := range tests {
		got := labels(c.Search(tt.query, tt.limit, ""))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Search(%q, %d) = %v, want %v", tt.query, tt.limit, got, tt.want)
		}
	}
}

func TestIndexNarrowsCandidates(t *testing.T) {
	c := mustNew(t, people)
	c.mu.RLock()
	defer c.mu.RUnlock()

	got := option.Values(c.candidates("joh"))
	if want := []string{"js1", "js2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("candidates(joh) = %v, want %v", got, want)
	}
	if n := len(c.candidates("a, b")); n != len(people) {
		t.Errorf("comma query should scan everything, got %d", n)
	}
	if n := len(c.candidates("---")); n != len(people) {
		t.Errorf("query without words should scan everything, got %d", n)
	}
}

func TestReplaceValidates(t *testing.T) {
	_, err := New([]option.Option{{Label: "No value"}}, "en")
	if !errors.Is(err, ErrEmptyValue) {
		t.Errorf("err = %v, want ErrEmptyValue", err)
	}
}

func TestDuplicateValueKeepsLater(t *testing.T) {
	c := mustNew(t, []option.Option{
		{Label: "Old", Value: "x"},
		{Label: "Other", Value: "y"},
		{Label: "New", Value: "x"},
	})
	if c.Len() != 2 {
		t.Errorf("len = %d, want 2", c.Len())
	}
	if got := c.Resolve([]string{"x"}); got[0].Label != "New" {
		t.Errorf("resolved %+v", got)
	}
	if got := labels(c.Search("", 0, "")); !reflect.DeepEqual(got, []string{"New", "Other"}) {
		t.Errorf("order = %v", got)
	}
}

func TestResolve(t *testing.T) {
	c := mustNew(t, people)
	got := option.Values(c.Resolve([]string{"mj", "missing", "js1"}))
	if want := []string{"mj", "js1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
}

func TestFetch(t *testing.T) {
	c := mustNew(t, people)
	ctx := context.Background()

	opts, err := c.Fetch(ctx, resolve.Search("johns"), 5, nil)
	if err != nil || len(opts) != 1 || opts[0].Value != "js2" {
		t.Errorf("search fetch = %v, %v", opts, err)
	}

	opts, err = c.Fetch(ctx, resolve.Lookup([]string{"cafe"}), 5, nil)
	if err != nil || len(opts) != 1 || opts[0].Label != "Café Müller" {
		t.Errorf("lookup fetch = %v, %v", opts, err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := c.Fetch(cancelled, resolve.Search("j"), 5, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled fetch err = %v", err)
	}
}

func TestLoadAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	write := func(body string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}

	write(`language = "de"

[[option]]
label = "Straße"
value = "street"

[[option]]
value = "bare"
disabled = true
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Language() != "de" {
		t.Errorf("language = %q", c.Language())
	}
	if got := c.Resolve([]string{"bare"}); got[0].Label != "bare" || !got[0].Disabled {
		t.Errorf("bare option = %+v", got[0])
	}
	if got := labels(c.Search("strasse", 5, "")); !reflect.DeepEqual(got, []string{"Straße"}) {
		t.Errorf("Search(strasse) = %v", got)
	}

	write("[[option]]\nlabel = \"Road\"\nvalue = \"road\"\n")
	if err := c.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if st := c.Stats(); st.Options != 1 || st.Path != path || st.IndexKeys != 1 {
		t.Errorf("stats = %+v", st)
	}

	write("[[option]\nbroken")
	if err := c.Reload(); err == nil {
		t.Error("expected a parse error")
	}
	if c.Len() != 1 {
		t.Error("a failed reload must keep the previous options")
	}
}

func TestFold(t *testing.T) {
	tests := map[string]string{
		"Café":     "cafe",
		"ÅNGSTRÖM": "angstrom",
		"Straße":   "strasse",
	}
	for in, want := range tests {
		if got := fold(in); got != want {
			t.Errorf("fold(%q) = %q, want %q", in, got, want)
		}
	}
	if got := keys("Mary-Jo O'Neil"); !reflect.DeepEqual(got, []string{"mary", "jo", "o", "neil"}) {
		t.Errorf("keys = %v", got)
	}
}
