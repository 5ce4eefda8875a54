package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/bastiangx/pickserve/pkg/option"
)

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"catalog.toml":    FormatTOML,
		"snap.BIN":        FormatSnapshot,
		"x/y/all.msgpack": FormatSnapshot,
		"names.txt":       FormatText,
	}
	for path, want := range tests {
		if got, err := DetectFormat(path); err != nil || got != want {
			t.Errorf("DetectFormat(%q) = %v, %v; want %v", path, got, err, want)
		}
	}
	if _, err := DetectFormat("catalog.json"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("json err = %v", err)
	}
}

func TestSnapshotRoundTripThroughCatalog(t *testing.T) {
	dir := t.TempDir()
	src := mustNew(t, append(people, option.Option{Label: "Off", Value: "off", Disabled: true, Icon: "x"}))

	snap := filepath.Join(dir, "catalog.bin")
	if err := WriteFile(snap, src.Export()); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(snap)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded.Export(), src.Export()) {
		t.Errorf("snapshot contents differ:\n got %+v\nwant %+v", loaded.Export(), src.Export())
	}
	if got := labels(loaded.Search("mary", 5, "")); !reflect.DeepEqual(got, []string{"Mary Jones"}) {
		t.Errorf("search on snapshot = %v", got)
	}
}

func TestTextCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.txt")
	body := "# people\njs1\tJohn Smith\n\nJohnson\n  cafe \t Café Müller \n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []option.Option{
		{Label: "John Smith", Value: "js1"},
		{Label: "Johnson", Value: "Johnson"},
		{Label: "Café Müller", Value: "cafe"},
	}
	if got := c.Export().Options; !reflect.DeepEqual(got, want) {
		t.Errorf("options = %+v", got)
	}

	if err := WriteFile(filepath.Join(t.TempDir(), "out.txt"), c.Export()); err == nil {
		t.Error("writing text catalogs is not supported")
	}
}

func TestEmptySnapshotFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected an error for an empty snapshot")
	}
}
