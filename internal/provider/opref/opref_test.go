package opref

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/approvalbroker/broker/internal/provider"
)

func writeStore(t *testing.T, dir, name string, values map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data, err := json.Marshal(values)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestParseReferenceValid(t *testing.T) {
	p := New(Config{})

	ref, ok := p.ParseReference("op://pub/key/field")
	if !ok {
		t.Fatalf("expected a valid reference to parse")
	}
	if ref.Container != "pub" || ref.Item != "key" || ref.Field != "field" {
		t.Errorf("unexpected parse result: %+v", ref)
	}
}

func TestParseReferenceRejectsWrongShape(t *testing.T) {
	p := New(Config{})

	cases := []string{
		"not-a-ref",
		"op://only/two",
		"op://a/b/c/d",
		"op:///item/field",
	}
	for _, raw := range cases {
		if _, ok := p.ParseReference(raw); ok {
			t.Errorf("ParseReference(%q) unexpectedly succeeded", raw)
		}
	}
}

func TestFetchUsesElevatedStoreWhenRequested(t *testing.T) {
	dir := t.TempDir()
	storePath := writeStore(t, dir, "store.json", map[string]string{"pub/key/field": "low"})
	elevatedPath := writeStore(t, dir, "elevated.json", map[string]string{"sec/key/field": "high"})

	p := New(Config{StorePath: storePath, ElevatedStorePath: elevatedPath})
	if err := p.Validate(context.Background()); err != nil {
		t.Fatalf("validate: %v", err)
	}

	ref, _ := p.ParseReference("op://sec/key/field")

	if _, err := p.Fetch(context.Background(), ref, provider.FetchOptions{Elevated: false}); err == nil {
		t.Errorf("expected fetch without elevation to miss the elevated-only value")
	}

	v, err := p.Fetch(context.Background(), ref, provider.FetchOptions{Elevated: true})
	if err != nil {
		t.Fatalf("elevated fetch: %v", err)
	}
	if v != "high" {
		t.Errorf("got %q, want %q", v, "high")
	}
}

func TestValidateFailsOnMissingStore(t *testing.T) {
	p := New(Config{StorePath: "/nonexistent/store.json"})
	if err := p.Validate(context.Background()); err == nil {
		t.Errorf("expected validate to fail for a missing store file")
	}
}
