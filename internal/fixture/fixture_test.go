package fixture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecodeAddsReferencedTags(t *testing.T) {
	t.Parallel()

	f, err := Decode(strings.NewReader(`{
		"tags": [{"title": "Go", "slug": "go"}],
		"articles": [
			{"slug": "hello", "title": "Hello", "publishedAt": "2024-01-02T03:04:05Z", "tags": ["go", "testing"]}
		]
	}`))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	index := f.TagIndex()
	if len(index) != 2 {
		t.Fatalf("expected two tags, got %d", len(index))
	}
	if index["testing"].Title != "testing" {
		t.Fatalf("expected the implicit tag to be titled by its slug, got %+v", index["testing"])
	}
	if f.Articles[0].PublishedAt.Year() != 2024 {
		t.Fatalf("unexpected publishedAt %s", f.Articles[0].PublishedAt)
	}
}

func TestDecodeRejectsBadTags(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing slug": `{"tags": [{"title": "Go"}]}`,
		"duplicate":    `{"tags": [{"title": "Go", "slug": "go"}, {"title": "Golang", "slug": "go"}]}`,
		"invalid json": `{"tags": [`,
		"author name":  `{"authors": [{"mail": "ada@example.com"}]}`,
	}

	for name, input := range cases {
		if _, err := Decode(strings.NewReader(input)); err == nil {
			t.Errorf("%s: expected Decode to fail", name)
		}
	}
}

func TestAuthorListMergesReferencedAuthors(t *testing.T) {
	t.Parallel()

	f, err := Decode(strings.NewReader(`{
		"authors": [{"name": "Grace", "mail": "grace@example.com"}],
		"articles": [
			{"slug": "one", "title": "One", "publishedAt": "2024-01-01T00:00:00Z", "author": {"name": "Ada"}},
			{"slug": "two", "title": "Two", "publishedAt": "2024-01-02T00:00:00Z", "author": {"name": "Grace"}},
			{"slug": "three", "title": "Three", "publishedAt": "2024-01-03T00:00:00Z", "author": {"name": "Ada"}}
		]
	}`))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	authors := f.AuthorList()
	if len(authors) != 2 || authors[0].Name != "Grace" || authors[1].Name != "Ada" {
		t.Fatalf("expected Grace then Ada, got %+v", authors)
	}
	if authors[0].Mail != "grace@example.com" {
		t.Fatalf("expected the declared author to win over references, got %+v", authors[0])
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadFile(""); err == nil {
		t.Fatalf("expected error for an empty path")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "blog.json")
	if err := os.WriteFile(path, []byte(`{"articles": [{"slug": "a", "title": "A", "publishedAt": "2024-01-01T00:00:00Z"}]}`), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if len(f.Articles) != 1 || f.Articles[0].Slug != "a" {
		t.Fatalf("unexpected fixture %+v", f)
	}
}
