package category

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mdserve/internal/cache"
	"mdserve/internal/config"
	"mdserve/internal/source"
	"mdserve/pkg/fileops"

	"github.com/adrg/xdg"
)

// newServiceFixture builds a docroot with the given files, a config with a
// "guide" category over it, and a fully wired service. Config auto-saves are
// redirected into the test's temp dir.
func newServiceFixture(t *testing.T, files map[string]string) (*Service, string) {
	t.Helper()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	xdg.Reload()

	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}
	canonical, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatalf("Failed to canonicalize root: %v", err)
	}

	cfg := &config.Config{
		Docroot: canonical,
		Categories: map[string]config.Category{
			"guide": {Dir: "aidocs/guide", Patterns: []string{"*.md"}},
		},
	}

	validator, err := fileops.NewPathValidator([]string{canonical})
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	contentCache := cache.NewContentCache()
	accessor := source.NewAccessor(validator, contentCache)
	svc := NewService(cfg, validator, cache.NewDocumentCache(), contentCache, accessor)
	return svc, canonical
}

func TestCategories(t *testing.T) {
	svc, _ := newServiceFixture(t, nil)
	svc.cfg.Categories["alpha"] = config.Category{Dir: "a", Patterns: []string{"*"}}
	svc.cfg.Categories["zeta"] = config.Category{Dir: "z", Patterns: []string{"*"}}

	names := svc.Categories()
	want := []string{"alpha", "guide", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("Expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Expected sorted names %v, got %v", want, names)
		}
	}
}

func TestGetContent(t *testing.T) {
	svc, _ := newServiceFixture(t, map[string]string{
		"aidocs/guide/alpha.md": "alpha body",
		"aidocs/guide/beta.md":  "beta body",
		"aidocs/guide/skip.txt": "not matched",
	})

	result, err := svc.GetContent(context.Background(), "guide")
	if err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}

	if len(result.MatchedFiles) != 2 {
		t.Fatalf("Expected 2 matches, got %v", result.MatchedFiles)
	}
	for _, fragment := range []string{"# alpha.md", "alpha body", "# beta.md", "beta body"} {
		if !strings.Contains(result.Content, fragment) {
			t.Errorf("Expected content to contain %q", fragment)
		}
	}
	if strings.Contains(result.Content, "not matched") {
		t.Error("Unmatched file leaked into content")
	}
}

func TestGetContentErrors(t *testing.T) {
	svc, _ := newServiceFixture(t, nil)

	if _, err := svc.GetContent(context.Background(), "absent"); err == nil {
		t.Error("Expected error for unknown category")
	}

	svc.cfg.Categories["empty"] = config.Category{Dir: "somewhere"}
	if _, err := svc.GetContent(context.Background(), "empty"); err == nil {
		t.Error("Expected error for category without patterns")
	}
}

func TestGetContentInlineReadError(t *testing.T) {
	svc, root := newServiceFixture(t, map[string]string{
		"aidocs/guide/good.md": "good body",
		"aidocs/guide/gone.md": "doomed",
	})

	// Prime the match-list cache, then delete one file so its read fails
	// while the other still succeeds.
	if _, err := svc.GetContent(context.Background(), "guide"); err != nil {
		t.Fatalf("Priming read failed: %v", err)
	}
	if err := os.Remove(filepath.Join(root, "aidocs", "guide", "gone.md")); err != nil {
		t.Fatalf("Failed to remove file: %v", err)
	}

	result, err := svc.GetContent(context.Background(), "guide")
	if err != nil {
		t.Fatalf("Expected partial success, got: %v", err)
	}
	if !strings.Contains(result.Content, "good body") {
		t.Error("Expected surviving file content")
	}
	if !strings.Contains(result.Content, "Error reading file:") {
		t.Error("Expected inline error for the missing file")
	}
}

func TestGetContentUsesMatchCache(t *testing.T) {
	svc, root := newServiceFixture(t, map[string]string{
		"aidocs/guide/one.md": "one",
	})
	ctx := context.Background()

	first, err := svc.GetContent(ctx, "guide")
	if err != nil {
		t.Fatalf("First read failed: %v", err)
	}
	if len(first.MatchedFiles) != 1 {
		t.Fatalf("Expected 1 match, got %v", first.MatchedFiles)
	}

	// A file added after the first read stays invisible until invalidation:
	// existence answers change only on category mutation.
	newFile := filepath.Join(root, "aidocs", "guide", "two.md")
	if err := os.WriteFile(newFile, []byte("two"), 0o644); err != nil {
		t.Fatalf("Failed to add file: %v", err)
	}

	second, err := svc.GetContent(ctx, "guide")
	if err != nil {
		t.Fatalf("Second read failed: %v", err)
	}
	if len(second.MatchedFiles) != 1 {
		t.Errorf("Expected cached match list, got %v", second.MatchedFiles)
	}

	svc.ClearCaches()
	third, err := svc.GetContent(ctx, "guide")
	if err != nil {
		t.Fatalf("Third read failed: %v", err)
	}
	if len(third.MatchedFiles) != 2 {
		t.Errorf("Expected fresh glob after cache clear, got %v", third.MatchedFiles)
	}
}

func TestDocumentExists(t *testing.T) {
	svc, _ := newServiceFixture(t, map[string]string{
		"aidocs/guide/intro.md": "intro",
	})

	exists, matched, err := svc.DocumentExists("guide", "intro")
	if err != nil {
		t.Fatalf("DocumentExists failed: %v", err)
	}
	if !exists || len(matched) != 1 {
		t.Errorf("Expected intro to exist via extension fallback, got %v %v", exists, matched)
	}

	exists, _, err = svc.DocumentExists("guide", "absent")
	if err != nil || exists {
		t.Errorf("Expected absent document, got %v, %v", exists, err)
	}

	if _, _, err := svc.DocumentExists("nope", "intro"); err == nil {
		t.Error("Expected error for unknown category")
	}
}

func TestReadDocument(t *testing.T) {
	svc, _ := newServiceFixture(t, map[string]string{
		"aidocs/guide/intro.md": "intro body",
	})
	ctx := context.Background()

	content, err := svc.ReadDocument(ctx, "guide", "intro")
	if err != nil {
		t.Fatalf("ReadDocument failed: %v", err)
	}
	if content != "intro body" {
		t.Errorf("Unexpected content %q", content)
	}

	_, err = svc.ReadDocument(ctx, "guide", "missing")
	var nfe *source.NotFoundError
	if !errors.As(err, &nfe) {
		t.Errorf("Expected *source.NotFoundError, got %T: %v", err, err)
	}
}

func TestListDocuments(t *testing.T) {
	svc, _ := newServiceFixture(t, map[string]string{
		"aidocs/guide/meta.md":  "---\ntitle: Meta Doc\ndescription: Has frontmatter\n---\nbody",
		"aidocs/guide/plain.md": "no frontmatter here",
	})

	docs, err := svc.ListDocuments("guide")
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(docs))
	}

	byName := make(map[string]DocumentInfo)
	for _, d := range docs {
		byName[d.Name] = d
	}
	if byName["meta.md"].Title != "Meta Doc" || byName["meta.md"].Description != "Has frontmatter" {
		t.Errorf("Expected frontmatter metadata, got %+v", byName["meta.md"])
	}
	if byName["plain.md"].Title != "" {
		t.Errorf("Expected no metadata for plain document, got %+v", byName["plain.md"])
	}
}

func TestFetchDocument(t *testing.T) {
	svc, _ := newServiceFixture(t, map[string]string{
		"aidocs/guide/local.md": "local body",
	})
	ctx := context.Background()

	t.Run("local relative path", func(t *testing.T) {
		content, err := svc.FetchDocument(ctx, "aidocs/guide/local.md")
		if err != nil {
			t.Fatalf("FetchDocument failed: %v", err)
		}
		if content != "local body" {
			t.Errorf("Unexpected content %q", content)
		}
	})

	t.Run("traversal outside docroot rejected", func(t *testing.T) {
		_, err := svc.FetchDocument(ctx, "../../etc/passwd")
		var secErr *fileops.SecurityError
		if !errors.As(err, &secErr) {
			t.Errorf("Expected *fileops.SecurityError, got %T: %v", err, err)
		}
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		if _, err := svc.FetchDocument(ctx, "ftp://example.com/doc"); err == nil {
			t.Error("Expected unsupported scheme error")
		}
	})

	t.Run("http origin", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("remote body"))
		}))
		defer server.Close()

		content, err := svc.FetchDocument(ctx, server.URL+"/doc.md")
		if err != nil {
			t.Fatalf("FetchDocument failed: %v", err)
		}
		if content != "remote body" {
			t.Errorf("Unexpected content %q", content)
		}
	})
}

func TestCategoryMutation(t *testing.T) {
	svc, _ := newServiceFixture(t, map[string]string{
		"aidocs/team/playbook.md": "playbook",
	})
	ctx := context.Background()

	team := config.Category{Dir: "aidocs/team", Patterns: []string{"*.md"}}

	t.Run("add and read", func(t *testing.T) {
		if err := svc.AddCategory("team", team); err != nil {
			t.Fatalf("AddCategory failed: %v", err)
		}
		result, err := svc.GetContent(ctx, "team")
		if err != nil {
			t.Fatalf("GetContent failed: %v", err)
		}
		if !strings.Contains(result.Content, "playbook") {
			t.Error("Expected new category content")
		}
	})

	t.Run("duplicate add rejected", func(t *testing.T) {
		if err := svc.AddCategory("team", team); err == nil {
			t.Error("Expected duplicate add to fail")
		}
	})

	t.Run("invalid definitions rejected", func(t *testing.T) {
		if err := svc.AddCategory("bad name", team); err == nil {
			t.Error("Expected invalid name to fail")
		}
		if err := svc.AddCategory("nopatterns", config.Category{Dir: "x"}); err == nil {
			t.Error("Expected missing patterns to fail")
		}
	})

	t.Run("builtin guard", func(t *testing.T) {
		if err := svc.AddCategory("guide", team); err == nil {
			t.Error("Expected built-in override to fail")
		}
		if err := svc.UpdateCategory("guide", team); err == nil {
			t.Error("Expected built-in update to fail")
		}
		if err := svc.RemoveCategory("guide"); err == nil {
			t.Error("Expected built-in removal to fail")
		}
	})

	t.Run("update invalidates cached answers", func(t *testing.T) {
		exists, _, err := svc.DocumentExists("team", "playbook")
		if err != nil || !exists {
			t.Fatalf("Expected playbook to exist, got %v, %v", exists, err)
		}

		moved := config.Category{Dir: "aidocs/elsewhere", Patterns: []string{"*.md"}}
		if err := svc.UpdateCategory("team", moved); err != nil {
			t.Fatalf("UpdateCategory failed: %v", err)
		}

		// The old answer must not survive the mutation.
		exists, _, err = svc.DocumentExists("team", "playbook")
		if err != nil {
			t.Fatalf("DocumentExists failed: %v", err)
		}
		if exists {
			t.Error("Expected stale existence answer to be invalidated")
		}
	})

	t.Run("remove", func(t *testing.T) {
		if err := svc.RemoveCategory("team"); err != nil {
			t.Fatalf("RemoveCategory failed: %v", err)
		}
		if err := svc.RemoveCategory("team"); err == nil {
			t.Error("Expected second removal to fail")
		}
		if _, _, err := svc.DocumentExists("team", "playbook"); err == nil {
			t.Error("Expected removed category to be unknown")
		}
	})
}
