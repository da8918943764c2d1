// Package category implements the category-level document operations: glob
// discovery with existence caching, content assembly, and the mutation paths
// that keep the cache consistent with the configuration.
package category

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mdserve/internal/cache"
	"mdserve/internal/config"
	"mdserve/internal/discovery"
	"mdserve/internal/logging"
	"mdserve/internal/source"
	"mdserve/pkg/fileops"

	"github.com/adrg/frontmatter"
)

// allDocumentsKey is the reserved document-cache key holding a category's
// full pattern-set match list, so repeated content reads do not re-glob.
// Category names are restricted to [A-Za-z0-9_-]+, so "*" cannot collide
// with a real document name.
const allDocumentsKey = "*"

// DocMeta is the YAML frontmatter recognized in documents.
type DocMeta struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// DocumentInfo describes a discovered document for listings.
type DocumentInfo struct {
	Name        string
	Path        string
	Title       string
	Description string
}

// ContentResult is the assembled content of a category read.
type ContentResult struct {
	Content      string
	MatchedFiles []string
	Patterns     []string
	SearchDir    string
}

// Service owns the category operations. It holds single-instance caches by
// reference; every mutation path invalidates the document cache
// synchronously before returning.
type Service struct {
	cfg          *config.Config
	validator    *fileops.PathValidator
	docCache     *cache.DocumentCache
	contentCache *cache.ContentCache
	accessor     *source.Accessor
}

// NewService wires a category service from its collaborators.
func NewService(cfg *config.Config, validator *fileops.PathValidator, docCache *cache.DocumentCache, contentCache *cache.ContentCache, accessor *source.Accessor) *Service {
	return &Service{
		cfg:          cfg,
		validator:    validator,
		docCache:     docCache,
		contentCache: contentCache,
		accessor:     accessor,
	}
}

// Categories returns the category names in sorted order.
func (s *Service) Categories() []string {
	names := make([]string, 0, len(s.cfg.Categories))
	for name := range s.cfg.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// searchDir resolves a category's directory under the docroot, bounded by
// the allowed roots.
func (s *Service) searchDir(cat config.Category) (string, error) {
	docroot, err := s.cfg.AbsoluteDocroot()
	if err != nil {
		return "", err
	}
	return s.validator.ValidatePath(cat.Dir, docroot)
}

// matchedFiles returns the category's full match list, serving from the
// document cache when possible. The cache lock is never held across the
// glob itself.
func (s *Service) matchedFiles(name string, cat config.Category) ([]string, string, error) {
	dir, err := s.searchDir(cat)
	if err != nil {
		return nil, "", err
	}

	if entry, ok := s.docCache.Get(name, allDocumentsKey); ok {
		return entry.Matched, dir, nil
	}

	matched := discovery.GlobSearch(dir, cat.Patterns)
	s.docCache.Set(name, allDocumentsKey, len(matched) > 0, matched)
	return matched, dir, nil
}

// DocumentExists answers whether a document matching the given name exists
// in the category. Answers are cached until the category is mutated; the
// underlying glob runs at most once per (category, document) between
// invalidations.
func (s *Service) DocumentExists(name, document string) (bool, []string, error) {
	cat, ok := s.cfg.Categories[name]
	if !ok {
		return false, nil, fmt.Errorf("category %q does not exist", name)
	}

	if entry, ok := s.docCache.Get(name, document); ok {
		return entry.Exists, entry.Matched, nil
	}

	dir, err := s.searchDir(cat)
	if err != nil {
		return false, nil, err
	}

	matched := discovery.GlobSearch(dir, []string{document})
	s.docCache.Set(name, document, len(matched) > 0, matched)
	return len(matched) > 0, matched, nil
}

// ReadDocument reads a single named document from a category. The document
// name may be a bare name (extension fallback applies) or a glob pattern;
// the first match wins.
func (s *Service) ReadDocument(ctx context.Context, name, document string) (string, error) {
	exists, matched, err := s.DocumentExists(name, document)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", &source.NotFoundError{Path: document, Kind: source.KindLocal}
	}

	cat := s.cfg.Categories[name]
	dir, err := s.searchDir(cat)
	if err != nil {
		return "", err
	}
	src := source.FileSource{Kind: source.KindLocal, BasePath: dir}
	return s.accessor.ReadFile(ctx, matched[0], src)
}

// GetContent assembles the combined content of every document matching the
// category's patterns. A file that fails to read is reported inline in the
// output rather than aborting the whole batch, so one bad file never breaks
// a listing.
func (s *Service) GetContent(ctx context.Context, name string) (*ContentResult, error) {
	cat, ok := s.cfg.Categories[name]
	if !ok {
		return nil, fmt.Errorf("category %q does not exist", name)
	}
	if len(cat.Patterns) == 0 {
		return nil, fmt.Errorf("category %q has no patterns defined", name)
	}

	matched, dir, err := s.matchedFiles(name, cat)
	if err != nil {
		return nil, err
	}

	src := source.FileSource{Kind: source.KindLocal, BasePath: dir}
	var parts []string
	for _, path := range matched {
		header := "# " + filepath.Base(path)
		content, err := s.accessor.ReadFile(ctx, path, src)
		if err != nil {
			logging.Warn("Failed to read matched document", "path", path, "error", err)
			parts = append(parts, fmt.Sprintf("%s\n\nError reading file: %v", header, err))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s\n\n%s", header, content))
	}

	return &ContentResult{
		Content:      strings.Join(parts, "\n\n"),
		MatchedFiles: matched,
		Patterns:     cat.Patterns,
		SearchDir:    dir,
	}, nil
}

// ListDocuments lists the category's documents with frontmatter metadata.
// Documents without valid frontmatter are still listed, just without title
// or description.
func (s *Service) ListDocuments(name string) ([]DocumentInfo, error) {
	cat, ok := s.cfg.Categories[name]
	if !ok {
		return nil, fmt.Errorf("category %q does not exist", name)
	}

	matched, _, err := s.matchedFiles(name, cat)
	if err != nil {
		return nil, err
	}

	docs := make([]DocumentInfo, 0, len(matched))
	for _, path := range matched {
		info := DocumentInfo{Name: filepath.Base(path), Path: path}

		content, err := os.ReadFile(path)
		if err != nil {
			logging.Debug("Cannot read document for metadata", "path", path, "error", err)
			docs = append(docs, info)
			continue
		}

		var meta DocMeta
		if _, err := frontmatter.Parse(bytes.NewReader(content), &meta); err == nil {
			info.Title = meta.Title
			info.Description = meta.Description
		}
		docs = append(docs, info)
	}
	return docs, nil
}

// FetchDocument reads a document from an explicit URI: file://, http:// or
// https://, or a plain local path. Remote reads go through the content
// cache; local reads stay bounded by the allowed roots.
func (s *Service) FetchDocument(ctx context.Context, uri string) (string, error) {
	src, err := source.ParseSource(uri)
	if err != nil {
		return "", err
	}
	if src.Kind == source.KindHTTP {
		return s.accessor.ReadFile(ctx, "", source.FileSource{
			Kind:         source.KindHTTP,
			BasePath:     strings.TrimSuffix(src.BasePath, "/"),
			CacheEnabled: src.CacheEnabled,
			CacheTTL:     src.CacheTTL,
			AuthHeaders:  src.AuthHeaders,
		})
	}

	docroot, err := s.cfg.AbsoluteDocroot()
	if err != nil {
		return "", err
	}
	return s.accessor.ReadFile(ctx, src.BasePath, source.FileSource{Kind: source.KindLocal, BasePath: docroot})
}

// AddCategory adds a new category and invalidates any cached answers that
// may exist under its name.
func (s *Service) AddCategory(name string, cat config.Category) error {
	if config.BuiltinCategories[name] {
		return fmt.Errorf("cannot override built-in category %q", name)
	}
	if _, exists := s.cfg.Categories[name]; exists {
		return fmt.Errorf("category %q already exists", name)
	}
	if err := config.ValidateCategory(name, cat); err != nil {
		return err
	}

	s.cfg.Categories[name] = cat
	s.docCache.InvalidateCategory(name)
	s.autoSave()
	return nil
}

// UpdateCategory replaces a category's configuration. The document cache is
// invalidated synchronously: no stale entry may survive a change of dir or
// patterns.
func (s *Service) UpdateCategory(name string, cat config.Category) error {
	if config.BuiltinCategories[name] {
		return fmt.Errorf("cannot modify built-in category %q", name)
	}
	if _, exists := s.cfg.Categories[name]; !exists {
		return fmt.Errorf("category %q does not exist", name)
	}
	if err := config.ValidateCategory(name, cat); err != nil {
		return err
	}

	s.cfg.Categories[name] = cat
	s.docCache.InvalidateCategory(name)
	s.autoSave()
	return nil
}

// RemoveCategory deletes a category and its cached answers.
func (s *Service) RemoveCategory(name string) error {
	if config.BuiltinCategories[name] {
		return fmt.Errorf("cannot remove built-in category %q", name)
	}
	if _, exists := s.cfg.Categories[name]; !exists {
		return fmt.Errorf("category %q does not exist", name)
	}

	delete(s.cfg.Categories, name)
	s.docCache.InvalidateCategory(name)
	s.autoSave()
	return nil
}

// ClearCaches resets both caches. Administrative/test escape hatch.
func (s *Service) ClearCaches() {
	s.docCache.ClearAll()
	if s.contentCache != nil {
		s.contentCache.Clear()
	}
}

// autoSave persists the config after a mutation. Category operations succeed
// even when the save fails; the failure is only logged.
func (s *Service) autoSave() {
	if err := s.cfg.Save(); err != nil {
		logging.Warn("Auto-save failed", "error", err)
	}
}

