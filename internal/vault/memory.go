package vault

import (
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory document tree. It backs tests and embedders
// that do not need filesystem persistence. All operations are atomic with
// respect to the tree's consistency.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]*Document
	dirs map[string]bool
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]*Document),
		dirs: make(map[string]bool),
	}
}

func (s *MemoryStore) Exists(p string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[p]
	return ok
}

func (s *MemoryStore) Read(p string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[p]
	if !ok {
		return "", ErrNotFound
	}
	return doc.Body, nil
}

func (s *MemoryStore) Stat(p string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[p]
	if !ok {
		return Document{}, ErrNotFound
	}
	stat := *doc
	stat.Body = ""
	return stat, nil
}

func (s *MemoryStore) Write(p, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[p]
	if !ok {
		return ErrNotFound
	}
	doc.Body = content
	doc.Size = int64(len(content))
	doc.ModifiedAt = time.Now()
	return nil
}

func (s *MemoryStore) CreateDocument(p, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[p]; ok {
		return ErrAlreadyExists
	}
	s.ensureAncestors(p)
	now := time.Now()
	s.docs[p] = &Document{
		Path:       p,
		Body:       content,
		Size:       int64(len(content)),
		CreatedAt:  now,
		ModifiedAt: now,
	}
	return nil
}

func (s *MemoryStore) CreateDirectory(p string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dir := range ancestorChain(p + "/") {
		s.dirs[dir] = true
	}
	s.dirs[strings.TrimSuffix(p, "/")] = true
	return nil
}

func (s *MemoryStore) RenameWithLinkRewrite(oldPath, newPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[oldPath]
	if !ok {
		return ErrNotFound
	}
	if _, ok := s.docs[newPath]; ok {
		return ErrAlreadyExists
	}
	s.ensureAncestors(newPath)
	delete(s.docs, oldPath)
	doc.Path = newPath
	doc.ModifiedAt = time.Now()
	s.docs[newPath] = doc

	for _, other := range s.docs {
		if other.Path == newPath {
			continue
		}
		if rewritten, changed := rewriteWikilinks(other.Body, oldPath, newPath); changed {
			other.Body = rewritten
			other.Size = int64(len(rewritten))
			other.ModifiedAt = time.Now()
		}
	}
	return nil
}

func (s *MemoryStore) Trash(p string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[p]; !ok {
		return ErrNotFound
	}
	delete(s.docs, p)
	return nil
}

func (s *MemoryStore) ListAll() ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, *doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *MemoryStore) DerivedMetadata(p string) (Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[p]
	if !ok {
		return Metadata{}, ErrNotFound
	}
	return parseContent(doc.Body), nil
}

// HasDirectory reports whether a directory node exists, for tests and
// embedders inspecting implicit ancestor creation.
func (s *MemoryStore) HasDirectory(p string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirs[strings.TrimSuffix(p, "/")]
}

// ensureAncestors materializes directory nodes for every path segment of a
// document path that does not already exist. Existing segments are left
// untouched; directories are never implicitly deleted.
func (s *MemoryStore) ensureAncestors(p string) {
	for _, dir := range ancestorChain(p) {
		s.dirs[dir] = true
	}
}

// ancestorChain lists the directory paths above a document path, outermost
// first: "a/b/c.md" yields ["a", "a/b"].
func ancestorChain(p string) []string {
	var chain []string
	dir := path.Dir(p)
	for dir != "." && dir != "/" && dir != "" {
		chain = append([]string{dir}, chain...)
		dir = path.Dir(dir)
	}
	return chain
}
