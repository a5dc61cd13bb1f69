package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// trashDirName is where reversibly deleted documents are moved, relative to
// the vault root. It is never listed.
const trashDirName = ".trash"

// FS is a Store backed by the local file system, rooted at a vault directory.
// Vault paths are '/'-delimited and relative to the root; anything escaping
// the root is rejected. Derived metadata is cached per path and invalidated
// on writes or by a Watcher.
type FS struct {
	root     string   // absolute path to the vault directory
	excludes []string // doublestar patterns excluded from ListAll

	// mu serializes every check-then-mutate sequence on the tree, so an
	// existence check and the mutation it guards cannot interleave with a
	// concurrent create, rename, or trash of the same path.
	mu sync.Mutex

	metaMu     sync.Mutex
	metaByPath map[string]Metadata
}

var _ Store = (*FS)(nil)

// NewFS creates a new FS store rooted at the given directory, which must
// already exist. Exclude patterns are doublestar globs matched against vault
// paths (e.g. "templates/**").
func NewFS(root string, excludes []string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("vault: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault: root is not a directory: %s", abs)
	}
	return &FS{
		root:       abs,
		excludes:   excludes,
		metaByPath: make(map[string]Metadata),
	}, nil
}

// Root returns the absolute vault root directory.
func (f *FS) Root() string { return f.root }

// safePath resolves a vault path against the root and rejects any result
// that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("vault: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("vault: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("vault: path escapes vault root: %s", rel)
	}
	return abs, nil
}

func (f *FS) Exists(p string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	abs, err := f.safePath(p)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

func (f *FS) Read(p string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read(p)
}

func (f *FS) read(p string) (string, error) {
	abs, err := f.safePath(p)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("vault: read %s: %w", p, err)
	}
	return string(data), nil
}

func (f *FS) Stat(p string) (Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	abs, err := f.safePath(p)
	if err != nil {
		return Document{}, err
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return Document{}, ErrNotFound
	}
	return Document{
		Path:       p,
		Size:       info.Size(),
		CreatedAt:  info.ModTime(),
		ModifiedAt: info.ModTime(),
	}, nil
}

func (f *FS) Write(p, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(p, content)
}

func (f *FS) write(p, content string) error {
	abs, err := f.safePath(p)
	if err != nil {
		return err
	}
	if info, err := os.Stat(abs); err != nil || info.IsDir() {
		return ErrNotFound
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return fmt.Errorf("vault: write %s: %w", p, err)
	}
	f.Invalidate(p)
	return nil
}

func (f *FS) CreateDocument(p, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	abs, err := f.safePath(p)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err == nil {
		return ErrAlreadyExists
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("vault: create ancestors for %s: %w", p, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return fmt.Errorf("vault: create %s: %w", p, err)
	}
	return nil
}

func (f *FS) CreateDirectory(p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	abs, err := f.safePath(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("vault: create directory %s: %w", p, err)
	}
	return nil
}

func (f *FS) RenameWithLinkRewrite(oldPath, newPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	oldAbs, err := f.safePath(oldPath)
	if err != nil {
		return err
	}
	newAbs, err := f.safePath(newPath)
	if err != nil {
		return err
	}
	if info, err := os.Stat(oldAbs); err != nil || info.IsDir() {
		return ErrNotFound
	}
	if _, err := os.Stat(newAbs); err == nil {
		return ErrAlreadyExists
	}
	if err := os.MkdirAll(filepath.Dir(newAbs), 0o755); err != nil {
		return fmt.Errorf("vault: create ancestors for %s: %w", newPath, err)
	}
	if err := os.Rename(oldAbs, newAbs); err != nil {
		return fmt.Errorf("vault: rename %s -> %s: %w", oldPath, newPath, err)
	}
	f.Invalidate(oldPath)
	f.Invalidate(newPath)

	docs, err := f.listAll()
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if doc.Path == newPath {
			continue
		}
		if rewritten, changed := rewriteWikilinks(doc.Body, oldPath, newPath); changed {
			if err := f.write(doc.Path, rewritten); err != nil {
				return fmt.Errorf("vault: rewrite links in %s: %w", doc.Path, err)
			}
		}
	}
	return nil
}

// Trash moves the document into the vault's .trash directory, preserving its
// relative path so it can be restored by hand.
func (f *FS) Trash(p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	abs, err := f.safePath(p)
	if err != nil {
		return err
	}
	if info, err := os.Stat(abs); err != nil || info.IsDir() {
		return ErrNotFound
	}
	dest := filepath.Join(f.root, trashDirName, filepath.FromSlash(p))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("vault: create trash dir: %w", err)
	}
	if _, err := os.Stat(dest); err == nil {
		// A previous deletion left a file at this spot; keep both.
		dest = fmt.Sprintf("%s.%d", dest, time.Now().UnixNano())
	}
	if err := os.Rename(abs, dest); err != nil {
		return fmt.Errorf("vault: trash %s: %w", p, err)
	}
	f.Invalidate(p)
	return nil
}

// ListAll walks the vault and returns every Markdown document, bodies
// included. Non-Markdown files (attachments, sync artifacts), the trash
// directory, and excluded patterns are skipped. Creation time is not tracked
// portably by the filesystem, so CreatedAt mirrors ModifiedAt.
func (f *FS) ListAll() ([]Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listAll()
}

func (f *FS) listAll() ([]Document, error) {
	var out []Document
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(f.root, p)
		if err != nil {
			return err
		}
		vaultPath := filepath.ToSlash(rel)
		if d.IsDir() {
			if vaultPath == trashDirName || f.excluded(vaultPath) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") || f.excluded(vaultPath) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out = append(out, Document{
			Path:       vaultPath,
			Body:       string(data),
			Size:       info.Size(),
			CreatedAt:  info.ModTime(),
			ModifiedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vault: list: %w", err)
	}
	return out, nil
}

func (f *FS) DerivedMetadata(p string) (Metadata, error) {
	f.metaMu.Lock()
	if meta, ok := f.metaByPath[p]; ok {
		f.metaMu.Unlock()
		return meta, nil
	}
	f.metaMu.Unlock()

	body, err := f.Read(p)
	if err != nil {
		return Metadata{}, err
	}
	meta := parseContent(body)

	f.metaMu.Lock()
	f.metaByPath[p] = meta
	f.metaMu.Unlock()
	return meta, nil
}

// Invalidate drops the cached derived metadata for a path. Called internally
// after mutations and by the Watcher on external changes.
func (f *FS) Invalidate(p string) {
	f.metaMu.Lock()
	delete(f.metaByPath, p)
	f.metaMu.Unlock()
}

func (f *FS) excluded(vaultPath string) bool {
	for _, pattern := range f.excludes {
		if ok, err := doublestar.Match(pattern, vaultPath); err == nil && ok {
			return true
		}
	}
	return false
}
