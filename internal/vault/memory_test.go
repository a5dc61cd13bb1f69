package vault

import (
	"errors"
	"testing"
)

func TestMemoryStoreWriteThenRead(t *testing.T) {
	s := NewMemoryStore()
	if err := s.CreateDocument("notes/a.md", "original"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Write("notes/a.md", "updated"); err != nil {
		t.Fatalf("write: %v", err)
	}
	body, err := s.Read("notes/a.md")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if body != "updated" {
		t.Errorf("read = %q, want %q", body, "updated")
	}
}

func TestMemoryStoreWriteMissingFails(t *testing.T) {
	s := NewMemoryStore()
	err := s.Write("missing.md", "x")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("write missing = %v, want ErrNotFound", err)
	}
	if s.Exists("missing.md") {
		t.Error("write must never create a document")
	}
}

func TestMemoryStoreCreateExistingFails(t *testing.T) {
	s := NewMemoryStore()
	if err := s.CreateDocument("a.md", "first"); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := s.CreateDocument("a.md", "second")
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("create existing = %v, want ErrAlreadyExists", err)
	}
	body, _ := s.Read("a.md")
	if body != "first" {
		t.Errorf("existing document mutated: %q", body)
	}
}

func TestMemoryStoreImplicitAncestors(t *testing.T) {
	s := NewMemoryStore()
	if err := s.CreateDocument("projects/2026/plan.md", "x"); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, dir := range []string{"projects", "projects/2026"} {
		if !s.HasDirectory(dir) {
			t.Errorf("missing implicit directory %q", dir)
		}
	}
}

func TestMemoryStoreRename(t *testing.T) {
	s := NewMemoryStore()
	if err := s.CreateDocument("old.md", "the body"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateDocument("ref.md", "see [[old]] for details"); err != nil {
		t.Fatalf("create ref: %v", err)
	}

	if err := s.RenameWithLinkRewrite("old.md", "sub/new.md"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	body, err := s.Read("sub/new.md")
	if err != nil {
		t.Fatalf("read new: %v", err)
	}
	if body != "the body" {
		t.Errorf("renamed body = %q", body)
	}
	if _, err := s.Read("old.md"); !errors.Is(err, ErrNotFound) {
		t.Errorf("read old after rename = %v, want ErrNotFound", err)
	}

	ref, _ := s.Read("ref.md")
	if ref != "see [[new]] for details" {
		t.Errorf("link not rewritten: %q", ref)
	}
}

func TestMemoryStoreRenameConflicts(t *testing.T) {
	s := NewMemoryStore()
	if err := s.CreateDocument("a.md", "a"); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateDocument("b.md", "b"); err != nil {
		t.Fatal(err)
	}

	if err := s.RenameWithLinkRewrite("missing.md", "c.md"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rename missing = %v, want ErrNotFound", err)
	}
	if err := s.RenameWithLinkRewrite("a.md", "b.md"); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("rename onto occupied = %v, want ErrAlreadyExists", err)
	}
}

func TestMemoryStoreTrash(t *testing.T) {
	s := NewMemoryStore()
	if err := s.CreateDocument("a.md", "a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Trash("a.md"); err != nil {
		t.Fatalf("trash: %v", err)
	}
	if s.Exists("a.md") {
		t.Error("document still present after trash")
	}
	if err := s.Trash("a.md"); !errors.Is(err, ErrNotFound) {
		t.Errorf("trash missing = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreDerivedMetadata(t *testing.T) {
	s := NewMemoryStore()
	content := "---\ntitle: Test\ntags:\n  - alpha\n---\nBody with [[Other Note]] and #beta tag."
	if err := s.CreateDocument("a.md", content); err != nil {
		t.Fatal(err)
	}

	meta, err := s.DerivedMetadata("a.md")
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.Frontmatter["title"] != "Test" {
		t.Errorf("frontmatter title = %v", meta.Frontmatter["title"])
	}
	if len(meta.Links) != 1 || meta.Links[0] != "Other Note" {
		t.Errorf("links = %v", meta.Links)
	}
	want := map[string]bool{"alpha": true, "beta": true}
	for _, tag := range meta.Tags {
		if !want[tag] {
			t.Errorf("unexpected tag %q", tag)
		}
		delete(want, tag)
	}
	if len(want) != 0 {
		t.Errorf("missing tags: %v", want)
	}
}
