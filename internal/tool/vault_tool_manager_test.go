package tool

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/vaultpilot/vaultpilot/internal/vault"
	"github.com/vaultpilot/vaultpilot/pkg/message"
)

func newTestManager(t *testing.T, enableDelete bool) (*VaultToolManager, *vault.MemoryStore) {
	t.Helper()
	store := vault.NewMemoryStore()
	return NewVaultToolManager(store, enableDelete), store
}

func callTool(t *testing.T, m *VaultToolManager, name string, args message.ToolArgumentValues) message.ToolResult {
	t.Helper()
	res, err := m.CallTool(context.Background(), message.ToolName(name), args)
	if err != nil {
		t.Fatalf("CallTool(%s) returned error: %v", name, err)
	}
	return res
}

func TestReadWriteCreate(t *testing.T) {
	m, store := newTestManager(t, false)

	res := callTool(t, m, "read_file", message.ToolArgumentValues{"path": "notes/a.md"})
	if res.Error == "" || !strings.Contains(res.Error, "not found") {
		t.Errorf("read of missing file: error = %q, want not found", res.Error)
	}

	res = callTool(t, m, "write_file", message.ToolArgumentValues{"path": "notes/a.md", "content": "x"})
	if res.Error == "" || !strings.Contains(res.Error, "not found") {
		t.Errorf("write of missing file: error = %q, want not found", res.Error)
	}
	if store.Exists("notes/a.md") {
		t.Error("failed write must not create the file")
	}

	res = callTool(t, m, "create_file", message.ToolArgumentValues{"path": "notes/a.md", "content": "hello"})
	if res.Error != "" {
		t.Fatalf("create failed: %s", res.Error)
	}

	res = callTool(t, m, "create_file", message.ToolArgumentValues{"path": "notes/a.md", "content": "other"})
	if res.Error == "" || !strings.Contains(res.Error, "already exists") {
		t.Errorf("create of existing file: error = %q, want already exists", res.Error)
	}
	if body, _ := store.Read("notes/a.md"); body != "hello" {
		t.Errorf("failed create mutated the file: body = %q", body)
	}

	res = callTool(t, m, "read_file", message.ToolArgumentValues{"path": "notes/a.md"})
	if res.Error != "" || res.Text != "hello" {
		t.Errorf("read = (%q, %q), want (hello, )", res.Text, res.Error)
	}
}

func TestWriteStripsDuplicateHeading(t *testing.T) {
	m, store := newTestManager(t, false)
	if err := store.CreateDocument("Daily Note.md", "old"); err != nil {
		t.Fatal(err)
	}

	res := callTool(t, m, "write_file", message.ToolArgumentValues{
		"path":    "Daily Note.md",
		"content": "# Daily Note\nbody",
	})
	if res.Error != "" {
		t.Fatalf("write failed: %s", res.Error)
	}
	if body, _ := store.Read("Daily Note.md"); body != "body" {
		t.Errorf("stored body = %q, want %q", body, "body")
	}

	callTool(t, m, "write_file", message.ToolArgumentValues{
		"path":    "Daily Note.md",
		"content": "# Other Title\nbody",
	})
	if body, _ := store.Read("Daily Note.md"); body != "# Other Title\nbody" {
		t.Errorf("stored body = %q, want content unchanged", body)
	}
}

func TestCreateDoesNotStripHeading(t *testing.T) {
	m, store := newTestManager(t, false)

	callTool(t, m, "create_file", message.ToolArgumentValues{
		"path":    "Daily Note.md",
		"content": "# Daily Note\nbody",
	})
	if body, _ := store.Read("Daily Note.md"); body != "# Daily Note\nbody" {
		t.Errorf("create must store content unchanged, got %q", body)
	}
}

func TestRenameRewritesLinks(t *testing.T) {
	m, store := newTestManager(t, false)
	if err := store.CreateDocument("target.md", "content"); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateDocument("other.md", "see [[target]]"); err != nil {
		t.Fatal(err)
	}

	res := callTool(t, m, "rename_file", message.ToolArgumentValues{
		"old_path": "target.md",
		"new_path": "renamed.md",
	})
	if res.Error != "" {
		t.Fatalf("rename failed: %s", res.Error)
	}

	if body, err := store.Read("renamed.md"); err != nil || body != "content" {
		t.Errorf("read after rename = (%q, %v), want pre-rename body", body, err)
	}
	if _, err := store.Read("target.md"); err == nil {
		t.Error("old path still readable after rename")
	}
	if body, _ := store.Read("other.md"); body != "see [[renamed]]" {
		t.Errorf("link not rewritten: %q", body)
	}
}

func TestDeleteGatedByFlag(t *testing.T) {
	m, store := newTestManager(t, false)
	if err := store.CreateDocument("keep.md", "x"); err != nil {
		t.Fatal(err)
	}

	res := callTool(t, m, "delete_file", message.ToolArgumentValues{"path": "keep.md"})
	if res.Error == "" || !strings.Contains(res.Error, "unrecognized tool") {
		t.Errorf("delete with flag off: error = %q, want unrecognized tool", res.Error)
	}
	if !store.Exists("keep.md") {
		t.Error("file removed despite disabled delete tool")
	}
	if _, ok := m.GetTools()["delete_file"]; ok {
		t.Error("delete_file present in registry with flag off")
	}

	m2, store2 := newTestManager(t, true)
	if err := store2.CreateDocument("gone.md", "x"); err != nil {
		t.Fatal(err)
	}
	res = callTool(t, m2, "delete_file", message.ToolArgumentValues{"path": "gone.md"})
	if res.Error != "" {
		t.Fatalf("delete with flag on failed: %s", res.Error)
	}
	if store2.Exists("gone.md") {
		t.Error("file still present after delete")
	}
}

func TestListFiles(t *testing.T) {
	m, store := newTestManager(t, false)
	for p, body := range map[string]string{
		"notes/a.md":         "x",
		"notes/b.md":         "x",
		"notes-archive/c.md": "x",
		"Projects/Plan.md":   "x",
	} {
		if err := store.CreateDocument(p, body); err != nil {
			t.Fatal(err)
		}
	}

	var out struct {
		Files []struct {
			Path       string `json:"path"`
			Size       *int64 `json:"size"`
			ModifiedAt string `json:"modified_at"`
		} `json:"files"`
		Count int `json:"count"`
	}

	res := callTool(t, m, "list_files", message.ToolArgumentValues{"folder": "notes"})
	if err := json.Unmarshal([]byte(res.Text), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Count != 2 {
		t.Errorf("folder scope must not match sibling folders: count = %d, want 2", out.Count)
	}

	res = callTool(t, m, "list_files", message.ToolArgumentValues{"pattern": "plan"})
	if err := json.Unmarshal([]byte(res.Text), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Count != 1 || out.Files[0].Path != "Projects/Plan.md" {
		t.Errorf("case-insensitive pattern: got %+v", out)
	}
	if out.Files[0].Size != nil {
		t.Error("size attached without include_metadata")
	}

	res = callTool(t, m, "list_files", message.ToolArgumentValues{"pattern": "plan", "include_metadata": true})
	if err := json.Unmarshal([]byte(res.Text), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Files[0].Size == nil || out.Files[0].ModifiedAt == "" {
		t.Errorf("metadata missing: %+v", out.Files[0])
	}
}

func TestSearchContent(t *testing.T) {
	m, store := newTestManager(t, false)
	if err := store.CreateDocument("a.md", "foo here\nnothing\nFOO again"); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateDocument("b.md", "more foo"); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateDocument("c.md", "unrelated"); err != nil {
		t.Fatal(err)
	}

	var out struct {
		Results []struct {
			Path    string `json:"path"`
			Matches []struct {
				Line    int    `json:"line"`
				Content string `json:"content"`
			} `json:"matches"`
		} `json:"results"`
		TotalFilesSearched int  `json:"total_files_searched"`
		FilesWithMatches   int  `json:"files_with_matches"`
		Truncated          bool `json:"truncated"`
	}

	res := callTool(t, m, "search_content", message.ToolArgumentValues{"query": "foo"})
	if err := json.Unmarshal([]byte(res.Text), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.FilesWithMatches != 2 || out.TotalFilesSearched != 3 || out.Truncated {
		t.Errorf("got files_with_matches=%d total=%d truncated=%v", out.FilesWithMatches, out.TotalFilesSearched, out.Truncated)
	}
	if len(out.Results[0].Matches) != 2 {
		t.Errorf("case-insensitive match count in a.md = %d, want 2", len(out.Results[0].Matches))
	}
	if out.Results[0].Matches[0].Line != 1 || out.Results[0].Matches[1].Line != 3 {
		t.Errorf("line numbers = %d,%d, want 1,3", out.Results[0].Matches[0].Line, out.Results[0].Matches[1].Line)
	}

	res = callTool(t, m, "search_content", message.ToolArgumentValues{"query": "foo", "max_results": float64(1)})
	if err := json.Unmarshal([]byte(res.Text), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(out.Results) != 1 || !out.Truncated {
		t.Errorf("max_results=1: results=%d truncated=%v, want 1 result and truncated", len(out.Results), out.Truncated)
	}

	res = callTool(t, m, "search_content", message.ToolArgumentValues{"query": "FOO", "case_sensitive": true})
	if err := json.Unmarshal([]byte(res.Text), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.FilesWithMatches != 1 || out.Results[0].Matches[0].Line != 3 {
		t.Errorf("case-sensitive search: %+v", out)
	}
}

func TestSearchExcerptTruncation(t *testing.T) {
	m, store := newTestManager(t, false)
	long := "needle " + strings.Repeat("x", 300)
	if err := store.CreateDocument("long.md", long); err != nil {
		t.Fatal(err)
	}
	// Multibyte runes must not be split at the excerpt boundary.
	wide := "needle " + strings.Repeat("日", 300)
	if err := store.CreateDocument("wide.md", wide); err != nil {
		t.Fatal(err)
	}

	var out struct {
		Results []struct {
			Path    string `json:"path"`
			Matches []struct {
				Content string `json:"content"`
			} `json:"matches"`
		} `json:"results"`
	}
	res := callTool(t, m, "search_content", message.ToolArgumentValues{"query": "needle"})
	if err := json.Unmarshal([]byte(res.Text), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, hit := range out.Results {
		excerpt := hit.Matches[0].Content
		if got := utf8.RuneCountInString(excerpt); got != 200 {
			t.Errorf("%s excerpt length = %d runes, want 200", hit.Path, got)
		}
		if !utf8.ValidString(excerpt) {
			t.Errorf("%s excerpt is not valid UTF-8", hit.Path)
		}
	}
}

func TestGetMetadata(t *testing.T) {
	m, store := newTestManager(t, false)
	content := "---\ntitle: Note\ntags:\n  - project\n---\nbody with [[other]] and #inline"
	if err := store.CreateDocument("meta.md", content); err != nil {
		t.Fatal(err)
	}

	var out map[string]any

	res := callTool(t, m, "get_metadata", message.ToolArgumentValues{"path": "meta.md"})
	if err := json.Unmarshal([]byte(res.Text), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out["name"] != "meta" || out["path"] != "meta.md" {
		t.Errorf("identity fields: %+v", out)
	}
	fm, ok := out["frontmatter"].(map[string]any)
	if !ok || fm["title"] != "Note" {
		t.Errorf("frontmatter included by default: %+v", out["frontmatter"])
	}
	if _, ok := out["links"]; ok {
		t.Error("links attached without include_links")
	}

	res = callTool(t, m, "get_metadata", message.ToolArgumentValues{
		"path":                "meta.md",
		"include_frontmatter": false,
		"include_links":       true,
		"include_tags":        true,
	})
	out = nil
	if err := json.Unmarshal([]byte(res.Text), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := out["frontmatter"]; ok {
		t.Error("frontmatter attached despite include_frontmatter=false")
	}
	links, _ := out["links"].([]any)
	if len(links) != 1 || links[0] != "other" {
		t.Errorf("links = %v, want [other]", out["links"])
	}
	tags, _ := out["tags"].([]any)
	if len(tags) != 2 {
		t.Errorf("tags = %v, want frontmatter and inline tag", out["tags"])
	}

	res = callTool(t, m, "get_metadata", message.ToolArgumentValues{"path": "missing.md"})
	if res.Error == "" || !strings.Contains(res.Error, "not found") {
		t.Errorf("metadata of missing file: error = %q, want not found", res.Error)
	}
}

func TestInvalidArguments(t *testing.T) {
	m, _ := newTestManager(t, false)

	tests := []struct {
		tool string
		args message.ToolArgumentValues
	}{
		{"read_file", message.ToolArgumentValues{}},
		{"write_file", message.ToolArgumentValues{"path": "a.md"}},
		{"create_file", message.ToolArgumentValues{"content": "x"}},
		{"rename_file", message.ToolArgumentValues{"old_path": "a.md"}},
		{"search_content", message.ToolArgumentValues{}},
	}
	for _, tt := range tests {
		res := callTool(t, m, tt.tool, tt.args)
		if res.Error == "" {
			t.Errorf("%s with args %v: expected validation error", tt.tool, tt.args)
		}
	}
}

func TestCompositeToolManager(t *testing.T) {
	m, store := newTestManager(t, true)
	composite := NewCompositeToolManager(m)

	if len(composite.GetTools()) != len(m.GetTools()) {
		t.Errorf("composite tools = %d, want %d", len(composite.GetTools()), len(m.GetTools()))
	}

	if err := store.CreateDocument("a.md", "hello"); err != nil {
		t.Fatal(err)
	}
	res, err := composite.CallTool(context.Background(), "read_file", message.ToolArgumentValues{"path": "a.md"})
	if err != nil || res.Text != "hello" {
		t.Errorf("composite dispatch = (%q, %v), want (hello, nil)", res.Text, err)
	}

	res, err = composite.CallTool(context.Background(), "nope", nil)
	if err != nil || res.Error == "" {
		t.Errorf("unknown tool: got (%+v, %v), want error result", res, err)
	}
}
