package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"

	"github.com/vaultpilot/vaultpilot/internal/vault"
	pkgLogger "github.com/vaultpilot/vaultpilot/pkg/logger"
	"github.com/vaultpilot/vaultpilot/pkg/message"
)

var logger = pkgLogger.NewComponentLogger("tool")

const (
	searchDefaultMaxResults = 50
	searchMaxLinesPerFile   = 5
	searchExcerptLimit      = 200
)

// VaultToolManager exposes the document tree primitives as tools. Every
// failure is reported as an error tool result, never a Go error, so a bad
// invocation flows back to the model instead of ending the run.
type VaultToolManager struct {
	store vault.Store
	tools map[message.ToolName]message.Tool
}

// NewVaultToolManager creates a tool manager over store. The delete tool is
// registered only when enableDelete is set; with it off, a delete invocation
// is an unrecognized tool like any other.
func NewVaultToolManager(store vault.Store, enableDelete bool) *VaultToolManager {
	m := &VaultToolManager{
		store: store,
		tools: make(map[message.ToolName]message.Tool),
	}
	m.registerVaultTools(enableDelete)
	return m
}

func (m *VaultToolManager) GetTools() map[message.ToolName]message.Tool {
	return m.tools
}

func (m *VaultToolManager) CallTool(ctx context.Context, name message.ToolName, args message.ToolArgumentValues) (message.ToolResult, error) {
	tool, exists := m.tools[name]
	if !exists {
		return message.NewToolResultError(fmt.Sprintf("unrecognized tool: %s", name)), nil
	}
	return tool.Handler()(ctx, args)
}

func (m *VaultToolManager) RegisterTool(name message.ToolName, description message.ToolDescription, args []message.ToolArgument, handler func(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error)) {
	m.tools[name] = &vaultTool{
		name:        name,
		description: description,
		arguments:   args,
		handler:     handler,
	}
}

func (m *VaultToolManager) registerVaultTools(enableDelete bool) {
	m.RegisterTool("read_file", "Read the full content of a file in the vault",
		[]message.ToolArgument{
			{Name: "path", Description: "Vault-relative path of the file to read", Required: true, Type: "string"},
		},
		m.handleRead)

	m.RegisterTool("write_file", "Overwrite the content of an existing file. Fails if the file does not exist; use create_file for new files.",
		[]message.ToolArgument{
			{Name: "path", Description: "Vault-relative path of the file to overwrite", Required: true, Type: "string"},
			{Name: "content", Description: "Full replacement content", Required: true, Type: "string"},
		},
		m.handleWrite)

	m.RegisterTool("create_file", "Create a new file, creating missing parent folders. Fails if a file already exists at the path.",
		[]message.ToolArgument{
			{Name: "path", Description: "Vault-relative path of the file to create", Required: true, Type: "string"},
			{Name: "content", Description: "Initial file content", Required: true, Type: "string"},
		},
		m.handleCreate)

	m.RegisterTool("rename_file", "Move or rename a file. Links to the old path in other files are updated.",
		[]message.ToolArgument{
			{Name: "old_path", Description: "Current vault-relative path", Required: true, Type: "string"},
			{Name: "new_path", Description: "New vault-relative path", Required: true, Type: "string"},
		},
		m.handleRename)

	if enableDelete {
		m.RegisterTool("delete_file", "Move a file to the vault trash (reversible delete)",
			[]message.ToolArgument{
				{Name: "path", Description: "Vault-relative path of the file to delete", Required: true, Type: "string"},
			},
			m.handleDelete)
	}

	m.RegisterTool("list_files", "List files in the vault, optionally scoped to a folder or filtered by a name pattern",
		[]message.ToolArgument{
			{Name: "folder", Description: "Only list files under this folder", Required: false, Type: "string"},
			{Name: "pattern", Description: "Case-insensitive substring to match against file paths", Required: false, Type: "string"},
			{Name: "include_metadata", Description: "Include size and timestamps per file (default false)", Required: false, Type: "boolean"},
		},
		m.handleList)

	m.RegisterTool("search_content", "Search file contents for a text query and return matching line excerpts",
		[]message.ToolArgument{
			{Name: "query", Description: "Text to search for", Required: true, Type: "string"},
			{Name: "folder", Description: "Only search files under this folder", Required: false, Type: "string"},
			{Name: "case_sensitive", Description: "Match case exactly (default false)", Required: false, Type: "boolean"},
			{Name: "max_results", Description: "Stop after this many files have matched (default 50)", Required: false, Type: "number"},
		},
		m.handleSearch)

	m.RegisterTool("get_metadata", "Get a file's size, timestamps, and optionally its frontmatter, links, and tags",
		[]message.ToolArgument{
			{Name: "path", Description: "Vault-relative path of the file", Required: true, Type: "string"},
			{Name: "include_frontmatter", Description: "Include parsed frontmatter (default true)", Required: false, Type: "boolean"},
			{Name: "include_links", Description: "Include outgoing link targets (default false)", Required: false, Type: "boolean"},
			{Name: "include_tags", Description: "Include tags (default false)", Required: false, Type: "boolean"},
		},
		m.handleMetadata)
}

// Argument decoding

type pathArgs struct {
	Path string
}

func (a pathArgs) validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Path, validation.Required),
	)
}

type contentArgs struct {
	Path    string
	Content string
	set     bool
}

func (a contentArgs) validate() error {
	if err := validation.ValidateStruct(&a,
		validation.Field(&a.Path, validation.Required),
	); err != nil {
		return err
	}
	if !a.set {
		return fmt.Errorf("content: cannot be blank")
	}
	return nil
}

type renameArgs struct {
	OldPath string
	NewPath string
}

func (a renameArgs) validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.OldPath, validation.Required),
		validation.Field(&a.NewPath, validation.Required),
	)
}

func stringArg(args message.ToolArgumentValues, key string) string {
	s, _ := args[key].(string)
	return s
}

func boolArg(args message.ToolArgumentValues, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func intArg(args message.ToolArgumentValues, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

// Tool handlers

func (m *VaultToolManager) handleRead(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	a := pathArgs{Path: stringArg(args, "path")}
	if err := a.validate(); err != nil {
		return message.NewToolResultError(err.Error()), nil
	}
	body, err := m.store.Read(a.Path)
	if err != nil {
		return storeErrorResult("read", a.Path, err), nil
	}
	return message.NewToolResultText(body), nil
}

func (m *VaultToolManager) handleWrite(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	content, set := args["content"].(string)
	a := contentArgs{Path: stringArg(args, "path"), Content: content, set: set}
	if err := a.validate(); err != nil {
		return message.NewToolResultError(err.Error()), nil
	}

	filtered := stripDuplicateHeading(a.Content, docName(a.Path))
	if err := m.store.Write(a.Path, filtered); err != nil {
		return storeErrorResult("write", a.Path, err), nil
	}

	logger.DebugWithIntention(pkgLogger.IntentionTool, "wrote file",
		"path", a.Path, "content_length", len(filtered))
	return message.NewToolResultText(fmt.Sprintf("Wrote %s (%d bytes)", a.Path, len(filtered))), nil
}

func (m *VaultToolManager) handleCreate(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	content, set := args["content"].(string)
	a := contentArgs{Path: stringArg(args, "path"), Content: content, set: set}
	if err := a.validate(); err != nil {
		return message.NewToolResultError(err.Error()), nil
	}
	if err := m.store.CreateDocument(a.Path, a.Content); err != nil {
		return storeErrorResult("create", a.Path, err), nil
	}
	return message.NewToolResultText(fmt.Sprintf("Created %s", a.Path)), nil
}

func (m *VaultToolManager) handleRename(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	a := renameArgs{OldPath: stringArg(args, "old_path"), NewPath: stringArg(args, "new_path")}
	if err := a.validate(); err != nil {
		return message.NewToolResultError(err.Error()), nil
	}
	if err := m.store.RenameWithLinkRewrite(a.OldPath, a.NewPath); err != nil {
		return storeErrorResult("rename", a.OldPath, err), nil
	}
	return message.NewToolResultText(fmt.Sprintf("Renamed %s to %s", a.OldPath, a.NewPath)), nil
}

func (m *VaultToolManager) handleDelete(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	a := pathArgs{Path: stringArg(args, "path")}
	if err := a.validate(); err != nil {
		return message.NewToolResultError(err.Error()), nil
	}
	if err := m.store.Trash(a.Path); err != nil {
		return storeErrorResult("delete", a.Path, err), nil
	}
	return message.NewToolResultText(fmt.Sprintf("Moved %s to trash", a.Path)), nil
}

type listEntry struct {
	Path       string `json:"path"`
	Size       *int64 `json:"size,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
}

func (m *VaultToolManager) handleList(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	folder := normalizeFolder(stringArg(args, "folder"))
	pattern := strings.ToLower(stringArg(args, "pattern"))
	includeMetadata := boolArg(args, "include_metadata", false)

	docs, err := m.store.ListAll()
	if err != nil {
		return message.NewToolResultError(fmt.Sprintf("failed to list files: %v", err)), nil
	}

	files := make([]listEntry, 0, len(docs))
	for _, doc := range docs {
		if folder != "" && !strings.HasPrefix(doc.Path, folder) {
			continue
		}
		if pattern != "" && !strings.Contains(strings.ToLower(doc.Path), pattern) {
			continue
		}
		entry := listEntry{Path: doc.Path}
		if includeMetadata {
			size := doc.Size
			entry.Size = &size
			entry.CreatedAt = doc.CreatedAt.Format(timeFormat)
			entry.ModifiedAt = doc.ModifiedAt.Format(timeFormat)
		}
		files = append(files, entry)
	}

	return jsonResult(struct {
		Files []listEntry `json:"files"`
		Count int         `json:"count"`
	}{files, len(files)})
}

type searchMatch struct {
	Line    int    `json:"line"`
	Content string `json:"content"`
}

type searchHit struct {
	Path    string        `json:"path"`
	Matches []searchMatch `json:"matches"`
}

func (m *VaultToolManager) handleSearch(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	query := stringArg(args, "query")
	if err := validation.Validate(query, validation.Required); err != nil {
		return message.NewToolResultError(fmt.Sprintf("query: %v", err)), nil
	}
	folder := normalizeFolder(stringArg(args, "folder"))
	caseSensitive := boolArg(args, "case_sensitive", false)
	maxResults := intArg(args, "max_results", searchDefaultMaxResults)
	if maxResults <= 0 {
		maxResults = searchDefaultMaxResults
	}

	needle := query
	if !caseSensitive {
		needle = strings.ToLower(query)
	}

	docs, err := m.store.ListAll()
	if err != nil {
		return message.NewToolResultError(fmt.Sprintf("failed to search files: %v", err)), nil
	}

	var (
		results       []searchHit
		totalSearched int
	)
	for _, doc := range docs {
		if folder != "" && !strings.HasPrefix(doc.Path, folder) {
			continue
		}
		totalSearched++

		var matches []searchMatch
		for i, line := range strings.Split(doc.Body, "\n") {
			haystack := line
			if !caseSensitive {
				haystack = strings.ToLower(line)
			}
			if !strings.Contains(haystack, needle) {
				continue
			}
			excerpt := line
			// Truncate on rune boundaries so multibyte text stays valid UTF-8.
			if runes := []rune(excerpt); len(runes) > searchExcerptLimit {
				excerpt = string(runes[:searchExcerptLimit])
			}
			matches = append(matches, searchMatch{Line: i + 1, Content: excerpt})
			if len(matches) == searchMaxLinesPerFile {
				break
			}
		}
		if len(matches) == 0 {
			continue
		}
		results = append(results, searchHit{Path: doc.Path, Matches: matches})
		if len(results) == maxResults {
			break
		}
	}

	if results == nil {
		results = []searchHit{}
	}
	return jsonResult(struct {
		Results            []searchHit `json:"results"`
		TotalFilesSearched int         `json:"total_files_searched"`
		FilesWithMatches   int         `json:"files_with_matches"`
		Truncated          bool        `json:"truncated"`
	}{results, totalSearched, len(results), len(results) == maxResults})
}

func (m *VaultToolManager) handleMetadata(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	a := pathArgs{Path: stringArg(args, "path")}
	if err := a.validate(); err != nil {
		return message.NewToolResultError(err.Error()), nil
	}
	includeFrontmatter := boolArg(args, "include_frontmatter", true)
	includeLinks := boolArg(args, "include_links", false)
	includeTags := boolArg(args, "include_tags", false)

	doc, err := m.store.Stat(a.Path)
	if err != nil {
		return storeErrorResult("stat", a.Path, err), nil
	}

	out := map[string]any{
		"path":        doc.Path,
		"name":        docName(doc.Path),
		"size":        doc.Size,
		"created_at":  doc.CreatedAt.Format(timeFormat),
		"modified_at": doc.ModifiedAt.Format(timeFormat),
	}

	if includeFrontmatter || includeLinks || includeTags {
		meta, err := m.store.DerivedMetadata(a.Path)
		if err != nil {
			return storeErrorResult("stat", a.Path, err), nil
		}
		if includeFrontmatter {
			out["frontmatter"] = meta.Frontmatter
		}
		if includeLinks {
			out["links"] = emptyIfNil(meta.Links)
		}
		if includeTags {
			out["tags"] = emptyIfNil(meta.Tags)
		}
	}

	return jsonResult(out)
}

// Helpers

const timeFormat = "2006-01-02T15:04:05Z07:00"

// docName is the document's identifier: its filename without extension.
func docName(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// normalizeFolder ensures a non-empty folder scope ends with a separator so
// prefix matching cannot cross sibling folders ("notes" must not match
// "notes-archive/a.md").
func normalizeFolder(folder string) string {
	if folder == "" {
		return ""
	}
	return strings.TrimSuffix(folder, "/") + "/"
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func storeErrorResult(op, p string, err error) message.ToolResult {
	switch {
	case errors.Is(err, vault.ErrNotFound):
		return message.NewToolResultError(fmt.Sprintf("file not found: %s", p))
	case errors.Is(err, vault.ErrAlreadyExists):
		return message.NewToolResultError(fmt.Sprintf("file already exists: %s", p))
	default:
		return message.NewToolResultError(fmt.Sprintf("failed to %s %s: %v", op, p, err))
	}
}

func jsonResult(v any) (message.ToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return message.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return message.NewToolResultText(string(data)), nil
}

// vaultTool is the registration record for one vault tool.
type vaultTool struct {
	name        message.ToolName
	description message.ToolDescription
	arguments   []message.ToolArgument
	handler     func(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error)
}

func (t *vaultTool) Name() message.ToolName               { return t.name }
func (t *vaultTool) Description() message.ToolDescription { return t.description }
func (t *vaultTool) Arguments() []message.ToolArgument    { return t.arguments }
func (t *vaultTool) Handler() func(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	return t.handler
}
