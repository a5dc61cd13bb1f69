package audit

// kindByTool maps registered tool names to audit kinds. Tools absent from
// this table (list_files, search_content, get_metadata, server-side web
// capabilities) are read-only exploration and produce no record.
var kindByTool = map[string]Kind{
	"read_file":   KindRead,
	"write_file":  KindWrite,
	"create_file": KindCreate,
	"rename_file": KindRename,
	"delete_file": KindDelete,
}

// ForInvocation builds the Record for a tool invocation, if the named tool is
// an auditable primitive. The record is built from the raw arguments so that
// even an invocation that later fails validation is still logged as attempted.
func ForInvocation(tool string, args map[string]any) (Record, bool) {
	kind, ok := kindByTool[tool]
	if !ok {
		return Record{}, false
	}
	rec := Record{Kind: kind}
	if p, ok := args["path"].(string); ok {
		rec.Path = p
	}
	if kind == KindRename {
		if p, ok := args["old_path"].(string); ok {
			rec.Path = p
		}
		if d, ok := args["new_path"].(string); ok {
			rec.DestPath = d
		}
	}
	return rec, true
}
