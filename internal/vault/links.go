package vault

import (
	"path"
	"strings"
)

// linkRef returns the wikilink reference form of a document path: the path
// without its extension.
func linkRef(p string) string {
	ext := path.Ext(p)
	return strings.TrimSuffix(p, ext)
}

// baseName returns the document's identifier: its filename without extension.
func baseName(p string) string {
	return linkRef(path.Base(p))
}

// rewriteWikilinks replaces every wikilink reference to oldPath with the
// corresponding reference to newPath, preserving aliases and heading
// fragments. Both the full-path form ([[folder/note]]) and the short form
// ([[note]]) are rewritten. Reports whether anything changed.
func rewriteWikilinks(content, oldPath, newPath string) (string, bool) {
	replacements := [][2]string{
		{linkRef(oldPath), linkRef(newPath)},
		{baseName(oldPath), baseName(newPath)},
	}

	out := content
	for _, r := range replacements {
		oldRef, newRef := r[0], r[1]
		if oldRef == newRef {
			continue
		}
		for _, suffix := range []string{"]]", "|", "#"} {
			out = strings.ReplaceAll(out, "[["+oldRef+suffix, "[["+newRef+suffix)
		}
	}
	return out, out != content
}
