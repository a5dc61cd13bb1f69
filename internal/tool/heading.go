package tool

import "strings"

// stripDuplicateHeading removes the first non-blank line of content when it
// is a level-1 heading whose text exactly equals the document's own name.
// Hosting UIs already display the name as a title, so a model re-adding it as
// a heading produces a visible duplicate. Applied on overwrite only, not on
// file creation.
func stripDuplicateHeading(content, name string) string {
	lines := strings.Split(content, "\n")

	first := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			first = i
			break
		}
	}
	if first < 0 {
		return content
	}

	line := strings.TrimSpace(lines[first])
	if !strings.HasPrefix(line, "# ") || strings.TrimSpace(line[2:]) != name {
		return content
	}

	// Only the heading line is removed; surrounding blank lines stay as the
	// model wrote them.
	rest := make([]string, 0, len(lines)-1)
	rest = append(rest, lines[:first]...)
	rest = append(rest, lines[first+1:]...)
	return strings.Join(rest, "\n")
}
