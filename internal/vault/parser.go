package vault

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// parseContent extracts frontmatter, wikilink targets, and tags from raw
// document content. Invalid YAML frontmatter is tolerated: the whole content
// is treated as body.
func parseContent(content string) Metadata {
	fm, body := splitFrontmatter(content)
	return Metadata{
		Frontmatter: fm,
		Links:       extractLinks(body),
		Tags:        extractTags(body, fm),
	}
}

// splitFrontmatter separates YAML frontmatter (between leading ---
// delimiters) from the body. If no frontmatter is found the entire content is
// body.
func splitFrontmatter(content string) (map[string]any, string) {
	const delim = "---"
	trimmed := strings.TrimLeft(content, "\n\r")

	if !strings.HasPrefix(trimmed, delim) {
		return nil, content
	}

	rest := trimmed[len(delim):]
	idx := strings.Index(rest, "\n"+delim)
	if idx < 0 {
		return nil, content
	}

	yamlBlock := rest[:idx]
	body := strings.TrimLeft(rest[idx+1+len(delim):], "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(yamlBlock), &fm); err != nil {
		return nil, content
	}
	return fm, body
}

// extractLinks returns deduplicated wikilink targets, normalizing aliases and
// heading fragments: [[Target|Alias]] and [[Target#Heading]] both yield Target.
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target := m[1]
		if i := strings.IndexAny(target, "|#"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// extractTags collects tags from the frontmatter "tags" field and inline
// #tags in the body, frontmatter first.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	if fm != nil {
		if raw, ok := fm["tags"].([]any); ok {
			for _, item := range raw {
				if s, ok := item.(string); ok {
					add(s)
				}
			}
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}
