package vault

import (
	"path"
	"regexp"
	"strings"

	"github.com/deepfates/silicon/internal/models"
)

var (
	wikiLinkRe = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)
	// Standard markdown links; the wiki pattern above wins for embeds like
	// ![[note]] because the inner [[...]] is matched first.
	markdownLinkRe = regexp.MustCompile(`\]\(([^()\s]+)\)`)
)

// parseLinkTargets extracts raw link targets from markdown text, in order of
// appearance: [[wikilinks]] (alias and heading suffixes stripped) and
// [text](target) links. External URLs are dropped.
func parseLinkTargets(text string) []string {
	var targets []string
	for _, m := range wikiLinkRe.FindAllStringSubmatch(text, -1) {
		target := m[1]
		if i := strings.IndexAny(target, "|#"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target != "" {
			targets = append(targets, target)
		}
	}
	for _, m := range markdownLinkRe.FindAllStringSubmatch(text, -1) {
		target := m[1]
		if strings.Contains(target, "://") || strings.HasPrefix(target, "#") {
			continue
		}
		if i := strings.Index(target, "#"); i >= 0 {
			target = target[:i]
		}
		if target != "" {
			targets = append(targets, target)
		}
	}
	return targets
}

// linkResolver maps raw link targets to document identities, by exact
// vault-relative path or by unique basename (the wikilink shorthand).
type linkResolver struct {
	byPath map[string]bool
	byBase map[string][]string
}

func newLinkResolver(docs []models.DocumentInfo) *linkResolver {
	r := &linkResolver{
		byPath: make(map[string]bool, len(docs)),
		byBase: make(map[string][]string),
	}
	for _, doc := range docs {
		r.byPath[doc.Path] = true
		base := strings.TrimSuffix(path.Base(doc.Path), markdownExt)
		r.byBase[base] = append(r.byBase[base], doc.Path)
	}
	return r
}

// resolve returns the identity a raw target points at, trying in order: path
// relative to the linking document, vault-relative path, then basename
// shorthand. Ambiguous basenames resolve to the first enumerated match.
func (r *linkResolver) resolve(target, from string) (string, bool) {
	target = strings.TrimSuffix(strings.TrimPrefix(target, "./"), "/")
	withExt := target
	if !strings.HasSuffix(withExt, markdownExt) {
		withExt += markdownExt
	}
	if from != "" {
		if rel := path.Clean(path.Join(path.Dir(from), withExt)); r.byPath[rel] {
			return rel, true
		}
	}
	if rel := path.Clean(withExt); r.byPath[rel] {
		return rel, true
	}
	base := strings.TrimSuffix(path.Base(target), markdownExt)
	if matches := r.byBase[base]; len(matches) > 0 {
		return matches[0], true
	}
	return "", false
}
