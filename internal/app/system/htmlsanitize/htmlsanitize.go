// internal/app/system/htmlsanitize/htmlsanitize.go
//
// Package htmlsanitize cleans user-supplied text before it is stored.
// Idea descriptions may carry a safe subset of HTML; titles, tags, comments,
// and chat messages are reduced to plain text.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcOnce    sync.Once
	ugc        *bluemonday.Policy
	strictOnce sync.Once
	strict     *bluemonday.Policy
)

func ugcPolicy() *bluemonday.Policy {
	ugcOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").OnElements("table", "code", "pre")
		p.RequireNoFollowOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		ugc = p
	})
	return ugc
}

func strictPolicy() *bluemonday.Policy {
	strictOnce.Do(func() {
		strict = bluemonday.StrictPolicy()
	})
	return strict
}

// Sanitize keeps safe formatting HTML and strips scripts, event handlers,
// and dangerous URLs.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(ugcPolicy().Sanitize(s))
}

// PlainText strips all markup and returns the remaining text unescaped,
// trimmed of surrounding whitespace.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strictPolicy().Sanitize(s)))
}

// PlainTexts applies PlainText to each element and drops empty results and
// case-insensitive duplicates, preserving order.
func PlainTexts(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = PlainText(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
