// Package suppress implements comment-based suppression of sweeper findings.
package suppress

import (
	"regexp"
	"strings"

	"github.com/715d/csweep/internal/cparse"
)

// Checker handles nolint and lint:ignore comment suppression.
type Checker struct {
	// suppressions maps a file:line key to the suppression reason.
	suppressions map[lineKey]string
}

type lineKey struct {
	file string
	line int
}

// Suppression represents a parsed suppression directive.
type Suppression struct {
	Site   cparse.Site
	Reason string
}

// Suppression patterns for C line and block comment styles.
var (
	// nolintPattern matches nolint:csweep with an optional trailing reason.
	nolintPattern = regexp.MustCompile(`nolint:csweep(?:\s*//\s*(.+)|\s+(?:--\s*)?([^*]+))?`)

	// lintIgnorePattern matches lint:ignore csweep with a reason.
	lintIgnorePattern = regexp.MustCompile(`lint:ignore\s+csweep(?:\s+([^*]+))?`)

	// genericNolintPattern matches bare nolint without a linter name.
	genericNolintPattern = regexp.MustCompile(`//\s*nolint\s*$|/\*\s*nolint\s*\*/`)

	// nolintWithMultipleRules matches nolint with comma-separated linters.
	nolintWithMultipleRules = regexp.MustCompile(`nolint:([a-zA-Z0-9_,-]+)`)
)

// NewChecker creates a new suppression checker.
func NewChecker() *Checker {
	return &Checker{
		suppressions: make(map[lineKey]string),
	}
}

// Load parses suppression comments from parsed files. A function
// definition is suppressed when a directive sits on its line or the line
// immediately above, matching the usual Go linter convention.
func (sc *Checker) Load(files []*cparse.File) {
	for _, file := range files {
		if file == nil {
			continue
		}
		for _, comment := range file.Comments {
			if s := sc.parseComment(comment); s != nil {
				reason := s.Reason
				if reason == "" {
					reason = "suppressed"
				}
				sc.suppressions[lineKey{file: file.Path, line: s.Site.Line}] = reason
			}
		}
	}
}

// parseComment parses a comment to check if it's a suppression directive.
func (sc *Checker) parseComment(comment cparse.Comment) *Suppression {
	text := comment.Text

	if matches := lintIgnorePattern.FindStringSubmatch(text); matches != nil {
		reason := ""
		if len(matches) > 1 {
			reason = strings.TrimSpace(matches[1])
		}
		return &Suppression{
			Site:   comment.Site,
			Reason: reason,
		}
	}

	if matches := nolintWithMultipleRules.FindStringSubmatch(text); len(matches) > 1 {
		for rule := range strings.SplitSeq(matches[1], ",") {
			if strings.TrimSpace(rule) != "csweep" {
				continue
			}
			reason := ""
			if m := nolintPattern.FindStringSubmatch(text); m != nil {
				if m[1] != "" {
					reason = strings.TrimSpace(m[1])
				} else if m[2] != "" {
					reason = strings.TrimSpace(m[2])
				}
			}
			return &Suppression{
				Site:   comment.Site,
				Reason: reason,
			}
		}
		return nil
	}

	if genericNolintPattern.MatchString(text) {
		return &Suppression{
			Site: comment.Site,
		}
	}

	return nil
}

// IsSuppressed checks if a definition at the given site is suppressed.
func (sc *Checker) IsSuppressed(site cparse.Site) (bool, string) {
	if reason, ok := sc.suppressions[lineKey{file: site.File, line: site.Line}]; ok {
		return true, reason
	}
	if reason, ok := sc.suppressions[lineKey{file: site.File, line: site.Line - 1}]; ok {
		return true, reason
	}
	return false, ""
}

// Clear clears all suppressions.
func (sc *Checker) Clear() {
	sc.suppressions = make(map[lineKey]string)
}
