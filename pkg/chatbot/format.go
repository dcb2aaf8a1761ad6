package chatbot

import (
	"regexp"
	"strings"
)

// Generative replies arrive as markdown; the transport contract is plain
// paragraphs. These rules strip the structures models emit most often.
var (
	codeFenceRe   = regexp.MustCompile("(?m)^```[^\n]*$")
	inlineCodeRe  = regexp.MustCompile("`([^`]*)`")
	imageRe       = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkRe        = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	boldRe        = regexp.MustCompile(`\*\*([^*]+)\*\*|__([^_]+)__`)
	italicRe      = regexp.MustCompile(`\*([^*\n]+)\*|\b_([^_\n]+)_\b`)
	headingRe     = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	bulletRe      = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	blockquoteRe  = regexp.MustCompile(`(?m)^>\s?`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
	trailingWSRe  = regexp.MustCompile(`(?m)[ \t]+$`)
	horizontalRe  = regexp.MustCompile(`(?m)^(\s*[-*_]){3,}\s*$`)
	boldFirstSub  = "$1$2"
	plainFirstSub = "$1"
)

// StripMarkdown normalizes generative output to plain text: links keep their
// anchor text, emphasis and headings lose their markers, list items become
// plain lines.
func StripMarkdown(text string) string {
	out := codeFenceRe.ReplaceAllString(text, "")
	out = imageRe.ReplaceAllString(out, "")
	out = linkRe.ReplaceAllString(out, plainFirstSub)
	out = inlineCodeRe.ReplaceAllString(out, plainFirstSub)
	out = boldRe.ReplaceAllString(out, boldFirstSub)
	out = italicRe.ReplaceAllString(out, boldFirstSub)
	out = horizontalRe.ReplaceAllString(out, "")
	out = headingRe.ReplaceAllString(out, "")
	out = bulletRe.ReplaceAllString(out, "")
	out = blockquoteRe.ReplaceAllString(out, "")
	out = trailingWSRe.ReplaceAllString(out, "")
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
