package chat

import "regexp"

// Markdown signature patterns. Done branches are rendered as markdown only
// when the content actually looks like markdown; plain prose goes through
// untouched so a terse model answer is not reflowed.
var markdownSignatures = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^#{1,6}\s+\S`),    // headers
	regexp.MustCompile(`(?m)^\s*[-*+]\s+\S`),  // unordered lists
	regexp.MustCompile(`(?m)^\s*\d+\.\s+\S`),  // ordered lists
	regexp.MustCompile("(?m)^```"),            // fenced code
	regexp.MustCompile("`[^`\n]+`"),           // inline code
	regexp.MustCompile(`\[[^\]]+\]\([^)]+\)`), // links
	regexp.MustCompile(`(?m)^\|.+\|\s*$`),     // tables
	regexp.MustCompile(`\*\*[^*\n]+\*\*`),     // bold
	regexp.MustCompile(`(?m)^>\s+\S`),         // blockquotes
}

// LooksLikeMarkdown scans content for markdown signatures. Two distinct
// signatures are required: a single stray asterisk or bracket pair in prose
// should not trigger a full markdown render.
func LooksLikeMarkdown(content string) bool {
	hits := 0
	for _, re := range markdownSignatures {
		if re.MatchString(content) {
			hits++
			if hits >= 2 {
				return true
			}
		}
	}
	return false
}
