package search

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/poemdex/internal/domain/search/result"
)

// NotFoundMessage is shown when a query has no match.
const NotFoundMessage = "未找到相似的古诗词，请尝试其他词语。"

// Rule separates formatted hits.
var Rule = strings.Repeat("-", 50)

// FormatText renders hits as title/author/paragraphs/distance blocks, each followed by Rule.
// An empty slice renders NotFoundMessage.
func FormatText(results []result.Result) string {
	if len(results) == 0 {
		return NotFoundMessage
	}
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "title: %s\n", r.Title)
		fmt.Fprintf(&b, "author: %s\n", r.Author)
		fmt.Fprintf(&b, "paragraphs: %s\n", r.Paragraphs)
		fmt.Fprintf(&b, "distance: %.4f\n", r.Distance)
		b.WriteString(Rule)
		b.WriteByte('\n')
	}
	return b.String()
}
