package poem

import (
	"fmt"
	"strings"
)

// ParagraphPolicy decides how a list-valued paragraphs field becomes one string.
type ParagraphPolicy string

const (
	// PolicyFirst keeps only the first element. Later lines are dropped.
	PolicyFirst ParagraphPolicy = "first"
	// PolicyJoin keeps every line, newline separated.
	PolicyJoin ParagraphPolicy = "join"
)

// IsValid checks if the policy is supported.
func (p ParagraphPolicy) IsValid() bool {
	return p == PolicyFirst || p == PolicyJoin
}

// Normalize collapses paragraph lines according to the policy.
func (p ParagraphPolicy) Normalize(lines []string) (string, error) {
	if len(lines) == 0 {
		return "", fmt.Errorf("paragraphs list is empty")
	}
	switch p {
	case PolicyFirst, "":
		return lines[0], nil
	case PolicyJoin:
		return strings.Join(lines, "\n"), nil
	default:
		return "", fmt.Errorf("unknown paragraph policy %q", p)
	}
}
