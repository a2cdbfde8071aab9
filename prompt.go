package conceptrag

import (
	"fmt"
	"strings"

	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/reconstruct"
)

const (
	promptKeyConcepts  = 5
	highConfidenceMark = 0.7
)

// BuildPrompt renders the generation prompt for q. Retrieval answers carry
// their context segments; direct responses pass none.
func BuildPrompt(q *core.Query, segments []reconstruct.Segment) string {
	var b strings.Builder

	if len(q.Concepts) > 0 {
		category := core.CategoryGeneral
		if c, ok := core.DominantCategory(q.Concepts); ok {
			category = c
		}
		var key, high []string
		for i, c := range q.Concepts {
			if i < promptKeyConcepts {
				key = append(key, c.Label)
			}
			if c.Confidence > highConfidenceMark {
				high = append(high, c.Label)
			}
		}
		b.WriteString("[CONCEPT ANALYSIS]\n")
		fmt.Fprintf(&b, "Primary Category: %s\n", category)
		fmt.Fprintf(&b, "Key Concepts: %s\n", strings.Join(key, ", "))
		if len(high) > 0 {
			fmt.Fprintf(&b, "High Confidence Concepts: %s\n", strings.Join(high, ", "))
		}
		b.WriteString("\n")
	}

	if len(segments) > 0 {
		b.WriteString("[CONTEXT]\n")
		for i, s := range segments {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "[Document: %s, Position: %d]\n%s", s.DocumentId, s.Position, s.Text)
		}
		b.WriteString("\n\n")
	}

	b.WriteString("[QUESTION]\n")
	b.WriteString(strings.TrimSpace(q.Text))
	b.WriteString("\n\n")
	if len(segments) > 0 {
		b.WriteString("Answer the question using only the context above. If the context does not contain the answer, say so.")
	} else {
		b.WriteString("Respond directly and briefly.")
	}
	return b.String()
}
