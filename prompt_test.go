package conceptrag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/reconstruct"
)

func TestBuildPrompt(t *testing.T) {
	concepts := []core.Concept{
		{Label: "work", Category: core.CategoryBusiness, Confidence: 0.9, Weight: 1},
		{Label: "hour", Category: core.CategoryTime, Confidence: 0.5, Weight: 0.4},
	}

	t.Run("retrieval prompt carries context", func(t *testing.T) {
		q := &core.Query{Text: "  what are the work hours ", Concepts: concepts}
		segments := []reconstruct.Segment{
			{DocumentId: "handbook", Position: 0, Text: "Work Hours: Monday to Friday."},
			{DocumentId: "handbook", Position: 1, Text: "Vacation policy."},
		}

		prompt := BuildPrompt(q, segments)
		assert.Contains(t, prompt, "Primary Category: business\n")
		assert.Contains(t, prompt, "Key Concepts: work, hour\n")
		assert.Contains(t, prompt, "High Confidence Concepts: work\n")
		assert.Contains(t, prompt, "[Document: handbook, Position: 0]\nWork Hours: Monday to Friday.\n\n[Document: handbook, Position: 1]\nVacation policy.")
		assert.Contains(t, prompt, "[QUESTION]\nwhat are the work hours\n")
		assert.Contains(t, prompt, "using only the context above")
	})

	t.Run("direct response has no context", func(t *testing.T) {
		prompt := BuildPrompt(&core.Query{Text: "Hello!"}, nil)
		assert.NotContains(t, prompt, "[CONCEPT ANALYSIS]")
		assert.NotContains(t, prompt, "[CONTEXT]")
		assert.Equal(t, "[QUESTION]\nHello!\n\nRespond directly and briefly.", prompt)
	})

	t.Run("key concepts are capped", func(t *testing.T) {
		many := make([]core.Concept, 0, 7)
		for _, label := range []string{"a", "b", "c", "d", "e", "f", "g"} {
			many = append(many, core.Concept{Label: label, Category: core.CategoryGeneral, Confidence: 0.2, Weight: 1})
		}
		prompt := BuildPrompt(&core.Query{Text: "q", Concepts: many}, nil)
		assert.Contains(t, prompt, "Primary Category: general\n")
		assert.Contains(t, prompt, "Key Concepts: a, b, c, d, e\n")
		assert.NotContains(t, prompt, "High Confidence Concepts")
	})
}
