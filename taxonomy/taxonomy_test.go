package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/conceptrag/core"
)

func TestStem(t *testing.T) {
	tests := map[string]string{
		"hours":       "hour",
		"policies":    "polici",
		"policy":      "polici",
		"classes":     "class",
		"watches":     "watch",
		"taxes":       "tax",
		"status":      "status",
		"days":        "day",
		"bus":         "bus",
		"weather":     "weather",
		"forecasting": "forecast",
		"meeting":     "meet",
		"employees":   "employe",
		"pm":          "pm",
		"when":        "when",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, Stem(in))
		})
	}
}

func TestDefault_CoversEveryCategory(t *testing.T) {
	tax := Default()
	for _, c := range tax.Categories() {
		def, ok := tax.Definition(c)
		require.True(t, ok, c.String())
		if c == core.CategoryGeneral {
			assert.Empty(t, def.Terms)
			continue
		}
		assert.NotEmpty(t, def.Terms, c.String())
	}
}

func TestMatch(t *testing.T) {
	tax := Default()

	t.Run("exact", func(t *testing.T) {
		matches := tax.Match("weather")
		require.NotEmpty(t, matches)
		assert.Equal(t, core.CategoryWeather, matches[0].Category)
		assert.Equal(t, StrengthExact, matches[0].Strength)
	})

	t.Run("stem", func(t *testing.T) {
		matches := tax.Match(Stem("hours"))
		require.NotEmpty(t, matches)
		assert.Equal(t, core.CategoryBusiness, matches[0].Category)
		assert.Equal(t, StrengthStem, matches[0].Strength)
		assert.Equal(t, "hours", matches[0].Term)
	})

	t.Run("substring", func(t *testing.T) {
		matches := tax.Match("forecasting")
		require.NotEmpty(t, matches)
		assert.Equal(t, core.CategoryWeather, matches[0].Category)
		assert.Equal(t, StrengthSubstring, matches[0].Strength)
	})

	t.Run("short stems do not substring match", func(t *testing.T) {
		assert.Empty(t, tax.Match("ma"))
	})

	t.Run("shared term claims several categories", func(t *testing.T) {
		matches := tax.Match("price")
		cats := make([]core.Category, 0, len(matches))
		for _, m := range matches {
			cats = append(cats, m.Category)
		}
		assert.Contains(t, cats, core.CategoryProduct)
		assert.Contains(t, cats, core.CategoryFinancial)
		// Equal strengths are ordered by category.
		assert.Equal(t, core.CategoryProduct, matches[0].Category)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, tax.Match("london"))
		assert.False(t, tax.IsTrigger("london"))
	})

	t.Run("weekday is time", func(t *testing.T) {
		matches := tax.Match("monday")
		require.NotEmpty(t, matches)
		assert.Equal(t, core.CategoryTime, matches[0].Category)
		assert.True(t, tax.IsTrigger("monday"))
	})
}

func TestImportanceAndPrior(t *testing.T) {
	tax := Default()
	assert.Equal(t, 2.0, tax.Importance("weather"))
	assert.Equal(t, 1.5, tax.Importance(Stem("meeting")))
	assert.Equal(t, 1.0, tax.Importance("hour"))
	assert.Equal(t, 1.1, tax.Prior(core.CategoryWeather))
	assert.Equal(t, 1.0, tax.Prior(core.CategoryNone))
}

func TestNew_Custom(t *testing.T) {
	tax := New([]Definition{
		{Category: core.CategoryHealthcare, Prior: 1.2, Terms: []string{"Vaccines"}},
	}, map[string]float64{"vaccines": 3})

	matches := tax.Match(Stem("vaccine"))
	require.Len(t, matches, 1)
	assert.Equal(t, core.CategoryHealthcare, matches[0].Category)
	assert.Equal(t, StrengthStem, matches[0].Strength)
	assert.Equal(t, 3.0, tax.Importance(Stem("vaccine")))
	assert.Equal(t, 1.2, tax.Prior(core.CategoryHealthcare))
}

func TestRelated(t *testing.T) {
	tax := Default()
	assert.True(t, tax.Related(core.CategoryBusiness, core.CategoryTime), "schedule and deadline")
	assert.True(t, tax.Related(core.CategoryTime, core.CategoryBusiness))
	assert.True(t, tax.Related(core.CategoryProduct, core.CategoryFinancial), "price")
	assert.False(t, tax.Related(core.CategoryWeather, core.CategoryBusiness))
	assert.False(t, tax.Related(core.CategoryBusiness, core.CategoryBusiness))
}
