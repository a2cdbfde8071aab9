package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategories(t *testing.T) {
	cats := Categories()
	require.Len(t, cats, 10)
	assert.Equal(t, CategoryBusiness, cats[0])
	assert.Equal(t, CategoryGeneral, cats[len(cats)-1])
	for _, c := range cats {
		assert.True(t, c.Valid(), c.String())
	}
	assert.False(t, CategoryNone.Valid())
	assert.False(t, Category(42).Valid())
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		t.Run(c.String(), func(t *testing.T) {
			got, err := ParseCategory(c.String())
			require.NoError(t, err)
			assert.Equal(t, c, got)
		})
	}

	t.Run("case insensitive", func(t *testing.T) {
		got, err := ParseCategory("  Weather ")
		require.NoError(t, err)
		assert.Equal(t, CategoryWeather, got)
	})

	t.Run("empty is none", func(t *testing.T) {
		got, err := ParseCategory("")
		require.NoError(t, err)
		assert.Equal(t, CategoryNone, got)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := ParseCategory("astrology")
		assert.ErrorIs(t, err, ErrUnknownCategory)
	})
}

func TestCategory_String(t *testing.T) {
	assert.Equal(t, "financial", CategoryFinancial.String())
	assert.Equal(t, "category(99)", Category(99).String())
}
