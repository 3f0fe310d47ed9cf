package discord

import (
	"strings"
	"testing"
	"unicode/utf8"

	"fs25hub/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProductEmbedDescriptionTruncation(t *testing.T) {
	t.Run("short descriptions pass through", func(t *testing.T) {
		product := &model.Product{
			Name:        "Wheat",
			Description: "Fresh from the field",
			Price:       decimal.NewFromInt(10),
		}
		embed := ProductEmbed(product, "seller", "New Product Listed: ")
		assert.Equal(t, "Fresh from the field", embed.Description)
	})

	t.Run("long multibyte descriptions truncate on rune boundaries", func(t *testing.T) {
		product := &model.Product{
			Name:        "Hay",
			Description: strings.Repeat("ü", 250),
			Price:       decimal.NewFromInt(10),
		}
		embed := ProductEmbed(product, "seller", "New Product Listed: ")

		assert.True(t, utf8.ValidString(embed.Description))
		assert.Equal(t, strings.Repeat("ü", 200)+"...", embed.Description)
	})
}
