package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"tabs", "a\t\tb", "a b"},
		{"multi space", "ACTE  DE   VENTE", "ACTE DE VENTE"},
		{"blank lines collapse", "a\n\n\n\n\nb", "a\n\nb"},
		{"box noise line", "a\n______\nb", "a\n\nb"},
		{"ligatures", "ﬁn de la ﬂèche", "fin de la flèche"},
		{"curly apostrophe", "l’an", "l'an"},
		{"nbsp grouping", "450 000 €", "450 000 €"},
		{"trailing spaces", "ligne un   \nligne deux", "ligne un\nligne deux"},
		{"surrounding whitespace", "\n\n  acte  \n\n", "acte"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}
