package embedding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tok := NewTokenizer(0)
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"ethanol", "CCO", []string{"<s>", "C", "C", "O", "</s>"}},
		{"halogens", "BrCCCl", []string{"<s>", "Br", "C", "C", "Cl", "</s>"}},
		{"bracket atom", "[NH4+].[Cl-]", []string{"<s>", "[NH4+]", ".", "[Cl-]", "</s>"}},
		{"ring labels", "c1ccccc1", []string{"<s>", "c", "1", "c", "c", "c", "c", "c", "1", "</s>"}},
		{"two digit ring", "C%10CC%10", []string{"<s>", "C", "%10", "C", "C", "%10", "</s>"}},
		{"bonds and branches", "C(=O)#N", []string{"<s>", "C", "(", "=", "O", ")", "#", "N", "</s>"}},
		{"unknown rune kept", "CXC", []string{"<s>", "C", "X", "C", "</s>"}},
		{"full width normalized", "ＣＣＯ", []string{"<s>", "C", "C", "O", "</s>"}},
		{"empty", "  ", []string{"<s>", "</s>"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.Tokenize(tt.in))
		})
	}
}

func TestTokenize_Truncates(t *testing.T) {
	tok := NewTokenizer(10)
	out := tok.Tokenize(strings.Repeat("C", 50))
	require.Len(t, out, 10)
	assert.Equal(t, "<s>", out[0])
	assert.Equal(t, "</s>", out[9])
	assert.Equal(t, 10, tok.MaxTokens())
}

func TestNewTokenizer_Default(t *testing.T) {
	assert.Equal(t, DefaultMaxTokens, NewTokenizer(1).MaxTokens())
}

//Personal.AI order the ending
