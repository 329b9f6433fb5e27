package embedding

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ---------------------------------------------------------------------------
// SMILES tokenizer
// ---------------------------------------------------------------------------

const (
	// DefaultMaxTokens matches the sequence length of the hosted chemistry
	// encoders, special tokens included.
	DefaultMaxTokens = 512

	bosToken = "<s>"
	eosToken = "</s>"
)

// smilesTokenPattern splits SMILES into bracket atoms, two-letter organic
// halogens, single atoms, bonds, branches and ring-closure labels.
var smilesTokenPattern = regexp.MustCompile(
	`(\[[^\]]+]|Br?|Cl?|N|O|S|P|F|I|b|c|n|o|s|p|\(|\)|\.|=|#|-|\+|\\|/|:|~|@|\?|>|\*|\$|%[0-9]{2}|[0-9])`)

// Tokenizer turns structure text into model tokens.
type Tokenizer struct {
	maxTokens int
}

// NewTokenizer returns a tokenizer truncating to maxTokens (special tokens
// included).  Values below 3 fall back to DefaultMaxTokens.
func NewTokenizer(maxTokens int) *Tokenizer {
	if maxTokens < 3 {
		maxTokens = DefaultMaxTokens
	}
	return &Tokenizer{maxTokens: maxTokens}
}

// MaxTokens reports the truncation length.
func (t *Tokenizer) MaxTokens() int { return t.maxTokens }

// Tokenize returns "<s> tok... </s>".  Text is NFKC-normalized first so that
// full-width input from pasted documents tokenizes like ASCII.  Characters
// the pattern does not recognise become single-rune tokens rather than being
// dropped.
func (t *Tokenizer) Tokenize(text string) []string {
	text = strings.TrimSpace(norm.NFKC.String(text))
	body := make([]string, 0, len(text))
	pos := 0
	for _, loc := range smilesTokenPattern.FindAllStringIndex(text, -1) {
		body = appendRunes(body, text[pos:loc[0]])
		body = append(body, text[loc[0]:loc[1]])
		pos = loc[1]
	}
	body = appendRunes(body, text[pos:])

	if limit := t.maxTokens - 2; len(body) > limit {
		body = body[:limit]
	}
	out := make([]string, 0, len(body)+2)
	out = append(out, bosToken)
	out = append(out, body...)
	return append(out, eosToken)
}

func appendRunes(dst []string, s string) []string {
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r != ' ' && r != '\t' && r != '\n' {
			dst = append(dst, s[:size])
		}
		s = s[size:]
	}
	return dst
}

//Personal.AI order the ending
