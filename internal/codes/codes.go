// Package codes derives client codes: a short upper-case prefix from the client's name followed by a zero-padded sequence number.
//
// The prefix depends on how many words the name has:
//
//	1 word   first three characters                       "Acme"             -> ACM
//	2 words  first(w1) + middle(longer word) + first(w2)  "Acme Corp"        -> AMC
//	3 words  first letter of each word                    "Big Blue Box"     -> BBB
//	4+ words first(w1) + first(middle word) + first(last) "One Two Three Go" -> OTG
//
// For four or more words the middle index is ceil(n/2)-1.
// With an even count the longer of the word at that index and the one before it wins, ties going to the word at the index.
//
// The suffix comes from the persistent "client_code" counter and is padded to three digits; larger values are not truncated.
package codes

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/ccm/internal/models"
	"github.com/desertthunder/ccm/internal/shared"
)

// Sequencer hands out the next value of a named counter.
type Sequencer interface {
	FetchAndIncrement(ctx context.Context, name string) (int, error)
}

// Generator produces client codes backed by a [Sequencer].
type Generator struct {
	seq     Sequencer
	counter string
}

// NewGenerator creates a [Generator] drawing from [models.ClientCodeCounter].
func NewGenerator(seq Sequencer) *Generator {
	return &Generator{seq: seq, counter: models.ClientCodeCounter}
}

// Generate returns prefix + padded sequence for name.
//
// Every successful call consumes one sequence value, so callers should only generate once they are committed to creating the client.
// A counter failure fails the whole call; no code is returned with a missing suffix.
func (g *Generator) Generate(ctx context.Context, name string) (string, error) {
	prefix, err := Prefix(name)
	if err != nil {
		return "", err
	}

	n, err := g.seq.FetchAndIncrement(ctx, g.counter)
	if err != nil {
		return "", fmt.Errorf("failed to advance %s counter: %w", g.counter, err)
	}

	return prefix + Pad(n), nil
}

// Pad formats n in decimal, left-padded with zeros to width 3.
func Pad(n int) string {
	return fmt.Sprintf("%03d", n)
}

// Prefix derives the upper-case code prefix for name.
func Prefix(name string) (string, error) {
	words := strings.Fields(name)

	var prefix string
	switch n := len(words); {
	case n == 0:
		return "", fmt.Errorf("%w: client name is required", shared.ErrInvalidInput)
	case n == 1:
		prefix = head(words[0], 3)
	case n == 2:
		prefix = head(words[0], 1) + middle(longer(words[0], words[1])) + head(words[1], 1)
	case n == 3:
		prefix = head(words[0], 1) + head(words[1], 1) + head(words[2], 1)
	default:
		prefix = head(words[0], 1) + head(middleWord(words), 1) + head(words[n-1], 1)
	}

	return strings.ToUpper(prefix), nil
}

// middleWord picks the word at ceil(n/2)-1, or for an even count the longer of it and its predecessor.
func middleWord(words []string) string {
	n := len(words)
	mid := (n+1)/2 - 1
	if n%2 != 0 {
		return words[mid]
	}
	return longer(words[mid], words[mid-1])
}

// longer returns a unless b has strictly more characters.
func longer(a, b string) string {
	if utf8.RuneCountInString(b) > utf8.RuneCountInString(a) {
		return b
	}
	return a
}

// head returns the first n characters of s, or all of s when it is shorter.
func head(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// middle returns the character at index floor(len/2).
func middle(s string) string {
	runes := []rune(s)
	return string(runes[len(runes)/2])
}
