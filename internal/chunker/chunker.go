// Package chunker splits document text into overlapping token-bounded
// segments suitable for embedding.
package chunker

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Defaults used for full document ingestion. Call sites with short
// content may override with much smaller budgets.
const (
	DefaultMinTokens     = 500
	DefaultMaxTokens     = 800
	DefaultOverlapTokens = 100
)

// tokensPerWord is the deterministic estimation factor: 1 word is counted
// as roughly 1.3 tokens. This is an estimate, not model tokenization.
const tokensPerWord = 1.3

var ErrEmptyInput = errors.New("document text is empty")

// Options bound the size and overlap of produced chunks, in estimated
// tokens.
type Options struct {
	MinTokens     int
	MaxTokens     int
	OverlapTokens int
}

// DefaultOptions returns the standard ingestion budgets.
func DefaultOptions() Options {
	return Options{
		MinTokens:     DefaultMinTokens,
		MaxTokens:     DefaultMaxTokens,
		OverlapTokens: DefaultOverlapTokens,
	}
}

// Validate reports the first invalid field, if any.
func (o Options) Validate() error {
	if o.MinTokens <= 0 {
		return fmt.Errorf("min tokens must be greater than 0, got %d", o.MinTokens)
	}
	if o.MaxTokens <= o.MinTokens {
		return fmt.Errorf("max tokens must be greater than min tokens, got max=%d min=%d", o.MaxTokens, o.MinTokens)
	}
	if o.OverlapTokens < 0 {
		return fmt.Errorf("overlap tokens cannot be negative, got %d", o.OverlapTokens)
	}
	if o.OverlapTokens >= o.MaxTokens {
		return fmt.Errorf("overlap tokens must be less than max tokens, got overlap=%d max=%d", o.OverlapTokens, o.MaxTokens)
	}
	return nil
}

// Chunk is one bounded slice of a document, tagged with its position and
// estimated token count.
type Chunk struct {
	Index  int
	Text   string
	Tokens int
}

var (
	crlfPattern       = regexp.MustCompile(`\r\n`)
	blankRunPattern   = regexp.MustCompile(`\n{3,}`)
	whitespacePattern = regexp.MustCompile(`[ \t]+`)
)

// Split walks the document text producing chunks of up to MaxTokens; each
// subsequent chunk starts OverlapTokens before the end of the previous one
// so boundary context is shared. A final partial chunk shorter than
// MinTokens is still emitted. Empty or whitespace-only input returns
// ErrEmptyInput rather than a silent zero-chunk success.
func Split(text string, opts Options) ([]Chunk, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	words := strings.Fields(preprocess(text))
	if len(words) == 0 {
		return nil, ErrEmptyInput
	}

	maxWords := wordBudget(opts.MaxTokens)
	overlapWords := wordBudget(opts.OverlapTokens)
	if overlapWords >= maxWords {
		overlapWords = maxWords - 1
	}

	var chunks []Chunk
	for start := 0; start < len(words); {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		text := strings.Join(words[start:end], " ")
		chunks = append(chunks, Chunk{
			Index:  len(chunks),
			Text:   text,
			Tokens: EstimateTokens(text),
		})
		if end == len(words) {
			break
		}
		start = end - overlapWords
	}
	return chunks, nil
}

// EstimateTokens deterministically approximates the token count of text.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	return int(math.Ceil(float64(words) * tokensPerWord))
}

// wordBudget converts a token budget into a whole number of words.
func wordBudget(tokens int) int {
	n := int(float64(tokens) / tokensPerWord)
	if n < 1 {
		n = 1
	}
	return n
}

func preprocess(text string) string {
	text = crlfPattern.ReplaceAllString(text, "\n")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
