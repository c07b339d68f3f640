package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func makeWords(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return words
}

func TestSplitEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t  \r\n"} {
		if _, err := Split(text, DefaultOptions()); !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("Split(%q) error = %v, want ErrEmptyInput", text, err)
		}
	}
}

func TestSplitShortDocumentSingleChunk(t *testing.T) {
	words := makeWords(100)
	chunks, err := Split(strings.Join(words, " "), DefaultOptions())
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Index != 0 {
		t.Fatalf("chunk index = %d, want 0", chunks[0].Index)
	}
	if want := EstimateTokens(chunks[0].Text); chunks[0].Tokens != want {
		t.Fatalf("chunk tokens = %d, want %d", chunks[0].Tokens, want)
	}
}

func TestSplitRespectsMaxTokens(t *testing.T) {
	opts := DefaultOptions()
	chunks, err := Split(strings.Join(makeWords(2000), " "), opts)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want several", len(chunks))
	}
	for _, c := range chunks {
		if c.Tokens > opts.MaxTokens {
			t.Fatalf("chunk %d has %d tokens, max is %d", c.Index, c.Tokens, opts.MaxTokens)
		}
	}
}

func TestSplitIndexesContiguous(t *testing.T) {
	chunks, err := Split(strings.Join(makeWords(3000), " "), DefaultOptions())
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("chunk at position %d has index %d", i, c.Index)
		}
	}
}

func TestSplitOverlapSharesBoundaryText(t *testing.T) {
	words := makeWords(1000)
	chunks, err := Split(strings.Join(words, " "), DefaultOptions())
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}

	// With a max budget of 800 tokens and overlap of 100, the second
	// chunk starts 76 words before the end of the first.
	firstWords := strings.Fields(chunks[0].Text)
	if len(firstWords) != 615 {
		t.Fatalf("first chunk has %d words, want 615", len(firstWords))
	}
	shared := strings.Join(firstWords[len(firstWords)-76:], " ")
	if !strings.HasPrefix(chunks[1].Text, shared) {
		t.Fatalf("second chunk does not start with the overlap of the first")
	}
}

func TestSplitCoversAllWords(t *testing.T) {
	words := makeWords(1000)
	chunks, err := Split(strings.Join(words, " "), DefaultOptions())
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(last.Text, words[len(words)-1]) {
		t.Fatalf("final chunk does not end with the final word")
	}
	if !strings.HasPrefix(chunks[0].Text, words[0]) {
		t.Fatalf("first chunk does not start with the first word")
	}
}

func TestSplitNormalizesWhitespace(t *testing.T) {
	chunks, err := Split("alpha\r\nbeta\t\tgamma\n\n\n\ndelta", DefaultOptions())
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if got := len(strings.Fields(chunks[0].Text)); got != 4 {
		t.Fatalf("got %d words, want 4", got)
	}
}

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"one", 2},
		{"one two three", 4},
		{strings.Join(makeWords(100), " "), 130},
	}
	for _, tc := range cases {
		if got := EstimateTokens(tc.text); got != tc.want {
			t.Fatalf("EstimateTokens(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	cases := []Options{
		{MinTokens: 0, MaxTokens: 800, OverlapTokens: 100},
		{MinTokens: 500, MaxTokens: 500, OverlapTokens: 100},
		{MinTokens: 500, MaxTokens: 800, OverlapTokens: -1},
		{MinTokens: 100, MaxTokens: 200, OverlapTokens: 200},
	}
	for _, opts := range cases {
		if err := opts.Validate(); err == nil {
			t.Fatalf("Validate(%+v) = nil, want error", opts)
		}
	}
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("default options invalid: %v", err)
	}
}
