package ai

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEstimateEmbeddingCost(t *testing.T) {
	cases := []struct {
		tokens int
		model  string
		want   float64
	}{
		{1000, "text-embedding-3-small", 0.00002},
		{1000, "text-embedding-3-large", 0.00013},
		{1000, "text-embedding-ada-002", 0.0001},
		{500, "text-embedding-3-small", 0.00001},
		{0, "text-embedding-3-small", 0},
		// Unknown models use the default tier.
		{1000, "some-future-model", 0.00002},
	}
	for _, tc := range cases {
		if got := EstimateEmbeddingCost(tc.tokens, tc.model); !almostEqual(got, tc.want) {
			t.Fatalf("EstimateEmbeddingCost(%d, %q) = %v, want %v", tc.tokens, tc.model, got, tc.want)
		}
	}
}

func TestEstimateCompletionCost(t *testing.T) {
	// 1000 tokens at a 70/30 split: 700 input + 300 output.
	cases := []struct {
		tokens int
		model  string
		want   float64
	}{
		{1000, "gpt-4", 0.7*0.03 + 0.3*0.06},
		{1000, "gpt-3.5-turbo", 0.7*0.001 + 0.3*0.002},
		{0, "gpt-4", 0},
		{1000, "unknown-model", 0.7*0.03 + 0.3*0.06},
	}
	for _, tc := range cases {
		if got := EstimateCompletionCost(tc.tokens, tc.model); !almostEqual(got, tc.want) {
			t.Fatalf("EstimateCompletionCost(%d, %q) = %v, want %v", tc.tokens, tc.model, got, tc.want)
		}
	}
}
