package ai

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

// The client fails fast on blank input. These tests never reach the
// network: validation happens before any upstream call.

func newTestClient() *Client {
	return NewClient("test-key", "http://127.0.0.1:0", zap.NewNop())
}

func TestEmbedOneEmptyInput(t *testing.T) {
	client := newTestClient()
	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := client.EmbedOne(context.Background(), text, "text-embedding-3-small"); !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("EmbedOne(%q) error = %v, want ErrEmptyInput", text, err)
		}
	}
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	client := newTestClient()

	if _, err := client.EmbedBatch(context.Background(), nil, "text-embedding-3-small"); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("EmbedBatch(nil) error = %v, want ErrEmptyInput", err)
	}

	texts := []string{"valid text", "   ", "another"}
	if _, err := client.EmbedBatch(context.Background(), texts, "text-embedding-3-small"); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("EmbedBatch with blank item error = %v, want ErrEmptyInput", err)
	}
}

func TestProviderErrorMessage(t *testing.T) {
	err := &ProviderError{Op: "embedding", Message: "boom"}
	if err.Error() == "" {
		t.Fatalf("ProviderError.Error() is empty")
	}

	var target *ProviderError
	if !errors.As(error(err), &target) {
		t.Fatalf("errors.As failed to match ProviderError")
	}
}

func TestCeilDiv(t *testing.T) {
	cases := []struct {
		a, b, want int
	}{
		{10, 3, 4},
		{9, 3, 3},
		{1, 2, 1},
		{0, 5, 0},
	}
	for _, tc := range cases {
		if got := ceilDiv(tc.a, tc.b); got != tc.want {
			t.Fatalf("ceilDiv(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
