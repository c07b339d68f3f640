package app

import (
	"errors"
	"testing"

	"tutorhub/internal/chunker"
	"tutorhub/internal/model"
)

func TestNewDocumentForIngest(t *testing.T) {
	doc, err := newDocumentForIngest(IngestInput{
		OwnerID:  "user-1",
		Title:    "  Mechanics Notes  ",
		Text:     "gravity pulls masses together",
		MimeType: "application/pdf",
		FileName: "mechanics-notes.pdf",
	})
	if err != nil {
		t.Fatalf("newDocumentForIngest failed: %v", err)
	}
	if doc.Title != "Mechanics Notes" {
		t.Fatalf("title = %q", doc.Title)
	}
	if doc.StoragePath != "mechanics-notes.pdf" {
		t.Fatalf("storage path = %q, want the upload filename", doc.StoragePath)
	}
	if doc.Status != model.DocumentStatusProcessing {
		t.Fatalf("status = %q, want processing", doc.Status)
	}
	if doc.Visibility != model.VisibilityPrivate {
		t.Fatalf("visibility = %q, want private default", doc.Visibility)
	}
}

func TestNewDocumentForIngestRejectsBadInput(t *testing.T) {
	cases := []struct {
		name    string
		input   IngestInput
		wantErr error
	}{
		{"missing owner", IngestInput{Title: "t", Text: "x"}, ErrInvalidInput},
		{"missing title", IngestInput{OwnerID: "u", Text: "x"}, ErrInvalidInput},
		{"blank text", IngestInput{OwnerID: "u", Title: "t", Text: "   "}, chunker.ErrEmptyInput},
		{"unknown visibility", IngestInput{OwnerID: "u", Title: "t", Text: "x", Visibility: "everyone"}, ErrInvalidInput},
	}
	for _, tc := range cases {
		if _, err := newDocumentForIngest(tc.input); !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: error = %v, want %v", tc.name, err, tc.wantErr)
		}
	}
}
