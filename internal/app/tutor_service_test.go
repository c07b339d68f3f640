package app

import (
	"errors"
	"testing"

	"tutorhub/internal/model"
)

func f32(v float32) *float32 { return &v }
func intp(v int) *int        { return &v }
func boolp(v bool) *bool     { return &v }

func baseTutor() *model.Tutor {
	return &model.Tutor{
		Name:                "Base",
		SystemPrompt:        "prompt",
		Model:               "gpt-4",
		Temperature:         0.7,
		MaxTokens:           1000,
		UseRAG:              true,
		MaxContextChunks:    10,
		SimilarityThreshold: 0.1,
		Visibility:          model.VisibilityPrivate,
	}
}

func TestApplyTutorInputOverlaysFields(t *testing.T) {
	tutor := baseTutor()
	err := applyTutorInput(tutor, TutorInput{
		Name:                "  Math Tutor  ",
		Model:               "gpt-3.5-turbo",
		Temperature:         f32(1.2),
		MaxTokens:           intp(2048),
		UseRAG:              boolp(false),
		MaxContextChunks:    intp(5),
		SimilarityThreshold: f32(0.4),
		Visibility:          model.VisibilityPublic,
	})
	if err != nil {
		t.Fatalf("applyTutorInput failed: %v", err)
	}
	if tutor.Name != "Math Tutor" {
		t.Fatalf("name = %q", tutor.Name)
	}
	if tutor.SystemPrompt != "prompt" {
		t.Fatalf("system prompt should be untouched, got %q", tutor.SystemPrompt)
	}
	if tutor.Model != "gpt-3.5-turbo" || tutor.Temperature != 1.2 || tutor.MaxTokens != 2048 {
		t.Fatalf("completion params not applied: %+v", tutor)
	}
	if tutor.UseRAG || tutor.MaxContextChunks != 5 || tutor.SimilarityThreshold != 0.4 {
		t.Fatalf("retrieval params not applied: %+v", tutor)
	}
	if tutor.Visibility != model.VisibilityPublic {
		t.Fatalf("visibility = %q", tutor.Visibility)
	}
}

func TestApplyTutorInputRejectsOutOfRange(t *testing.T) {
	cases := []TutorInput{
		{Temperature: f32(-0.1)},
		{Temperature: f32(2.5)},
		{MaxTokens: intp(0)},
		{MaxTokens: intp(100000)},
		{MaxContextChunks: intp(0)},
		{MaxContextChunks: intp(999)},
		{SimilarityThreshold: f32(-0.5)},
		{SimilarityThreshold: f32(1.5)},
		{Visibility: "everyone"},
	}
	for i, input := range cases {
		if err := applyTutorInput(baseTutor(), input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: error = %v, want ErrInvalidInput", i, err)
		}
	}
}

func TestTrimMessages(t *testing.T) {
	messages := []model.Message{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	if got := trimMessages(messages, 0); len(got) != 3 {
		t.Fatalf("limit 0 trimmed to %d", len(got))
	}
	if got := trimMessages(messages, 5); len(got) != 3 {
		t.Fatalf("limit beyond length trimmed to %d", len(got))
	}
	got := trimMessages(messages, 2)
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "3" {
		t.Fatalf("limit 2 kept %+v, want the most recent two", got)
	}
}

func TestNewTutorServiceDefaultModel(t *testing.T) {
	if s := NewTutorService(nil, nil, "gpt-3.5-turbo"); s.defaultModel != "gpt-3.5-turbo" {
		t.Fatalf("default model = %q, want configured value", s.defaultModel)
	}
	if s := NewTutorService(nil, nil, ""); s.defaultModel != defaultTutorModel {
		t.Fatalf("default model = %q, want %q", s.defaultModel, defaultTutorModel)
	}
}
