package prompts

import (
	"strings"
	"testing"

	"github.com/jaychia/coinmeme/internal/domain"
)

func TestBuildCaptionPrompt(t *testing.T) {
	topic := &domain.Topic{
		Title:       "Bitcoin ETF approval",
		Description: "Spot ETF finally approved",
	}
	template := &domain.Template{
		Name:        "drake",
		Explanation: "Rejecting one thing, preferring another.",
		Slots: []domain.Slot{
			{Field: "top_text", Description: "The rejected option"},
			{Field: "bottom_text", Description: "The preferred option"},
		},
	}

	prompt := BuildCaptionPrompt(topic, template)

	for _, want := range []string{
		"Bitcoin ETF approval",
		"drake",
		"Rejecting one thing, preferring another.",
		"Spot ETF finally approved",
		"- top_text: The rejected option",
		"- bottom_text: The preferred option",
		"Return only a JSON object",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt does not mention %q", want)
		}
	}
}

func TestBuildCaptionPrompt_OmitsEmptySections(t *testing.T) {
	topic := &domain.Topic{Title: "Solana outage"}
	template := &domain.Template{
		Name:  "plain",
		Slots: []domain.Slot{{Field: "caption", Description: "The caption"}},
	}

	prompt := BuildCaptionPrompt(topic, template)
	if strings.Contains(prompt, "Template explanation") {
		t.Error("prompt mentions an explanation the template does not have")
	}
	if strings.Contains(prompt, "Topic context") {
		t.Error("prompt mentions a description the topic does not have")
	}
}

func TestBuildAnnotationPrompt(t *testing.T) {
	template := &domain.Template{
		Name: "drake",
		Slots: []domain.Slot{
			{Field: "top_text", Description: "The rejected option"},
			{Field: "bottom_text", Description: "The preferred option"},
		},
	}

	prompt := BuildAnnotationPrompt(template, 800, 600)

	for _, want := range []string{
		"800x600 pixels",
		"CENTER coordinates",
		"top_text, bottom_text",
		"width should be between 0.2 and 0.8",
		"height should be between 0.05 and 0.2",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt does not mention %q", want)
		}
	}
}
