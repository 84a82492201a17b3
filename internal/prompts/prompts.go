package prompts

import (
	"fmt"
	"strings"

	"github.com/jaychia/coinmeme/internal/domain"
)

// ============================================================================
// Caption Generation Prompts
// ============================================================================

// CaptionSystemPrompt defines the role for caption generation.
const CaptionSystemPrompt = `You are a creative meme generator. Generate funny, relevant text for meme templates.`

// BuildCaptionPrompt builds the user prompt for one generation request from
// the topic and the template metadata.
// Parameters:
//   - topic: trending topic seeding the captions.
//   - template: template whose slots need text.
//
// Returns:
//   - string: user prompt asking for a JSON object keyed by slot field names.
func BuildCaptionPrompt(topic *domain.Topic, template *domain.Template) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Create a meme about %q using the %q template.\n\n", topic.Title, template.Name)
	if template.Explanation != "" {
		fmt.Fprintf(&b, "Template explanation: %s\n\n", template.Explanation)
	}
	if topic.Description != "" {
		fmt.Fprintf(&b, "Topic context: %s\n\n", topic.Description)
	}

	b.WriteString("Template fields:\n")
	for _, s := range template.Slots {
		fmt.Fprintf(&b, "- %s: %s\n", s.Field, s.Description)
	}

	fmt.Fprintf(&b, "\nGenerate appropriate text for each field. Make it funny and relevant to the topic %q.\n", topic.Title)
	b.WriteString("Return only a JSON object with the field names as keys and the generated text as values. No markdown, no extra commentary.")

	return b.String()
}

// ============================================================================
// Slot Annotation Prompt (vision)
// ============================================================================

// BuildAnnotationPrompt builds the vision prompt asking the model to place
// normalized text boxes for each schema field of a template image.
// Parameters:
//   - template: template whose slots need boxes.
//   - width, height: template image dimensions in pixels.
//
// Returns:
//   - string: annotation prompt with strict coordinate rules.
func BuildAnnotationPrompt(template *domain.Template, width, height int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze this meme template image for the %q meme format.\n\n", template.Name)
	b.WriteString("This meme has the following text fields that need to be placed:\n")
	for _, s := range template.Slots {
		fmt.Fprintf(&b, "- %s: %s\n", s.Field, s.Description)
	}

	b.WriteString(`
CRITICAL REQUIREMENTS:
1. Look at where text ACTUALLY appears in existing meme examples of this format
2. Text boxes must be placed in EMPTY/NEUTRAL areas with good contrast
3. Never place text over faces, important objects, or busy backgrounds
4. Text boxes should be CONSERVATIVE in size - better too small than too large
5. Ensure proper spacing between multiple text areas
`)
	fmt.Fprintf(&b, "\nThe image dimensions are %dx%d pixels.\n", width, height)
	b.WriteString(`
Return ONLY a valid JSON object with this exact structure:
{
  "field_name_1": {
    "x": 0.5,
    "y": 0.2,
    "width": 0.6,
    "height": 0.1
  }
}

STRICT COORDINATE RULES:
- x, y are the CENTER coordinates normalized to 0-1 range
- width, height are normalized to 0-1 range
- x must be between width/2 and (1 - width/2)
- y must be between height/2 and (1 - height/2)
- width should be between 0.2 and 0.8 (reasonable text area)
- height should be between 0.05 and 0.2 (text height)
- Ensure NO overlap between boxes
- Leave at least 0.1 spacing between box edges
`)

	fields := make([]string, len(template.Slots))
	for i, s := range template.Slots {
		fields[i] = s.Field
	}
	fmt.Fprintf(&b, "\nProvide coordinates for: %s\n", strings.Join(fields, ", "))

	return b.String()
}
