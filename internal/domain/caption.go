package domain

import "time"

// Caption is one generated text string destined for a single template slot.
type Caption struct {
	Field string `json:"field"`
	Text  string `json:"text"`
}

// CaptionSet is an ordered sequence of captions, one per template slot,
// produced fresh per generation request and never persisted.
type CaptionSet struct {
	Template string    `json:"template"`
	Captions []Caption `json:"captions"`
}

// Texts returns the caption strings in slot order.
func (c *CaptionSet) Texts() []string {
	texts := make([]string, len(c.Captions))
	for i, cap := range c.Captions {
		texts[i] = cap.Text
	}
	return texts
}

// RenderedMeme is an in-memory rendered meme image, produced per request and
// discarded unless downloaded.
type RenderedMeme struct {
	Topic     string    `json:"topic"`
	Template  string    `json:"template"`
	Format    string    `json:"format"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Filename returns the default download filename for the meme.
func (m *RenderedMeme) Filename() string {
	return m.Topic + "_" + m.Template + "_meme.jpg"
}
