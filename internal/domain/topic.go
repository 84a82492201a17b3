package domain

// Topic is a trending theme used to seed caption generation. Topics are
// read-only for the process lifetime once loaded.
type Topic struct {
	Title         string `json:"search"`
	Description   string `json:"description,omitempty"`
	StartTrending string `json:"start_trending,omitempty"`
	SourceFile    string `json:"-"`
}
