package domain

// Alignment controls how wrapped caption lines are positioned inside a slot box.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// ParseAlignment converts a string into an Alignment.
// Parameters:
//   - s: alignment name from the catalog file.
//
// Returns:
//   - Alignment: parsed value; unknown or empty input falls back to AlignCenter.
func ParseAlignment(s string) Alignment {
	switch Alignment(s) {
	case AlignLeft, AlignCenter, AlignRight:
		return Alignment(s)
	default:
		return AlignCenter
	}
}

// Default slot styling applied when the catalog line omits the optional fields.
const (
	DefaultFontSize = 24
	DefaultMaxLines = 3
)

// Slot is one text region of a template: the schema field it belongs to,
// its normalized bounding box, and its rendering style.
type Slot struct {
	Field       string    `json:"field"`
	Description string    `json:"description"`
	Box         Box       `json:"box"`
	FontSize    int       `json:"font_size"`
	Alignment   Alignment `json:"alignment"`
	MaxLines    int       `json:"max_lines"`
}

// Template represents a meme template: the base image plus its ordered
// caption slots. Templates are immutable after catalog load.
type Template struct {
	Name        string `json:"name"`
	Explanation string `json:"explanation"`
	ImagePath   string `json:"image_path"`
	Slots       []Slot `json:"slots"`
}

// Fields returns the slot field names in template order.
// Parameters: none.
// Returns:
//   - []string: one field name per slot.
func (t *Template) Fields() []string {
	fields := make([]string, len(t.Slots))
	for i, s := range t.Slots {
		fields[i] = s.Field
	}
	return fields
}

// Slot returns the slot for the given field name.
// Parameters:
//   - field: schema field name.
//
// Returns:
//   - *Slot: matching slot or nil if the field is unknown.
func (t *Template) Slot(field string) *Slot {
	for i := range t.Slots {
		if t.Slots[i].Field == field {
			return &t.Slots[i]
		}
	}
	return nil
}
