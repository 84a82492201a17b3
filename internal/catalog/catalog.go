package catalog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jaychia/coinmeme/internal/domain"
)

// maxLineSize bounds a single catalog line. Template records are small; this
// only guards against scanning a non-JSONL file by mistake.
const maxLineSize = 1 << 20

// Catalog holds the template table loaded from a JSONL schema file. It is
// constructed once at startup and passed by reference; it never mutates
// after Load.
type Catalog struct {
	schemaPath string
	imageDir   string
	templates  []domain.Template
	byName     map[string]int
}

// templateRecord mirrors one line of the schema file.
type templateRecord struct {
	Name          string                `json:"name"`
	Explanation   string                `json:"explanation,omitempty"`
	Schema        map[string]slotSchema `json:"schema"`
	BoundingBoxes map[string]domain.Box `json:"bounding_boxes"`
}

// slotSchema is the per-field entry inside a template's schema object. The
// styling fields are optional; defaults are applied on load.
type slotSchema struct {
	Description string `json:"description"`
	FontSize    int    `json:"font_size,omitempty"`
	Alignment   string `json:"alignment,omitempty"`
	MaxLines    int    `json:"max_lines,omitempty"`
}

// Load reads the template catalog from a line-delimited JSON schema file.
// Parameters:
//   - schemaPath: path to the JSONL schema file (one template per line).
//   - imageDir: directory holding the template images as <name>.jpg.
//
// Returns:
//   - *Catalog: loaded catalog with one template per non-empty line.
//   - error: *domain.SchemaError for a malformed line or a missing image,
//     or a wrapped I/O error when the file cannot be read.
func Load(schemaPath, imageDir string) (*Catalog, error) {
	f, err := os.Open(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog schema: %w", err)
	}
	defer f.Close()

	c := &Catalog{
		schemaPath: schemaPath,
		imageDir:   imageDir,
		byName:     make(map[string]int),
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		tmpl, err := parseTemplateLine(line, imageDir)
		if err != nil {
			return nil, &domain.SchemaError{Path: schemaPath, Line: lineNo, Err: err}
		}
		if _, dup := c.byName[tmpl.Name]; dup {
			return nil, &domain.SchemaError{
				Path: schemaPath,
				Line: lineNo,
				Err:  fmt.Errorf("duplicate template name %q", tmpl.Name),
			}
		}

		c.byName[tmpl.Name] = len(c.templates)
		c.templates = append(c.templates, tmpl)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog schema: %w", err)
	}

	return c, nil
}

// parseTemplateLine decodes and validates a single catalog line.
func parseTemplateLine(line []byte, imageDir string) (domain.Template, error) {
	var rec templateRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return domain.Template{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if rec.Name == "" {
		return domain.Template{}, errors.New("missing template name")
	}
	if len(rec.Schema) == 0 {
		return domain.Template{}, fmt.Errorf("template %q has no schema fields", rec.Name)
	}

	imagePath := filepath.Join(imageDir, rec.Name+".jpg")
	if _, err := os.Stat(imagePath); err != nil {
		return domain.Template{}, fmt.Errorf("template %q image not found at %s", rec.Name, imagePath)
	}

	// Slot order follows the field order of the schema object as written in
	// the file, so the UI listing and the caption prompt stay reproducible.
	fields, err := schemaFieldOrder(line)
	if err != nil {
		return domain.Template{}, err
	}

	slots := make([]domain.Slot, 0, len(fields))
	for _, field := range fields {
		spec := rec.Schema[field]
		box, ok := rec.BoundingBoxes[field]
		if !ok {
			return domain.Template{}, fmt.Errorf("template %q has no bounding box for field %q", rec.Name, field)
		}
		if box.Width <= 0 || box.Height <= 0 {
			return domain.Template{}, fmt.Errorf("template %q field %q has a degenerate bounding box", rec.Name, field)
		}

		slot := domain.Slot{
			Field:       field,
			Description: spec.Description,
			Box:         box,
			FontSize:    spec.FontSize,
			Alignment:   domain.ParseAlignment(spec.Alignment),
			MaxLines:    spec.MaxLines,
		}
		if slot.FontSize <= 0 {
			slot.FontSize = domain.DefaultFontSize
		}
		if slot.MaxLines <= 0 {
			slot.MaxLines = domain.DefaultMaxLines
		}
		slots = append(slots, slot)
	}

	return domain.Template{
		Name:        rec.Name,
		Explanation: rec.Explanation,
		ImagePath:   imagePath,
		Slots:       slots,
	}, nil
}

// schemaFieldOrder extracts the schema object's key order from the raw line.
// encoding/json maps are unordered, so the order is recovered with a token
// walk over the original bytes.
func schemaFieldOrder(line []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(line))

	// Walk the top-level object until the "schema" key.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		if key != "schema" {
			// Skip this key's value entirely.
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
			continue
		}

		if _, err := dec.Token(); err != nil { // opening brace of schema
			return nil, err
		}
		var fields []string
		for dec.More() {
			fieldTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			field, ok := fieldTok.(string)
			if !ok {
				return nil, errors.New("schema keys must be strings")
			}
			fields = append(fields, field)
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
		}
		return fields, nil
	}
	return nil, errors.New("missing schema object")
}

// Templates returns all templates in file order.
func (c *Catalog) Templates() []domain.Template {
	return c.templates
}

// Get returns the template with the given name.
// Parameters:
//   - name: template name.
//
// Returns:
//   - *domain.Template: matching template or nil when unknown.
func (c *Catalog) Get(name string) *domain.Template {
	idx, ok := c.byName[name]
	if !ok {
		return nil
	}
	return &c.templates[idx]
}

// Len returns the number of templates in the catalog.
func (c *Catalog) Len() int {
	return len(c.templates)
}

// SchemaPath returns the path the catalog was loaded from.
func (c *Catalog) SchemaPath() string {
	return c.schemaPath
}

// Save writes templates back to a JSONL schema file, one template per line,
// preserving slot order. Used by the catalog maintenance CLI.
// Parameters:
//   - path: destination file path.
//   - templates: templates to write.
//
// Returns:
//   - error: non-nil if marshaling or writing fails.
func Save(path string, templates []domain.Template) error {
	var buf bytes.Buffer
	for _, t := range templates {
		rec := templateRecord{
			Name:          t.Name,
			Explanation:   t.Explanation,
			Schema:        make(map[string]slotSchema, len(t.Slots)),
			BoundingBoxes: make(map[string]domain.Box, len(t.Slots)),
		}
		for _, s := range t.Slots {
			rec.Schema[s.Field] = slotSchema{
				Description: s.Description,
				FontSize:    s.FontSize,
				Alignment:   string(s.Alignment),
				MaxLines:    s.MaxLines,
			}
			rec.BoundingBoxes[s.Field] = s.Box
		}
		b, err := marshalRecord(&rec, t.Slots)
		if err != nil {
			return fmt.Errorf("failed to marshal template %q: %w", t.Name, err)
		}
		buf.Write(b)
		buf.WriteByte('\n')
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// marshalRecord encodes a template record with schema and bounding_boxes
// objects in slot order rather than Go's sorted map order.
func marshalRecord(rec *templateRecord, slots []domain.Slot) ([]byte, error) {
	var buf bytes.Buffer
	var firstErr error
	writeJSON := func(v interface{}) {
		b, err := json.Marshal(v)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		buf.Write(b)
	}

	buf.WriteString(`{"name":`)
	writeJSON(rec.Name)
	if rec.Explanation != "" {
		buf.WriteString(`,"explanation":`)
		writeJSON(rec.Explanation)
	}

	buf.WriteString(`,"schema":{`)
	for i, s := range slots {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSON(s.Field)
		buf.WriteByte(':')
		writeJSON(rec.Schema[s.Field])
	}
	buf.WriteString(`},"bounding_boxes":{`)
	for i, s := range slots {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSON(s.Field)
		buf.WriteByte(':')
		writeJSON(rec.BoundingBoxes[s.Field])
	}
	buf.WriteString(`}}`)
	if firstErr != nil {
		return nil, firstErr
	}
	return buf.Bytes(), nil
}

// SortedNames returns template names in lexicographic order, for stable
// diagnostics output.
func SortedNames(templates []domain.Template) []string {
	names := make([]string, len(templates))
	for i, t := range templates {
		names[i] = t.Name
	}
	sort.Strings(names)
	return names
}
