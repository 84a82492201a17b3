package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jaychia/coinmeme/internal/domain"
)

// writeCatalogFixture writes a schema file plus a stub image per template
// name and returns the schema path and image dir.
func writeCatalogFixture(t *testing.T, lines []string, imageNames []string) (string, string) {
	t.Helper()

	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "memedb.jsonl")
	imageDir := filepath.Join(dir, "meme_templates")
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		t.Fatalf("failed to create image dir: %v", err)
	}

	if err := os.WriteFile(schemaPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("failed to write schema: %v", err)
	}
	for _, name := range imageNames {
		if err := os.WriteFile(filepath.Join(imageDir, name+".jpg"), []byte("stub"), 0o644); err != nil {
			t.Fatalf("failed to write image stub: %v", err)
		}
	}
	return schemaPath, imageDir
}

const drakeLine = `{"name":"drake","explanation":"Rejecting one thing, preferring another.","schema":{"top_text":{"description":"The rejected option"},"bottom_text":{"description":"The preferred option"}},"bounding_boxes":{"top_text":{"x":0.75,"y":0.25,"width":0.45,"height":0.3},"bottom_text":{"x":0.75,"y":0.75,"width":0.45,"height":0.3}}}`

const brainLine = `{"name":"galaxy_brain","schema":{"caption":{"description":"The single caption","font_size":32,"alignment":"left","max_lines":2}},"bounding_boxes":{"caption":{"x":0.5,"y":0.9,"width":0.8,"height":0.15}}}`

func TestLoad(t *testing.T) {
	schemaPath, imageDir := writeCatalogFixture(t,
		[]string{drakeLine, "", brainLine},
		[]string{"drake", "galaxy_brain"},
	)

	cat, err := Load(schemaPath, imageDir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cat.Len() != 2 {
		t.Fatalf("expected 2 templates, got %d", cat.Len())
	}

	drake := cat.Get("drake")
	if drake == nil {
		t.Fatal("expected drake template to be present")
	}
	if drake.Explanation != "Rejecting one thing, preferring another." {
		t.Errorf("unexpected explanation: %q", drake.Explanation)
	}
	if drake.ImagePath != filepath.Join(imageDir, "drake.jpg") {
		t.Errorf("unexpected image path: %q", drake.ImagePath)
	}

	// Slot order must follow the schema object's field order in the file.
	fields := drake.Fields()
	if len(fields) != 2 || fields[0] != "top_text" || fields[1] != "bottom_text" {
		t.Errorf("unexpected slot order: %v", fields)
	}

	// Styling defaults apply when the file omits them.
	top := drake.Slot("top_text")
	if top.FontSize != domain.DefaultFontSize {
		t.Errorf("expected default font size, got %d", top.FontSize)
	}
	if top.MaxLines != domain.DefaultMaxLines {
		t.Errorf("expected default max lines, got %d", top.MaxLines)
	}
	if top.Alignment != domain.AlignCenter {
		t.Errorf("expected center alignment, got %q", top.Alignment)
	}
	if top.Box.X != 0.75 || top.Box.Y != 0.25 {
		t.Errorf("unexpected box center: (%v, %v)", top.Box.X, top.Box.Y)
	}

	// Explicit styling overrides the defaults.
	caption := cat.Get("galaxy_brain").Slot("caption")
	if caption.FontSize != 32 || caption.MaxLines != 2 || caption.Alignment != domain.AlignLeft {
		t.Errorf("unexpected styling: %+v", caption)
	}
}

func TestLoad_InvalidLineReportsPosition(t *testing.T) {
	schemaPath, imageDir := writeCatalogFixture(t,
		[]string{drakeLine, "not json at all"},
		[]string{"drake"},
	)

	_, err := Load(schemaPath, imageDir)
	if err == nil {
		t.Fatal("expected error for malformed line")
	}

	var schemaErr *domain.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *domain.SchemaError, got %T", err)
	}
	if schemaErr.Line != 2 {
		t.Errorf("expected line 2, got %d", schemaErr.Line)
	}
	if schemaErr.Path != schemaPath {
		t.Errorf("expected path %q, got %q", schemaPath, schemaErr.Path)
	}
}

func TestLoad_MissingImage(t *testing.T) {
	schemaPath, imageDir := writeCatalogFixture(t, []string{drakeLine}, nil)

	_, err := Load(schemaPath, imageDir)
	if err == nil {
		t.Fatal("expected error for missing image")
	}
	if !strings.Contains(err.Error(), "image not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_DuplicateName(t *testing.T) {
	schemaPath, imageDir := writeCatalogFixture(t,
		[]string{drakeLine, drakeLine},
		[]string{"drake"},
	)

	_, err := Load(schemaPath, imageDir)
	if err == nil {
		t.Fatal("expected error for duplicate template name")
	}
	if !strings.Contains(err.Error(), "duplicate template name") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		image   string
		wantMsg string
	}{
		{
			name:    "missing name",
			line:    `{"schema":{"a":{"description":"x"}},"bounding_boxes":{"a":{"x":0.5,"y":0.5,"width":0.2,"height":0.1}}}`,
			wantMsg: "missing template name",
		},
		{
			name:    "empty schema",
			line:    `{"name":"empty","schema":{},"bounding_boxes":{}}`,
			image:   "empty",
			wantMsg: "no schema fields",
		},
		{
			name:    "missing bounding box",
			line:    `{"name":"nobox","schema":{"a":{"description":"x"}},"bounding_boxes":{}}`,
			image:   "nobox",
			wantMsg: "no bounding box",
		},
		{
			name:    "degenerate box",
			line:    `{"name":"flat","schema":{"a":{"description":"x"}},"bounding_boxes":{"a":{"x":0.5,"y":0.5,"width":0.3,"height":0}}}`,
			image:   "flat",
			wantMsg: "degenerate bounding box",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var images []string
			if tt.image != "" {
				images = append(images, tt.image)
			}
			schemaPath, imageDir := writeCatalogFixture(t, []string{tt.line}, images)

			_, err := Load(schemaPath, imageDir)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.jsonl"), t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing schema file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	schemaPath, imageDir := writeCatalogFixture(t,
		[]string{drakeLine, brainLine},
		[]string{"drake", "galaxy_brain"},
	)

	cat, err := Load(schemaPath, imageDir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	outPath := filepath.Join(t.TempDir(), "out.jsonl")
	if err := Save(outPath, cat.Templates()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	// The saved file must parse back into the same catalog. The stub images
	// live next to the original schema, so reload against the same image dir.
	reloaded, err := Load(outPath, imageDir)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Len() != cat.Len() {
		t.Fatalf("expected %d templates after round trip, got %d", cat.Len(), reloaded.Len())
	}

	for _, orig := range cat.Templates() {
		got := reloaded.Get(orig.Name)
		if got == nil {
			t.Fatalf("template %q lost in round trip", orig.Name)
		}
		if len(got.Slots) != len(orig.Slots) {
			t.Fatalf("template %q slot count changed", orig.Name)
		}
		for i := range orig.Slots {
			if got.Slots[i].Field != orig.Slots[i].Field {
				t.Errorf("template %q slot order changed: %v vs %v", orig.Name, got.Fields(), orig.Fields())
				break
			}
			if got.Slots[i].Box != orig.Slots[i].Box {
				t.Errorf("template %q slot %q box changed", orig.Name, orig.Slots[i].Field)
			}
		}
	}
}

func TestSortedNames(t *testing.T) {
	templates := []domain.Template{
		{Name: "zebra"},
		{Name: "alpha"},
		{Name: "mid"},
	}
	got := SortedNames(templates)
	want := []string{"alpha", "mid", "zebra"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SortedNames() = %v, want %v", got, want)
		}
	}
}
