package catalog

import (
	"strings"
	"testing"

	"github.com/jaychia/coinmeme/internal/domain"
)

func slotWithBox(field string, box domain.Box) domain.Slot {
	return domain.Slot{
		Field:     field,
		Box:       box,
		FontSize:  domain.DefaultFontSize,
		Alignment: domain.AlignCenter,
		MaxLines:  domain.DefaultMaxLines,
	}
}

func TestAudit_CleanCatalog(t *testing.T) {
	templates := []domain.Template{
		{
			Name: "drake",
			Slots: []domain.Slot{
				slotWithBox("top_text", domain.Box{X: 0.75, Y: 0.25, Width: 0.45, Height: 0.3}),
				slotWithBox("bottom_text", domain.Box{X: 0.75, Y: 0.75, Width: 0.45, Height: 0.3}),
			},
		},
	}

	if reports := Audit(templates); len(reports) != 0 {
		t.Errorf("expected no reports for a clean catalog, got %v", reports)
	}
}

func TestAudit_OutOfBounds(t *testing.T) {
	templates := []domain.Template{
		{
			Name: "offscreen",
			Slots: []domain.Slot{
				slotWithBox("caption", domain.Box{X: 0.1, Y: 0.5, Width: 0.4, Height: 0.2}),
			},
		},
	}

	reports := Audit(templates)
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	if len(reports[0].OutOfBounds) != 1 {
		t.Fatalf("expected 1 out-of-bounds entry, got %v", reports[0].OutOfBounds)
	}
	if !strings.Contains(reports[0].OutOfBounds[0], "left edge") {
		t.Errorf("unexpected entry: %q", reports[0].OutOfBounds[0])
	}
}

func TestAudit_Overlaps(t *testing.T) {
	templates := []domain.Template{
		{
			Name: "crowded",
			Slots: []domain.Slot{
				slotWithBox("a", domain.Box{X: 0.4, Y: 0.5, Width: 0.4, Height: 0.2}),
				slotWithBox("b", domain.Box{X: 0.6, Y: 0.5, Width: 0.4, Height: 0.2}),
			},
		},
	}

	reports := Audit(templates)
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	if len(reports[0].Overlaps) != 1 {
		t.Fatalf("expected 1 overlap, got %v", reports[0].Overlaps)
	}
	ov := reports[0].Overlaps[0]
	if ov.Fields != [2]string{"a", "b"} {
		t.Errorf("unexpected overlap pair: %v", ov.Fields)
	}
	if ov.Area <= 0 {
		t.Errorf("expected positive overlap area, got %v", ov.Area)
	}
}

func TestFixOverlaps_SeparatesBoxes(t *testing.T) {
	tmpl := domain.Template{
		Name: "crowded",
		Slots: []domain.Slot{
			slotWithBox("a", domain.Box{X: 0.45, Y: 0.5, Width: 0.3, Height: 0.2}),
			slotWithBox("b", domain.Box{X: 0.55, Y: 0.5, Width: 0.3, Height: 0.2}),
		},
	}

	fixed, moved := FixOverlaps(tmpl)
	if !moved {
		t.Fatal("expected boxes to move")
	}
	if fixed.Slots[0].Box.Overlaps(fixed.Slots[1].Box) {
		t.Errorf("boxes still overlap after fix: %+v and %+v",
			fixed.Slots[0].Box, fixed.Slots[1].Box)
	}
	for _, s := range fixed.Slots {
		if !s.Box.InBounds() {
			t.Errorf("box for %q pushed out of frame: %+v", s.Field, s.Box)
		}
	}

	// The input template must not be mutated.
	if tmpl.Slots[0].Box.X != 0.45 || tmpl.Slots[1].Box.X != 0.55 {
		t.Error("FixOverlaps mutated its input")
	}
}

func TestFixOverlaps_SameCenter(t *testing.T) {
	tmpl := domain.Template{
		Name: "stacked",
		Slots: []domain.Slot{
			slotWithBox("a", domain.Box{X: 0.5, Y: 0.5, Width: 0.3, Height: 0.2}),
			slotWithBox("b", domain.Box{X: 0.5, Y: 0.5, Width: 0.3, Height: 0.2}),
		},
	}

	fixed, moved := FixOverlaps(tmpl)
	if !moved {
		t.Fatal("expected boxes to move")
	}
	if fixed.Slots[0].Box.Overlaps(fixed.Slots[1].Box) {
		t.Error("identical boxes not separated")
	}
}

func TestFixOverlaps_NoChangeWhenClean(t *testing.T) {
	tmpl := domain.Template{
		Name: "clean",
		Slots: []domain.Slot{
			slotWithBox("a", domain.Box{X: 0.25, Y: 0.25, Width: 0.3, Height: 0.2}),
			slotWithBox("b", domain.Box{X: 0.75, Y: 0.75, Width: 0.3, Height: 0.2}),
		},
	}

	fixed, moved := FixOverlaps(tmpl)
	if moved {
		t.Error("expected no movement for non-overlapping boxes")
	}
	for i := range tmpl.Slots {
		if fixed.Slots[i].Box != tmpl.Slots[i].Box {
			t.Errorf("slot %d box changed: %+v", i, fixed.Slots[i].Box)
		}
	}
}

func TestFixOverlaps_Terminates(t *testing.T) {
	// Five wide boxes crammed into the frame cannot all be separated; the
	// pass must still terminate and keep everything in bounds.
	tmpl := domain.Template{Name: "impossible"}
	for _, f := range []string{"a", "b", "c", "d", "e"} {
		tmpl.Slots = append(tmpl.Slots,
			slotWithBox(f, domain.Box{X: 0.5, Y: 0.5, Width: 0.9, Height: 0.9}))
	}

	fixed, _ := FixOverlaps(tmpl)
	for _, s := range fixed.Slots {
		if !s.Box.InBounds() {
			t.Errorf("box for %q out of frame: %+v", s.Field, s.Box)
		}
	}
}
