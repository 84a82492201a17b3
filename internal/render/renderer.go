package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"os"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/jaychia/coinmeme/internal/domain"
)

// Config holds renderer settings.
type Config struct {
	JPEGQuality int // output quality, 1-100
	StrokeWidth int // outline thickness in pixels
}

// Renderer composites caption text onto template images. It uses the Go
// bold font embedded in golang.org/x/image, so output depends only on the
// template image and the captions: the same inputs produce byte-identical
// JPEG bytes.
type Renderer struct {
	fnt         *opentype.Font
	quality     int
	strokeWidth int

	// opentype faces keep internal buffers, so face creation and glyph
	// drawing are serialized.
	mu    sync.Mutex
	faces map[int]font.Face
}

var (
	fillColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	strokeColor = color.RGBA{A: 255}
)

// New creates a renderer with the embedded font parsed once.
// Parameters:
//   - cfg: renderer settings; nil uses defaults (quality 90, stroke 2).
//
// Returns:
//   - *Renderer: initialized renderer.
//   - error: non-nil if the embedded font fails to parse.
func New(cfg *Config) (*Renderer, error) {
	fnt, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded font: %w", err)
	}

	quality := 90
	strokeWidth := 2
	if cfg != nil {
		if cfg.JPEGQuality > 0 {
			quality = cfg.JPEGQuality
		}
		if cfg.StrokeWidth >= 0 {
			strokeWidth = cfg.StrokeWidth
		}
	}

	return &Renderer{
		fnt:         fnt,
		quality:     quality,
		strokeWidth: strokeWidth,
		faces:       make(map[int]font.Face),
	}, nil
}

// Render draws one caption per slot onto the template image and re-encodes
// the result as JPEG. Output dimensions always equal the template image's
// dimensions.
// Parameters:
//   - template: template whose image and slot layout to use.
//   - captions: caption set in slot order; its length must match the
//     template's slot count.
//
// Returns:
//   - *domain.RenderedMeme: rendered JPEG bytes plus metadata.
//   - error: *domain.RenderError if the image cannot be opened or decoded,
//     or when the caption count does not match the slot count.
func (r *Renderer) Render(template *domain.Template, captions *domain.CaptionSet) (*domain.RenderedMeme, error) {
	if len(captions.Captions) != len(template.Slots) {
		return nil, &domain.RenderError{
			Template: template.Name,
			Err: fmt.Errorf("caption count %d does not match slot count %d",
				len(captions.Captions), len(template.Slots)),
		}
	}

	f, err := os.Open(template.ImagePath)
	if err != nil {
		return nil, &domain.RenderError{Template: template.Name, Err: err}
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, &domain.RenderError{
			Template: template.Name,
			Err:      fmt.Errorf("failed to decode template image: %w", err),
		}
	}

	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Src)

	r.mu.Lock()
	for i, slot := range template.Slots {
		if err := r.drawSlot(canvas, &slot, captions.Captions[i].Text); err != nil {
			r.mu.Unlock()
			return nil, &domain.RenderError{Template: template.Name, Err: err}
		}
	}
	r.mu.Unlock()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: r.quality}); err != nil {
		return nil, &domain.RenderError{
			Template: template.Name,
			Err:      fmt.Errorf("failed to encode output: %w", err),
		}
	}

	return &domain.RenderedMeme{
		Template:  template.Name,
		Format:    "jpg",
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Data:      buf.Bytes(),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// drawSlot wraps the caption into the slot's pixel box and draws it centered
// vertically, stroked for readability. Caller holds r.mu.
func (r *Renderer) drawSlot(canvas *image.RGBA, slot *domain.Slot, text string) error {
	face, err := r.face(slot.FontSize)
	if err != nil {
		return err
	}

	rect := slot.Box.PixelRect(canvas.Bounds().Dx(), canvas.Bounds().Dy())
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return fmt.Errorf("slot %q maps to an empty pixel region", slot.Field)
	}

	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	// The line budget is the slot's max_lines, further capped by what
	// physically fits in the box so text never spills outside it.
	maxLines := slot.MaxLines
	if fit := rect.Dy() / lineHeight; fit < maxLines {
		maxLines = fit
	}
	if maxLines < 1 {
		maxLines = 1
	}

	lines := wrapText(face, text, rect.Dx(), maxLines)
	if len(lines) == 0 {
		return nil
	}

	blockHeight := lineHeight * len(lines)
	y := rect.Min.Y + (rect.Dy()-blockHeight)/2 + ascent

	for _, line := range lines {
		width := measure(face, line)
		var x int
		switch slot.Alignment {
		case domain.AlignLeft:
			x = rect.Min.X
		case domain.AlignRight:
			x = rect.Max.X - width
		default:
			x = rect.Min.X + (rect.Dx()-width)/2
		}

		r.drawStrokedLine(canvas, face, line, x, y)
		y += lineHeight
	}
	return nil
}

// drawStrokedLine draws the text at the offset grid around (x, y) in the
// stroke color, then once at (x, y) in the fill color, producing the
// classic meme outline.
func (r *Renderer) drawStrokedLine(canvas *image.RGBA, face font.Face, line string, x, y int) {
	d := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(strokeColor),
		Face: face,
	}

	sw := r.strokeWidth
	if sw > 0 {
		for dx := -sw; dx <= sw; dx++ {
			for dy := -sw; dy <= sw; dy++ {
				if dx == 0 && dy == 0 {
					continue
				}
				d.Dot = fixed.P(x+dx, y+dy)
				d.DrawString(line)
			}
		}
	}

	d.Src = image.NewUniform(fillColor)
	d.Dot = fixed.P(x, y)
	d.DrawString(line)
}

// face returns a cached font face for the given pixel size. Caller holds r.mu.
func (r *Renderer) face(size int) (font.Face, error) {
	if f, ok := r.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(r.fnt, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %dpx face: %w", size, err)
	}
	r.faces[size] = f
	return f, nil
}
