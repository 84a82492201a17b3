package domain

import "image"

// Box is a text placement region expressed in normalized image coordinates.
// X and Y are the center of the box; all four values are in the 0-1 range.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Edges returns the left, top, right, and bottom edges of the box in
// normalized coordinates.
func (b Box) Edges() (left, top, right, bottom float64) {
	return b.X - b.Width/2, b.Y - b.Height/2, b.X + b.Width/2, b.Y + b.Height/2
}

// InBounds reports whether the box lies entirely within the 0-1 frame.
func (b Box) InBounds() bool {
	left, top, right, bottom := b.Edges()
	return left >= 0 && top >= 0 && right <= 1 && bottom <= 1
}

// Overlaps reports whether two boxes intersect.
func (b Box) Overlaps(o Box) bool {
	bl, bt, br, bb := b.Edges()
	ol, ot, or, ob := o.Edges()
	return !(br <= ol || or <= bl || bb <= ot || ob <= bt)
}

// OverlapArea returns the intersection area of two boxes in normalized units,
// or zero when they do not overlap.
func (b Box) OverlapArea(o Box) float64 {
	if !b.Overlaps(o) {
		return 0
	}
	bl, bt, br, bb := b.Edges()
	ol, ot, or, ob := o.Edges()
	w := min(br, or) - max(bl, ol)
	h := min(bb, ob) - max(bt, ot)
	return w * h
}

// Clamp moves the box center so the box fits entirely within the 0-1 frame.
// Boxes wider or taller than the frame are centered.
func (b Box) Clamp() Box {
	minX, maxX := b.Width/2, 1-b.Width/2
	minY, maxY := b.Height/2, 1-b.Height/2
	if minX > maxX {
		b.X = 0.5
	} else {
		b.X = max(minX, min(maxX, b.X))
	}
	if minY > maxY {
		b.Y = 0.5
	} else {
		b.Y = max(minY, min(maxY, b.Y))
	}
	return b
}

// PixelRect converts the normalized box into a pixel rectangle for an image
// of the given dimensions.
func (b Box) PixelRect(width, height int) image.Rectangle {
	left, top, right, bottom := b.Edges()
	return image.Rect(
		int(left*float64(width)),
		int(top*float64(height)),
		int(right*float64(width)),
		int(bottom*float64(height)),
	)
}
