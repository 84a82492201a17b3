package render

import (
	"strings"

	"golang.org/x/image/font"
)

// ellipsis terminates a truncated caption line. Truncation policy: when the
// wrapped text exceeds the slot's line budget, the final kept line is trimmed
// until the ellipsis fits and the rest of the text is dropped.
const ellipsis = "…"

// measure returns the advance width of s in whole pixels for the given face.
func measure(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// wrapText greedily wraps text into lines no wider than maxWidth pixels,
// keeping at most maxLines lines. A single word wider than maxWidth is split
// at the rune where it overflows. Returns at least one line for non-empty
// input; the last line carries an ellipsis when anything was dropped.
func wrapText(face font.Face, text string, maxWidth, maxLines int) []string {
	if maxLines < 1 {
		maxLines = 1
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if measure(face, candidate) <= maxWidth {
			current = candidate
			continue
		}

		if current != "" {
			lines = append(lines, current)
			current = ""
		}

		// The word alone may still be too wide for the box.
		for measure(face, word) > maxWidth {
			head, rest := splitAtWidth(face, word, maxWidth)
			if head == "" {
				// Box narrower than a single glyph; give up splitting.
				break
			}
			lines = append(lines, head)
			word = rest
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}

	if len(lines) <= maxLines {
		return lines
	}
	kept := lines[:maxLines]
	kept[maxLines-1] = truncateWithEllipsis(face, kept[maxLines-1], maxWidth)
	return kept
}

// splitAtWidth splits s at the last rune whose prefix still fits maxWidth.
func splitAtWidth(face font.Face, s string, maxWidth int) (head, rest string) {
	runes := []rune(s)
	fit := 0
	for i := 1; i <= len(runes); i++ {
		if measure(face, string(runes[:i])) > maxWidth {
			break
		}
		fit = i
	}
	return string(runes[:fit]), string(runes[fit:])
}

// truncateWithEllipsis trims line until line+ellipsis fits maxWidth.
func truncateWithEllipsis(face font.Face, line string, maxWidth int) string {
	runes := []rune(line)
	for len(runes) > 0 {
		candidate := strings.TrimRight(string(runes), " ") + ellipsis
		if measure(face, candidate) <= maxWidth {
			return candidate
		}
		runes = runes[:len(runes)-1]
	}
	return ellipsis
}
