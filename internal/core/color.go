package core

// Color is the foreground color of a screen cell. The zero value is the
// terminal default.
type Color uint8

const (
	ColorDefault Color = iota
	ColorRed
	ColorYellow
	ColorGray
	ColorBrightRed
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightCyan
	ColorBrightWhite
)

var ansiCodes = [...]string{
	ColorDefault:      "",
	ColorRed:          "1",
	ColorYellow:       "3",
	ColorGray:         "245",
	ColorBrightRed:    "9",
	ColorBrightGreen:  "10",
	ColorBrightYellow: "11",
	ColorBrightCyan:   "14",
	ColorBrightWhite:  "15",
}

// ANSI returns the 256-color code for c, or "" for the default color.
func (c Color) ANSI() string {
	if int(c) >= len(ansiCodes) {
		return ""
	}
	return ansiCodes[c]
}

// Bold reports whether c is drawn bold. Hearts and the cursor brackets use
// these so they stand out on dim terminals.
func (c Color) Bold() bool {
	return c == ColorBrightRed || c == ColorBrightWhite
}

// Colors lists every color with a terminal code.
func Colors() []Color {
	out := make([]Color, 0, len(ansiCodes)-1)
	for c := ColorRed; int(c) < len(ansiCodes); c++ {
		out = append(out, c)
	}
	return out
}
