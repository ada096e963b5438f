// Package palette implements C1: the fixed 65-entry indexed color table,
// alarm-severity-to-color mapping, PV limit resolution, and the numeric
// formatting used throughout the runtime (§3 PvLimits, §4.1, glossary
// "Indexed palette").
package palette

// RGB is a plain 8-bit-per-channel color, independent of any GUI toolkit
// (painting primitives are out of scope per §1).
type RGB struct {
	R, G, B uint8
}

// Table is the legacy 65-entry indexed palette. Display files reference
// colors by index into this table (§6 "Color indices are integers into a
// fixed 65-entry palette").
var Table = [65]RGB{
	{255, 255, 255}, {236, 236, 236}, {218, 218, 218}, {200, 200, 200},
	{187, 187, 187}, {174, 174, 174}, {158, 158, 158}, {145, 145, 145},
	{133, 133, 133}, {120, 120, 120}, {105, 105, 105}, {90, 90, 90},
	{70, 70, 70}, {45, 45, 45}, {0, 0, 0}, {0, 216, 0},
	{30, 187, 0}, {51, 153, 0}, {45, 127, 0}, {33, 108, 0},
	{253, 0, 0}, {222, 19, 9}, {190, 25, 11}, {160, 18, 7},
	{130, 4, 0}, {88, 147, 255}, {89, 126, 225}, {75, 110, 199},
	{58, 94, 171}, {39, 84, 141}, {251, 243, 74}, {249, 218, 60},
	{238, 182, 43}, {225, 144, 21}, {205, 97, 0}, {255, 176, 255},
	{214, 127, 226}, {174, 78, 188}, {139, 26, 150}, {97, 10, 117},
	{164, 170, 255}, {135, 147, 226}, {106, 115, 193}, {77, 82, 164},
	{52, 51, 134}, {199, 187, 109}, {183, 157, 92}, {164, 126, 60},
	{125, 86, 39}, {88, 52, 15}, {153, 255, 255}, {115, 223, 255},
	{78, 165, 249}, {42, 99, 228}, {10, 0, 184}, {235, 241, 181},
	{212, 219, 157}, {187, 193, 135}, {166, 164, 98}, {139, 130, 57},
	{115, 255, 107}, {82, 218, 59}, {60, 180, 32}, {40, 147, 21},
	{26, 115, 9},
}

// alarmColors maps Severity 0..3 to its palette color, plus index 4 as the
// out-of-range fallback (gray).
var alarmColors = [5]RGB{
	{0, 205, 0},     // None: Green3
	{255, 255, 0},   // Minor: Yellow
	{255, 0, 0},     // Major: Red
	{255, 255, 255}, // Invalid: White
	{204, 204, 204}, // out-of-range fallback
}

// Severity is the alarm severity (glossary: 0=None, 1=Minor, 2=Major, 3=Invalid).
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMinor
	SeverityMajor
	SeverityInvalid
)

// AlarmColor returns the palette color for a severity; out-of-range values
// fall back to gray, matching medm_colors.cc. (A disconnected widget is
// painted Disconnected, which is white.)
func AlarmColor(severity Severity) RGB {
	idx := int(severity)
	if idx < 0 || idx >= len(alarmColors)-1 {
		idx = len(alarmColors) - 1
	}
	return alarmColors[idx]
}

// Color looks up a palette entry by index. ok is false for an out-of-range
// index, which callers must treat as a configuration error (§7 kind 1).
func Color(index int) (RGB, bool) {
	if index < 0 || index >= len(Table) {
		return RGB{}, false
	}
	return Table[index], true
}

// IndexOf returns the palette index for an exact color match, or -1.
func IndexOf(c RGB) int {
	for i, entry := range Table {
		if entry == c {
			return i
		}
	}
	return -1
}

// Disconnected is the color every widget shows while connected == false,
// regardless of its configured color mode (§4.4 step 5).
var Disconnected = RGB{255, 255, 255}
