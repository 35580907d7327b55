package theory

import (
	"fmt"
	"slices"
	"strings"
)

// DegreeNumerals lists the scale-degree numerals in index order, so
// DegreeNumerals[0] is the tonic numeral "I".
var DegreeNumerals = [7]string{"I", "II", "III", "IV", "V", "VI", "VII"}

// Tables holds the immutable music-theory lookup tables: mode interval steps,
// chord-quality interval steps, accidental offsets, degree indices and the two
// extension maps keyed by degree case. Tables are loaded once and injected
// into the Resolver; they are never mutated after construction.
type Tables struct {
	// Modes maps a mode name to its 6 interval steps in semitones.
	Modes map[string][]int `json:"modes"`

	// Qualities maps a quality code to the 2-3 semitone steps used to stack
	// chord tones above the root.
	Qualities map[string][]int `json:"qualities"`

	// Accidentals maps an accidental literal to its semitone offset.
	Accidentals map[string]int `json:"accidentals"`

	// Degrees maps an uppercase degree numeral to its scale-degree index.
	Degrees map[string]int `json:"degrees"`

	// MajorExtensions maps an extension literal to a quality code for
	// uppercase (major-family) degree numerals.
	MajorExtensions map[string]string `json:"major_extensions"`

	// MinorExtensions is the lowercase (minor-family) counterpart. The
	// half-diminished literal is stored in its normalized "^o7" spelling.
	MinorExtensions map[string]string `json:"minor_extensions"`
}

// DefaultTables returns the standard tables: 9 modes, 13 qualities,
// 5 accidentals and 7 degrees.
func DefaultTables() *Tables {
	return &Tables{
		Modes: map[string][]int{
			"major":            {2, 2, 1, 2, 2, 2},
			"minor":            {2, 1, 2, 2, 1, 2},
			"dorian":           {2, 1, 2, 2, 2, 1},
			"phrygian":         {1, 2, 2, 2, 1, 2},
			"lydian":           {2, 2, 2, 1, 2, 2},
			"mixolydian":       {2, 2, 1, 2, 2, 1},
			"locrian":          {1, 2, 2, 1, 2, 2},
			"harmonicMinor":    {2, 1, 2, 2, 1, 3},
			"phrygianDominant": {1, 3, 1, 2, 1, 2},
		},
		Qualities: map[string][]int{
			"D7": {4, 3, 3}, "M": {4, 3}, "M7": {4, 3, 4}, "a": {4, 4},
			"a7": {4, 4, 2}, "aM7": {4, 4, 3}, "d": {3, 3}, "d7": {3, 3, 3},
			"h7": {3, 3, 4}, "m": {3, 4}, "m7": {3, 4, 3}, "mM7": {3, 4, 4},
			"oM7": {3, 3, 5},
		},
		Accidentals: map[string]int{"bb": -2, "b": -1, "": 0, "#": 1, "##": 2},
		Degrees: map[string]int{
			"I": 0, "II": 1, "III": 2, "IV": 3, "V": 4, "VI": 5, "VII": 6,
		},
		MajorExtensions: map[string]string{
			"7": "D7", "maj7": "M7", "+": "a", "+7": "a7", "+maj7": "aM7", "": "M",
		},
		MinorExtensions: map[string]string{
			"o": "d", "o7": "d7", "^o7": "h7", "7": "m7", "maj7": "mM7", "omaj7": "oM7", "": "m",
		},
	}
}

// QualitySteps returns the interval steps for a quality code.
func (t *Tables) QualitySteps(code string) ([]int, error) {
	steps, ok := t.Qualities[code]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuality, code)
	}
	return steps, nil
}

// QualityForSteps finds the quality code whose interval steps match the given
// pattern. The 13 patterns are pairwise distinct, so the match is unique.
func (t *Tables) QualityForSteps(steps []int) (string, error) {
	for code, candidate := range t.Qualities {
		if slices.Equal(candidate, steps) {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: interval steps %v", ErrUnknownQuality, steps)
}

// MinorFamily reports whether a quality code belongs to the minor-family
// (lowercase numeral) extension table.
func (t *Tables) MinorFamily(quality string) bool {
	for _, code := range t.MinorExtensions {
		if code == quality {
			return true
		}
	}
	return false
}

// ExtensionFor returns the extension literal written after the numeral for a
// quality code, along with its degree-letter case. The half-diminished
// extension is returned in its written "/o7" spelling rather than the
// normalized "^o7" form.
func (t *Tables) ExtensionFor(quality string) (literal string, minorFamily bool, err error) {
	for ext, code := range t.MajorExtensions {
		if code == quality {
			return ext, false, nil
		}
	}
	for ext, code := range t.MinorExtensions {
		if code == quality {
			return strings.ReplaceAll(ext, "^o", "/o"), true, nil
		}
	}
	return "", false, fmt.Errorf("%w: %q has no extension literal", ErrUnknownQuality, quality)
}

// AccidentalFor returns the accidental literal for a semitone offset in
// [-2, 2].
func (t *Tables) AccidentalFor(offset int) (string, error) {
	switch offset {
	case -2:
		return "bb", nil
	case -1:
		return "b", nil
	case 0:
		return "", nil
	case 1:
		return "#", nil
	case 2:
		return "##", nil
	}
	return "", fmt.Errorf("%w: accidental offset %d out of range", ErrMalformedToken, offset)
}
