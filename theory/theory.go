package theory

import "fmt"

// ChromaticScale lists the canonical pitch-class spellings, C through B.
// Sharp names are used for the black keys; flat input spellings are accepted
// by ParseNote but normalized to these on output.
var ChromaticScale = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// naturalPitchClasses maps the seven note letters to their pitch classes.
var naturalPitchClasses = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// PitchClass reduces an arbitrary semitone count to the octave range [0, 11].
func PitchClass(n int) int {
	return ((n % 12) + 12) % 12
}

// NoteName returns the canonical spelling for a pitch class.
func NoteName(pc int) string {
	return ChromaticScale[PitchClass(pc)]
}

// ParseNote converts a note name (a letter A-G followed by optional '#' or 'b'
// accidentals, e.g. "C", "Eb", "F#", "Abb") to its pitch class.
func ParseNote(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty name", ErrInvalidNote)
	}

	letter := name[0]
	if letter >= 'a' && letter <= 'g' {
		letter -= 'a' - 'A'
	}

	pc, ok := naturalPitchClasses[letter]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNote, name)
	}

	for i := 1; i < len(name); i++ {
		switch name[i] {
		case '#':
			pc++
		case 'b':
			pc--
		default:
			return 0, fmt.Errorf("%w: %q", ErrInvalidNote, name)
		}
	}

	return PitchClass(pc), nil
}
