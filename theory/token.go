package theory

import (
	"fmt"
	"strings"
)

// Token is the parsed form of a single Roman numeral part: an optional
// accidental, 1-3 degree letters and the trailing extension literal. The
// degree keeps its written case; uppercase selects the major-family quality
// table and lowercase the minor-family table.
type Token struct {
	Accidental string
	Degree     string
	Extension  string
}

// MinorFamily reports whether the degree was written in lowercase.
func (t Token) MinorFamily() bool {
	return t.Degree != "" && t.Degree[0] >= 'a'
}

// accidentalLiterals is ordered longest-first so "bb" and "##" win over their
// single-character prefixes.
var accidentalLiterals = []string{"bb", "##", "b", "#"}

func isDegreeLetter(c byte) bool {
	return c == 'I' || c == 'V' || c == 'i' || c == 'v'
}

// ParseToken splits a Roman numeral part into accidental, degree and
// extension. It fails with ErrMalformedToken when there are no degree
// letters, when the degree letters mix cases, or when they do not spell a
// valid numeral I-VII. Secondary targets are not handled here; Resolve splits
// them off before parsing each part.
func (r *Resolver) ParseToken(token string) (Token, error) {
	rest := token
	accidental := ""
	for _, lit := range accidentalLiterals {
		if strings.HasPrefix(rest, lit) {
			accidental = lit
			rest = rest[len(lit):]
			break
		}
	}

	end := 0
	for end < len(rest) && isDegreeLetter(rest[end]) {
		end++
	}
	if end == 0 {
		return Token{}, fmt.Errorf("%w: no degree letters in %q", ErrMalformedToken, token)
	}

	degree, extension := rest[:end], rest[end:]

	upper := strings.ToUpper(degree)
	if degree != upper && degree != strings.ToLower(degree) {
		return Token{}, fmt.Errorf("%w: mixed-case degree in %q", ErrMalformedToken, token)
	}
	if _, ok := r.tables.Degrees[upper]; !ok {
		return Token{}, fmt.Errorf("%w: %q is not a degree numeral", ErrMalformedToken, token)
	}

	return Token{Accidental: accidental, Degree: degree, Extension: extension}, nil
}

// DegreeIndex returns the scale-degree index (0-6) of a parsed token,
// regardless of its case.
func (r *Resolver) DegreeIndex(t Token) int {
	return r.tables.Degrees[strings.ToUpper(t.Degree)]
}
