package theory

import (
	"fmt"
	"strings"
)

// Resolver resolves Roman numeral chord tokens into concrete pitch classes
// against a key, using injected lookup tables. It is stateless beyond the
// read-only tables and safe for concurrent use.
type Resolver struct {
	tables *Tables
}

// NewResolver creates a resolver over the given tables. A nil tables argument
// selects DefaultTables.
func NewResolver(tables *Tables) *Resolver {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Resolver{tables: tables}
}

// Tables exposes the resolver's lookup tables for callers that need the raw
// interval data, such as the label encoder.
func (r *Resolver) Tables() *Tables {
	return r.tables
}

// BuildScale returns the seven pitch classes of the scale on tonicPc in the
// given mode: the cumulative sum of the tonic with the mode's six interval
// steps, each reduced modulo 12. The first element equals the tonic.
func (r *Resolver) BuildScale(tonicPc int, mode string) ([]int, error) {
	steps, ok := r.tables.Modes[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	scale := make([]int, len(steps)+1)
	scale[0] = PitchClass(tonicPc)
	for i, step := range steps {
		scale[i+1] = PitchClass(scale[i] + step)
	}
	return scale, nil
}

// DiatonicQuality identifies the quality of the chord stacked in thirds on a
// scale degree using only scale members. Size is the number of chord tones:
// 3 for a triad, 4 for a seventh chord. Fails with UnknownQuality when the
// stacked intervals match none of the known quality patterns, which can
// happen on exotic scale templates.
func (r *Resolver) DiatonicQuality(scale []int, degree, size int) (string, error) {
	if len(scale) != 7 {
		return "", fmt.Errorf("diatonic stack needs a 7-degree scale, got %d", len(scale))
	}
	if degree < 0 || degree >= len(scale) {
		return "", fmt.Errorf("scale degree %d out of range", degree)
	}
	if size < 3 || size > 4 {
		return "", fmt.Errorf("unsupported chord stack of %d tones", size)
	}

	steps := make([]int, size-1)
	prev := scale[degree]
	for i := 1; i < size; i++ {
		next := scale[(degree+2*i)%len(scale)]
		steps[i-1] = PitchClass(next - prev)
		prev = next
	}
	return r.tables.QualityForSteps(steps)
}

// ResolveQuality maps a written degree and extension literal to a quality
// code. Uppercase degrees use the major-family table, lowercase the
// minor-family table.
func (r *Resolver) ResolveQuality(degree, extension string) (string, error) {
	table := r.tables.MajorExtensions
	if degree != "" && degree[0] >= 'a' {
		table = r.tables.MinorExtensions
	}

	quality, ok := table[extension]
	if !ok {
		return "", fmt.Errorf("%w: %q after degree %q", ErrUnknownExtension, extension, degree)
	}
	return quality, nil
}

// SecondaryTarget describes the tonicization of an applied chord: the target
// scale degree within the original key, its accidental offset, and the pitch
// class that becomes the tonic of the derived scale.
type SecondaryTarget struct {
	Degree     int
	Accidental int
	Tonic      int
}

// Resolution is the fully resolved form of a Roman numeral token.
type Resolution struct {
	Token        string
	Degree       int    // primary scale-degree index, 0-6
	Accidental   int    // semitone offset applied to the primary degree
	Quality      string // quality code, e.g. "D7"
	Root         int    // root pitch class
	PitchClasses []int  // stacked chord tones, root first
	Secondary    *SecondaryTarget
}

// Resolve parses a complete Roman numeral token and resolves it against the
// key given by tonicPc and mode:
//
//  1. The half-diminished marker "/o" is normalized to "^o" so "/" only
//     separates a secondary target.
//  2. The token splits into a primary part and at most one target part.
//  3. A secondary target is resolved within the given scale (degree pitch
//     class plus accidental) and becomes the tonic of a derived major scale;
//     the primary part then resolves against that scale. Only one level of
//     tonicization is defined; deeper nesting is rejected.
//  4. The root is the scale's degree pitch class plus the accidental offset.
//  5. The chord tones are the cumulative sum of the root with the quality's
//     interval steps, reduced modulo 12.
func (r *Resolver) Resolve(token string, tonicPc int, mode string) (*Resolution, error) {
	scale, err := r.BuildScale(tonicPc, mode)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(strings.ReplaceAll(token, "/o", "^o"), "/")
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: %q nests more than one secondary target", ErrMalformedToken, token)
	}

	var secondary *SecondaryTarget
	if len(parts) == 2 {
		target, err := r.ParseToken(parts[1])
		if err != nil {
			return nil, err
		}

		// The target's extension carries no meaning for tonicization and is
		// ignored. Applied chords always resolve in the major scale of their
		// target, whatever the target's written case.
		degree := r.DegreeIndex(target)
		tonic := PitchClass(scale[degree] + r.tables.Accidentals[target.Accidental])

		scale, err = r.BuildScale(tonic, "major")
		if err != nil {
			return nil, err
		}
		secondary = &SecondaryTarget{
			Degree:     degree,
			Accidental: r.tables.Accidentals[target.Accidental],
			Tonic:      tonic,
		}
	}

	primary, err := r.ParseToken(parts[0])
	if err != nil {
		return nil, err
	}

	quality, err := r.ResolveQuality(primary.Degree, primary.Extension)
	if err != nil {
		return nil, err
	}
	steps := r.tables.Qualities[quality]

	degree := r.DegreeIndex(primary)
	accidental := r.tables.Accidentals[primary.Accidental]
	root := PitchClass(scale[degree] + accidental)

	pcs := make([]int, len(steps)+1)
	pcs[0] = root
	for i, step := range steps {
		pcs[i+1] = PitchClass(pcs[i] + step)
	}

	return &Resolution{
		Token:        token,
		Degree:       degree,
		Accidental:   accidental,
		Quality:      quality,
		Root:         root,
		PitchClasses: pcs,
		Secondary:    secondary,
	}, nil
}
