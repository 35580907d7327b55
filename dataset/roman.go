package dataset

import (
	"fmt"
	"strings"

	"github.com/ThiagoPoppe/parc/theory"
)

// TokenBuilder renders chord annotations as the literal Roman numeral tokens
// the harmony resolver understands. The rendering round-trips: resolving the
// produced token against the chord's key yields the chord's sounding pitch
// classes.
type TokenBuilder struct {
	resolver *theory.Resolver
}

// NewTokenBuilder creates a builder over the given resolver. A nil resolver
// selects one with the default tables.
func NewTokenBuilder(resolver *theory.Resolver) *TokenBuilder {
	if resolver == nil {
		resolver = theory.NewResolver(nil)
	}
	return &TokenBuilder{resolver: resolver}
}

// chordTones maps the chord type field to the number of stacked tones. Ninth
// and eleventh chords have no entry in the quality tables and are rejected.
func chordTones(chordType int) (int, error) {
	switch chordType {
	case 5:
		return 3, nil
	case 7:
		return 4, nil
	}
	return 0, fmt.Errorf("%w: chord type %d", theory.ErrUnknownExtension, chordType)
}

// EffectiveScale returns the scale the chord actually sounds in: the key
// scale, a borrowed mode rebuilt on the key tonic, or a borrowed semitone
// template transposed to the key tonic.
func (b *TokenBuilder) EffectiveScale(chord *ChordSpan, key *KeySpan) ([]int, error) {
	tonicPc, err := theory.ParseNote(key.Tonic)
	if err != nil {
		return nil, err
	}

	if len(chord.Borrowed.Template) > 0 {
		scale := make([]int, len(chord.Borrowed.Template))
		for i, offset := range chord.Borrowed.Template {
			scale[i] = theory.PitchClass(tonicPc + offset)
		}
		return scale, nil
	}
	if chord.Borrowed.Mode != "" {
		return b.resolver.BuildScale(tonicPc, chord.Borrowed.Mode)
	}
	return b.resolver.BuildScale(tonicPc, key.Scale)
}

// Token renders the chord as a complete Roman numeral within its key. The
// numeral's accidental is the semitone offset of the sounding degree from its
// diatonic position, its case and extension come from the quality of the
// chord stacked in the sounding scale, and an applied chord gains a "/"
// target rendered the same way from the key scale.
func (b *TokenBuilder) Token(chord *ChordSpan, key *KeySpan) (string, error) {
	tonicPc, err := theory.ParseNote(key.Tonic)
	if err != nil {
		return "", err
	}
	keyScale, err := b.resolver.BuildScale(tonicPc, key.Scale)
	if err != nil {
		return "", err
	}
	effScale, err := b.EffectiveScale(chord, key)
	if err != nil {
		return "", err
	}
	tones, err := chordTones(chord.Type)
	if err != nil {
		return "", err
	}

	if chord.Applied == 0 {
		return b.renderDegree(chord.Root-1, effScale, keyScale, tones)
	}
	return b.renderApplied(chord, effScale, keyScale, tones)
}

// renderDegree writes the numeral for the chord stacked on a scale degree:
// accidental relative to the key scale, cased numeral, quality extension.
func (b *TokenBuilder) renderDegree(degree int, effScale, keyScale []int, tones int) (string, error) {
	tables := b.resolver.Tables()

	accidental, err := tables.AccidentalFor(accidentalOffset(effScale[degree], keyScale[degree]))
	if err != nil {
		return "", err
	}
	quality, err := b.resolver.DiatonicQuality(effScale, degree, tones)
	if err != nil {
		return "", err
	}
	extension, minorFamily, err := tables.ExtensionFor(quality)
	if err != nil {
		return "", err
	}

	return accidental + casedNumeral(degree, minorFamily) + extension, nil
}

// renderApplied writes primary/target. The target degree is taken from the
// sounding scale and written without an extension; the primary resolves in
// the major scale built on the target's pitch class.
func (b *TokenBuilder) renderApplied(chord *ChordSpan, effScale, keyScale []int, tones int) (string, error) {
	tables := b.resolver.Tables()
	targetDegree := chord.Root - 1

	accidental, err := tables.AccidentalFor(accidentalOffset(effScale[targetDegree], keyScale[targetDegree]))
	if err != nil {
		return "", err
	}
	targetQuality, err := b.resolver.DiatonicQuality(effScale, targetDegree, 3)
	if err != nil {
		return "", err
	}
	_, targetMinor, err := tables.ExtensionFor(targetQuality)
	if err != nil {
		return "", err
	}

	derived, err := b.resolver.BuildScale(effScale[targetDegree], "major")
	if err != nil {
		return "", err
	}

	primaryDegree := chord.Applied - 1
	primaryQuality, err := b.resolver.DiatonicQuality(derived, primaryDegree, tones)
	if err != nil {
		return "", err
	}
	extension, primaryMinor, err := tables.ExtensionFor(primaryQuality)
	if err != nil {
		return "", err
	}

	primary := casedNumeral(primaryDegree, primaryMinor) + extension
	target := accidental + casedNumeral(targetDegree, targetMinor)
	return primary + "/" + target, nil
}

// accidentalOffset wraps the semitone difference between a sounding degree
// and its diatonic position into the signed range [-6, 5].
func accidentalOffset(effPc, keyPc int) int {
	return theory.PitchClass(effPc-keyPc+6) - 6
}

func casedNumeral(degree int, minorFamily bool) string {
	numeral := theory.DegreeNumerals[degree]
	if minorFamily {
		return strings.ToLower(numeral)
	}
	return numeral
}
