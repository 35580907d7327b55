package segment

// Modality names for persisted blocks. A label block and the three feature
// blocks with the same entity id and window index describe the same beats.
const (
	ModalityLabels     = "labels"
	ModalityChroma     = "chroma"
	ModalityBassChroma = "basschroma"
	ModalitySpectrum   = "spectrum"
)

// LabelBlock is one windowed slice of an entity's label table: task × width
// vocabulary indices, with -1 marking beats outside any chord span or beyond
// the clip tail.
type LabelBlock struct {
	EntityID string
	Index    int
	Tasks    []string
	Data     [][]int
}

// FeatureBlock is one windowed slice of an entity's feature table for a
// single modality: channels × width values, zero-padded at the clip tail.
type FeatureBlock struct {
	EntityID string
	Index    int
	Modality string
	Data     [][]float64
}
