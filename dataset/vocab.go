package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/ThiagoPoppe/parc/theory"
)

// Task names, matching the row labels of the persisted segments.
const (
	TaskLocalKey            = "local_key"
	TaskSecondaryDegree     = "secondary_degree"
	TaskPrimaryDegree       = "primary_degree"
	TaskQuality             = "quality"
	TaskInversion           = "inversion"
	TaskRootPitchClass      = "root_pitch_class"
	TaskBassPitchClass      = "bass_pitch_class"
	TaskTonicizedPitchClass = "tonicized_pitch_class"
	TaskSimpleRN            = "simple_rn"
)

// AllTasks is the canonical 9-task row order of a full label table.
var AllTasks = []string{
	TaskLocalKey, TaskSecondaryDegree, TaskPrimaryDegree,
	TaskQuality, TaskInversion, TaskRootPitchClass, TaskBassPitchClass,
	TaskTonicizedPitchClass, TaskSimpleRN,
}

// ReducedTasks is the 6-task subset used when the degree and quality heads
// are folded into simple_rn.
var ReducedTasks = []string{
	TaskLocalKey, TaskSimpleRN, TaskInversion,
	TaskRootPitchClass, TaskBassPitchClass, TaskTonicizedPitchClass,
}

// ModeNames lists the mode table keys in canonical vocabulary order.
var ModeNames = []string{
	"major", "minor", "dorian", "phrygian", "lydian",
	"mixolydian", "locrian", "harmonicMinor", "phrygianDominant",
}

// QualityCodes lists the chord quality codes in canonical vocabulary order.
var QualityCodes = []string{
	"D7", "M", "M7", "a", "a7", "aM7", "d",
	"d7", "h7", "m", "m7", "mM7", "oM7",
}

// Written extension literals per degree-letter case, in enumeration order.
var (
	majorExtensions = []string{"", "7", "maj7", "+", "+7", "+maj7"}
	minorExtensions = []string{"", "o", "o7", "/o7", "7", "maj7", "omaj7"}
)

// accidentalLiterals in flat-to-sharp enumeration order.
var accidentalLiterals = []string{"bb", "b", "", "#", "##"}

// TaskSet is the closed vocabulary of every task: the row order of the label
// table and, per task, the ordered literal domain whose position is the class
// id. Task sets are built offline (or enumerated by DefaultTaskSet), loaded
// once and never mutated.
type TaskSet struct {
	Tasks   []string            `json:"tasks"`
	Domains map[string][]string `json:"domains"`

	rows  map[string]int
	index map[string]map[string]int
}

// DefaultTaskSet enumerates the full vocabularies: 108 keys, 7 degrees,
// 13 qualities, 4 inversions, 12 pitch classes and the closed set of every
// Roman numeral token the builder can emit.
func DefaultTaskSet() *TaskSet {
	return newTaskSet(slices.Clone(AllTasks), defaultDomains())
}

// ReducedTaskSet keeps the 6-task subset over the same domains.
func ReducedTaskSet() *TaskSet {
	domains := defaultDomains()
	reduced := make(map[string][]string, len(ReducedTasks))
	for _, task := range ReducedTasks {
		reduced[task] = domains[task]
	}
	return newTaskSet(slices.Clone(ReducedTasks), reduced)
}

// LoadTaskSet reads a task set from its JSON form, as written by Save.
func LoadTaskSet(path string) (*TaskSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task set: %w", err)
	}

	var s TaskSet
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse task set: %w", err)
	}
	if len(s.Tasks) == 0 {
		return nil, fmt.Errorf("task set %s lists no tasks", path)
	}
	for _, task := range s.Tasks {
		if len(s.Domains[task]) == 0 {
			return nil, fmt.Errorf("task set %s has no domain for task %q", path, task)
		}
	}

	s.buildIndex()
	return &s, nil
}

// Save writes the task set as indented JSON.
func (s *TaskSet) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode task set: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write task set: %w", err)
	}
	return nil
}

// Has reports whether the task is part of the set.
func (s *TaskSet) Has(task string) bool {
	_, ok := s.rows[task]
	return ok
}

// rowOf returns the label-table row of a task.
func (s *TaskSet) rowOf(task string) (int, bool) {
	row, ok := s.rows[task]
	return row, ok
}

// Index returns the class id of a literal within a task's domain.
func (s *TaskSet) Index(task, literal string) (int, error) {
	domain, ok := s.index[task]
	if !ok {
		return 0, fmt.Errorf("%w: no vocabulary for task %q", ErrUnknownLabelValue, task)
	}
	id, ok := domain[literal]
	if !ok {
		return 0, fmt.Errorf("%w: task %q has no literal %q", ErrUnknownLabelValue, task, literal)
	}
	return id, nil
}

// Literal returns the literal at a class id, the inverse of Index.
func (s *TaskSet) Literal(task string, id int) (string, error) {
	domain, ok := s.Domains[task]
	if !ok {
		return "", fmt.Errorf("%w: no vocabulary for task %q", ErrUnknownLabelValue, task)
	}
	if id < 0 || id >= len(domain) {
		return "", fmt.Errorf("%w: task %q has no class id %d", ErrUnknownLabelValue, task, id)
	}
	return domain[id], nil
}

// Size returns the vocabulary size of a task, 0 when the task is absent.
func (s *TaskSet) Size(task string) int {
	return len(s.Domains[task])
}

// Sizes returns task name to vocabulary size for every task in the set.
func (s *TaskSet) Sizes() map[string]int {
	sizes := make(map[string]int, len(s.Tasks))
	for _, task := range s.Tasks {
		sizes[task] = len(s.Domains[task])
	}
	return sizes
}

func newTaskSet(tasks []string, domains map[string][]string) *TaskSet {
	s := &TaskSet{Tasks: tasks, Domains: domains}
	s.buildIndex()
	return s
}

func (s *TaskSet) buildIndex() {
	s.rows = make(map[string]int, len(s.Tasks))
	for i, task := range s.Tasks {
		s.rows[task] = i
	}
	s.index = make(map[string]map[string]int, len(s.Domains))
	for task, domain := range s.Domains {
		m := make(map[string]int, len(domain))
		for i, literal := range domain {
			m[literal] = i
		}
		s.index[task] = m
	}
}

// KeyLiteral renders a key as its vocabulary literal, e.g. "C major". The
// tonic spelling is canonicalized to the sharp chromatic names, so "Eb minor"
// and "D# minor" share one class.
func KeyLiteral(tonicPc int, mode string) string {
	return theory.NoteName(tonicPc) + " " + mode
}

func defaultDomains() map[string][]string {
	return map[string][]string{
		TaskLocalKey:            keyDomain(),
		TaskSecondaryDegree:     slices.Clone(theory.DegreeNumerals[:]),
		TaskPrimaryDegree:       slices.Clone(theory.DegreeNumerals[:]),
		TaskQuality:             slices.Clone(QualityCodes),
		TaskInversion:           numericDomain(4),
		TaskRootPitchClass:      numericDomain(12),
		TaskBassPitchClass:      numericDomain(12),
		TaskTonicizedPitchClass: numericDomain(12),
		TaskSimpleRN:            simpleRNDomain(),
	}
}

func keyDomain() []string {
	keys := make([]string, 0, 12*len(ModeNames))
	for pc := 0; pc < 12; pc++ {
		for _, mode := range ModeNames {
			keys = append(keys, KeyLiteral(pc, mode))
		}
	}
	return keys
}

func numericDomain(n int) []string {
	domain := make([]string, n)
	for i := range domain {
		domain[i] = strconv.Itoa(i)
	}
	return domain
}

// simpleRNDomain enumerates every token the builder can emit: plain chords
// as accidental × cased numeral × family extension, then applied chords as
// primary × "/" × accidental × cased target.
func simpleRNDomain() []string {
	var primaries []string
	for _, numeral := range theory.DegreeNumerals {
		for _, ext := range majorExtensions {
			primaries = append(primaries, numeral+ext)
		}
		lower := strings.ToLower(numeral)
		for _, ext := range minorExtensions {
			primaries = append(primaries, lower+ext)
		}
	}

	var targets []string
	for _, acc := range accidentalLiterals {
		for _, numeral := range theory.DegreeNumerals {
			targets = append(targets, acc+numeral, acc+strings.ToLower(numeral))
		}
	}

	domain := make([]string, 0, len(accidentalLiterals)*len(primaries)+len(primaries)*len(targets))
	for _, acc := range accidentalLiterals {
		for _, primary := range primaries {
			domain = append(domain, acc+primary)
		}
	}
	for _, primary := range primaries {
		for _, target := range targets {
			domain = append(domain, primary+"/"+target)
		}
	}
	return domain
}
