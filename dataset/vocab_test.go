package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) error {
	t.Helper()
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestDefaultTaskSet_Sizes(t *testing.T) {
	tasks := DefaultTaskSet()
	assert.Equal(t, AllTasks, tasks.Tasks)

	want := map[string]int{
		TaskLocalKey:            108,
		TaskSecondaryDegree:     7,
		TaskPrimaryDegree:       7,
		TaskQuality:             13,
		TaskInversion:           4,
		TaskRootPitchClass:      12,
		TaskBassPitchClass:      12,
		TaskTonicizedPitchClass: 12,
		TaskSimpleRN:            6825,
	}
	assert.Equal(t, want, tasks.Sizes())
}

func TestTaskSet_Index(t *testing.T) {
	tasks := DefaultTaskSet()

	tests := []struct {
		task    string
		literal string
		id      int
	}{
		{task: TaskLocalKey, literal: "C major", id: 0},
		{task: TaskLocalKey, literal: "C phrygianDominant", id: 8},
		{task: TaskLocalKey, literal: "D# minor", id: 28},
		{task: TaskLocalKey, literal: "B phrygianDominant", id: 107},
		{task: TaskQuality, literal: "D7", id: 0},
		{task: TaskQuality, literal: "oM7", id: 12},
		{task: TaskPrimaryDegree, literal: "I", id: 0},
		{task: TaskPrimaryDegree, literal: "VII", id: 6},
		{task: TaskInversion, literal: "3", id: 3},
		{task: TaskRootPitchClass, literal: "11", id: 11},
		{task: TaskSimpleRN, literal: "bbI", id: 0},
		{task: TaskSimpleRN, literal: "I", id: 182},
		{task: TaskSimpleRN, literal: "V7", id: 235},
		{task: TaskSimpleRN, literal: "V/V", id: 4131},
	}

	for _, tt := range tests {
		t.Run(tt.task+" "+tt.literal, func(t *testing.T) {
			id, err := tasks.Index(tt.task, tt.literal)
			require.NoError(t, err)
			assert.Equal(t, tt.id, id)

			literal, err := tasks.Literal(tt.task, id)
			require.NoError(t, err)
			assert.Equal(t, tt.literal, literal)
		})
	}
}

func TestTaskSet_IndexErrors(t *testing.T) {
	tasks := DefaultTaskSet()

	_, err := tasks.Index(TaskQuality, "X9")
	assert.ErrorIs(t, err, ErrUnknownLabelValue)

	_, err = tasks.Index("velocity", "1")
	assert.ErrorIs(t, err, ErrUnknownLabelValue)

	_, err = tasks.Literal(TaskQuality, 13)
	assert.ErrorIs(t, err, ErrUnknownLabelValue)

	_, err = tasks.Literal(TaskQuality, -1)
	assert.ErrorIs(t, err, ErrUnknownLabelValue)
}

func TestSimpleRNDomain_CoversBuilderOutput(t *testing.T) {
	// Every token the builder produced in the rendering tests must be a
	// member of the closed vocabulary.
	tasks := DefaultTaskSet()
	for _, token := range []string{
		"I", "ii", "V7", "Imaj7", "viio", "vii/o7", "i", "v", "VII",
		"bIII", "#io", "V/V", "V7/V", "V/vi", "viio/V", "vii/o7/V", "V/bIII",
		"V7/bVI", "bbiomaj7", "III+maj7/##vii",
	} {
		_, err := tasks.Index(TaskSimpleRN, token)
		assert.NoError(t, err, "token %q", token)
	}

	_, err := tasks.Index(TaskSimpleRN, "IX")
	assert.ErrorIs(t, err, ErrUnknownLabelValue)
}

func TestTaskSet_Deterministic(t *testing.T) {
	first := DefaultTaskSet()
	second := DefaultTaskSet()

	assert.Equal(t, first.Tasks, second.Tasks)
	assert.Equal(t, first.Domains, second.Domains)
}

func TestReducedTaskSet(t *testing.T) {
	tasks := ReducedTaskSet()

	assert.Equal(t, ReducedTasks, tasks.Tasks)
	assert.True(t, tasks.Has(TaskSimpleRN))
	assert.False(t, tasks.Has(TaskQuality))
	assert.False(t, tasks.Has(TaskPrimaryDegree))
	assert.Equal(t, 6825, tasks.Size(TaskSimpleRN))
	assert.Equal(t, 0, tasks.Size(TaskQuality))
}

func TestTaskSet_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")

	saved := DefaultTaskSet()
	require.NoError(t, saved.Save(path))

	loaded, err := LoadTaskSet(path)
	require.NoError(t, err)

	assert.Equal(t, saved.Tasks, loaded.Tasks)
	assert.Equal(t, saved.Domains, loaded.Domains)

	id, err := loaded.Index(TaskSimpleRN, "V/V")
	require.NoError(t, err)
	assert.Equal(t, 4131, id)
}

func TestLoadTaskSet_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadTaskSet(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, writeFile(t, empty, `{"tasks": [], "domains": {}}`))
	_, err = LoadTaskSet(empty)
	assert.Error(t, err)

	noDomain := filepath.Join(dir, "nodomain.json")
	require.NoError(t, writeFile(t, noDomain, `{"tasks": ["quality"], "domains": {}}`))
	_, err = LoadTaskSet(noDomain)
	assert.Error(t, err)
}

func TestKeyLiteral(t *testing.T) {
	assert.Equal(t, "C major", KeyLiteral(0, "major"))
	assert.Equal(t, "D# minor", KeyLiteral(3, "minor"))
	assert.Equal(t, "A harmonicMinor", KeyLiteral(21, "harmonicMinor"))
}
