package pipeline

import "errors"

// ErrWindowCountMismatch indicates the label and feature branches produced a
// different number of windows for one entity. Persisting either side would
// break the index alignment between label and feature blocks, so the whole
// entity is rejected.
var ErrWindowCountMismatch = errors.New("label and feature window counts differ")
