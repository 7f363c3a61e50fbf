package state

import "time"

// State is the read position in a followed input file.
// It is saved periodically and on shutdown so a restart resumes where
// reading stopped.
type State struct {
	// Path is the followed file.
	Path string `json:"path"`

	// Offset is the byte position just after the last complete line read.
	Offset int64 `json:"offset"`

	// Lines counts lines read since the checkpoint was created.
	Lines int64 `json:"lines"`

	// UpdatedAt is the time of the last checkpoint.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsEmpty returns true if the state has not been initialized.
func (s State) IsEmpty() bool {
	return s.Path == ""
}

// Advance records that lines up to offset have been read.
func (s *State) Advance(offset int64, lines int64) {
	s.Offset = offset
	s.Lines += lines
	s.UpdatedAt = time.Now()
}

// Reset rewinds to the start of path, e.g. after truncation.
func (s *State) Reset(path string) {
	s.Path = path
	s.Offset = 0
	s.UpdatedAt = time.Now()
}
