package workflow

import (
	"bugpersona/pkg/persona"
)

// State is the progress of the generation workflow
type State int

const (
	Idle State = iota
	GeneratingText
	GeneratingImage
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case GeneratingText:
		return "generating_text"
	case GeneratingImage:
		return "generating_image"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// MarshalText lets State render as its name in JSON
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is a read-only copy of the workflow as seen by observers
type Snapshot struct {
	State   State            `json:"state"`
	Words   []string         `json:"words"`
	Persona *persona.Persona `json:"persona,omitempty"`
	Image   *persona.Image   `json:"-"`
	Error   string           `json:"error,omitempty"`
	ID      string           `json:"id,omitempty"`
	Seq     uint64           `json:"seq"`
}

// HasImage reports whether the illustration was generated
func (s Snapshot) HasImage() bool {
	return s.Image != nil
}

// Busy reports whether a generation is in progress
func (s Snapshot) Busy() bool {
	return s.State == GeneratingText || s.State == GeneratingImage
}
