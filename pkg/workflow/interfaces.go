package workflow

import (
	"context"

	"bugpersona/pkg/persona"
)

// TextGenerator produces a persona from three mood words
type TextGenerator interface {
	GeneratePersona(ctx context.Context, words []string) (*persona.Persona, error)
}

// ImageGenerator illustrates a persona from its appearance description
type ImageGenerator interface {
	GenerateImage(ctx context.Context, appearance string) (*persona.Image, error)
}

// Generator is a backend offering both operations
type Generator interface {
	TextGenerator
	ImageGenerator
}
