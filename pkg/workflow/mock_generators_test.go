package workflow

import (
	"context"
	"sync"

	"bugpersona/pkg/persona"
)

type MockTextGenerator struct {
	GeneratePersonaFunc func(ctx context.Context, words []string) (*persona.Persona, error)

	mu    sync.Mutex
	calls [][]string
}

func (m *MockTextGenerator) GeneratePersona(ctx context.Context, words []string) (*persona.Persona, error) {
	m.mu.Lock()
	m.calls = append(m.calls, words)
	m.mu.Unlock()

	if m.GeneratePersonaFunc != nil {
		return m.GeneratePersonaFunc(ctx, words)
	}
	return samplePersona(), nil
}

func (m *MockTextGenerator) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.calls...)
}

type MockImageGenerator struct {
	GenerateImageFunc func(ctx context.Context, appearance string) (*persona.Image, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockImageGenerator) GenerateImage(ctx context.Context, appearance string) (*persona.Image, error) {
	m.mu.Lock()
	m.calls = append(m.calls, appearance)
	m.mu.Unlock()

	if m.GenerateImageFunc != nil {
		return m.GenerateImageFunc(ctx, appearance)
	}
	return &persona.Image{Data: []byte{0x89, 'P', 'N', 'G'}, MimeType: "image/png"}, nil
}

func (m *MockImageGenerator) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func samplePersona() *persona.Persona {
	return &persona.Persona{
		Name:           "Deploy de Sexta",
		Type:           "Lógica",
		Behavior:       "Some do ambiente de staging e reaparece em produção.",
		RootCause:      "Pipeline sem revisão desde 2021",
		TeamImpact:     "Daily vira terapia em grupo",
		TemporaryPatch: "Feature flag eterna",
		Severity:       320,
		LogMessage:     "ERR_FRIDAY_DEPLOY",
		Appearance:     "Um robô laranja com café derramado",
	}
}
