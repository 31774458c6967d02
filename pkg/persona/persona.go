package persona

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// WordCount is the number of mood words a generation needs
	WordCount = 3
	// MaxWordLength caps each mood word, in runes
	MaxWordLength = 20
)

var (
	ErrInvalidMood = errors.New("invalid mood words")
	ErrMalformed   = errors.New("malformed persona")
)

// Persona is the satirical "bug" produced by text generation.
// JSON names follow the contract the model is asked to fill.
type Persona struct {
	Name           string `json:"nome"`
	Type           string `json:"tipo"`
	Behavior       string `json:"comportamento"`
	RootCause      string `json:"causaRaiz"`
	TeamImpact     string `json:"impactoTime"`
	TemporaryPatch string `json:"patchTemporario"`
	Severity       int    `json:"severidade"`
	LogMessage     string `json:"logMessage"`
	Appearance     string `json:"aparenciaDescricao"`
}

// Image is a generated illustration for a persona
type Image struct {
	Data     []byte
	MimeType string
}

// DataURL returns the image as an inline data URL
func (i *Image) DataURL() string {
	mime := i.MimeType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// NormalizeMood trims the words and checks them against the input rules.
// It returns the trimmed copy.
func NormalizeMood(words []string) ([]string, error) {
	if len(words) != WordCount {
		return nil, fmt.Errorf("%w: expected %d words, got %d", ErrInvalidMood, WordCount, len(words))
	}

	out := make([]string, len(words))
	for i, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			return nil, fmt.Errorf("%w: word %d is blank", ErrInvalidMood, i+1)
		}
		if utf8.RuneCountInString(w) > MaxWordLength {
			return nil, fmt.Errorf("%w: word %d exceeds %d characters", ErrInvalidMood, i+1, MaxWordLength)
		}
		out[i] = w
	}
	return out, nil
}

// MoodReady reports whether the words would be accepted by NormalizeMood
func MoodReady(words []string) bool {
	_, err := NormalizeMood(words)
	return err == nil
}

// wirePersona mirrors Persona with pointer fields so missing keys can be told
// apart from zero values.
type wirePersona struct {
	Name           *string `json:"nome"`
	Type           *string `json:"tipo"`
	Behavior       *string `json:"comportamento"`
	RootCause      *string `json:"causaRaiz"`
	TeamImpact     *string `json:"impactoTime"`
	TemporaryPatch *string `json:"patchTemporario"`
	Severity       *int    `json:"severidade"`
	LogMessage     *string `json:"logMessage"`
	Appearance     *string `json:"aparenciaDescricao"`
}

// Decode parses a model response into a Persona. Every field is required.
func Decode(data []byte) (*Persona, error) {
	data = bytes.TrimSpace(stripCodeFence(data))
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrMalformed)
	}

	var w wirePersona
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var missing []string
	str := func(name string, v *string) string {
		if v == nil {
			missing = append(missing, name)
			return ""
		}
		return *v
	}

	p := &Persona{
		Name:           str("nome", w.Name),
		Type:           str("tipo", w.Type),
		Behavior:       str("comportamento", w.Behavior),
		RootCause:      str("causaRaiz", w.RootCause),
		TeamImpact:     str("impactoTime", w.TeamImpact),
		TemporaryPatch: str("patchTemporario", w.TemporaryPatch),
		LogMessage:     str("logMessage", w.LogMessage),
		Appearance:     str("aparenciaDescricao", w.Appearance),
	}
	if w.Severity == nil {
		missing = append(missing, "severidade")
	} else {
		p.Severity = *w.Severity
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing fields %s", ErrMalformed, strings.Join(missing, ", "))
	}
	return p, nil
}

// stripCodeFence removes a surrounding ``` block, which some models add even
// when asked for bare JSON.
func stripCodeFence(data []byte) []byte {
	s := strings.TrimSpace(string(data))
	if !strings.HasPrefix(s, "```") {
		return data
	}
	if idx := strings.Index(s, "\n"); idx != -1 {
		if lastIdx := strings.LastIndex(s, "\n"); lastIdx > idx {
			return []byte(s[idx+1 : lastIdx])
		}
	}
	return data
}

// Slug turns the persona name into a lowercase, dash-separated file name part
func (p *Persona) Slug() string {
	return strings.ToLower(strings.Join(strings.Fields(p.Name), "-"))
}
