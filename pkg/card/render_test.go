package card

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"bugpersona/pkg/persona"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPersona() *persona.Persona {
	return &persona.Persona{
		Name:           "Modal Fantasma",
		Type:           "UI",
		Behavior:       "Aparece quando ninguém pediu e some quando o PO precisa apresentar a demo para o cliente mais importante do trimestre.",
		RootCause:      "z-index 9999",
		TeamImpact:     "Designers choram no Figma enquanto devs culpam o cache do navegador",
		TemporaryPatch: "display: none !important em produção",
		Severity:       320,
		LogMessage:     "TypeError: Cannot read properties of undefined (reading 'vibe') at ModalFantasma.render",
		Appearance:     "Fantasminha roxo",
	}
}

func testIllustration(t *testing.T) *persona.Image {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	for x := 0; x < 64; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.NRGBA{uint8(x * 4), 0x80, uint8(y * 8), 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &persona.Image{Data: buf.Bytes(), MimeType: "image/png"}
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestRender_WithoutIllustration(t *testing.T) {
	r := NewRenderer(DefaultScale)
	data, err := r.Render(testPersona(), nil)
	require.NoError(t, err)

	img := decodePNG(t, data)
	assert.Equal(t, Width*DefaultScale, img.Bounds().Dx())
	assert.Zero(t, img.Bounds().Dy()%DefaultScale)
	assert.Greater(t, img.Bounds().Dy(), Width*DefaultScale, "card is taller than wide")
}

func TestRender_WithIllustration(t *testing.T) {
	r := NewRenderer(1)
	plain, err := r.Render(testPersona(), nil)
	require.NoError(t, err)
	illustrated, err := r.Render(testPersona(), testIllustration(t))
	require.NoError(t, err)

	a := decodePNG(t, plain)
	b := decodePNG(t, illustrated)
	assert.Equal(t, a.Bounds(), b.Bounds())
	assert.NotEqual(t, plain, illustrated)
}

func TestRender_ScaleMultipliesSize(t *testing.T) {
	one := decodePNG(t, mustRender(t, NewRenderer(1)))
	three := decodePNG(t, mustRender(t, NewRenderer(3)))

	assert.Equal(t, one.Bounds().Dx()*3, three.Bounds().Dx())
	assert.Equal(t, one.Bounds().Dy()*3, three.Bounds().Dy())
}

func mustRender(t *testing.T, r *Renderer) []byte {
	t.Helper()
	data, err := r.Render(testPersona(), nil)
	require.NoError(t, err)
	return data
}

func TestRender_Errors(t *testing.T) {
	r := NewRenderer(1)

	_, err := r.Render(nil, nil)
	assert.ErrorIs(t, err, ErrExport)

	_, err = r.Render(testPersona(), &persona.Image{Data: []byte("not an image"), MimeType: "image/png"})
	assert.ErrorIs(t, err, ErrExport)
}

func TestNewRenderer_DefaultScale(t *testing.T) {
	assert.Equal(t, DefaultScale, NewRenderer(0).Scale())
	assert.Equal(t, 3, NewRenderer(3).Scale())
}

func TestWrap(t *testing.T) {
	r := NewRenderer(1)
	text := "Aparece quando ninguém pediu e some quando o PO precisa apresentar a demo"
	lines := r.wrap(text, 100)

	require.Greater(t, len(lines), 1)
	for _, line := range lines {
		assert.LessOrEqual(t, r.measure(line), 100, line)
	}
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(lines, " ")))
}

func TestWrap_SplitsLongWords(t *testing.T) {
	r := NewRenderer(1)
	word := strings.Repeat("á", 40)
	lines := r.wrap(word, 70)

	require.Greater(t, len(lines), 1)
	for _, line := range lines {
		assert.LessOrEqual(t, r.measure(line), 70)
	}
	assert.Equal(t, word, strings.Join(lines, ""))
}

func TestWrap_Empty(t *testing.T) {
	assert.Equal(t, []string{""}, NewRenderer(1).wrap("   ", 100))
}

func TestTruncate(t *testing.T) {
	r := NewRenderer(1)
	assert.Equal(t, "> ok", r.truncate("> ok", 200))

	long := r.truncate("> "+strings.Repeat("x", 100), 100)
	assert.True(t, strings.HasSuffix(long, "..."))
	assert.LessOrEqual(t, r.measure(long), 100)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "bug-persona-modal-fantasma.png", Filename(testPersona()))
	assert.Equal(t, "bug-persona.png", Filename(&persona.Persona{Name: "  "}))
}

type memoryCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	gets    int
	setKeys []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) GetBytes(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("miss")
	}
	return v, nil
}

func (m *memoryCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	m.setKeys = append(m.setKeys, key)
	return nil
}

func TestExporter_NoCache(t *testing.T) {
	e := NewExporter(NewRenderer(1))
	out, err := e.Export(context.Background(), "gen-1", testPersona(), nil)
	require.NoError(t, err)
	assert.Equal(t, "bug-persona-modal-fantasma.png", out.Filename)
	decodePNG(t, out.Data)
}

func TestExporter_CachesByGeneration(t *testing.T) {
	cache := newMemoryCache()
	e := NewExporter(NewRenderer(1), WithCache(cache, time.Minute))

	first, err := e.Export(context.Background(), "gen-1", testPersona(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"card:gen-1"}, cache.setKeys)
	assert.Equal(t, time.Minute, cache.ttls["card:gen-1"])

	cache.data["card:gen-1"] = []byte("cached")
	second, err := e.Export(context.Background(), "gen-1", testPersona(), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("cached"), second.Data)
	assert.Equal(t, first.Filename, second.Filename)
	assert.Len(t, cache.setKeys, 1)
}

func TestExporter_CacheFailuresDoNotFailExport(t *testing.T) {
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	e := NewExporter(NewRenderer(1), WithCache(cache, 0))

	out, err := e.Export(context.Background(), "gen-1", testPersona(), nil)
	require.NoError(t, err)
	decodePNG(t, out.Data)
	assert.Equal(t, DefaultCacheTTL, e.ttl)
}

func TestExporter_Errors(t *testing.T) {
	e := NewExporter(NewRenderer(1), WithCache(newMemoryCache(), 0))

	_, err := e.Export(context.Background(), "gen-1", nil, nil)
	assert.ErrorIs(t, err, ErrExport)

	_, err = e.Export(context.Background(), "gen-2", testPersona(), &persona.Image{Data: []byte("garbage")})
	assert.ErrorIs(t, err, ErrExport)
}
