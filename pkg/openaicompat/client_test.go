package openaicompat

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bugpersona/pkg/persona"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personaJSON = `{"nome":"Bug do Café","tipo":"UX","comportamento":"Trava quando o café acaba.","causaRaiz":"Cafeteira sem SLA","impactoTime":"Sprint em pausa","patchTemporario":"Chá","severidade":320,"logMessage":"E_NO_COFFEE","aparenciaDescricao":"Xícara pixelada"}`

func chatCompletion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", Config{BaseURL: srv.URL})
}

func TestGeneratePersona(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])
		format, _ := body["response_format"].(map[string]any)
		assert.Equal(t, "json_object", format["type"])

		messages, _ := body["messages"].([]any)
		require.Len(t, messages, 2)
		user, _ := messages[1].(map[string]any)
		assert.Contains(t, user["content"], `"Caos, Prazo, Café"`)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(personaJSON))
	})

	p, err := client.GeneratePersona(context.Background(), []string{"Caos", "Prazo", "Café"})
	require.NoError(t, err)
	assert.Equal(t, "Bug do Café", p.Name)
	assert.Equal(t, 320, p.Severity)
}

func TestGeneratePersona_Malformed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`{"nome":"incompleto"}`))
	})

	_, err := client.GeneratePersona(context.Background(), []string{"a", "b", "c"})
	assert.ErrorIs(t, err, persona.ErrMalformed)
}

func TestGeneratePersona_EmptyContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(""))
	})

	_, err := client.GeneratePersona(context.Background(), []string{"a", "b", "c"})
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestGeneratePersona_NoRetryOnServerError(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	})

	_, err := client.GeneratePersona(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestGenerateImage(t *testing.T) {
	payload := []byte("fake-png-bytes")
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "dall-e-3", body["model"])
		assert.Equal(t, "b64_json", body["response_format"])
		assert.Contains(t, body["prompt"], "Description: Xícara pixelada")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"created": 1700000000,
			"data":    []map[string]any{{"b64_json": base64.StdEncoding.EncodeToString(payload)}},
		})
	})

	img, err := client.GenerateImage(context.Background(), "Xícara pixelada")
	require.NoError(t, err)
	assert.Equal(t, payload, img.Data)
	assert.Equal(t, "image/png", img.MimeType)
}

func TestGenerateImage_NoPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"created": 1700000000,
			"data":    []map[string]any{{"url": "https://example.com/x.png"}},
		})
	})

	img, err := client.GenerateImage(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNoImage)
	assert.Nil(t, img)
}
