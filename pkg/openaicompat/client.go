package openaicompat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"bugpersona/pkg/persona"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"
)

const (
	defaultBaseURL    = "https://api.openai.com/v1/"
	defaultTextModel  = "gpt-4o-mini"
	defaultImageModel = "dall-e-3"
	defaultTimeout    = 90 * time.Second
)

var (
	ErrNoContent = errors.New("model returned no content")
	ErrNoImage   = errors.New("model returned no image payload")
)

type Config struct {
	BaseURL    string
	TextModel  string
	ImageModel string
	Timeout    time.Duration
	Logger     *zap.Logger
}

// Client talks to any OpenAI-compatible endpoint. Retries are disabled:
// a failed call is reported as is.
type Client struct {
	client     openai.Client
	textModel  string
	imageModel string
	logger     *zap.Logger
}

func NewClient(apiKey string, cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		client: openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithAPIKey(apiKey),
			option.WithMaxRetries(0),
			option.WithRequestTimeout(timeout),
		),
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		logger:     cfg.Logger,
	}
	if c.textModel == "" {
		c.textModel = defaultTextModel
	}
	if c.imageModel == "" {
		c.imageModel = defaultImageModel
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

const systemPrompt = `Você é um gerador de testes de personalidade satíricos para o mundo de tecnologia e design.
Responda SOMENTE com um objeto JSON com exatamente estes campos, todos obrigatórios:
- "nome" (string): Nome do Bug (engraçado, trocadilho)
- "tipo" (string): Categoria (UI, UX, Lógica, Compliance, etc)
- "comportamento" (string): O que ele faz (2 linhas, humor inteligente)
- "causaRaiz" (string): Motivo técnico/produto realista e trágico
- "impactoTime" (string): Como o time reage (engraçado)
- "patchTemporario" (string): Solução gambiarra absurda ou realista
- "severidade" (inteiro): Nível de caos de 0 a 500
- "logMessage" (string): Mensagem curta de erro estilo console log
- "aparenciaDescricao" (string): Descrição visual detalhada para gerar um personagem em 3D Pixel Art. Inclua cores, acessórios e expressão facial.`

const imageStyle = "3D pixel art character, voxel style, isometric view, high quality, studio lighting, white background. Cute but glitchy. Description: "

func userPrompt(words []string) string {
	return fmt.Sprintf(`Crie um personagem "Bug de Produto" baseado nestas 3 palavras de mood: "%s".
O tom deve ser humor estilo "Capricho" mas para Product Managers, Designers UX/UI e Devs.
Seja irônico, use jargão da área (Figma, Jira, Deploy, CSS, API), mas mantenha leve.
O resultado deve ser em Português do Brasil.`, strings.Join(words, ", "))
}

func (c *Client) GeneratePersona(ctx context.Context, words []string) (*persona.Persona, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.textModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(words)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	c.logger.Debug("chat completion", zap.String("model", c.textModel), zap.Duration("took", time.Since(start)))

	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, ErrNoContent
	}

	p, err := persona.Decode([]byte(resp.Choices[0].Message.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse persona: %w", err)
	}
	return p, nil
}

func (c *Client) GenerateImage(ctx context.Context, appearance string) (*persona.Image, error) {
	params := openai.ImageGenerateParams{
		Prompt: imageStyle + appearance,
		Model:  openai.ImageModel(c.imageModel),
		N:      openai.Int(1),
	}
	// gpt-image models always answer in base64 and reject the parameter
	if strings.HasPrefix(c.imageModel, "dall-e") {
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
	}

	start := time.Now()
	resp, err := c.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	c.logger.Debug("image generation", zap.String("model", c.imageModel), zap.Duration("took", time.Since(start)))

	if resp == nil || len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, ErrNoImage
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base64 payload: %v", ErrNoImage, err)
	}
	return &persona.Image{Data: data, MimeType: "image/png"}, nil
}
