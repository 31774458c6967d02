package gemini

import (
	"fmt"
	"strings"
)

const systemInstruction = "Você é um gerador de testes de personalidade satíricos para o mundo de tecnologia e design."

const imageStyle = "3D pixel art character, voxel style, isometric view, high quality, studio lighting, white background. Cute but glitchy. Description: "

func personaPrompt(words []string) string {
	return fmt.Sprintf(`Crie um personagem "Bug de Produto" baseado nestas 3 palavras de mood: "%s".
O tom deve ser humor estilo "Capricho" mas para Product Managers, Designers UX/UI e Devs.
Seja irônico, use jargão da área (Figma, Jira, Deploy, CSS, API), mas mantenha leve.
O resultado deve ser em Português do Brasil.`, strings.Join(words, ", "))
}

func imagePrompt(appearance string) string {
	return imageStyle + appearance
}

type schema struct {
	Type             string             `json:"type"`
	Description      string             `json:"description,omitempty"`
	Properties       map[string]*schema `json:"properties,omitempty"`
	Required         []string           `json:"required,omitempty"`
	PropertyOrdering []string           `json:"propertyOrdering,omitempty"`
}

// personaFields lists the response fields in the order the model should emit them
var personaFields = []struct {
	name        string
	kind        string
	description string
}{
	{"nome", "STRING", "Nome do Bug (engraçado, trocadilho)"},
	{"tipo", "STRING", "Categoria (UI, UX, Lógica, Compliance, etc)"},
	{"comportamento", "STRING", "O que ele faz (2 linhas, humor inteligente)"},
	{"causaRaiz", "STRING", "Motivo técnico/produto realista e trágico"},
	{"impactoTime", "STRING", "Como o time reage (engraçado)"},
	{"patchTemporario", "STRING", "Solução gambiarra absurda ou realista"},
	{"severidade", "INTEGER", "Nível de caos de 0 a 500"},
	{"logMessage", "STRING", "Mensagem curta de erro estilo console log"},
	{"aparenciaDescricao", "STRING", "Descrição visual detalhada para gerar um personagem em 3D Pixel Art. Inclua cores, acessórios e expressão facial."},
}

func personaSchema() *schema {
	s := &schema{
		Type:       "OBJECT",
		Properties: make(map[string]*schema, len(personaFields)),
	}
	for _, f := range personaFields {
		s.Properties[f.name] = &schema{Type: f.kind, Description: f.description}
		s.Required = append(s.Required, f.name)
		s.PropertyOrdering = append(s.PropertyOrdering, f.name)
	}
	return s
}
