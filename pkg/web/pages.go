package web

import (
	"embed"
	"html/template"

	"bugpersona/pkg/persona"
	"bugpersona/pkg/share"
	"bugpersona/pkg/workflow"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

var placeholders = []string{"Caos", "Prazo", "Café"}

type wordField struct {
	Value       string
	Placeholder string
}

type pageData struct {
	Snapshot      workflow.Snapshot
	Fields        []wordField
	MaxWordLength int
	Generating    bool
	Done          bool
	Title         string
	Detail        string
	Share         share.Links
}

func loadTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

func (h *Handler) page(c *gin.Context, snap workflow.Snapshot) pageData {
	data := pageData{
		Snapshot:      snap,
		MaxWordLength: persona.MaxWordLength,
	}

	// words stay in the form after a failure
	for i, placeholder := range placeholders {
		field := wordField{Placeholder: placeholder}
		if i < len(snap.Words) {
			field.Value = snap.Words[i]
		}
		data.Fields = append(data.Fields, field)
	}

	switch snap.State {
	case workflow.GeneratingText:
		data.Generating = true
		data.Title = "ANALISANDO JIRA..."
		data.Detail = "Traduzindo o caos em dados estruturados."
	case workflow.GeneratingImage:
		data.Generating = true
		data.Title = "RENDERIZANDO PIXELS..."
		data.Detail = "O designer está ajustando o padding."
	case workflow.Done:
		if snap.Persona != nil {
			data.Done = true
			data.Share = share.BuildLinks(snap.Persona, h.pageURL(c))
		}
	}
	return data
}
