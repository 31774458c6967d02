package share

import (
	"fmt"
	"net/url"
	"strings"

	"bugpersona/pkg/persona"
)

// Links are pre-filled share URLs for a persona
type Links struct {
	Twitter  string `json:"twitter"`
	LinkedIn string `json:"linkedin"`
}

// Text is the message posted along with the page link
func Text(p *persona.Persona) string {
	return fmt.Sprintf("Meu mood de produto hoje virou um Bug: %s (%s)! 🐛\n\n%s\n\nDescubra o seu personagem de design:", p.Name, p.Type, p.Behavior)
}

// BuildLinks formats the Twitter and LinkedIn intents for p pointing at pageURL
func BuildLinks(p *persona.Persona, pageURL string) Links {
	text := Text(p)
	return Links{
		Twitter:  "https://twitter.com/intent/tweet?text=" + encodeComponent(text) + "&url=" + encodeComponent(pageURL),
		LinkedIn: "https://www.linkedin.com/feed/?shareActive=true&text=" + encodeComponent(text+" "+pageURL),
	}
}

// encodeComponent escapes like JavaScript's encodeURIComponent for the
// characters that show up here: spaces become %20, not '+'.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
