package card

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strconv"
	"strings"
	"unicode/utf8"

	"bugpersona/pkg/persona"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// Width is the logical card width before scaling
	Width = 448
	// DefaultScale matches a 2x "retina" export
	DefaultScale = 2

	border     = 4
	padding    = 16
	lineHeight = 15
)

var ErrExport = errors.New("card export failed")

var (
	colorPrimary   = color.NRGBA{0xff, 0x89, 0x06, 0xff}
	colorTertiary  = color.NRGBA{0xe5, 0x31, 0x70, 0xff}
	colorCard      = color.NRGBA{0xff, 0xff, 0xfe, 0xff}
	colorText      = color.NRGBA{0xa7, 0xa9, 0xbe, 0xff}
	colorFrame     = color.NRGBA{0x1f, 0x29, 0x37, 0xff}
	colorDark      = color.NRGBA{0x11, 0x18, 0x27, 0xff}
	colorInk       = color.NRGBA{0x11, 0x18, 0x27, 0xff}
	colorMuted     = color.NRGBA{0x4b, 0x55, 0x63, 0xff}
	colorGrid      = color.NRGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorImpact    = color.NRGBA{0xdc, 0x26, 0x26, 0xff}
	colorPatch     = color.NRGBA{0x25, 0x63, 0xeb, 0xff}
	colorSticker   = color.NRGBA{0xfd, 0xe0, 0x47, 0xff}
	colorShadow    = color.NRGBA{0x00, 0x00, 0x00, 0x80}
	colorBlack     = color.NRGBA{0x00, 0x00, 0x00, 0xff}
	colorWhite     = color.NRGBA{0xff, 0xff, 0xff, 0xff}
	colorNoSignal  = color.NRGBA{0x4b, 0x55, 0x63, 0xff}
	colorLightRed  = color.NRGBA{0xef, 0x44, 0x44, 0xff}
	colorLightGold = color.NRGBA{0xfa, 0xcc, 0x15, 0xff}
)

// Renderer rasterizes a persona card to PNG
type Renderer struct {
	scale int
	face  font.Face
}

func NewRenderer(scale int) *Renderer {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Renderer{
		scale: scale,
		face:  basicfont.Face7x13,
	}
}

// Scale returns the upscaling factor applied to the logical layout
func (r *Renderer) Scale() int {
	return r.scale
}

// Render draws the card. img may be nil, in which case the illustration
// area shows a "NO SIGNAL" placeholder.
func (r *Renderer) Render(p *persona.Persona, img *persona.Image) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: no persona", ErrExport)
	}

	var illustration image.Image
	if img != nil && len(img.Data) > 0 {
		decoded, _, err := image.Decode(bytes.NewReader(img.Data))
		if err != nil {
			return nil, fmt.Errorf("%w: decode illustration: %v", ErrExport, err)
		}
		illustration = decoded
	}

	inner := Width - 2*border
	textWidth := inner - 2*padding
	colWidth := inner/2 - padding - padding/2

	nameLines := r.wrap(strings.ToUpper(p.Name), textWidth/2)
	behaviorLines := r.wrap("\""+p.Behavior+"\"", textWidth)
	impactLines := r.wrap(p.TeamImpact, colWidth)
	patchLines := r.wrap(p.TemporaryPatch, colWidth)

	headerH := padding + 18 + 6 + len(nameLines)*2*lineHeight + padding
	imageH := inner
	behaviorH := 20 + len(behaviorLines)*lineHeight + 20
	gridH := padding + lineHeight + 4 + max(len(impactLines), len(patchLines))*lineHeight + padding
	footerH := 36

	height := border + headerH + border + imageH + border + behaviorH + gridH + border + footerH + border
	canvas := imaging.New(Width, height, colorFrame)

	y := border
	r.drawHeader(canvas, p, nameLines, y, headerH)
	y += headerH
	fill(canvas, image.Rect(border, y, Width-border, y+border), colorDark)
	y += border

	r.drawIllustration(canvas, p, illustration, y, imageH)
	y += imageH
	fill(canvas, image.Rect(border, y, Width-border, y+border), colorDark)
	y += border

	fill(canvas, image.Rect(border, y, Width-border, y+behaviorH), colorCard)
	ty := y + 20
	for _, line := range behaviorLines {
		r.drawText(canvas, line, border+padding, ty, colorInk)
		ty += lineHeight
	}
	y += behaviorH

	r.drawGrid(canvas, impactLines, patchLines, y, gridH)
	y += gridH
	fill(canvas, image.Rect(border, y, Width-border, y+border), colorDark)
	y += border

	fill(canvas, image.Rect(border, y, Width-border, y+footerH), colorDark)
	fy := y + (footerH-lineHeight)/2
	r.drawText(canvas, "SEV: "+strconv.Itoa(p.Severity), border+padding, fy, colorText)
	brand := "DESIGN BUG PERSONA"
	r.drawText(canvas, brand, Width-border-padding-r.measure(brand), fy, colorPrimary)

	out := image.Image(canvas)
	if r.scale > 1 {
		out = imaging.Resize(canvas, Width*r.scale, height*r.scale, imaging.NearestNeighbor)
	}

	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestCompression}
	if err := encoder.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrExport, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawHeader(dst draw.Image, p *persona.Persona, nameLines []string, y, h int) {
	fill(dst, image.Rect(border, y, Width-border, y+h), colorTertiary)

	// type badge
	badge := strings.ToUpper(p.Type)
	bw := r.measure(badge) + 8
	bx, by := border+padding, y+padding
	fill(dst, image.Rect(bx, by, bx+bw, by+18), colorPrimary)
	fill(dst, image.Rect(bx+1, by+1, bx+bw-1, by+17), colorBlack)
	r.drawText(dst, badge, bx+4, by+2, colorPrimary)

	// window dots
	dx := Width - border - padding - 8
	fill(dst, image.Rect(dx-12, by+4, dx-4, by+12), colorLightRed)
	fill(dst, image.Rect(dx, by+4, dx+8, by+12), colorLightGold)

	ny := by + 18 + 6
	for _, line := range nameLines {
		r.drawTextScaled(dst, line, border+padding+1, ny+1, colorBlack, 2)
		r.drawTextScaled(dst, line, border+padding, ny, colorWhite, 2)
		ny += 2 * lineHeight
	}
}

func (r *Renderer) drawIllustration(dst draw.Image, p *persona.Persona, illustration image.Image, y, size int) {
	area := image.Rect(border, y, border+size, y+size)

	if illustration != nil {
		filled := imaging.Fill(illustration, size, size, imaging.Center, imaging.NearestNeighbor)
		draw.Draw(dst, area, filled, image.Point{}, draw.Src)
	} else {
		fill(dst, area, colorDark)
		label := "NO SIGNAL"
		lw := r.measure(label) * 2
		r.drawTextScaled(dst, label, border+(size-lw)/2, y+size/2-lineHeight, colorNoSignal, 2)
	}

	// log sticker over the bottom-left corner
	maxW := size*8/10 - 8
	text := r.truncate("> "+p.LogMessage, maxW)
	sw := r.measure(text) + 8
	sh := lineHeight + 6
	sx := border + padding
	sy := y + size - padding - sh
	fill(dst, image.Rect(sx+4, sy+4, sx+sw+4, sy+sh+4), colorShadow)
	fill(dst, image.Rect(sx, sy, sx+sw, sy+sh), colorBlack)
	fill(dst, image.Rect(sx+2, sy+2, sx+sw-2, sy+sh-2), colorSticker)
	r.drawText(dst, text, sx+4, sy+3, colorBlack)
}

func (r *Renderer) drawGrid(dst draw.Image, impactLines, patchLines []string, y, h int) {
	mid := Width / 2
	fill(dst, image.Rect(border, y, Width-border, y+h), colorGrid)
	fill(dst, image.Rect(mid-1, y, mid+1, y+h), colorMuted)

	columns := []struct {
		x     int
		title string
		ink   color.Color
		lines []string
	}{
		{border + padding, "IMPACTO", colorImpact, impactLines},
		{mid + padding, "PATCH", colorPatch, patchLines},
	}

	for _, col := range columns {
		ty := y + padding
		r.drawText(dst, col.title, col.x, ty, col.ink)
		ty += lineHeight + 4
		for _, line := range col.lines {
			r.drawText(dst, line, col.x, ty, colorInk)
			ty += lineHeight
		}
	}
}

// drawText writes s with its top-left corner at (x, y)
func (r *Renderer) drawText(dst draw.Image, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.P(x, y+r.face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

// drawTextScaled renders s off-screen and pastes it enlarged by factor,
// keeping the pixel font crisp
func (r *Renderer) drawTextScaled(dst draw.Image, s string, x, y int, c color.Color, factor int) {
	w := r.measure(s)
	if w == 0 {
		return
	}
	h := r.face.Metrics().Height.Ceil()
	tmp := image.NewNRGBA(image.Rect(0, 0, w, h))
	r.drawText(tmp, s, 0, 0, c)

	scaled := imaging.Resize(tmp, w*factor, h*factor, imaging.NearestNeighbor)
	draw.Draw(dst, image.Rect(x, y, x+w*factor, y+h*factor), scaled, image.Point{}, draw.Over)
}

func (r *Renderer) measure(s string) int {
	return font.MeasureString(r.face, s).Ceil()
}

// wrap breaks text into lines no wider than maxWidth. Words longer than a
// line are split.
func (r *Renderer) wrap(text string, maxWidth int) []string {
	var lines []string
	var current string

	for _, word := range strings.Fields(text) {
		for r.measure(word) > maxWidth {
			cut := r.fit(word, maxWidth)
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			lines = append(lines, word[:cut])
			word = word[cut:]
		}
		if word == "" {
			continue
		}

		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if r.measure(candidate) <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}

// fit returns the byte length of the longest rune prefix of s that fits
// maxWidth, never less than one rune
func (r *Renderer) fit(s string, maxWidth int) int {
	cut := 0
	for cut < len(s) {
		_, size := utf8.DecodeRuneInString(s[cut:])
		if cut > 0 && r.measure(s[:cut+size]) > maxWidth {
			break
		}
		cut += size
	}
	return cut
}

func (r *Renderer) truncate(s string, maxWidth int) string {
	if r.measure(s) <= maxWidth {
		return s
	}
	const ellipsis = "..."
	return s[:r.fit(s, maxWidth-r.measure(ellipsis))] + ellipsis
}

func fill(dst draw.Image, rect image.Rectangle, c color.Color) {
	draw.Draw(dst, rect, image.NewUniform(c), image.Point{}, draw.Over)
}
