package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"bugpersona/pkg/card"
	"bugpersona/pkg/persona"
	"bugpersona/pkg/share"
	"bugpersona/pkg/workflow"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Workflow is the part of the generation workflow the pages drive
type Workflow interface {
	Start(words []string) (<-chan struct{}, error)
	Reset()
	DismissError()
	Snapshot() workflow.Snapshot
}

// Exporter renders the downloadable card
type Exporter interface {
	Export(ctx context.Context, id string, p *persona.Persona, img *persona.Image) (*card.Export, error)
}

type Handler struct {
	workflow             Workflow
	exporter             Exporter
	publicURL            string
	exportFailureMessage string
	logger               *zap.Logger
}

type Options struct {
	// PublicURL overrides the page address used in share links
	PublicURL            string
	ExportFailureMessage string
	Logger               *zap.Logger
}

func NewHandler(wf Workflow, exporter Exporter, opts Options) *Handler {
	h := &Handler{
		workflow:             wf,
		exporter:             exporter,
		publicURL:            opts.PublicURL,
		exportFailureMessage: opts.ExportFailureMessage,
		logger:               opts.Logger,
	}
	if h.exportFailureMessage == "" {
		h.exportFailureMessage = "Não foi possível salvar a imagem. Tente tirar um print!"
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

type GenerateRequest struct {
	Words []string `json:"words" binding:"required"`
}

// StateResponse is the JSON view of the workflow
type StateResponse struct {
	workflow.Snapshot
	HasImage bool         `json:"has_image"`
	ImageURL string       `json:"image_url,omitempty"`
	Share    *share.Links `json:"share,omitempty"`
}

func (h *Handler) Home(c *gin.Context) {
	snap := h.workflow.Snapshot()
	c.HTML(http.StatusOK, "index.html", h.page(c, snap))
}

func (h *Handler) Generate(c *gin.Context) {
	words := c.PostFormArray("word")
	if _, err := h.workflow.Start(words); err != nil {
		h.startError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) Reset(c *gin.Context) {
	h.workflow.Reset()
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) Dismiss(c *gin.Context) {
	h.workflow.DismissError()
	c.Redirect(http.StatusSeeOther, "/")
}

// Illustration serves the generated image of the current persona
func (h *Handler) Illustration(c *gin.Context) {
	snap := h.workflow.Snapshot()
	if snap.Image == nil {
		c.String(http.StatusNotFound, "no illustration")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, snap.Image.MimeType, snap.Image.Data)
}

// DownloadCard exports the finished card as a PNG attachment. Export
// failures are reported without touching the workflow.
func (h *Handler) DownloadCard(c *gin.Context) {
	snap := h.workflow.Snapshot()
	if snap.State != workflow.Done || snap.Persona == nil {
		c.String(http.StatusConflict, "card is not ready")
		return
	}

	export, err := h.exporter.Export(c.Request.Context(), snap.ID, snap.Persona, snap.Image)
	if err != nil {
		h.logger.Error("card download failed", zap.String("id", snap.ID), zap.Error(err))
		c.String(http.StatusInternalServerError, h.exportFailureMessage)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	c.Data(http.StatusOK, "image/png", export.Data)
}

func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.state(c, h.workflow.Snapshot()))
}

func (h *Handler) CreateGeneration(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.workflow.Start(req.Words); err != nil {
		h.startError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, h.state(c, h.workflow.Snapshot()))
}

func (h *Handler) ResetState(c *gin.Context) {
	h.workflow.Reset()
	c.JSON(http.StatusOK, h.state(c, h.workflow.Snapshot()))
}

func (h *Handler) startError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("failed to start generation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) state(c *gin.Context, snap workflow.Snapshot) StateResponse {
	resp := StateResponse{Snapshot: snap, HasImage: snap.HasImage()}
	if snap.Image != nil {
		resp.ImageURL = snap.Image.DataURL()
	}
	if snap.State == workflow.Done && snap.Persona != nil {
		links := share.BuildLinks(snap.Persona, h.pageURL(c))
		resp.Share = &links
	}
	return resp
}

// pageURL is the address shared alongside the persona
func (h *Handler) pageURL(c *gin.Context) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return scheme + "://" + c.Request.Host + "/"
}
