package api

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/manzanit0/kantomap/cmd/survey/msg"
	"github.com/manzanit0/kantomap/pkg/location"
	"github.com/manzanit0/kantomap/pkg/survey"
)

//go:embed templates/index.html
var templates embed.FS

// flashCookie carries the name of the place just added across the redirect,
// so that a crafted link can't put arbitrary text in the success message.
const flashCookie = "kantomap_flash"

// Tokyo, as in the survey's original map.
const (
	centerLat = 35.6895
	centerLon = 139.6917
	zoom      = 8
)

type SurveyService interface {
	Submit(ctx context.Context, place string) (*location.Record, error)
	Locations(ctx context.Context) ([]location.Record, error)
	Reset(ctx context.Context, password string) error
}

type SurveyController struct {
	service SurveyService
}

func NewSurveyController(s SurveyService) *SurveyController {
	return &SurveyController{service: s}
}

// Register loads the page template into r and mounts every route.
func (h *SurveyController) Register(r *gin.Engine) {
	r.SetHTMLTemplate(template.Must(template.ParseFS(templates, "templates/index.html")))

	r.GET("/", h.Index)
	r.POST("/locations", h.Submit)
	r.POST("/admin/reset", h.Reset)
	r.GET("/api/locations", h.List)
	r.POST("/api/locations", h.Create)
}

type indexPage struct {
	Title              string
	MapHeading         string
	PlaceLabel         string
	SubmitLabel        string
	AdminHeading       string
	AdminPasswordLabel string
	ResetLabel         string
	Flash              *msg.Flash
	CenterLat          float64
	CenterLon          float64
	Zoom               int
	Markers            []location.Record
}

func (h *SurveyController) Index(c *gin.Context) {
	page := indexPage{
		Title:              msg.MsgTitle,
		MapHeading:         msg.MsgMapHeading,
		PlaceLabel:         msg.MsgPlaceLabel,
		SubmitLabel:        msg.MsgSubmit,
		AdminHeading:       msg.MsgAdminHeading,
		AdminPasswordLabel: msg.MsgAdminPassword,
		ResetLabel:         msg.MsgResetButton,
		Flash:              h.flash(c),
		CenterLat:          centerLat,
		CenterLon:          centerLon,
		Zoom:               zoom,
		Markers:            []location.Record{},
	}

	records, err := h.service.Locations(c.Request.Context())
	if err != nil {
		// Still render the form: a broken store shouldn't hide the page.
		slog.ErrorContext(c.Request.Context(), "read locations", "error", err.Error())
		page.Flash = &msg.Flash{Level: "error", Text: msg.MsgLoadFailed}
	} else {
		page.Markers = records
	}

	c.HTML(http.StatusOK, "index.html", page)
}

func (h *SurveyController) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	rec, err := h.service.Submit(ctx, c.PostForm("place"))
	switch {
	case errors.Is(err, survey.ErrEmptyPlace):
		redirectWithStatus(c, msg.StatusEmpty)
	case errors.Is(err, survey.ErrNoMatch):
		redirectWithStatus(c, msg.StatusNotFound)
	case err != nil:
		slog.ErrorContext(ctx, "submit location", "error", err.Error())
		redirectWithStatus(c, msg.StatusFailed)
	default:
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(flashCookie, rec.Place, 60, "/", "", false, true)
		redirectWithStatus(c, msg.StatusAdded)
	}
}

func (h *SurveyController) Reset(c *gin.Context) {
	ctx := c.Request.Context()

	err := h.service.Reset(ctx, c.PostForm("password"))
	switch {
	case errors.Is(err, survey.ErrForbidden):
		redirectWithStatus(c, msg.StatusForbidden)
	case err != nil:
		slog.ErrorContext(ctx, "reset locations", "error", err.Error())
		redirectWithStatus(c, msg.StatusFailed)
	default:
		redirectWithStatus(c, msg.StatusReset)
	}
}

func (h *SurveyController) List(c *gin.Context) {
	records, err := h.service.Locations(c.Request.Context())
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "read locations", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, records)
}

type createRequest struct {
	Place string `json:"place" binding:"required"`
}

func (h *SurveyController) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field 'place'"})
		return
	}

	ctx := c.Request.Context()

	rec, err := h.service.Submit(ctx, req.Place)
	switch {
	case errors.Is(err, survey.ErrEmptyPlace):
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field 'place'"})
	case errors.Is(err, survey.ErrNoMatch):
		c.JSON(http.StatusNotFound, gin.H{"error": "place not found"})
	case err != nil:
		slog.ErrorContext(ctx, "submit location", "error", err.Error())
		c.JSON(http.StatusBadGateway, gin.H{"error": "geocoding failed"})
	default:
		c.JSON(http.StatusCreated, rec)
	}
}

// flash reads the status left by the last redirect. The added message is
// only shown when the flash cookie names the place, and the cookie is
// cleared once read.
func (h *SurveyController) flash(c *gin.Context) *msg.Flash {
	status := c.Query("status")
	if status != msg.StatusAdded {
		return msg.ForStatus(status, "")
	}

	place, err := c.Cookie(flashCookie)
	if err != nil || place == "" {
		return nil
	}

	c.SetCookie(flashCookie, "", -1, "/", "", false, true)
	return msg.ForStatus(status, place)
}

// redirectWithStatus implements post/redirect/get so that reloading the page
// doesn't submit the form again.
func redirectWithStatus(c *gin.Context, status string) {
	params := url.Values{}
	params.Set("status", status)

	c.Redirect(http.StatusSeeOther, "/?"+params.Encode())
}
