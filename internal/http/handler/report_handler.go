package handler

import (
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/service"
	"go.uber.org/zap"
)

// Fixed landing paths of the public report flow
const (
	ReportSentPath    = "/report/sent"
	ReportInvalidPath = "/report/invalid"
)

// ReportHandler serves the anonymous maintenance report form behind a
// property's intake link. No session is involved.
type ReportHandler struct {
	intakeService *service.IntakeService
	logger        *zap.Logger
}

func NewReportHandler(intakeService *service.IntakeService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		intakeService: intakeService,
		logger:        logger,
	}
}

// Form godoc
// @Summary Public report form
// @Description Property name and units for the intake token
// @Tags Report
// @Produce json
// @Param token path string true "Intake token"
// @Success 200 {object} domain.IntakeFormDTO
// @Failure 404 {object} domain.APIError
// @Router /report/{token} [get]
func (h *ReportHandler) Form(w http.ResponseWriter, r *http.Request) {
	form, err := h.intakeService.Form(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		handleServiceError(w, h.logger, err, "load report form")
		return
	}
	respondJSON(w, http.StatusOK, form)
}

// Submit godoc
// @Summary Submit public report
// @Description Files an OPEN ticket and redirects to /report/sent. An unknown token redirects to /report/invalid, a rejected form back to the form with error=validation.
// @Tags Report
// @Accept x-www-form-urlencoded
// @Param token path string true "Intake token"
// @Param unitId formData string false "Unit" format(uuid)
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param name formData string false "Reporter name"
// @Param email formData string false "Reporter email"
// @Param phone formData string false "Reporter phone"
// @Success 303
// @Router /report/{token} [post]
func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	req, err := parseReportForm(r)
	if err == nil {
		err = validate.Struct(req)
	}
	if err != nil {
		h.intakeService.RecordInvalidForm()
		h.logger.Debug("public report rejected", zap.Error(err))
		http.Redirect(w, r, formPath(token)+"?error=validation", http.StatusSeeOther)
		return
	}

	if _, err := h.intakeService.Submit(r.Context(), token, req); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Redirect(w, r, ReportInvalidPath, http.StatusSeeOther)
			return
		}
		handleServiceError(w, h.logger, err, "submit public report")
		return
	}
	http.Redirect(w, r, ReportSentPath, http.StatusSeeOther)
}

// Sent acknowledges a filed report
func (h *ReportHandler) Sent(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "sent",
		"message": "Tack! Din felanmälan är mottagen.",
	})
}

// Invalid is the landing page for unknown or revoked intake links
func (h *ReportHandler) Invalid(w http.ResponseWriter, r *http.Request) {
	respondWithError(w, http.StatusNotFound, "Länken är ogiltig")
}

func formPath(token string) string {
	return "/report/" + url.PathEscape(token)
}

func parseReportForm(r *http.Request) (*domain.PublicTicketRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, err
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, err
	}

	field := func(name string) string {
		return strings.TrimSpace(r.PostFormValue(name))
	}
	req := &domain.PublicTicketRequest{
		Title:       field("title"),
		Description: field("description"),
		Name:        field("name"),
		Email:       field("email"),
		Phone:       field("phone"),
	}
	// an unparseable unit is dropped like a unit from another property
	if raw := field("unitId"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			req.UnitID = &id
		}
	}
	return req, nil
}
