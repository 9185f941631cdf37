package resumes

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gtakpsi-software-dev/resume-app/internal/shared/server/middleware"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches resume routes. authed routes require a valid
// session; delete-all additionally requires the admin role.
func (h *Handler) RegisterRoutes(public, authed *gin.RouterGroup) {
	public.GET("/resumes", h.search)
	public.GET("/resumes/filters", h.filters)
	public.GET("/resumes/:id", h.get)

	authed.POST("/resumes", h.upload)
	authed.PUT("/resumes/:id", h.update)
	authed.DELETE("/resumes/:id", h.remove)
	authed.DELETE("/resumes", middleware.RequireAdmin(), h.removeAll)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "No resume file was provided.", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Unable to read the uploaded file.", nil)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Unable to read the uploaded file.", nil)
		return
	}

	uploadedBy := middleware.SubjectFromContext(c)

	rec, err := h.Svc.Ingest(c.Request.Context(), UploadInput{
		FileName:       fileHeader.Filename,
		Data:           data,
		Name:           c.PostForm("name"),
		Major:          c.PostForm("major"),
		GraduationYear: c.PostForm("graduationYear"),
		Companies:      c.PostForm("companies"),
		Keywords:       c.PostForm("keywords"),
		UploadedBy:     uploadedBy,
	})
	if err != nil {
		var clientErr *ClientInputError
		if errors.As(err, &clientErr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", clientErr.Message, nil)
			return
		}
		var pipeErr *PipelineError
		if errors.As(err, &pipeErr) {
			respond.Error(c, http.StatusInternalServerError, "upload_failed", pipeErr.Message, gin.H{
				"step":   pipeErr.Step,
				"detail": pipeErr.Err.Error(),
			})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "upload_failed", "Unexpected error while uploading the resume.", err.Error())
		return
	}

	message := "Resume uploaded successfully."
	if rec.ParsingWarning != "" {
		message = "Resume uploaded, but automatic parsing was incomplete."
	}
	respond.JSON(c, http.StatusCreated, envelope{
		Message: message,
		Data:    toResponse(rec, ""),
	})
}

func (h *Handler) search(c *gin.Context) {
	filter := SearchFilter{
		Query:          c.Query("query"),
		Name:           c.Query("name"),
		Major:          c.Query("major"),
		GraduationYear: c.Query("graduationYear"),
		Companies:      splitQueryList(c.Query("company")),
		Keywords:       splitQueryList(c.Query("keyword")),
	}

	results, err := h.Svc.Search(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "search_failed", "Failed to search resumes.", err.Error())
		return
	}

	payload := make([]resumeResponse, 0, len(results))
	for _, res := range results {
		payload = append(payload, toResponse(res.Resume, res.PdfURL))
	}
	count := len(payload)
	respond.OK(c, envelope{Data: payload, Count: &count})
}

func (h *Handler) filters(c *gin.Context) {
	opts, err := h.Svc.Filters(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "filters_failed", "Failed to load filter options.", err.Error())
		return
	}
	respond.OK(c, envelope{Data: filtersResponse{
		Majors:          opts.Majors,
		GraduationYears: opts.GraduationYears,
		Companies:       opts.Companies,
		Keywords:        opts.Keywords,
	}})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := resumeID(c)
	if !ok {
		return
	}
	res, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "Resume not found.", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "get_failed", "Failed to load the resume.", err.Error())
		return
	}
	respond.OK(c, envelope{Data: toResponse(res.Resume, res.PdfURL)})
}

type updateRequest struct {
	Name           string `json:"name"`
	Major          string `json:"major"`
	GraduationYear string `json:"graduationYear"`
	Companies      string `json:"companies"`
	Keywords       string `json:"keywords"`
}

func (h *Handler) update(c *gin.Context) {
	id, ok := resumeID(c)
	if !ok {
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid request body.", nil)
		return
	}

	rec, err := h.Svc.Update(c.Request.Context(), id, UpdateInput{
		Name:           req.Name,
		Major:          req.Major,
		GraduationYear: req.GraduationYear,
		Companies:      req.Companies,
		Keywords:       req.Keywords,
	})
	if err != nil {
		var clientErr *ClientInputError
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "Resume not found.", nil)
		case errors.As(err, &clientErr):
			respond.Error(c, http.StatusBadRequest, "validation_error", clientErr.Message, nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "update_failed", "Failed to update the resume.", err.Error())
		}
		return
	}
	respond.OK(c, envelope{Message: "Resume updated successfully.", Data: toResponse(rec, "")})
}

func (h *Handler) remove(c *gin.Context) {
	id, ok := resumeID(c)
	if !ok {
		return
	}
	if err := h.Svc.SoftDelete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "Resume not found.", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "delete_failed", "Failed to delete the resume.", err.Error())
		return
	}
	respond.OK(c, envelope{Message: "Resume deleted successfully."})
}

func (h *Handler) removeAll(c *gin.Context) {
	count, err := h.Svc.DeleteAll(c.Request.Context())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "No active resumes to delete.", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "delete_failed", "Failed to delete resumes.", err.Error())
		return
	}
	respond.OK(c, envelope{Message: "All resumes deleted.", Count: &count})
}

func resumeID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := uuid.Parse(id); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid resume ID.", nil)
		return "", false
	}
	return id, true
}

func splitQueryList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
