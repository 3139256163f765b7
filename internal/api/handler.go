package api

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/insightdelivered/tutor-portal/internal/auth"
	"github.com/insightdelivered/tutor-portal/internal/extractor"
	"github.com/insightdelivered/tutor-portal/internal/models"
	"github.com/insightdelivered/tutor-portal/internal/parser"
	"github.com/insightdelivered/tutor-portal/internal/portal"
	"github.com/insightdelivered/tutor-portal/internal/writer"
)

// Upload directories under PublicDir, also the URL prefixes they are
// served from.
const (
	scholarshipDir = "scholarship-pdfs"
	activityDir    = "activity-uploads"
	internalsDir   = "internals-pdfs"
)

// ExtractResponse is the JSON response from the /api/extract endpoint.
type ExtractResponse struct {
	Success    bool                     `json:"success"`
	Layout     models.Layout            `json:"layout"`
	Report     *models.ExtractionReport `json:"report"`
	Count      int                      `json:"count"`
	Warning    string                   `json:"warning,omitempty"`
	Version    string                   `json:"version,omitempty"`
	DebugLines []models.DebugLine       `json:"debugLines,omitempty"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Service   *portal.Service
	Issuer    *auth.Issuer
	Extractor *extractor.Extractor
	Parser    *parser.EligibilityParser
	PublicDir string
	Version   string

	now func() time.Time
}

// NewApp returns a fiber app with the middleware stack and every route
// registered.
func NewApp(h *Handler, maxUploadMB int) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    maxUploadMB << 20,
		ErrorHandler: ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	if h.Extractor == nil {
		h.Extractor = extractor.Default
	}
	if h.Parser == nil {
		h.Parser = parser.NewEligibilityParser()
	}
	if h.now == nil {
		h.now = time.Now
	}

	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/extract", h.HandleExtract)

	app.Post("/login", h.HandleLogin)
	app.Post("/upload", h.HandleUploadScholarship)
	app.Post("/upload-activity", h.HandleUploadActivity)
	app.Get("/download/:fileName", h.Issuer.Middleware(), h.HandleDownload)

	app.Get("/classes", h.HandleListClasses)
	app.Post("/classes", h.HandleCreateClass)
	app.Get("/classes/:id", h.HandleGetClass)
	app.Put("/classes/:id", h.HandleUpdateApplication)
	app.Post("/classes/:id/internals/upload", h.HandleUploadInternals)
	app.Delete("/classes/:id/internals", h.HandleDeleteInternals)
	app.Get("/classes/:id/internals/search", h.HandleSearchInternals)

	app.Post("/save-activity", h.HandleSaveActivity)
	app.Get("/activity-points", h.HandleListActivities)
	app.Put("/activity-points/:activityId", h.HandleUpdateActivity)

	if h.PublicDir != "" {
		for _, dir := range []string{scholarshipDir, activityDir, internalsDir} {
			app.Static("/"+dir, filepath.Join(h.PublicDir, dir))
		}
	}
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": h.Version,
		"engine":  "fiber",
	})
}

// HandleExtract parses report text posted as the "text" field (form or
// JSON) or extracted from an uploaded PDF in the "file" field.
func (h *Handler) HandleExtract(c *fiber.Ctx) error {
	pages, err := h.requestPages(c)
	if err != nil {
		return err
	}
	text := strings.Join(pages, "\n")
	if strings.TrimSpace(text) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "No report provided. Use form field 'text' or 'file'.")
	}

	resp := ExtractResponse{
		Success: true,
		Layout:  parser.DetectLayout(text),
		Version: h.Version,
	}
	if !parser.LooksLikeEligibilityReport(text) {
		resp.Warning = "input does not look like an exam eligibility report"
		log.Warnf("extract: %s", resp.Warning)
	}

	if c.QueryBool("debug") {
		resp.Report, resp.DebugLines = h.Parser.ParseWithTrace(text)
	} else {
		resp.Report = h.Parser.ParsePages(pages)
	}
	resp.Count = len(resp.Report.Students)

	if strings.EqualFold(c.Query("format"), "csv") {
		var buf bytes.Buffer
		w := &writer.CSVWriter{IncludeHeader: c.Query("header") != "false"}
		if err := w.Write(&buf, resp.Report); err != nil {
			return fmt.Errorf("CSV generation failed: %w", err)
		}
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		return c.Send(buf.Bytes())
	}

	return c.JSON(resp)
}

// requestPages returns the decoded pages of an uploaded PDF, or the posted
// text as a single page.
func (h *Handler) requestPages(c *fiber.Ctx) ([]string, error) {
	if file, err := c.FormFile("file"); err == nil {
		if !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Only PDF files are supported.")
		}

		tmp, err := os.CreateTemp("", "report-*.pdf")
		if err != nil {
			return nil, fmt.Errorf("create temp file: %w", err)
		}
		tmp.Close()
		defer os.Remove(tmp.Name())

		if err := c.SaveFile(file, tmp.Name()); err != nil {
			return nil, fmt.Errorf("save uploaded file: %w", err)
		}
		return h.decode(tmp.Name())
	}

	if c.Is("json") {
		var body struct {
			Text string `json:"text"`
		}
		if err := c.BodyParser(&body); err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body")
		}
		return []string{body.Text}, nil
	}
	return []string{c.FormValue("text")}, nil
}

// decode extracts the page texts of a stored PDF, mapping failures to 422.
func (h *Handler) decode(path string) ([]string, error) {
	pages, err := h.Extractor.ExtractText(path)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, fmt.Sprintf("PDF extraction failed: %v", err))
	}
	return pages, nil
}
