package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/insightdelivered/tutor-portal/internal/auth"
	"github.com/insightdelivered/tutor-portal/internal/parser"
	"github.com/insightdelivered/tutor-portal/internal/portal"
)

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

func (h *Handler) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	token, err := h.Issuer.Login(h.Service, req.Username, req.Password, req.Role)
	switch err {
	case nil:
	case auth.ErrInvalidRole:
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case auth.ErrInvalidCredentials:
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	default:
		return err
	}

	log.Infof("login: %s (%s)", req.Username, req.Role)
	return c.JSON(fiber.Map{"success": true, "token": token, "role": req.Role})
}

func (h *Handler) HandleUploadScholarship(c *fiber.Ctx) error {
	return h.saveProof(c, scholarshipDir)
}

func (h *Handler) HandleUploadActivity(c *fiber.Ctx) error {
	return h.saveProof(c, activityDir)
}

// saveProof stores the "proof" upload as <millis>-<uploaded name> under
// dir and returns its public URL.
func (h *Handler) saveProof(c *fiber.Ctx, dir string) error {
	file, err := c.FormFile("proof")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "File is required")
	}

	name := fmt.Sprintf("%d-%s", h.now().UnixMilli(), filepath.Base(file.Filename))
	dest := filepath.Join(h.PublicDir, dir)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if err := c.SaveFile(file, filepath.Join(dest, name)); err != nil {
		return fmt.Errorf("upload file: %w", err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"filePath": "/" + dir + "/" + name,
		"filename": name,
	})
}

// HandleDownload sends a stored scholarship proof as an attachment.
func (h *Handler) HandleDownload(c *fiber.Ctx) error {
	name := filepath.Base(c.Params("fileName"))
	path := filepath.Join(h.PublicDir, scholarshipDir, name)
	if _, err := os.Stat(path); err != nil {
		return fiber.NewError(fiber.StatusNotFound, "File not found")
	}

	c.Attachment(name)
	return c.SendFile(path)
}

func (h *Handler) HandleListClasses(c *fiber.Ctx) error {
	classes, err := h.Service.ListClasses()
	if err != nil {
		return err
	}
	return c.JSON(classes)
}

func (h *Handler) HandleGetClass(c *fiber.Ctx) error {
	class, err := h.Service.GetClass(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(class)
}

func (h *Handler) HandleCreateClass(c *fiber.Ctx) error {
	var in portal.ClassInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	class, err := h.Service.CreateClass(in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(class)
}

func (h *Handler) HandleUpdateApplication(c *fiber.Ctx) error {
	var in portal.ApplicationDecision
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.Service.UpdateApplicationStatus(c.Params("id"), in); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Application status updated successfully"})
}

// semesterParam returns the "semester" query value, rejecting values that
// cannot be used in a file name.
func semesterParam(c *fiber.Ctx) (string, error) {
	semester := strings.TrimSpace(c.Query("semester"))
	if semester == "" || filepath.Base(semester) != semester || strings.ContainsAny(semester, `/\`) {
		return "", portal.NewValidationError(
			fmt.Errorf("a valid semester query parameter is required"),
			portal.FieldError{Field: "semester", Error: "this field is required"},
		)
	}
	return semester, nil
}

// HandleUploadInternals stores a semester's eligibility report PDF,
// extracts it and records the result on the class.
func (h *Handler) HandleUploadInternals(c *fiber.Ctx) error {
	classID := c.Params("id")
	semester, err := semesterParam(c)
	if err != nil {
		return err
	}
	if _, err := h.Service.GetClass(classID); err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "No file uploaded")
	}

	name := "semester-" + semester + ".pdf"
	dest := filepath.Join(h.PublicDir, internalsDir, filepath.Base(classID))
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	path := filepath.Join(dest, name)
	if err := c.SaveFile(file, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	pages, err := h.decode(path)
	if err != nil {
		return err
	}
	text := strings.Join(pages, "\n")
	if !parser.LooksLikeEligibilityReport(text) {
		log.Warnf("internals upload for class %s semester %s does not look like an eligibility report", classID, semester)
	}

	fileURL := "/" + internalsDir + "/" + filepath.Base(classID) + "/" + name
	record, err := h.Service.AddInternals(classID, semester, fileURL, h.Parser.ParsePages(pages), parser.DetectLayout(text))
	if err != nil {
		return err
	}
	log.Infof("class %s semester %s: %d student(s) extracted", classID, semester, len(record.ExtractedData.Students))

	return c.JSON(fiber.Map{"success": true, "fileUrl": fileURL, "data": record})
}

func (h *Handler) HandleDeleteInternals(c *fiber.Ctx) error {
	semester, err := semesterParam(c)
	if err != nil {
		return err
	}
	if err := h.Service.DeleteInternals(c.Params("id"), semester); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Internal record deleted successfully"})
}

// HandleSearchInternals searches one semester when "semester" is given,
// otherwise every semester of the class.
func (h *Handler) HandleSearchInternals(c *fiber.Ctx) error {
	query := c.Query("q")
	if semester := c.Query("semester"); semester != "" {
		students, err := h.Service.SearchSemester(c.Params("id"), semester, query)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"query": query, "semester": semester, "results": students})
	}

	matches, err := h.Service.SearchStudent(c.Params("id"), query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"query": query, "results": matches})
}

func (h *Handler) HandleSaveActivity(c *fiber.Ctx) error {
	var in portal.ActivityInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	activity, err := h.Service.SaveActivity(in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Activity saved successfully", "activity": activity})
}

func (h *Handler) HandleListActivities(c *fiber.Ctx) error {
	activities, err := h.Service.ListActivities(c.Query("classId"))
	if err != nil {
		return err
	}
	return c.JSON(activities)
}

func (h *Handler) HandleUpdateActivity(c *fiber.Ctx) error {
	var in portal.ActivityDecision
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	activity, err := h.Service.UpdateActivity(c.Params("activityId"), in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Activity updated successfully", "activity": activity})
}
