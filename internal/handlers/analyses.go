package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/video-sentiment/internal/storage"
)

const maxExportRows = 1000

// AnalysesHandler serves the analysis history
type AnalysesHandler struct {
	store AnalysisStore
}

// NewAnalysesHandler creates a new history handler
func NewAnalysesHandler(store AnalysisStore) *AnalysesHandler {
	return &AnalysesHandler{store: store}
}

// List returns the newest analyses, ?limit= bounded
func (h *AnalysesHandler) List(c *fiber.Ctx) error {
	analyses, err := h.store.ListAnalyses(c.QueryInt("limit", 50))
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error(), "ERR_INTERNAL")
	}
	return c.JSON(fiber.Map{"analyses": analyses})
}

// Get returns one analysis
func (h *AnalysesHandler) Get(c *fiber.Ctx) error {
	a, err := h.store.GetAnalysis(c.Params("id"))
	if errors.Is(err, storage.ErrNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "Analysis not found", "ERR_NOT_FOUND")
	}
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error(), "ERR_INTERNAL")
	}
	return c.JSON(a)
}

// Export downloads the history as a spreadsheet
func (h *AnalysesHandler) Export(c *fiber.Ctx) error {
	analyses, err := h.store.ListAnalyses(maxExportRows)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error(), "ERR_INTERNAL")
	}

	var buf bytes.Buffer
	if err := storage.WriteXLSX(&buf, analyses); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error(), "ERR_EXPORT_FAILED")
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="analyses_%s.xlsx"`, time.Now().Format("20060102_150405")))
	return c.Send(buf.Bytes())
}
