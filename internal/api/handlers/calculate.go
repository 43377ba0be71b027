package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/codyseavey/calculator/backend/internal/metrics"
	"github.com/codyseavey/calculator/backend/internal/middleware"
	"github.com/codyseavey/calculator/backend/internal/models"
	"github.com/codyseavey/calculator/backend/internal/services"
)

// ImageChecker decodes and validates raw image bytes.
type ImageChecker interface {
	Validate(data []byte) (*models.DecodedImage, error)
}

// Analyzer extracts expression results from a validated image.
type Analyzer interface {
	Analyze(ctx context.Context, img *models.DecodedImage, vars map[string]any) ([]models.ExpressionResult, error)
}

type CalculateHandler struct {
	validator ImageChecker
	analyzer  Analyzer
}

func NewCalculateHandler(validator ImageChecker, analyzer Analyzer) *CalculateHandler {
	return &CalculateHandler{
		validator: validator,
		analyzer:  analyzer,
	}
}

// Calculate accepts a data-URI image plus variable bindings and returns the
// recognized expressions. Every outcome uses the response envelope.
func (h *CalculateHandler) Calculate(c *gin.Context) {
	reqID := middleware.GetRequestID(c)

	var req models.ImageRequest
	if err := bindImageRequest(c, &req); err != nil {
		log.Printf("[%s] Invalid calculate request body: %v", reqID, err)
		h.fail(c, services.KindInvalidInputShape, http.StatusBadRequest, services.ExpectedImageShape)
		return
	}

	data, err := services.ParseDataURI(req.Image)
	if err != nil {
		h.failWith(c, reqID, err)
		return
	}

	img, err := h.validator.Validate(data)
	if err != nil {
		h.failWith(c, reqID, err)
		return
	}
	defer img.Release()

	log.Printf("[%s] Analyzing %dx%d %s image (%d pixels)", reqID, img.Width, img.Height, img.Format, img.Pixels())

	results, err := h.analyzer.Analyze(c.Request.Context(), img, req.Variables)
	if err != nil {
		h.failWith(c, reqID, err)
		return
	}

	metrics.CalculationsTotal.WithLabelValues(models.StatusSuccess, "").Inc()
	metrics.ExpressionsReturned.Observe(float64(len(results)))
	log.Printf("[%s] Image processed: %d result(s)", reqID, len(results))

	c.JSON(http.StatusOK, models.SuccessEnvelope("Image processed", results))
}

// failWith maps a pipeline error to its status and envelope message. Errors
// outside the taxonomy are reported as internal errors with their cause.
func (h *CalculateHandler) failWith(c *gin.Context, reqID string, err error) {
	kind := services.KindOf(err)
	status := services.StatusForKind(kind)

	var ae *services.AnalysisError
	msg := fmt.Sprintf("Internal server error: %v", err)
	if errors.As(err, &ae) && kind != services.KindInternal {
		msg = ae.Message
	}

	log.Printf("[%s] Calculate failed (%s, %d): %v", reqID, kind, status, err)
	h.fail(c, kind, status, msg)
}

func (h *CalculateHandler) fail(c *gin.Context, kind services.ErrorKind, status int, msg string) {
	metrics.CalculationsTotal.WithLabelValues(models.StatusError, string(kind)).Inc()
	c.JSON(status, models.ErrorEnvelope(msg))
}

// bindImageRequest decodes the body keeping numbers as json.Number, so variable
// bindings reach the prompt exactly as the client wrote them.
func bindImageRequest(c *gin.Context, req *models.ImageRequest) error {
	if c.Request.Body == nil {
		return errors.New("missing request body")
	}
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(req); err != nil {
		return err
	}
	return binding.Validator.ValidateStruct(req)
}
