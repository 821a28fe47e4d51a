package http

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/callguard/callguard/pkg/app/pipeline"
	"github.com/callguard/callguard/pkg/domain/transcript"
	"github.com/callguard/callguard/pkg/handlers/http/response"
	"github.com/callguard/callguard/pkg/infra/audio"
	"github.com/callguard/callguard/pkg/middleware"
)

type AnalyzeCallHandler struct {
	logger    *logrus.Logger
	processor pipeline.Processor
}

type AnalyzeCallHandlerDeps struct {
	Logger    *logrus.Logger
	Processor pipeline.Processor
}

func NewAnalyzeCallHandler(deps AnalyzeCallHandlerDeps) *AnalyzeCallHandler {
	return &AnalyzeCallHandler{
		logger:    deps.Logger,
		processor: deps.Processor,
	}
}

// Handle accepts a multipart request with one audio field and returns the
// analysis payload. Error bodies are {error, details?}; no speech is a 200
// with an error string, matching what the recording UI expects.
func (h *AnalyzeCallHandler) Handle(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file provided",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Failed to open uploaded file",
			"details": err.Error(),
		})
	}
	defer file.Close()

	input, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Failed to read uploaded file",
			"details": err.Error(),
		})
	}

	log := h.logger.WithFields(logrus.Fields{
		"request_id": c.Locals(middleware.RequestIDKey),
		"bytes":      len(input),
	})

	result, err := h.processor.Process(c.UserContext(), input)
	if err != nil {
		if errors.Is(err, audio.ErrNormalization) {
			log.WithError(err).Error("audio normalization failed")
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Failed to normalize audio",
				"details": err.Error(),
			})
		}
		log.WithError(err).Error("failed to process audio")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to process audio",
			"details": err.Error(),
		})
	}

	switch result.Transcript.Outcome {
	case transcript.OutcomeNoMatch:
		log.Info("no speech recognized")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"text":  "",
			"error": "No speech recognized",
		})
	case transcript.OutcomeCanceled:
		log.WithField("reason", result.Transcript.CancelReason).Error("recognition canceled")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"text":  "",
			"error": "Recognition canceled: " + result.Transcript.CancelReason,
		})
	}

	log.WithField("decision", result.Decision.Verdict).Info("clip analyzed")
	return c.Status(fiber.StatusOK).JSON(response.FromPipelineResult(result))
}
