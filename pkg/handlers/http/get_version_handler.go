package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/callguard/callguard/pkg/version"
)

type GetVersionHandler struct{}

func NewGetVersionHandler() *GetVersionHandler {
	return &GetVersionHandler{}
}

func (h *GetVersionHandler) Handle(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(version.GetInfo())
}
