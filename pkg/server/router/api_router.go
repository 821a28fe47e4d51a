package router

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	handlers "github.com/callguard/callguard/pkg/handlers/http"
	"github.com/callguard/callguard/pkg/middleware"
)

var ErrMissingHandler = errors.New("handler transport is incomplete")

type apiRouter struct {
	handlerTransport handlers.HandlerTransport
}

func NewAPIRouter(handlerTransport handlers.HandlerTransport) ServerRouter {
	return &apiRouter{
		handlerTransport: handlerTransport,
	}
}

func (r *apiRouter) BuildRoutes(router *fiber.App) error {
	if r.handlerTransport.AnalyzeCallHandler == nil || r.handlerTransport.GetVersionHandler == nil {
		return ErrMissingHandler
	}

	router.Get("/version", r.handlerTransport.GetVersionHandler.Handle)

	v1 := router.Group("/api/v1")
	{
		v1.Use(middleware.RequestID())

		calls := v1.Group("/calls")
		{
			calls.Post("/analyze", r.handlerTransport.AnalyzeCallHandler.Handle)
		}
	}
	return nil
}
