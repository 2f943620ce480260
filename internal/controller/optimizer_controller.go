package controller

import (
	"errors"
	"net/http"

	"content-optimizer-be/internal/dto"
	"content-optimizer-be/internal/pkg/serverutils"
	"content-optimizer-be/internal/service"
	"content-optimizer-be/pkg/seo"
	"content-optimizer-be/pkg/seo/optimizer"

	"github.com/gofiber/fiber/v2"
)

type IOptimizerController interface {
	RegisterRoutes(r fiber.Router)
	Optimize(ctx *fiber.Ctx) error
	OptimizeAsync(ctx *fiber.Ctx) error
	Validate(ctx *fiber.Ctx) error
	ShowSession(ctx *fiber.Ctx) error
	ShowConfig(ctx *fiber.Ctx) error
	UpdateConfig(ctx *fiber.Ctx) error
	CacheStats(ctx *fiber.Ctx) error
	ListOverrides(ctx *fiber.Ctx) error
	SetOverride(ctx *fiber.Ctx) error
	RemoveOverride(ctx *fiber.Ctx) error
	ListCorrections(ctx *fiber.Ctx) error
}

type optimizerController struct {
	service service.IOptimizerService
}

func NewOptimizerController(service service.IOptimizerService) IOptimizerController {
	return &optimizerController{service: service}
}

func (c *optimizerController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/optimizer/v1")
	h.Post("optimize", c.Optimize)
	h.Post("optimize/async", c.OptimizeAsync)
	h.Post("validate", c.Validate)
	h.Get("sessions/:id", c.ShowSession)
	h.Get("config", c.ShowConfig)
	h.Patch("config", c.UpdateConfig)
	h.Get("cache/stats", c.CacheStats)
	h.Get("overrides", c.ListOverrides)
	h.Put("overrides", c.SetOverride)
	h.Delete("overrides", c.RemoveOverride)
	h.Get("corrections", c.ListCorrections)
}

// StatusFor maps optimizer domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, optimizer.ErrInvalidDocument), errors.Is(err, seo.ErrInvalidConfig),
		errors.Is(err, service.ErrCorrectionOff):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAsyncUnavailable):
		return http.StatusServiceUnavailable
	}
	return 0
}

func (c *optimizerController) Optimize(ctx *fiber.Ctx) error {
	var req dto.OptimizeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Optimize(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success optimize document", res))
}

func (c *optimizerController) OptimizeAsync(ctx *fiber.Ctx) error {
	var req dto.OptimizeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Enqueue(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Optimization queued", res))
}

func (c *optimizerController) Validate(ctx *fiber.Ctx) error {
	var req dto.ValidateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Validate(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success validate document", res))
}

func (c *optimizerController) ShowSession(ctx *fiber.Ctx) error {
	res, err := c.service.GetSession(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *optimizerController) ShowConfig(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success show config", c.service.Config()))
}

func (c *optimizerController) UpdateConfig(ctx *fiber.Ctx) error {
	var patch seo.ConfigPatch
	if err := ctx.BodyParser(&patch); err != nil {
		return err
	}

	res, err := c.service.UpdateConfig(ctx.UserContext(), patch)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update config", res))
}

func (c *optimizerController) CacheStats(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get cache stats", c.service.CacheStats()))
}

func (c *optimizerController) ListOverrides(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success list overrides", c.service.ListOverrides()))
}

func (c *optimizerController) SetOverride(ctx *fiber.Ctx) error {
	var req dto.OverrideRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success set override", c.service.SetOverride(&req)))
}

func (c *optimizerController) RemoveOverride(ctx *fiber.Ctx) error {
	var req dto.DeleteOverrideRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success remove override", c.service.RemoveOverride(&req)))
}

func (c *optimizerController) ListCorrections(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success list corrections", c.service.CorrectionHistory()))
}
