package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/adim-imoveis/imovel-certo/internal/api/dto"
	"github.com/adim-imoveis/imovel-certo/internal/auth"
	"github.com/adim-imoveis/imovel-certo/internal/service"
	apperrors "github.com/adim-imoveis/imovel-certo/pkg/util/errorutil"
)

// RegionsHandler exposes the region catalog.
type RegionsHandler struct {
	regions *service.RegionService
}

// NewRegionsHandler constructs handler.
func NewRegionsHandler(regions *service.RegionService) *RegionsHandler {
	return &RegionsHandler{regions: regions}
}

// ListRegions GET /api/regions.
func (h *RegionsHandler) ListRegions(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	regions, err := h.regions.List(c.UserContext(), principal)
	if err != nil {
		return err
	}
	items := make([]dto.RegionResponse, 0, len(regions))
	for i := range regions {
		items = append(items, regionResponse(&regions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpsertRegion PUT /api/regions/:key.
func (h *RegionsHandler) UpsertRegion(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpsertRegionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	region, err := h.regions.Upsert(c.UserContext(), principal, c.Params("key"), service.RegionUpsertInput{
		ManagerID: req.ManagerID,
		Active:    req.Active,
		Settings:  req.Settings,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": regionResponse(region)})
}
