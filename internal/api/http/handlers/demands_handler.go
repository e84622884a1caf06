package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/adim-imoveis/imovel-certo/internal/api/dto"
	"github.com/adim-imoveis/imovel-certo/internal/auth"
	"github.com/adim-imoveis/imovel-certo/internal/service"
	apperrors "github.com/adim-imoveis/imovel-certo/pkg/util/errorutil"
)

// DemandsHandler manages demand intake endpoints.
type DemandsHandler struct {
	intake *service.IntakeService
}

// NewDemandsHandler constructs handler.
func NewDemandsHandler(intake *service.IntakeService) *DemandsHandler {
	return &DemandsHandler{intake: intake}
}

// CreateDemand POST /api/demands.
func (h *DemandsHandler) CreateDemand(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateDemandRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	demand, err := h.intake.SubmitDemand(c.UserContext(), principal, service.DemandInput{
		Code:            req.Code,
		Consultant:      req.Consultant,
		Client:          req.Client,
		Contact:         req.Contact,
		PropertyType:    req.PropertyType,
		DesiredArea:     req.DesiredArea,
		TargetRegion:    req.TargetRegion,
		RentRange:       req.RentRange,
		DesiredFeatures: req.DesiredFeatures,
		Deadline:        req.Deadline,
		Notes:           req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": demandResponse(demand)})
}

// ListDemands GET /api/demands.
func (h *DemandsHandler) ListDemands(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	filter := service.DemandListFilter{
		Region:       optionalQuery(c, "region"),
		OrphanedOnly: c.QueryBool("orphaned", false),
		SearchTerm:   optionalQuery(c, "q"),
		CreatedFrom:  parseTime(c.Query("created_from")),
		CreatedTo:    parseTime(c.Query("created_to")),
		Page:         parsePage(c),
	}
	demands, err := h.intake.ListDemands(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": demandResponses(demands)})
}

// GetDemand GET /api/demands/:id.
func (h *DemandsHandler) GetDemand(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	demand, err := h.intake.GetDemand(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": demandResponse(demand)})
}

// UpdateDemand PUT /api/demands/:id.
func (h *DemandsHandler) UpdateDemand(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateDemandRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	demand, err := h.intake.UpdateDemand(c.UserContext(), principal, c.Params("id"), service.DemandUpdateInput{
		Consultant:      req.Consultant,
		Client:          req.Client,
		Contact:         req.Contact,
		PropertyType:    req.PropertyType,
		DesiredArea:     req.DesiredArea,
		RentRange:       req.RentRange,
		DesiredFeatures: req.DesiredFeatures,
		Deadline:        req.Deadline,
		Notes:           req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": demandResponse(demand)})
}

// SyncMissions POST /api/demands/sync-missions.
func (h *DemandsHandler) SyncMissions(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	result, err := h.intake.SyncMissions(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}
