package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/adim-imoveis/imovel-certo/internal/api/dto"
	"github.com/adim-imoveis/imovel-certo/internal/auth"
	"github.com/adim-imoveis/imovel-certo/internal/service"
	apperrors "github.com/adim-imoveis/imovel-certo/pkg/util/errorutil"
)

// MissionsHandler handles mission lifecycle and interaction endpoints.
type MissionsHandler struct {
	missions *service.MissionService
}

// NewMissionsHandler constructs handler.
func NewMissionsHandler(missions *service.MissionService) *MissionsHandler {
	return &MissionsHandler{missions: missions}
}

// ListMissions GET /api/missions.
func (h *MissionsHandler) ListMissions(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	filter := service.MissionListFilter{
		Statuses: splitQuery(c, "status"),
		AgentID:  optionalQuery(c, "agent_id"),
		DemandID: optionalQuery(c, "demand_id"),
		Page:     parsePage(c),
	}
	missions, err := h.missions.ListMissions(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": missionResponses(missions)})
}

// CreateMission POST /api/missions.
func (h *MissionsHandler) CreateMission(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateMissionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	mission, err := h.missions.CreateMission(c.UserContext(), principal, service.MissionCreateInput{
		DemandID:          req.DemandID,
		AgentID:           req.AgentID,
		SubArea:           req.SubArea,
		SearchDescription: req.SearchDescription,
		Status:            req.Status,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": missionResponse(mission)})
}

// GetMission GET /api/missions/:id.
func (h *MissionsHandler) GetMission(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	mission, err := h.missions.GetMission(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": missionResponse(mission)})
}

// UpdateMission PUT /api/missions/:id.
func (h *MissionsHandler) UpdateMission(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateMissionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	mission, err := h.missions.UpdateMission(c.UserContext(), principal, c.Params("id"), service.MissionUpdateInput{
		SubArea:           req.SubArea,
		SearchDescription: req.SearchDescription,
		ReturnedAt:        req.ReturnedAt,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": missionResponse(mission)})
}

// UpdateStatus PUT /api/missions/:id/status.
func (h *MissionsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	mission, err := h.missions.UpdateStatus(c.UserContext(), principal, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": missionResponse(mission)})
}

// DeleteMission DELETE /api/missions/:id.
func (h *MissionsHandler) DeleteMission(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.missions.DeleteMission(c.UserContext(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListInteractions GET /api/missions/:id/interactions.
func (h *MissionsHandler) ListInteractions(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	interactions, err := h.missions.ListInteractions(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.InteractionResponse, 0, len(interactions))
	for i := range interactions {
		items = append(items, interactionResponse(&interactions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddInteraction POST /api/missions/:id/interactions.
func (h *MissionsHandler) AddInteraction(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateInteractionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	interaction, err := h.missions.AddInteraction(c.UserContext(), principal, c.Params("id"), req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": interactionResponse(interaction)})
}
