package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/adim-imoveis/imovel-certo/internal/auth"
	"github.com/adim-imoveis/imovel-certo/internal/service"
)

// ReportsHandler serves read-only rollups.
type ReportsHandler struct {
	reports *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports *service.ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

// Dashboard GET /api/reports/dashboard.
func (h *ReportsHandler) Dashboard(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	summary, err := h.reports.Dashboard(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// Performance GET /api/reports/performance.
func (h *ReportsHandler) Performance(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	rows, err := h.reports.Performance(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": rows})
}

// Regions GET /api/reports/regions.
func (h *ReportsHandler) Regions(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	rows, err := h.reports.RegionSummary(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": rows})
}

// OrphanedDemands GET /api/reports/orphaned-demands.
func (h *ReportsHandler) OrphanedDemands(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	demands, err := h.reports.OrphanedDemands(c.UserContext(), principal, parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": demandResponses(demands)})
}
