/**
 * @description
 * Administrative API handlers: one-time initialization, address rotation,
 * release-hash recording. All but Init require the caller to be the
 * configured administrator; Init itself is guarded by being callable once.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/betting
 */

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pricebet-project/backend/internal/api/middleware"
	"github.com/pricebet-project/backend/internal/betting"
)

type AdminHandler struct {
	Engine *betting.Engine
}

func NewAdminHandler(engine *betting.Engine) *AdminHandler {
	return &AdminHandler{Engine: engine}
}

type initRequest struct {
	Admin       string `json:"admin"`
	FeeTaker    string `json:"fee_taker"`
	FeeRate     uint64 `json:"fee_rate"` // scale 10,000,000 = 100%
	PayingAsset string `json:"paying_asset"`
	Oracle      string `json:"oracle"`
}

// Init creates the core configuration. Callable exactly once.
// POST /api/v1/admin/init
func (h *AdminHandler) Init(c *fiber.Ctx) error {
	var req initRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Admin == "" || req.FeeTaker == "" || req.PayingAsset == "" || req.Oracle == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "admin, fee_taker, paying_asset and oracle are required"})
	}

	if err := h.Engine.Init(c.Context(), req.Admin, req.FeeTaker, req.FeeRate, req.PayingAsset, req.Oracle); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "initiated"})
}

type updateAddressRequest struct {
	Target  betting.UpdateTarget `json:"target"` // ADMIN | FEE_TAKER | PAYING_ASSET | ORACLE
	Address string               `json:"address"`
}

// UpdateAddress rotates one core configuration field. Admin only.
// POST /api/v1/admin/address
func (h *AdminHandler) UpdateAddress(c *fiber.Ctx) error {
	caller, err := middleware.GetPlayerAddress(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
	}

	var req updateAddressRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Address == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "address is required"})
	}
	switch req.Target {
	case betting.UpdateAdmin, betting.UpdateFeeTaker, betting.UpdatePayingAsset, betting.UpdateOracle:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown update target"})
	}

	if err := h.Engine.UpdateAddress(c.Context(), caller, req.Target, req.Address); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "updated"})
}

type upgradeRequest struct {
	CodeHash string `json:"code_hash"` // 32-byte hex
}

// Upgrade records the release hash the deployment should run. Admin only.
// POST /api/v1/admin/upgrade
func (h *AdminHandler) Upgrade(c *fiber.Ctx) error {
	caller, err := middleware.GetPlayerAddress(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
	}

	var req upgradeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if _, err := betting.NormalizeGameID(req.CodeHash); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid code hash: " + err.Error()})
	}

	if err := h.Engine.Upgrade(c.Context(), caller, req.CodeHash); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "recorded"})
}
