/**
 * @description
 * Game API handlers: create, predict, execute, withdraw, read.
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
	"github.com/pricebet-project/backend/internal/models"
)

type GameHandler struct {
	Engine *betting.Engine
}

func NewGameHandler(engine *betting.Engine) *GameHandler {
	return &GameHandler{Engine: engine}
}

type createGameRequest struct {
	ID          string `json:"id"`
	Host        string `json:"host"`
	Asset       string `json:"asset"`
	Deadline    int64  `json:"deadline"`
	TargetDate  int64  `json:"target_date"`
	TargetPrice uint64 `json:"target_price"`
}

// CreateGame opens a new prediction market
// POST /api/v1/games
func (h *GameHandler) CreateGame(c *fiber.Ctx) error {
	var req createGameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Host == "" || req.Asset == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "host and asset are required"})
	}
	if _, err := betting.NormalizeGameID(req.ID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	game, err := h.Engine.CreateGame(c.Context(), req.ID, req.Host, req.Asset, req.Deadline, req.TargetDate, req.TargetPrice)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(game)
}

type placePredictionRequest struct {
	Side    models.GameResult `json:"side"`
	Deposit uint64            `json:"deposit"`
}

// PlacePrediction stakes the authenticated caller on one side of a game
// POST /api/v1/games/:id/predictions
func (h *GameHandler) PlacePrediction(c *fiber.Ctx) error {
	caller, err := middleware.GetPlayerAddress(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
	}

	var req placePredictionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	prediction, err := h.Engine.PlacePrediction(c.Context(), c.Params("id"), caller, req.Side, req.Deposit)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(prediction)
}

// ExecuteGame resolves a game once its target date has passed
// POST /api/v1/games/:id/execute
func (h *GameHandler) ExecuteGame(c *fiber.Ctx) error {
	game, err := h.Engine.ExecuteGame(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(game)
}

// Withdraw pays out the authenticated caller's winning prediction
// POST /api/v1/games/:id/withdraw
func (h *GameHandler) Withdraw(c *fiber.Ctx) error {
	caller, err := middleware.GetPlayerAddress(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
	}

	amount, err := h.Engine.Withdraw(c.Context(), c.Params("id"), caller)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"withdrawn": amount})
}

// GetGame returns a game by id
// GET /api/v1/games/:id
func (h *GameHandler) GetGame(c *fiber.Ctx) error {
	game, err := h.Engine.GetGame(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(game)
}

// GetPrediction returns one player's prediction on a game
// GET /api/v1/games/:id/predictions/:player
func (h *GameHandler) GetPrediction(c *fiber.Ctx) error {
	prediction, err := h.Engine.GetPrediction(c.Context(), c.Params("id"), c.Params("player"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(prediction)
}
