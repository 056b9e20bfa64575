/**
 * @description
 * Engine-error to HTTP response mapping.
 * Callers branch on the stable numeric code in the JSON body, not on text.
 */

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/pricebet-project/backend/internal/betting"
)

func statusForCode(code betting.Code) int {
	switch code {
	case betting.CodeNotInitiated:
		return fiber.StatusServiceUnavailable
	case betting.CodeAlreadyInitiated,
		betting.CodeGameAlreadyExists,
		betting.CodeAlreadyPredicted,
		betting.CodeGameAlreadyExecuted,
		betting.CodePredictionAlreadyClaimed:
		return fiber.StatusConflict
	case betting.CodeGameDoesntExist,
		betting.CodePredictionDoesntExist:
		return fiber.StatusNotFound
	case betting.CodeAssetPriceNotFound,
		betting.CodeAssetPriceIsNotUpdated:
		// Retriable: the feed has not caught up to the target date yet
		return fiber.StatusServiceUnavailable
	case betting.CodeFailedToDeposit,
		betting.CodeFailedToPayHostShare,
		betting.CodeFailedToPayProtocolShare,
		betting.CodeFailedToWithdrawFunds:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusBadRequest
	}
}

// respondError renders an engine error as {error, code} JSON.
func respondError(c *fiber.Ctx, err error) error {
	if errors.Is(err, betting.ErrUnauthorized) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	}

	var engineErr *betting.Error
	if errors.As(err, &engineErr) {
		return c.Status(statusForCode(engineErr.Code)).JSON(fiber.Map{
			"error": engineErr.Name,
			"code":  engineErr.Code,
		})
	}

	if errors.Is(err, betting.ErrInvalidFeeRate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
