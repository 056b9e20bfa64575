/**
 * @description
 * Stable, numbered error enumeration for the betting engine.
 * Callers branch on error identity (errors.Is) or on the numeric code,
 * never on message text. The numbering is part of the public contract.
 */

package betting

import (
	"errors"
	"fmt"
)

// Code is the stable numeric identity of an engine error.
type Code uint32

const (
	CodeAlreadyInitiated         Code = 0
	CodeNotInitiated             Code = 1
	CodeInvalidAsset             Code = 2
	CodeGameAlreadyExists        Code = 3
	CodeInvalidDeadline          Code = 4
	CodeInvalidTargetDate        Code = 5
	CodeGameDoesntExist          Code = 6
	CodeGameDeadlineReached      Code = 7
	CodeAlreadyPredicted         Code = 8
	CodeInvalidPredictionResult  Code = 9
	CodeInvalidPredictionAmount  Code = 10
	CodeGameHasNotBeenExecuted   Code = 11
	CodePredictionDoesntExist    Code = 12
	CodePredictionWasIncorrect   Code = 13
	CodePredictionAlreadyClaimed Code = 14
	CodeFailedToWithdrawFunds    Code = 15
	CodeFailedToPayHostShare     Code = 16
	CodeFailedToPayProtocolShare Code = 17
	CodeAssetPriceNotFound       Code = 18
	CodeGameCantBeExecuted       Code = 19
	CodeAssetPriceIsNotUpdated   Code = 20
	CodeFailedToDeposit          Code = 21
	CodeGameAlreadyExecuted      Code = 22
)

// Error is an engine error carrying its stable code.
type Error struct {
	Code Code
	Name string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Name, e.Code)
}

// Is matches any *Error with the same code, so wrapped returns of the
// sentinel values below still compare with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

func newError(code Code, name string) *Error {
	return &Error{Code: code, Name: name}
}

var (
	ErrAlreadyInitiated         = newError(CodeAlreadyInitiated, "already initiated")
	ErrNotInitiated             = newError(CodeNotInitiated, "not initiated")
	ErrInvalidAsset             = newError(CodeInvalidAsset, "invalid asset")
	ErrGameAlreadyExists        = newError(CodeGameAlreadyExists, "game already exists")
	ErrInvalidDeadline          = newError(CodeInvalidDeadline, "invalid deadline")
	ErrInvalidTargetDate        = newError(CodeInvalidTargetDate, "invalid target date")
	ErrGameDoesntExist          = newError(CodeGameDoesntExist, "game doesn't exist")
	ErrGameDeadlineReached      = newError(CodeGameDeadlineReached, "game deadline reached")
	ErrAlreadyPredicted         = newError(CodeAlreadyPredicted, "already predicted")
	ErrInvalidPredictionResult  = newError(CodeInvalidPredictionResult, "invalid prediction result")
	ErrInvalidPredictionAmount  = newError(CodeInvalidPredictionAmount, "invalid prediction amount")
	ErrGameHasNotBeenExecuted   = newError(CodeGameHasNotBeenExecuted, "game has not been executed")
	ErrPredictionDoesntExist    = newError(CodePredictionDoesntExist, "prediction doesn't exist")
	ErrPredictionWasIncorrect   = newError(CodePredictionWasIncorrect, "prediction was incorrect")
	ErrPredictionAlreadyClaimed = newError(CodePredictionAlreadyClaimed, "prediction already claimed")
	ErrFailedToWithdrawFunds    = newError(CodeFailedToWithdrawFunds, "failed to withdraw funds")
	ErrFailedToPayHostShare     = newError(CodeFailedToPayHostShare, "failed to pay host share")
	ErrFailedToPayProtocolShare = newError(CodeFailedToPayProtocolShare, "failed to pay protocol share")
	ErrAssetPriceNotFound       = newError(CodeAssetPriceNotFound, "asset price not found")
	ErrGameCantBeExecuted       = newError(CodeGameCantBeExecuted, "game can't be executed")
	ErrAssetPriceIsNotUpdated   = newError(CodeAssetPriceIsNotUpdated, "asset price is not updated")
	ErrFailedToDeposit          = newError(CodeFailedToDeposit, "failed to deposit")
	ErrGameAlreadyExecuted      = newError(CodeGameAlreadyExecuted, "game already executed")
)

// ErrUnauthorized is an authorization failure: the caller failed to prove the
// identity an operation requires. It is not part of the numbered enumeration;
// it aborts before any engine logic runs.
var ErrUnauthorized = errors.New("caller is not authorized")

// ErrInvalidFeeRate rejects Init with a fee rate above 100% (the fixed-point
// scale). Also outside the numbered enumeration.
var ErrInvalidFeeRate = errors.New("fee rate exceeds scale")

// ErrConflict is returned by Ledger implementations when an insert loses a
// uniqueness race. The engine maps it to the matching precondition error.
var ErrConflict = errors.New("ledger: conflicting write")

// CodeOf extracts the stable code from an engine error.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}
