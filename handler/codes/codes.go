package codes

import (
	"errors"
	"strconv"

	"lending/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/twitchtv/twirp"
)

const (
	// CustomCodeKey code key
	CustomCodeKey = "custom_code"

	// InvalidArguments invalid arguments
	InvalidArguments = 100001
)

// With with specified error
func With(err error, code int) error {
	twerr, ok := err.(twirp.Error)
	if !ok {
		twerr = twirp.InternalErrorWith(err)
	}

	return twerr.WithMeta(CustomCodeKey, strconv.Itoa(code))
}

// Get get error code
func Get(code twirp.ErrorCode) int {
	switch code {
	case twirp.InvalidArgument:
		return InvalidArguments
	default:
		return twirp.ServerHTTPStatusFromErrorCode(code)
	}
}

// FromError converts a market error into a twirp error carrying its
// numeric code. Errors without a code become internal errors.
func FromError(err error) twirp.Error {
	if twerr, ok := err.(twirp.Error); ok {
		return twerr
	}

	if errors.Is(err, db.ErrOptimisticLock) {
		return twirp.NewError(twirp.Aborted, err.Error())
	}

	var code core.ErrorCode
	if !errors.As(err, &code) {
		return twirp.InternalErrorWith(err)
	}

	twerr := twirp.NewError(twirpCode(code), err.Error())
	return twerr.WithMeta(CustomCodeKey, code.String())
}

func twirpCode(code core.ErrorCode) twirp.ErrorCode {
	switch code {
	case core.ErrMarketNotFound:
		return twirp.NotFound
	case core.ErrInvalidAmount, core.ErrInvalidMarketParameters, core.ErrInvalidArrayLength,
		core.ErrProtocolFeeTooHigh, core.ErrReserveRatioBipsTooHigh, core.ErrAnnualInterestBipsTooHigh,
		core.ErrAnnualInterestBipsOutOfBounds:
		return twirp.InvalidArgument
	case core.ErrNotBorrower, core.ErrNotAdmin, core.ErrOperationForbidden,
		core.ErrAccountBlocked, core.ErrBorrowWhileSanctioned, core.ErrNotApprovedLender:
		return twirp.PermissionDenied
	case core.ErrArithmeticOverflow:
		return twirp.OutOfRange
	case core.ErrReentrantCall:
		return twirp.Aborted
	case core.ErrUnknown:
		return twirp.Internal
	default:
		return twirp.FailedPrecondition
	}
}
