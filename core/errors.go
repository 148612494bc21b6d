package core

import "strconv"

// ErrorCode int
type ErrorCode int

const (
	// ErrUnknown unkown
	ErrUnknown ErrorCode = 100000
	// ErrOperationForbidden operation forbidden
	ErrOperationForbidden ErrorCode = 100001
	// ErrReentrantCall call into a market while one of its operations is in flight
	ErrReentrantCall ErrorCode = 100002
	// ErrArithmeticOverflow value does not fit its field
	ErrArithmeticOverflow ErrorCode = 100003

	// ErrMarketNotFound no market
	ErrMarketNotFound ErrorCode = 100100
	// ErrInvalidAmount invalid amount
	ErrInvalidAmount ErrorCode = 100101
	// ErrInvalidMarketParameters invalid market parameters
	ErrInvalidMarketParameters ErrorCode = 100102
	// ErrNotBorrower caller is not the market borrower
	ErrNotBorrower ErrorCode = 100103
	// ErrNotAdmin caller is not an admin
	ErrNotAdmin ErrorCode = 100104

	// ErrNullMintAmount deposit scales to zero
	ErrNullMintAmount ErrorCode = 100200
	// ErrNullBurnAmount withdrawal scales to zero
	ErrNullBurnAmount ErrorCode = 100201
	// ErrNullTransferAmount transfer scales to zero
	ErrNullTransferAmount ErrorCode = 100202
	// ErrNullRepayAmount repay of zero
	ErrNullRepayAmount ErrorCode = 100203
	// ErrNullWithdrawalAmount nothing left to withdraw
	ErrNullWithdrawalAmount ErrorCode = 100204
	// ErrNullFeeAmount no protocol fees accrued
	ErrNullFeeAmount ErrorCode = 100205
	// ErrMaxSupplyExceeded deposit above the supply ceiling
	ErrMaxSupplyExceeded ErrorCode = 100206
	// ErrInsufficientBalance account balance too low
	ErrInsufficientBalance ErrorCode = 100207

	// ErrDepositToClosedMarket deposit on a closed market
	ErrDepositToClosedMarket ErrorCode = 100300
	// ErrBorrowFromClosedMarket borrow on a closed market
	ErrBorrowFromClosedMarket ErrorCode = 100301
	// ErrRepayToClosedMarket repay on a closed market
	ErrRepayToClosedMarket ErrorCode = 100302
	// ErrMarketAlreadyClosed close called twice
	ErrMarketAlreadyClosed ErrorCode = 100303
	// ErrCapacityChangeOnClosedMarket max supply change on a closed market
	ErrCapacityChangeOnClosedMarket ErrorCode = 100304
	// ErrAprChangeOnClosedMarket rate change on a closed market
	ErrAprChangeOnClosedMarket ErrorCode = 100305
	// ErrCloseMarketWithUnpaidWithdrawals close could not settle every batch
	ErrCloseMarketWithUnpaidWithdrawals ErrorCode = 100306

	// ErrBorrowAmountTooHigh borrow above borrowable assets
	ErrBorrowAmountTooHigh ErrorCode = 100400
	// ErrBorrowWhileSanctioned borrower flagged by the sanctions list
	ErrBorrowWhileSanctioned ErrorCode = 100401
	// ErrInsufficientReservesForFeeWithdrawal no assets free for fees
	ErrInsufficientReservesForFeeWithdrawal ErrorCode = 100402
	// ErrInsufficientReservesForNewLiquidityRatio new reserve ratio would make the market delinquent
	ErrInsufficientReservesForNewLiquidityRatio ErrorCode = 100403
	// ErrProtocolFeeTooHigh protocol fee above cap
	ErrProtocolFeeTooHigh ErrorCode = 100404
	// ErrReserveRatioBipsTooHigh reserve ratio above 100%
	ErrReserveRatioBipsTooHigh ErrorCode = 100405
	// ErrAnnualInterestBipsTooHigh rate above 100%
	ErrAnnualInterestBipsTooHigh ErrorCode = 100406
	// ErrProtocolFeeChangeOnClosedMarket protocol fee change on a closed market
	ErrProtocolFeeChangeOnClosedMarket ErrorCode = 100407

	// ErrWithdrawalBatchNotExpired batch still open
	ErrWithdrawalBatchNotExpired ErrorCode = 100500
	// ErrInvalidArrayLength mismatched batch arguments
	ErrInvalidArrayLength ErrorCode = 100501

	// ErrAccountBlocked sanctioned account
	ErrAccountBlocked ErrorCode = 100600
	// ErrBadLaunchCode block requested for an account that is not sanctioned
	ErrBadLaunchCode ErrorCode = 100601

	// ErrTransferFailed token transfer could not be applied
	ErrTransferFailed ErrorCode = 100700

	// ErrNotApprovedLender hooks: lender not on the allow list
	ErrNotApprovedLender ErrorCode = 100800
	// ErrDepositBelowMinimum hooks: deposit below the configured minimum
	ErrDepositBelowMinimum ErrorCode = 100801
	// ErrTransfersDisabled hooks: market tokens are not transferable
	ErrTransfersDisabled ErrorCode = 100802
	// ErrWithdrawBeforeTermEnd hooks: fixed term not reached
	ErrWithdrawBeforeTermEnd ErrorCode = 100803
	// ErrAnnualInterestBipsOutOfBounds hooks: rate outside the allowed range
	ErrAnnualInterestBipsOutOfBounds ErrorCode = 100804
	// ErrCloseMarketBeforeTermEnd hooks: fixed term not reached
	ErrCloseMarketBeforeTermEnd ErrorCode = 100805
)

var errorMessages = map[ErrorCode]string{
	ErrUnknown:                                  "unknown error",
	ErrOperationForbidden:                       "operation forbidden",
	ErrReentrantCall:                            "reentrant call",
	ErrArithmeticOverflow:                       "arithmetic overflow",
	ErrMarketNotFound:                           "market not found",
	ErrInvalidAmount:                            "invalid amount",
	ErrInvalidMarketParameters:                  "invalid market parameters",
	ErrNotBorrower:                              "caller is not the borrower",
	ErrNotAdmin:                                 "caller is not an admin",
	ErrNullMintAmount:                           "null mint amount",
	ErrNullBurnAmount:                           "null burn amount",
	ErrNullTransferAmount:                       "null transfer amount",
	ErrNullRepayAmount:                          "null repay amount",
	ErrNullWithdrawalAmount:                     "null withdrawal amount",
	ErrNullFeeAmount:                            "null fee amount",
	ErrMaxSupplyExceeded:                        "max supply exceeded",
	ErrInsufficientBalance:                      "insufficient balance",
	ErrDepositToClosedMarket:                    "deposit to closed market",
	ErrBorrowFromClosedMarket:                   "borrow from closed market",
	ErrRepayToClosedMarket:                      "repay to closed market",
	ErrMarketAlreadyClosed:                      "market already closed",
	ErrCapacityChangeOnClosedMarket:             "capacity change on closed market",
	ErrAprChangeOnClosedMarket:                  "apr change on closed market",
	ErrCloseMarketWithUnpaidWithdrawals:         "close market with unpaid withdrawals",
	ErrBorrowAmountTooHigh:                      "borrow amount too high",
	ErrBorrowWhileSanctioned:                    "borrow while sanctioned",
	ErrInsufficientReservesForFeeWithdrawal:     "insufficient reserves for fee withdrawal",
	ErrInsufficientReservesForNewLiquidityRatio: "insufficient reserves for new liquidity ratio",
	ErrProtocolFeeTooHigh:                       "protocol fee too high",
	ErrReserveRatioBipsTooHigh:                  "reserve ratio bips too high",
	ErrAnnualInterestBipsTooHigh:                "annual interest bips too high",
	ErrProtocolFeeChangeOnClosedMarket:          "protocol fee change on closed market",
	ErrWithdrawalBatchNotExpired:                "withdrawal batch not expired",
	ErrInvalidArrayLength:                       "invalid array length",
	ErrAccountBlocked:                           "account blocked",
	ErrBadLaunchCode:                            "account is not sanctioned",
	ErrTransferFailed:                           "transfer failed",
	ErrNotApprovedLender:                        "not approved lender",
	ErrDepositBelowMinimum:                      "deposit below minimum",
	ErrTransfersDisabled:                        "transfers disabled",
	ErrWithdrawBeforeTermEnd:                    "withdraw before term end",
	ErrAnnualInterestBipsOutOfBounds:            "annual interest bips out of bounds",
	ErrCloseMarketBeforeTermEnd:                 "close market before term end",
}

func (e ErrorCode) String() string {
	return strconv.Itoa(int(e))
}

func (e ErrorCode) Error() string {
	if msg, ok := errorMessages[e]; ok {
		return msg
	}

	return e.String()
}
