package services

import (
	"errors"
	"fmt"
)

// Stable error codes surfaced to clients in the JSON envelope. Domain errors
// are decided before any mutating statement runs, so the enclosing
// transaction can always be aborted wholesale without compensation.
const (
	CodeInsufficientFunds    = "INSUFFICIENT_FUNDS"
	CodeRecipientNotFound    = "RECIPIENT_NOT_FOUND"
	CodeInsufficientQuantity = "INSUFFICIENT_QUANTITY"
	CodeInvalidTrade         = "INVALID_TRADE"
	CodeTierNotReached       = "TIER_NOT_REACHED"
	CodeBattlePassRequired   = "BATTLE_PASS_REQUIRED"
	CodeAlreadyClaimed       = "ALREADY_CLAIMED"
	CodeAlreadyPurchased     = "ALREADY_PURCHASED"
	CodeItemNotFound         = "ITEM_NOT_FOUND"
	CodeInvalidAmount        = "INVALID_AMOUNT"
)

// DomainError is a typed, user-visible failure. Anything else bubbling out
// of a service is treated as transient and mapped to a generic 500 by the
// handlers; retry policy is left to the caller.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Code + ": " + e.Message
}

// AsDomain unwraps err into a DomainError if one is in the chain
func AsDomain(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func ErrInsufficientFunds(have, need int64) *DomainError {
	return &DomainError{Code: CodeInsufficientFunds, Message: fmt.Sprintf("balance %d is below required %d", have, need)}
}

func ErrRecipientNotFound(competitorID string) *DomainError {
	return &DomainError{Code: CodeRecipientNotFound, Message: fmt.Sprintf("no currency balance for competitor %s", competitorID)}
}

func ErrInsufficientQuantity(itemID string, have, need int64) *DomainError {
	return &DomainError{Code: CodeInsufficientQuantity, Message: fmt.Sprintf("item %s: holding %d, need %d", itemID, have, need)}
}

func ErrInvalidTrade(msg string) *DomainError {
	return &DomainError{Code: CodeInvalidTrade, Message: msg}
}

func ErrTierNotReached(current, requested int) *DomainError {
	return &DomainError{Code: CodeTierNotReached, Message: fmt.Sprintf("at tier %d, reward requires tier %d", current, requested)}
}

func ErrBattlePassRequired(tier int) *DomainError {
	return &DomainError{Code: CodeBattlePassRequired, Message: fmt.Sprintf("tier %d is on the premium track", tier)}
}

func ErrAlreadyClaimed(tier int) *DomainError {
	return &DomainError{Code: CodeAlreadyClaimed, Message: fmt.Sprintf("reward for tier %d was already claimed", tier)}
}

func ErrAlreadyPurchased(seasonID string) *DomainError {
	return &DomainError{Code: CodeAlreadyPurchased, Message: fmt.Sprintf("battle pass for season %s already owned", seasonID)}
}

func ErrItemNotFound(itemID string) *DomainError {
	return &DomainError{Code: CodeItemNotFound, Message: fmt.Sprintf("item %s not found", itemID)}
}

func ErrInvalidAmount(amount int64) *DomainError {
	return &DomainError{Code: CodeInvalidAmount, Message: fmt.Sprintf("amount must be a positive integer, got %d", amount)}
}
