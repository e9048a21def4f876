package apperrors

import (
	"net/http"
)

/*
Factories and predefined variables for domain errors shared by
several services.
*/

// ErrNotFound converts a repository miss (gorm.ErrRecordNotFound)
// into a 404 AppError.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// ErrExternalService wraps a failed call to Stripe or the LLM
// provider. The upstream error is kept for logs, never for clients.
func ErrExternalService(err error, domain, message string) *AppError {
	return Wrap(err, CodeExternalServiceError, domain, message, http.StatusBadGateway)
}

// InsufficientBalanceDetails is the 402 payload contract.
type InsufficientBalanceDetails struct {
	CreditsNeeded    int `json:"creditsNeeded"`
	CreditsAvailable int `json:"creditsAvailable"`
}

// ErrInsufficientBalance - the credit check failed (402).
func ErrInsufficientBalance(needed, available int) *AppError {
	return New(CodeInsufficientBalance, "ledger", "Insufficient credits", http.StatusPaymentRequired).
		WithDetails(InsufficientBalanceDetails{
			CreditsNeeded:    needed,
			CreditsAvailable: available,
		})
}

// ErrDuplicateEvent - the idempotency key was already applied (409).
// Webhook handlers treat it as a successful no-op.
func ErrDuplicateEvent(sourceEventID string) *AppError {
	return New(CodeDuplicateEvent, "ledger", "Event already applied", http.StatusConflict).
		WithDetails(map[string]string{"sourceEventId": sourceEventID})
}

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)
