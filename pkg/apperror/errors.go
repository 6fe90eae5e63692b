package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
// Message is always one of the fixed user-facing strings below.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (never sent to the client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by code so callers can use errors.Is against a constructor result.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authentication (AUTH) ----

func ErrAuthRequired() *AppError {
	return New("AUTH_001", "Authentication required", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid token", http.StatusUnauthorized)
}

func ErrInvalidCredentials() *AppError {
	return New("AUTH_003", "Invalid credentials", http.StatusUnauthorized)
}

func ErrFaceVerificationRequired() *AppError {
	return New("AUTH_004", "Face authentication failed", http.StatusForbidden)
}

func ErrForbidden() *AppError {
	return New("AUTH_005", "Operation not permitted", http.StatusForbidden)
}

// ---- Resources (RES) ----

func ErrNotFound(entity string) *AppError {
	return New("RES_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Validation (VAL) ----

// Validation returns a generic 400 validation error with the given message.
// Only pass fixed strings here, never err.Error() of an internal failure.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidRequest() *AppError {
	return New("VAL_002", "Invalid request data", http.StatusBadRequest)
}

func ErrPayloadTooLarge() *AppError {
	return New("VAL_003", "Request body too large", http.StatusRequestEntityTooLarge)
}

// ---- Wallet & settlement (WAL) ----

func ErrInsufficientFunds() *AppError {
	return New("WAL_001", "Insufficient balance", http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("WAL_002", "Invalid amount", http.StatusBadRequest)
}

func ErrWalletInactive() *AppError {
	return New("WAL_003", "Wallet is inactive", http.StatusBadRequest)
}

func ErrSelfTransfer() *AppError {
	return New("WAL_004", "Cannot transfer to the same account", http.StatusBadRequest)
}

func ErrUnsupportedSymbol() *AppError {
	return New("WAL_005", "Crypto not supported", http.StatusBadRequest)
}

// ---- Market & orders (MKT) ----

func ErrInvalidSide() *AppError {
	return New("MKT_001", "Invalid order side", http.StatusBadRequest)
}

func ErrInvalidQuantity() *AppError {
	return New("MKT_002", "Invalid quantity", http.StatusBadRequest)
}

func ErrInvalidOrderType() *AppError {
	return New("MKT_003", "Invalid order type", http.StatusBadRequest)
}

func ErrInvalidPrice() *AppError {
	return New("MKT_004", "Invalid limit price", http.StatusBadRequest)
}

func ErrOrderNotCancellable() *AppError {
	return New("MKT_005", "Only pending orders can be cancelled", http.StatusBadRequest)
}

// ---- Transactions (TXN) ----

func ErrTransactionNotCancellable() *AppError {
	return New("TXN_001", "Only pending transactions can be cancelled", http.StatusBadRequest)
}

// ---- Conflicts (CFL) ----

func ErrUserExists() *AppError {
	return New("CFL_001", "Username or email already exists", http.StatusBadRequest)
}

func ErrWalletExists() *AppError {
	return New("CFL_002", "Wallet already exists", http.StatusBadRequest)
}

func ErrMerchantExists() *AppError {
	return New("CFL_003", "Merchant already exists", http.StatusBadRequest)
}

func ErrCartProcessed() *AppError {
	return New("CFL_004", "Cart already processed", http.StatusBadRequest)
}

func ErrMerchantRejectsSymbol() *AppError {
	return New("CFL_005", "Merchant does not accept this crypto", http.StatusBadRequest)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_002", "Encryption service failure", http.StatusInternalServerError, err)
}

func ErrUpstreamUnavailable(err error) *AppError {
	return Wrap("SYS_003", "Upstream service unavailable", http.StatusServiceUnavailable, err)
}
