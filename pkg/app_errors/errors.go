package apperrors

import "errors"

// Kind 錯誤分類，對外回傳的穩定代碼
type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindConflict     Kind = "CONFLICT"
	KindValidation   Kind = "VALIDATION_ERROR"
	KindUpstream     Kind = "UPSTREAM_ERROR"
	KindInternal     Kind = "INTERNAL_ERROR"
)

// Error is a classified application error. Sentinels below are compared with errors.Is.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrEventNotFound   = newError(KindNotFound, "event not found")
	ErrTicketNotFound  = newError(KindNotFound, "ticket not found")
	ErrUserNotFound    = newError(KindNotFound, "user not found")
	ErrWebinarNotFound = newError(KindNotFound, "webinar not found")

	ErrUnauthorized = newError(KindUnauthorized, "not authenticated")
	ErrInvalidToken = newError(KindUnauthorized, "invalid or expired token")

	ErrForbidden = newError(KindForbidden, "not authorized to perform this action")

	ErrEventNotAvailable       = newError(KindConflict, "event is not available for purchase")
	ErrEventSoldOut            = newError(KindConflict, "event is sold out")
	ErrTicketNotActive         = newError(KindConflict, "ticket is already used or cancelled")
	ErrInvalidStatusTransition = newError(KindConflict, "invalid status transition")
	ErrEventHasTickets         = newError(KindConflict, "event already has sold tickets")
	ErrCapacityBelowSold       = newError(KindConflict, "capacity cannot be lower than sold tickets")

	ErrInvalidInput           = newError(KindValidation, "invalid input")
	ErrPriceLocked            = newError(KindValidation, "ticket price can only change while the event is a draft")
	ErrProviderNotLinked      = newError(KindValidation, "video provider account is not linked")
	ErrUpstream               = newError(KindUpstream, "video provider request failed")
	ErrInternalServerError    = newError(KindInternal, "internal server error")
	ErrDuplicateTicketCode    = newError(KindInternal, "duplicate ticket code")
	ErrInventoryNotWarmed     = newError(KindInternal, "inventory not warmed")
	ErrReservationNotReserved = newError(KindInternal, "reservation is no longer reserved")
)

// KindOf 取得錯誤分類，未分類的錯誤一律視為 INTERNAL_ERROR
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message of err.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ErrInternalServerError.Message
}
