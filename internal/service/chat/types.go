package chat

import "tourchat-backend/internal/model"

type ErrorCode string

const (
	ErrorCodeValidation   ErrorCode = "validation_error"
	ErrorCodeUnauthorized ErrorCode = "unauthorized"
	ErrorCodeForbidden    ErrorCode = "forbidden"
	ErrorCodeNotFound     ErrorCode = "not_found"
	ErrorCodeConflict     ErrorCode = "conflict"
	ErrorCodeUnavailable  ErrorCode = "unavailable"
	ErrorCodeInternal     ErrorCode = "internal_error"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Identity is the authenticated caller as handed over by the auth
// collaborator. It is bound to the request or connection, never read
// from a request body.
type Identity struct {
	UserID string
	Name   string
	Email  string
	Role   string
}

func (i Identity) IsStaff() bool {
	return i.Role == model.RoleStaff
}

type PostMessageResult struct {
	Message      model.MessageItem
	Conversation model.ConversationItem
}

type ListMessagesResult struct {
	Conversation model.ConversationItem
	Messages     []model.MessageItem
}

// ConversationSummary annotates a conversation for the staff dashboard.
type ConversationSummary struct {
	Conversation model.ConversationItem
	MessageCount int
	UnreadCount  int
}

type StatusFilter string

const (
	StatusFilterActive   StatusFilter = "active"
	StatusFilterInactive StatusFilter = "inactive"
	StatusFilterAll      StatusFilter = "all"
)

type ListSummariesParams struct {
	Search   string
	Status   StatusFilter
	Page     int
	PageSize int
}

type ListSummariesResult struct {
	Summaries []ConversationSummary
	Total     int
	Page      int
	PageSize  int
}
