package service

import (
	"errors"
	"strings"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	InternalServerError = 500
	BadGateway          = 502
)

var (
	ErrParamInvalid        = errors.New("invalid parameter")
	ErrValidation          = errors.New("validation failed")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserFollowExist     = errors.New("already following")
	ErrUserFollowSelf      = errors.New("cannot follow yourself")
	ErrUserFollowLimit     = errors.New("following limit reached")
	ErrPostNotFound        = errors.New("post not found")
	ErrPostCommentNotFound = errors.New("comment not found")
	ErrForbidden           = errors.New("forbidden")
	ErrUpstream            = errors.New("identity provider unavailable")
	UnauthorizedError      = errors.New("unauthorized")
	UnExpectedError        = errors.New("unexpected error, please retry later")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:        BadRequest,
	ErrValidation:          BadRequest,
	ErrUserNotFound:        NotFound,
	ErrUserFollowExist:     BadRequest,
	ErrUserFollowSelf:      BadRequest,
	ErrUserFollowLimit:     BadRequest,
	ErrPostNotFound:        NotFound,
	ErrPostCommentNotFound: NotFound,
	ErrForbidden:           Forbidden,
	ErrUpstream:            BadGateway,
	UnauthorizedError:      Unauthorized,
	UnExpectedError:        InternalServerError,
}

// CodeOf business code for err, matching wrapped sentinels
func CodeOf(err error) (int, bool) {
	if code, ok := ErrorMap[err]; ok {
		return code, true
	}
	for sentinel, code := range ErrorMap {
		if errors.Is(err, sentinel) {
			return code, true
		}
	}
	return 0, false
}

// ValidationError carries the rejected field and, for tags, the offending user ids
type ValidationError struct {
	Field       string
	Reason      string
	InvalidTags []string
}

func (e *ValidationError) Error() string {
	msg := ErrValidation.Error() + ": " + e.Field + " " + e.Reason
	if len(e.InvalidTags) > 0 {
		msg += " [" + strings.Join(e.InvalidTags, ", ") + "]"
	}
	return msg
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
