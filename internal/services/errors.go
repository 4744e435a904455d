package services

import (
	"errors"
	"fmt"
)

// Lookup failures, reported as 404
var (
	ErrQuestionNotFound         = errors.New("question not found")
	ErrQuizNotFound             = errors.New("quiz not found")
	ErrSessionNotFound          = errors.New("session not found")
	ErrBookmarkNotFound         = errors.New("bookmark not found")
	ErrUserNotFound             = errors.New("user not found")
	ErrLeaderboardEntryNotFound = errors.New("leaderboard entry not found")
)

// Authentication failures. Messages are deliberately generic.
var (
	ErrInvalidCredentials  = errors.New("invalid username/email or password")
	ErrInvalidAccessToken  = errors.New("invalid or expired access token")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrInvalidResetUser    = errors.New("invalid user")
	ErrInvalidResetToken   = errors.New("invalid token")
	ErrSSODisabled         = errors.New("sso login is not configured")
	ErrInvalidSSOToken     = errors.New("invalid sso token")
)

// Session lifecycle violations
var (
	ErrSessionCompleted = NewBusinessRuleError("session_open",
		"Quiz session already completed", nil)
	ErrSessionNotActive = NewBusinessRuleError("session_open",
		"Quiz session is not active", nil)
	ErrSessionFull = NewBusinessRuleError("session_capacity",
		"All questions in this session have already been answered", nil)
	ErrQuestionNotInSession = NewBusinessRuleError("session_question",
		"Question is not part of this session", nil)
	ErrQuizInactive = NewBusinessRuleError("quiz_active",
		"Quiz is not active", nil)
	ErrNoQuestions = NewBusinessRuleError("session_questions",
		"At least one question is required", nil)
	ErrNoValidQuestions = NewBusinessRuleError("session_questions",
		"No valid questions found", nil)
)

// BusinessRuleError is a request that is well formed but not allowed in the current state
type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func NewBusinessRuleError(rule string, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message, Context: context}
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

// PermissionError is returned when the caller may not act on a resource
type PermissionError struct {
	UserID     uint   `json:"user_id"`
	ResourceID uint   `json:"resource_id,omitempty"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func NewPermissionError(userID, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: cannot %s %s (%s)", e.Action, e.Resource, e.Reason)
}

// IsBusinessRuleError reports whether err carries a BusinessRuleError
func IsBusinessRuleError(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsPermissionError reports whether err carries a PermissionError
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}
