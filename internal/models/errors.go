package models

// ErrorCode is the wire-level error taxonomy. Every failed operation is
// answered with exactly one of these, unicast to the offending sender.
type ErrorCode string

const (
	CodeValidation              ErrorCode = "VALIDATION_ERROR"
	CodeRoomFull                ErrorCode = "ROOM_FULL"
	CodeDuplicateConnection     ErrorCode = "DUPLICATE_CONNECTION"
	CodeUnauthorizedSender      ErrorCode = "UNAUTHORIZED_SENDER"
	CodeUnauthorizedParticipant ErrorCode = "UNAUTHORIZED_PARTICIPANT"
	CodeUnauthorizedStop        ErrorCode = "UNAUTHORIZED_STOP"
	CodeInvalidDestination      ErrorCode = "INVALID_DESTINATION"
	CodeParticipantDisconnected ErrorCode = "PARTICIPANT_DISCONNECTED"
	CodeScreenShareInUse        ErrorCode = "SCREEN_SHARE_IN_USE"
	CodeScreenShareNotActive    ErrorCode = "SCREEN_SHARE_NOT_ACTIVE"
	CodeRateLimitExceeded       ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodePersistence             ErrorCode = "PERSISTENCE_ERROR"
	CodeConnectionLimit         ErrorCode = "CONNECTION_LIMIT"
)

// ErrorPayload is the body of an "error" event.
type ErrorPayload struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}
