package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyLog stores the first response of a keyed request so replays get the same answer.
type IdempotencyLog struct {
	Key          string    `json:"key"` // Format: "user_id:scope:client_key"
	UserID       uuid.UUID `json:"user_id"`
	ResponseJSON []byte    `json:"response_json"`
	CreatedAt    time.Time `json:"created_at"`
}

// BuildIdempotencyKey scopes a client-supplied key to a user and an operation.
func BuildIdempotencyKey(userID uuid.UUID, scope, clientKey string) string {
	return userID.String() + ":" + scope + ":" + clientKey
}
