package session

import (
	"context"
	"errors"
	"time"

	"github.com/zhixinliu/medichat/backend/internal/model/chat"
	"github.com/zhixinliu/medichat/backend/internal/model/triage"
)

// ErrNotFound is returned when a session id has no stored record.
var ErrNotFound = errors.New("session not found")

// Session is the server-side record of one consultation: the ordered message
// log plus the triage progress that drives request shaping.
type Session struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	Messages  []chat.Message `json:"messages"`
	Triage    triage.State   `json:"triage"`
}

// Store persists sessions behind a key-value get/put/delete contract so the
// conversation controller stays independent of the backing store.
type Store interface {
	Get(ctx context.Context, id string) (Session, error)
	Put(ctx context.Context, sess Session) error
	Delete(ctx context.Context, id string) error
}
