package session

import (
	"context"
	"time"

	"github.com/vzahanych/outfit-wizard/internal/stage"
	"github.com/vzahanych/outfit-wizard/internal/wizard"
)

// Record is everything persisted for one browser session.
type Record struct {
	ID        string       `json:"id"`
	Wizard    wizard.State `json:"wizard"`
	Local     stage.Local  `json:"local"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Store persists session records. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, id string) (Record, bool, error)
	Save(ctx context.Context, record Record, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
