package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/outfit-wizard/internal/wizard"
)

// Runs against a real server only when WOW_TEST_VALKEY_ADDR is set.
func newTestValkeyStore(t *testing.T) *ValkeyStore {
	t.Helper()
	addr := os.Getenv("WOW_TEST_VALKEY_ADDR")
	if addr == "" {
		t.Skip("WOW_TEST_VALKEY_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := NewValkeyClient(ctx, addr)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return NewValkeyStore(client, "wizard-test")
}

func TestValkeyStoreRoundTrip(t *testing.T) {
	store := newTestValkeyStore(t)
	ctx := context.Background()

	c := wizard.New()
	require.NoError(t, c.SubmitLocation(c.Ticket(), "Hamburg"))
	rec := Record{ID: uuid.New().String(), Wizard: c.State(), UpdatedAt: time.Now().UTC()}

	require.NoError(t, store.Save(ctx, rec, time.Minute))
	t.Cleanup(func() { _ = store.Delete(context.Background(), rec.ID) })

	got, ok, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Hamburg", got.Wizard.Location)
	assert.Equal(t, wizard.StageWeather, got.Wizard.Stage)

	require.NoError(t, store.Ping(ctx))
}

func TestValkeyStoreMissing(t *testing.T) {
	store := newTestValkeyStore(t)

	_, ok, err := store.Get(context.Background(), uuid.New().String())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValkeyKey(t *testing.T) {
	assert.Equal(t, "wizard:session:abc", NewValkeyStore(nil, "").key("abc"))
	assert.Equal(t, "app:session:abc", NewValkeyStore(nil, "app").key("abc"))
}
