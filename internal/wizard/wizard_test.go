package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/outfit-wizard/internal/outfit"
	"github.com/vzahanych/outfit-wizard/internal/weather"
)

var testSnapshot = weather.Snapshot{Temperature: 12, Condition: weather.ConditionRainy, RainProbability: 70, WindSpeed: 25}

// advanceTo drives a fresh controller to the requested stage.
func advanceTo(t *testing.T, stage Stage) *Controller {
	t.Helper()
	c := New()
	if stage >= StageWeather {
		require.NoError(t, c.SubmitLocation(c.Ticket(), "Berlin"))
	}
	if stage >= StageOutfit {
		require.NoError(t, c.SubmitWeather(c.Ticket(), testSnapshot))
	}
	if stage >= StageColors {
		require.NoError(t, c.SubmitOutfit(c.Ticket(), outfit.Decide(testSnapshot)))
	}
	require.Equal(t, stage, c.Stage())
	return c
}

func TestNewStartsAtLocation(t *testing.T) {
	c := New()
	s := c.State()

	assert.Equal(t, StageLocation, s.Stage)
	assert.Empty(t, s.Location)
	assert.Nil(t, s.Weather)
	assert.Nil(t, s.Outfit)
	assert.True(t, c.CanRender(StageLocation))
	assert.False(t, c.CanRender(StageWeather))
}

func TestSubmitLocationAdvances(t *testing.T) {
	c := New()
	require.NoError(t, c.SubmitLocation(c.Ticket(), "  Berlin "))

	s := c.State()
	assert.Equal(t, StageWeather, s.Stage)
	assert.Equal(t, "Berlin", s.Location)
	assert.Nil(t, s.Weather)
	assert.Nil(t, s.Outfit)
	assert.True(t, c.CanRender(StageWeather))
}

func TestSubmitLocationRejectsBlank(t *testing.T) {
	c := New()
	for _, loc := range []string{"", "   ", "\t\n"} {
		err := c.SubmitLocation(c.Ticket(), loc)
		require.ErrorIs(t, err, ErrEmptyLocation)
	}
	assert.Equal(t, StageLocation, c.Stage())
	assert.Equal(t, uint64(0), c.State().Epoch)
}

func TestFullForwardFlow(t *testing.T) {
	c := advanceTo(t, StageColors)
	s := c.State()

	assert.Equal(t, "Berlin", s.Location)
	require.NotNil(t, s.Weather)
	assert.Equal(t, testSnapshot, *s.Weather)
	require.NotNil(t, s.Outfit)
	assert.Equal(t, []string{"Leichte Jacke", "Regenjacke"}, s.Outfit.Outerwear)
	assert.True(t, c.CanRender(StageColors))
}

func TestSubmitInWrongStage(t *testing.T) {
	c := New()

	err := c.SubmitWeather(c.Ticket(), testSnapshot)
	require.ErrorIs(t, err, ErrWrongStage)

	err = c.SubmitOutfit(c.Ticket(), outfit.Outfit{})
	require.ErrorIs(t, err, ErrWrongStage)

	assert.Equal(t, StageLocation, c.Stage())
}

func TestStaleTicketIsRejected(t *testing.T) {
	c := advanceTo(t, StageWeather)
	weatherVisit := c.Ticket()

	require.NoError(t, c.Back())
	require.NoError(t, c.SubmitLocation(c.Ticket(), "Hamburg"))

	// Same stage again, but a different visit.
	assert.Equal(t, StageWeather, c.Stage())
	err := c.SubmitWeather(weatherVisit, testSnapshot)
	require.ErrorIs(t, err, ErrStaleTicket)
	assert.Nil(t, c.State().Weather)

	require.NoError(t, c.SubmitWeather(c.Ticket(), testSnapshot))
}

func TestLateResultAfterLeavingStage(t *testing.T) {
	c := advanceTo(t, StageOutfit)
	ticket := c.Ticket()

	c.Reset()

	err := c.SubmitOutfit(ticket, outfit.Decide(testSnapshot))
	require.ErrorIs(t, err, ErrStaleTicket)
	assert.False(t, c.Accepts(ticket))
	assert.Equal(t, StageLocation, c.Stage())
}

func TestBackKeepsPayloads(t *testing.T) {
	c := advanceTo(t, StageColors)
	stored := c.State().Outfit

	require.NoError(t, c.Back())
	s := c.State()
	assert.Equal(t, StageOutfit, s.Stage)
	require.NotNil(t, s.Outfit)
	assert.Equal(t, *stored, *s.Outfit)

	require.NoError(t, c.Back())
	s = c.State()
	assert.Equal(t, StageWeather, s.Stage)
	assert.NotNil(t, s.Weather)
	assert.NotNil(t, s.Outfit)
}

func TestReconfirmReplacesOutfit(t *testing.T) {
	c := advanceTo(t, StageColors)
	require.NoError(t, c.Back())

	replacement := outfit.Decide(weather.Snapshot{Temperature: 30})
	require.NoError(t, c.SubmitOutfit(c.Ticket(), replacement))

	s := c.State()
	assert.Equal(t, StageColors, s.Stage)
	assert.Equal(t, "Kurze Hose", s.Outfit.BottomWear)
}

func TestBackAtFirstStage(t *testing.T) {
	c := New()
	require.ErrorIs(t, c.Back(), ErrNoPreviousStage)
	assert.Equal(t, StageLocation, c.Stage())
}

func TestResetFromEveryStage(t *testing.T) {
	for _, stage := range []Stage{StageLocation, StageWeather, StageOutfit, StageColors} {
		t.Run(stage.String(), func(t *testing.T) {
			c := advanceTo(t, stage)
			before := c.State().Epoch

			c.Reset()
			s := c.State()
			assert.Equal(t, StageLocation, s.Stage)
			assert.Empty(t, s.Location)
			assert.Nil(t, s.Weather)
			assert.Nil(t, s.Outfit)
			assert.Greater(t, s.Epoch, before)
		})
	}
}

func TestEveryTransitionBumpsEpoch(t *testing.T) {
	c := New()
	epochs := []uint64{c.State().Epoch}

	require.NoError(t, c.SubmitLocation(c.Ticket(), "Köln"))
	epochs = append(epochs, c.State().Epoch)
	require.NoError(t, c.Back())
	epochs = append(epochs, c.State().Epoch)
	c.Reset()
	epochs = append(epochs, c.State().Epoch)

	assert.Equal(t, []uint64{0, 1, 2, 3}, epochs)
}

func TestStateIsACopy(t *testing.T) {
	c := advanceTo(t, StageColors)

	s := c.State()
	s.Weather.Temperature = 99
	s.Outfit.Outerwear[0] = "changed"

	fresh := c.State()
	assert.Equal(t, 12, fresh.Weather.Temperature)
	assert.Equal(t, "Leichte Jacke", fresh.Outfit.Outerwear[0])
}

func TestRestore(t *testing.T) {
	c := advanceTo(t, StageOutfit)
	restored := Restore(c.State())
	assert.Equal(t, c.State(), restored.State())

	broken := Restore(State{Stage: StageColors, Epoch: 7})
	assert.Equal(t, StageLocation, broken.Stage())
	assert.Equal(t, uint64(8), broken.State().Epoch)

	invalid := Restore(State{Stage: Stage(9)})
	assert.Equal(t, StageLocation, invalid.Stage())
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "colors", StageColors.String())
	assert.Equal(t, "stage(0)", Stage(0).String())
}
