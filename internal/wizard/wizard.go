// Package wizard holds the four-stage linear controller that owns a session's
// state. All mutations go through its transition methods.
package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vzahanych/outfit-wizard/internal/outfit"
	"github.com/vzahanych/outfit-wizard/internal/weather"
)

type Stage int

const (
	StageLocation Stage = iota + 1
	StageWeather
	StageOutfit
	StageColors
)

var stageNames = map[Stage]string{
	StageLocation: "location",
	StageWeather:  "weather",
	StageOutfit:   "outfit",
	StageColors:   "colors",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

func (s Stage) Valid() bool {
	return s >= StageLocation && s <= StageColors
}

var (
	ErrWrongStage      = errors.New("action not allowed in current stage")
	ErrStaleTicket     = errors.New("result belongs to a stage that was left")
	ErrMissingPayload  = errors.New("required upstream payload missing")
	ErrNoPreviousStage = errors.New("already at first stage")
	ErrEmptyLocation   = errors.New("location must not be empty")
)

// State is the single mutable aggregate of a wizard session. Epoch is bumped
// on every transition.
type State struct {
	Stage    Stage             `json:"stage"`
	Epoch    uint64            `json:"epoch"`
	Location string            `json:"location,omitempty"`
	Weather  *weather.Snapshot `json:"weather,omitempty"`
	Outfit   *outfit.Outfit    `json:"outfit,omitempty"`
}

// Ticket identifies one visit of a stage. Results produced under a ticket are
// only accepted while that visit lasts.
type Ticket struct {
	Stage Stage  `json:"stage"`
	Epoch uint64 `json:"epoch"`
}

type Controller struct {
	state State
}

func New() *Controller {
	return &Controller{state: State{Stage: StageLocation}}
}

// Restore rebuilds a controller from persisted state. Unknown stages fall
// back to a fresh wizard that keeps the epoch moving forward.
func Restore(s State) *Controller {
	c := &Controller{state: s.clone()}
	if !s.Stage.Valid() || !c.CanRender(s.Stage) {
		c.state = State{Stage: StageLocation, Epoch: s.Epoch + 1}
	}
	return c
}

func (c *Controller) State() State {
	return c.state.clone()
}

func (c *Controller) Stage() Stage {
	return c.state.Stage
}

func (c *Controller) Ticket() Ticket {
	return Ticket{Stage: c.state.Stage, Epoch: c.state.Epoch}
}

// Accepts reports whether a result produced under t may still be applied.
func (c *Controller) Accepts(t Ticket) bool {
	return t == c.Ticket()
}

// CanRender reports whether the upstream payloads a stage needs are present.
func (c *Controller) CanRender(stage Stage) bool {
	switch stage {
	case StageLocation:
		return true
	case StageWeather:
		return c.state.Location != ""
	case StageOutfit:
		return c.state.Location != "" && c.state.Weather != nil
	case StageColors:
		return c.state.Weather != nil && c.state.Outfit != nil
	default:
		return false
	}
}

func (c *Controller) SubmitLocation(t Ticket, location string) error {
	if err := c.check(t, StageLocation); err != nil {
		return err
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return ErrEmptyLocation
	}

	c.state.Location = location
	c.advance(StageWeather)
	return nil
}

func (c *Controller) SubmitWeather(t Ticket, snapshot weather.Snapshot) error {
	if err := c.check(t, StageWeather); err != nil {
		return err
	}
	if c.state.Location == "" {
		return fmt.Errorf("%w: location", ErrMissingPayload)
	}

	c.state.Weather = &snapshot
	c.advance(StageOutfit)
	return nil
}

func (c *Controller) SubmitOutfit(t Ticket, o outfit.Outfit) error {
	if err := c.check(t, StageOutfit); err != nil {
		return err
	}
	if c.state.Weather == nil {
		return fmt.Errorf("%w: weather", ErrMissingPayload)
	}

	c.state.Outfit = &o
	c.advance(StageColors)
	return nil
}

// Back steps one stage back. The payload of the stage being left is kept.
func (c *Controller) Back() error {
	if c.state.Stage <= StageLocation {
		return ErrNoPreviousStage
	}
	c.advance(c.state.Stage - 1)
	return nil
}

// Reset returns to the first stage and clears every payload.
func (c *Controller) Reset() {
	c.state = State{Stage: StageLocation, Epoch: c.state.Epoch + 1}
}

func (c *Controller) check(t Ticket, want Stage) error {
	if !c.Accepts(t) {
		return fmt.Errorf("%w: ticket %s/%d, current %s/%d",
			ErrStaleTicket, t.Stage, t.Epoch, c.state.Stage, c.state.Epoch)
	}
	if c.state.Stage != want {
		return fmt.Errorf("%w: want %s, current %s", ErrWrongStage, want, c.state.Stage)
	}
	return nil
}

func (c *Controller) advance(to Stage) {
	c.state.Stage = to
	c.state.Epoch++
}

func (s State) clone() State {
	out := s
	if s.Weather != nil {
		w := *s.Weather
		out.Weather = &w
	}
	if s.Outfit != nil {
		o := *s.Outfit
		o.TopWear = cloneStrings(s.Outfit.TopWear)
		o.Outerwear = cloneStrings(s.Outfit.Outerwear)
		o.Accessories = cloneStrings(s.Outfit.Accessories)
		out.Outfit = &o
	}
	return out
}

func cloneStrings(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	copy(out, items)
	return out
}
