// Package stage builds what each wizard stage shows and holds the state that
// lives only inside one stage visit.
package stage

import (
	"strings"

	"github.com/vzahanych/outfit-wizard/internal/i18n"
	"github.com/vzahanych/outfit-wizard/internal/outfit"
	"github.com/vzahanych/outfit-wizard/internal/palette"
	"github.com/vzahanych/outfit-wizard/internal/weather"
	"github.com/vzahanych/outfit-wizard/internal/wizard"
)

// Presets are offered as one-click locations.
var Presets = []string{"Berlin", "München", "Hamburg", "Köln"}

const (
	coolTipBelow    = 15
	warmColorsAbove = 20
)

// Local is the state owned by the current stage visit. It is dropped whenever
// the wizard changes stage.
type Local struct {
	Ticket      wizard.Ticket     `json:"ticket"`
	Loading     bool              `json:"loading"`
	Weather     *weather.Snapshot `json:"weather,omitempty"`
	Outfit      *outfit.Outfit    `json:"outfit,omitempty"`
	BottomColor string            `json:"bottom_color,omitempty"`
	NoticeKey   string            `json:"notice_key,omitempty"`
}

// Fresh returns the local state for a new visit under ticket.
func Fresh(ticket wizard.Ticket) Local {
	return Local{Ticket: ticket}
}

type ProgressStep struct {
	Step   int  `json:"step"`
	Active bool `json:"active"`
	Done   bool `json:"done"`
}

type View struct {
	Stage     int            `json:"stage"`
	StageName string         `json:"stage_name"`
	Epoch     uint64         `json:"epoch"`
	Lang      string         `json:"lang"`
	Progress  []ProgressStep `json:"progress"`
	BackLabel string         `json:"back_label,omitempty"`
	Notice    string         `json:"notice,omitempty"`
	Location  *LocationView  `json:"location,omitempty"`
	Weather   *WeatherView   `json:"weather,omitempty"`
	Outfit    *OutfitView    `json:"outfit,omitempty"`
	Colors    *ColorsView    `json:"colors,omitempty"`
}

type LocationView struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Placeholder  string   `json:"placeholder"`
	CurrentLabel string   `json:"current_label"`
	Presets      []string `json:"presets"`
	Loading      bool     `json:"loading"`
	LoadingLabel string   `json:"loading_label,omitempty"`
}

type WeatherView struct {
	Title         string            `json:"title"`
	Subtitle      string            `json:"subtitle"`
	Loading       bool              `json:"loading"`
	LoadingLabel  string            `json:"loading_label,omitempty"`
	Snapshot      *weather.Snapshot `json:"snapshot,omitempty"`
	ConditionText string            `json:"condition_text,omitempty"`
	ContinueLabel string            `json:"continue_label"`
}

type OutfitView struct {
	Title         string         `json:"title"`
	Subtitle      string         `json:"subtitle"`
	Loading       bool           `json:"loading"`
	LoadingLabel  string         `json:"loading_label,omitempty"`
	Outfit        *outfit.Outfit `json:"outfit,omitempty"`
	Badges        []string       `json:"badges,omitempty"`
	Tip           string         `json:"tip,omitempty"`
	ContinueLabel string         `json:"continue_label"`
}

type ColorSwatch struct {
	Name   string `json:"name"`
	Swatch string `json:"swatch"`
}

type ColorsView struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Summary     []string               `json:"summary"`
	Options     []palette.BottomOption `json:"options"`
	Selected    string                 `json:"selected,omitempty"`
	MatchText   string                 `json:"match_text,omitempty"`
	Suggestions []ColorSwatch          `json:"suggestions,omitempty"`
	Tips        []string               `json:"tips"`
	Success     string                 `json:"success"`
	ResetLabel  string                 `json:"reset_label"`
}

// Render builds the view for the controller's current stage.
func Render(state wizard.State, local Local, p *i18n.Printer) View {
	v := View{
		Stage:     int(state.Stage),
		StageName: state.Stage.String(),
		Epoch:     state.Epoch,
		Lang:      p.Tag().String(),
		Progress:  progress(state.Stage),
	}
	if local.NoticeKey != "" {
		v.Notice = p.T(local.NoticeKey)
	}
	if state.Stage > wizard.StageLocation {
		v.BackLabel = p.T("nav.back")
	}

	switch state.Stage {
	case wizard.StageLocation:
		v.Location = renderLocation(local, p)
	case wizard.StageWeather:
		v.Weather = renderWeather(state, local, p)
	case wizard.StageOutfit:
		v.Outfit = renderOutfit(state, local, p)
	case wizard.StageColors:
		v.Colors = renderColors(state, local, p)
	}
	return v
}

func progress(current wizard.Stage) []ProgressStep {
	steps := make([]ProgressStep, 0, int(wizard.StageColors))
	for s := wizard.StageLocation; s <= wizard.StageColors; s++ {
		steps = append(steps, ProgressStep{
			Step:   int(s),
			Active: current >= s,
			Done:   current > s,
		})
	}
	return steps
}

func renderLocation(local Local, p *i18n.Printer) *LocationView {
	v := &LocationView{
		Title:        p.T("stage.location.title"),
		Description:  p.T("stage.location.description"),
		Placeholder:  p.T("stage.location.placeholder"),
		CurrentLabel: p.T("stage.location.current"),
		Presets:      append([]string(nil), Presets...),
		Loading:      local.Loading,
	}
	if local.Loading {
		v.LoadingLabel = p.T("stage.location.loading")
	}
	return v
}

func renderWeather(state wizard.State, local Local, p *i18n.Printer) *WeatherView {
	v := &WeatherView{
		Title:         p.T("stage.weather.title"),
		Subtitle:      p.T("stage.weather.subtitle", state.Location),
		Loading:       local.Loading,
		ContinueLabel: p.T("stage.weather.continue"),
	}
	if local.Loading {
		v.LoadingLabel = p.T("stage.weather.loading")
	}
	if local.Weather != nil {
		v.Snapshot = local.Weather
		v.ConditionText = ConditionText(local.Weather.Condition, p)
	}
	return v
}

// ConditionText maps a condition to its label; anything but sunny and rainy
// reads as cloudy.
func ConditionText(c weather.Condition, p *i18n.Printer) string {
	switch c {
	case weather.ConditionSunny:
		return p.T("condition.sunny")
	case weather.ConditionRainy:
		return p.T("condition.rainy")
	default:
		return p.T("condition.cloudy")
	}
}

func renderOutfit(state wizard.State, local Local, p *i18n.Printer) *OutfitView {
	temp := 0
	if state.Weather != nil {
		temp = state.Weather.Temperature
	}

	v := &OutfitView{
		Title:         p.T("stage.outfit.title"),
		Subtitle:      p.T("stage.outfit.subtitle", temp, state.Location),
		Loading:       local.Loading,
		ContinueLabel: p.T("stage.outfit.continue"),
	}
	if local.Loading {
		v.Title = p.T("stage.outfit.loading")
	}
	if state.Weather != nil {
		v.Badges = Badges(*state.Weather, p)
	}
	if local.Outfit != nil {
		v.Outfit = local.Outfit
		v.Tip = Tip(local.Outfit.SourceTemperature, p)
	}
	return v
}

// Badges flags rain and wind above the outfit thresholds.
func Badges(w weather.Snapshot, p *i18n.Printer) []string {
	var badges []string
	if w.RainProbability > outfit.RainThreshold {
		badges = append(badges, p.T("badge.rain", w.RainProbability))
	}
	if w.WindSpeed > outfit.WindThreshold {
		badges = append(badges, p.T("badge.wind", w.WindSpeed))
	}
	return badges
}

func Tip(temperature int, p *i18n.Printer) string {
	if temperature < coolTipBelow {
		return p.T("tip.cold")
	}
	return p.T("tip.warm")
}

func renderColors(state wizard.State, local Local, p *i18n.Printer) *ColorsView {
	v := &ColorsView{
		Title:       p.T("stage.colors.title"),
		Description: p.T("stage.colors.description"),
		Options:     palette.BottomOptions(),
		Tips: []string{
			p.T("colors.tip.neutral"),
			p.T("colors.tip.accent"),
			p.T("colors.tip.occasion"),
		},
		Success:    p.T("stage.colors.success"),
		ResetLabel: p.T("stage.colors.reset"),
	}
	if state.Outfit != nil {
		v.Summary = append([]string{state.Outfit.BottomWear}, state.Outfit.TopWear...)
	}
	if state.Weather != nil && state.Weather.Temperature > warmColorsAbove {
		v.Tips = append(v.Tips, p.T("colors.tip.warm"))
	}

	if local.BottomColor != "" {
		v.Selected = local.BottomColor
		name := local.BottomColor
		if opt, ok := palette.Option(local.BottomColor); ok {
			name = opt.Name
		}
		v.MatchText = p.T("stage.colors.match", name)
		v.Suggestions = Suggestions(local.BottomColor)
	}
	return v
}

// Suggestions returns the top colors for a bottom color key with swatches.
func Suggestions(bottomColorKey string) []ColorSwatch {
	names := palette.SuggestTopColors(bottomColorKey)
	out := make([]ColorSwatch, 0, len(names))
	for _, c := range names {
		out = append(out, ColorSwatch{Name: c, Swatch: palette.Swatch(c)})
	}
	return out
}

// NormalizeLocation trims input and rejects blank submissions.
func NormalizeLocation(input string) (string, error) {
	loc := strings.TrimSpace(input)
	if loc == "" {
		return "", wizard.ErrEmptyLocation
	}
	return loc, nil
}
