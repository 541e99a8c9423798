package underdark

import "fmt"

// EffectType identifies what a card effect does when resolved.
type EffectType int

const (
	EffectGainResource EffectType = iota // Add Amount of Resource to the active player
	EffectDrawCard                       // Draw Amount cards
	EffectPromote                        // Earn a promotion credit for this card
	EffectMoveUnit                       // Move an enemy troop to an empty node
	EffectAssassinate                    // Kill an enemy troop
	EffectSupplant                       // Kill an enemy troop and deploy in its place
	EffectPlaceSpy                       // Put a spy on a site
	EffectReturnUnit                     // Send an enemy troop or spy home
	EffectDevour                         // Remove a card in hand from the game
)

func (e EffectType) String() string {
	switch e {
	case EffectGainResource:
		return "gain_resource"
	case EffectDrawCard:
		return "draw_card"
	case EffectPromote:
		return "promote"
	case EffectMoveUnit:
		return "move_unit"
	case EffectAssassinate:
		return "assassinate"
	case EffectSupplant:
		return "supplant"
	case EffectPlaceSpy:
		return "place_spy"
	case EffectReturnUnit:
		return "return_unit"
	case EffectDevour:
		return "devour"
	default:
		return "unknown"
	}
}

// Targeted reports whether the effect needs an interactive target.
func (e EffectType) Targeted() bool {
	switch e {
	case EffectMoveUnit, EffectAssassinate, EffectSupplant, EffectPlaceSpy, EffectReturnUnit, EffectDevour:
		return true
	}
	return false
}

// Effect is one line of card text.
type Effect struct {
	Type          EffectType `json:"type"`
	Resource      Resource   `json:"resource"`
	Amount        int        `json:"amount,omitempty"`
	RequiresFocus bool       `json:"requires_focus,omitempty"`
	Text          string     `json:"text,omitempty"`
}

// Card is a single card instance. IDs are unique within a match.
type Card struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Cost          int      `json:"cost"`
	DeckVP        int      `json:"deck_vp"`
	InnerCircleVP int      `json:"inner_circle_vp"`
	Effects       []Effect `json:"effects"`
}

func (c *Card) String() string {
	if c == nil {
		return "<nil card>"
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.ID)
}

// HasTargetedEffect reports whether any effect of the card needs a target.
func (c *Card) HasTargetedEffect() bool {
	for _, e := range c.Effects {
		if e.Type.Targeted() {
			return true
		}
	}
	return false
}

// Gain returns a resource effect.
func Gain(r Resource, n int) Effect {
	return Effect{Type: EffectGainResource, Resource: r, Amount: n}
}

// Targeting returns a targeted effect of the given type.
func Targeting(t EffectType) Effect {
	return Effect{Type: t, Amount: 1}
}

// Focused marks an effect as requiring focus.
func Focused(e Effect) Effect {
	e.RequiresFocus = true
	return e
}
