package underdark

import "github.com/rs/zerolog"

// EffectProcessor resolves the effects of a played card. Simple effects
// apply immediately; targeted ones hand control to the ActionSystem.
type EffectProcessor struct {
	turn      TurnContext
	rules     *Rules
	actions   *ActionSystem
	resources ResourceMutator
	shuffle   Shuffler
	log       zerolog.Logger

	pending *resolution
}

// resolution is a card whose remaining effects wait on a pending action.
type resolution struct {
	card     *Card
	ctx      TurnContext
	hasFocus bool
	next     int
}

// NewEffectProcessor creates an EffectProcessor. It subscribes to the
// action system so that a card's remaining effects resolve once its
// targeted effect completes or is cancelled.
func NewEffectProcessor(turn TurnContext, rules *Rules, actions *ActionSystem, resources ResourceMutator, shuffle Shuffler, log zerolog.Logger) *EffectProcessor {
	p := &EffectProcessor{turn: turn, rules: rules, actions: actions, resources: resources, shuffle: shuffle, log: log}
	actions.OnActionCompleted(p.resume)
	actions.OnActionCancelled(p.resume)
	return p
}

// ResolveEffects applies card's effects in order. Effects that require focus
// are skipped unless hasFocus is set. Returns true if a targeted effect is
// now pending in the ActionSystem.
func (p *EffectProcessor) ResolveEffects(card *Card, ctx TurnContext, hasFocus bool) bool {
	if card == nil || ctx == nil {
		panic("underdark: ResolveEffects requires a card and a turn context")
	}
	p.pending = nil
	return p.resolveFrom(card, ctx, hasFocus, 0)
}

// Awaiting reports whether a card is parked on a targeted effect.
func (p *EffectProcessor) Awaiting() bool { return p.pending != nil }

func (p *EffectProcessor) resolveFrom(card *Card, ctx TurnContext, hasFocus bool, start int) bool {
	player := ctx.ActivePlayer()
	for i := start; i < len(card.Effects); i++ {
		e := card.Effects[i]
		if e.RequiresFocus && !hasFocus {
			p.log.Debug().Stringer("card", card).Str("effect", e.Type.String()).Msg("Effect skipped without focus")
			continue
		}
		if !e.Type.Targeted() {
			p.apply(e, card, ctx, player)
			continue
		}
		state, ok := p.targetFor(e.Type, player)
		if !ok {
			p.log.Info().Stringer("card", card).Str("effect", e.Type.String()).
				Str("color", player.Color.String()).Msg("No legal target, effect fizzles")
			continue
		}
		p.pending = &resolution{card: card, ctx: ctx, hasFocus: hasFocus, next: i + 1}
		p.actions.StartTargeting(state, card)
		return true
	}
	return false
}

func (p *EffectProcessor) resume() {
	r := p.pending
	if r == nil {
		return
	}
	p.pending = nil
	p.resolveFrom(r.card, r.ctx, r.hasFocus, r.next)
}

func (p *EffectProcessor) apply(e Effect, card *Card, ctx TurnContext, player *Player) {
	switch e.Type {
	case EffectGainResource:
		addResource(p.resources, player, e.Resource, e.Amount, "card:"+card.ID)
	case EffectDrawCard:
		drawn := player.Draw(e.Amount, p.shuffle)
		p.log.Debug().Str("color", player.Color.String()).Int("drawn", len(drawn)).Msg("Cards drawn")
	case EffectPromote:
		ctx.AddPromotionCredit(card)
	}
}

// targetFor picks the targeting state for a targeted effect, or reports
// false when nothing on the board (or in hand) could be chosen.
func (p *EffectProcessor) targetFor(t EffectType, player *Player) (ActionState, bool) {
	switch t {
	case EffectMoveUnit:
		return TargetingMoveSource, p.rules.HasValidMoveSource(player.Color)
	case EffectAssassinate:
		return TargetingAssassinate, p.rules.HasValidAssassinationTarget(player.Color)
	case EffectSupplant:
		return TargetingSupplant, player.TroopsInBarracks > 0 && p.rules.HasValidAssassinationTarget(player.Color)
	case EffectPlaceSpy:
		return TargetingPlaceSpy, player.SpiesInBarracks > 0 && p.rules.HasValidPlaceSpyTarget(player.Color)
	case EffectReturnUnit:
		if p.rules.HasValidReturnTroopTarget(player.Color) {
			return TargetingReturn, true
		}
		return TargetingReturnSpy, p.rules.HasValidReturnSpyTarget(player.Color)
	case EffectDevour:
		return TargetingDevourHand, len(player.Hand) > 0
	}
	return Normal, false
}

// HasViableTargets reports whether card has no targeted effects, or at
// least one of them has a legal target right now.
func (p *EffectProcessor) HasViableTargets(card *Card) bool {
	if !card.HasTargetedEffect() {
		return true
	}
	player := p.turn.ActivePlayer()
	for _, e := range card.Effects {
		if !e.Type.Targeted() {
			continue
		}
		if _, ok := p.targetFor(e.Type, player); ok {
			return true
		}
	}
	return false
}
