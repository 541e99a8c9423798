package underdark

import "github.com/rs/zerolog"

// ActionState is the targeting mode the action system is parked in.
type ActionState int

const (
	Normal ActionState = iota
	TargetingAssassinate
	TargetingReturn
	TargetingSupplant
	TargetingPlaceSpy
	TargetingReturnSpy
	SelectingSpyToReturn
	TargetingMoveSource
	TargetingMoveDestination
	TargetingDevourHand
	SelectingCardToPromote
)

func (s ActionState) String() string {
	switch s {
	case Normal:
		return "normal"
	case TargetingAssassinate:
		return "targeting_assassinate"
	case TargetingReturn:
		return "targeting_return"
	case TargetingSupplant:
		return "targeting_supplant"
	case TargetingPlaceSpy:
		return "targeting_place_spy"
	case TargetingReturnSpy:
		return "targeting_return_spy"
	case SelectingSpyToReturn:
		return "selecting_spy_to_return"
	case TargetingMoveSource:
		return "targeting_move_source"
	case TargetingMoveDestination:
		return "targeting_move_destination"
	case TargetingDevourHand:
		return "targeting_devour_hand"
	case SelectingCardToPromote:
		return "selecting_card_to_promote"
	default:
		return "unknown"
	}
}

// Power costs of the actions a player can buy without a card.
const (
	AssassinatePowerCost = 3
	ReturnSpyPowerCost   = 3
)

// Failure reasons reported through OnActionFailed.
const (
	ReasonNotEnoughPower   = "Not enough Power!"
	ReasonInvalidTarget    = "Invalid Target!"
	ReasonBusy             = "Finish the current action first!"
	ReasonNoTroops         = "No troops in barracks!"
	ReasonNoSpies          = "No spies in barracks!"
	ReasonCannotDeploy     = "Cannot deploy there!"
	ReasonSelectSite       = "Select a site!"
	ReasonSpyAlreadyThere  = "You already have a spy there!"
	ReasonNoPresence       = "No presence there!"
	ReasonNoEnemySpies     = "No enemy spies there!"
	ReasonChooseSpy        = "Choose which spy to return!"
	ReasonSpyReturnFailed  = "Could not return that spy!"
	ReasonInvalidSource    = "Invalid Source!"
	ReasonDestinationTaken = "Destination must be empty!"
	ReasonSelectCard       = "Select a card!"
	ReasonNothingToSelect  = "Nothing to select!"
	ReasonCardNotInHand    = "That card is not in your hand!"
	ReasonCannotPromote    = "That card cannot be promoted!"
	ReasonNoPromotion      = "No promotion available!"
)

// TurnContext exposes the turn in progress to the rules core.
type TurnContext interface {
	PhaseSource
	ActivePlayer() *Player
	PlayerByColor(c Color) *Player
	AddPromotionCredit(source *Card)
	PromotionCredits(source *Card) int
	ConsumePromotionCredit(source *Card) bool
}

// ActionSystem owns the single pending interactive action. Each inbound
// call either finishes, fails, or leaves the system parked waiting for the
// next click. Outcomes are reported only through the registered listeners.
type ActionSystem struct {
	turn      TurnContext
	board     *Board
	rules     *Rules
	combat    *CombatResolver
	spies     SpyOperations
	resources ResourceMutator
	log       zerolog.Logger

	state             ActionState
	pendingCard       *Card
	pendingSite       *Site
	pendingMoveSource *MapNode
	// gen changes whenever a new action starts, so a completion listener
	// that chains into another action keeps its fresh pending state.
	gen uint64

	onCompleted []func()
	onFailed    []func(reason string)
	onCancelled []func()
}

// NewActionSystem wires an ActionSystem to its collaborators.
func NewActionSystem(turn TurnContext, board *Board, rules *Rules, combat *CombatResolver, spies SpyOperations, resources ResourceMutator, log zerolog.Logger) *ActionSystem {
	if resources == nil {
		resources = DirectResources{}
	}
	return &ActionSystem{
		turn:      turn,
		board:     board,
		rules:     rules,
		combat:    combat,
		spies:     spies,
		resources: resources,
		log:       log,
	}
}

// OnActionCompleted registers a listener for finished actions. Listeners
// run before the pending context is cleared.
func (a *ActionSystem) OnActionCompleted(fn func()) { a.onCompleted = append(a.onCompleted, fn) }

// OnActionFailed registers a listener for rejected clicks.
func (a *ActionSystem) OnActionFailed(fn func(reason string)) { a.onFailed = append(a.onFailed, fn) }

// OnActionCancelled registers a listener for CancelTargeting.
func (a *ActionSystem) OnActionCancelled(fn func()) { a.onCancelled = append(a.onCancelled, fn) }

func (a *ActionSystem) State() ActionState         { return a.state }
func (a *ActionSystem) PendingCard() *Card         { return a.pendingCard }
func (a *ActionSystem) PendingSite() *Site         { return a.pendingSite }
func (a *ActionSystem) PendingMoveSource() *MapNode { return a.pendingMoveSource }

// IsTargeting reports whether an action is pending.
func (a *ActionSystem) IsTargeting() bool { return a.state != Normal }

// TryStartAssassinate enters assassination targeting paid with power.
func (a *ActionSystem) TryStartAssassinate() {
	a.tryStartPowered(TargetingAssassinate, AssassinatePowerCost)
}

// TryStartReturnSpy enters spy-return targeting paid with power.
func (a *ActionSystem) TryStartReturnSpy() {
	a.tryStartPowered(TargetingReturnSpy, ReturnSpyPowerCost)
}

func (a *ActionSystem) tryStartPowered(state ActionState, cost int) {
	if a.state != Normal {
		a.fail(ReasonBusy)
		return
	}
	if a.turn.ActivePlayer().Power < cost {
		a.fail(ReasonNotEnoughPower)
		return
	}
	// The cost is only reserved here; it is charged when a target resolves.
	a.begin(state, nil)
}

// StartTargeting enters state on behalf of card. The card is the payment,
// so no cost is checked.
func (a *ActionSystem) StartTargeting(state ActionState, card *Card) {
	if state == Normal {
		a.CancelTargeting()
		return
	}
	a.begin(state, card)
}

func (a *ActionSystem) begin(state ActionState, card *Card) {
	a.gen++
	a.state = state
	a.pendingCard = card
	a.pendingSite = nil
	a.pendingMoveSource = nil
	a.log.Debug().Str("state", state.String()).Stringer("card", card).Msg("Targeting started")
}

// HandleTargetClick routes a board click to the handler for the current
// state. site may be nil, in which case the node's site is used. A click
// with nothing pending is a deployment attempt.
func (a *ActionSystem) HandleTargetClick(node *MapNode, site *Site) {
	if site == nil {
		site = a.board.SiteOf(node)
	}
	switch a.state {
	case Normal:
		a.TryDeploy(node)
	case TargetingAssassinate:
		a.handleAssassinate(node)
	case TargetingReturn:
		a.handleReturn(node)
	case TargetingSupplant:
		a.handleSupplant(node)
	case TargetingPlaceSpy:
		a.handlePlaceSpy(site)
	case TargetingReturnSpy:
		a.handleReturnSpyClick(site)
	case TargetingMoveSource:
		a.handleMoveSource(node)
	case TargetingMoveDestination:
		a.handleMoveDestination(node)
	case SelectingSpyToReturn:
		a.fail(ReasonChooseSpy)
	case TargetingDevourHand, SelectingCardToPromote:
		a.fail(ReasonSelectCard)
	}
}

// TryDeploy puts a troop from the active player's barracks on node.
func (a *ActionSystem) TryDeploy(node *MapNode) {
	p := a.turn.ActivePlayer()
	if a.state != Normal {
		a.fail(ReasonBusy)
		return
	}
	if p.TroopsInBarracks <= 0 {
		a.fail(ReasonNoTroops)
		return
	}
	if !a.rules.CanDeployAt(node, p.Color) {
		a.fail(ReasonCannotDeploy)
		return
	}
	if a.turn.Phase() == Playing && p.Power < DeployPowerCost {
		a.fail(ReasonNotEnoughPower)
		return
	}
	a.combat.ExecuteDeploy(node, p)
	a.complete()
}

func (a *ActionSystem) powerFunded() bool { return a.pendingCard == nil }

func (a *ActionSystem) handleAssassinate(node *MapNode) {
	p := a.turn.ActivePlayer()
	if !a.rules.CanAssassinate(node, p.Color) {
		a.fail(ReasonInvalidTarget)
		return
	}
	funded := a.powerFunded()
	if funded && p.Power < AssassinatePowerCost {
		a.fail(ReasonNotEnoughPower)
		return
	}
	a.combat.ExecuteAssassinate(node, p)
	if funded {
		a.resources.AddPower(p, -AssassinatePowerCost, "assassinate")
	}
	a.complete()
}

func (a *ActionSystem) handleReturn(node *MapNode) {
	p := a.turn.ActivePlayer()
	if !a.rules.CanReturnTroop(node, p.Color) {
		a.fail(ReasonInvalidTarget)
		return
	}
	a.combat.ExecuteReturnTroop(node, a.turn.PlayerByColor(node.Occupant))
	a.complete()
}

func (a *ActionSystem) handleSupplant(node *MapNode) {
	p := a.turn.ActivePlayer()
	if !a.rules.CanAssassinate(node, p.Color) {
		a.fail(ReasonInvalidTarget)
		return
	}
	if p.TroopsInBarracks <= 0 {
		a.fail(ReasonNoTroops)
		return
	}
	a.combat.ExecuteSupplant(node, p)
	a.complete()
}

func (a *ActionSystem) handlePlaceSpy(site *Site) {
	p := a.turn.ActivePlayer()
	if site == nil {
		a.fail(ReasonSelectSite)
		return
	}
	if !a.rules.CanPlaceSpy(site, p.Color) {
		a.fail(ReasonSpyAlreadyThere)
		return
	}
	if p.SpiesInBarracks <= 0 {
		a.fail(ReasonNoSpies)
		return
	}
	if !a.spies.PlaceSpy(site, p) {
		a.fail(ReasonInvalidTarget)
		return
	}
	a.complete()
}

func (a *ActionSystem) handleReturnSpyClick(site *Site) {
	p := a.turn.ActivePlayer()
	if site == nil {
		a.fail(ReasonSelectSite)
		return
	}
	if !a.rules.HasSitePresence(site, p.Color) {
		a.fail(ReasonNoPresence)
		return
	}
	enemies := a.rules.RemovableSpies(site, p.Color)
	switch len(enemies) {
	case 0:
		a.fail(ReasonNoEnemySpies)
	case 1:
		a.finalizeSpyReturn(site, enemies[0])
	default:
		a.pendingSite = site
		a.state = SelectingSpyToReturn
		a.log.Debug().Str("site", site.Name).Int("spies", len(enemies)).Msg("Awaiting spy selection")
	}
}

// FinalizeSpyReturn returns the spy of color from the site chosen by the
// previous click.
func (a *ActionSystem) FinalizeSpyReturn(color Color) {
	if (a.state != SelectingSpyToReturn && a.state != TargetingReturnSpy) || a.pendingSite == nil {
		a.fail(ReasonNothingToSelect)
		return
	}
	a.finalizeSpyReturn(a.pendingSite, color)
}

// finalizeSpyReturn charges power only after the spy has actually left.
func (a *ActionSystem) finalizeSpyReturn(site *Site, color Color) {
	p := a.turn.ActivePlayer()
	if color == p.Color || !site.Spies.Has(color) {
		a.fail(ReasonInvalidTarget)
		return
	}
	funded := a.powerFunded()
	if funded && p.Power < ReturnSpyPowerCost {
		a.fail(ReasonNotEnoughPower)
		return
	}
	if !a.spies.ReturnSpy(site, color) {
		a.fail(ReasonSpyReturnFailed)
		return
	}
	if funded {
		a.resources.AddPower(p, -ReturnSpyPowerCost, "return_spy")
	}
	a.complete()
}

func (a *ActionSystem) handleMoveSource(node *MapNode) {
	p := a.turn.ActivePlayer()
	if !a.rules.CanMoveSource(node, p.Color) {
		a.fail(ReasonInvalidSource)
		return
	}
	a.pendingMoveSource = node
	a.state = TargetingMoveDestination
	a.log.Debug().Int("node", int(node.ID)).Msg("Move source selected")
}

func (a *ActionSystem) handleMoveDestination(node *MapNode) {
	if !a.rules.CanMoveDestination(node) {
		a.fail(ReasonDestinationTaken)
		return
	}
	source := a.pendingMoveSource
	if source == nil || source.Occupant == ColorNone {
		a.fail(ReasonInvalidSource)
		return
	}
	a.combat.ExecuteMove(source, node, a.turn.ActivePlayer())
	a.complete()
}

// SelectHandCard devours card from the active player's hand.
func (a *ActionSystem) SelectHandCard(card *Card) {
	if a.state != TargetingDevourHand {
		a.fail(ReasonNothingToSelect)
		return
	}
	p := a.turn.ActivePlayer()
	if card == nil || p.RemoveFromHand(card.ID) == nil {
		a.fail(ReasonCardNotInHand)
		return
	}
	a.log.Info().Str("color", p.Color.String()).Stringer("card", card).Msg("Card devoured")
	a.complete()
}

// SelectCardToPromote moves card into the inner circle using a promotion
// credit earned by the pending card.
func (a *ActionSystem) SelectCardToPromote(card *Card) {
	if a.state != SelectingCardToPromote {
		a.fail(ReasonNothingToSelect)
		return
	}
	if a.turn.PromotionCredits(a.pendingCard) <= 0 {
		a.fail(ReasonNoPromotion)
		return
	}
	p := a.turn.ActivePlayer()
	if card == nil || !p.Promote(card.ID) {
		a.fail(ReasonCannotPromote)
		return
	}
	a.turn.ConsumePromotionCredit(a.pendingCard)
	a.log.Info().Str("color", p.Color.String()).Stringer("card", card).Msg("Card promoted")
	a.complete()
}

// CancelTargeting abandons whatever is pending. It never fails.
func (a *ActionSystem) CancelTargeting() {
	if a.state == Normal {
		return
	}
	a.log.Debug().Str("state", a.state.String()).Msg("Targeting cancelled")
	a.reset()
	for _, fn := range a.onCancelled {
		fn()
	}
}

// CompleteAction finishes the pending action from outside the click path.
func (a *ActionSystem) CompleteAction() {
	a.complete()
}

func (a *ActionSystem) complete() {
	gen := a.gen
	for _, fn := range a.onCompleted {
		fn()
	}
	if a.gen == gen {
		a.reset()
	}
}

func (a *ActionSystem) fail(reason string) {
	a.log.Debug().Str("state", a.state.String()).Str("reason", reason).Msg("Action failed")
	for _, fn := range a.onFailed {
		fn(reason)
	}
}

func (a *ActionSystem) reset() {
	a.state = Normal
	a.pendingCard = nil
	a.pendingSite = nil
	a.pendingMoveSource = nil
}
