package underdark

import "github.com/rs/zerolog"

// fakeTurn is a TurnContext with a fixed roster.
type fakeTurn struct {
	phase   MatchPhase
	active  *Player
	players []*Player
	credits map[*Card]int
}

func newFakeTurn(phase MatchPhase, players ...*Player) *fakeTurn {
	return &fakeTurn{phase: phase, active: players[0], players: players, credits: make(map[*Card]int)}
}

func (f *fakeTurn) Phase() MatchPhase     { return f.phase }
func (f *fakeTurn) ActivePlayer() *Player { return f.active }

func (f *fakeTurn) PlayerByColor(c Color) *Player {
	for _, p := range f.players {
		if p.Color == c {
			return p
		}
	}
	return nil
}

func (f *fakeTurn) AddPromotionCredit(source *Card)   { f.credits[source]++ }
func (f *fakeTurn) PromotionCredits(source *Card) int { return f.credits[source] }

func (f *fakeTurn) ConsumePromotionCredit(source *Card) bool {
	if f.credits[source] <= 0 {
		return false
	}
	f.credits[source]--
	return true
}

// recorder counts the events an ActionSystem emits.
type recorder struct {
	completed int
	cancelled int
	failures  []string
}

func (r *recorder) attach(a *ActionSystem) {
	a.OnActionCompleted(func() { r.completed++ })
	a.OnActionFailed(func(reason string) { r.failures = append(r.failures, reason) })
	a.OnActionCancelled(func() { r.cancelled++ })
}

func (r *recorder) lastFailure() string {
	if len(r.failures) == 0 {
		return ""
	}
	return r.failures[len(r.failures)-1]
}

// harness wires the rules core around a board without a Match.
type harness struct {
	board   *Board
	turn    *fakeTurn
	rules   *Rules
	control *SiteControl
	combat  *CombatResolver
	spies   *SpyNetwork
	actions *ActionSystem
	effects *EffectProcessor
	ledger  *ResourceLedger
	events  *recorder
}

func newHarness(board *Board, phase MatchPhase, players ...*Player) *harness {
	log := zerolog.Nop()
	h := &harness{board: board, turn: newFakeTurn(phase, players...), ledger: NewResourceLedger(log), events: &recorder{}}
	recalc := func(s *Site) { h.control.RecalculateSiteState(s, h.turn.ActivePlayer()) }
	h.rules = NewRules(board, h.turn)
	h.control = NewSiteControl(board, h.ledger, log)
	h.combat = NewCombatResolver(board, h.turn, h.ledger, recalc, log)
	h.spies = NewSpyNetwork(h.turn.PlayerByColor, recalc, log)
	h.actions = NewActionSystem(h.turn, board, h.rules, h.combat, h.spies, h.ledger, log)
	h.effects = NewEffectProcessor(h.turn, h.rules, h.actions, h.ledger, nil, log)
	h.events.attach(h.actions)
	return h
}

// rewireActions replaces the action system with one using the given
// collaborators. Effects stay wired to the old one.
func (h *harness) rewireActions(spies SpyOperations, resources ResourceMutator) {
	h.actions = NewActionSystem(h.turn, h.board, h.rules, h.combat, spies, resources, zerolog.Nop())
	h.events = &recorder{}
	h.events.attach(h.actions)
}

// stuckSpies refuses to move any spy home.
type stuckSpies struct{ *SpyNetwork }

func (stuckSpies) ReturnSpy(*Site, Color) bool { return false }

// refusingSpender declines every TrySpendPower call.
type refusingSpender struct{ *ResourceLedger }

func (refusingSpender) TrySpendPower(*Player, int, string) bool { return false }
