package underdark

import (
	"errors"
	"math/rand"

	"github.com/rs/zerolog"
)

var (
	ErrActionPending      = errors.New("an action is pending")
	ErrUnknownCard        = errors.New("unknown card")
	ErrUnknownNode        = errors.New("unknown node")
	ErrUnknownSite        = errors.New("unknown site")
	ErrNotEnoughInfluence = errors.New("not enough influence")
	ErrOutOfTurn          = errors.New("not the active player")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrWrongPhase         = errors.New("not allowed in this phase")
	ErrMatchOver          = errors.New("match is over")
	ErrNoPlayers          = errors.New("match needs at least one player")
	ErrInvalidSeat        = errors.New("seat colors must be distinct player colors")
)

// DefaultHandSize is the number of cards drawn at the end of each turn.
const DefaultHandSize = 5

// MatchOptions configures NewMatch.
type MatchOptions struct {
	Seed       int64
	HandSize   int
	MarketSize int
	Market     []*Card
	Resources  ResourceMutator // nil records changes in a ResourceLedger
	Log        zerolog.Logger
}

// Match is the turn context for one game. It owns the board and the seats,
// wires the rules components together and implements TurnContext.
type Match struct {
	Board   *Board
	Players []*Player
	Market  *Market

	Rules     *Rules
	Control   *SiteControl
	Combat    *CombatResolver
	Spies     *SpyNetwork
	Actions   *ActionSystem
	Effects   *EffectProcessor
	Resources ResourceMutator

	phase      MatchPhase
	active     int
	turn       int
	handSize   int
	finished   bool
	promotions map[*Card]int
	promoting  *Card
	rng        *rand.Rand
	log        zerolog.Logger
}

// NewMatch seats players on board in the given order and starts setup.
func NewMatch(board *Board, players []*Player, opts MatchOptions) (*Match, error) {
	if len(players) == 0 {
		return nil, ErrNoPlayers
	}
	seen := make(map[Color]bool, len(players))
	for _, p := range players {
		if seen[p.Color] || !p.Color.IsPlayer() {
			return nil, ErrInvalidSeat
		}
		seen[p.Color] = true
	}
	if opts.HandSize <= 0 {
		opts.HandSize = DefaultHandSize
	}
	if opts.MarketSize <= 0 {
		opts.MarketSize = DefaultMarketSize
	}
	if opts.Resources == nil {
		opts.Resources = NewResourceLedger(opts.Log)
	}

	m := &Match{
		Board:      board,
		Players:    players,
		Resources:  opts.Resources,
		phase:      Setup,
		handSize:   opts.HandSize,
		promotions: make(map[*Card]int),
		rng:        rand.New(rand.NewSource(opts.Seed)),
		log:        opts.Log,
	}

	recalc := func(s *Site) { m.Control.RecalculateSiteState(s, m.ActivePlayer()) }
	m.Rules = NewRules(board, m)
	m.Control = NewSiteControl(board, m.Resources, m.log)
	m.Combat = NewCombatResolver(board, m, m.Resources, recalc, m.log)
	m.Spies = NewSpyNetwork(m.PlayerByColor, recalc, m.log)
	m.Actions = NewActionSystem(m, board, m.Rules, m.Combat, m.Spies, m.Resources, m.log)
	m.Effects = NewEffectProcessor(m, m.Rules, m.Actions, m.Resources, m.rng, m.log)
	m.Actions.OnActionCompleted(m.onActionCompleted)
	m.Actions.OnActionCancelled(m.onActionCancelled)

	for _, p := range players {
		m.rng.Shuffle(len(p.Deck), func(i, j int) { p.Deck[i], p.Deck[j] = p.Deck[j], p.Deck[i] })
	}
	m.Market = NewMarket(opts.Market, opts.MarketSize, m.rng)
	m.Control.RecalculateAll()
	return m, nil
}

// Phase returns the current match phase.
func (m *Match) Phase() MatchPhase { return m.phase }

// ActivePlayer returns the seat whose turn it is.
func (m *Match) ActivePlayer() *Player { return m.Players[m.active] }

// Turn returns the number of completed turns since play began.
func (m *Match) Turn() int { return m.turn }

// Finished reports whether the match has ended.
func (m *Match) Finished() bool { return m.finished }

// PlayerByColor returns the seat with color c, or nil.
func (m *Match) PlayerByColor(c Color) *Player {
	for _, p := range m.Players {
		if p.Color == c {
			return p
		}
	}
	return nil
}

// AddPromotionCredit lets source promote one more card this turn.
func (m *Match) AddPromotionCredit(source *Card) {
	m.promotions[source]++
	m.log.Debug().Stringer("card", source).Int("credits", m.promotions[source]).Msg("Promotion credit added")
}

// PromotionCredits returns the unspent credits earned by source this turn.
func (m *Match) PromotionCredits(source *Card) int { return m.promotions[source] }

// ConsumePromotionCredit spends one credit earned by source.
func (m *Match) ConsumePromotionCredit(source *Card) bool {
	if m.promotions[source] <= 0 {
		return false
	}
	m.promotions[source]--
	if m.promotions[source] == 0 {
		delete(m.promotions, source)
	}
	return true
}

func (m *Match) onActionCompleted() {
	m.promoting = nil
	if m.phase == Setup {
		m.advanceSetup()
	}
}

func (m *Match) onActionCancelled() {
	if m.promoting != nil {
		delete(m.promotions, m.promoting)
		m.promoting = nil
	}
}

// advanceSetup passes the setup deployment to the next seat, and starts
// play once every seat has a troop on the board.
func (m *Match) advanceSetup() {
	for _, p := range m.Players {
		if m.Board.TroopCount(p.Color) == 0 {
			m.active = (m.active + 1) % len(m.Players)
			return
		}
	}
	m.phase = Playing
	m.active = 0
	for _, p := range m.Players {
		p.Draw(m.handSize, m.rng)
	}
	m.log.Info().Int("players", len(m.Players)).Msg("Setup complete, play begins")
	m.BeginTurn()
}

// BeginTurn pays the active player's start-of-turn city income.
func (m *Match) BeginTurn() {
	p := m.ActivePlayer()
	m.Control.DistributeStartOfTurnRewards(m.Board.Sites, p)
	m.log.Debug().Str("color", p.Color.String()).Int("turn", m.turn).Msg("Turn started")
}

// PlayCard moves a card from the active hand to the played area and
// resolves its effects.
func (m *Match) PlayCard(id string, hasFocus bool) error {
	if m.finished {
		return ErrMatchOver
	}
	if m.phase != Playing {
		return ErrWrongPhase
	}
	if m.Actions.IsTargeting() {
		return ErrActionPending
	}
	p := m.ActivePlayer()
	card := p.RemoveFromHand(id)
	if card == nil {
		return ErrUnknownCard
	}
	p.Played = append(p.Played, card)
	m.log.Debug().Str("color", p.Color.String()).Stringer("card", card).Bool("focus", hasFocus).Msg("Card played")
	m.Effects.ResolveEffects(card, m, hasFocus)
	return nil
}

// BuyCard pays influence for a market card and puts it in the discard pile.
func (m *Match) BuyCard(id string) error {
	if m.finished {
		return ErrMatchOver
	}
	if m.phase != Playing {
		return ErrWrongPhase
	}
	if m.Actions.IsTargeting() {
		return ErrActionPending
	}
	card := m.Market.Find(id)
	if card == nil {
		return ErrUnknownCard
	}
	p := m.ActivePlayer()
	if p.Influence < card.Cost {
		return ErrNotEnoughInfluence
	}
	m.Market.Take(id)
	m.Resources.AddInfluence(p, -card.Cost, "buy:"+card.Name)
	p.Discard = append(p.Discard, card)
	return nil
}

// EndTurn finishes the active player's turn. If promotion credits are
// unspent it first parks the match in SelectingCardToPromote and returns
// false; the turn ends on a later call once the credits are used or the
// selection is cancelled.
func (m *Match) EndTurn() (bool, error) {
	if m.finished {
		return false, ErrMatchOver
	}
	if m.phase != Playing {
		return false, ErrWrongPhase
	}
	if m.Actions.IsTargeting() {
		return false, ErrActionPending
	}
	p := m.ActivePlayer()
	if source := m.nextPromotionSource(p); source != nil {
		m.promoting = source
		m.Actions.StartTargeting(SelectingCardToPromote, source)
		return false, nil
	}

	// Unspent power and influence do not carry over.
	if p.Power != 0 {
		m.Resources.AddPower(p, -p.Power, "end_turn")
	}
	if p.Influence != 0 {
		m.Resources.AddInfluence(p, -p.Influence, "end_turn")
	}
	p.CleanUp()
	p.Draw(m.handSize, m.rng)
	clear(m.promotions)
	m.turn++

	if m.gameOver() {
		m.finished = true
		m.log.Info().Int("turn", m.turn).Msg("Match over")
		return true, nil
	}
	m.active = (m.active + 1) % len(m.Players)
	m.BeginTurn()
	return true, nil
}

// nextPromotionSource returns the first played card with unspent credits
// while there is something left to promote.
func (m *Match) nextPromotionSource(p *Player) *Card {
	if len(p.Played)+len(p.Discard) == 0 {
		return nil
	}
	for _, c := range p.Played {
		if m.promotions[c] > 0 {
			return c
		}
	}
	return nil
}

func (m *Match) gameOver() bool {
	if m.Market.Exhausted() {
		return true
	}
	for _, p := range m.Players {
		if p.TroopsInBarracks <= 0 {
			return true
		}
	}
	return false
}

// FinalScore totals a seat's victory points, trophies and card values.
func (m *Match) FinalScore(p *Player) int {
	score := p.VictoryPoints + p.TrophyHall
	for _, zone := range [][]*Card{p.Hand, p.Deck, p.Discard, p.Played} {
		for _, c := range zone {
			score += c.DeckVP
		}
	}
	for _, c := range p.InnerCircle {
		score += c.InnerCircleVP
	}
	return score
}

// Snapshot is the JSON view of a match cached between commands.
type Snapshot struct {
	Phase   MatchPhase    `json:"phase"`
	Active  Color         `json:"active"`
	Turn    int           `json:"turn"`
	State   string        `json:"action_state"`
	Board   *Board        `json:"board"`
	Players []*Player     `json:"players"`
	Market  []*Card       `json:"market"`
	Scores  map[Color]int `json:"scores"`
	Over    bool          `json:"over"`
}

// Snapshot captures the current state for caching.
func (m *Match) Snapshot() Snapshot {
	scores := make(map[Color]int, len(m.Players))
	for _, p := range m.Players {
		scores[p.Color] = m.FinalScore(p)
	}
	return Snapshot{
		Phase:   m.phase,
		Active:  m.ActivePlayer().Color,
		Turn:    m.turn,
		State:   m.Actions.State().String(),
		Board:   m.Board,
		Players: m.Players,
		Market:  m.Market.Row,
		Scores:  scores,
		Over:    m.finished,
	}
}
