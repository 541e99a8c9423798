package underdark

// Shuffler reorders n elements through swap. *math/rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Player holds the counters and card zones of one seat. The rules core
// changes them only through CombatResolver, SpyNetwork and ResourceMutator.
type Player struct {
	Color            Color   `json:"color"`
	Power            int     `json:"power"`
	Influence        int     `json:"influence"`
	VictoryPoints    int     `json:"victory_points"`
	TroopsInBarracks int     `json:"troops_in_barracks"`
	SpiesInBarracks  int     `json:"spies_in_barracks"`
	TrophyHall       int     `json:"trophy_hall"`
	Hand             []*Card `json:"hand"`
	Deck             []*Card `json:"deck"`
	Discard          []*Card `json:"discard"`
	Played           []*Card `json:"played"`
	InnerCircle      []*Card `json:"inner_circle"`
}

// Default barracks sizes for a new seat.
const (
	StartingTroops = 40
	StartingSpies  = 5
)

// NewPlayer returns a seat with full barracks and the given deck.
func NewPlayer(c Color, deck []*Card) *Player {
	return &Player{
		Color:            c,
		TroopsInBarracks: StartingTroops,
		SpiesInBarracks:  StartingSpies,
		Deck:             deck,
	}
}

// Draw moves up to n cards from the deck into the hand, shuffling the
// discard pile into the deck when the deck runs out. Returns the cards drawn.
func (p *Player) Draw(n int, s Shuffler) []*Card {
	var drawn []*Card
	for i := 0; i < n; i++ {
		if len(p.Deck) == 0 {
			if len(p.Discard) == 0 {
				break
			}
			p.Deck, p.Discard = p.Discard, nil
			if s != nil {
				s.Shuffle(len(p.Deck), func(i, j int) { p.Deck[i], p.Deck[j] = p.Deck[j], p.Deck[i] })
			}
		}
		c := p.Deck[0]
		p.Deck = p.Deck[1:]
		p.Hand = append(p.Hand, c)
		drawn = append(drawn, c)
	}
	return drawn
}

// RemoveFromHand takes the card with the given ID out of the hand.
func (p *Player) RemoveFromHand(id string) *Card {
	var c *Card
	p.Hand, c = removeCard(p.Hand, id)
	return c
}

// FindInHand returns the card with the given ID from the hand, or nil.
func (p *Player) FindInHand(id string) *Card {
	return findCard(p.Hand, id)
}

// FindCard looks up a card by ID across every zone the player owns.
func (p *Player) FindCard(id string) *Card {
	for _, zone := range [][]*Card{p.Hand, p.Played, p.Discard, p.Deck, p.InnerCircle} {
		if c := findCard(zone, id); c != nil {
			return c
		}
	}
	return nil
}

// Promote moves a card from the played area or the discard pile into the
// inner circle. Returns false if the card is in neither.
func (p *Player) Promote(id string) bool {
	var c *Card
	if p.Played, c = removeCard(p.Played, id); c == nil {
		if p.Discard, c = removeCard(p.Discard, id); c == nil {
			return false
		}
	}
	p.InnerCircle = append(p.InnerCircle, c)
	return true
}

// CleanUp discards the played area and whatever is left in hand.
func (p *Player) CleanUp() {
	p.Discard = append(p.Discard, p.Played...)
	p.Discard = append(p.Discard, p.Hand...)
	p.Played = nil
	p.Hand = nil
}

func findCard(zone []*Card, id string) *Card {
	for _, c := range zone {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func removeCard(zone []*Card, id string) ([]*Card, *Card) {
	for i, c := range zone {
		if c.ID == id {
			return append(zone[:i:i], zone[i+1:]...), c
		}
	}
	return zone, nil
}
