package underdark

// DefaultMarketSize is the number of face-up cards for sale.
const DefaultMarketSize = 6

// Market is the face-up row of cards for sale and the deck refilling it.
type Market struct {
	Row  []*Card `json:"row"`
	Deck []*Card `json:"deck"`
	size int
}

// NewMarket shuffles deck and deals the first size cards face up.
func NewMarket(deck []*Card, size int, s Shuffler) *Market {
	m := &Market{Deck: deck, size: size}
	if s != nil {
		s.Shuffle(len(m.Deck), func(i, j int) { m.Deck[i], m.Deck[j] = m.Deck[j], m.Deck[i] })
	}
	m.refill()
	return m
}

// Find returns the face-up card with the given ID, or nil.
func (m *Market) Find(id string) *Card {
	return findCard(m.Row, id)
}

// Take removes a face-up card and deals a replacement.
func (m *Market) Take(id string) *Card {
	var c *Card
	m.Row, c = removeCard(m.Row, id)
	if c != nil {
		m.refill()
	}
	return c
}

// Exhausted reports whether nothing is left to buy.
func (m *Market) Exhausted() bool {
	return len(m.Row) == 0 && len(m.Deck) == 0
}

func (m *Market) refill() {
	for len(m.Row) < m.size && len(m.Deck) > 0 {
		m.Row = append(m.Row, m.Deck[0])
		m.Deck = m.Deck[1:]
	}
}
