package underdark

import "fmt"

// StarterDeck returns the ten-card deck every seat begins with.
func StarterDeck(c Color) []*Card {
	var deck []*Card
	for i := 1; i <= 7; i++ {
		deck = append(deck, &Card{
			ID:      fmt.Sprintf("%s-noble-%d", c, i),
			Name:    "Noble",
			Effects: []Effect{Gain(Influence, 1)},
		})
	}
	for i := 1; i <= 3; i++ {
		deck = append(deck, &Card{
			ID:      fmt.Sprintf("%s-soldier-%d", c, i),
			Name:    "Soldier",
			Effects: []Effect{Gain(Power, 1)},
		})
	}
	return deck
}

// DemoMarket returns the market deck used with DemoBoard.
func DemoMarket() []*Card {
	templates := []Card{
		{Name: "Blackguard", Cost: 3, DeckVP: 1, InnerCircleVP: 3, Effects: []Effect{Gain(Power, 2), Focused(Targeting(EffectAssassinate))}},
		{Name: "Spellspinner", Cost: 4, DeckVP: 1, InnerCircleVP: 3, Effects: []Effect{Targeting(EffectPlaceSpy), Gain(Influence, 1)}},
		{Name: "Inquisitor", Cost: 2, DeckVP: 1, InnerCircleVP: 2, Effects: []Effect{Gain(Influence, 1), {Type: EffectDrawCard, Amount: 1}}},
		{Name: "Master of Melee-Magthere", Cost: 6, DeckVP: 2, InnerCircleVP: 4, Effects: []Effect{Targeting(EffectSupplant)}},
		{Name: "Advocate", Cost: 4, DeckVP: 1, InnerCircleVP: 3, Effects: []Effect{Gain(Influence, 2), {Type: EffectPromote, Amount: 1}}},
		{Name: "Ulitharid", Cost: 6, DeckVP: 2, InnerCircleVP: 5, Effects: []Effect{Targeting(EffectMoveUnit), Targeting(EffectReturnUnit)}},
		{Name: "Gauth", Cost: 6, DeckVP: 2, InnerCircleVP: 4, Effects: []Effect{Targeting(EffectDevour), Gain(Power, 3)}},
		{Name: "Ghoul", Cost: 3, DeckVP: 1, InnerCircleVP: 2, Effects: []Effect{Gain(Power, 2), Focused(Targeting(EffectDevour))}},
	}
	var deck []*Card
	for copyNum := 1; copyNum <= 2; copyNum++ {
		for _, t := range templates {
			c := t
			c.ID = fmt.Sprintf("market-%s-%d", slug(t.Name), copyNum)
			c.Effects = append([]Effect(nil), t.Effects...)
			deck = append(deck, &c)
		}
	}
	return deck
}

func slug(name string) string {
	b := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'A' && ch <= 'Z':
			b = append(b, ch+'a'-'A')
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
			b = append(b, ch)
		default:
			if len(b) > 0 && b[len(b)-1] != '-' {
				b = append(b, '-')
			}
		}
	}
	return string(b)
}
