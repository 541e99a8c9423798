package underdark

import "github.com/rs/zerolog"

// ResourceMutator changes player counters on behalf of the rules core.
type ResourceMutator interface {
	AddPower(p *Player, n int, reason string)
	AddInfluence(p *Player, n int, reason string)
	AddVictoryPoints(p *Player, n int, reason string)
	TrySpendPower(p *Player, n int, reason string) bool
}

// DirectResources edits the counters in place with no bookkeeping.
type DirectResources struct{}

func (DirectResources) AddPower(p *Player, n int, _ string)         { p.Power += n }
func (DirectResources) AddInfluence(p *Player, n int, _ string)     { p.Influence += n }
func (DirectResources) AddVictoryPoints(p *Player, n int, _ string) { p.VictoryPoints += n }

func (DirectResources) TrySpendPower(p *Player, n int, _ string) bool {
	if p.Power < n {
		return false
	}
	p.Power -= n
	return true
}

// LedgerEntry records one counter change.
type LedgerEntry struct {
	Color    Color    `json:"color"`
	Resource Resource `json:"resource"`
	Delta    int      `json:"delta"`
	Reason   string   `json:"reason"`
}

// ResourceLedger applies changes directly and keeps an audit trail of them.
type ResourceLedger struct {
	Entries []LedgerEntry
	log     zerolog.Logger
}

// NewResourceLedger creates an empty ledger that logs every change at debug.
func NewResourceLedger(log zerolog.Logger) *ResourceLedger {
	return &ResourceLedger{log: log}
}

func (l *ResourceLedger) AddPower(p *Player, n int, reason string) {
	p.Power += n
	l.record(p, Power, n, reason)
}

func (l *ResourceLedger) AddInfluence(p *Player, n int, reason string) {
	p.Influence += n
	l.record(p, Influence, n, reason)
}

func (l *ResourceLedger) AddVictoryPoints(p *Player, n int, reason string) {
	p.VictoryPoints += n
	l.record(p, VictoryPoints, n, reason)
}

func (l *ResourceLedger) TrySpendPower(p *Player, n int, reason string) bool {
	if p.Power < n {
		l.log.Debug().Str("color", p.Color.String()).Int("have", p.Power).Int("need", n).
			Str("reason", reason).Msg("Power spend refused")
		return false
	}
	p.Power -= n
	l.record(p, Power, -n, reason)
	return true
}

// Total sums the recorded deltas of one resource for a color.
func (l *ResourceLedger) Total(c Color, r Resource) int {
	total := 0
	for _, e := range l.Entries {
		if e.Color == c && e.Resource == r {
			total += e.Delta
		}
	}
	return total
}

func (l *ResourceLedger) record(p *Player, r Resource, n int, reason string) {
	l.Entries = append(l.Entries, LedgerEntry{Color: p.Color, Resource: r, Delta: n, Reason: reason})
	l.log.Debug().Str("color", p.Color.String()).Str("resource", r.String()).
		Int("delta", n).Str("reason", reason).Msg("Resource change")
}

// addResource dispatches a reward onto the matching mutator method.
func addResource(m ResourceMutator, p *Player, r Resource, n int, reason string) {
	switch r {
	case Power:
		m.AddPower(p, n, reason)
	case Influence:
		m.AddInfluence(p, n, reason)
	case VictoryPoints:
		m.AddVictoryPoints(p, n, reason)
	}
}
