package underdark

// PhaseSource reports the current match phase.
type PhaseSource interface {
	Phase() MatchPhase
}

// FixedPhase is a PhaseSource that never changes.
type FixedPhase MatchPhase

func (f FixedPhase) Phase() MatchPhase { return MatchPhase(f) }

// Rules answers presence and legality questions about a board. It never
// mutates anything.
type Rules struct {
	board *Board
	phase PhaseSource
}

// NewRules creates a rule engine over board, reading the phase from phase.
func NewRules(board *Board, phase PhaseSource) *Rules {
	return &Rules{board: board, phase: phase}
}

// HasPresence reports whether color may act at node.
//
// Presence comes from a troop on the node, a spy in the node's site, or a
// troop on or adjacent to any node of the same site. Spies never project
// presence to neighboring nodes.
func (r *Rules) HasPresence(node *MapNode, color Color) bool {
	if node == nil || !color.IsPlayer() {
		return false
	}
	if node.Occupant == color {
		return true
	}
	site := r.board.SiteOf(node)
	if site != nil && site.Spies.Has(color) {
		return true
	}

	group := []NodeID{node.ID}
	if site != nil {
		group = site.Nodes
	}
	for _, id := range group {
		n := r.board.Node(id)
		if n == nil {
			continue
		}
		if n.Occupant == color {
			return true
		}
		for _, nb := range n.Neighbors {
			neighbor := r.board.Node(nb)
			if neighbor == nil {
				continue
			}
			if neighbor.Occupant == color {
				return true
			}
			if ns := r.board.SiteOf(neighbor); ns != nil && r.board.SiteHasTroop(ns, color) {
				return true
			}
		}
	}
	return false
}

// HasSitePresence reports whether color has presence anywhere in the site.
// A site with no nodes only grants presence through a spy.
func (r *Rules) HasSitePresence(site *Site, color Color) bool {
	if site == nil || !color.IsPlayer() {
		return false
	}
	if site.Spies.Has(color) {
		return true
	}
	for _, id := range site.Nodes {
		if r.HasPresence(r.board.Node(id), color) {
			return true
		}
	}
	return false
}

// CanDeployAt reports whether color may put a troop from barracks on node.
func (r *Rules) CanDeployAt(node *MapNode, color Color) bool {
	if node == nil || node.Occupant != ColorNone || !color.IsPlayer() {
		return false
	}

	troops := r.board.TroopCount(color)
	if r.phase.Phase() == Setup {
		site := r.board.SiteOf(node)
		if site == nil || site.Kind != Starting {
			return false
		}
		if troops > 0 {
			return false
		}
		for _, id := range site.Nodes {
			if n := r.board.Node(id); n != nil && n.Occupant.IsPlayer() && n.Occupant != color {
				return false
			}
		}
		return true
	}

	// A player with no troops on the board may re-enter anywhere.
	if troops == 0 {
		return true
	}
	return r.HasPresence(node, color)
}

// CanAssassinate reports whether attacker may kill the troop on node.
func (r *Rules) CanAssassinate(node *MapNode, attacker Color) bool {
	if node == nil || node.Occupant == ColorNone || node.Occupant == attacker {
		return false
	}
	return r.HasPresence(node, attacker)
}

// CanReturnTroop reports whether color may send the troop on node home.
func (r *Rules) CanReturnTroop(node *MapNode, color Color) bool {
	return r.CanAssassinate(node, color)
}

// CanMoveSource reports whether color may pick up the troop on node.
// Neutral troops can be moved; friendly ones cannot.
func (r *Rules) CanMoveSource(node *MapNode, color Color) bool {
	if node == nil || node.Occupant == ColorNone || node.Occupant == color {
		return false
	}
	return r.HasPresence(node, color)
}

// CanMoveDestination reports whether a moved troop may land on node.
func (r *Rules) CanMoveDestination(node *MapNode) bool {
	return node != nil && node.Occupant == ColorNone
}

// CanPlaceSpy reports whether color may put a spy on site.
func (r *Rules) CanPlaceSpy(site *Site, color Color) bool {
	return site != nil && color.IsPlayer() && !site.Spies.Has(color)
}

// RemovableSpies lists the enemy spies color could return from site.
// Returns nil when color has no presence there.
func (r *Rules) RemovableSpies(site *Site, color Color) []Color {
	if !r.HasSitePresence(site, color) {
		return nil
	}
	var out []Color
	for _, c := range site.Spies.Colors() {
		if c != color {
			out = append(out, c)
		}
	}
	return out
}

// HasValidAssassinationTarget reports whether color can assassinate anything.
func (r *Rules) HasValidAssassinationTarget(color Color) bool {
	for _, n := range r.board.Nodes {
		if r.CanAssassinate(n, color) {
			return true
		}
	}
	return false
}

// HasValidReturnTroopTarget reports whether color can return any troop.
func (r *Rules) HasValidReturnTroopTarget(color Color) bool {
	for _, n := range r.board.Nodes {
		if r.CanReturnTroop(n, color) {
			return true
		}
	}
	return false
}

// HasValidReturnSpyTarget reports whether color can return any enemy spy.
func (r *Rules) HasValidReturnSpyTarget(color Color) bool {
	for _, s := range r.board.Sites {
		if len(r.RemovableSpies(s, color)) > 0 {
			return true
		}
	}
	return false
}

// HasValidPlaceSpyTarget reports whether any site lacks a spy of color.
func (r *Rules) HasValidPlaceSpyTarget(color Color) bool {
	for _, s := range r.board.Sites {
		if r.CanPlaceSpy(s, color) {
			return true
		}
	}
	return false
}

// HasValidMoveSource reports whether color can move any troop, which also
// needs an empty node to land on.
func (r *Rules) HasValidMoveSource(color Color) bool {
	source, dest := false, false
	for _, n := range r.board.Nodes {
		if !source && r.CanMoveSource(n, color) {
			source = true
		}
		if !dest && r.CanMoveDestination(n) {
			dest = true
		}
		if source && dest {
			return true
		}
	}
	return false
}
