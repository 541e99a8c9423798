package underdark

import "github.com/rs/zerolog"

// SpyOperations adds and removes spies on sites.
type SpyOperations interface {
	PlaceSpy(site *Site, player *Player) bool
	ReturnSpy(site *Site, color Color) bool
}

// SpyNetwork moves spies between barracks and sites and keeps site control
// current.
type SpyNetwork struct {
	roster func(Color) *Player
	recalc func(*Site)
	log    zerolog.Logger
}

// NewSpyNetwork creates a SpyNetwork. roster resolves a spy's owner so a
// returned spy goes back to the right barracks.
func NewSpyNetwork(roster func(Color) *Player, recalc func(*Site), log zerolog.Logger) *SpyNetwork {
	if recalc == nil {
		recalc = func(*Site) {}
	}
	return &SpyNetwork{roster: roster, recalc: recalc, log: log}
}

// PlaceSpy moves one of player's spies from barracks to site.
func (s *SpyNetwork) PlaceSpy(site *Site, player *Player) bool {
	if site == nil || player == nil || player.SpiesInBarracks <= 0 {
		return false
	}
	if !site.Spies.Add(player.Color) {
		return false
	}
	player.SpiesInBarracks--
	s.log.Debug().Str("site", site.Name).Str("color", player.Color.String()).Msg("Spy placed")
	s.recalc(site)
	return true
}

// ReturnSpy removes the spy of color from site and sends it home.
func (s *SpyNetwork) ReturnSpy(site *Site, color Color) bool {
	if site == nil || !site.Spies.Remove(color) {
		return false
	}
	if s.roster != nil {
		if owner := s.roster(color); owner != nil {
			owner.SpiesInBarracks++
		}
	}
	s.log.Debug().Str("site", site.Name).Str("color", color.String()).Msg("Spy returned")
	s.recalc(site)
	return true
}
