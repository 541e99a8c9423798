package underdark

import "github.com/rs/zerolog"

// SiteControl derives site ownership from the board and pays control rewards.
type SiteControl struct {
	board     *Board
	resources ResourceMutator
	log       zerolog.Logger
}

// NewSiteControl creates a SiteControl. A nil mutator falls back to
// DirectResources.
func NewSiteControl(board *Board, resources ResourceMutator, log zerolog.Logger) *SiteControl {
	if resources == nil {
		resources = DirectResources{}
	}
	return &SiteControl{board: board, resources: resources, log: log}
}

// siteOwner returns the color with strictly the most troops at the site.
// Neutral troops compete for the majority but never own a site.
func (c *SiteControl) siteOwner(site *Site) Color {
	counts := make(map[Color]int)
	for _, id := range site.Nodes {
		if n := c.board.Node(id); n != nil && n.Occupant != ColorNone {
			counts[n.Occupant]++
		}
	}
	best, bestCount, tied := ColorNone, 0, false
	for color, count := range counts {
		switch {
		case count > bestCount:
			best, bestCount, tied = color, count, false
		case count == bestCount:
			tied = true
		}
	}
	if tied || !best.IsPlayer() {
		return ColorNone
	}
	return best
}

// hasTotalControl requires an owner, no foreign troops and no foreign spies.
// Empty nodes do not matter.
func (c *SiteControl) hasTotalControl(site *Site, owner Color) bool {
	if owner == ColorNone {
		return false
	}
	for _, id := range site.Nodes {
		if n := c.board.Node(id); n != nil && n.Occupant != ColorNone && n.Occupant != owner {
			return false
		}
	}
	for spy := range site.Spies {
		if spy != owner {
			return false
		}
	}
	return true
}

// RecalculateSiteState recomputes Owner and HasTotalControl for site. When
// active just took a city, or total control of one, the matching reward is
// paid immediately.
func (c *SiteControl) RecalculateSiteState(site *Site, active *Player) {
	if site == nil {
		return
	}
	oldOwner, oldTotal := site.Owner, site.HasTotalControl

	site.Owner = c.siteOwner(site)
	site.HasTotalControl = c.hasTotalControl(site, site.Owner)

	if site.Owner != oldOwner {
		c.log.Debug().Str("site", site.Name).Str("from", oldOwner.String()).
			Str("to", site.Owner.String()).Msg("Site control changed")
	}
	if oldTotal && !site.HasTotalControl {
		c.log.Info().Str("site", site.Name).Str("lost", oldOwner.String()).Msg("Total control lost")
	}

	if active == nil || !site.IsCity() || site.Owner != active.Color {
		return
	}
	if oldOwner != active.Color {
		c.log.Info().Str("site", site.Name).Str("color", active.Color.String()).Msg("City taken")
		addResource(c.resources, active, site.ControlResource, site.ControlAmount, "control:"+site.Name)
	}
	if site.HasTotalControl && !oldTotal {
		c.log.Info().Str("site", site.Name).Str("color", active.Color.String()).Msg("Total control taken")
		addResource(c.resources, active, site.TotalControlResource, site.TotalControlAmount, "total_control:"+site.Name)
	}
}

// RecalculateAll refreshes every site without paying any rewards.
func (c *SiteControl) RecalculateAll() {
	for _, s := range c.board.Sites {
		s.Owner = c.siteOwner(s)
		s.HasTotalControl = c.hasTotalControl(s, s.Owner)
	}
}

// DistributeStartOfTurnRewards pays player for every city it owns: the
// control reward, plus the total-control reward when it holds the city alone.
func (c *SiteControl) DistributeStartOfTurnRewards(sites []*Site, player *Player) {
	if player == nil {
		return
	}
	for _, s := range sites {
		if !s.IsCity() || s.Owner != player.Color {
			continue
		}
		addResource(c.resources, player, s.ControlResource, s.ControlAmount, "income:"+s.Name)
		if s.HasTotalControl {
			addResource(c.resources, player, s.TotalControlResource, s.TotalControlAmount, "total_income:"+s.Name)
		}
	}
}
