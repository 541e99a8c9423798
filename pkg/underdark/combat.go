package underdark

import "github.com/rs/zerolog"

// DeployPowerCost is charged for each troop deployed during play.
const DeployPowerCost = 1

// CombatResolver applies board mutations that callers have already
// validated with Rules. It performs no legality checks of its own.
type CombatResolver struct {
	board     *Board
	phase     PhaseSource
	resources ResourceMutator
	recalc    func(*Site)
	log       zerolog.Logger
}

// NewCombatResolver creates a CombatResolver. recalc runs after every
// mutation for each site it touched.
func NewCombatResolver(board *Board, phase PhaseSource, resources ResourceMutator, recalc func(*Site), log zerolog.Logger) *CombatResolver {
	if resources == nil {
		resources = DirectResources{}
	}
	if recalc == nil {
		recalc = func(*Site) {}
	}
	return &CombatResolver{board: board, phase: phase, resources: resources, recalc: recalc, log: log}
}

// ExecuteDeploy puts one of player's troops from barracks on node.
func (c *CombatResolver) ExecuteDeploy(node *MapNode, player *Player) {
	c.placeTroop(node, player)
	if c.phase.Phase() == Playing {
		c.resources.AddPower(player, -DeployPowerCost, "deploy")
	}
	c.log.Debug().Int("node", int(node.ID)).Str("color", player.Color.String()).Msg("Troop deployed")
	c.touch(node)
}

// ExecuteAssassinate kills the troop on node and hangs it in attacker's
// trophy hall.
func (c *CombatResolver) ExecuteAssassinate(node *MapNode, attacker *Player) {
	victim := c.kill(node, attacker)
	c.log.Debug().Int("node", int(node.ID)).Str("attacker", attacker.Color.String()).
		Str("victim", victim.String()).Msg("Troop assassinated")
	c.touch(node)
}

// ExecuteMove relocates the troop on source to destination.
func (c *CombatResolver) ExecuteMove(source, destination *MapNode, player *Player) {
	destination.Occupant = source.Occupant
	source.Occupant = ColorNone
	c.log.Debug().Int("from", int(source.ID)).Int("to", int(destination.ID)).
		Str("mover", player.Color.String()).Str("troop", destination.Occupant.String()).Msg("Troop moved")
	c.touch(source)
	if destination.Site != source.Site {
		c.touch(destination)
	}
}

// ExecuteSupplant kills the troop on node and deploys one of attacker's
// troops in its place. The card that granted it pays for the deployment.
func (c *CombatResolver) ExecuteSupplant(node *MapNode, attacker *Player) {
	victim := c.kill(node, attacker)
	c.placeTroop(node, attacker)
	c.log.Debug().Int("node", int(node.ID)).Str("attacker", attacker.Color.String()).
		Str("victim", victim.String()).Msg("Troop supplanted")
	c.touch(node)
}

// ExecuteReturnTroop clears node and gives the troop back to owner. A nil
// owner is used for neutral troops, which simply leave the board.
func (c *CombatResolver) ExecuteReturnTroop(node *MapNode, owner *Player) {
	returned := node.Occupant
	node.Occupant = ColorNone
	if owner != nil {
		owner.TroopsInBarracks++
	}
	c.log.Debug().Int("node", int(node.ID)).Str("troop", returned.String()).Msg("Troop returned")
	c.touch(node)
}

func (c *CombatResolver) placeTroop(node *MapNode, player *Player) {
	node.Occupant = player.Color
	player.TroopsInBarracks--
}

func (c *CombatResolver) kill(node *MapNode, attacker *Player) Color {
	victim := node.Occupant
	node.Occupant = ColorNone
	attacker.TrophyHall++
	return victim
}

func (c *CombatResolver) touch(node *MapNode) {
	if s := c.board.SiteOf(node); s != nil {
		c.recalc(s)
	}
}
