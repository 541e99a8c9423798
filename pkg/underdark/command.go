package underdark

import "fmt"

// CommandKind names an inbound entry point of the rules core.
type CommandKind string

const (
	CmdDeploy            CommandKind = "deploy"
	CmdClick             CommandKind = "click"
	CmdStartAssassinate  CommandKind = "start_assassinate"
	CmdStartReturnSpy    CommandKind = "start_return_spy"
	CmdFinalizeSpyReturn CommandKind = "finalize_spy_return"
	CmdCancel            CommandKind = "cancel"
	CmdPlayCard          CommandKind = "play_card"
	CmdBuyCard           CommandKind = "buy_card"
	CmdSelectCard        CommandKind = "select_card"
	CmdEndTurn           CommandKind = "end_turn"
)

// NoNode marks a command that carries no node.
const NoNode NodeID = -1

// Command is one discrete player input. Recorded in order, a match's
// commands rebuild it exactly.
type Command struct {
	Seq      int         `json:"seq"`
	Kind     CommandKind `json:"kind"`
	Color    Color       `json:"color"`
	CardID   string      `json:"card_id,omitempty"`
	NodeID   NodeID      `json:"node_id"`
	SiteID   SiteID      `json:"site_id"`
	SpyColor Color       `json:"spy_color,omitempty"`
	HasFocus bool        `json:"has_focus,omitempty"`
}

// NewCommand returns a command of kind for color with no node or site.
func NewCommand(kind CommandKind, color Color) Command {
	return Command{Kind: kind, Color: color, NodeID: NoNode, SiteID: NoSite}
}

// ClickNode returns a click on a node.
func ClickNode(color Color, node NodeID) Command {
	c := NewCommand(CmdClick, color)
	c.NodeID = node
	return c
}

// ClickSite returns a click on a site that hit no particular node.
func ClickSite(color Color, site SiteID) Command {
	c := NewCommand(CmdClick, color)
	c.SiteID = site
	return c
}

// WithNode returns a copy of c aimed at a node.
func (c Command) WithNode(id NodeID) Command {
	c.NodeID = id
	return c
}

// WithCard returns a copy of c referring to a card.
func (c Command) WithCard(id string) Command {
	c.CardID = id
	return c
}

func (c Command) String() string {
	return fmt.Sprintf("#%d %s %s card=%q node=%d site=%d", c.Seq, c.Color, c.Kind, c.CardID, c.NodeID, c.SiteID)
}

// Apply routes cmd through the matching entry point. Gameplay rejections
// are reported through the action listeners; the returned error only
// flags commands that cannot apply to this match at all.
func (m *Match) Apply(cmd Command) error {
	if m.finished {
		return ErrMatchOver
	}
	p := m.ActivePlayer()
	if cmd.Color != p.Color {
		return fmt.Errorf("%w: %s to move, got %s", ErrOutOfTurn, p.Color, cmd.Color)
	}

	switch cmd.Kind {
	case CmdDeploy:
		node := m.Board.Node(cmd.NodeID)
		if node == nil {
			return fmt.Errorf("%w: %d", ErrUnknownNode, cmd.NodeID)
		}
		m.Actions.TryDeploy(node)
	case CmdClick:
		node, site, err := m.resolveTarget(cmd)
		if err != nil {
			return err
		}
		m.Actions.HandleTargetClick(node, site)
	case CmdStartAssassinate:
		m.Actions.TryStartAssassinate()
	case CmdStartReturnSpy:
		m.Actions.TryStartReturnSpy()
	case CmdFinalizeSpyReturn:
		m.Actions.FinalizeSpyReturn(cmd.SpyColor)
	case CmdCancel:
		m.Actions.CancelTargeting()
	case CmdPlayCard:
		return m.PlayCard(cmd.CardID, cmd.HasFocus)
	case CmdBuyCard:
		return m.BuyCard(cmd.CardID)
	case CmdSelectCard:
		card := p.FindCard(cmd.CardID)
		if card == nil {
			return fmt.Errorf("%w: %s", ErrUnknownCard, cmd.CardID)
		}
		if m.Actions.State() == SelectingCardToPromote {
			m.Actions.SelectCardToPromote(card)
		} else {
			m.Actions.SelectHandCard(card)
		}
	case CmdEndTurn:
		_, err := m.EndTurn()
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Kind)
	}
	return nil
}

func (m *Match) resolveTarget(cmd Command) (*MapNode, *Site, error) {
	var node *MapNode
	var site *Site
	if cmd.NodeID != NoNode {
		if node = m.Board.Node(cmd.NodeID); node == nil {
			return nil, nil, fmt.Errorf("%w: %d", ErrUnknownNode, cmd.NodeID)
		}
	}
	if cmd.SiteID != NoSite {
		if site = m.Board.Site(cmd.SiteID); site == nil {
			return nil, nil, fmt.Errorf("%w: %d", ErrUnknownSite, cmd.SiteID)
		}
	}
	if node == nil && site == nil {
		return nil, nil, ErrUnknownNode
	}
	return node, site, nil
}

// Replay applies cmds in order and stops at the first malformed one.
func (m *Match) Replay(cmds []Command) error {
	for _, c := range cmds {
		if err := m.Apply(c); err != nil {
			return fmt.Errorf("replay %s: %w", c, err)
		}
	}
	return nil
}
