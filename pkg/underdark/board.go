package underdark

import "sort"

// NodeID is the dense index of a node on its board.
type NodeID int

// SiteID is the dense index of a site on its board.
type SiteID int

// NoSite marks a node that belongs to no site.
const NoSite SiteID = -1

// SiteKind discriminates the site variants.
type SiteKind int

const (
	City     SiteKind = iota // Pays passive income to its owner
	NonCity                  // Scores control but pays no income
	Starting                 // NonCity site that accepts setup deployments
)

func (k SiteKind) String() string {
	switch k {
	case City:
		return "city"
	case NonCity:
		return "non_city"
	case Starting:
		return "starting"
	default:
		return "unknown"
	}
}

// MapNode is a single troop slot on the board.
type MapNode struct {
	ID        NodeID   `json:"id"`
	Occupant  Color    `json:"occupant,omitempty"`
	Neighbors []NodeID `json:"neighbors,omitempty"`
	Site      SiteID   `json:"site"`
}

// SpySet holds at most one spy per color.
type SpySet map[Color]struct{}

// Add places a spy of c. Returns false if one was already there.
func (s SpySet) Add(c Color) bool {
	if _, ok := s[c]; ok {
		return false
	}
	s[c] = struct{}{}
	return true
}

// Remove takes the spy of c. Returns false if there was none.
func (s SpySet) Remove(c Color) bool {
	if _, ok := s[c]; !ok {
		return false
	}
	delete(s, c)
	return true
}

// Has reports whether a spy of c is present.
func (s SpySet) Has(c Color) bool {
	_, ok := s[c]
	return ok
}

// Len returns the number of spies.
func (s SpySet) Len() int { return len(s) }

// Colors returns the spy colors in sorted order.
func (s SpySet) Colors() []Color {
	out := make([]Color, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Site groups nodes and carries the control rewards for them.
// Owner and HasTotalControl are derived state; only SiteControl writes them.
type Site struct {
	ID                   SiteID   `json:"id"`
	Name                 string   `json:"name"`
	Kind                 SiteKind `json:"kind"`
	ControlResource      Resource `json:"control_resource"`
	ControlAmount        int      `json:"control_amount"`
	TotalControlResource Resource `json:"total_control_resource"`
	TotalControlAmount   int      `json:"total_control_amount"`
	Owner                Color    `json:"owner,omitempty"`
	HasTotalControl      bool     `json:"has_total_control"`
	Spies                SpySet   `json:"spies"`
	Nodes                []NodeID `json:"nodes"`
}

// IsCity reports whether the site pays passive income.
func (s *Site) IsCity() bool { return s.Kind == City }

// SiteSpec describes a site to add to a board.
type SiteSpec struct {
	Name                 string
	Kind                 SiteKind
	ControlResource      Resource
	ControlAmount        int
	TotalControlResource Resource
	TotalControlAmount   int
}

// Board is the arena of nodes and sites for one match. Nodes and sites
// reference each other by index only.
type Board struct {
	Nodes []*MapNode `json:"nodes"`
	Sites []*Site    `json:"sites"`
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{}
}

// AddSite appends a site with no nodes.
func (b *Board) AddSite(spec SiteSpec) *Site {
	s := &Site{
		ID:                   SiteID(len(b.Sites)),
		Name:                 spec.Name,
		Kind:                 spec.Kind,
		ControlResource:      spec.ControlResource,
		ControlAmount:        spec.ControlAmount,
		TotalControlResource: spec.TotalControlResource,
		TotalControlAmount:   spec.TotalControlAmount,
		Spies:                SpySet{},
	}
	b.Sites = append(b.Sites, s)
	return s
}

// AddNode appends an empty node. Pass NoSite for a route node.
func (b *Board) AddNode(site SiteID) *MapNode {
	n := &MapNode{ID: NodeID(len(b.Nodes)), Site: NoSite}
	b.Nodes = append(b.Nodes, n)
	if s := b.Site(site); s != nil {
		n.Site = s.ID
		s.Nodes = append(s.Nodes, n.ID)
	}
	return n
}

// Connect makes a and c neighbors of each other. Repeated calls are no-ops.
func (b *Board) Connect(a, c NodeID) {
	na, nc := b.Node(a), b.Node(c)
	if na == nil || nc == nil || a == c {
		return
	}
	if !containsNode(na.Neighbors, c) {
		na.Neighbors = append(na.Neighbors, c)
	}
	if !containsNode(nc.Neighbors, a) {
		nc.Neighbors = append(nc.Neighbors, a)
	}
}

// Node returns the node with the given id, or nil.
func (b *Board) Node(id NodeID) *MapNode {
	if id < 0 || int(id) >= len(b.Nodes) {
		return nil
	}
	return b.Nodes[id]
}

// Site returns the site with the given id, or nil.
func (b *Board) Site(id SiteID) *Site {
	if id < 0 || int(id) >= len(b.Sites) {
		return nil
	}
	return b.Sites[id]
}

// SiteOf returns the site containing the node, or nil.
func (b *Board) SiteOf(n *MapNode) *Site {
	if n == nil {
		return nil
	}
	return b.Site(n.Site)
}

// SiteHasTroop reports whether any node of the site is occupied by c.
func (b *Board) SiteHasTroop(s *Site, c Color) bool {
	for _, id := range s.Nodes {
		if n := b.Node(id); n != nil && n.Occupant == c {
			return true
		}
	}
	return false
}

// TroopCount returns the number of nodes occupied by c.
func (b *Board) TroopCount(c Color) int {
	count := 0
	for _, n := range b.Nodes {
		if n.Occupant == c {
			count++
		}
	}
	return count
}

// SitesOwnedBy returns the sites currently owned by c.
func (b *Board) SitesOwnedBy(c Color) []*Site {
	var out []*Site
	for _, s := range b.Sites {
		if s.Owner == c {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	c := &Board{
		Nodes: make([]*MapNode, len(b.Nodes)),
		Sites: make([]*Site, len(b.Sites)),
	}
	for i, n := range b.Nodes {
		cp := *n
		cp.Neighbors = append([]NodeID(nil), n.Neighbors...)
		c.Nodes[i] = &cp
	}
	for i, s := range b.Sites {
		cp := *s
		cp.Nodes = append([]NodeID(nil), s.Nodes...)
		cp.Spies = make(SpySet, len(s.Spies))
		for color := range s.Spies {
			cp.Spies[color] = struct{}{}
		}
		c.Sites[i] = &cp
	}
	return c
}

func containsNode(ids []NodeID, id NodeID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
