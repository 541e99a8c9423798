package underdark

// Demo site IDs, in the order DemoBoard creates them.
const (
	SiteMenzoberranzan SiteID = iota
	SiteGracklstugh
	SiteBlingdenstone
	SiteChedNasad
	SiteAraumycos
	SiteSkullport
	SiteMantolDerith
)

// DemoBoard returns the small reference board used by the replay tool and
// the service tests: three cities, three starting sites, one plain site and
// five route nodes that belong to no site. It seats up to three players.
func DemoBoard() *Board {
	b := NewBoard()

	sites := []struct {
		spec  SiteSpec
		nodes int
	}{
		{SiteSpec{Name: "Menzoberranzan", Kind: City, ControlResource: Influence, ControlAmount: 2, TotalControlResource: VictoryPoints, TotalControlAmount: 2}, 3},
		{SiteSpec{Name: "Gracklstugh", Kind: City, ControlResource: Power, ControlAmount: 1, TotalControlResource: VictoryPoints, TotalControlAmount: 2}, 2},
		{SiteSpec{Name: "Blingdenstone", Kind: Starting, ControlResource: Influence, ControlAmount: 1, TotalControlResource: VictoryPoints, TotalControlAmount: 1}, 2},
		{SiteSpec{Name: "Ched Nasad", Kind: Starting, ControlResource: Power, ControlAmount: 1, TotalControlResource: VictoryPoints, TotalControlAmount: 1}, 2},
		{SiteSpec{Name: "Araumycos", Kind: NonCity, ControlResource: VictoryPoints, ControlAmount: 1, TotalControlResource: VictoryPoints, TotalControlAmount: 1}, 1},
		{SiteSpec{Name: "Skullport", Kind: City, ControlResource: Power, ControlAmount: 2, TotalControlResource: VictoryPoints, TotalControlAmount: 2}, 2},
		{SiteSpec{Name: "Mantol-Derith", Kind: Starting, ControlResource: Influence, ControlAmount: 1, TotalControlResource: VictoryPoints, TotalControlAmount: 1}, 2},
	}
	for _, s := range sites {
		site := b.AddSite(s.spec)
		for i := 0; i < s.nodes; i++ {
			b.AddNode(site.ID)
		}
	}

	route := func() NodeID { return b.AddNode(NoSite).ID }
	node := func(s SiteID, i int) NodeID { return b.Sites[s].Nodes[i] }

	r0, r1, r2, r3, r4 := route(), route(), route(), route(), route()

	b.Connect(node(SiteBlingdenstone, 0), r0)
	b.Connect(r0, node(SiteMenzoberranzan, 0))
	b.Connect(node(SiteMenzoberranzan, 2), r1)
	b.Connect(r1, node(SiteGracklstugh, 0))
	b.Connect(node(SiteGracklstugh, 1), r2)
	b.Connect(r2, node(SiteChedNasad, 0))
	b.Connect(node(SiteChedNasad, 1), r3)
	b.Connect(r3, node(SiteAraumycos, 0))
	b.Connect(node(SiteAraumycos, 0), r4)
	b.Connect(r4, node(SiteSkullport, 0))
	b.Connect(node(SiteBlingdenstone, 1), r4)
	b.Connect(node(SiteSkullport, 1), node(SiteMenzoberranzan, 1))
	b.Connect(node(SiteMantolDerith, 0), r2)
	b.Connect(node(SiteMantolDerith, 1), r1)

	return b
}
