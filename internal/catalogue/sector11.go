package catalogue

import "github.com/aoleynichenko/EXP-T-sub002/internal/config"

// newSector11 builds the 1h1p sector (one valence hole, one valence
// particle): amplitudes E1 (rank 2, vg) and E2 (rank 4, pvhp),
// grounded on sector11.c. It is the first sector whose immediate
// lower neighbours are themselves valence sectors (0h1p and 1h0p)
// rather than the bare ground state; only the 0h0p fold is modelled
// here (documented scope reduction in DESIGN.md).
func newSector11() valenceSector {
	return valenceSector{
		sec: config.Sector{H: 1, P: 1},
		channels: []valenceChannel{
			{Channel: Channel{Name: "e1", Rank: 2}, Classes: "vg", Order: "12", Drive: "vg", FockAxis: 0, FockIntegral: "vv"},
			{Channel: Channel{Name: "e2", Rank: 4}, Classes: "pvhp", Order: "1234", Drive: "pvhp", FockAxis: 1, FockIntegral: "vv"},
		},
		integrals:  []string{"vg", "vp", "hg", "vv", "pvhp"},
		foldSector: config.Sector{H: 0, P: 0},
		foldRank0:  true,
	}
}
