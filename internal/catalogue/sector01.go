package catalogue

import "github.com/aoleynichenko/EXP-T-sub002/internal/config"

// newSector01 builds the 0h1p sector (one valence particle): cluster
// amplitudes S1 (rank 2, one valence-particle line) and S2 (rank 4),
// grounded on sector01.c.
func newSector01() valenceSector {
	return valenceSector{
		sec: config.Sector{H: 0, P: 1},
		channels: []valenceChannel{
			{Channel: Channel{Name: "s1", Rank: 2}, Classes: "vh", Order: "12", Drive: "vh", FockAxis: 0, FockIntegral: "vv"},
			{Channel: Channel{Name: "s2", Rank: 4}, Classes: "vhpp", Order: "1234", Drive: "vhpp", FockAxis: 0, FockIntegral: "vv"},
		},
		integrals:  []string{"vh", "vp", "vv", "vhpp"},
		foldSector: config.Sector{H: 0, P: 0},
		foldRank0:  true,
	}
}
