package catalogue

import "github.com/aoleynichenko/EXP-T-sub002/internal/config"

// newSector20 builds the 2h0p sector (two valence holes): amplitudes
// G1 (rank 2, gg) and G2 (rank 4, hhgg), grounded on sector20.c.
func newSector20() valenceSector {
	return valenceSector{
		sec: config.Sector{H: 2, P: 0},
		channels: []valenceChannel{
			{Channel: Channel{Name: "g1", Rank: 2}, Classes: "gg", Order: "12", Drive: "gg", FockAxis: 0, FockIntegral: "gg"},
			{Channel: Channel{Name: "g2", Rank: 4}, Classes: "hhgg", Order: "1234", Drive: "hhgg", FockAxis: 2, FockIntegral: "gg"},
		},
		integrals:  []string{"gg", "hg", "hhgg"},
		foldSector: config.Sector{H: 0, P: 0},
		foldRank0:  true,
	}
}
