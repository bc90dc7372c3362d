package catalogue

import "github.com/aoleynichenko/EXP-T-sub002/internal/config"

// newSector02 builds the 0h2p sector (two valence particles):
// amplitudes X1 (rank 2, vv) and X2 (rank 4, vvpp), grounded on
// sector02.c, folding in the 0h0p ground state only; the 0h1p sector's
// converged amplitudes are not folded in.
func newSector02() valenceSector {
	return valenceSector{
		sec: config.Sector{H: 0, P: 2},
		channels: []valenceChannel{
			{Channel: Channel{Name: "x1", Rank: 2}, Classes: "vv", Order: "12", Drive: "vv", FockAxis: 0, FockIntegral: "vv"},
			{Channel: Channel{Name: "x2", Rank: 4}, Classes: "vvpp", Order: "1234", Drive: "vvpp", FockAxis: 0, FockIntegral: "vv"},
		},
		integrals:  []string{"vv", "vp", "vvpp"},
		foldSector: config.Sector{H: 0, P: 0},
		foldRank0:  true,
	}
}
