package catalogue

import "github.com/aoleynichenko/EXP-T-sub002/internal/config"

// newSector03 builds the 0h3p sector (three valence particles):
// amplitudes Z1 (rank 2) and Z2 (rank 4). The original's three-valence
// diagram expansion (sector03_ccsdt.c) is substantially larger than
// the rest of the hierarchy combined; here it is represented by the
// same driving-term plus Fock-dressing shape as the other valence
// sectors, reusing the two-valence class tags vv/vvpp (documented in
// DESIGN.md). Its lower neighbour 0h2p is not folded in.
func newSector03() valenceSector {
	return valenceSector{
		sec: config.Sector{H: 0, P: 3},
		channels: []valenceChannel{
			{Channel: Channel{Name: "z1", Rank: 2}, Classes: "vv", Order: "12", Drive: "vv", FockAxis: 0, FockIntegral: "vv"},
			{Channel: Channel{Name: "z2", Rank: 4}, Classes: "vvpp", Order: "1234", Drive: "vvpp", FockAxis: 0, FockIntegral: "vv"},
		},
		integrals:  []string{"vv", "vvpp"},
		foldSector: config.Sector{H: 0, P: 2},
		foldRank0:  false,
	}
}
