package catalogue

import "github.com/aoleynichenko/EXP-T-sub002/internal/config"

// newSector12 builds the 1h2p sector (one valence hole, two valence
// particles): amplitudes M1 (rank 2) and M2 (rank 4), the last sector
// of the fixed solve order (spec.md §2), grounded on
// rcc/models/sector12_ccsdt.c's shape and reduced the same way as
// sector03 (DESIGN.md).
func newSector12() valenceSector {
	return valenceSector{
		sec: config.Sector{H: 1, P: 2},
		channels: []valenceChannel{
			{Channel: Channel{Name: "m1", Rank: 2}, Classes: "vg", Order: "12", Drive: "vg", FockAxis: 0, FockIntegral: "vv"},
			{Channel: Channel{Name: "m2", Rank: 4}, Classes: "pvhp", Order: "1234", Drive: "pvhp", FockAxis: 1, FockIntegral: "vv"},
		},
		integrals:  []string{"vg", "vv", "pvhp"},
		foldSector: config.Sector{H: 1, P: 1},
		foldRank0:  false,
	}
}
