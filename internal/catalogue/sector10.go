package catalogue

import "github.com/aoleynichenko/EXP-T-sub002/internal/config"

// newSector10 builds the 1h0p sector (one valence hole): amplitudes
// H1 (rank 2) and H2 (rank 4), grounded on sector10.c -- the
// hole-analog of sector01.c.
func newSector10() valenceSector {
	return valenceSector{
		sec: config.Sector{H: 1, P: 0},
		channels: []valenceChannel{
			{Channel: Channel{Name: "h1", Rank: 2}, Classes: "hg", Order: "12", Drive: "hg", FockAxis: 1, FockIntegral: "gg"},
			{Channel: Channel{Name: "h2", Rank: 4}, Classes: "hhgg", Order: "1234", Drive: "hhgg", FockAxis: 2, FockIntegral: "gg"},
		},
		integrals:  []string{"hg", "gg", "hhgg"},
		foldSector: config.Sector{H: 0, P: 0},
		foldRank0:  true,
	}
}
