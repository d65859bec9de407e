// Package metrics merges live sensor readings into a per-instant snapshot:
// filtered and smoothed power, normalized power, zone time, heart rate,
// cadence, speed, distance, energy and training stress.
package metrics

// ZoneBound is one FTP-percent band of a zone table.
type ZoneBound struct {
	Name      string  `json:"name" yaml:"name"`
	MinPctFTP float64 `json:"min_pct_ftp" yaml:"min_pct_ftp"`
	MaxPctFTP float64 `json:"max_pct_ftp" yaml:"max_pct_ftp"`
}

// DefaultZoneBounds is the seven-zone Coggan table.
func DefaultZoneBounds() []ZoneBound {
	return []ZoneBound{
		{Name: "Z1 Active Recovery", MinPctFTP: 0, MaxPctFTP: 55},
		{Name: "Z2 Endurance", MinPctFTP: 55, MaxPctFTP: 75},
		{Name: "Z3 Tempo", MinPctFTP: 75, MaxPctFTP: 90},
		{Name: "Z4 Threshold", MinPctFTP: 90, MaxPctFTP: 105},
		{Name: "Z5 VO2", MinPctFTP: 105, MaxPctFTP: 120},
		{Name: "Z6 Anaerobic", MinPctFTP: 120, MaxPctFTP: 150},
		{Name: "Z7 Neuromuscular", MinPctFTP: 150, MaxPctFTP: 1000},
	}
}

// Zone is one concrete band of the table with watt limits resolved for an
// FTP.
type Zone struct {
	Index    int     `json:"index"`
	Name     string  `json:"name"`
	MinWatts float64 `json:"min_watts"`
	MaxWatts float64 `json:"max_watts"`
}

// Zones is a resolved zone table.
type Zones struct {
	zones []Zone
}

// BuildZones resolves FTP-percent bounds into watt bands. A zero FTP yields
// an empty table.
func BuildZones(bounds []ZoneBound, ftpWatts float64) Zones {
	if ftpWatts <= 0 || len(bounds) == 0 {
		return Zones{}
	}
	zones := make([]Zone, len(bounds))
	for i, b := range bounds {
		zones[i] = Zone{
			Index:    i + 1,
			Name:     b.Name,
			MinWatts: b.MinPctFTP / 100 * ftpWatts,
			MaxWatts: b.MaxPctFTP / 100 * ftpWatts,
		}
	}
	return Zones{zones: zones}
}

// Lookup returns the zone containing the power; ok is false on an empty
// table or a power past the last band.
func (z Zones) Lookup(watts float64) (Zone, bool) {
	for _, zone := range z.zones {
		if watts >= zone.MinWatts && watts < zone.MaxWatts {
			return zone, true
		}
	}
	return Zone{}, false
}

// Len returns the number of bands.
func (z Zones) Len() int {
	return len(z.zones)
}
