// Package rider classifies an athlete from their power profile: curve powers
// at sprint, anaerobic and VO2max durations normalized against FTP.
package rider

import "github.com/velolab/trainsci/pdc"

// Profile holds curve powers as a percentage of FTP.
type Profile struct {
	Neuromuscular float64 `json:"neuromuscular"` // 5 s
	Anaerobic     float64 `json:"anaerobic"`     // 1 min
	VO2Max        float64 `json:"vo2max"`        // 5 min
	Threshold     float64 `json:"threshold"`     // FTP itself, 100 by construction
}

// Typical percent-of-FTP ratios for an all-round trained cyclist, used to
// rank a rider's own strengths.
const (
	typicalNeuromuscular = 170.0
	typicalAnaerobic     = 120.0
	typicalVO2Max        = 100.0
)

// BuildProfile normalizes curve powers at 5 s, 1 min and 5 min against FTP.
// Missing durations leave the component at zero, which Classify reports as
// Unknown.
func BuildProfile(curve pdc.Curve, ftpWatts uint16) Profile {
	if ftpWatts == 0 {
		return Profile{}
	}
	pct := func(durationSecs uint32) float64 {
		w, ok := curve.PowerAt(durationSecs)
		if !ok {
			return 0
		}
		return float64(w) / float64(ftpWatts) * 100
	}
	return Profile{
		Neuromuscular: pct(5),
		Anaerobic:     pct(60),
		VO2Max:        pct(300),
		Threshold:     100,
	}
}

// Area names one band of the power profile.
type Area string

const (
	AreaNeuromuscular Area = "neuromuscular"
	AreaAnaerobic     Area = "anaerobic"
	AreaVO2Max        Area = "vo2max"
)

// StrongestArea returns the component furthest above its typical ratio.
func (p Profile) StrongestArea() Area {
	nm := p.Neuromuscular / typicalNeuromuscular
	an := p.Anaerobic / typicalAnaerobic
	vo := p.VO2Max / typicalVO2Max

	switch {
	case nm >= an && nm >= vo:
		return AreaNeuromuscular
	case an >= vo:
		return AreaAnaerobic
	default:
		return AreaVO2Max
	}
}

// WeakestArea returns the component furthest below its typical ratio.
func (p Profile) WeakestArea() Area {
	nm := p.Neuromuscular / typicalNeuromuscular
	an := p.Anaerobic / typicalAnaerobic
	vo := p.VO2Max / typicalVO2Max

	switch {
	case nm <= an && nm <= vo:
		return AreaNeuromuscular
	case an <= vo:
		return AreaAnaerobic
	default:
		return AreaVO2Max
	}
}

// Type is the rider classification.
type Type string

const (
	Sprinter     Type = "sprinter"
	Pursuiter    Type = "pursuiter"
	TimeTrialist Type = "time_trialist"
	AllRounder   Type = "all_rounder"
	Unknown      Type = "unknown"
)

// Classify maps a profile to a rider type. The checks form an ordered
// decision list, first match wins; a profile with any missing component is
// Unknown before the list is consulted.
func Classify(p Profile) Type {
	if p.Neuromuscular <= 0 || p.Anaerobic <= 0 || p.VO2Max <= 0 {
		return Unknown
	}
	switch {
	case p.Neuromuscular > 180:
		return Sprinter
	case p.Anaerobic > 130 && p.Neuromuscular > 150:
		return Pursuiter
	case p.VO2Max > 85 && p.Neuromuscular < 160:
		return TimeTrialist
	default:
		return AllRounder
	}
}

// Info carries the static descriptive text for a rider type.
type Info struct {
	Description   string
	TrainingFocus string
	SuitedEvents  []string
}

var typeInfo = map[Type]Info{
	Sprinter: {
		Description:   "Explosive top-end power well beyond typical ratios; wins come in the final seconds.",
		TrainingFocus: "Protect the sprint with neuromuscular work while lifting threshold enough to be there at the finish.",
		SuitedEvents:  []string{"criteriums", "track sprint", "flat road races"},
	},
	Pursuiter: {
		Description:   "Strong one-to-five-minute power; thrives on short, sustained surges.",
		TrainingFocus: "VO2max intervals and race-pace efforts of one to five minutes.",
		SuitedEvents:  []string{"individual pursuit", "short time trials", "punchy circuits"},
	},
	TimeTrialist: {
		Description:   "Holds a high fraction of FTP for long durations with a modest sprint.",
		TrainingFocus: "Sweet-spot and threshold volume; aerodynamic position work pays double.",
		SuitedEvents:  []string{"time trials", "triathlon bike legs", "breakaways"},
	},
	AllRounder: {
		Description:   "No single band dominates; competitive across a wide range of demands.",
		TrainingFocus: "Periodize by goal event rather than by profile gap.",
		SuitedEvents:  []string{"stage races", "road races", "gran fondos"},
	},
	Unknown: {
		Description:   "Not enough best-effort data across durations to classify.",
		TrainingFocus: "Record maximal efforts at 5 seconds, 1 minute and 5 minutes.",
		SuitedEvents:  nil,
	},
}

// InfoFor returns the static text for a rider type.
func InfoFor(t Type) Info {
	if info, ok := typeInfo[t]; ok {
		return info
	}
	return typeInfo[Unknown]
}
