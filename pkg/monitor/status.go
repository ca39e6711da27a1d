package monitor

import "github.com/itohio/goturbidity/pkg/config"

// Status is the water quality class of a turbidity value.
type Status int

const (
	Distilled      Status = iota // < 1 NTU
	Clear                        // <= 10 NTU
	SlightlyTurbid               // <= 50 NTU
	Turbid                       // <= 100 NTU
	VeryTurbid                   // > 100 NTU
)

func (s Status) String() string {
	switch s {
	case Distilled:
		return "Distilled"
	case Clear:
		return "Clear"
	case SlightlyTurbid:
		return "Slightly turbid"
	case Turbid:
		return "Turbid"
	case VeryTurbid:
		return "Very turbid"
	}
	return "Unknown"
}

// Classify returns the water quality class of ntu.
func Classify(ntu float64) Status {
	switch {
	case ntu < 1:
		return Distilled
	case ntu <= 10:
		return Clear
	case ntu <= 50:
		return SlightlyTurbid
	case ntu <= 100:
		return Turbid
	}
	return VeryTurbid
}

// LevelOf returns the alert level (0..3) of ntu. A level is reached when ntu
// is strictly above its threshold.
func LevelOf(ntu float64, cfg config.AlertConfig) int {
	switch {
	case ntu > cfg.Level3:
		return 3
	case ntu > cfg.Level2:
		return 2
	case ntu > cfg.Level1:
		return 1
	}
	return 0
}
