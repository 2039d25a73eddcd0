package projection

import (
	"github.com/expert-sys/positive-edge/internal/models"
	"github.com/expert-sys/positive-edge/internal/stats"
)

// archetypeCaps is the hard ceiling on any single calibrated probability per
// archetype. Even a star's most automatic prop misses often enough that
// nothing should ever price like a lock.
var archetypeCaps = map[models.Archetype]float64{
	models.ArchetypeStar:       0.82,
	models.ArchetypeHighUsage:  0.80,
	models.ArchetypeSpecialist: 0.78,
	models.ArchetypeRolePlayer: 0.75,
	models.ArchetypeLowMinutes: 0.70,
}

// ClassifyArchetype buckets the player by minutes load and usage over the
// filtered logs.
func ClassifyArchetype(logs []models.GameLog) models.Archetype {
	if len(logs) == 0 {
		return models.ArchetypeLowMinutes
	}

	n := len(logs)
	if n > 20 {
		n = 20
	}
	minutes := stats.Mean(statValues(logs, models.StatMinutes, n))
	points := stats.Mean(statValues(logs, models.StatPoints, n))
	usage := usagePerMinute(logs, n)

	switch {
	case minutes < 18:
		return models.ArchetypeLowMinutes
	case minutes >= 32 && points >= 22:
		return models.ArchetypeStar
	case usage >= 0.55:
		return models.ArchetypeHighUsage
	case points >= 12:
		return models.ArchetypeSpecialist
	default:
		return models.ArchetypeRolePlayer
	}
}

// ArchetypeCap returns the probability ceiling for an archetype.
func ArchetypeCap(a models.Archetype) float64 {
	if cap, ok := archetypeCaps[a]; ok {
		return cap
	}
	return 0.75
}
