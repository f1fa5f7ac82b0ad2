package domain

// Thresholds, in consecutive days without water, applied by the decay engine.
const (
	healthyDiesAfter   = 8
	healthyWiltsAfter  = 5
	okayDiesAfter      = 3
	streakBreaksAfter  = 2
	bigShrinksAfter    = 4
	mediumShrinksAfter = 6
)

// ApplyNonWatering returns the plant as it is after a day without water.
// Growth stage is never changed here.
func ApplyNonWatering(p Plant) Plant {
	days := p.DaysWithoutWater + 1

	p.Health = decayedHealth(p.Health, days)
	if days >= streakBreaksAfter {
		p.WaterStreak = 0
	}
	p.Size = decayedSize(p.Size, days)
	p.DaysWithoutWater = days
	return p
}

func decayedHealth(current Health, days int) Health {
	switch current {
	case HealthHealthy:
		switch {
		case days >= healthyDiesAfter:
			return HealthDead
		case days >= healthyWiltsAfter:
			return HealthOkay
		default:
			return HealthHealthy
		}
	case HealthOkay:
		if days >= okayDiesAfter {
			return HealthDead
		}
		return HealthOkay
	default:
		return HealthDead
	}
}

// decayedSize shrinks at most one step per day, judged on the size the plant
// had at the start of the day.
func decayedSize(current Size, days int) Size {
	switch {
	case current == SizeBig && days >= bigShrinksAfter:
		return SizeMedium
	case current == SizeMedium && days >= mediumShrinksAfter:
		return SizeSmall
	default:
		return current
	}
}
