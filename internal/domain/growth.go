package domain

// Thresholds applied when a plant is watered.
const (
	reviveStreak   = 5 // dead -> okay
	flourishStreak = 7 // okay -> healthy
	sustainStreak  = 2 // healthy stays healthy

	maxGrowthFromStreak = 3
	maxGrowthFromTotal  = 2
	totalPerGrowthStage = 5
)

// ApplyWatering returns the plant as it is after being watered on date.
// It must be called at most once per plant and date; the watering event's
// uniqueness guarantees that, not this function.
func ApplyWatering(p Plant, date Date) Plant {
	streak := 1
	if p.Watered() && date.DaysSince(p.LastWatered) == 1 {
		streak = p.WaterStreak + 1
	}
	total := p.TotalWaterCount + 1

	health := wateredHealth(p.Health, streak)
	stage := growthStage(streak, total)

	p.WaterStreak = streak
	p.TotalWaterCount = total
	p.Health = health
	p.GrowthStage = stage
	p.Size = wateredSize(health, stage)
	p.DaysWithoutWater = 0
	p.LastWatered = date
	return p
}

func wateredHealth(current Health, streak int) Health {
	switch current {
	case HealthDead:
		// Streaks of 3-4 are still dead; see Plant.Recovering.
		if streak >= reviveStreak {
			return HealthOkay
		}
		return HealthDead
	case HealthOkay:
		if streak >= flourishStreak {
			return HealthHealthy
		}
		return HealthOkay
	default:
		if streak >= sustainStreak {
			return HealthHealthy
		}
		return HealthOkay
	}
}

func growthStage(streak, total int) int {
	fromStreak := min(maxGrowthFromStreak, streak/2)
	fromTotal := min(maxGrowthFromTotal, total/totalPerGrowthStage)
	return max(MinGrowthStage, min(MaxGrowthStage, fromStreak+fromTotal+1))
}

func wateredSize(health Health, stage int) Size {
	switch health {
	case HealthDead:
		return SizeSmall
	case HealthOkay:
		if stage >= 4 {
			return SizeMedium
		}
		return SizeSmall
	default:
		switch {
		case stage >= 4:
			return SizeBig
		case stage >= 3:
			return SizeMedium
		default:
			return SizeSmall
		}
	}
}
