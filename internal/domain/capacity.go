package domain

// DefaultDailyLimit is the number of plants that may be watered per day
// on a freshly created store.
const DefaultDailyLimit = 4

// LimitRange is the admissible range for the daily watering limit.
type LimitRange struct {
	Min int
	Max int
}

// DefaultLimitRange is the policy range for the daily watering limit.
var DefaultLimitRange = LimitRange{Min: 1, Max: 50}

// Check returns an InvalidLimitError if limit is outside r.
func (r LimitRange) Check(limit int) error {
	if limit < r.Min || limit > r.Max {
		return &InvalidLimitError{Limit: limit, Range: r}
	}
	return nil
}

// Admission is the Capacity Gate's answer for one watering request.
type Admission struct {
	Limit          int
	AlreadyWatered int
	Requested      int
	Granted        int
}

// Remaining is the capacity left on the date before this request.
func (a Admission) Remaining() int {
	return max(0, a.Limit-a.AlreadyWatered)
}

// LimitReached reports whether no capacity was left for the date.
func (a Admission) LimitReached() bool {
	return a.Remaining() == 0
}
