package domain

// Event is something that happened to a plant, published to interested adapters.
type Event string

const (
	EventWatered Event = "watered"

	// Health lifecycle events.
	EventRevive   Event = "revive"
	EventFlourish Event = "flourish"
	EventWilt     Event = "wilt"
	EventWither   Event = "wither"
)

// Transition defines a valid health change: an event moves a plant from Src to Dst.
type Transition struct {
	Event Event
	Src   Health
	Dst   Health
}

// Transitions defines every health change the watering and decay engines may make.
// This is domain knowledge consumed by the FSM adapter.
var Transitions = []Transition{
	{Event: EventRevive, Src: HealthDead, Dst: HealthOkay},
	{Event: EventFlourish, Src: HealthOkay, Dst: HealthHealthy},
	{Event: EventWilt, Src: HealthHealthy, Dst: HealthOkay},
	{Event: EventWither, Src: HealthOkay, Dst: HealthDead},
	{Event: EventWither, Src: HealthHealthy, Dst: HealthDead},
}

// HealthEvent names the lifecycle event that moves a plant from src to dst.
// ok is false when health did not change or no such transition exists.
func HealthEvent(src, dst Health) (event Event, ok bool) {
	if src == dst {
		return "", false
	}
	for _, t := range Transitions {
		if t.Src == src && t.Dst == dst {
			return t.Event, true
		}
	}
	return "", false
}
