package sim

// Observer is notified around every applied event. now is the simulated time
// at which the event fires. BeforeEvent sees the pre-transition state,
// AfterEvent the post-transition state.
//
// Observers must not mutate the network.
type Observer interface {
	BeforeEvent(ev Event, now float64)
	AfterEvent(ev Event, now float64)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Before func(ev Event, now float64)
	After  func(ev Event, now float64)
}

func (o ObserverFuncs) BeforeEvent(ev Event, now float64) {
	if o.Before != nil {
		o.Before(ev, now)
	}
}

func (o ObserverFuncs) AfterEvent(ev Event, now float64) {
	if o.After != nil {
		o.After(ev, now)
	}
}
