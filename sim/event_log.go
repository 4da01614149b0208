package sim

import (
	"bytes"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Describe renders ev as a sentence. It must be called before ev is applied,
// while the bus still reports the stop the event happens at.
func Describe(ev Event) string {
	switch e := ev.(type) {
	case *BoardEvent:
		return fmt.Sprintf("Passenger boards bus %s at stop %d with destination %d", e.Bus, e.Bus.Stop().ID, e.Dest)
	case *DisembarkEvent:
		return fmt.Sprintf("Passenger disembarks bus %s at stop %d", e.Bus, e.Bus.Stop().ID)
	case *DepartEvent:
		return fmt.Sprintf("Bus %s leaves stop %d", e.Bus, e.Bus.Stop().ID)
	case *ArrivalEvent:
		return fmt.Sprintf("Bus %s arrives at stop %d", e.Bus, e.Bus.Stop().ID)
	case *PassengerEvent:
		return fmt.Sprintf("A new passenger enters at stop %d with destination %d", e.Origin, e.Dest)
	}
	return fmt.Sprintf("%T", ev)
}

// ANSI colours per event kind.
var kindColours = map[EventKind]int{
	KindArrival:      34, // blue
	KindDepart:       31, // red
	KindBoard:        33, // yellow
	KindDisembark:    36, // cyan
	KindNewPassenger: 35, // magenta
}

// eventFormatter prints only the message, optionally coloured by the "kind" field.
type eventFormatter struct {
	colour bool
}

func (f *eventFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	kind, tagged := entry.Data["kind"].(EventKind)
	if code, ok := kindColours[kind]; ok && tagged && f.colour {
		fmt.Fprintf(&b, "\x1b[%dm%s\x1b[0m\n", code, entry.Message)
	} else {
		b.WriteString(entry.Message)
		b.WriteByte('\n')
	}
	return b.Bytes(), nil
}

// EventLogger writes one line per event, e.g.
// "Bus 1.0 leaves stop 1 at time 0.7312".
type EventLogger struct {
	log *logrus.Logger
}

// NewEventLogger returns an EventLogger writing to w, with ANSI colours when colour is set.
func NewEventLogger(w io.Writer, colour bool) *EventLogger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&eventFormatter{colour: colour})
	l.SetLevel(logrus.InfoLevel)
	return &EventLogger{log: l}
}

// BeforeEvent logs ev while the pre-transition state still names its stop.
func (l *EventLogger) BeforeEvent(ev Event, now float64) {
	l.log.WithField("kind", ev.Kind()).Infof("%s at time %g", Describe(ev), now)
}

func (l *EventLogger) AfterEvent(Event, float64) {}
