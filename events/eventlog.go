package events

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// envelope is the serialized form of a logged event.
type envelope struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Payload any    `json:"payload"`
}

// EventLog buffers the JSON-encoded form of every emitted event until it is
// drained, typically once per simulation tick.
type EventLog struct {
	Tick   uint64
	Events [][]byte

	capacity int
}

func NewEventLog() *EventLog {
	return NewEventLogWithCapacity(0)
}

// NewEventLogWithCapacity pre-sizes the buffer for the expected number of
// events per drain cycle. The capacity is retained across Drain and Clear.
func NewEventLogWithCapacity(capacity int) *EventLog {
	return &EventLog{
		Tick:     0,
		Events:   make([][]byte, 0, capacity),
		capacity: capacity,
	}
}

// AddEvent appends the event to the buffer under the given unique id.
func (l *EventLog) AddEvent(id string, ev Event) error {
	data, err := json.Marshal(envelope{
		ID:      id,
		Kind:    ev.Kind(),
		Payload: ev,
	})
	if err != nil {
		return eris.Wrap(err, "must use a json serializable type for emitting events")
	}
	l.Events = append(l.Events, data)
	return nil
}

// SetTick tags the buffered events with the tick they belong to.
func (l *EventLog) SetTick(tick uint64) {
	l.Tick = tick
}

// Drain returns the buffered events in emission order and clears the buffer.
func (l *EventLog) Drain() [][]byte {
	drained := l.Events
	l.Events = make([][]byte, 0, l.capacity)
	return drained
}

func (l *EventLog) Clear() {
	l.Tick = 0
	l.Events = make([][]byte, 0, l.capacity)
}
