package model

// EventType names a broadcast message.
type EventType string

const (
	EventNewPatient   EventType = "NEW_PATIENT"
	EventUpdateVisit  EventType = "UPDATE_VISIT"
	EventNewAction    EventType = "NEW_ACTION"
	EventUpdateAction EventType = "UPDATE_ACTION"
)

// Event is the message pushed to every connected viewer.
type Event struct {
	Type    EventType `json:"type"`
	Patient *Patient  `json:"patient,omitempty"`
	Visit   *Visit    `json:"visit,omitempty"`
	Action  *Action   `json:"action,omitempty"`
}

func NewPatientEvent(p *Patient) Event {
	return Event{Type: EventNewPatient, Patient: p}
}

func UpdateVisitEvent(v *Visit) Event {
	return Event{Type: EventUpdateVisit, Visit: v}
}

func NewActionEvent(a *Action) Event {
	return Event{Type: EventNewAction, Action: a}
}

func UpdateActionEvent(a *Action) Event {
	return Event{Type: EventUpdateAction, Action: a}
}
