package domain

type EventType string

const (
	ItemCreatedEvent EventType = "item_created"
	ItemUpdatedEvent EventType = "item_updated"
	ItemDeletedEvent EventType = "item_deleted"
)

type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

type ItemRef struct {
	ID string `json:"id"`
}

func ItemCreated(item Item) Event {
	return Event{Type: ItemCreatedEvent, Data: item}
}

func ItemUpdated(item Item) Event {
	return Event{Type: ItemUpdatedEvent, Data: item}
}

// ItemDeleted carries only the identity of the removed item.
func ItemDeleted(id string) Event {
	return Event{Type: ItemDeletedEvent, Data: ItemRef{ID: id}}
}

// Key identifies the item an event is about.
func (e Event) Key() string {
	switch d := e.Data.(type) {
	case Item:
		return d.ID
	case ItemRef:
		return d.ID
	}
	return ""
}
