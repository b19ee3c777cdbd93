package domain

// Email is an outbound message. HTML is optional; Text is always set.
// It is also the JSON payload of a queued email job.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// ListingEvent is published after a listing mutation succeeds.
type ListingEvent struct {
	Type    string `json:"type"` // "listing.created" | "listing.updated" | "listing.deleted"
	BikeID  string `json:"bikeId"`
	OwnerID string `json:"ownerId"`
	At      string `json:"at"`
}

const (
	EventListingCreated = "listing.created"
	EventListingUpdated = "listing.updated"
	EventListingDeleted = "listing.deleted"
)
