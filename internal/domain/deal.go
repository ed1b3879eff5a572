package domain

import "time"

// DealEventType is the frame tag the Deal Service uses for new deals. Frames
// with any other tag are ignored by the notification channel.
const DealEventType = "deal_created"

// DealEvent is a "new deal posted" notification arriving out of band. It is
// not retained; it only drives the unseen marker.
type DealEvent struct {
	DealID     string
	ObservedAt time.Time
}

// UnseenState is the badge state persisted across reloads.
type UnseenState struct {
	HasUnseen          bool      `json:"has_unseen"`
	LastAcknowledgedAt time.Time `json:"last_acknowledged_at"`
}
