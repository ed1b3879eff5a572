package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bmsinventoryspace-netizen/BMS/internal/domain"
)

// Handler receives deal events from any source.
type Handler func(domain.DealEvent)

// DealSource delivers "new deal posted" events until ctx is cancelled or the
// transport closes. Sources are best-effort: a dead source must return
// quietly, never crash the rest of the app.
type DealSource interface {
	Run(ctx context.Context, handler Handler)
}

// Badge is the slice of the unseen marker the channel needs.
type Badge interface {
	Observe(at time.Time)
	LastAcknowledgedAt() time.Time
}

type frame struct {
	Type string `json:"type"`
	Date string `json:"date"`
	Data struct {
		ID   string `json:"id"`
		Date string `json:"date"`
	} `json:"data"`
}

// parseFrame decodes an incoming payload. Malformed payloads and frames with
// a foreign type are dropped silently; the channel must not become a source
// of user-visible noise. Frames without a usable timestamp are stamped with
// the arrival time.
func parseFrame(raw []byte, arrivedAt time.Time) (domain.DealEvent, bool) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return domain.DealEvent{}, false
	}
	if f.Type != domain.DealEventType {
		return domain.DealEvent{}, false
	}

	at := arrivedAt
	for _, s := range []string{f.Data.Date, f.Date} {
		if s == "" {
			continue
		}
		if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
			at = parsed
			break
		}
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			at = parsed
			break
		}
	}

	return domain.DealEvent{DealID: f.Data.ID, ObservedAt: at}, true
}
