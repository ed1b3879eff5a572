package order

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bmsinventoryspace-netizen/BMS/internal/domain"
)

// Submitter posts a cart snapshot to the external Order Service exactly once
// per call. It never retries on its own: a failed submission surfaces to the
// caller with the cart intact, so every retry is a distinct user action.
type Submitter struct {
	baseURL string
	http    *http.Client
}

func NewSubmitter(baseURL string, timeout time.Duration) *Submitter {
	return &Submitter{
		baseURL: baseURL,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
}

type orderLine struct {
	ArticleID int64           `json:"article_id"`
	Quantity  int             `json:"quantite"`
	UnitPrice decimal.Decimal `json:"prix_vente"`
	Name      string          `json:"nom"`
	Ref       string          `json:"ref"`
}

type orderRequest struct {
	Items []orderLine     `json:"items"`
	Total decimal.Decimal `json:"total"`
}

type orderResponse struct {
	Numero orderNumber `json:"numero"`
}

// orderNumber tolerates both shapes the Order Service emits for numero: a
// formatted string like "CMD-4821" and a bare number.
type orderNumber string

func (n *orderNumber) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = orderNumber(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*n = orderNumber(num.String())
	return nil
}

// Submit sends the snapshot and maps the response into a receipt. The server
// is trusted for the order number only; lines and total on the receipt are
// the client's own snapshot, since price integrity was already enforced from
// the catalog. A stock race on the server side comes back as
// ErrSubmissionFailed with the server-supplied detail, never as a partial
// order.
func (s *Submitter) Submit(ctx context.Context, snapshot domain.Cart) (domain.OrderReceipt, error) {
	if snapshot.IsEmpty() {
		return domain.OrderReceipt{}, ErrEmptyCart
	}

	lines := make([]orderLine, 0, len(snapshot.Lines))
	for _, l := range snapshot.Lines {
		lines = append(lines, orderLine{
			ArticleID: l.ArticleID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Name:      l.Name,
			Ref:       l.Ref,
		})
	}

	body, err := json.Marshal(orderRequest{Items: lines, Total: snapshot.Total})
	if err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("%w: encode request: %v", ErrSubmissionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/commandes", bytes.NewReader(body))
	if err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.OrderReceipt{}, fmt.Errorf("%w: %s", ErrSubmissionFailed, rejectionDetail(resp))
	}

	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("%w: decode response: %v", ErrSubmissionFailed, err)
	}

	return domain.OrderReceipt{
		Number:      string(out.Numero),
		Lines:       snapshot.Lines,
		Total:       snapshot.Total,
		SubmittedAt: time.Now(),
	}, nil
}

// rejectionDetail extracts the server's business reason, surfaced verbatim to
// the user. Falls back to the HTTP status when the body has no detail field.
func rejectionDetail(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var payload struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(raw, &payload) == nil && strings.TrimSpace(payload.Detail) != "" {
			return payload.Detail
		}
	}
	return fmt.Sprintf("order service returned status %d", resp.StatusCode)
}
