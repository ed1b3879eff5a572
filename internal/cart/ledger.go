package cart

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/bmsinventoryspace-netizen/BMS/internal/catalog"
	"github.com/bmsinventoryspace-netizen/BMS/internal/domain"
)

// StockLookup is the slice of the catalog the ledger needs: current available
// quantity and display attributes at add time.
type StockLookup interface {
	Get(id int64) (domain.CatalogItem, error)
}

// Ledger tracks requested quantities for one session. Caps are snapshotted
// from the catalog at add/update time rather than re-checked on every read;
// the authoritative stock check happens again at submission, because stock
// may have moved in between.
type Ledger struct {
	mu    sync.Mutex
	stock StockLookup
	lines []*domain.CartLine
	index map[int64]int
}

func NewLedger(stock StockLookup) *Ledger {
	return &Ledger{
		stock: stock,
		index: make(map[int64]int),
	}
}

// Add puts one unit of the article into the cart. A missing or depleted
// article fails with ErrOutOfStock. Incrementing an existing line past the
// freshly snapshotted cap fails with ErrQuantityExceeded and leaves the line
// unchanged.
func (l *Ledger) Add(articleID int64) error {
	item, err := l.stock.Get(articleID)
	if err != nil {
		if errors.Is(err, catalog.ErrItemNotFound) {
			// Gone from the latest snapshot means no longer available.
			return ErrOutOfStock
		}
		return err
	}
	if item.Quantity <= 0 {
		return ErrOutOfStock
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if i, ok := l.index[articleID]; ok {
		line := l.lines[i]
		if line.Quantity+1 > item.Quantity {
			return ErrQuantityExceeded
		}
		line.Quantity++
		line.Cap = item.Quantity
		return nil
	}

	l.lines = append(l.lines, &domain.CartLine{
		ArticleID: articleID,
		Name:      item.Name,
		Ref:       item.Ref,
		UnitPrice: item.UnitPrice(),
		Quantity:  1,
		Cap:       item.Quantity,
	})
	l.index[articleID] = len(l.lines) - 1
	return nil
}

// SetQuantity applies delta to the line's quantity. A result of zero or less
// removes the line; a result above the snapshotted cap fails with
// ErrQuantityExceeded and applies nothing.
func (l *Ledger) SetQuantity(articleID int64, delta int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[articleID]
	if !ok {
		return ErrLineNotFound
	}
	line := l.lines[i]

	next := line.Quantity + delta
	if next <= 0 {
		l.removeAt(i)
		return nil
	}
	if next > line.Cap {
		return ErrQuantityExceeded
	}
	line.Quantity = next
	return nil
}

// Remove deletes the line unconditionally; no-op when absent.
func (l *Ledger) Remove(articleID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i, ok := l.index[articleID]; ok {
		l.removeAt(i)
	}
}

// removeAt deletes the line at position i preserving insertion order.
// Caller holds l.mu.
func (l *Ledger) removeAt(i int) {
	delete(l.index, l.lines[i].ArticleID)
	l.lines = append(l.lines[:i], l.lines[i+1:]...)
	for j := i; j < len(l.lines); j++ {
		l.index[l.lines[j].ArticleID] = j
	}
}

// Total sums unit price x quantity over all lines.
func (l *Ledger) Total() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := decimal.Zero
	for _, line := range l.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Snapshot returns the cart in insertion order with the current total. The
// copy is detached: later ledger edits do not touch it.
func (l *Ledger) Snapshot() domain.Cart {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines := make([]domain.CartLine, 0, len(l.lines))
	total := decimal.Zero
	for _, line := range l.lines {
		lines = append(lines, *line)
		total = total.Add(line.Subtotal())
	}
	return domain.Cart{Lines: lines, Total: total}
}

// Len reports the number of lines.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

// Clear empties all lines.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines = nil
	l.index = make(map[int64]int)
}

// Deduct subtracts a submitted snapshot's quantities and drops lines that
// reach zero. Anything added after the snapshot was taken survives, so a
// successful submission never swallows units the user put in while the order
// was in flight.
func (l *Ledger) Deduct(snapshot domain.Cart) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, sl := range snapshot.Lines {
		i, ok := l.index[sl.ArticleID]
		if !ok {
			continue
		}
		line := l.lines[i]
		line.Quantity -= sl.Quantity
		if line.Quantity <= 0 {
			l.removeAt(i)
		}
	}
}
