package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bmsinventoryspace-netizen/BMS/internal/domain"
	"github.com/bmsinventoryspace-netizen/BMS/internal/order"
)

func orderService(t *testing.T, status int, body string, calls *atomic.Int32) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/api/commandes" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSubmit_Success_ClearsCart(t *testing.T) {
	var calls atomic.Int32
	srv := orderService(t, http.StatusCreated, `{"numero": "CMD-4821"}`, &calls)

	registry := newTestRegistry(t)
	ledger := registry.Get("sess-1").Ledger
	if err := ledger.Add(1); err != nil {
		t.Fatalf("Failed to seed cart: %v", err)
	}

	handler := NewOrderHandler(registry, order.NewSubmitter(srv.URL, 5*time.Second), 5*time.Second)
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/", nil), "sess-1")

	handler.Submit(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("Expected status code %d, got %d: %s", http.StatusCreated, recorder.Code, recorder.Body.String())
	}

	var receipt domain.OrderReceipt
	if err := json.NewDecoder(recorder.Body).Decode(&receipt); err != nil {
		t.Fatalf("Failed to decode receipt: %v", err)
	}
	if receipt.Number != "CMD-4821" {
		t.Errorf("Expected order number CMD-4821, got %q", receipt.Number)
	}
	if len(receipt.Lines) != 1 {
		t.Errorf("Expected 1 receipt line, got %d", len(receipt.Lines))
	}

	// The cart is cleared only once the order service accepted the order.
	if ledger.Len() != 0 {
		t.Errorf("Expected cart cleared after successful submit, got %d lines", ledger.Len())
	}
	if calls.Load() != 1 {
		t.Errorf("Expected exactly 1 upstream call, got %d", calls.Load())
	}
}

func TestSubmit_EmptyCart_NoUpstreamCall(t *testing.T) {
	var calls atomic.Int32
	srv := orderService(t, http.StatusCreated, `{"numero": "CMD-1"}`, &calls)

	registry := newTestRegistry(t)
	handler := NewOrderHandler(registry, order.NewSubmitter(srv.URL, 5*time.Second), 5*time.Second)
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/", nil), "sess-1")

	handler.Submit(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Code != "empty_cart" {
		t.Errorf("Expected code empty_cart, got %q", resp.Code)
	}
	if calls.Load() != 0 {
		t.Errorf("Expected no upstream call for an empty cart, got %d", calls.Load())
	}
}

func TestSubmit_RejectionLeavesCartIntact(t *testing.T) {
	var calls atomic.Int32
	srv := orderService(t, http.StatusConflict, `{"detail": "Stock insuffisant pour Marteau"}`, &calls)

	registry := newTestRegistry(t)
	ledger := registry.Get("sess-1").Ledger
	if err := ledger.Add(1); err != nil {
		t.Fatalf("Failed to seed cart: %v", err)
	}

	handler := NewOrderHandler(registry, order.NewSubmitter(srv.URL, 5*time.Second), 5*time.Second)
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/", nil), "sess-1")

	handler.Submit(recorder, request)

	if recorder.Code != http.StatusBadGateway {
		t.Errorf("Expected status code %d, got %d", http.StatusBadGateway, recorder.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Code != "submission_failed" {
		t.Errorf("Expected code submission_failed, got %q", resp.Code)
	}

	// No automatic retry happened and the cart is exactly as it was.
	if calls.Load() != 1 {
		t.Errorf("Expected exactly 1 upstream call, got %d", calls.Load())
	}
	if ledger.Len() != 1 {
		t.Errorf("Expected cart untouched after rejection, got %d lines", ledger.Len())
	}
}

func TestSubmit_KeepsLineAddedWhileInFlight(t *testing.T) {
	registry := newTestRegistry(t)
	ledger := registry.Get("sess-1").Ledger
	if err := ledger.Add(1); err != nil {
		t.Fatalf("Failed to seed cart: %v", err)
	}

	// The order service answers slowly enough for the user to keep
	// shopping: a unit lands in the cart while the submission is in flight.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := ledger.Add(1); err != nil {
			t.Errorf("Failed to add mid-flight: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"numero": "CMD-77"}`))
	}))
	defer srv.Close()

	handler := NewOrderHandler(registry, order.NewSubmitter(srv.URL, 5*time.Second), 5*time.Second)
	recorder := httptest.NewRecorder()
	handler.Submit(recorder, withSession(httptest.NewRequest("POST", "/", nil), "sess-1"))

	if recorder.Code != http.StatusCreated {
		t.Fatalf("Expected status code %d, got %d: %s", http.StatusCreated, recorder.Code, recorder.Body.String())
	}

	// Only the submitted unit is gone; the mid-flight one is still there.
	after := ledger.Snapshot()
	if len(after.Lines) != 1 || after.Lines[0].Quantity != 1 {
		t.Errorf("Expected the mid-flight unit to survive, got %+v", after.Lines)
	}
}

func TestSubmit_ConcurrentClicksPlaceOneOrder(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"numero": "CMD-1"}`))
	}))
	defer srv.Close()

	registry := newTestRegistry(t)
	if err := registry.Get("sess-1").Ledger.Add(1); err != nil {
		t.Fatalf("Failed to seed cart: %v", err)
	}

	handler := NewOrderHandler(registry, order.NewSubmitter(srv.URL, 5*time.Second), 5*time.Second)

	first := httptest.NewRecorder()
	second := httptest.NewRecorder()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		handler.Submit(first, withSession(httptest.NewRequest("POST", "/", nil), "sess-1"))
	}()
	go func() {
		defer wg.Done()
		handler.Submit(second, withSession(httptest.NewRequest("POST", "/", nil), "sess-1"))
	}()

	// Let one request reach the order service, then unblock both clicks.
	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	close(release)
	wg.Wait()

	// Submissions are serialized per session: the second click finds the
	// cart already submitted and never reaches the order service.
	if calls.Load() != 1 {
		t.Errorf("Expected exactly 1 upstream order, got %d", calls.Load())
	}
	codes := []int{first.Code, second.Code}
	sort.Ints(codes)
	if codes[0] != http.StatusCreated || codes[1] != http.StatusBadRequest {
		t.Errorf("Expected one 201 and one 400, got %d and %d", first.Code, second.Code)
	}
}

func TestSubmit_MissingSession(t *testing.T) {
	var calls atomic.Int32
	srv := orderService(t, http.StatusCreated, `{"numero": "CMD-1"}`, &calls)

	handler := NewOrderHandler(newTestRegistry(t), order.NewSubmitter(srv.URL, 5*time.Second), 5*time.Second)
	recorder := httptest.NewRecorder()

	handler.Submit(recorder, httptest.NewRequest("POST", "/", nil))

	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("Expected status code %d, got %d", http.StatusUnauthorized, recorder.Code)
	}
	if calls.Load() != 0 {
		t.Errorf("Expected no upstream call without a session, got %d", calls.Load())
	}
}
