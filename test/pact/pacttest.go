//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "reservation-api"
	ConsumerName = "purchasing-portal"

	StateStockSeeded        = "product prod-pact-1 has stock"
	StateReservationExists  = "reservation res-pact-1 exists for pact-user"
	StateReservationMissing = "no reservation with id res-missing"
	StateStockExhausted     = "product prod-pact-1 has no stock"
)

const (
	ExistingReservationID = "res-pact-1"
	MissingReservationID  = "res-missing"
	PactUserID            = "pact-user"
	PactProductID         = "prod-pact-1"
	PactPurchaseRef       = "po-pact-1001"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the purchasing portal consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleCreatePayload provides stable test data for creation interactions.
func ExampleCreatePayload() map[string]any {
	return map[string]any{
		"purchaseRef": PactPurchaseRef,
		"lines": []map[string]any{
			{"productId": PactProductID, "quantity": 2},
		},
	}
}

// ExampleReservationPayload mirrors the API's reservation representation.
func ExampleReservationPayload() map[string]any {
	return map[string]any{
		"id":          ExistingReservationID,
		"purchaseRef": PactPurchaseRef,
		"userId":      PactUserID,
		"status":      "confirmed",
		"lines": []map[string]any{
			{"productId": PactProductID, "quantity": 2},
		},
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
