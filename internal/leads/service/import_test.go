package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestBulkImportCreatesAndReconciles(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	actor := Actor{ID: uuid.New()}

	rows := []ImportRow{
		{Name: "Ana Lima", Email: "ana@example.com", Classification: "community", DesiredCourse: "Warehouse Safety"},
		{Name: "", Email: "ghost@example.com"},
		{Name: "João Prado", Phone: "11 91234-5678", Classification: "transport sector worker", DesiredCourse: "Fleet Management"},
		{Name: "No Contact", Email: "not-an-email", Phone: "123"},
	}

	result, err := svc.BulkImport(context.Background(), actor, rows)
	if err != nil {
		t.Fatalf("BulkImport: %v", err)
	}

	if result.Imported != 2 {
		t.Errorf("imported = %d, want 2", result.Imported)
	}
	if len(result.SkippedRows) != 2 {
		t.Errorf("skipped = %v, want rows 2 and 4", result.SkippedRows)
	}
	if len(result.Reconciled.ValidLeadIDs) != 2 {
		t.Errorf("valid after reconcile = %d, want 2", len(result.Reconciled.ValidLeadIDs))
	}
	if len(store.deals) != 2 {
		t.Errorf("deals created = %d, want 2", len(store.deals))
	}
}
