package processors

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"testing"

	"github.com/username/clubtreso/backend/src/logger"
	"github.com/username/clubtreso/backend/src/models"
)

func linked(id string, entries ...models.MatchedEntity) models.Transaction {
	tx := baseTx(id)
	tx.MatchedEntities = entries
	return tx
}

func TestLinkIdempotence(t *testing.T) {
	r := NewLinkRegistry()
	tx := baseTx("t")

	tx = r.Link(tx, models.EntityEvent, "E1", "Sortie Zélande")
	tx = r.Link(tx, models.EntityEvent, "E1", "Sortie Zélande")

	if len(tx.MatchedEntities) != 1 {
		t.Fatalf("expected exactly one association, got %d", len(tx.MatchedEntities))
	}
	if tx.MatchedEntities[0].EntityID != "E1" || tx.MatchedEntities[0].Type != models.EntityEvent {
		t.Errorf("unexpected association: %+v", tx.MatchedEntities[0])
	}
}

func TestLinkPreservesOrder(t *testing.T) {
	r := NewLinkRegistry()
	tx := baseTx("t")
	tx = r.Link(tx, models.EntityEvent, "E1", "")
	tx = r.Link(tx, models.EntityInscription, "I1", "")
	tx = r.Link(tx, models.EntityEvent, "E2", "")

	got := make([]string, len(tx.MatchedEntities))
	for i, m := range tx.MatchedEntities {
		got[i] = m.Key()
	}
	want := []string{"event|E1", "inscription|I1", "event|E2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("association order = %v, want %v", got, want)
	}
}

func TestUnlink(t *testing.T) {
	r := NewLinkRegistry()
	tx := linked("t",
		models.MatchedEntity{Type: models.EntityEvent, EntityID: "E1"},
		models.MatchedEntity{Type: models.EntityInscription, EntityID: "I1"},
	)

	tx = r.Unlink(tx, models.EntityEvent, "E1")
	if tx.IsLinkedTo(models.EntityEvent, "E1") {
		t.Error("association still present after unlink")
	}
	if !tx.IsLinkedTo(models.EntityInscription, "I1") {
		t.Error("unlink removed an unrelated association")
	}

	// Unlinking a missing target is a no-op, not an error.
	before := len(tx.MatchedEntities)
	tx = r.Unlink(tx, models.EntityExpense, "X9")
	if len(tx.MatchedEntities) != before {
		t.Error("unlink of missing target mutated the list")
	}
}

func TestIsLinkedToOther(t *testing.T) {
	r := NewLinkRegistry()
	tx := linked("t",
		models.MatchedEntity{Type: models.EntityInscription, EntityID: "I1"},
	)

	if !r.IsLinkedToOther(tx, models.EntityInscription, "I2") {
		t.Error("expected true: linked to a different inscription")
	}
	if r.IsLinkedToOther(tx, models.EntityInscription, "I1") {
		t.Error("expected false: only linked to the excluded inscription")
	}
	if r.IsLinkedToOther(tx, models.EntityEvent, "E1") {
		t.Error("expected false: no event association at all")
	}
}

func TestFindDuplicateLinks(t *testing.T) {
	r := NewLinkRegistry()
	tx := linked("t",
		models.MatchedEntity{Type: models.EntityEvent, EntityID: "E1"},
		models.MatchedEntity{Type: models.EntityEvent, EntityID: "E1"},
		models.MatchedEntity{Type: models.EntityInscription, EntityID: "I1"},
		models.MatchedEntity{Type: models.EntityEvent, EntityID: "E1"},
	)

	findings := r.FindDuplicateLinks(tx)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Type != models.EntityEvent || f.EntityID != "E1" {
		t.Errorf("unexpected duplicate key: %s|%s", f.Type, f.EntityID)
	}
	if !reflect.DeepEqual(f.Indices, []int{0, 1, 3}) {
		t.Errorf("occurrence indices = %v, want [0 1 3]", f.Indices)
	}
}

func TestRepairKeepsFirstOccurrence(t *testing.T) {
	r := NewLinkRegistry()
	tx := linked("t",
		models.MatchedEntity{Type: models.EntityEvent, EntityID: "E1", EntityName: "first"},
		models.MatchedEntity{Type: models.EntityEvent, EntityID: "E1", EntityName: "second"},
		models.MatchedEntity{Type: models.EntityInscription, EntityID: "I1"},
	)

	repaired := r.Repair(tx)
	want := []models.MatchedEntity{
		{Type: models.EntityEvent, EntityID: "E1", EntityName: "first"},
		{Type: models.EntityInscription, EntityID: "I1"},
	}
	if !reflect.DeepEqual(repaired.MatchedEntities, want) {
		t.Errorf("repaired list = %+v, want %+v", repaired.MatchedEntities, want)
	}

	// Idempotent: repairing the repaired record changes nothing.
	again := r.Repair(repaired)
	if !reflect.DeepEqual(again.MatchedEntities, repaired.MatchedEntities) {
		t.Error("second repair mutated an already-clean record")
	}
}

func TestAuditLinks(t *testing.T) {
	r := NewLinkRegistry()

	clean := linked("a", models.MatchedEntity{Type: models.EntityEvent, EntityID: "E1"})
	multi := linked("b",
		models.MatchedEntity{Type: models.EntityEvent, EntityID: "E1"},
		models.MatchedEntity{Type: models.EntityExpense, EntityID: "X1"},
	)
	dirty := linked("c",
		models.MatchedEntity{Type: models.EntityInscription, EntityID: "I1"},
		models.MatchedEntity{Type: models.EntityInscription, EntityID: "I1"},
	)
	bare := baseTx("d")

	txs := []models.Transaction{clean, multi, dirty, bare}

	report, repaired := r.AuditLinks(txs, false)
	if report.Scanned != 4 || report.WithLinks != 3 || report.MultiLinked != 2 || report.WithDuplicates != 1 {
		t.Errorf("report-only counts = %+v", report)
	}
	if report.Repaired != 0 || len(repaired) != 0 {
		t.Error("report-only audit must not repair anything")
	}

	report, repaired = r.AuditLinks(txs, true)
	if report.Repaired != 1 || len(repaired) != 1 {
		t.Fatalf("fix mode: repaired = %d records, want 1", len(repaired))
	}
	if repaired[0].ID != "c" || len(repaired[0].MatchedEntities) != 1 {
		t.Errorf("unexpected repaired record: %+v", repaired[0])
	}
	if _, ok := report.Findings["c"]; !ok {
		t.Error("findings missing the dirty transaction")
	}

	// Safe to run repeatedly: a second fix pass finds nothing to repair.
	txs[2] = repaired[0]
	report, repaired = r.AuditLinks(txs, true)
	if report.WithDuplicates != 0 || report.Repaired != 0 || len(repaired) != 0 {
		t.Errorf("second pass repaired again: %+v", report)
	}
}

// recordingHandler collects log messages so tests can assert on emission.
type recordingHandler struct {
	mu       sync.Mutex
	messages []string
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, r.Message)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) count(message string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.messages {
		if m == message {
			n++
		}
	}
	return n
}

func TestAuditLinksLogsProgressOnCleanStore(t *testing.T) {
	handler := &recordingHandler{}
	previous := logger.L
	logger.L = slog.New(handler)
	defer func() { logger.L = previous }()

	// No duplicate links anywhere; a long scan must still report progress.
	txs := []models.Transaction{
		baseTx("a"),
		linked("b", models.MatchedEntity{Type: models.EntityEvent, EntityID: "E1"}),
		baseTx("c"),
	}

	r := NewLinkRegistry()
	report, _ := r.AuditLinks(txs, false)
	if report.WithDuplicates != 0 {
		t.Fatalf("expected a clean scan, got %d with duplicates", report.WithDuplicates)
	}

	if got := handler.count("Scanning transaction links"); got != len(txs) {
		t.Errorf("progress log emitted %d times, want once per record (%d)", got, len(txs))
	}
}
