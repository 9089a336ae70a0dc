package sqlstore

import (
	"path/filepath"
	"testing"

	"github.com/safeplate/haccp/internal/plan"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "plans.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteRoundTrip(t *testing.T) {
	store := openTestStore(t)

	p := plan.Plan{
		ID:            "plan-1",
		OwnerSubject:  "owner@example.com",
		PaymentStatus: plan.PaymentUnpaid,
		Business:      plan.BusinessInfo{BusinessName: "Acme Deli"},
		FullPlan: plan.FullPlan{
			CCPManagement: []plan.CCPEntry{{
				CCPID:          "CCP-1",
				StepName:       "Cooking",
				Hazard:         "Survival of pathogens",
				CriticalLimits: plan.CriticalLimits{Value: "75°C"},
			}},
		},
	}

	stored, err := store.PutPlan(p)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if stored.VersionNumber != 1 {
		t.Fatalf("expected version 1, got %d", stored.VersionNumber)
	}

	got, ok := store.GetPlan("plan-1")
	if !ok {
		t.Fatalf("expected plan-1")
	}
	if got.Business.BusinessName != "Acme Deli" {
		t.Fatalf("unexpected business: %+v", got.Business)
	}
	if len(got.FullPlan.CCPManagement) != 1 || got.FullPlan.CCPManagement[0].CriticalLimits.Value != "75°C" {
		t.Fatalf("unexpected ccp management: %+v", got.FullPlan.CCPManagement)
	}
}

func TestSQLiteVersionMonotonicity(t *testing.T) {
	store := openTestStore(t)

	p := plan.Plan{ID: "plan-1"}
	for want := 1; want <= 3; want++ {
		stored, err := store.PutPlan(p)
		if err != nil {
			t.Fatalf("put: %v", err)
		}
		if stored.VersionNumber != want {
			t.Fatalf("expected version %d, got %d", want, stored.VersionNumber)
		}
	}

	verdict := &plan.ValidationVerdict{Section1: plan.OverallAssessment{AuditReadiness: plan.ReadinessReady}}
	if err := store.PutValidation("plan-1", verdict); err != nil {
		t.Fatalf("put validation: %v", err)
	}
	got, _ := store.GetPlan("plan-1")
	if got.VersionNumber != 4 {
		t.Fatalf("expected version 4 after validation write, got %d", got.VersionNumber)
	}
	if got.FullPlan.Validation == nil || got.FullPlan.Validation.Section1.AuditReadiness != plan.ReadinessReady {
		t.Fatalf("unexpected verdict: %+v", got.FullPlan.Validation)
	}
}

func TestSQLiteListAndPayment(t *testing.T) {
	store := openTestStore(t)

	for _, id := range []string{"b-plan", "a-plan"} {
		if _, err := store.PutPlan(plan.Plan{ID: id}); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}

	ids, err := store.ListPlanIDs()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a-plan" || ids[1] != "b-plan" {
		t.Fatalf("unexpected ids: %v", ids)
	}

	if err := store.SetPaymentStatus("a-plan", plan.PaymentPaid); err != nil {
		t.Fatalf("set payment: %v", err)
	}
	got, _ := store.GetPlan("a-plan")
	if !got.Entitled() {
		t.Fatalf("expected entitled plan")
	}

	if err := store.SetPaymentStatus("missing", plan.PaymentPaid); err == nil {
		t.Fatalf("expected error for unknown plan")
	}
}
