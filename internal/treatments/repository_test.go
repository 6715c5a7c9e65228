package treatments

import (
	"context"
	"errors"
	"testing"

	"github.com/smilepoint/clinic-api/internal/procedures"
)

func newCatalog(t *testing.T) (*procedures.InMemoryRepository, *procedures.Procedure, *procedures.Procedure) {
	t.Helper()
	catalog := procedures.NewInMemoryRepository()
	cleaning, err := catalog.Create(context.Background(), &procedures.UpsertProcedureRequest{
		Name: "Cleaning", DefaultCost: 50, EstimatedDuration: 30,
	})
	if err != nil {
		t.Fatal(err)
	}
	filling, err := catalog.Create(context.Background(), &procedures.UpsertProcedureRequest{
		Name: "Filling", DefaultCost: 90, EstimatedDuration: 45,
	})
	if err != nil {
		t.Fatal(err)
	}
	return catalog, cleaning, filling
}

func TestCreateSeedsCostFromCatalog(t *testing.T) {
	catalog, cleaning, _ := newCatalog(t)
	repo := NewInMemoryRepository(catalog)

	tr, err := repo.Create(context.Background(), &UpsertTreatmentRequest{
		PatientID:     "p1",
		TreatmentDate: "2024-02-15",
		Items:         []LineItemRequest{{ProcedureID: cleaning.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tr.Items[0].CostPerUnit != 50 {
		t.Errorf("cost_per_unit = %v, want catalog default 50", tr.Items[0].CostPerUnit)
	}
	if tr.Items[0].ProcedureName != "Cleaning" {
		t.Errorf("procedure_name = %q", tr.Items[0].ProcedureName)
	}
	if tr.TotalCost != 100 {
		t.Errorf("total = %v, want 100", tr.TotalCost)
	}
}

func TestCreateHonorsCostOverride(t *testing.T) {
	catalog, cleaning, _ := newCatalog(t)
	repo := NewInMemoryRepository(catalog)

	override := 35.0
	tr, err := repo.Create(context.Background(), &UpsertTreatmentRequest{
		PatientID:     "p1",
		TreatmentDate: "2024-02-15",
		Items:         []LineItemRequest{{ProcedureID: cleaning.ID, Quantity: 1, CostPerUnit: &override}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Items[0].CostPerUnit != 35 {
		t.Errorf("cost_per_unit = %v, want override 35", tr.Items[0].CostPerUnit)
	}
}

func TestCreateMergesDuplicateRows(t *testing.T) {
	catalog, cleaning, _ := newCatalog(t)
	repo := NewInMemoryRepository(catalog)

	tr, err := repo.Create(context.Background(), &UpsertTreatmentRequest{
		PatientID:     "p1",
		TreatmentDate: "2024-02-15",
		Items: []LineItemRequest{
			{ProcedureID: cleaning.ID, Quantity: 1},
			{ProcedureID: cleaning.ID, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(tr.Items) != 1 || tr.Items[0].Quantity != 3 {
		t.Errorf("items = %+v, want one merged line with quantity 3", tr.Items)
	}
}

func TestCreateClampsInvalidQuantity(t *testing.T) {
	catalog, cleaning, _ := newCatalog(t)
	repo := NewInMemoryRepository(catalog)

	tr, err := repo.Create(context.Background(), &UpsertTreatmentRequest{
		PatientID:     "p1",
		TreatmentDate: "2024-02-15",
		Items:         []LineItemRequest{{ProcedureID: cleaning.ID, Quantity: -5}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Items[0].Quantity != 1 {
		t.Errorf("quantity = %d, want clamp to 1", tr.Items[0].Quantity)
	}
	if tr.TotalCost != 50 {
		t.Errorf("total = %v, want 50", tr.TotalCost)
	}
}

func TestCreateRejectsUnknownProcedure(t *testing.T) {
	catalog, _, _ := newCatalog(t)
	repo := NewInMemoryRepository(catalog)

	_, err := repo.Create(context.Background(), &UpsertTreatmentRequest{
		PatientID:     "p1",
		TreatmentDate: "2024-02-15",
		Items:         []LineItemRequest{{ProcedureID: "ghost", Quantity: 1}},
	})
	if !errors.Is(err, ErrMissingProcedure) {
		t.Errorf("err = %v, want ErrMissingProcedure", err)
	}
}

func TestCreateRecordsCatalogUsage(t *testing.T) {
	catalog, cleaning, filling := newCatalog(t)
	repo := NewInMemoryRepository(catalog)

	if _, err := repo.Create(context.Background(), &UpsertTreatmentRequest{
		PatientID:     "p1",
		TreatmentDate: "2024-02-15",
		Items: []LineItemRequest{
			{ProcedureID: filling.ID, Quantity: 4},
			{ProcedureID: cleaning.ID, Quantity: 1},
		},
	}); err != nil {
		t.Fatal(err)
	}

	top, err := catalog.Popular(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if top[0].ID != filling.ID || top[0].UsageCount != 4 {
		t.Errorf("top = %s (%d), want filling with 4", top[0].Name, top[0].UsageCount)
	}
}

func TestListFilters(t *testing.T) {
	catalog, cleaning, _ := newCatalog(t)
	repo := NewInMemoryRepository(catalog)

	mk := func(date string, status PaymentStatus, patient string) {
		t.Helper()
		if _, err := repo.Create(context.Background(), &UpsertTreatmentRequest{
			PatientID:     patient,
			TreatmentDate: date,
			PaymentStatus: status,
			Items:         []LineItemRequest{{ProcedureID: cleaning.ID, Quantity: 1}},
		}); err != nil {
			t.Fatal(err)
		}
	}
	mk("2024-02-10", PaymentPaid, "p1")
	mk("2024-02-20", PaymentPending, "p1")
	mk("2024-03-05", PaymentPaid, "p2")

	paid, err := repo.List(context.Background(), ListFilter{PaymentStatus: PaymentPaid})
	if err != nil {
		t.Fatal(err)
	}
	if len(paid) != 2 {
		t.Errorf("paid = %d, want 2", len(paid))
	}
	if paid[0].TreatmentDate != "2024-03-05" {
		t.Errorf("newest first, got %s", paid[0].TreatmentDate)
	}

	windowed, err := repo.List(context.Background(), ListFilter{StartDate: "2024-02-15", EndDate: "2024-02-28"})
	if err != nil {
		t.Fatal(err)
	}
	if len(windowed) != 1 || windowed[0].TreatmentDate != "2024-02-20" {
		t.Errorf("windowed = %+v", windowed)
	}

	byPatient, err := repo.List(context.Background(), ListFilter{PatientID: "p2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byPatient) != 1 {
		t.Errorf("byPatient = %d, want 1", len(byPatient))
	}
}

func TestStatsAggregates(t *testing.T) {
	catalog, cleaning, _ := newCatalog(t)
	repo := NewInMemoryRepository(catalog)

	mk := func(status PaymentStatus, qty int) {
		t.Helper()
		if _, err := repo.Create(context.Background(), &UpsertTreatmentRequest{
			PatientID:     "p1",
			TreatmentDate: "2024-02-15",
			PaymentStatus: status,
			Items:         []LineItemRequest{{ProcedureID: cleaning.ID, Quantity: qty}},
		}); err != nil {
			t.Fatal(err)
		}
	}
	mk(PaymentPaid, 2)    // 100
	mk(PaymentPending, 1) // 50
	mk(PaymentPartial, 1) // 50

	s, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.TotalTreatments != 3 || s.TotalRevenue != 200 {
		t.Errorf("stats = %+v", s)
	}
	if s.PaidRevenue != 100 || s.PendingRevenue != 50 || s.PartialRevenue != 50 {
		t.Errorf("revenue split = %+v", s)
	}
}

func TestUpdateRecomputesTotal(t *testing.T) {
	catalog, cleaning, filling := newCatalog(t)
	repo := NewInMemoryRepository(catalog)

	tr, err := repo.Create(context.Background(), &UpsertTreatmentRequest{
		PatientID:     "p1",
		TreatmentDate: "2024-02-15",
		Items:         []LineItemRequest{{ProcedureID: cleaning.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := repo.Update(context.Background(), tr.ID, &UpsertTreatmentRequest{
		PatientID:     "p1",
		TreatmentDate: "2024-02-15",
		Items:         []LineItemRequest{{ProcedureID: filling.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.TotalCost != 180 {
		t.Errorf("total = %v, want 180", updated.TotalCost)
	}
}

func TestDeleteNotFound(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, ErrTreatmentNotFound) {
		t.Errorf("err = %v, want ErrTreatmentNotFound", err)
	}
}
