package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/ReberMislem/Exchange-app/internal/models"
)

func TestLatestOnly_EditPatchesLatestRow(t *testing.T) {
	e, db := setupEngine(t, WithStrategy(StrategyLatestOnly))
	cur := createCurrency(t, db, "IQD", 1)
	ctx := context.Background()

	e1, _, err := e.RecordTransaction(ctx, TransactionInput{Type: models.KindSell, CurrencyID: cur.ID, Quantity: dec("100")})
	if err != nil {
		t.Fatalf("record E1: %v", err)
	}
	_, e2Row, err := e.RecordTransaction(ctx, TransactionInput{Type: models.KindBuy, CurrencyID: cur.ID, Quantity: dec("30")})
	if err != nil {
		t.Fatalf("record E2: %v", err)
	}

	if _, err := e.EditTransaction(ctx, e1.ID, TransactionInput{Type: models.KindSell, CurrencyID: cur.ID, Quantity: dec("200")}); err != nil {
		t.Fatalf("EditTransaction() error = %v", err)
	}

	assertBalance(t, e, cur.ID, "170")
	// E1's own row is left stale; the difference lands on E2's row
	if got, want := chainBalances(t, db, cur.ID), []string{"100", "170"}; !equalStrings(got, want) {
		t.Errorf("chain = %v, want %v", got, want)
	}
	row, err := NewGormStore(db).LatestEntry(ctx, cur.ID)
	if err != nil {
		t.Fatalf("LatestEntry() error = %v", err)
	}
	if row.ID != e2Row.ID || !row.Inflow.Equal(dec("100")) || !row.Outflow.Equal(dec("30")) {
		t.Errorf("latest row = id %d in %s out %s, want id %d in 100 out 30",
			row.ID, row.Inflow, row.Outflow, e2Row.ID)
	}
	// the patched row still satisfies the chain relation
	if err := e.Verify(ctx, cur.ID); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestLatestOnly_DeleteReversesOnLatestRow(t *testing.T) {
	e, db := setupEngine(t, WithStrategy(StrategyLatestOnly))
	cur := createCurrency(t, db, "USD", 10950)
	ctx := context.Background()

	sale, _, err := e.RecordTransaction(ctx, TransactionInput{Type: models.KindSell, CurrencyID: cur.ID, Quantity: dec("1"), SellRate: dec("11000")})
	if err != nil {
		t.Fatalf("RecordTransaction() error = %v", err)
	}
	if _, _, err := e.RecordExpense(ctx, ExpenseInput{Category: "fees", Amount: dec("1000"), CurrencyID: cur.ID}); err != nil {
		t.Fatalf("RecordExpense() error = %v", err)
	}

	if err := e.DeleteTransaction(ctx, sale.ID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	assertBalance(t, e, cur.ID, "-1000")

	row, _ := NewGormStore(db).LatestEntry(ctx, cur.ID)
	if !row.Inflow.Equal(dec("-11000")) || !row.Outflow.Equal(dec("1000")) {
		t.Errorf("latest row = in %s out %s, want in -11000 out 1000", row.Inflow, row.Outflow)
	}
}

func TestLatestOnly_KindChangeMovesColumns(t *testing.T) {
	e, db := setupEngine(t, WithStrategy(StrategyLatestOnly))
	cur := createCurrency(t, db, "IQD", 1)
	ctx := context.Background()

	tx, _, err := e.RecordTransaction(ctx, TransactionInput{Type: models.KindBuy, CurrencyID: cur.ID, Quantity: dec("40")})
	if err != nil {
		t.Fatalf("RecordTransaction() error = %v", err)
	}
	if _, err := e.EditTransaction(ctx, tx.ID, TransactionInput{Type: models.KindSell, CurrencyID: cur.ID, Quantity: dec("40")}); err != nil {
		t.Fatalf("EditTransaction() error = %v", err)
	}

	row, _ := NewGormStore(db).LatestEntry(ctx, cur.ID)
	if !row.Inflow.Equal(dec("40")) || !row.Outflow.IsZero() || !row.BalanceAfter.Equal(dec("40")) {
		t.Errorf("row = in %s out %s bal %s, want 40/0/40", row.Inflow, row.Outflow, row.BalanceAfter)
	}
}

func TestLatestOnly_NoRowsIsNoop(t *testing.T) {
	e, db := setupEngine(t, WithStrategy(StrategyLatestOnly))
	cur := createCurrency(t, db, "IQD", 1)
	ctx := context.Background()

	exp, _, err := e.RecordExpense(ctx, ExpenseInput{Category: "rent", Amount: dec("5"), CurrencyID: cur.ID})
	if err != nil {
		t.Fatalf("RecordExpense() error = %v", err)
	}
	// simulate pre-existing data that never got a cashbox row
	db.Where("currency_id = ?", cur.ID).Delete(&models.CashboxEntry{})

	if err := e.DeleteExpense(ctx, exp.ID); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
	assertBalance(t, e, cur.ID, "0")
}

func TestRebuild_RepairsLatestOnlyChain(t *testing.T) {
	legacy, db := setupEngine(t, WithStrategy(StrategyLatestOnly))
	cur := createCurrency(t, db, "IQD", 1)
	ctx := context.Background()

	e1, _, _ := legacy.RecordTransaction(ctx, TransactionInput{Type: models.KindSell, CurrencyID: cur.ID, Quantity: dec("100")})
	if _, _, err := legacy.RecordTransaction(ctx, TransactionInput{Type: models.KindBuy, CurrencyID: cur.ID, Quantity: dec("30")}); err != nil {
		t.Fatalf("record E2: %v", err)
	}
	if _, err := legacy.EditTransaction(ctx, e1.ID, TransactionInput{Type: models.KindSell, CurrencyID: cur.ID, Quantity: dec("200")}); err != nil {
		t.Fatalf("EditTransaction() error = %v", err)
	}

	e := New(NewGormStore(db))
	if err := e.Rebuild(ctx, cur.ID); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if got, want := chainBalances(t, db, cur.ID), []string{"200", "170"}; !equalStrings(got, want) {
		t.Errorf("chain = %v, want %v", got, want)
	}
	row, _ := NewGormStore(db).LatestEntry(ctx, cur.ID)
	if !row.Inflow.IsZero() || !row.Outflow.Equal(dec("30")) {
		t.Errorf("latest row = in %s out %s, want 0/30", row.Inflow, row.Outflow)
	}
}

func TestVerify_DetectsCorruptedRow(t *testing.T) {
	e, db := setupEngine(t)
	cur := createCurrency(t, db, "IQD", 1)
	ctx := context.Background()

	if _, _, err := e.RecordAdjustment(ctx, AdjustmentInput{CurrencyID: cur.ID, Amount: dec("100")}); err != nil {
		t.Fatalf("RecordAdjustment() error = %v", err)
	}
	_, row, err := e.RecordExpense(ctx, ExpenseInput{Category: "rent", Amount: dec("30"), CurrencyID: cur.ID})
	if err != nil {
		t.Fatalf("RecordExpense() error = %v", err)
	}
	if err := db.Model(&models.CashboxEntry{}).Where("id = ?", row.ID).Update("balance_after", "90").Error; err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	err = e.Verify(ctx, cur.ID)
	if !errors.Is(err, ErrConsistencyViolation) {
		t.Fatalf("Verify() error = %v, want ErrConsistencyViolation", err)
	}
	var ce *ConsistencyError
	if !errors.As(err, &ce) {
		t.Fatalf("Verify() error %T is not *ConsistencyError", err)
	}
	if ce.EntryID != row.ID || !ce.Expected.Equal(dec("70")) || !ce.Actual.Equal(dec("90")) {
		t.Errorf("ConsistencyError = %+v", ce)
	}

	if err := e.Verify(ctx, 404); !errors.Is(err, ErrInvalidCurrency) {
		t.Errorf("Verify(unknown) error = %v, want ErrInvalidCurrency", err)
	}
}

func TestLatestOnly_MoveToOtherCurrency(t *testing.T) {
	e, db := setupEngine(t, WithStrategy(StrategyLatestOnly))
	usd := createCurrency(t, db, "USD", 10950)
	eur := createCurrency(t, db, "EUR", 10200)
	ctx := context.Background()

	for _, id := range []uint{usd.ID, eur.ID} {
		if _, _, err := e.RecordAdjustment(ctx, AdjustmentInput{CurrencyID: id, Amount: dec("100")}); err != nil {
			t.Fatalf("opening balance of %d: %v", id, err)
		}
	}
	exp, _, err := e.RecordExpense(ctx, ExpenseInput{Category: "fees", Amount: dec("10"), CurrencyID: usd.ID})
	if err != nil {
		t.Fatalf("RecordExpense() error = %v", err)
	}
	assertBalance(t, e, usd.ID, "90")

	if _, err := e.EditExpense(ctx, exp.ID, ExpenseInput{Category: "fees", Amount: dec("20"), CurrencyID: eur.ID}); err != nil {
		t.Fatalf("EditExpense() error = %v", err)
	}

	// old flow reversed on USD, new flow applied to EUR's latest row
	assertBalance(t, e, usd.ID, "100")
	assertBalance(t, e, eur.ID, "80")
	for _, id := range []uint{usd.ID, eur.ID} {
		if err := e.Verify(ctx, id); err != nil {
			t.Errorf("Verify(%d) error = %v", id, err)
		}
	}
}
