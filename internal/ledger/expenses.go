package ledger

import (
	"context"

	"cablebill/internal/core"
	"cablebill/internal/log"
)

// ExpensePatch lists the fields an edit may change. Nil fields are kept.
type ExpensePatch struct {
	Category    *core.ExpenseCategory
	Description *string
	Amount      *core.Money
	Date        *core.Date
}

func (p ExpensePatch) apply(e *core.Expense) {
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
}

func (r *Repository) AddExpense(ctx context.Context, e core.Expense) core.Expense {
	if e.Date.IsZero() {
		e.Date = r.Today()
	}
	if e.Category == "" {
		e.Category = core.CategoryOther
	}

	r.mu.Lock()
	e.ID = r.timestampIDLocked("EXP")
	e.CreatedAt = r.now()
	r.expenses = append(r.expenses, e)
	r.saveExpensesLocked()
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "Expense added",
		log.FieldExpenseID, e.ID, log.FieldAmount, e.Amount.Value(), "category", e.Category)
	return e
}

func (r *Repository) UpdateExpense(id string, patch ExpensePatch) (core.Expense, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.expenseIndexLocked(id)
	if i < 0 {
		r.notFound("expense", id)
		return core.Expense{}, false
	}
	patch.apply(&r.expenses[i])
	r.saveExpensesLocked()
	return r.expenses[i], true
}

func (r *Repository) DeleteExpense(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.expenseIndexLocked(id)
	if i < 0 {
		r.notFound("expense", id)
		return false
	}
	r.expenses = append(r.expenses[:i:i], r.expenses[i+1:]...)
	r.saveExpensesLocked()
	return true
}

func (r *Repository) Expenses() []core.Expense {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]core.Expense(nil), r.expenses...)
}

func (r *Repository) expenseIndexLocked(id string) int {
	for i := range r.expenses {
		if r.expenses[i].ID == id {
			return i
		}
	}
	return -1
}
