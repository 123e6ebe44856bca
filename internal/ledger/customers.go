package ledger

import (
	"context"

	"cablebill/internal/core"
	"cablebill/internal/log"
)

// CustomerPatch lists the fields an edit may change. Nil fields are kept.
type CustomerPatch struct {
	Name      *string
	Phone     *string
	STBNumber *string
	Amount    *core.Money
	RenewDate *core.Date
	Status    *core.CustomerStatus
}

func (p CustomerPatch) apply(c *core.Customer) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.STBNumber != nil {
		c.STBNumber = *p.STBNumber
	}
	if p.Amount != nil {
		c.Amount = *p.Amount
	}
	if p.RenewDate != nil {
		c.RenewDate = *p.RenewDate
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
}

// AddCustomer records a new customer. With a remote configured the server
// is asked first so the customer carries a server-assigned ID; any remote
// failure falls back to a local CUSTnnnnnn id. The returned customer is
// always present in the repository.
func (r *Repository) AddCustomer(ctx context.Context, c core.Customer) core.Customer {
	c.ID = ""
	if c.Status == "" {
		c.Status = core.StatusActive
	}
	c.CreatedAt = r.now()

	if r.remote != nil {
		created, err := r.remote.CreateCustomer(ctx, c)
		switch {
		case err != nil:
			r.logger.WarnContext(ctx, "Remote customer create failed, using local id",
				log.FieldError, err, log.FieldErrorType, log.ErrorTypeRemote)
		case created.ID == "":
			r.logger.WarnContext(ctx, "Remote returned customer without id, using local id",
				log.FieldErrorType, log.ErrorTypeRemote)
		default:
			c.ID = created.ID
			if !created.CreatedAt.IsZero() {
				c.CreatedAt = created.CreatedAt
			}
		}
	}

	r.mu.Lock()
	if c.ID == "" {
		c.ID = r.generateCustomerIDLocked()
	}
	r.customers = append(r.customers, c)
	r.saveCustomersLocked()
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "Customer added",
		log.FieldCustomerID, c.ID, log.FieldAmount, c.Amount.Value())
	r.publish(ctx, Event{
		Type:         CustomerCreated,
		CustomerID:   c.ID,
		CustomerName: c.Name,
		Amount:       c.Amount,
		Date:         c.RenewDate,
	})
	return c
}

// UpdateCustomer shallow-merges patch into the customer.
func (r *Repository) UpdateCustomer(id string, patch CustomerPatch) (core.Customer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.customerIndexLocked(id)
	if i < 0 {
		r.notFound("customer", id)
		return core.Customer{}, false
	}
	patch.apply(&r.customers[i])
	r.saveCustomersLocked()
	return r.customers[i], true
}

// RenewCustomer pushes the renewal date to one month from today.
func (r *Repository) RenewCustomer(id string) (core.Customer, bool) {
	next := r.Today().AddMonths(1)
	return r.UpdateCustomer(id, CustomerPatch{RenewDate: &next})
}

// DeleteCustomer removes the customer only. Payments and invoices keep
// their customer id and render as "Unknown".
func (r *Repository) DeleteCustomer(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.customerIndexLocked(id)
	if i < 0 {
		r.notFound("customer", id)
		return false
	}
	r.customers = append(r.customers[:i:i], r.customers[i+1:]...)
	r.saveCustomersLocked()
	return true
}

func (r *Repository) Customer(id string) (core.Customer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.customerIndexLocked(id); i >= 0 {
		return r.customers[i], true
	}
	return core.Customer{}, false
}

func (r *Repository) Customers() []core.Customer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]core.Customer(nil), r.customers...)
}

// ReplaceCustomers swaps the whole collection, as a remote pull does.
func (r *Repository) ReplaceCustomers(customers []core.Customer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers = append([]core.Customer(nil), customers...)
	r.saveCustomersLocked()
}

func (r *Repository) customerIndexLocked(id string) int {
	for i := range r.customers {
		if r.customers[i].ID == id {
			return i
		}
	}
	return -1
}
