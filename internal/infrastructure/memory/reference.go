package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/domain/port"
)

var (
	_ port.LoanProductRepository = (*ProductCatalog)(nil)
	_ port.MemberDirectory       = (*MemberDirectory)(nil)
)

// ProductCatalog is a fixed set of loan products.
type ProductCatalog struct {
	products map[string]model.LoanProduct
}

func NewProductCatalog(products ...model.LoanProduct) *ProductCatalog {
	c := &ProductCatalog{products: make(map[string]model.LoanProduct, len(products))}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *ProductCatalog) FindByID(_ context.Context, id string) (model.LoanProduct, error) {
	p, ok := c.products[id]
	if !ok {
		return model.LoanProduct{}, model.NewNotFoundError("loan product %s not found", id)
	}
	return p, nil
}

type memberRecord struct {
	status    string
	updatedAt time.Time
}

// MemberDirectory tracks membership status by customer id. Updates older
// than the stored one are ignored.
type MemberDirectory struct {
	mu      sync.RWMutex
	members map[string]memberRecord
}

// NewMemberDirectory returns a directory in which the given customers are
// active. Seeded entries carry a zero timestamp, so any status event replaces
// them.
func NewMemberDirectory(active ...string) *MemberDirectory {
	d := &MemberDirectory{members: make(map[string]memberRecord, len(active))}
	for _, id := range active {
		d.members[id] = memberRecord{status: model.MemberStatusActive}
	}
	return d
}

func (d *MemberDirectory) UpsertMember(_ context.Context, customerID, status string, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cur, ok := d.members[customerID]; ok && at.Before(cur.updatedAt) {
		return nil
	}
	d.members[customerID] = memberRecord{status: status, updatedAt: at}
	return nil
}

// IsActiveMember returns false for unknown customers.
func (d *MemberDirectory) IsActiveMember(_ context.Context, customerID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.members[customerID].status == model.MemberStatusActive, nil
}
