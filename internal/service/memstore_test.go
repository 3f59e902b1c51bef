package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"groupbuy-service/internal/models"
	"groupbuy-service/internal/store"
)

// memStore is an in-memory store for service tests. Its JoinDealTx holds
// one mutex across the validate-insert-increment sequence, giving the same
// atomicity contract as the SQL transaction it stands in for.
type memStore struct {
	mu       sync.Mutex
	users    map[int64]*models.User
	products map[int64]*models.Product
	deals    map[int64]*models.Deal
	orders   map[int64]*models.Order
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int64]*models.User),
		products: make(map[int64]*models.Product),
		deals:    make(map[int64]*models.Deal),
		orders:   make(map[int64]*models.Order),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func copyDeal(d *models.Deal) *models.Deal {
	cp := *d
	return &cp
}

func copyOrder(o *models.Order) *models.Order {
	cp := *o
	return &cp
}

// --- user methods ---

func (m *memStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = m.id()
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, store.ErrNotFound)
}

func (m *memStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUsers(_ context.Context, role models.Role) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if role != "" && u.Role != role {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (m *memStore) SetUserVerification(_ context.Context, userID int64, verified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("user %d: %w", userID, store.ErrNotFound)
	}
	u.IsVerified = verified
	return nil
}

func (m *memStore) CountByTable(_ context.Context, table string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch table {
	case "users":
		return int64(len(m.users)), nil
	case "products":
		return int64(len(m.products)), nil
	case "deals":
		return int64(len(m.deals)), nil
	case "orders":
		return int64(len(m.orders)), nil
	}
	return 0, fmt.Errorf("unknown table %q", table)
}

func (m *memStore) CountPendingDeals(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, d := range m.deals {
		if !d.IsApproved && d.Status != models.DealStatusRejected && d.Status != models.DealStatusExpired {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountUnverifiedUsers(_ context.Context, role models.Role) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if u.Role == role && !u.IsVerified {
			n++
		}
	}
	return n, nil
}

// --- product methods ---

func (m *memStore) addProduct(p *models.Product) *models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	cp := *p
	m.products[p.ID] = &cp
	return p
}

func (m *memStore) CreateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memStore) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetProducts(_ context.Context, filter store.ProductFilter) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Product
	for _, p := range m.products {
		if filter.SupplierID != 0 && p.SupplierID != filter.SupplierID {
			continue
		}
		if filter.CategoryID != 0 && p.CategoryID != filter.CategoryID {
			continue
		}
		if filter.VerifiedOnly && !p.IsVerified {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *memStore) UpdateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return fmt.Errorf("product %d: %w", p.ID, store.ErrNotFound)
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memStore) SetProductVerification(_ context.Context, productID int64, verified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return fmt.Errorf("product %d: %w", productID, store.ErrNotFound)
	}
	p.IsVerified = verified
	return nil
}

func (m *memStore) DeleteProduct(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	delete(m.products, id)
	return nil
}

func (m *memStore) CreateCategory(_ context.Context, cat *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cat.ID = m.id()
	return nil
}

func (m *memStore) GetCategories(_ context.Context) ([]models.Category, error) {
	return nil, nil
}

func (m *memStore) UpdateCategory(_ context.Context, cat *models.Category) error {
	return nil
}

func (m *memStore) DeleteCategory(_ context.Context, id int64) error {
	return nil
}

// --- deal methods ---

func (m *memStore) addDeal(d *models.Deal) *models.Deal {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = m.id()
	m.deals[d.ID] = copyDeal(d)
	return d
}

func (m *memStore) CreateDeal(_ context.Context, deal *models.Deal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	deal.ID = m.id()
	deal.CreatedAt = time.Now()
	deal.UpdatedAt = deal.CreatedAt
	m.deals[deal.ID] = copyDeal(deal)
	return nil
}

func (m *memStore) GetDealByID(_ context.Context, id int64) (*models.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deals[id]
	if !ok {
		return nil, fmt.Errorf("deal %d: %w", id, store.ErrNotFound)
	}
	return copyDeal(d), nil
}

func (m *memStore) GetDeals(_ context.Context, filter store.DealFilter) ([]models.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Deal
	for _, d := range m.deals {
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		if filter.ApprovedOnly && !d.IsApproved {
			continue
		}
		if filter.SupplierID != 0 && d.SupplierID != filter.SupplierID {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (m *memStore) ApproveDeal(_ context.Context, dealID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deals[dealID]
	if !ok {
		return fmt.Errorf("deal %d: %w", dealID, store.ErrNotFound)
	}
	d.IsApproved = true
	return nil
}

func (m *memStore) RejectDeal(_ context.Context, dealID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deals[dealID]
	if !ok {
		return fmt.Errorf("deal %d: %w", dealID, store.ErrNotFound)
	}
	d.IsApproved = false
	d.Status = models.DealStatusRejected
	return nil
}

func (m *memStore) SetDealStatus(_ context.Context, dealID int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deals[dealID]
	if !ok {
		return fmt.Errorf("deal %d: %w", dealID, store.ErrNotFound)
	}
	d.Status = status
	return nil
}

func (m *memStore) MarkDealExpired(_ context.Context, dealID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deals[dealID]
	if !ok {
		return nil
	}
	if d.Status == models.DealStatusActive || d.Status == models.DealStatusPaused {
		d.Status = models.DealStatusExpired
	}
	return nil
}

// --- order methods ---

func (m *memStore) JoinDealTx(_ context.Context, order *models.Order) (*models.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deal, ok := m.deals[order.DealID]
	if !ok {
		return nil, fmt.Errorf("deal %d: %w", order.DealID, store.ErrNotFound)
	}
	if !deal.IsApproved {
		return nil, fmt.Errorf("deal %d: %w", deal.ID, store.ErrDealNotApproved)
	}
	if deal.Status != models.DealStatusActive {
		return nil, fmt.Errorf("deal %d is %s: %w", deal.ID, deal.Status, store.ErrDealNotActive)
	}
	if !deal.EndTime.After(time.Now()) {
		return nil, fmt.Errorf("deal %d: %w", deal.ID, store.ErrDealEnded)
	}

	order.ID = m.id()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	m.orders[order.ID] = copyOrder(order)

	deal.CurrentCount += order.Quantity
	deal.ParticipantsCount++
	if deal.CurrentCount >= deal.MOQ {
		deal.Status = models.DealStatusCompleted
	}

	return copyDeal(deal), nil
}

func (m *memStore) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, store.ErrNotFound)
	}
	return copyOrder(o), nil
}

func (m *memStore) GetOrderByIdempotencyKey(_ context.Context, key string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.IdempotencyKey == key {
			return copyOrder(o), nil
		}
	}
	return nil, nil
}

func (m *memStore) GetOrders(_ context.Context, filter store.OrderFilter) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if filter.VendorID != 0 && o.VendorID != filter.VendorID {
			continue
		}
		if filter.DealID != 0 && o.DealID != filter.DealID {
			continue
		}
		if filter.SupplierID != 0 {
			d, ok := m.deals[o.DealID]
			if !ok || d.SupplierID != filter.SupplierID {
				continue
			}
		}
		out = append(out, *o)
	}
	return out, nil
}

func (m *memStore) UpdateOrderStatus(_ context.Context, orderID int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return fmt.Errorf("order %d: %w", orderID, store.ErrNotFound)
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

func orderFilterForDeal(dealID int64) store.OrderFilter {
	return store.OrderFilter{DealID: dealID}
}

// --- payment stub ---

// okPayments always collects successfully without delay
type okPayments struct{}

func (okPayments) Collect(context.Context, int64, int64) (string, error) {
	return "UPI-test", nil
}

// declinedPayments always declines
type declinedPayments struct{}

func (declinedPayments) Collect(context.Context, int64, int64) (string, error) {
	return "", fmt.Errorf("UPI collection failed: %w", ErrPaymentDeclined)
}
