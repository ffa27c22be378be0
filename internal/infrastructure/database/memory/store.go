// Package memory is an in-process implementation of the storefront
// repositories. Transactions work on a copy of the state that replaces the
// live state only on commit, which makes it suitable for tests that check
// all-or-nothing behaviour.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/your-org/cafe-storefront/internal/domain/cart"
	"github.com/your-org/cafe-storefront/internal/domain/order"
	"github.com/your-org/cafe-storefront/internal/domain/product"
	"github.com/your-org/cafe-storefront/internal/domain/profile"
	"github.com/your-org/cafe-storefront/internal/domain/user"
)

type state struct {
	products   map[uuid.UUID]product.Product
	cartItems  map[uuid.UUID]cart.CartItem
	orders     map[uuid.UUID]order.Order
	orderLines map[uuid.UUID]order.OrderLine
	history    []order.StatusHistory
	users      map[uuid.UUID]user.User
	profiles   map[uuid.UUID]profile.Profile
}

func newState() *state {
	return &state{
		products:   make(map[uuid.UUID]product.Product),
		cartItems:  make(map[uuid.UUID]cart.CartItem),
		orders:     make(map[uuid.UUID]order.Order),
		orderLines: make(map[uuid.UUID]order.OrderLine),
		users:      make(map[uuid.UUID]user.User),
		profiles:   make(map[uuid.UUID]profile.Profile),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.cartItems {
		c.cartItems[k] = v
	}
	for k, v := range s.orders {
		v.Lines = nil
		v.StatusHistory = nil
		c.orders[k] = v
	}
	for k, v := range s.orderLines {
		v.Product = nil
		c.orderLines[k] = v
	}
	c.history = append([]order.StatusHistory(nil), s.history...)
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	return c
}

// Store holds the data. The zero value is not usable; call New.
type Store struct {
	mu    sync.Mutex
	state *state

	failMu   sync.Mutex
	failures map[string]*failure
}

type failure struct {
	skip int
	err  error
}

// New creates an empty store
func New() *Store {
	return &Store{
		state:    newState(),
		failures: make(map[string]*failure),
	}
}

// FailNext makes the next call of op return err. Ops are named
// "<table>.<Method>", for example "orders.CreateLines".
func (s *Store) FailNext(op string, err error) {
	s.FailAfter(op, 0, err)
}

// FailAfter lets skip calls of op succeed and fails the one after with err
func (s *Store) FailAfter(op string, skip int, err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failures[op] = &failure{skip: skip, err: err}
}

func (s *Store) injected(op string) error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	f, ok := s.failures[op]
	if !ok {
		return nil
	}
	if f.skip > 0 {
		f.skip--
		return nil
	}
	delete(s.failures, op)
	return f.err
}

// view is a repository's handle on either the live state (tx == nil) or on a
// transaction's working copy
type view struct {
	store *Store
	tx    *state
}

func (v view) read(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.state)
}

// write runs fn after checking for an injected failure on op
func (v view) write(op string, fn func(st *state) error) error {
	if err := v.store.injected(op); err != nil {
		return err
	}
	return v.read(fn)
}

// within runs fn on a copy of the state and swaps it in when fn succeeds.
// Transactions are serialized.
func (s *Store) within(fn func(tx *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Products returns the catalog repository
func (s *Store) Products() *ProductRepository {
	return &ProductRepository{view{store: s}}
}

// Carts returns the cart repository
func (s *Store) Carts() *CartRepository {
	return &CartRepository{view{store: s}}
}

// Orders returns the order repository
func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{view{store: s}}
}

// Users returns the account repository
func (s *Store) Users() *UserRepository {
	return &UserRepository{view{store: s}}
}

// Profiles returns the profile repository
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{view{store: s}}
}

type repositoryFactory struct {
	v view
}

func (f repositoryFactory) CartRepository() cart.Repository {
	return &CartRepository{f.v}
}

func (f repositoryFactory) OrderRepository() order.Repository {
	return &OrderRepository{f.v}
}

// TransactionManager implements order.TransactionManager
type TransactionManager struct {
	store *Store
}

// NewTransactionManager creates a transaction manager over s
func NewTransactionManager(s *Store) *TransactionManager {
	return &TransactionManager{store: s}
}

// Execute implements order.TransactionManager
func (tm *TransactionManager) Execute(ctx context.Context, fn func(repos order.RepositoryFactory) error) error {
	return tm.store.within(func(tx *state) error {
		return fn(repositoryFactory{view{store: tm.store, tx: tx}})
	})
}

// CartTransactor implements cart.Transactor
type CartTransactor struct {
	store *Store
}

// NewCartTransactor creates a cart transactor over s
func NewCartTransactor(s *Store) *CartTransactor {
	return &CartTransactor{store: s}
}

// WithinTransaction implements cart.Transactor
func (t *CartTransactor) WithinTransaction(ctx context.Context, fn func(repo cart.Repository) error) error {
	return t.store.within(func(tx *state) error {
		return fn(&CartRepository{view{store: t.store, tx: tx}})
	})
}
