package repository

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/Domenick1991/flightres/internal/domain"
	"gopkg.in/yaml.v3"
)

type memKeyKind int

const (
	flightLedger memKeyKind = iota
	customerLedger
)

type memKey struct {
	kind memKeyKind
	id   int64
}

func flightKey(id int64) memKey   { return memKey{kind: flightLedger, id: id} }
func customerKey(id int64) memKey { return memKey{kind: customerLedger, id: id} }

type memCustomer struct {
	customer domain.Customer
	password string
}

// MemStore keeps the whole dataset in process memory. Transactions are
// optimistic: reads and writes are tracked per ledger key, and Commit fails
// with ErrTxConflict when another transaction committed to one of those keys
// first. Intended for tests and single-node deployments.
type MemStore struct {
	mu         sync.Mutex
	version    uint64
	flights    map[int64]domain.Flight
	customers  map[int64]memCustomer
	byFlight   map[int64]map[int64]struct{}
	byCustomer map[int64]map[int64]struct{}
	keyVer     map[memKey]uint64
}

func NewMemStore() *MemStore {
	return &MemStore{
		flights:    make(map[int64]domain.Flight),
		customers:  make(map[int64]memCustomer),
		byFlight:   make(map[int64]map[int64]struct{}),
		byCustomer: make(map[int64]map[int64]struct{}),
		keyVer:     make(map[memKey]uint64),
	}
}

type seedCustomer struct {
	ID       int64  `yaml:"id"`
	Handle   string `yaml:"handle"`
	Password string `yaml:"password"`
	FullName string `yaml:"fullname"`
}

type seedFlight struct {
	ID      int64  `yaml:"id"`
	Date    string `yaml:"date"`
	Carrier string `yaml:"carrier"`
	Number  string `yaml:"number"`
	Origin  string `yaml:"origin"`
	Dest    string `yaml:"dest"`
	Minutes int    `yaml:"minutes"`
}

type seedFile struct {
	Customers []seedCustomer `yaml:"customers"`
	Flights   []seedFlight   `yaml:"flights"`
}

// NewMemStoreFromFile builds a MemStore pre-filled with the customers and
// flights listed in a YAML seed file.
func NewMemStoreFromFile(path string) (*MemStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	s := NewMemStore()
	for _, c := range seed.Customers {
		s.AddCustomer(domain.Customer{ID: c.ID, Handle: c.Handle, FullName: c.FullName}, c.Password)
	}
	for _, f := range seed.Flights {
		date, err := domain.ParseFlightDate(f.Date)
		if err != nil {
			return nil, fmt.Errorf("seed flight %d: %w", f.ID, err)
		}
		s.AddFlight(domain.Flight{
			ID:              f.ID,
			Date:            date,
			Carrier:         f.Carrier,
			Number:          f.Number,
			OriginCity:      f.Origin,
			DestCity:        f.Dest,
			DurationMinutes: f.Minutes,
		})
	}
	return s, nil
}

func (s *MemStore) AddCustomer(c domain.Customer, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = memCustomer{customer: c, password: password}
}

func (s *MemStore) AddFlight(f domain.Flight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flights[f.ID] = f
}

func (s *MemStore) Begin(ctx context.Context) (ReservationTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &memTx{
		store:   s,
		readAt:  s.version,
		touched: make(map[memKey]struct{}),
		inserts: make(map[domain.Reservation]struct{}),
		deletes: make(map[domain.Reservation]struct{}),
	}, nil
}

func (s *MemStore) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flights := make([]domain.Flight, 0, len(s.byCustomer[customerID]))
	for flightID := range s.byCustomer[customerID] {
		flights = append(flights, s.flights[flightID])
	}
	sort.Slice(flights, func(i, j int) bool { return flights[i].ID < flights[j].ID })
	return flights, nil
}

func (s *MemStore) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flights[id]
	if !ok {
		return nil, ErrFlightNotFound
	}
	return &f, nil
}

func (s *MemStore) SearchDirect(ctx context.Context, date domain.FlightDate, origin, dest string, limit int) ([]domain.Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flights := make([]domain.Flight, 0)
	for _, f := range s.flights {
		if f.Date == date && f.OriginCity == origin && f.DestCity == dest {
			flights = append(flights, f)
		}
	}
	sort.Slice(flights, func(i, j int) bool {
		if flights[i].DurationMinutes != flights[j].DurationMinutes {
			return flights[i].DurationMinutes < flights[j].DurationMinutes
		}
		return flights[i].ID < flights[j].ID
	})
	if len(flights) > limit {
		flights = flights[:limit]
	}
	return flights, nil
}

func (s *MemStore) SearchConnecting(ctx context.Context, date domain.FlightDate, origin, dest string, limit int) ([]domain.Itinerary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	itineraries := make([]domain.Itinerary, 0)
	for _, first := range s.flights {
		if first.Date != date || first.OriginCity != origin {
			continue
		}
		for _, second := range s.flights {
			if second.Date != date || second.OriginCity != first.DestCity || second.DestCity != dest {
				continue
			}
			itineraries = append(itineraries, domain.Itinerary{first, second})
		}
	}
	sort.Slice(itineraries, func(i, j int) bool {
		ti := itineraries[i][0].DurationMinutes + itineraries[i][1].DurationMinutes
		tj := itineraries[j][0].DurationMinutes + itineraries[j][1].DurationMinutes
		if ti != tj {
			return ti < tj
		}
		if itineraries[i][0].ID != itineraries[j][0].ID {
			return itineraries[i][0].ID < itineraries[j][0].ID
		}
		return itineraries[i][1].ID < itineraries[j][1].ID
	})
	if len(itineraries) > limit {
		itineraries = itineraries[:limit]
	}
	return itineraries, nil
}

func (s *MemStore) Authenticate(ctx context.Context, handle, password string) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mc := range s.customers {
		if mc.customer.Handle == handle && mc.password == password {
			c := mc.customer
			return &c, nil
		}
	}
	return nil, ErrInvalidCredentials
}

func (s *MemStore) committed(res domain.Reservation) bool {
	_, ok := s.byFlight[res.FlightID][res.CustomerID]
	return ok
}

type memTx struct {
	store   *MemStore
	readAt  uint64
	touched map[memKey]struct{}
	inserts map[domain.Reservation]struct{}
	deletes map[domain.Reservation]struct{}
	done    bool
}

func (t *memTx) touch(key memKey) {
	t.touched[key] = struct{}{}
}

func (t *memTx) CountReservations(ctx context.Context, flightID int64) (int, error) {
	if t.done {
		return 0, ErrTxClosed
	}
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	t.touch(flightKey(flightID))
	n := len(s.byFlight[flightID])
	for res := range t.inserts {
		if res.FlightID == flightID {
			n++
		}
	}
	for res := range t.deletes {
		if res.FlightID == flightID && s.committed(res) {
			n--
		}
	}
	return n, nil
}

func (t *memTx) HasReservationOnDate(ctx context.Context, customerID int64, date domain.FlightDate) (bool, error) {
	if t.done {
		return false, ErrTxClosed
	}
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	t.touch(customerKey(customerID))
	for flightID := range s.byCustomer[customerID] {
		if _, dropped := t.deletes[domain.Reservation{CustomerID: customerID, FlightID: flightID}]; dropped {
			continue
		}
		if s.flights[flightID].Date == date {
			return true, nil
		}
	}
	for res := range t.inserts {
		if res.CustomerID == customerID && s.flights[res.FlightID].Date == date {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) Reserve(ctx context.Context, customerID, flightID int64) error {
	if t.done {
		return ErrTxClosed
	}
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	t.touch(flightKey(flightID))
	t.touch(customerKey(customerID))

	res := domain.Reservation{CustomerID: customerID, FlightID: flightID}
	if _, ok := t.inserts[res]; ok {
		return ErrDuplicateReservation
	}
	if _, ok := t.deletes[res]; ok {
		delete(t.deletes, res)
		if s.committed(res) {
			// бронь удалили в этой же транзакции, возвращаем как было
			return nil
		}
	}
	if s.committed(res) {
		return ErrDuplicateReservation
	}
	t.inserts[res] = struct{}{}
	return nil
}

func (t *memTx) Remove(ctx context.Context, customerID, flightID int64) error {
	if t.done {
		return ErrTxClosed
	}
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	t.touch(flightKey(flightID))
	t.touch(customerKey(customerID))

	res := domain.Reservation{CustomerID: customerID, FlightID: flightID}
	if _, ok := t.inserts[res]; ok {
		delete(t.inserts, res)
		return nil
	}
	t.deletes[res] = struct{}{}
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxClosed
	}
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	t.done = true

	// проверяем, что никто не закоммитил наши ключи после начала транзакции
	for key := range t.touched {
		if s.keyVer[key] > t.readAt {
			return ErrTxConflict
		}
	}

	dirty := make(map[memKey]struct{})
	for res := range t.deletes {
		if !s.committed(res) {
			continue
		}
		delete(s.byFlight[res.FlightID], res.CustomerID)
		delete(s.byCustomer[res.CustomerID], res.FlightID)
		dirty[flightKey(res.FlightID)] = struct{}{}
		dirty[customerKey(res.CustomerID)] = struct{}{}
	}
	for res := range t.inserts {
		if s.byFlight[res.FlightID] == nil {
			s.byFlight[res.FlightID] = make(map[int64]struct{})
		}
		if s.byCustomer[res.CustomerID] == nil {
			s.byCustomer[res.CustomerID] = make(map[int64]struct{})
		}
		s.byFlight[res.FlightID][res.CustomerID] = struct{}{}
		s.byCustomer[res.CustomerID][res.FlightID] = struct{}{}
		dirty[flightKey(res.FlightID)] = struct{}{}
		dirty[customerKey(res.CustomerID)] = struct{}{}
	}
	if len(dirty) > 0 {
		s.version++
		for key := range dirty {
			s.keyVer[key] = s.version
		}
	}
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return ErrTxClosed
	}
	t.done = true
	return nil
}

var (
	_ ReservationStore   = (*MemStore)(nil)
	_ FlightRepository   = (*MemStore)(nil)
	_ CustomerRepository = (*MemStore)(nil)
	_ ReservationTx      = (*memTx)(nil)
)
