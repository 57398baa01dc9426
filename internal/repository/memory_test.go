package repository

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Domenick1991/flightres/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore() *MemStore {
	s := NewMemStore()
	s.AddCustomer(domain.Customer{ID: 1, Handle: "alice", FullName: "Alice Anderson"}, "alicepw")
	s.AddCustomer(domain.Customer{ID: 2, Handle: "bob", FullName: "Bob Brown"}, "bobpw")
	s.AddFlight(domain.Flight{ID: 100, Date: domain.NewFlightDate(2015, 7, 14), Carrier: "AA", Number: "101", OriginCity: "Seattle WA", DestCity: "Boston MA", DurationMinutes: 310})
	s.AddFlight(domain.Flight{ID: 101, Date: domain.NewFlightDate(2015, 7, 14), Carrier: "UA", Number: "202", OriginCity: "Seattle WA", DestCity: "Boston MA", DurationMinutes: 290})
	s.AddFlight(domain.Flight{ID: 102, Date: domain.NewFlightDate(2015, 7, 15), Carrier: "AA", Number: "303", OriginCity: "Seattle WA", DestCity: "Boston MA", DurationMinutes: 305})
	s.AddFlight(domain.Flight{ID: 103, Date: domain.NewFlightDate(2015, 7, 14), Carrier: "DL", Number: "404", OriginCity: "Seattle WA", DestCity: "Denver CO", DurationMinutes: 150})
	s.AddFlight(domain.Flight{ID: 104, Date: domain.NewFlightDate(2015, 7, 14), Carrier: "DL", Number: "405", OriginCity: "Denver CO", DestCity: "Boston MA", DurationMinutes: 220})
	return s
}

// Тест 1: записи транзакции видны только после Commit
func TestMemStore_CommitMakesWritesVisible(t *testing.T) {
	s := seedStore()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Reserve(ctx, 1, 100))

	n, err := tx.CountReservations(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// до коммита другая транзакция брони не видит
	other, err := s.Begin(ctx)
	require.NoError(t, err)
	n, err = other.CountReservations(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	require.NoError(t, other.Rollback(ctx))

	require.NoError(t, tx.Commit(ctx))

	after, err := s.Begin(ctx)
	require.NoError(t, err)
	n, err = after.CountReservations(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, after.Rollback(ctx))

	flights, err := s.ListByCustomer(ctx, 1)
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.Equal(t, int64(100), flights[0].ID)
}

// Тест 2: Rollback отменяет все записи
func TestMemStore_RollbackDiscardsWrites(t *testing.T) {
	s := seedStore()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Reserve(ctx, 1, 100))
	require.NoError(t, tx.Rollback(ctx))

	after, err := s.Begin(ctx)
	require.NoError(t, err)
	n, err := after.CountReservations(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	require.NoError(t, after.Rollback(ctx))
}

// Тест 3: завершенная транзакция отклоняет любые вызовы
func TestMemStore_FinishedTxRejectsCalls(t *testing.T) {
	s := seedStore()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	_, err = tx.CountReservations(ctx, 100)
	assert.ErrorIs(t, err, ErrTxClosed)
	_, err = tx.HasReservationOnDate(ctx, 1, domain.NewFlightDate(2015, 7, 14))
	assert.ErrorIs(t, err, ErrTxClosed)
	assert.ErrorIs(t, tx.Reserve(ctx, 1, 100), ErrTxClosed)
	assert.ErrorIs(t, tx.Remove(ctx, 1, 100), ErrTxClosed)
	assert.ErrorIs(t, tx.Commit(ctx), ErrTxClosed)
	assert.ErrorIs(t, tx.Rollback(ctx), ErrTxClosed)

	rolled, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, rolled.Rollback(ctx))
	assert.ErrorIs(t, rolled.Commit(ctx), ErrTxClosed)
}

// Тест 4: повторная бронь того же рейса
func TestMemStore_DuplicateReservation(t *testing.T) {
	s := seedStore()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Reserve(ctx, 1, 100))
	// дубликат внутри той же транзакции
	assert.ErrorIs(t, tx.Reserve(ctx, 1, 100), ErrDuplicateReservation)
	require.NoError(t, tx.Commit(ctx))

	// дубликат закоммиченной брони
	next, err := s.Begin(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, next.Reserve(ctx, 1, 100), ErrDuplicateReservation)
	require.NoError(t, next.Rollback(ctx))
}

// Тест 5: из двух конкурирующих транзакций коммитится только первая
func TestMemStore_FirstCommitterWins(t *testing.T) {
	s := seedStore()
	ctx := context.Background()

	tx1, err := s.Begin(ctx)
	require.NoError(t, err)
	tx2, err := s.Begin(ctx)
	require.NoError(t, err)

	n, err := tx1.CountReservations(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	n, err = tx2.CountReservations(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, tx1.Reserve(ctx, 1, 100))
	require.NoError(t, tx2.Reserve(ctx, 2, 100))

	require.NoError(t, tx1.Commit(ctx))
	assert.ErrorIs(t, tx2.Commit(ctx), ErrTxConflict)

	after, err := s.Begin(ctx)
	require.NoError(t, err)
	n, err = after.CountReservations(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, after.Rollback(ctx))
}

// Тест 6: конфликт ловится и по прочитанному ключу, не только по записанному
func TestMemStore_ConflictOnReadKey(t *testing.T) {
	s := seedStore()
	ctx := context.Background()
	date := domain.NewFlightDate(2015, 7, 14)

	tx1, err := s.Begin(ctx)
	require.NoError(t, err)
	busy, err := tx1.HasReservationOnDate(ctx, 1, date)
	require.NoError(t, err)
	assert.False(t, busy)

	// параллельная транзакция добавляет клиенту бронь на этот день
	tx2, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx2.Reserve(ctx, 1, 100))
	require.NoError(t, tx2.Commit(ctx))

	// tx1 приняла решение по устаревшему чтению и должна откатиться
	require.NoError(t, tx1.Reserve(ctx, 1, 101))
	assert.ErrorIs(t, tx1.Commit(ctx), ErrTxConflict)
}

// Тест 7: счетчик учитывает незакоммиченные вставки и удаления своей транзакции
func TestMemStore_CountSeesOwnWrites(t *testing.T) {
	s := seedStore()
	ctx := context.Background()

	setup, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, setup.Reserve(ctx, 1, 100))
	require.NoError(t, setup.Commit(ctx))

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Reserve(ctx, 2, 100))
	n, err := tx.CountReservations(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, tx.Remove(ctx, 1, 100))
	n, err = tx.CountReservations(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// удаление собственной незакоммиченной вставки
	require.NoError(t, tx.Remove(ctx, 2, 100))
	n, err = tx.CountReservations(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	require.NoError(t, tx.Rollback(ctx))
}

// Тест 8: удаление несуществующей брони не является ошибкой
func TestMemStore_RemoveIsIdempotent(t *testing.T) {
	s := seedStore()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Remove(ctx, 1, 100))
	require.NoError(t, tx.Commit(ctx))

	flights, err := s.ListByCustomer(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, flights)
}

// Тест 9: Reserve после Remove в одной транзакции возвращает бронь на место
func TestMemStore_ReserveAfterRemoveSameTx(t *testing.T) {
	s := seedStore()
	ctx := context.Background()

	setup, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, setup.Reserve(ctx, 1, 100))
	require.NoError(t, setup.Commit(ctx))

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Remove(ctx, 1, 100))
	require.NoError(t, tx.Reserve(ctx, 1, 100))
	require.NoError(t, tx.Commit(ctx))

	flights, err := s.ListByCustomer(ctx, 1)
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.Equal(t, int64(100), flights[0].ID)
}

// Тест 10: проверка занятости дня видит закоммиченное и собственные правки
func TestMemStore_HasReservationOnDate(t *testing.T) {
	s := seedStore()
	ctx := context.Background()
	day14 := domain.NewFlightDate(2015, 7, 14)
	day15 := domain.NewFlightDate(2015, 7, 15)

	setup, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, setup.Reserve(ctx, 1, 100))
	require.NoError(t, setup.Commit(ctx))

	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	busy, err := tx.HasReservationOnDate(ctx, 1, day14)
	require.NoError(t, err)
	assert.True(t, busy)

	busy, err = tx.HasReservationOnDate(ctx, 1, day15)
	require.NoError(t, err)
	assert.False(t, busy)

	// незакоммиченная вставка этой же транзакции учитывается
	require.NoError(t, tx.Reserve(ctx, 1, 102))
	busy, err = tx.HasReservationOnDate(ctx, 1, day15)
	require.NoError(t, err)
	assert.True(t, busy)

	// незакоммиченное удаление скрывает бронь
	require.NoError(t, tx.Remove(ctx, 1, 100))
	busy, err = tx.HasReservationOnDate(ctx, 1, day14)
	require.NoError(t, err)
	assert.False(t, busy)

	require.NoError(t, tx.Rollback(ctx))
}

// Тест 11: при массовой конкуренции итог равен числу успешных коммитов
func TestMemStore_ConcurrentCommits(t *testing.T) {
	s := seedStore()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(customerID int64) {
			defer wg.Done()
			tx, err := s.Begin(ctx)
			if err != nil {
				return
			}
			defer tx.Rollback(ctx)
			if _, err := tx.CountReservations(ctx, 100); err != nil {
				return
			}
			if err := tx.Reserve(ctx, customerID, 100); err != nil {
				return
			}
			if err := tx.Commit(ctx); err != nil {
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}(int64(i + 10))
	}
	wg.Wait()

	assert.GreaterOrEqual(t, succeeded, 1)
	after, err := s.Begin(ctx)
	require.NoError(t, err)
	n, err := after.CountReservations(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, succeeded, n)
	require.NoError(t, after.Rollback(ctx))
}

// Тест 12: загрузка данных из YAML-файла
func TestMemStore_SeedFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := `customers:
  - id: 1
    handle: alice
    password: alicepw
    fullname: Alice Anderson
flights:
  - id: 100
    date: 2015-07-14
    carrier: AA
    number: "101"
    origin: Seattle WA
    dest: Boston MA
    minutes: 310
  - id: 103
    date: 2015-07-14
    carrier: DL
    number: "404"
    origin: Seattle WA
    dest: Denver CO
    minutes: 150
  - id: 104
    date: 2015-07-14
    carrier: DL
    number: "405"
    origin: Denver CO
    dest: Boston MA
    minutes: 220
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := NewMemStoreFromFile(path)
	require.NoError(t, err)
	ctx := context.Background()

	c, err := s.Authenticate(ctx, "alice", "alicepw")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)
	assert.Equal(t, "Alice Anderson", c.FullName)

	_, err = s.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	f, err := s.GetByID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "Boston MA", f.DestCity)
	assert.Equal(t, domain.NewFlightDate(2015, 7, 14), f.Date)

	_, err = s.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrFlightNotFound)
}

func TestMemStore_SeedFromFileBadDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := `flights:
  - id: 1
    date: not-a-date
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := NewMemStoreFromFile(path)
	assert.Error(t, err)
}

// Тест 13: прямой поиск сортирует по времени полета и режет по лимиту
func TestMemStore_SearchDirect(t *testing.T) {
	s := seedStore()
	ctx := context.Background()
	date := domain.NewFlightDate(2015, 7, 14)

	flights, err := s.SearchDirect(ctx, date, "Seattle WA", "Boston MA", 99)
	require.NoError(t, err)
	require.Len(t, flights, 2)
	assert.Equal(t, int64(101), flights[0].ID)
	assert.Equal(t, int64(100), flights[1].ID)

	flights, err = s.SearchDirect(ctx, date, "Seattle WA", "Boston MA", 1)
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.Equal(t, int64(101), flights[0].ID)

	flights, err = s.SearchDirect(ctx, domain.NewFlightDate(2015, 7, 16), "Seattle WA", "Boston MA", 99)
	require.NoError(t, err)
	assert.Empty(t, flights)
}

// Тест 14: поиск с пересадкой склеивает рейсы по городу и дате
func TestMemStore_SearchConnecting(t *testing.T) {
	s := seedStore()
	ctx := context.Background()
	date := domain.NewFlightDate(2015, 7, 14)

	itineraries, err := s.SearchConnecting(ctx, date, "Seattle WA", "Boston MA", 99)
	require.NoError(t, err)
	require.Len(t, itineraries, 1)
	require.Len(t, itineraries[0], 2)
	assert.Equal(t, int64(103), itineraries[0][0].ID)
	assert.Equal(t, int64(104), itineraries[0][1].ID)

	// пересадка не склеивается через разные даты
	itineraries, err = s.SearchConnecting(ctx, domain.NewFlightDate(2015, 7, 15), "Seattle WA", "Boston MA", 99)
	require.NoError(t, err)
	assert.Empty(t, itineraries)
}
