package repository

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-management-system/internal/model"
)

func seats(pairs ...uint64) []model.SeatRef {
	out := make([]model.SeatRef, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.SeatRef{Row: pairs[i], Col: pairs[i+1]})
	}
	return out
}

func TestCreate_DuplicateID(t *testing.T) {
	repo := NewEventRepo(0)

	require.NoError(t, repo.Create(1, 2, 2))
	err := repo.Create(1, 5, 5)

	assert.ErrorIs(t, err, ErrEventExists)
	ids, err := repo.List()
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, ids)

	ev, err := repo.Show(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), ev.Rows, "second create must not replace the first event")
}

func TestCreate_InvalidDimensions(t *testing.T) {
	repo := NewEventRepo(0)

	assert.ErrorIs(t, repo.Create(1, 0, 3), ErrInvalidDimensions)
	assert.ErrorIs(t, repo.Create(1, 3, 0), ErrInvalidDimensions)
	assert.ErrorIs(t, repo.Create(1, MaxEventSeats, 2), ErrInvalidDimensions)

	_, err := repo.List()
	assert.ErrorIs(t, err, ErrNoEvents)
}

func TestReserve_SharedReservationID(t *testing.T) {
	repo := NewEventRepo(0)
	require.NoError(t, repo.Create(1, 3, 3))

	first, err := repo.Reserve(1, seats(1, 1, 1, 2))
	require.NoError(t, err)
	second, err := repo.Reserve(1, seats(3, 3))
	require.NoError(t, err)

	assert.Equal(t, uint32(1), first.ReservationID)
	assert.Equal(t, uint32(2), second.ReservationID)

	ev, err := repo.Show(1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{
		1, 1, 0,
		0, 0, 0,
		0, 0, 2,
	}, ev.Seats)
}

func TestReserve_AllOrNothing(t *testing.T) {
	repo := NewEventRepo(0)
	require.NoError(t, repo.Create(1, 2, 2))
	_, err := repo.Reserve(1, seats(1, 1))
	require.NoError(t, err)
	before, _ := repo.Show(1)

	_, err = repo.Reserve(1, seats(2, 2, 1, 1))
	assert.ErrorIs(t, err, ErrSeatTaken)

	_, err = repo.Reserve(1, seats(2, 2, 3, 1))
	assert.ErrorIs(t, err, ErrSeatOutOfRange)

	_, err = repo.Reserve(1, seats(0, 1))
	assert.ErrorIs(t, err, ErrSeatOutOfRange)

	after, err := repo.Show(1)
	require.NoError(t, err)
	assert.Equal(t, before.Seats, after.Seats)
	assert.Equal(t, uint32(0), after.Seat(2, 2))

	// failed calls do not consume reservation ids
	res, err := repo.Reserve(1, seats(2, 2))
	require.NoError(t, err)
	assert.Equal(t, uint32(2), res.ReservationID)
}

func TestReserve_Errors(t *testing.T) {
	repo := NewEventRepo(0)

	_, err := repo.Reserve(9, seats(1, 1))
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = repo.Reserve(9, nil)
	assert.ErrorIs(t, err, ErrNoSeats)
}

func TestShow_Missing(t *testing.T) {
	repo := NewEventRepo(0)

	ev, err := repo.Show(3)

	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.Nil(t, ev.Seats)
}

func TestShow_SnapshotIsCopy(t *testing.T) {
	repo := NewEventRepo(0)
	require.NoError(t, repo.Create(1, 1, 2))

	snap, err := repo.Show(1)
	require.NoError(t, err)
	snap.Seats[0] = 99

	again, _ := repo.Show(1)
	assert.Equal(t, []uint32{0, 0}, again.Seats)
}

func TestList_InsertionOrder(t *testing.T) {
	repo := NewEventRepo(0)

	_, err := repo.List()
	assert.ErrorIs(t, err, ErrNoEvents)

	for _, id := range []uint32{30, 10, 20} {
		require.NoError(t, repo.Create(id, 1, 1))
	}
	ids, err := repo.List()
	require.NoError(t, err)
	assert.Equal(t, []uint32{30, 10, 20}, ids)
}

func TestClose_NotInitialized(t *testing.T) {
	repo := NewEventRepo(0)
	require.NoError(t, repo.Create(1, 1, 1))
	require.NoError(t, repo.Close())

	assert.ErrorIs(t, repo.Create(2, 1, 1), ErrNotInitialized)
	_, err := repo.Reserve(1, seats(1, 1))
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = repo.Show(1)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = repo.List()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, repo.Close(), ErrNotInitialized)

	var nilRepo *EventRepo
	_, err = nilRepo.List()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestLookupDelay(t *testing.T) {
	repo := NewEventRepo(20 * time.Millisecond)
	assert.Equal(t, 20*time.Millisecond, repo.AccessDelay())

	start := time.Now()
	_, _ = repo.Show(1)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestDump(t *testing.T) {
	repo := NewEventRepo(0)
	var buf bytes.Buffer
	assert.ErrorIs(t, repo.Dump(&buf), ErrNoEvents)

	require.NoError(t, repo.Create(4, 2, 3))
	require.NoError(t, repo.Create(5, 1, 1))
	_, err := repo.Reserve(4, seats(1, 2, 2, 3))
	require.NoError(t, err)

	require.NoError(t, repo.Dump(&buf))
	assert.Equal(t, "Event: 4\n0 1 0\n0 0 1\nEvent: 5\n0\n", buf.String())
}

func TestConcurrentCreate_DistinctIDs(t *testing.T) {
	const n = 64
	repo := NewEventRepo(time.Microsecond)

	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(id uint32) {
			defer wg.Done()
			assert.NoError(t, repo.Create(id, uint64(id), 2))
		}(uint32(i))
	}
	wg.Wait()

	ids, err := repo.List()
	require.NoError(t, err)
	assert.Len(t, ids, n)
	for _, id := range ids {
		ev, err := repo.Show(id)
		require.NoError(t, err)
		assert.Equal(t, uint64(id), ev.Rows)
		assert.Equal(t, uint64(2), ev.Cols)
	}
}

func TestConcurrentCreate_SameID(t *testing.T) {
	const n = 16
	repo := NewEventRepo(0)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Create(7, 1, 1)
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrEventExists)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestConcurrentReserve_DisjointSeats(t *testing.T) {
	repo := NewEventRepo(0)
	require.NoError(t, repo.Create(1, 2, 2))

	var wg sync.WaitGroup
	for _, s := range [][]model.SeatRef{seats(1, 1, 1, 2), seats(2, 1, 2, 2)} {
		wg.Add(1)
		go func(s []model.SeatRef) {
			defer wg.Done()
			_, err := repo.Reserve(1, s)
			assert.NoError(t, err)
		}(s)
	}
	wg.Wait()

	ev, err := repo.Show(1)
	require.NoError(t, err)
	assert.Equal(t, ev.Seat(1, 1), ev.Seat(1, 2))
	assert.Equal(t, ev.Seat(2, 1), ev.Seat(2, 2))
	assert.NotEqual(t, ev.Seat(1, 1), ev.Seat(2, 1))
	assert.ElementsMatch(t, []uint32{1, 2}, []uint32{ev.Seat(1, 1), ev.Seat(2, 1)})
}

func TestConcurrentReserve_SameSeat(t *testing.T) {
	const n = 32
	repo := NewEventRepo(0)
	require.NoError(t, repo.Create(1, 4, 4))

	var wg sync.WaitGroup
	var mu sync.Mutex
	won := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Reserve(1, seats(3, 3))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				won++
			} else {
				assert.ErrorIs(t, err, ErrSeatTaken)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, won)
	ev, _ := repo.Show(1)
	assert.Equal(t, uint32(1), ev.Seat(3, 3))
}
