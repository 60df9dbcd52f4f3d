package booking_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyroom-backend/internal/booking"
	"studyroom-backend/internal/model"
	"studyroom-backend/internal/store/storetest"
)

func TestEngine_ConcurrentBookingsHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := storetest.SeedSlot(t, f.db, b1Afternoon)

	const contenders = 16
	accounts := make([]model.Account, contenders)
	for i := range accounts {
		accounts[i] = storetest.SeedAccount(t, f.db, fmt.Sprintf("racer%02d", i), model.RoleStudent)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins []string
		errs []error
	)
	start := make(chan struct{})
	for _, a := range accounts {
		wg.Add(1)
		go func(a model.Account) {
			defer wg.Done()
			<-start
			res, err := f.engine.Book(ctx, a.ID, b1Afternoon, requesterFor(a))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			wins = append(wins, res.ID)
		}(a)
	}
	close(start)
	wg.Wait()

	require.Len(t, wins, 1)
	require.Len(t, errs, contenders-1)
	for _, err := range errs {
		assert.ErrorIs(t, err, booking.ErrSlotUnavailable)
	}

	all, err := f.store.Reservations().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, wins[0], all[0].ID)
	assert.Equal(t, model.SlotBooked, f.slotStatus(t, slot.ID))
	f.assertConsistent(t)
}

func TestEngine_ConcurrentBookAndCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	descriptors := make([]model.Descriptor, 4)
	for i := range descriptors {
		d := b1Afternoon
		d.TimeRange = fmt.Sprintf("%02d:00-%02d:00", 8+2*i, 10+2*i)
		descriptors[i] = d
		storetest.SeedSlot(t, f.db, d)
	}

	var wg sync.WaitGroup
	for _, a := range []model.Account{f.alice, f.bob} {
		wg.Add(1)
		go func(a model.Account) {
			defer wg.Done()
			for round := 0; round < 5; round++ {
				for _, d := range descriptors {
					res, err := f.engine.Book(ctx, a.ID, d, requesterFor(a))
					if err != nil {
						assert.ErrorIs(t, err, booking.ErrSlotUnavailable)
						continue
					}
					assert.NoError(t, f.engine.Cancel(ctx, a.ID, model.RoleStudent, res.ID))
				}
			}
		}(a)
	}
	wg.Wait()

	all, err := f.store.Reservations().ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	f.assertConsistent(t)
}
