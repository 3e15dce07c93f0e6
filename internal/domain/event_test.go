package domain

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bountyhub-lab/backend/internal/model"
	"github.com/bountyhub-lab/backend/internal/repository"
	"github.com/bountyhub-lab/backend/pkg/errorx"
	"github.com/bountyhub-lab/backend/pkg/keylock"
	"github.com/bountyhub-lab/backend/pkg/testutil"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func newTestEventDomain(locker keylock.Locker) *eventDomain {
	return NewEventDomain(
		repository.NewEventRepository(),
		repository.NewIdempotencyRepository(),
		locker,
	)
}

func Test_eventDomain_Create(t *testing.T) {
	ctx := testutil.NewMockContext()
	d := newTestEventDomain(keylock.NewLocalLocker(time.Second))
	companyCtx := testutil.NewMockContextWithUserID(ctx, testutil.Company1)

	resp, err := d.Create(companyCtx, &model.CreateEventRequest{
		Title:           "Workshop",
		EventDate:       time.Now().Add(time.Hour),
		RegisteredQuota: 5,
	})
	require.NoError(t, err)
	require.Equal(t, testutil.Company1, resp.Event.CompanyID)
	require.Equal(t, 0, resp.Event.CurrentRegistrations)

	_, err = d.Create(companyCtx, &model.CreateEventRequest{
		Title:           "Workshop",
		EventDate:       time.Now().Add(time.Hour),
		RegisteredQuota: 0,
	})
	require.True(t, errorx.Is(err, errorx.BadRequest))

	_, err = d.Create(companyCtx, &model.CreateEventRequest{
		Title:           "Workshop",
		EventDate:       time.Now().Add(-time.Hour),
		RegisteredQuota: 5,
	})
	require.True(t, errorx.Is(err, errorx.BadRequest))
}

func Test_eventDomain_RegisterAndUnregister(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestEventDomain(keylock.NewLocalLocker(time.Second))
	talentCtx := testutil.NewMockContextWithUserID(ctx, testutil.Talent1)

	resp, err := d.Register(talentCtx, &model.RegisterEventRequest{EventID: testutil.Event1.ID})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Event.CurrentRegistrations)

	_, err = d.Register(talentCtx, &model.RegisterEventRequest{EventID: testutil.Event1.ID})
	require.True(t, errorx.Is(err, errorx.AlreadyRegistered))

	got, err := d.Get(talentCtx, &model.GetEventRequest{EventID: testutil.Event1.ID})
	require.NoError(t, err)
	require.True(t, got.IsRegistered)

	unregResp, err := d.Unregister(talentCtx, &model.UnregisterEventRequest{EventID: testutil.Event1.ID})
	require.NoError(t, err)
	require.Equal(t, 0, unregResp.Event.CurrentRegistrations)

	_, err = d.Unregister(talentCtx, &model.UnregisterEventRequest{EventID: testutil.Event1.ID})
	require.True(t, errorx.Is(err, errorx.NotRegistered))

	got, err = d.Get(talentCtx, &model.GetEventRequest{EventID: testutil.Event1.ID})
	require.NoError(t, err)
	require.False(t, got.IsRegistered)
}

func Test_eventDomain_Register_Full(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestEventDomain(keylock.NewLocalLocker(time.Second))

	_, err := d.Register(testutil.NewMockContextWithUserID(ctx, testutil.Talent1),
		&model.RegisterEventRequest{EventID: testutil.Event2.ID})
	require.NoError(t, err)

	_, err = d.Register(testutil.NewMockContextWithUserID(ctx, testutil.Talent2),
		&model.RegisterEventRequest{EventID: testutil.Event2.ID})
	require.True(t, errorx.Is(err, errorx.EventFull))

	// A member asking again is told about the membership rather than the capacity.
	_, err = d.Register(testutil.NewMockContextWithUserID(ctx, testutil.Talent3),
		&model.RegisterEventRequest{EventID: testutil.Event2.ID})
	require.True(t, errorx.Is(err, errorx.AlreadyRegistered))

	// Leaving frees the slot.
	_, err = d.Unregister(testutil.NewMockContextWithUserID(ctx, testutil.Talent3),
		&model.UnregisterEventRequest{EventID: testutil.Event2.ID})
	require.NoError(t, err)

	_, err = d.Register(testutil.NewMockContextWithUserID(ctx, testutil.Talent2),
		&model.RegisterEventRequest{EventID: testutil.Event2.ID})
	require.NoError(t, err)
}

func Test_eventDomain_Register_Past(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestEventDomain(keylock.NewLocalLocker(time.Second))

	_, err := d.Register(testutil.NewMockContextWithUserID(ctx, testutil.Talent1),
		&model.RegisterEventRequest{EventID: testutil.EventPast.ID})
	require.True(t, errorx.Is(err, errorx.Unavailable))

	_, err = d.Register(testutil.NewMockContextWithUserID(ctx, testutil.Talent1),
		&model.RegisterEventRequest{EventID: "unknown"})
	require.True(t, errorx.Is(err, errorx.NotFound))
}

func Test_eventDomain_Register_Concurrent(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestEventDomain(keylock.NewLocalLocker(10 * time.Second))

	var mu sync.Mutex
	succeeded, full := 0, 0

	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userCtx := testutil.NewMockContextWithUserID(ctx, fmt.Sprintf("user-%d", i))
			_, err := d.Register(userCtx, &model.RegisterEventRequest{EventID: testutil.Event2.ID})

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errorx.Is(err, errorx.EventFull) {
				full++
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, succeeded)
	require.Equal(t, 4, full)

	count, err := repository.NewEventRepository().CountRegistrations(ctx, testutil.Event2.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func Test_eventDomain_RegisterUnregister_Concurrent(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestEventDomain(keylock.NewLocalLocker(10 * time.Second))

	wg := sync.WaitGroup{}
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userCtx := testutil.NewMockContextWithUserID(ctx, fmt.Sprintf("user-%d", i))
			for round := 0; round < 3; round++ {
				_, err := d.Register(userCtx, &model.RegisterEventRequest{EventID: testutil.Event1.ID})
				require.NoError(t, err)

				if round < 2 {
					_, err = d.Unregister(userCtx, &model.UnregisterEventRequest{EventID: testutil.Event1.ID})
					require.NoError(t, err)
				}
			}
		}(i)
	}
	wg.Wait()

	event, err := repository.NewEventRepository().GetByID(ctx, testutil.Event1.ID)
	require.NoError(t, err)

	count, err := repository.NewEventRepository().CountRegistrations(ctx, testutil.Event1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(6), count)
	require.Equal(t, count, int64(event.CurrentRegistrations))
}

func Test_eventDomain_Register_IdempotencyAfterUnregister(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestEventDomain(keylock.NewLocalLocker(time.Second))
	talentCtx := testutil.NewMockContextWithUserID(ctx, testutil.Talent1)

	req := &model.RegisterEventRequest{EventID: testutil.Event1.ID, IdempotencyKey: "retry"}
	_, err := d.Register(talentCtx, req)
	require.NoError(t, err)

	_, err = d.Unregister(talentCtx, &model.UnregisterEventRequest{EventID: testutil.Event1.ID})
	require.NoError(t, err)

	// The key expired with the registration, the retry registers again.
	resp, err := d.Register(talentCtx, req)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Event.CurrentRegistrations)

	count, err := repository.NewEventRepository().CountRegistrations(ctx, testutil.Event1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func Test_eventDomain_Register_Idempotency(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestEventDomain(keylock.NewLocalLocker(time.Second))
	talentCtx := testutil.NewMockContextWithUserID(ctx, testutil.Talent1)

	req := &model.RegisterEventRequest{EventID: testutil.Event1.ID, IdempotencyKey: "retry"}
	_, err := d.Register(talentCtx, req)
	require.NoError(t, err)

	// A retry returns the event instead of AlreadyRegistered.
	resp, err := d.Register(talentCtx, req)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Event.CurrentRegistrations)
}

func Test_eventDomain_Register_CountMismatch(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestEventDomain(keylock.NewLocalLocker(time.Second))

	// Corrupt the counter so that it no longer matches the members.
	require.NoError(t, xcontext.DB(ctx).Exec(
		"UPDATE events SET current_registrations = 0 WHERE id = ?", testutil.Event2.ID).Error)

	_, err := d.Register(testutil.NewMockContextWithUserID(ctx, testutil.Talent1),
		&model.RegisterEventRequest{EventID: testutil.Event2.ID})
	require.True(t, errorx.Is(err, errorx.InvariantViolation))

	// The registration is rolled back.
	count, err := repository.NewEventRepository().CountRegistrations(ctx, testutil.Event2.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func Test_eventDomain_GetRegistrations(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestEventDomain(keylock.NewLocalLocker(time.Second))

	resp, err := d.GetRegistrations(testutil.NewMockContextWithUserID(ctx, testutil.Company2),
		&model.GetEventRegistrationsRequest{EventID: testutil.Event2.ID})
	require.NoError(t, err)
	require.Len(t, resp.Registrations, 1)
	require.Equal(t, testutil.Talent3, resp.Registrations[0].UserID)

	_, err = d.GetRegistrations(testutil.NewMockContextWithUserID(ctx, testutil.Company1),
		&model.GetEventRegistrationsRequest{EventID: testutil.Event2.ID})
	require.True(t, errorx.Is(err, errorx.PermissionDenied))
}

func Test_eventDomain_GetList(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestEventDomain(keylock.NewLocalLocker(time.Second))

	resp, err := d.GetList(ctx, &model.GetListEventRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Events, 3)

	resp, err = d.GetList(ctx, &model.GetListEventRequest{Upcoming: true})
	require.NoError(t, err)
	require.Len(t, resp.Events, 2)

	resp, err = d.GetList(ctx, &model.GetListEventRequest{CompanyID: testutil.Company1, Upcoming: true})
	require.NoError(t, err)
	require.Len(t, resp.Events, 1)
	require.Equal(t, testutil.Event1.ID, resp.Events[0].ID)
}
