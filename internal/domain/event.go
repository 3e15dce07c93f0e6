package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bountyhub-lab/backend/internal/common"
	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/internal/model"
	"github.com/bountyhub-lab/backend/internal/repository"
	"github.com/bountyhub-lab/backend/pkg/errorx"
	"github.com/bountyhub-lab/backend/pkg/keylock"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventDomain interface {
	Create(context.Context, *model.CreateEventRequest) (*model.CreateEventResponse, error)
	Get(context.Context, *model.GetEventRequest) (*model.GetEventResponse, error)
	GetList(context.Context, *model.GetListEventRequest) (*model.GetListEventResponse, error)
	Register(context.Context, *model.RegisterEventRequest) (*model.RegisterEventResponse, error)
	Unregister(context.Context, *model.UnregisterEventRequest) (*model.UnregisterEventResponse, error)
	GetRegistrations(context.Context, *model.GetEventRegistrationsRequest) (*model.GetEventRegistrationsResponse, error)
}

type eventDomain struct {
	eventRepo       repository.EventRepository
	idempotencyRepo repository.IdempotencyRepository
	locker          keylock.Locker
}

func NewEventDomain(
	eventRepo repository.EventRepository,
	idempotencyRepo repository.IdempotencyRepository,
	locker keylock.Locker,
) *eventDomain {
	return &eventDomain{
		eventRepo:       eventRepo,
		idempotencyRepo: idempotencyRepo,
		locker:          locker,
	}
}

func (d *eventDomain) Create(
	ctx context.Context, req *model.CreateEventRequest,
) (*model.CreateEventResponse, error) {
	if req.Title == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty title")
	}

	if req.RegisteredQuota <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Quota must be positive")
	}

	if !req.EventDate.After(time.Now()) {
		return nil, errorx.New(errorx.BadRequest, "Event date must be in the future")
	}

	event := &entity.Event{
		Base:            entity.Base{ID: uuid.NewString()},
		CompanyID:       xcontext.RequestUserID(ctx),
		Title:           req.Title,
		Description:     req.Description,
		EventDate:       req.EventDate,
		RegisteredQuota: req.RegisteredQuota,
	}

	if err := d.eventRepo.Create(ctx, event); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create event: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateEventResponse{Event: model.ConvertEvent(event)}, nil
}

func (d *eventDomain) Get(
	ctx context.Context, req *model.GetEventRequest,
) (*model.GetEventResponse, error) {
	event, err := getEvent(ctx, d.eventRepo, req.EventID)
	if err != nil {
		return nil, err
	}

	isRegistered, err := d.isRegistered(ctx, event.ID, xcontext.RequestUserID(ctx))
	if err != nil {
		return nil, err
	}

	return &model.GetEventResponse{Event: model.ConvertEvent(event), IsRegistered: isRegistered}, nil
}

func (d *eventDomain) isRegistered(ctx context.Context, eventID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	_, err := d.eventRepo.GetRegistration(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get registration: %v", err)
		return false, errorx.Unknown
	}

	return true, nil
}

func (d *eventDomain) GetList(
	ctx context.Context, req *model.GetListEventRequest,
) (*model.GetListEventResponse, error) {
	offset, limit, err := common.Paginate(ctx, req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}

	filter := repository.EventFilter{CompanyID: req.CompanyID}
	if req.Upcoming {
		filter.After = time.Now()
	}

	events, err := d.eventRepo.GetList(ctx, filter, offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get list event: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.Event{}
	for i := range events {
		result = append(result, model.ConvertEvent(&events[i]))
	}

	return &model.GetListEventResponse{Events: result}, nil
}

func (d *eventDomain) Register(
	ctx context.Context, req *model.RegisterEventRequest,
) (resp *model.RegisterEventResponse, err error) {
	defer func() { recordResult(common.EventRegistrationTotal, err) }()

	userID := xcontext.RequestUserID(ctx)
	unlock, err := common.AcquireLock(ctx, d.locker, "event", common.LockKeyEvent(req.EventID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	event, err := getEvent(ctx, d.eventRepo, req.EventID)
	if err != nil {
		return nil, err
	}

	used, err := lookupIdempotencyKey(
		ctx, d.idempotencyRepo, entity.IdempotencyRegisterEvent, userID, req.IdempotencyKey, event.ID)
	if err != nil {
		return nil, err
	}

	if used {
		return &model.RegisterEventResponse{Event: model.ConvertEvent(event)}, nil
	}

	if !event.EventDate.After(time.Now()) {
		return nil, errorx.New(errorx.Unavailable, "The event has already taken place")
	}

	isRegistered, err := d.isRegistered(ctx, event.ID, userID)
	if err != nil {
		return nil, err
	}

	if isRegistered {
		return nil, errorx.New(errorx.AlreadyRegistered, "You have already registered this event")
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.eventRepo.IncreaseRegistrations(ctx, event.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.EventFull, "The event is full")
		}

		xcontext.Logger(ctx).Errorf("Cannot increase registrations: %v", err)
		return nil, errorx.Unknown
	}

	err = d.eventRepo.CreateRegistration(ctx, &entity.EventRegistration{EventID: event.ID, UserID: userID})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create registration: %v", err)
		return nil, errorx.Unknown
	}

	err = saveIdempotencyKey(
		ctx, d.idempotencyRepo, entity.IdempotencyRegisterEvent, userID, req.IdempotencyKey, event.ID)
	if err != nil {
		return nil, err
	}

	event, err = d.checkRegistrationCount(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	if _, err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit registration: %v", err)
		return nil, errorx.Unknown
	}

	return &model.RegisterEventResponse{Event: model.ConvertEvent(event)}, nil
}

// checkRegistrationCount reloads the event and verifies that the counter matches the number of
// members. A mismatch is never corrected.
func (d *eventDomain) checkRegistrationCount(ctx context.Context, eventID string) (*entity.Event, error) {
	event, err := getEvent(ctx, d.eventRepo, eventID)
	if err != nil {
		return nil, err
	}

	count, err := d.eventRepo.CountRegistrations(ctx, eventID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count registrations: %v", err)
		return nil, errorx.Unknown
	}

	if count != int64(event.CurrentRegistrations) || event.CurrentRegistrations > event.RegisteredQuota {
		common.IncCounter(common.InvariantViolationTotal, "registration_count_mismatch")
		xcontext.Logger(ctx).Errorf("Registrations of event %s mismatch: counter=%d members=%d quota=%d",
			eventID, event.CurrentRegistrations, count, event.RegisteredQuota)
		return nil, errorx.New(errorx.InvariantViolation, "Registration count mismatches its members")
	}

	return event, nil
}

func (d *eventDomain) Unregister(
	ctx context.Context, req *model.UnregisterEventRequest,
) (*model.UnregisterEventResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	unlock, err := common.AcquireLock(ctx, d.locker, "event", common.LockKeyEvent(req.EventID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	event, err := getEvent(ctx, d.eventRepo, req.EventID)
	if err != nil {
		return nil, err
	}

	isRegistered, err := d.isRegistered(ctx, event.ID, userID)
	if err != nil {
		return nil, err
	}

	if !isRegistered {
		return nil, errorx.New(errorx.NotRegistered, "You have not registered this event")
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.eventRepo.DeleteRegistration(ctx, event.ID, userID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete registration: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.eventRepo.DecreaseRegistrations(ctx, event.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.IncCounter(common.InvariantViolationTotal, "registration_count_underflow")
			xcontext.Logger(ctx).Errorf("Event %s has a member but no registration is counted", event.ID)
			return nil, errorx.New(errorx.InvariantViolation, "Registration count underflow")
		}

		xcontext.Logger(ctx).Errorf("Cannot decrease registrations: %v", err)
		return nil, errorx.Unknown
	}

	err = expireIdempotencyKeys(ctx, d.idempotencyRepo, entity.IdempotencyRegisterEvent, userID, event.ID)
	if err != nil {
		return nil, err
	}

	event, err = d.checkRegistrationCount(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	if _, err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit unregistration: %v", err)
		return nil, errorx.Unknown
	}

	return &model.UnregisterEventResponse{Event: model.ConvertEvent(event)}, nil
}

func (d *eventDomain) GetRegistrations(
	ctx context.Context, req *model.GetEventRegistrationsRequest,
) (*model.GetEventRegistrationsResponse, error) {
	event, err := getEvent(ctx, d.eventRepo, req.EventID)
	if err != nil {
		return nil, err
	}

	if event.CompanyID != xcontext.RequestUserID(ctx) {
		return nil, errorx.New(errorx.PermissionDenied, "Only the owner can see the registrations")
	}

	registrations, err := d.eventRepo.GetRegistrations(ctx, event.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get registrations: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.EventRegistration{}
	for i := range registrations {
		result = append(result, model.ConvertEventRegistration(&registrations[i]))
	}

	return &model.GetEventRegistrationsResponse{Registrations: result}, nil
}
