package domain

import (
	"context"
	"errors"

	"github.com/bountyhub-lab/backend/internal/common"
	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/internal/repository"
	"github.com/bountyhub-lab/backend/pkg/errorx"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

func getBounty(ctx context.Context, bountyRepo repository.BountyRepository, id string) (*entity.Bounty, error) {
	if id == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty bounty id")
	}

	bounty, err := bountyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found bounty")
		}

		xcontext.Logger(ctx).Errorf("Cannot get bounty: %v", err)
		return nil, errorx.Unknown
	}

	return bounty, nil
}

func getEvent(ctx context.Context, eventRepo repository.EventRepository, id string) (*entity.Event, error) {
	if id == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty event id")
	}

	event, err := eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found event")
		}

		xcontext.Logger(ctx).Errorf("Cannot get event: %v", err)
		return nil, errorx.Unknown
	}

	return event, nil
}

// lookupIdempotencyKey reports whether the key has been used for the same resource before. Reusing
// a key for another resource is rejected.
func lookupIdempotencyKey(
	ctx context.Context,
	idempotencyRepo repository.IdempotencyRepository,
	scope entity.IdempotencyScope,
	userID, key, resourceID string,
) (bool, error) {
	if key == "" {
		return false, nil
	}

	record, err := idempotencyRepo.Get(ctx, scope, userID, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get idempotency key: %v", err)
		return false, errorx.Unknown
	}

	if record.ResourceID != resourceID {
		return false, errorx.New(errorx.BadRequest, "The idempotency key was used for another request")
	}

	return true, nil
}

func saveIdempotencyKey(
	ctx context.Context,
	idempotencyRepo repository.IdempotencyRepository,
	scope entity.IdempotencyScope,
	userID, key, resourceID string,
) error {
	if key == "" {
		return nil
	}

	err := idempotencyRepo.Create(ctx, &entity.IdempotencyKey{
		Scope:      scope,
		UserID:     userID,
		Key:        key,
		ResourceID: resourceID,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot save idempotency key: %v", err)
		return errorx.Unknown
	}

	return nil
}

// expireIdempotencyKeys is called when the outcome recorded by the keys no longer holds, so that a
// replay runs the request again instead of reporting a stale success.
func expireIdempotencyKeys(
	ctx context.Context,
	idempotencyRepo repository.IdempotencyRepository,
	scope entity.IdempotencyScope,
	userID, resourceID string,
) error {
	if err := idempotencyRepo.DeleteByResource(ctx, scope, userID, resourceID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot expire idempotency keys: %v", err)
		return errorx.Unknown
	}

	return nil
}

// resultLabel converts the error of an operation to a metric label.
func resultLabel(err error) string {
	if err == nil {
		return "success"
	}

	var errx errorx.Error
	if errors.As(err, &errx) {
		if name, ok := errorCodeNames[errx.Code]; ok {
			return name
		}
	}

	return "unknown"
}

var errorCodeNames = map[errorx.Code]string{
	errorx.BadRequest:             "bad_request",
	errorx.PermissionDenied:       "permission_denied",
	errorx.NotFound:               "not_found",
	errorx.Unavailable:            "unavailable",
	errorx.Busy:                   "busy",
	errorx.AlreadyClaimed:         "already_claimed",
	errorx.ClaimLimitExceeded:     "claim_limit_exceeded",
	errorx.NotClaimedByCaller:     "not_claimed_by_caller",
	errorx.InvalidStateTransition: "invalid_state_transition",
	errorx.SubmissionMissing:      "submission_missing",
	errorx.AlreadyCompleted:       "already_completed",
	errorx.EventFull:              "event_full",
	errorx.AlreadyRegistered:      "already_registered",
	errorx.NotRegistered:          "not_registered",
	errorx.InsufficientBalance:    "insufficient_balance",
	errorx.MethodNotFound:         "method_not_found",
	errorx.InvariantViolation:     "invariant_violation",
}

func recordResult(name string, err error) {
	common.IncCounter(name, resultLabel(err))
}
