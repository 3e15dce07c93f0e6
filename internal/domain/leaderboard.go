package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bountyhub-lab/backend/internal/common"
	"github.com/bountyhub-lab/backend/internal/model"
	"github.com/bountyhub-lab/backend/internal/repository"
	"github.com/bountyhub-lab/backend/pkg/errorx"
	"github.com/bountyhub-lab/backend/pkg/pubsub"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"github.com/bountyhub-lab/backend/pkg/xredis"
	"github.com/google/uuid"
)

const leaderboardLoadBatch = 500

type LeaderboardDomain interface {
	GetLeaderboard(context.Context, *model.GetLeaderboardRequest) (*model.GetLeaderboardResponse, error)
	GetMyRank(context.Context, *model.GetMyRankRequest) (*model.GetMyRankResponse, error)

	// HandleBountyCompleted consumes BountyCompletedTopic and adds the reward xp of the winner to
	// the leaderboard. A redelivered message is counted once.
	HandleBountyCompleted(ctx context.Context, pack *pubsub.Pack, t time.Time)
}

type leaderboardDomain struct {
	transactionRepo repository.TransactionRepository
	redisClient     xredis.Client
}

func NewLeaderboardDomain(
	transactionRepo repository.TransactionRepository,
	redisClient xredis.Client,
) *leaderboardDomain {
	return &leaderboardDomain{
		transactionRepo: transactionRepo,
		redisClient:     redisClient,
	}
}

// addPayout increases the xp of the user at most once per bounty.
func (d *leaderboardDomain) addPayout(ctx context.Context, bountyID, userID string, xp int64) error {
	marker := common.RedisKeySettledBounty(bountyID)
	ok, err := d.redisClient.SetNX(ctx, marker, userID, 0)
	if err != nil {
		return err
	}

	if !ok {
		return nil
	}

	if err := d.redisClient.ZIncrBy(ctx, common.RedisKeyXPLeaderboard(), xp, userID); err != nil {
		if delErr := d.redisClient.Del(ctx, marker); delErr != nil {
			xcontext.Logger(ctx).Errorf("Cannot remove settled marker of bounty %s: %v", bountyID, delErr)
		}
		return err
	}

	return nil
}

// ensureLoaded rebuilds the leaderboard from the ledger if it does not exist in redis. The board
// is built under a temporary key and renamed into place, so settled markers left by an earlier
// board and a half finished rebuild never hide a payout.
func (d *leaderboardDomain) ensureLoaded(ctx context.Context) error {
	ok, err := d.redisClient.Exist(ctx, common.RedisKeyXPLeaderboard())
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot call exist redis: %v", err)
		return errorx.Unknown
	}

	if ok {
		return nil
	}

	tmpKey := common.RedisKeyXPLeaderboardRebuild(uuid.NewString())
	loaded, err := d.loadPayouts(ctx, tmpKey)
	if err != nil {
		if delErr := d.redisClient.Del(ctx, tmpKey); delErr != nil {
			xcontext.Logger(ctx).Errorf("Cannot remove partial leaderboard %s: %v", tmpKey, delErr)
		}

		xcontext.Logger(ctx).Errorf("Cannot load leaderboard from ledger: %v", err)
		return errorx.Unknown
	}

	if loaded == 0 {
		return nil
	}

	if err := d.redisClient.Rename(ctx, tmpKey, common.RedisKeyXPLeaderboard()); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot rename rebuilt leaderboard: %v", err)
		return errorx.Unknown
	}

	return nil
}

// loadPayouts adds every payout of the ledger to the sorted set at key and marks its bounty as
// settled. It returns the number of payouts added.
func (d *leaderboardDomain) loadPayouts(ctx context.Context, key string) (int, error) {
	var afterID int64
	loaded := 0
	for {
		txs, err := d.transactionRepo.GetListPayout(ctx, afterID, leaderboardLoadBatch)
		if err != nil {
			return loaded, err
		}

		for _, tx := range txs {
			if tx.XP <= 0 {
				continue
			}

			if err := d.redisClient.ZIncrBy(ctx, key, tx.XP, tx.AccountID); err != nil {
				return loaded, err
			}

			// The marker may already exist from a previous board.
			marker := common.RedisKeySettledBounty(tx.BountyID.String)
			if _, err := d.redisClient.SetNX(ctx, marker, tx.AccountID, 0); err != nil {
				return loaded, err
			}

			loaded++
		}

		if len(txs) < leaderboardLoadBatch {
			return loaded, nil
		}

		afterID = txs[len(txs)-1].ID
	}
}

func (d *leaderboardDomain) GetLeaderboard(
	ctx context.Context, req *model.GetLeaderboardRequest,
) (*model.GetLeaderboardResponse, error) {
	offset, limit, err := common.Paginate(ctx, req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}

	if err := d.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	results, err := d.redisClient.ZRevRangeWithScores(ctx, common.RedisKeyXPLeaderboard(), offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get revrange redis: %v", err)
		return nil, errorx.Unknown
	}

	entries := []model.LeaderboardEntry{}
	for i, z := range results {
		member, _ := z.Member.(string)
		entries = append(entries, model.LeaderboardEntry{
			UserID: member,
			XP:     int64(z.Score),
			Rank:   offset + i + 1,
		})
	}

	return &model.GetLeaderboardResponse{Entries: entries}, nil
}

func (d *leaderboardDomain) GetMyRank(
	ctx context.Context, req *model.GetMyRankRequest,
) (*model.GetMyRankResponse, error) {
	if err := d.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	userID := xcontext.RequestUserID(ctx)
	entry := model.LeaderboardEntry{UserID: userID}

	rank, err := d.redisClient.ZRevRank(ctx, common.RedisKeyXPLeaderboard(), userID)
	if err != nil {
		if errors.Is(err, xredis.ErrNotFound) {
			// Users without any payout are unranked.
			return &model.GetMyRankResponse{Entry: entry}, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get rev rank redis: %v", err)
		return nil, errorx.Unknown
	}

	score, err := d.redisClient.ZScore(ctx, common.RedisKeyXPLeaderboard(), userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get score redis: %v", err)
		return nil, errorx.Unknown
	}

	entry.Rank = int(rank) + 1
	entry.XP = int64(score)
	return &model.GetMyRankResponse{Entry: entry}, nil
}

func (d *leaderboardDomain) HandleBountyCompleted(ctx context.Context, pack *pubsub.Pack, t time.Time) {
	var event model.BountyCompletedEvent
	if err := json.Unmarshal(pack.Msg, &event); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot unmarshal bounty completed event: %v", err)
		return
	}

	if event.BountyID == "" || event.WinnerID == "" || event.RewardXP <= 0 {
		return
	}

	// A freshly loaded leaderboard already contains this payout.
	if err := d.ensureLoaded(ctx); err != nil {
		return
	}

	if err := d.addPayout(ctx, event.BountyID, event.WinnerID, event.RewardXP); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot add payout of bounty %s to leaderboard: %v", event.BountyID, err)
	}
}
