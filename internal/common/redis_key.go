package common

import "fmt"

func LockKeyBounty(bountyID string) string {
	return fmt.Sprintf("bounty:%s", bountyID)
}

func LockKeyTalent(talentID string) string {
	return fmt.Sprintf("talent:%s", talentID)
}

func LockKeyAccount(accountID string) string {
	return fmt.Sprintf("account:%s", accountID)
}

func LockKeyEvent(eventID string) string {
	return fmt.Sprintf("event:%s", eventID)
}

func RedisKeyXPLeaderboard() string {
	return "leaderboard:xp"
}

// RedisKeySettledBounty marks a bounty whose xp has been added to the leaderboard, so that a
// redelivered message is not counted twice.
func RedisKeySettledBounty(bountyID string) string {
	return fmt.Sprintf("leaderboard:settled:%s", bountyID)
}

// RedisKeyXPLeaderboardRebuild holds a leaderboard being rebuilt from the ledger until it is
// renamed onto RedisKeyXPLeaderboard.
func RedisKeyXPLeaderboardRebuild(id string) string {
	return fmt.Sprintf("leaderboard:xp:rebuild:%s", id)
}
