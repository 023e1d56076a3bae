// Package scoring defines the round reward formula and game tuning constants.
package scoring

// Game tuning constants.
const (
	// MaxWrong is the number of misses that loses a round.
	MaxWrong = 6
	// TotalRounds is the number of rounds in a full session.
	TotalRounds = 10
	// BasePoints is awarded for every won round.
	BasePoints = 100
	// StreakBonus is awarded per consecutive win before the current one.
	StreakBonus = 50
	// LifeBonus is awarded per unused life at the moment of winning.
	LifeBonus = 20
)

// RoundPoints returns the reward for a won round. streakBefore is the
// streak prior to this win and wrongCount the misses made in the round.
// Out-of-range inputs are clamped.
func RoundPoints(streakBefore, wrongCount int) int {
	if streakBefore < 0 {
		streakBefore = 0
	}
	switch {
	case wrongCount < 0:
		wrongCount = 0
	case wrongCount > MaxWrong:
		wrongCount = MaxWrong
	}
	return BasePoints + streakBefore*StreakBonus + (MaxWrong-wrongCount)*LifeBonus
}

// MaxSessionScore is the best score a full session can reach: every round
// won flawlessly with the streak growing each time.
func MaxSessionScore() int {
	total := 0
	for streak := 0; streak < TotalRounds; streak++ {
		total += RoundPoints(streak, 0)
	}
	return total
}
