package game

// Scoring engine. Pure functions, integer/floor arithmetic throughout so
// a given input always produces the same award. Non-negative operands
// make integer division equivalent to floor.

const (
	pointsPerTier = 50

	minGuessPoints = 50
	maxGuessPoints = 500

	streakBonusStep = 10
	streakBonusCap  = 100

	finalStreakStep = 20
	finalStreakCap  = 200
)

// BasePoints is the tier-scaled base award for a word.
func BasePoints(tier int) int {
	return tier * pointsPerTier
}

// positionMultiplier returns the rational multiplier for the nth correct
// guesser of a round: 1.5 for the first, 1.25 for the second, 1.0 after.
func positionMultiplier(position int) (num, den int) {
	switch position {
	case 1:
		return 3, 2
	case 2:
		return 5, 4
	default:
		return 1, 1
	}
}

// StreakBonus rewards consecutive rounds with a correct guess, capped.
func StreakBonus(streak int) int {
	return minInt(streak*streakBonusStep, streakBonusCap)
}

// GuesserPoints computes the award for one accepted correct guess.
// remainingSec is clamped to [0, durationSec]; streak is the guesser's
// streak before this guess.
func GuesserPoints(base, remainingSec, durationSec, position, streak int) int {
	if durationSec <= 0 {
		return minGuessPoints
	}
	if remainingSec < 0 {
		remainingSec = 0
	}
	if remainingSec > durationSec {
		remainingSec = durationSec
	}

	num, den := positionMultiplier(position)
	pts := base*remainingSec*num/(durationSec*den) + StreakBonus(streak)

	if pts < minGuessPoints {
		return minGuessPoints
	}
	if pts > maxGuessPoints {
		return maxGuessPoints
	}
	return pts
}

// DrawerPerGuessBonus is credited to the drawer immediately on each
// correct guess: floor(30% of the guesser's award).
func DrawerPerGuessBonus(guesserPoints int) int {
	return guesserPoints * 3 / 10
}

// DrawerRoundBonus is the end-of-round drawer award; zero if nobody
// guessed the word.
func DrawerRoundBonus(correctGuessers int) int {
	if correctGuessers == 0 {
		return 0
	}
	return 50 + 10*correctGuessers
}

// AccuracyBonus is the end-of-game award for guessing reliability:
// floor(correct / possible * 100), where possible is one guess
// opportunity per round another player drew.
func AccuracyBonus(correctGuesses, maxRounds, playerCount int) int {
	opportunities := maxRounds * (playerCount - 1)
	if opportunities <= 0 {
		return 0
	}
	return correctGuesses * 100 / opportunities
}

// FinalStreakBonus converts the streak standing at game end.
func FinalStreakBonus(streak int) int {
	return minInt(streak*finalStreakStep, finalStreakCap)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
