package resample

import "math/rand"

// RoughlyBalancedMajorityCount draws a majority-class sample size for roughly
// balanced bagging: coin flips with the given minority chance are repeated
// until minorityGoal minority hits have occurred, and the number of majority
// hits seen along the way is returned (a negative-binomial draw). A chance
// outside (0, 1] falls back to the minority goal, giving an exactly balanced
// bag.
func RoughlyBalancedMajorityCount(minorityGoal int, minorityChance float64, seed int64) int {
	if minorityChance <= 0.0 || minorityChance > 1.0 {
		return minorityGoal
	}

	rnd := rand.New(rand.NewSource(seed))
	minorityCount := 0
	majorityCount := 0
	for minorityCount < minorityGoal {
		if rnd.Float64() < minorityChance {
			minorityCount++
		} else {
			majorityCount++
		}
	}
	return majorityCount
}
