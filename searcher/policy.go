package searcher

import "math"

// Hyperparameters for MCTS

const DefaultIterations = 2000

const CSquared = 2.0 // Exploration constant, fixed inside the UCT formula

// uct = reward + sqrt(c^2*ln(N)/n)
func uct(reward float64, visits int, parentVisits int) float64 {
	if visits == 0 {
		panic("cannot compute UCT: 0 visits")
	}
	if parentVisits == 0 {
		panic("cannot compute UCT: 0 parent visits")
	}
	return reward + math.Sqrt(CSquared*math.Log(float64(parentVisits))/float64(visits))
}
