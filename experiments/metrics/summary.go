package metrics

import (
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"
)

type Summary struct {
	Games       int
	Wins        map[int]int // AgentConfig.ID -> games won
	Draws       int
	Unfinished  int // Stopped at the move limit
	MeanMoves   float64
	StdDevMoves float64
}

// Summarize tallies results per agent and the distribution of game lengths.
func Summarize(records []GameRecord) Summary {
	summary := Summary{Games: len(records), Wins: map[int]int{}}
	lengths := make([]float64, 0, len(records))
	for _, record := range records {
		lengths = append(lengths, float64(record.TotalMoves))
		switch record.Winner {
		case "1":
			summary.Wins[record.Agent1]++
		case "2":
			summary.Wins[record.Agent2]++
		case "draw":
			summary.Draws++
		default:
			summary.Unfinished++
		}
	}
	if len(lengths) > 0 {
		summary.MeanMoves, summary.StdDevMoves = stat.MeanStdDev(lengths, nil)
	}
	return summary
}

// Agents lists the IDs of agents with at least one win, in ascending order.
func (s Summary) Agents() []int {
	ids := make([]int, 0, len(s.Wins))
	for id := range s.Wins {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
