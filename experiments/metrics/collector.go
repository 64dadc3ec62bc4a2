package metrics

import (
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	Iterations   int
	Duration     time.Duration
	Episodes     int
	FullPlayouts int
	RolloutMoves int
	TreeSize     int
}

type MoveMetric struct {
	Step   int
	Player int // Player ID
	SearchMetric
}

type GameMetric struct {
	ID             string
	StartingPlayer int    // Player ID
	Winner         string // Player ID, "draw", or "" when stopped at the turn limit
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalMoves     int
}

type Collector interface {
	Start(iterations int)
	AddEpisode()
	AddFullPlayout()
	AddRolloutMoves(n int)
	AddNode()
	Complete() SearchMetric
}

type collector struct {
	iterations   int
	startTime    time.Time
	episodes     atomic.Int32
	fullPlayouts atomic.Int32
	rolloutMoves atomic.Int64
	treeSize     atomic.Int32
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(iterations int) {
	m.startTime = time.Now()
	m.iterations = iterations
	m.episodes.Store(0)
	m.fullPlayouts.Store(0)
	m.rolloutMoves.Store(0)
	m.treeSize.Store(1) // Root
}

func (m *collector) AddEpisode() {
	m.episodes.Add(1)
}

func (m *collector) AddFullPlayout() {
	m.fullPlayouts.Add(1)
}

func (m *collector) AddRolloutMoves(n int) {
	m.rolloutMoves.Add(int64(n))
}

func (m *collector) AddNode() {
	m.treeSize.Add(1)
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Iterations:   m.iterations,
		Duration:     time.Since(m.startTime),
		Episodes:     int(m.episodes.Load()),
		FullPlayouts: int(m.fullPlayouts.Load()),
		RolloutMoves: int(m.rolloutMoves.Load()),
		TreeSize:     int(m.treeSize.Load()),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(iterations int)   {}
func (m *dummyCollector) AddEpisode()            {}
func (m *dummyCollector) AddFullPlayout()        {}
func (m *dummyCollector) AddRolloutMoves(n int)  {}
func (m *dummyCollector) AddNode()               {}
func (m *dummyCollector) Complete() SearchMetric { return SearchMetric{} }
