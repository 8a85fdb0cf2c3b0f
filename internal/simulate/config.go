package simulate

import (
	"time"

	"github.com/okian/alsip/internal/domain/model"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL       string        // Base URL of the service
	Users         int           // Number of simulated learners
	Days          int           // Number of calendar days to replay
	Start         model.Date    // First simulated day
	SkillsPerGoal int           // Skills added to each learner's goal
	PracticeRate  float64       // Chance a learner practices on a given day
	RetryRate     float64       // Chance a session is resent with the same key
	RecoveryGap   int           // Gap in days the server uses for recovery
	Seed          uint64        // Seed for the schedule generator
	Workers       int           // Number of concurrent learners per day
	Timeout       time.Duration // HTTP request timeout
	OutputFile    string        // Optional JSON dump of the schedule
	Verbose       bool          // Log every violation as it is found
}

// Action is one session a learner completes on a simulated day.
type Action struct {
	Day         int              `json:"day"`
	Owner       string           `json:"owner"`
	Skill       int              `json:"skill"`
	ClarityGain int              `json:"clarity_gain"`
	Difficulty  model.Difficulty `json:"difficulty"`
	Key         string           `json:"key"`
	Retry       bool             `json:"retry"`
}

// Schedule is the generated activity of every learner, indexed by day.
type Schedule struct {
	Start model.Date `json:"start"`
	Days  int        `json:"days"`
	Users []string   `json:"users"`
	// ByDay[d][owner] lists the sessions owner completes on day d.
	ByDay []map[string][]Action `json:"by_day"`
}

// Stats holds run statistics.
type Stats struct {
	SessionsSubmitted int
	SessionsLogged    int
	SessionsDuplicate int
	Replays           int
	ReplayMismatches  int
	Failed            int
	Observations      int
	Violations        []string
	StreakMean        float64
	StreakMedian      float64
	StreakMax         float64
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
