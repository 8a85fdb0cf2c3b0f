package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/progress"
	"github.com/okian/alsip/internal/domain/types"
	"github.com/okian/alsip/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

var goalTitles = []string{
	"Become a Go developer",
	"Learn Spanish",
	"Get into data analytics",
	"Improve UX design",
	"Learn to cook",
}

// Run executes a complete simulation against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	return RunWith(ctx, cfg, NewClient(cfg.BaseURL, &http.Client{Timeout: cfg.Timeout}))
}

// RunWith executes a simulation using client. It returns the statistics
// and an error when any request failed or any invariant was violated.
func RunWith(ctx context.Context, cfg *Config, client *Client) (*Stats, error) {
	st := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting learning simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("users", cfg.Users),
		logger.Int("days", cfg.Days),
		logger.String("start", cfg.Start.String()),
		logger.Int("workers", cfg.Workers))

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return st, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate schedule
	sched, err := Generate(ctx, cfg)
	if err != nil {
		return st, fmt.Errorf("schedule generation failed: %w", err)
	}

	// Step 3: Create one goal per learner
	learners, err := setup(ctx, cfg, client, sched)
	if err != nil {
		return st, fmt.Errorf("learner setup failed: %w", err)
	}

	// Step 4: Replay every day in order
	for day := 0; day < sched.Days; day++ {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		replayDay(ctx, cfg, client, sched, day, learners, st)
	}

	// Step 5: Save schedule to file
	if cfg.OutputFile != "" {
		if err := saveSchedule(ctx, cfg.OutputFile, sched); err != nil {
			log.Warn(ctx, "failed to save schedule to file", logger.Error(err))
		}
	}

	summarize(learners, st)
	st.EndTime = time.Now()
	st.Duration = st.EndTime.Sub(st.StartTime)
	displayFinalStats(ctx, st)

	if st.Failed > 0 || st.ReplayMismatches > 0 || len(st.Violations) > 0 {
		return st, fmt.Errorf("simulation found %d failed requests, %d replay mismatches and %d violations",
			st.Failed, st.ReplayMismatches, len(st.Violations))
	}
	log.Info(ctx, "simulation completed successfully")
	return st, nil
}

func setup(ctx context.Context, cfg *Config, client *Client, sched *Schedule) (map[string]*learner, error) {
	learners := make(map[string]*learner, len(sched.Users))
	for i, owner := range sched.Users {
		g, err := client.CreateGoal(ctx, types.NewGoal{
			Owner:    owner,
			Title:    goalTitles[i%len(goalTitles)],
			Timeline: model.Timeline3Months,
			Effort:   model.EffortModerate,
		})
		if err != nil {
			return nil, err
		}
		l := &learner{owner: owner, goalID: g.Goal.ID}
		for k := 0; k < cfg.SkillsPerGoal; k++ {
			sk, err := client.AddSkill(ctx, g.Goal.ID, fmt.Sprintf("Skill %d", k+1))
			if err != nil {
				return nil, err
			}
			l.skillIDs = append(l.skillIDs, sk.ID)
		}
		learners[owner] = l
	}
	return learners, nil
}

// replayDay runs every learner's sessions for day concurrently, then
// observes each learner's streak. A learner is only touched by one
// goroutine per day so its sessions stay in order.
func replayDay(ctx context.Context, cfg *Config, client *Client, sched *Schedule, day int, learners map[string]*learner, st *Stats) {
	today := sched.Date(day)
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan *learner)
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for l := range jobs {
				local := &Stats{}
				for _, a := range sched.ByDay[day][l.owner] {
					runAction(ctx, client, l, a, today, local)
				}
				status, err := client.Streak(ctx, l.owner, today)
				local.Observations++
				var violations []string
				if err != nil {
					local.Failed++
				} else {
					violations = l.check(status, today, cfg.RecoveryGap)
				}

				mu.Lock()
				merge(st, local)
				st.Violations = append(st.Violations, violations...)
				mu.Unlock()

				if cfg.Verbose {
					for _, v := range violations {
						logger.Get().Warn(ctx, "invariant violated", logger.String("detail", v))
					}
				}
			}
		}()
	}

	for _, owner := range sched.Users {
		jobs <- learners[owner]
	}
	close(jobs)
	wg.Wait()
}

func runAction(ctx context.Context, client *Client, l *learner, a Action, today model.Date, st *Stats) {
	clarity := a.ClarityGain
	difficulty := a.Difficulty
	in := types.Session{
		Owner:       l.owner,
		SkillID:     l.skillIDs[a.Skill],
		Date:        today,
		ClarityGain: &clarity,
		Difficulty:  &difficulty,
	}

	st.SessionsSubmitted++
	res, err := client.CompleteSession(ctx, a.Key, in)
	if err != nil {
		st.Failed++
		logger.Get().Error(ctx, "session failed", logger.String("owner", l.owner), logger.Error(err))
		return
	}
	l.practice(today)
	if res.Status == progress.StatusAlreadyLoggedToday {
		st.SessionsDuplicate++
	} else {
		st.SessionsLogged++
	}

	if !a.Retry {
		return
	}
	st.Replays++
	replay, err := client.CompleteSession(ctx, a.Key, in)
	if err != nil {
		st.Failed++
		return
	}
	if !sameResult(res, replay) {
		st.ReplayMismatches++
	}
}

func merge(dst, src *Stats) {
	dst.SessionsSubmitted += src.SessionsSubmitted
	dst.SessionsLogged += src.SessionsLogged
	dst.SessionsDuplicate += src.SessionsDuplicate
	dst.Replays += src.Replays
	dst.ReplayMismatches += src.ReplayMismatches
	dst.Failed += src.Failed
	dst.Observations += src.Observations
}

// summarize fills the streak distribution from the client-side model.
func summarize(learners map[string]*learner, st *Stats) {
	data := make(stats.Float64Data, 0, len(learners))
	for _, l := range learners {
		data = append(data, float64(l.practiced))
	}
	if len(data) == 0 {
		return
	}
	st.StreakMean, _ = data.Mean()
	st.StreakMedian, _ = data.Median()
	st.StreakMax, _ = data.Max()
}

// saveSchedule writes the generated schedule as JSON.
func saveSchedule(ctx context.Context, filename string, sched *Schedule) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(sched, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schedule: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Get().Info(ctx, "schedule saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, st *Stats) {
	logger.Get().Info(ctx, "final statistics",
		logger.Int("sessionsSubmitted", st.SessionsSubmitted),
		logger.Int("sessionsLogged", st.SessionsLogged),
		logger.Int("sessionsDuplicate", st.SessionsDuplicate),
		logger.Int("replays", st.Replays),
		logger.Int("replayMismatches", st.ReplayMismatches),
		logger.Int("failed", st.Failed),
		logger.Int("observations", st.Observations),
		logger.Int("violations", len(st.Violations)),
		logger.Float64("streakMean", st.StreakMean),
		logger.Float64("streakMedian", st.StreakMedian),
		logger.Float64("streakMax", st.StreakMax),
		logger.String("duration", st.Duration.String()))
}
