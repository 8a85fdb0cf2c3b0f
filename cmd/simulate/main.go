package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/simulate"
)

// Default configuration constants.
const (
	defaultUsers      = 20
	defaultDays       = 30
	defaultStart      = "2024-01-01"
	defaultSkills     = 3
	defaultRate       = 0.7
	defaultRetryRate  = 0.1
	defaultGap        = 2
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		users   = flag.Int("users", defaultUsers, "Number of simulated learners")
		days    = flag.Int("days", defaultDays, "Number of days to replay")
		start   = flag.String("start", defaultStart, "First simulated day (YYYY-MM-DD)")
		skills  = flag.Int("skills", defaultSkills, "Skills per learner goal")
		rate    = flag.Float64("rate", defaultRate, "Chance a learner practices on a day")
		retry   = flag.Float64("retry", defaultRetryRate, "Chance a session is resent with its key")
		gap     = flag.Int("gap", defaultGap, "Recovery gap configured on the server")
		seed    = flag.Uint64("seed", 1, "Seed for the schedule")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent learners")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		output  = flag.String("output", "", "Write the generated schedule as JSON")
		logFile = flag.String("log", "", "Log file (default: simulate_TIMESTAMP.log)")
		verbose = flag.Bool("verbose", false, "Log every violation")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	startDate, err := model.ParseDate(*start)
	if err != nil {
		os.Stderr.WriteString("Invalid -start: " + err.Error() + "\n")
		os.Exit(2)
	}

	closer, err := simulate.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &simulate.Config{
		BaseURL:       *baseURL,
		Users:         *users,
		Days:          *days,
		Start:         startDate,
		SkillsPerGoal: *skills,
		PracticeRate:  *rate,
		RetryRate:     *retry,
		RecoveryGap:   *gap,
		Seed:          *seed,
		Workers:       *workers,
		Timeout:       *timeout,
		OutputFile:    *output,
		Verbose:       *verbose,
	}

	if _, err := simulate.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
