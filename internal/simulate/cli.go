package simulate

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/alsip/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging initialises the logger to write to stdout and logFile. If
// logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		logFile = "simulate_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	os.Stdout.WriteString(`ALSIP Learning Simulator
========================

Replays day-by-day learning sessions against a running service and checks
the streak invariants after every simulated day.

Usage:
  go run ./cmd/simulate [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -users int
        Number of simulated learners (default 20)
  -days int
        Number of days to replay (default 30)
  -start string
        First simulated day, YYYY-MM-DD (default 2024-01-01)
  -skills int
        Skills per learner goal (default 3)
  -rate float
        Chance a learner practices on a day (default 0.7)
  -retry float
        Chance a session is resent with its idempotency key (default 0.1)
  -gap int
        Recovery gap configured on the server (default 2)
  -seed uint
        Seed for the schedule (default 1)
  -workers int
        Number of concurrent learners (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Write the generated schedule as JSON
  -log string
        Log file (default: simulate_TIMESTAMP.log)
  -verbose
        Log every violation
  -help
        Show this help message

Examples:
  # Simulate a month for 20 learners
  go run ./cmd/simulate

  # Sparse practice, more learners
  go run ./cmd/simulate -users 200 -rate 0.3 -days 90
`)
}
