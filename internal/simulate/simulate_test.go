package simulate

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/alsip/internal/adapters/http/api"
	"github.com/okian/alsip/internal/adapters/repository/memstore"
	service "github.com/okian/alsip/internal/app"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/streak"
	"github.com/okian/alsip/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init(logger.WithOutput(io.Discard))
}

func testConfig() *Config {
	return &Config{
		Users:         4,
		Days:          12,
		Start:         "2024-03-01",
		SkillsPerGoal: 3,
		PracticeRate:  0.5,
		RetryRate:     0.3,
		RecoveryGap:   2,
		Seed:          42,
		Workers:       3,
		Timeout:       5 * time.Second,
	}
}

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := service.New(memstore.New(), service.WithSweep(false, ""))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	srv := httptest.NewServer(api.NewServer(svc).Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Stop(context.Background())
	})
	return srv
}

func TestGenerate(t *testing.T) {
	Convey("Given a simulation config", t, func() {
		ctx := context.Background()
		cfg := testConfig()

		Convey("When generating twice with the same seed", func() {
			a, err := Generate(ctx, cfg)
			So(err, ShouldBeNil)
			b, err := Generate(ctx, cfg)
			So(err, ShouldBeNil)

			Convey("Then the shape of the schedule should match", func() {
				So(len(a.ByDay), ShouldEqual, cfg.Days)
				So(a.Sessions(), ShouldEqual, b.Sessions())
				for day := range a.ByDay {
					for i, owner := range a.Users {
						So(len(a.ByDay[day][owner]), ShouldEqual, len(b.ByDay[day][b.Users[i]]))
					}
				}
			})

			Convey("Then every action should be a valid session", func() {
				for day, acts := range a.ByDay {
					for owner, list := range acts {
						So(len(list), ShouldBeLessThanOrEqualTo, 2)
						for _, act := range list {
							So(act.Day, ShouldEqual, day)
							So(act.Owner, ShouldEqual, owner)
							So(act.ClarityGain, ShouldBeBetweenOrEqual, 1, 5)
							So(act.Difficulty.Valid(), ShouldBeTrue)
							So(act.Skill, ShouldBeBetweenOrEqual, 0, cfg.SkillsPerGoal-1)
						}
						if len(list) == 2 {
							So(list[0].Skill, ShouldNotEqual, list[1].Skill)
						}
					}
				}
				So(a.Date(11), ShouldEqual, model.Date("2024-03-12"))
			})
		})

		Convey("When the config is empty", func() {
			cfg.Users = 0
			_, err := Generate(ctx, cfg)
			So(err, ShouldNotBeNil)
		})

		Convey("When the start date is invalid", func() {
			cfg.Start = "03/01/2024"
			_, err := Generate(ctx, cfg)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestLearnerCheck(t *testing.T) {
	Convey("Given a learner model", t, func() {
		l := &learner{owner: "u1"}

		Convey("Then a fresh learner expects an active empty streak", func() {
			So(l.check(streak.Status{State: streak.StateActive}, "2024-03-01", 2), ShouldBeEmpty)
			So(l.check(streak.Status{State: streak.StateRecovery}, "2024-03-01", 2), ShouldHaveLength, 1)
		})

		Convey("When the learner practiced twice on one day and once later", func() {
			l.practice("2024-03-01")
			l.practice("2024-03-01")
			l.practice("2024-03-02")

			Convey("Then two practiced days are expected", func() {
				So(l.practiced, ShouldEqual, 2)
				ok := streak.Status{State: streak.StateActive, CurrentStreak: 2, LongestStreak: 2}
				So(l.check(ok, "2024-03-02", 2), ShouldBeEmpty)
			})

			Convey("Then a gap must be reported as recovery", func() {
				active := streak.Status{State: streak.StateActive, CurrentStreak: 2, LongestStreak: 2}
				So(l.check(active, "2024-03-05", 2), ShouldHaveLength, 1)

				short := streak.Status{State: streak.StateRecovery, MissedDays: 1, CurrentStreak: 2, LongestStreak: 2}
				So(l.check(short, "2024-03-05", 2), ShouldHaveLength, 1)

				good := streak.Status{State: streak.StateRecovery, MissedDays: 3, CurrentStreak: 2, LongestStreak: 2}
				So(l.check(good, "2024-03-05", 2), ShouldBeEmpty)
			})

			Convey("Then broken counters should be reported", func() {
				bad := streak.Status{State: streak.StateActive, CurrentStreak: 3, LongestStreak: 1}
				So(len(l.check(bad, "2024-03-02", 2)), ShouldEqual, 2)
			})
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		srv := startServer(t)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		cfg := testConfig()
		cfg.BaseURL = srv.URL
		cfg.OutputFile = filepath.Join(t.TempDir(), "out", "schedule.json")

		Convey("When the simulation runs", func() {
			st, err := Run(ctx, cfg)

			Convey("Then every invariant should hold", func() {
				So(err, ShouldBeNil)
				So(st.Violations, ShouldBeEmpty)
				So(st.Failed, ShouldEqual, 0)
				So(st.ReplayMismatches, ShouldEqual, 0)
				So(st.Observations, ShouldEqual, cfg.Users*cfg.Days)
				So(st.SessionsLogged, ShouldEqual, st.SessionsSubmitted)
				So(st.StreakMax, ShouldBeLessThanOrEqualTo, float64(cfg.Days))
			})

			Convey("Then the schedule should be saved", func() {
				data, err := os.ReadFile(cfg.OutputFile)
				So(err, ShouldBeNil)
				var sched Schedule
				So(json.Unmarshal(data, &sched), ShouldBeNil)
				So(sched.Days, ShouldEqual, cfg.Days)
				So(sched.Sessions(), ShouldEqual, st.SessionsSubmitted)
			})
		})

		Convey("When the service is unreachable", func() {
			cfg.BaseURL = "http://127.0.0.1:1"
			_, err := Run(ctx, cfg)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestClientStatusError(t *testing.T) {
	Convey("Given a running service", t, func() {
		srv := startServer(t)
		c := NewClient(srv.URL, nil)

		Convey("When adding a skill to a missing goal", func() {
			_, err := c.AddSkill(context.Background(), "missing", "Verbs")

			Convey("Then the status should be carried in the error", func() {
				se, ok := err.(*StatusError)
				So(ok, ShouldBeTrue)
				So(se.Code, ShouldEqual, 404)
			})
		})
	})
}
