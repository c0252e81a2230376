package cron

import (
	"testing"
)

func FuzzRegisterJob(f *testing.F) {
	for _, seed := range []string{
		"*/15 * * * *",
		"0 * * * *",
		"0 0 1 1 *",
		"@every 15m",
		"@hourly",
		"every tuesday",
		"",
		"60 * * * *",
		"TZ=Europe/Paris 0 9 * * *",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(_ *testing.T, expr string) {
		s := NewScheduler(SchedulerOptions{})
		// Must not panic; invalid expressions are rejected with an error.
		_ = s.RegisterJob(funcJob{name: "fuzz", expr: expr, run: noop})
	})
}
