package timer_test

import (
	"testing"
	"time"

	"github.com/cap-tools/capdeploy/pkg/ui/timer"
	"github.com/stretchr/testify/assert"
)

func TestGetTimingBeforeStart(t *testing.T) {
	t.Parallel()

	tmr := timer.New()

	total, stage := tmr.GetTiming()

	assert.Zero(t, total)
	assert.Zero(t, stage)
}

func TestGetTimingAfterStart(t *testing.T) {
	t.Parallel()

	tmr := timer.New()
	tmr.Start()

	time.Sleep(10 * time.Millisecond)

	total, stage := tmr.GetTiming()

	assert.Positive(t, total)
	assert.Positive(t, stage)
	assert.GreaterOrEqual(t, total, stage)
}

func TestNewStageResetsStageTime(t *testing.T) {
	t.Parallel()

	tmr := timer.New()
	tmr.Start()

	time.Sleep(20 * time.Millisecond)
	tmr.NewStage()

	total, stage := tmr.GetTiming()

	assert.Greater(t, total, stage)
}
