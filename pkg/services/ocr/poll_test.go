package ocr

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequence returns a check that yields outcomes in order, repeating the last.
func sequence(calls *int, outcomes ...Outcome) CheckFunc {
	return func(context.Context) (Outcome, error) {
		idx := *calls
		*calls++
		if idx >= len(outcomes) {
			idx = len(outcomes) - 1
		}
		return outcomes[idx], nil
	}
}

func TestPoll(t *testing.T) {
	tests := []struct {
		name      string
		attempts  int
		outcomes  []Outcome
		want      Outcome
		wantCalls int
	}{
		{name: "immediate success", attempts: 20, outcomes: []Outcome{Succeeded}, want: Succeeded, wantCalls: 1},
		{name: "success after pending", attempts: 20, outcomes: []Outcome{Pending, Pending, Succeeded}, want: Succeeded, wantCalls: 3},
		{name: "failure is terminal", attempts: 20, outcomes: []Outcome{Pending, Failed, Succeeded}, want: Failed, wantCalls: 2},
		{name: "budget exhausted", attempts: 20, outcomes: []Outcome{Pending}, want: TimedOut, wantCalls: 20},
		{name: "success on last attempt", attempts: 3, outcomes: []Outcome{Pending, Pending, Succeeded}, want: Succeeded, wantCalls: 3},
		{name: "no attempts", attempts: 0, outcomes: []Outcome{Succeeded}, want: TimedOut, wantCalls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got, err := Poll(context.Background(), tt.attempts, time.Microsecond, sequence(&calls, tt.outcomes...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestPollCheckErrorStops(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := Poll(context.Background(), 5, time.Microsecond, func(context.Context) (Outcome, error) {
		calls++
		return Pending, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestPollHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Poll(ctx, 5, time.Hour, func(context.Context) (Outcome, error) {
		calls++
		cancel()
		return Pending, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestPollWaitsBetweenAttemptsOnly(t *testing.T) {
	calls := 0
	start := time.Now()
	got, err := Poll(context.Background(), 3, 20*time.Millisecond, sequence(&calls, Pending))
	require.NoError(t, err)
	assert.Equal(t, TimedOut, got)
	// two waits, none after the final attempt
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, Succeeded, outcomeOf(computervision.OperationStatusCodes("succeeded")))
	assert.Equal(t, Failed, outcomeOf(computervision.OperationStatusCodes("failed")))
	assert.Equal(t, Pending, outcomeOf(computervision.OperationStatusCodes("running")))
	assert.Equal(t, Pending, outcomeOf(computervision.OperationStatusCodes("notStarted")))
	assert.Equal(t, Pending, outcomeOf(computervision.OperationStatusCodes("")))
	assert.Equal(t, "timed_out", TimedOut.String())
}

func TestExtractResultSkipsMissingParts(t *testing.T) {
	assert.Empty(t, ExtractResult(computervision.ReadOperationResult{}).Text())

	a, c := "a", "c"
	res := computervision.ReadOperationResult{
		AnalyzeResult: &computervision.AnalyzeResults{
			ReadResults: &[]computervision.ReadResult{
				{Lines: &[]computervision.Line{{Text: &a}, {Text: nil}}},
				{Lines: nil},
				{Lines: &[]computervision.Line{{Text: &c}}},
			},
		},
	}
	result := ExtractResult(res)
	assert.Equal(t, "a\nc", result.Text())
	assert.Len(t, result.Pages, 3)
	assert.Equal(t, 3, result.Lines()[1].Page)

	var nilResult *Result
	assert.Empty(t, nilResult.Text())
}
