package challenge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// TestObjectCompletesOnQualifyingDetection verifies label matching and the
// confidence threshold.
func TestObjectCompletesOnQualifyingDetection(t *testing.T) {
	t.Parallel()

	rec := &completionRecorder{}
	spec := alarm.ChallengeSpec{Kind: alarm.ChallengeObject, TargetLabel: "toothbrush", MinConfidence: 0.7}
	c := NewObject(spec, rec.callbacks())

	// Wrong label and low confidence do not complete.
	require.False(t, c.HandleDetections([]Detection{
		{Label: "cup", Confidence: 0.95},
		{Label: "toothbrush", Confidence: 0.5},
	}))
	require.Empty(t, rec.completed)

	// Case-insensitive label match at the threshold completes.
	require.True(t, c.HandleDetections([]Detection{
		{Label: "Toothbrush", Confidence: 0.7},
	}))
	require.Equal(t, []alarm.ChallengeKind{alarm.ChallengeObject}, rec.completed)
}

// TestObjectNoDoubleFire verifies that qualifying frames in quick succession
// complete the challenge only once.
func TestObjectNoDoubleFire(t *testing.T) {
	t.Parallel()

	rec := &completionRecorder{}
	spec := alarm.ChallengeSpec{Kind: alarm.ChallengeObject, TargetLabel: "plant"}
	c := NewObject(spec, rec.callbacks())

	frame := []Detection{{Label: "plant", Confidence: 0.9}}

	require.True(t, c.HandleDetections(frame))
	require.False(t, c.HandleDetections(frame))
	require.False(t, c.HandleDetections(frame))
	require.Len(t, rec.completed, 1)
}
