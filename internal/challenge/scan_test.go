package challenge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// TestScanSpecificCode verifies specific-code mode: mismatches are reported
// without ending the challenge, an exact match completes it, and further
// frames are ignored until reset.
func TestScanSpecificCode(t *testing.T) {
	t.Parallel()

	rec := &completionRecorder{}
	spec := alarm.ChallengeSpec{Kind: alarm.ChallengeScan, ExpectedCode: "gate-42"}
	c := NewScan(spec, rec.callbacks())

	require.Equal(t, ScanMismatch, c.HandleDecode("something-else"))
	require.Empty(t, rec.completed)

	require.Equal(t, ScanAccepted, c.HandleDecode("gate-42"))
	require.Equal(t, []alarm.ChallengeKind{alarm.ChallengeScan}, rec.completed)

	// Accepted decode gates further frames.
	require.Equal(t, ScanIgnored, c.HandleDecode("gate-42"))
	require.Len(t, rec.completed, 1)
}

// TestScanUniqueCount verifies the documented scenario: goal 3 with values
// A, B, A, C — the duplicate A is rejected and completion fires only on C.
func TestScanUniqueCount(t *testing.T) {
	t.Parallel()

	rec := &completionRecorder{}
	spec := alarm.ChallengeSpec{Kind: alarm.ChallengeScan, UniqueCodeGoal: 3}
	c := NewScan(spec, rec.callbacks())

	require.Equal(t, ScanAccepted, c.HandleDecode("A"))
	require.Equal(t, 1, c.UniqueCount())
	c.Reset()

	require.Equal(t, ScanAccepted, c.HandleDecode("B"))
	require.Equal(t, 2, c.UniqueCount())
	c.Reset()

	require.Equal(t, ScanDuplicate, c.HandleDecode("A"))
	require.Equal(t, 2, c.UniqueCount())
	require.Empty(t, rec.completed)

	require.Equal(t, ScanAccepted, c.HandleDecode("C"))
	require.Equal(t, 3, c.UniqueCount())
	require.Equal(t, []alarm.ChallengeKind{alarm.ChallengeScan}, rec.completed)
}

// TestScanAcceptedGateWithoutReset verifies that without a reset no further
// decode is processed even in unique-count mode.
func TestScanAcceptedGateWithoutReset(t *testing.T) {
	t.Parallel()

	rec := &completionRecorder{}
	spec := alarm.ChallengeSpec{Kind: alarm.ChallengeScan, UniqueCodeGoal: 2}
	c := NewScan(spec, rec.callbacks())

	require.Equal(t, ScanAccepted, c.HandleDecode("A"))
	require.Equal(t, ScanIgnored, c.HandleDecode("B"))
	require.Equal(t, 1, c.UniqueCount())
}
