package domain

import (
	"testing"

	"subterra/internal/testutil"
)

func TestPhase_IsValid(t *testing.T) {
	testutil.AssertTrue(t, PhaseEnumerate.IsValid(), "enumerate")
	testutil.AssertTrue(t, PhasePermute.IsValid(), "permute")
	testutil.AssertFalse(t, Phase("resolve").IsValid(), "unknown phase")
	testutil.AssertFalse(t, Phase("").IsValid(), "empty phase")
}

func TestOutcome_IsFailure(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    bool
	}{
		{OutcomeSuccess, false},
		{OutcomeFailed, true},
		{OutcomeTimedOut, true},
		{OutcomeSkipped, false},
		{OutcomeCanceled, false},
	}
	for _, tt := range tests {
		testutil.AssertEqual(t, tt.outcome.IsFailure(), tt.want, tt.outcome.String())
	}
}

func TestExtractKind(t *testing.T) {
	tests := []struct {
		kind       ExtractKind
		valid      bool
		structured bool
	}{
		{ExtractLines, true, false},
		{ExtractArrow, true, true},
		{ExtractSections, true, true},
		{ExtractJSONL, true, true},
		{ExtractKind("xml"), false, false},
	}
	for _, tt := range tests {
		testutil.AssertEqual(t, tt.kind.IsValid(), tt.valid, "IsValid "+tt.kind.String())
		testutil.AssertEqual(t, tt.kind.Structured(), tt.structured, "Structured "+tt.kind.String())
	}
}
