package diskspace

import (
	"math"
	"strings"
	"testing"
)

func TestHasSufficientSpace_Zero(t *testing.T) {
	c := NewVolumeChecker(t.TempDir(), DefaultSafetyMargin)
	if !c.HasSufficientSpace(0) {
		t.Error("expected sufficient space for 0 bytes")
	}
}

func TestHasSufficientSpace_Small(t *testing.T) {
	c := NewVolumeChecker(t.TempDir(), DefaultSafetyMargin)
	if !c.HasSufficientSpace(1024) {
		t.Error("expected sufficient space for 1 KB")
	}
}

func TestCheck_Exhausted(t *testing.T) {
	c := NewVolumeChecker(t.TempDir(), DefaultSafetyMargin)

	err := c.Check(math.MaxInt64 / 2)
	if err == nil {
		t.Fatal("expected error for absurd space requirement")
	}
	if !IsInsufficientSpaceError(err) {
		t.Errorf("expected InsufficientSpaceError, got %T", err)
	}
	if !strings.Contains(err.Error(), "insufficient disk space") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestCheck_ErrorCarriesCounts(t *testing.T) {
	c := NewVolumeChecker(t.TempDir(), 1.0)

	err := c.Check(math.MaxInt64 / 2)
	spaceErr, ok := err.(*InsufficientSpaceError)
	if !ok {
		t.Fatalf("expected InsufficientSpaceError, got %T", err)
	}
	if spaceErr.RequiredBytes <= 0 {
		t.Errorf("RequiredBytes not populated: %d", spaceErr.RequiredBytes)
	}
	if spaceErr.AvailableBytes < 0 {
		t.Errorf("AvailableBytes negative: %d", spaceErr.AvailableBytes)
	}
}

func TestNewVolumeChecker_MarginFallback(t *testing.T) {
	c := NewVolumeChecker(t.TempDir(), 0)
	if c.margin != DefaultSafetyMargin {
		t.Errorf("margin = %v, want DefaultSafetyMargin", c.margin)
	}
}

func TestIsInsufficientSpaceError_OtherError(t *testing.T) {
	if IsInsufficientSpaceError(nil) {
		t.Error("nil should not be an InsufficientSpaceError")
	}
}
