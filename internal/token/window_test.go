package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var kst = time.FixedZone("KST", 9*60*60)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, kst)
}

func TestWindowStart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"after cutoff", at(2024, 1, 15, 10, 0), at(2024, 1, 15, 4, 0)},
		{"exactly cutoff", at(2024, 1, 15, 4, 0), at(2024, 1, 15, 4, 0)},
		{"before cutoff rolls back", at(2024, 1, 15, 3, 59), at(2024, 1, 14, 4, 0)},
		{"rollback across month", at(2024, 3, 1, 1, 0), at(2024, 2, 29, 4, 0)},
		{"utc input", time.Date(2024, 1, 14, 18, 30, 0, 0, time.UTC), at(2024, 1, 14, 4, 0)},
		{"utc input before cutoff", time.Date(2024, 1, 14, 18, 59, 0, 0, time.UTC), at(2024, 1, 14, 4, 0)},
		{"utc input after cutoff", time.Date(2024, 1, 14, 19, 0, 0, 0, time.UTC), at(2024, 1, 15, 4, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WindowStart(tt.now, kst, DefaultCutoffHour)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestValidInWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		issuedAt time.Time
		now      time.Time
		want     bool
	}{
		{"issued before cutoff checked after", at(2024, 1, 15, 3, 50), at(2024, 1, 15, 4, 10), false},
		{"issued after cutoff checked late evening", at(2024, 1, 15, 4, 10), at(2024, 1, 15, 23, 59), true},
		{"issued evening checked next night before cutoff", at(2024, 1, 15, 22, 0), at(2024, 1, 16, 3, 30), true},
		{"issued yesterday checked after cutoff", at(2024, 1, 15, 22, 0), at(2024, 1, 16, 4, 0), false},
		{"issued at cutoff", at(2024, 1, 15, 4, 0), at(2024, 1, 15, 4, 0), true},
		{"zero issued", time.Time{}, at(2024, 1, 15, 12, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidInWindow(tt.issuedAt, tt.now, kst, DefaultCutoffHour))
		})
	}
}
