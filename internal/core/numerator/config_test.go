package numerator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_KeyAndFormat(t *testing.T) {
	period := time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		cfg  Config
		key  string
		want string
	}{
		{"yearly", DefaultConfig("S"), "S_2026", "S-2026-00042"},
		{"monthly", Config{Prefix: "P", PadWidth: 4, Reset: ResetMonth}, "P_2026_03", "P-202603-0042"},
		{"never", Config{Prefix: "ADJ", Reset: ResetNever}, "ADJ", "ADJ-00042"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.cfg.Key(period))
			assert.Equal(t, tt.want, tt.cfg.Format(period, 42))
		})
	}
}

func TestConfig_UsesUTCYear(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	// 2027-01-01 05:00 WIB is still 2026 in UTC.
	period := time.Date(2027, 1, 1, 5, 0, 0, 0, jakarta)
	assert.Equal(t, "S_2026", SaleNumbers.Key(period))
}

func TestConfig_WideNumbersAreNotTruncated(t *testing.T) {
	assert.Equal(t, "S-2026-123456", SaleNumbers.Format(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 123456))
}
