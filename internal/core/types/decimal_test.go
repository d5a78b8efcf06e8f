package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	// 3 sales at 10000 with COGS 6666.67: margin 33.33
	assert.True(t, MustMoney("33.33").Equal(Percent(MustMoney("3333.33"), MustMoney("10000"))))
	assert.True(t, Percent(MustMoney("5"), Zero()).IsZero())
	assert.True(t, Percent(MustMoney("5"), MustMoney("-1")).IsZero())
}

func TestUnitsAndAbs(t *testing.T) {
	assert.True(t, MustMoney("12").Equal(Units(12)))
	assert.Equal(t, int64(4), AbsInt64(-4))
	assert.Equal(t, int64(4), AbsInt64(4))
}

func TestMustMoney_Panics(t *testing.T) {
	assert.Panics(t, func() { MustMoney("12,5") })
}
