package mqttpublish

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigApplyDefaultsFillsZeroValues(t *testing.T) {
	var c Config
	c.applyDefaults()

	assert.Equal(t, 5*time.Second, c.FWVersionInterval)
	assert.Equal(t, 5*time.Second, c.SystemStatusInterval)
	assert.Equal(t, uint32(25), c.MotorStatusPrescaler)
}

func TestConfigApplyDefaultsPreservesExplicitValues(t *testing.T) {
	c := Config{
		FWVersionInterval:    time.Second,
		SystemStatusInterval: 2 * time.Second,
		MotorStatusPrescaler: 10,
	}
	c.applyDefaults()

	assert.Equal(t, time.Second, c.FWVersionInterval)
	assert.Equal(t, 2*time.Second, c.SystemStatusInterval)
	assert.Equal(t, uint32(10), c.MotorStatusPrescaler)
}
