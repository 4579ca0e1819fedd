package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	conf := Default()
	assert.Empty(t, conf.Validate())
}

func TestValidateReportsEveryProblem(t *testing.T) {
	conf := Default()
	conf.NumRadialBins = 1
	conf.MinRadius = 0
	conf.Events = 0
	conf.LoggingLevel = "loud"

	errors := conf.Validate()
	assert.Len(t, errors, 4)
}

func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"panic", "fatal", "error", "warn", "info", "debug"} {
		assert.True(t, validateLoggingLevel(level), level)
	}
	assert.False(t, validateLoggingLevel("verbose"))
}
