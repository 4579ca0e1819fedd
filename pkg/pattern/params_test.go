package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidShotPitch(t *testing.T) {
	cases := []struct {
		pitch int
		valid bool
	}{
		{1, true},
		{2, true},
		{3, false},
		{4, true},
		{0, false},
		{-2, false},
		{100, true},
		{7, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.valid, IsValidShotPitch(c.pitch), "pitch %d", c.pitch)
	}
}

func TestEOSModeConstants(t *testing.T) {
	assert.Equal(t, 1.0, EOSMode3.MachineGrid())
	assert.Equal(t, 500000.0, EOSMode3.FieldSize())
	assert.Equal(t, 0.125, EOSMode6.MachineGrid())
	assert.Equal(t, 62500.0, EOSMode6.FieldSize())
}

func TestExposureGrid(t *testing.T) {
	p := DefaultParameters()
	p.EOSMode = EOSMode3
	p.ShotPitch = 4
	assert.Equal(t, 4.0, p.ExposureGrid())

	p.EOSMode = EOSMode6
	p.ShotPitch = 8
	assert.Equal(t, 1.0, p.ExposureGrid())
}

func TestParametersValidate(t *testing.T) {
	t.Run("DefaultIsValid", func(t *testing.T) {
		p := DefaultParameters()
		assert.Empty(t, p.Validate())
	})

	t.Run("OddShotPitch", func(t *testing.T) {
		p := DefaultParameters()
		p.ShotPitch = 3
		problems := p.Validate()
		assert.Len(t, problems, 1)
		assert.Contains(t, problems[0], "shot pitch")
	})

	t.Run("PatternExceedsField", func(t *testing.T) {
		p := DefaultParameters()
		p.Size = 600000.0 // 600 um in a 500 um field
		problems := p.Validate()
		assert.Len(t, problems, 1)
		assert.Contains(t, problems[0], "exceeds field boundaries")
	})

	t.Run("DoseOutOfRange", func(t *testing.T) {
		p := DefaultParameters()
		p.Dose = 0.5
		problems := p.Validate()
		assert.Len(t, problems, 1)
		assert.Contains(t, problems[0], "dose")
	})

	t.Run("ArrayPitchRequired", func(t *testing.T) {
		p := DefaultParameters()
		p.ArrayNx = 3
		p.ArrayNy = 3
		problems := p.Validate()
		assert.Len(t, problems, 1)
		assert.Contains(t, problems[0], "array pitch")
	})
}

func TestSetModulation(t *testing.T) {
	p := DefaultParameters()

	assert.NoError(t, p.SetModulation(1, 0.8))
	assert.Equal(t, 0.8, p.Modulation(1))
	assert.Equal(t, 1.0, p.Modulation(0))

	assert.Error(t, p.SetModulation(-1, 0.5))
	assert.Error(t, p.SetModulation(256, 0.5))
	assert.Error(t, p.SetModulation(2, -0.1))
}
