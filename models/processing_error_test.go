package models_test

import (
	"fmt"
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/models"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestProcessingErrorMessages(t *testing.T) {
	err := models.NewCriticalError(constants.StepExtract, "Cannot open %s", "x.zip")
	assert.Equal(t, "[critical] extract: Cannot open x.zip", err.Error())
	assert.True(t, err.IsCritical())

	err = models.NewDatastreamError(constants.StepDatastreams, constants.DsThumbnail, "convert exited with status %d", 1)
	assert.Equal(t, "[critical] datastreams TN: convert exited with status 1", err.Error())
	assert.Equal(t, constants.DsThumbnail, err.Datastream)

	err = models.NewNonCriticalError(constants.StepPostProcess, "move failed")
	assert.False(t, err.IsCritical())

	err = models.NewConfigError(constants.StepMetadata, "no stylesheet")
	assert.True(t, err.IsCritical())
}

func TestIsConfigError(t *testing.T) {
	configErr := models.NewConfigError(constants.StepMetadata, "Cannot load stylesheet")
	assert.True(t, models.IsConfigError(configErr))
	assert.True(t, models.IsConfigError(fmt.Errorf("record 1: %w", configErr)))
	assert.False(t, models.IsConfigError(models.NewCriticalError(constants.StepMetadata, "bad xml")))
	assert.False(t, models.IsConfigError(fmt.Errorf("plain")))
	assert.False(t, models.IsConfigError(nil))
}

func TestIsCriticalError(t *testing.T) {
	assert.False(t, models.IsCriticalError(nil))
	assert.True(t, models.IsCriticalError(fmt.Errorf("plain")))
	assert.True(t, models.IsCriticalError(models.NewCriticalError(constants.StepIngest, "500")))
	assert.False(t, models.IsCriticalError(models.NewNonCriticalError(constants.StepIngest, "slow")))
}
