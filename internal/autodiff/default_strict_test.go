//go:build !fastmath

package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/dagrad/internal/autodiff"
)

func TestDefaultConfig_Strict(t *testing.T) {
	cfg := autodiff.DefaultConfig()
	assert.Equal(t, autodiff.Strict, cfg.Numerics)
	assert.NoError(t, cfg.Validate())
}
