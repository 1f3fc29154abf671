package foundation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer(t *testing.T) {
	n := NewNormalizer(map[string]string{"Sysfs": "sysfs", "none": "none"}, "none")

	assert.Equal(t, "sysfs", n.Normalize("  SYSFS "))
	assert.Equal(t, "none", n.Normalize("gpiod"))

	v, err := n.NormalizeWithError("None")
	require.NoError(t, err)
	assert.Equal(t, "none", v)

	_, err = n.NormalizeWithError("gpiod")
	require.Error(t, err)
}
