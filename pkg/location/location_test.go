package location_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayakart27/ecommerce-sub002/pkg/location"
)

func TestEmbeddedTable(t *testing.T) {
	states := location.Default().States()
	assert.Len(t, states, 37)
	assert.Contains(t, states, "FCT")
	assert.Contains(t, states, "Kano")
	assert.Len(t, location.Default().Cities("Lagos"), 20)
}

func TestIsValidState(t *testing.T) {
	assert.True(t, location.IsValidState("Kano"))
	assert.True(t, location.IsValidState("  cross   river "))
	assert.False(t, location.IsValidState("Kanoo"))
	assert.False(t, location.IsValidState(""))
}

func TestIsValidCity(t *testing.T) {
	assert.True(t, location.IsValidCity("Kano", "Fagge"))
	assert.True(t, location.IsValidCity("lagos", "ikeja"))
	assert.False(t, location.IsValidCity("Lagos", "Fagge"))
	assert.False(t, location.IsValidCity("Atlantis", "Fagge"))
	assert.False(t, location.IsValidCity("Kano", ""))
}

func TestCanonical(t *testing.T) {
	state, city := location.Default().Canonical(" akwa ibom", "ikot ekpene ")
	assert.Equal(t, "Akwa Ibom", state)
	assert.Equal(t, "Ikot Ekpene", city)

	state, city = location.Default().Canonical("Kano", "Nowhere")
	assert.Equal(t, "Kano", state)
	assert.Equal(t, "Nowhere", city)

	state, city = location.Default().Canonical("Atlantis", "x")
	assert.Equal(t, "Atlantis", state)
	assert.Equal(t, "x", city)
}

func TestParse(t *testing.T) {
	table, err := location.Parse([]byte(`
- state: "Alpha"
  lgas: ["One", "Two"]
`))
	require.NoError(t, err)
	assert.True(t, table.IsValidCity("alpha", "two"))
	assert.Nil(t, table.Cities("Beta"))

	_, err = location.Parse([]byte("state: [unclosed"))
	require.Error(t, err)
}
