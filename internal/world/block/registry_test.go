package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockIDClassification(t *testing.T) {
	assert.True(t, AirBlockID.IsAir())
	assert.False(t, AirBlockID.IsStock())
	assert.True(t, BlockID(1).IsStock())
	assert.True(t, BlockID(596).IsStock())
	assert.False(t, BlockID(597).IsStock())
	assert.True(t, BlockID(597).IsCustom())
	assert.False(t, NoGroup.IsCustom())
	assert.Equal(t, BlockID(600), CustomID(3))
}

func TestRegistry(t *testing.T) {
	Register(BlockID(42), "Test Block")

	name, ok := Name(42)
	assert.True(t, ok)
	assert.Equal(t, "Test Block", name)
	assert.True(t, IsValidBlockID(42))
	assert.False(t, IsValidBlockID(43))
}
