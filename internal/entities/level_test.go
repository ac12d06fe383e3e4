package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelOrdering(t *testing.T) {
	assert.True(t, LevelBeginner.Rank() < LevelIntermediate.Rank())
	assert.True(t, LevelIntermediate.Rank() < LevelAdvanced.Rank())
	assert.Equal(t, 0, Level("unknown").Rank())
}

func TestLevelCovers(t *testing.T) {
	assert.True(t, LevelAdvanced.Covers(LevelBeginner))
	assert.True(t, LevelAdvanced.Covers(LevelAdvanced))
	assert.True(t, LevelIntermediate.Covers(LevelBeginner))
	assert.False(t, LevelBeginner.Covers(LevelIntermediate))
	assert.False(t, LevelBeginner.Covers(LevelAdvanced))
	// Unknown levels are never visible, whatever the reader's level.
	assert.False(t, LevelAdvanced.Covers(Level("expert")))
}

func TestUserReadingLevel(t *testing.T) {
	u := &User{Level: LevelIntermediate}
	assert.Equal(t, LevelIntermediate, u.ReadingLevel())

	u.Level = Level("corrupted")
	assert.Equal(t, LevelBeginner, u.ReadingLevel())
}
