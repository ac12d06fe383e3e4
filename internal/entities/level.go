package entities

// Level is the difficulty level attached to a word explanation and to a
// reader's profile. Levels are totally ordered: beginner < intermediate <
// advanced.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

var levelRank = map[Level]int{
	LevelBeginner:     1,
	LevelIntermediate: 2,
	LevelAdvanced:     3,
}

// Rank returns the position of the level in the total order, or 0 for an
// unknown level.
func (l Level) Rank() int {
	return levelRank[l]
}

// IsValid reports whether the level is one of the known values.
func (l Level) IsValid() bool {
	return l.Rank() > 0
}

// Covers reports whether a reader at this level should see an explanation
// tagged with other. The visible set is cumulative: an advanced reader sees
// beginner and intermediate glosses too.
func (l Level) Covers(other Level) bool {
	return l.Rank() >= other.Rank() && other.IsValid()
}

// AllLevels lists the known levels in ascending order.
func AllLevels() []Level {
	return []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}
}
