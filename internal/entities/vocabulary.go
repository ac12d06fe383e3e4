package entities

import (
	"time"

	"gorm.io/gorm"
)

// Word is a vocabulary entry. The surface form is the exact text as it
// appears on a page and is unique across the store.
type Word struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	SurfaceForm   string `gorm:"uniqueIndex;size:256" json:"surface_form"`
	Pronunciation string `gorm:"size:256" json:"pronunciation,omitempty"`

	Explanations []WordExplanation `gorm:"foreignKey:WordID" json:"explanations,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Word) TableName() string {
	return "words"
}

// WordExplanation is a level-specific gloss for a word. At most one
// explanation exists per (word, level).
type WordExplanation struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	WordID          uint   `gorm:"not null;index;uniqueIndex:idx_word_level" json:"word_id"`
	Level           Level  `gorm:"size:20;not null;uniqueIndex:idx_word_level" json:"level"`
	Meaning         string `gorm:"size:512" json:"meaning"`
	LongExplanation string `gorm:"type:text" json:"long_explanation,omitempty"`
	Example         string `gorm:"type:text" json:"example,omitempty"`

	Word Word `gorm:"foreignKey:WordID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (WordExplanation) TableName() string {
	return "word_explanations"
}

// WordPosition is a character-offset span on a page linking the text to a
// word explanation. Offsets are UTF-16 code units, matching the indexing the
// tagging editor uses. Rows are created by editorial tagging and immutable
// afterwards; only an explicit admin delete removes them.
type WordPosition struct {
	ID            uint `gorm:"primaryKey" json:"id"`
	PageID        uint `gorm:"not null;index" json:"page_id"`
	WordID        uint `gorm:"not null;index" json:"word_id"`
	ExplanationID uint `gorm:"not null;index" json:"explanation_id"`
	StartOffset   int  `gorm:"not null" json:"start_offset"`
	EndOffset     int  `gorm:"not null" json:"end_offset"`

	Page        Page            `gorm:"foreignKey:PageID" json:"-"`
	Word        Word            `gorm:"foreignKey:WordID" json:"word,omitempty"`
	Explanation WordExplanation `gorm:"foreignKey:ExplanationID" json:"explanation,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (WordPosition) TableName() string {
	return "word_positions"
}
