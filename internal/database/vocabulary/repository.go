// Package vocabulary provides database operations for words, their per-level
// explanations, and the word positions that anchor them to page text.
//
// This package implements the VocabularyStore interface defined in
// internal/http/stores.go.
//
// # Usage
//
//	repo := vocabulary.NewRepository(db)
//	words, total, err := repo.GetAllWords(20, 0)
package vocabulary

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ketabyar/ketabyar/internal/entities"
	"github.com/ketabyar/ketabyar/internal/reader"
)

var ErrExplanationMismatch = errors.New("explanation does not belong to the given word")

// Repository handles all vocabulary database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new vocabulary repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddWord creates a new vocabulary word entry.
func (r *Repository) AddWord(word *entities.Word) error {
	return r.db.Create(word).Error
}

// GetAllWords returns all words with pagination.
func (r *Repository) GetAllWords(limit, offset int) ([]entities.Word, int64, error) {
	var words []entities.Word
	var total int64

	if err := r.db.Model(&entities.Word{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Preload("Explanations").Order("surface_form ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&words).Error
	return words, total, err
}

// GetWordByID retrieves a word with all its explanations.
func (r *Repository) GetWordByID(id uint) (*entities.Word, error) {
	var word entities.Word
	err := r.db.Preload("Explanations").First(&word, id).Error
	if err != nil {
		return nil, err
	}
	return &word, nil
}

// FindWordBySurfaceForm looks up a word by its exact surface form.
func (r *Repository) FindWordBySurfaceForm(surfaceForm string) (*entities.Word, error) {
	var word entities.Word
	err := r.db.Preload("Explanations").Where("surface_form = ?", surfaceForm).First(&word).Error
	if err != nil {
		return nil, err
	}
	return &word, nil
}

// SearchWords searches for words by surface form.
func (r *Repository) SearchWords(query string, limit int) ([]entities.Word, error) {
	var words []entities.Word
	searchPattern := "%" + query + "%"
	q := r.db.Preload("Explanations").Where("surface_form LIKE ?", searchPattern)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&words).Error
	return words, err
}

// UpdateWord updates a word's fields.
func (r *Repository) UpdateWord(word *entities.Word) error {
	return r.db.Save(word).Error
}

// DeleteWord removes a word, its explanations and any positions pointing at
// them.
func (r *Repository) DeleteWord(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("word_id = ?", id).Delete(&entities.WordPosition{}).Error; err != nil {
			return err
		}
		if err := tx.Where("word_id = ?", id).Delete(&entities.WordExplanation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Word{}, id).Error
	})
}

// SaveExplanation creates or replaces the explanation for a (word, level)
// pair. One explanation per level is enforced here, not only by the unique
// index.
func (r *Repository) SaveExplanation(explanation *entities.WordExplanation) error {
	var existing entities.WordExplanation
	err := r.db.Where("word_id = ? AND level = ?", explanation.WordID, explanation.Level).
		First(&existing).Error
	if err == nil {
		existing.Meaning = explanation.Meaning
		existing.LongExplanation = explanation.LongExplanation
		existing.Example = explanation.Example
		if saveErr := r.db.Save(&existing).Error; saveErr != nil {
			return saveErr
		}
		*explanation = existing
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.Create(explanation).Error
}

// GetExplanationByID retrieves an explanation with its word, the flat read
// backing the reader's word-lookup popup.
func (r *Repository) GetExplanationByID(id uint) (*entities.WordExplanation, error) {
	var explanation entities.WordExplanation
	err := r.db.Preload("Word").First(&explanation, id).Error
	if err != nil {
		return nil, err
	}
	return &explanation, nil
}

// DeleteExplanation removes an explanation and its positions.
func (r *Repository) DeleteExplanation(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("explanation_id = ?", id).Delete(&entities.WordPosition{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.WordExplanation{}, id).Error
	})
}

// AddPosition validates and stores a word position on a page.
//
// The span is checked against the page content bounds (UTF-16 units) and
// against existing positions on the same page: overlapping spans are
// rejected at ingestion so that render-time clipping stays a defensive
// measure, not the normal path.
func (r *Repository) AddPosition(position *entities.WordPosition) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var page entities.Page
		if err := tx.First(&page, position.PageID).Error; err != nil {
			return err
		}

		contentLen := reader.ContentLength(page.Content)
		if err := reader.ValidateSpan(position.StartOffset, position.EndOffset, contentLen); err != nil {
			return err
		}

		var explanation entities.WordExplanation
		if err := tx.First(&explanation, position.ExplanationID).Error; err != nil {
			return err
		}
		if explanation.WordID != position.WordID {
			return ErrExplanationMismatch
		}

		var overlapping int64
		err := tx.Model(&entities.WordPosition{}).
			Where("page_id = ?", position.PageID).
			Where("start_offset < ? AND end_offset > ?", position.EndOffset, position.StartOffset).
			Count(&overlapping).Error
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return reader.ErrSpanOverlap
		}

		return tx.Create(position).Error
	})
}

// GetPositionsForPage returns all positions on a page with their
// explanations preloaded, ordered by start offset.
func (r *Repository) GetPositionsForPage(pageID uint) ([]entities.WordPosition, error) {
	var positions []entities.WordPosition
	err := r.db.Preload("Explanation").Preload("Word").
		Where("page_id = ?", pageID).
		Order("start_offset ASC").
		Find(&positions).Error
	return positions, err
}

// GetPositionByID retrieves a single position.
func (r *Repository) GetPositionByID(id uint) (*entities.WordPosition, error) {
	var position entities.WordPosition
	err := r.db.Preload("Explanation").Preload("Word").First(&position, id).Error
	if err != nil {
		return nil, err
	}
	return &position, nil
}

// DeletePosition removes a position. Positions are immutable; delete is the
// only mutation after creation.
func (r *Repository) DeletePosition(id uint) error {
	return r.db.Delete(&entities.WordPosition{}, id).Error
}

// GetVocabularyStats returns counts of words and explanations per level.
func (r *Repository) GetVocabularyStats() (totalWords int64, perLevel map[entities.Level]int64, err error) {
	if err = r.db.Model(&entities.Word{}).Count(&totalWords).Error; err != nil {
		return 0, nil, err
	}

	perLevel = make(map[entities.Level]int64, 3)
	for _, level := range entities.AllLevels() {
		var count int64
		if err = r.db.Model(&entities.WordExplanation{}).Where("level = ?", level).Count(&count).Error; err != nil {
			return 0, nil, err
		}
		perLevel[level] = count
	}
	return totalWords, perLevel, nil
}
