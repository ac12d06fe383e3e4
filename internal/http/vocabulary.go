package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ketabyar/ketabyar/internal/audit"
	"github.com/ketabyar/ketabyar/internal/database/vocabulary"
	"github.com/ketabyar/ketabyar/internal/entities"
	"github.com/ketabyar/ketabyar/internal/reader"
)

// VocabularyController manages words, their per-level explanations, and
// the positions linking them to page text.
type VocabularyController struct {
	store        VocabularyStore
	auditService *audit.Service
}

// NewVocabularyController creates a new VocabularyController.
func NewVocabularyController(store VocabularyStore, auditService *audit.Service) *VocabularyController {
	return &VocabularyController{
		store:        store,
		auditService: auditService,
	}
}

// ListWords handles GET /api/vocabulary
func (vc *VocabularyController) ListWords(c *gin.Context) {
	limit, offset := parsePagination(c, 50, 200)

	words, total, err := vc.store.GetAllWords(limit, offset)
	if err != nil {
		respondInternalError(c, err, "list words")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    words,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+limit) < total,
	})
}

// SearchWords handles GET /api/vocabulary/search?q=
func (vc *VocabularyController) SearchWords(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		respondBadRequest(c, "q is required")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	words, err := vc.store.SearchWords(query, limit)
	if err != nil {
		respondInternalError(c, err, "search words")
		return
	}

	c.JSON(http.StatusOK, gin.H{"words": words, "query": query})
}

// GetWord handles GET /api/vocabulary/:id
func (vc *VocabularyController) GetWord(c *gin.Context) {
	wordID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	word, err := vc.store.GetWordByID(wordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "word")
			return
		}
		respondInternalError(c, err, "get word")
		return
	}

	c.JSON(http.StatusOK, word)
}

// WordLookupResponse is the flat word-lookup view the reading UI shows
// when a reader taps a highlighted span.
type WordLookupResponse struct {
	ExplanationID   uint           `json:"explanation_id"`
	WordID          uint           `json:"word_id"`
	SurfaceForm     string         `json:"surface_form"`
	Pronunciation   string         `json:"pronunciation,omitempty"`
	Level           entities.Level `json:"level"`
	Meaning         string         `json:"meaning"`
	LongExplanation string         `json:"long_explanation,omitempty"`
	Example         string         `json:"example,omitempty"`
}

// GetExplanation handles GET /api/explanations/:id
// Resolves the explanation_id carried by a highlight segment into the word
// and gloss the popup displays.
func (vc *VocabularyController) GetExplanation(c *gin.Context) {
	explanationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	explanation, err := vc.store.GetExplanationByID(explanationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "explanation")
			return
		}
		respondInternalError(c, err, "get explanation")
		return
	}

	c.JSON(http.StatusOK, WordLookupResponse{
		ExplanationID:   explanation.ID,
		WordID:          explanation.WordID,
		SurfaceForm:     explanation.Word.SurfaceForm,
		Pronunciation:   explanation.Word.Pronunciation,
		Level:           explanation.Level,
		Meaning:         explanation.Meaning,
		LongExplanation: explanation.LongExplanation,
		Example:         explanation.Example,
	})
}

// WordRequest is the create/update payload for a vocabulary word.
type WordRequest struct {
	SurfaceForm   string `json:"surface_form" binding:"required"`
	Pronunciation string `json:"pronunciation"`
}

// AddWord handles POST /api/vocabulary (editor only).
// Surface forms are unique; adding an existing form returns the stored word.
func (vc *VocabularyController) AddWord(c *gin.Context) {
	var req WordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "surface_form is required")
		return
	}

	if existing, err := vc.store.FindWordBySurfaceForm(req.SurfaceForm); err == nil {
		c.JSON(http.StatusOK, existing)
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondInternalError(c, err, "find word")
		return
	}

	word := entities.Word{
		SurfaceForm:   req.SurfaceForm,
		Pronunciation: req.Pronunciation,
	}
	if err := vc.store.AddWord(&word); err != nil {
		respondInternalError(c, err, "add word")
		return
	}

	vc.auditService.LogEditorial(GetUserID(c), "word_add", "Added word "+word.SurfaceForm,
		"word", word.ID, nil, nil)

	respondCreated(c, word)
}

// UpdateWord handles PATCH /api/vocabulary/:id (editor only).
func (vc *VocabularyController) UpdateWord(c *gin.Context) {
	wordID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	word, err := vc.store.GetWordByID(wordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "word")
			return
		}
		respondInternalError(c, err, "get word")
		return
	}

	var req WordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "surface_form is required")
		return
	}

	word.SurfaceForm = req.SurfaceForm
	if req.Pronunciation != "" {
		word.Pronunciation = req.Pronunciation
	}
	if err := vc.store.UpdateWord(word); err != nil {
		respondInternalError(c, err, "update word")
		return
	}

	c.JSON(http.StatusOK, word)
}

// DeleteWord handles DELETE /api/vocabulary/:id (editor only).
// Cascades to the word's explanations and positions.
func (vc *VocabularyController) DeleteWord(c *gin.Context) {
	wordID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	word, err := vc.store.GetWordByID(wordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "word")
			return
		}
		respondInternalError(c, err, "get word")
		return
	}

	if err := vc.store.DeleteWord(wordID); err != nil {
		respondInternalError(c, err, "delete word")
		return
	}

	vc.auditService.LogDelete(GetUserID(c), "word", wordID, word.SurfaceForm)

	respondSuccess(c, "word deleted")
}

// GetVocabularyStats handles GET /api/vocabulary/stats
func (vc *VocabularyController) GetVocabularyStats(c *gin.Context) {
	totalWords, perLevel, err := vc.store.GetVocabularyStats()
	if err != nil {
		respondInternalError(c, err, "vocabulary stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_words":            totalWords,
		"explanations_per_level": perLevel,
	})
}

// ExplanationRequest is the save payload for a level-specific explanation.
type ExplanationRequest struct {
	Level           string `json:"level" binding:"required"`
	Meaning         string `json:"meaning" binding:"required"`
	LongExplanation string `json:"long_explanation"`
	Example         string `json:"example"`
}

// SaveExplanation handles PUT /api/vocabulary/:id/explanations (editor only).
// A word carries at most one explanation per level; saving replaces it.
func (vc *VocabularyController) SaveExplanation(c *gin.Context) {
	wordID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := vc.store.GetWordByID(wordID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "word")
			return
		}
		respondInternalError(c, err, "get word")
		return
	}

	var req ExplanationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "level and meaning are required")
		return
	}

	level := entities.Level(req.Level)
	if !level.IsValid() {
		respondBadRequest(c, "unknown level: "+req.Level)
		return
	}

	explanation := entities.WordExplanation{
		WordID:          wordID,
		Level:           level,
		Meaning:         req.Meaning,
		LongExplanation: req.LongExplanation,
		Example:         req.Example,
	}
	if err := vc.store.SaveExplanation(&explanation); err != nil {
		respondInternalError(c, err, "save explanation")
		return
	}

	vc.auditService.LogEditorial(GetUserID(c), "explanation_save", "Saved explanation",
		"word_explanation", explanation.ID, map[string]any{
			"word_id": wordID,
			"level":   string(level),
		}, nil)

	c.JSON(http.StatusOK, explanation)
}

// DeleteExplanation handles DELETE /api/explanations/:id (editor only).
func (vc *VocabularyController) DeleteExplanation(c *gin.Context) {
	explanationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := vc.store.GetExplanationByID(explanationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "explanation")
			return
		}
		respondInternalError(c, err, "get explanation")
		return
	}

	if err := vc.store.DeleteExplanation(explanationID); err != nil {
		respondInternalError(c, err, "delete explanation")
		return
	}

	vc.auditService.LogDelete(GetUserID(c), "word_explanation", explanationID, "")

	respondSuccess(c, "explanation deleted")
}

// PositionRequest is the payload for tagging a word span on a page.
// Offsets are UTF-16 code units, matching what the tagging editor computes.
type PositionRequest struct {
	WordID        uint `json:"word_id" binding:"required"`
	ExplanationID uint `json:"explanation_id" binding:"required"`
	StartOffset   int  `json:"start_offset"`
	EndOffset     int  `json:"end_offset" binding:"required"`
}

// AddPosition handles POST /api/pages/:id/positions (editor only).
// Span validation happens in the repository transaction; overlapping or
// out-of-bounds spans are rejected before anything is written.
func (vc *VocabularyController) AddPosition(c *gin.Context) {
	pageID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "word_id, explanation_id, and end_offset are required")
		return
	}

	position := entities.WordPosition{
		PageID:        pageID,
		WordID:        req.WordID,
		ExplanationID: req.ExplanationID,
		StartOffset:   req.StartOffset,
		EndOffset:     req.EndOffset,
	}

	err := vc.store.AddPosition(&position)
	switch {
	case err == nil:
	case errors.Is(err, reader.ErrSpanOverlap):
		respondError(c, http.StatusConflict, err.Error())
		return
	case errors.Is(err, reader.ErrInvalidSpan), errors.Is(err, reader.ErrSpanOutOfBounds),
		errors.Is(err, vocabulary.ErrExplanationMismatch):
		respondBadRequest(c, err.Error())
		return
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondNotFound(c, "page, word, or explanation")
		return
	default:
		respondInternalError(c, err, "add position")
		return
	}

	vc.auditService.LogEditorial(GetUserID(c), "position_tag", "Tagged word position",
		"word_position", position.ID, map[string]any{
			"page_id":      pageID,
			"word_id":      req.WordID,
			"start_offset": req.StartOffset,
			"end_offset":   req.EndOffset,
		}, nil)

	respondCreated(c, position)
}

// GetPositions handles GET /api/pages/:id/positions (editor only).
func (vc *VocabularyController) GetPositions(c *gin.Context) {
	pageID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	positions, err := vc.store.GetPositionsForPage(pageID)
	if err != nil {
		respondInternalError(c, err, "list positions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

// DeletePosition handles DELETE /api/positions/:id (editor only).
// Positions are immutable; retagging is delete plus re-add.
func (vc *VocabularyController) DeletePosition(c *gin.Context) {
	positionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := vc.store.GetPositionByID(positionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "position")
			return
		}
		respondInternalError(c, err, "get position")
		return
	}

	if err := vc.store.DeletePosition(positionID); err != nil {
		respondInternalError(c, err, "delete position")
		return
	}

	vc.auditService.LogDelete(GetUserID(c), "word_position", positionID, "")

	respondSuccess(c, "position deleted")
}
