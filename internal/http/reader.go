package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ketabyar/ketabyar/internal/entities"
	"github.com/ketabyar/ketabyar/internal/progress"
	"github.com/ketabyar/ketabyar/internal/reader"
)

// ReaderController serves rendered pages to readers and manages explicit
// reading sessions.
type ReaderController struct {
	books    BookStore
	vocab    VocabularyStore
	sessions SessionStore
	tracker  *progress.Tracker
}

// NewReaderController creates a new ReaderController.
func NewReaderController(books BookStore, vocab VocabularyStore, sessions SessionStore, tracker *progress.Tracker) *ReaderController {
	return &ReaderController{
		books:    books,
		vocab:    vocab,
		sessions: sessions,
		tracker:  tracker,
	}
}

// PageResponse is a rendered page as delivered to the reading UI.
// ProgressRecorded tells the client whether this view was stored as the
// reader's current position; false means the position is unchanged.
type PageResponse struct {
	BookID           uint             `json:"book_id"`
	PageNumber       int              `json:"page_number"`
	TotalPages       int              `json:"total_pages"`
	Level            entities.Level   `json:"level"`
	Segments         []reader.Segment `json:"segments"`
	ProgressRecorded bool             `json:"progress_recorded"`
}

// GetPage handles GET /api/books/:id/pages/:page
// Renders the page for the requester's level and records the page view.
func (rc *ReaderController) GetPage(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	pageNumber, ok := parseIntParam(c, "page")
	if !ok {
		return
	}

	book, err := rc.books.GetBookByID(bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}
	if !book.Published && !isEditor(c) {
		respondNotFound(c, "book")
		return
	}

	page, err := rc.books.GetPage(bookID, pageNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "page")
			return
		}
		respondInternalError(c, err, "get page")
		return
	}

	positions, err := rc.vocab.GetPositionsForPage(page.ID)
	if err != nil {
		respondInternalError(c, err, "load positions")
		return
	}

	// Profile level by default; ?level= lets the UI preview other levels.
	// Render normalizes unknown levels itself, so the raw value is passed
	// through and only mirrored for the response below.
	level := GetUserLevel(c)
	if override := c.Query("level"); override != "" {
		level = entities.Level(override)
	}

	spans := make([]reader.Position, 0, len(positions))
	for _, p := range positions {
		spans = append(spans, reader.Position{
			StartOffset:   p.StartOffset,
			EndOffset:     p.EndOffset,
			WordID:        p.WordID,
			ExplanationID: p.ExplanationID,
			Level:         p.Explanation.Level,
		})
	}

	segments := reader.Render(page.Content, spans, level)
	if !level.IsValid() {
		level = entities.LevelBeginner
	}

	// A failed progress write must not block reading, but the client is
	// told the position was not stored so it can retry or warn.
	progressRecorded := false
	if userID := GetUserID(c); userID != 0 {
		if _, err := rc.tracker.RecordPageView(userID, bookID, pageNumber); err != nil {
			log.Printf("record page view user=%d book=%d page=%d: %v", userID, bookID, pageNumber, err)
		} else {
			progressRecorded = true
		}
	}

	c.JSON(http.StatusOK, PageResponse{
		BookID:           bookID,
		PageNumber:       pageNumber,
		TotalPages:       book.TotalPages,
		Level:            level,
		Segments:         segments,
		ProgressRecorded: progressRecorded,
	})
}

// StartSession handles POST /api/books/:id/sessions
func (rc *ReaderController) StartSession(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := rc.books.GetBookByID(bookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	session, err := rc.sessions.StartSession(GetUserID(c), bookID, time.Now())
	if err != nil {
		respondInternalError(c, err, "start session")
		return
	}

	respondCreated(c, session)
}

// EndSessionRequest carries the pages read during a session.
type EndSessionRequest struct {
	PagesRead int `json:"pages_read"`
}

// EndSession handles POST /api/sessions/:id/end
// Ending an already-ended session is not an error; the stored session is
// returned unchanged so retries are safe.
func (rc *ReaderController) EndSession(c *gin.Context) {
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, err := rc.sessions.GetSessionByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "session")
			return
		}
		respondInternalError(c, err, "get session")
		return
	}
	if session.UserID != GetUserID(c) {
		respondForbidden(c, "session belongs to another user")
		return
	}

	var req EndSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}
	if req.PagesRead < 0 {
		respondBadRequest(c, "pages_read must not be negative")
		return
	}

	session, err = rc.sessions.EndSession(sessionID, time.Now(), req.PagesRead)
	if err != nil {
		respondInternalError(c, err, "end session")
		return
	}

	c.JSON(http.StatusOK, session)
}
