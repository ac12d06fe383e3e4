package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	booksdb "github.com/ketabyar/ketabyar/internal/database/books"
	progressdb "github.com/ketabyar/ketabyar/internal/database/progress"
	vocabdb "github.com/ketabyar/ketabyar/internal/database/vocabulary"
	"github.com/ketabyar/ketabyar/internal/database"
	"github.com/ketabyar/ketabyar/internal/entities"
	"github.com/ketabyar/ketabyar/internal/progress"
	"github.com/ketabyar/ketabyar/internal/reader"
)

// brokenProgressStore fails every write so handler behavior on a lost
// page view can be exercised.
type brokenProgressStore struct{}

var errProgressStore = errors.New("progress store unavailable")

func (brokenProgressStore) UpsertPageView(userID, bookID uint, pageNumber, totalPages int, now time.Time) (*entities.ReadingProgress, error) {
	return nil, errProgressStore
}

func (brokenProgressStore) GetProgress(userID, bookID uint) (*entities.ReadingProgress, error) {
	return nil, errProgressStore
}

func (brokenProgressStore) GetProgressForUser(userID uint) ([]entities.ReadingProgress, error) {
	return nil, errProgressStore
}

func (brokenProgressStore) CountBooksStarted(userID uint) (int64, error)   { return 0, errProgressStore }
func (brokenProgressStore) CountBooksCompleted(userID uint) (int64, error) { return 0, errProgressStore }
func (brokenProgressStore) SumCurrentPages(userID uint) (int64, error)     { return 0, errProgressStore }

func (brokenProgressStore) CountActiveSince(userID uint, since time.Time) (int64, error) {
	return 0, errProgressStore
}

func (brokenProgressStore) GetReadingDays(userID uint, since time.Time) ([]string, error) {
	return nil, errProgressStore
}

type readerFixture struct {
	controller *ReaderController
	books      *booksdb.Repository
	vocab      *vocabdb.Repository
	progress   *progressdb.Repository
	tracker    *progress.Tracker
}

func setupReaderFixture(t *testing.T, db *database.Database) *readerFixture {
	t.Helper()

	books := booksdb.NewRepository(db.DB)
	vocab := vocabdb.NewRepository(db.DB)
	progressRepo := progressdb.NewRepository(db.DB)
	tracker := progress.NewTracker(progressRepo, books)

	return &readerFixture{
		controller: NewReaderController(books, vocab, progressRepo, tracker),
		books:      books,
		vocab:      vocab,
		progress:   progressRepo,
		tracker:    tracker,
	}
}

// seedTaggedPage stores a published book with one page of Persian text and
// a beginner plus an advanced explanation tagged on the first word.
func seedTaggedPage(t *testing.T, f *readerFixture) *entities.Book {
	t.Helper()

	book := entities.Book{Title: "بوف کور", Published: true, TotalPages: 1}
	require.NoError(t, f.books.CreateBook(&book))

	page := entities.Page{BookID: book.ID, PageNumber: 1, Content: "سلام دنیا"}
	require.NoError(t, f.books.SavePage(&page))

	word := entities.Word{SurfaceForm: "سلام"}
	require.NoError(t, f.vocab.AddWord(&word))

	beginner := entities.WordExplanation{WordID: word.ID, Level: entities.LevelBeginner, Meaning: "درود"}
	require.NoError(t, f.vocab.SaveExplanation(&beginner))
	advanced := entities.WordExplanation{WordID: word.ID, Level: entities.LevelAdvanced, Meaning: "تحیت"}
	require.NoError(t, f.vocab.SaveExplanation(&advanced))

	require.NoError(t, f.vocab.AddPosition(&entities.WordPosition{
		PageID:        page.ID,
		WordID:        word.ID,
		ExplanationID: beginner.ID,
		StartOffset:   0,
		EndOffset:     4,
	}))

	return &book
}

func TestReaderController_GetPage(t *testing.T) {
	t.Run("renders segments and records progress", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		f := setupReaderFixture(t, db)
		book := seedTaggedPage(t, f)

		router := gin.New()
		router.GET("/api/books/:id/pages/:page", asUser(7, entities.UserRoleReader, entities.LevelBeginner), f.controller.GetPage)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/1/pages/1", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp PageResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.TotalPages)
		assert.Equal(t, entities.LevelBeginner, resp.Level)
		require.Len(t, resp.Segments, 2)
		assert.Equal(t, reader.SegmentHighlight, resp.Segments[0].Kind)
		assert.Equal(t, "سلام", resp.Segments[0].Text)
		assert.Equal(t, reader.SegmentText, resp.Segments[1].Kind)
		assert.Equal(t, " دنیا", resp.Segments[1].Text)
		assert.True(t, resp.ProgressRecorded)

		prog, err := f.tracker.GetProgress(7, book.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, prog.CurrentPage)
	})

	t.Run("failed progress write is reported, page still served", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		f := setupReaderFixture(t, db)
		seedTaggedPage(t, f)

		// Swap in a tracker whose store cannot persist page views.
		f.controller.tracker = progress.NewTracker(&brokenProgressStore{}, f.books)

		router := gin.New()
		router.GET("/api/books/:id/pages/:page", asUser(7, entities.UserRoleReader, entities.LevelBeginner), f.controller.GetPage)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/1/pages/1", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp PageResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Segments, 2)
		assert.False(t, resp.ProgressRecorded)
	})

	t.Run("level override filters highlights", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		f := setupReaderFixture(t, db)
		seedTaggedPage(t, f)

		router := gin.New()
		router.GET("/api/books/:id/pages/:page", asUser(7, entities.UserRoleReader, entities.LevelAdvanced), f.controller.GetPage)

		// Advanced profile sees the beginner-tagged span, since higher
		// levels cover the ones below.
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/1/pages/1", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp PageResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, reader.SegmentHighlight, resp.Segments[0].Kind)
	})

	t.Run("unknown level falls back to beginner", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		f := setupReaderFixture(t, db)
		seedTaggedPage(t, f)

		router := gin.New()
		router.GET("/api/books/:id/pages/:page", asUser(7, entities.UserRoleReader, entities.LevelBeginner), f.controller.GetPage)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/1/pages/1?level=fluent", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp PageResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, entities.LevelBeginner, resp.Level)
	})

	t.Run("returns 404 for missing page", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		f := setupReaderFixture(t, db)
		seedTaggedPage(t, f)

		router := gin.New()
		router.GET("/api/books/:id/pages/:page", f.controller.GetPage)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/1/pages/99", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("hides unpublished books from readers", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		f := setupReaderFixture(t, db)

		book := entities.Book{Title: "پیش‌نویس", Published: false}
		require.NoError(t, f.books.CreateBook(&book))
		require.NoError(t, f.books.SavePage(&entities.Page{BookID: book.ID, PageNumber: 1, Content: "متن"}))

		router := gin.New()
		router.GET("/api/books/:id/pages/:page", asUser(7, entities.UserRoleReader, entities.LevelBeginner), f.controller.GetPage)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/1/pages/1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestReaderController_Sessions(t *testing.T) {
	t.Run("start and end a session", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		f := setupReaderFixture(t, db)
		seedTaggedPage(t, f)

		router := gin.New()
		router.Use(asUser(7, entities.UserRoleReader, entities.LevelBeginner))
		router.POST("/api/books/:id/sessions", f.controller.StartSession)
		router.POST("/api/sessions/:id/end", f.controller.EndSession)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/books/1/sessions", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code)

		var session entities.ReadingSession
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
		assert.Nil(t, session.EndedAt)

		body, _ := json.Marshal(EndSessionRequest{PagesRead: 3})
		w = httptest.NewRecorder()
		req, _ = http.NewRequest("POST", "/api/sessions/1/end", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
		require.NotNil(t, session.EndedAt)
		assert.Equal(t, 3, session.PagesRead)
	})

	t.Run("cannot end another user's session", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		f := setupReaderFixture(t, db)
		book := seedTaggedPage(t, f)

		_, err := f.progress.StartSession(1, book.ID, time.Now())
		require.NoError(t, err)

		router := gin.New()
		router.POST("/api/sessions/:id/end", asUser(2, entities.UserRoleReader, entities.LevelBeginner), f.controller.EndSession)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/sessions/1/end", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
