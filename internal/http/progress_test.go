package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	booksdb "github.com/ketabyar/ketabyar/internal/database/books"
	progressdb "github.com/ketabyar/ketabyar/internal/database/progress"
	"github.com/ketabyar/ketabyar/internal/database"
	"github.com/ketabyar/ketabyar/internal/entities"
	"github.com/ketabyar/ketabyar/internal/progress"
)

func setupProgressController(t *testing.T, db *database.Database) (*ProgressController, *progress.Tracker, *booksdb.Repository) {
	t.Helper()
	books := booksdb.NewRepository(db.DB)
	tracker := progress.NewTracker(progressdb.NewRepository(db.DB), books)
	return NewProgressController(tracker), tracker, books
}

func TestProgressController_GetStats(t *testing.T) {
	t.Run("fresh user reports zeroes", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		controller, _, _ := setupProgressController(t, db)

		router := gin.New()
		router.GET("/api/progress/stats", asUser(7, entities.UserRoleReader, entities.LevelBeginner), controller.GetStats)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/progress/stats", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var stats progress.Stats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Zero(t, stats.BooksStarted)
		assert.Zero(t, stats.BooksCompleted)
		assert.Zero(t, stats.TotalPagesRead)
		assert.Zero(t, stats.RecentlyActive)
		assert.Zero(t, stats.DayStreak)
	})

	t.Run("counts started books after page views", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		controller, tracker, books := setupProgressController(t, db)

		book := entities.Book{Title: "بوف کور", Published: true, TotalPages: 10}
		require.NoError(t, books.CreateBook(&book))
		_, err := tracker.RecordPageView(7, book.ID, 3)
		require.NoError(t, err)

		router := gin.New()
		router.GET("/api/progress/stats", asUser(7, entities.UserRoleReader, entities.LevelBeginner), controller.GetStats)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/progress/stats", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var stats progress.Stats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, int64(1), stats.BooksStarted)
		assert.Equal(t, int64(3), stats.TotalPagesRead)
		assert.Equal(t, int64(1), stats.RecentlyActive)
	})
}

func TestProgressController_GetBookProgress(t *testing.T) {
	t.Run("tracks the latest visited page", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		controller, tracker, books := setupProgressController(t, db)

		book := entities.Book{Title: "کتاب", Published: true, TotalPages: 20}
		require.NoError(t, books.CreateBook(&book))

		// The latest visited page wins, even when jumping backwards.
		_, err := tracker.RecordPageView(7, book.ID, 15)
		require.NoError(t, err)
		_, err = tracker.RecordPageView(7, book.ID, 4)
		require.NoError(t, err)

		router := gin.New()
		router.GET("/api/books/:id/progress", asUser(7, entities.UserRoleReader, entities.LevelBeginner), controller.GetBookProgress)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/1/progress", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var prog entities.ReadingProgress
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prog))
		assert.Equal(t, 4, prog.CurrentPage)
		assert.Equal(t, 20, prog.TotalPages)
	})

	t.Run("unopened book reports empty progress", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		controller, _, books := setupProgressController(t, db)
		require.NoError(t, books.CreateBook(&entities.Book{Title: "کتاب", Published: true}))

		router := gin.New()
		router.GET("/api/books/:id/progress", asUser(7, entities.UserRoleReader, entities.LevelBeginner), controller.GetBookProgress)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/1/progress", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var prog entities.ReadingProgress
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prog))
		assert.Zero(t, prog.CurrentPage)
	})
}

func TestProgressController_ListProgress(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	controller, tracker, books := setupProgressController(t, db)

	for _, title := range []string{"کتاب اول", "کتاب دوم"} {
		book := entities.Book{Title: title, Published: true, TotalPages: 5}
		require.NoError(t, books.CreateBook(&book))
		_, err := tracker.RecordPageView(7, book.ID, 1)
		require.NoError(t, err)
	}

	router := gin.New()
	router.GET("/api/progress", asUser(7, entities.UserRoleReader, entities.LevelBeginner), controller.ListProgress)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/progress", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Progress []entities.ReadingProgress `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Progress, 2)
}
