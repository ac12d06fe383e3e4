package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ketabyar/ketabyar/internal/bookmarks"
	bookmarksdb "github.com/ketabyar/ketabyar/internal/database/bookmarks"
	booksdb "github.com/ketabyar/ketabyar/internal/database/books"
	"github.com/ketabyar/ketabyar/internal/database"
	"github.com/ketabyar/ketabyar/internal/entities"
)

func setupBookmarksController(t *testing.T, db *database.Database) (*BookmarksController, *booksdb.Repository) {
	t.Helper()
	books := booksdb.NewRepository(db.DB)
	service := bookmarks.NewService(bookmarksdb.NewRepository(db.DB), books)
	return NewBookmarksController(service, newTestAuditService(db)), books
}

func TestBookmarksController_CreateBookmark(t *testing.T) {
	t.Run("creates a bookmark with a note", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		controller, books := setupBookmarksController(t, db)
		require.NoError(t, books.CreateBook(&entities.Book{Title: "بوف کور", Published: true}))

		router := gin.New()
		router.POST("/api/books/:id/bookmarks", asUser(7, entities.UserRoleReader, entities.LevelBeginner), controller.CreateBookmark)

		body, _ := json.Marshal(BookmarkRequest{PageNumber: 12, Note: "شروع فصل دوم"})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/books/1/bookmarks", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)

		var bookmark entities.Bookmark
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bookmark))
		assert.Equal(t, uint(7), bookmark.UserID)
		assert.Equal(t, 12, bookmark.PageNumber)
		assert.Equal(t, "شروع فصل دوم", bookmark.Note)
	})

	t.Run("returns 404 for missing book", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		controller, _ := setupBookmarksController(t, db)

		router := gin.New()
		router.POST("/api/books/:id/bookmarks", controller.CreateBookmark)

		body, _ := json.Marshal(BookmarkRequest{PageNumber: 1})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/books/99/bookmarks", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("rejects page number below 1", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		controller, books := setupBookmarksController(t, db)
		require.NoError(t, books.CreateBook(&entities.Book{Title: "کتاب", Published: true}))

		router := gin.New()
		router.POST("/api/books/:id/bookmarks", controller.CreateBookmark)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/books/1/bookmarks", bytes.NewReader([]byte(`{"page_number":0}`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBookmarksController_ListBookmarks(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	controller, books := setupBookmarksController(t, db)
	require.NoError(t, books.CreateBook(&entities.Book{Title: "کتاب", Published: true}))

	router := gin.New()
	router.Use(asUser(7, entities.UserRoleReader, entities.LevelBeginner))
	router.POST("/api/books/:id/bookmarks", controller.CreateBookmark)
	router.GET("/api/bookmarks", controller.ListBookmarks)
	router.GET("/api/books/:id/bookmarks", controller.ListBookBookmarks)

	for _, page := range []int{3, 12} {
		body, _ := json.Marshal(BookmarkRequest{PageNumber: page})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/books/1/bookmarks", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/bookmarks", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response PaginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(2), response.Total)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/books/1/bookmarks", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bookmarks")
}

func TestBookmarksController_DeleteBookmark(t *testing.T) {
	t.Run("owner can delete", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		controller, books := setupBookmarksController(t, db)
		require.NoError(t, books.CreateBook(&entities.Book{Title: "کتاب", Published: true}))

		router := gin.New()
		router.Use(asUser(7, entities.UserRoleReader, entities.LevelBeginner))
		router.POST("/api/books/:id/bookmarks", controller.CreateBookmark)
		router.DELETE("/api/bookmarks/:id", controller.DeleteBookmark)

		body, _ := json.Marshal(BookmarkRequest{PageNumber: 5})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/books/1/bookmarks", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code)

		w = httptest.NewRecorder()
		req, _ = http.NewRequest("DELETE", "/api/bookmarks/1", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("another user's bookmark is forbidden", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		controller, books := setupBookmarksController(t, db)
		require.NoError(t, books.CreateBook(&entities.Book{Title: "کتاب", Published: true}))

		ownerRouter := gin.New()
		ownerRouter.POST("/api/books/:id/bookmarks", asUser(7, entities.UserRoleReader, entities.LevelBeginner), controller.CreateBookmark)

		body, _ := json.Marshal(BookmarkRequest{PageNumber: 5})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/books/1/bookmarks", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		ownerRouter.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code)

		otherRouter := gin.New()
		otherRouter.DELETE("/api/bookmarks/:id", asUser(8, entities.UserRoleReader, entities.LevelBeginner), controller.DeleteBookmark)

		w = httptest.NewRecorder()
		req, _ = http.NewRequest("DELETE", "/api/bookmarks/1", nil)
		otherRouter.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing bookmark is 404", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		controller, _ := setupBookmarksController(t, db)

		router := gin.New()
		router.DELETE("/api/bookmarks/:id", controller.DeleteBookmark)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/bookmarks/42", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
