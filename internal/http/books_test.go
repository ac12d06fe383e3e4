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

	booksdb "github.com/ketabyar/ketabyar/internal/database/books"
	"github.com/ketabyar/ketabyar/internal/entities"
)

func TestBooksController_ListBooks(t *testing.T) {
	t.Run("returns empty catalog", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		controller := NewBooksController(booksdb.NewRepository(db.DB), newTestAuditService(db), nil, nil)

		router := gin.New()
		router.GET("/api/books", controller.ListBooks)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response PaginatedResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, int64(0), response.Total)
	})

	t.Run("hides unpublished books from readers", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		repo := booksdb.NewRepository(db.DB)
		require.NoError(t, repo.CreateBook(&entities.Book{Title: "بوف کور", Author: "صادق هدایت", Published: true}))
		require.NoError(t, repo.CreateBook(&entities.Book{Title: "پیش‌نویس", Published: false}))

		controller := NewBooksController(repo, newTestAuditService(db), nil, nil)

		router := gin.New()
		router.GET("/api/books", controller.ListBooks)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response PaginatedResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, int64(1), response.Total)
	})

	t.Run("editors can list drafts with all=true", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		repo := booksdb.NewRepository(db.DB)
		require.NoError(t, repo.CreateBook(&entities.Book{Title: "منتشرشده", Published: true}))
		require.NoError(t, repo.CreateBook(&entities.Book{Title: "پیش‌نویس", Published: false}))

		controller := NewBooksController(repo, newTestAuditService(db), nil, nil)

		router := gin.New()
		router.GET("/api/books", asUser(1, entities.UserRoleEditor, entities.LevelBeginner), controller.ListBooks)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books?all=true", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response PaginatedResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, int64(2), response.Total)
	})
}

func TestBooksController_GetBook(t *testing.T) {
	t.Run("returns 404 for missing book", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		controller := NewBooksController(booksdb.NewRepository(db.DB), newTestAuditService(db), nil, nil)

		router := gin.New()
		router.GET("/api/books/:id", controller.GetBook)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/999", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("returns 404 for unpublished book to readers", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		repo := booksdb.NewRepository(db.DB)
		book := entities.Book{Title: "پیش‌نویس", Published: false}
		require.NoError(t, repo.CreateBook(&book))

		controller := NewBooksController(repo, newTestAuditService(db), nil, nil)

		router := gin.New()
		router.GET("/api/books/:id", asUser(1, entities.UserRoleReader, entities.LevelBeginner), controller.GetBook)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBooksController_CreateBook(t *testing.T) {
	t.Run("creates book with defaults", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		controller := NewBooksController(booksdb.NewRepository(db.DB), newTestAuditService(db), nil, nil)

		router := gin.New()
		router.POST("/api/books", asUser(1, entities.UserRoleEditor, entities.LevelBeginner), controller.CreateBook)

		body, _ := json.Marshal(BookRequest{Title: "بوف کور", Author: "صادق هدایت"})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/books", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)

		var book entities.Book
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &book))
		assert.Equal(t, "fa", book.Language)
		assert.Equal(t, entities.LevelBeginner, book.Level)
		assert.False(t, book.Published)
	})

	t.Run("rejects missing title", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		controller := NewBooksController(booksdb.NewRepository(db.DB), newTestAuditService(db), nil, nil)

		router := gin.New()
		router.POST("/api/books", controller.CreateBook)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/books", bytes.NewReader([]byte(`{"author":"x"}`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		controller := NewBooksController(booksdb.NewRepository(db.DB), newTestAuditService(db), nil, nil)

		router := gin.New()
		router.POST("/api/books", controller.CreateBook)

		body, _ := json.Marshal(BookRequest{Title: "کتاب", Level: "fluent"})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/books", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBooksController_SavePage(t *testing.T) {
	t.Run("saves and replaces a page", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		repo := booksdb.NewRepository(db.DB)
		book := entities.Book{Title: "کتاب", Published: true}
		require.NoError(t, repo.CreateBook(&book))

		controller := NewBooksController(repo, newTestAuditService(db), nil, nil)

		router := gin.New()
		router.PUT("/api/books/:id/pages", asUser(1, entities.UserRoleEditor, entities.LevelBeginner), controller.SavePage)

		save := func(content string) *httptest.ResponseRecorder {
			body, _ := json.Marshal(PageRequest{PageNumber: 1, Content: content})
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("PUT", "/api/books/1/pages", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)
			return w
		}

		require.Equal(t, http.StatusOK, save("نسخه اول").Code)
		require.Equal(t, http.StatusOK, save("نسخه دوم").Code)

		page, err := repo.GetPage(book.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, "نسخه دوم", page.Content)
	})

	t.Run("rejects page number below 1", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		repo := booksdb.NewRepository(db.DB)
		require.NoError(t, repo.CreateBook(&entities.Book{Title: "کتاب"}))

		controller := NewBooksController(repo, newTestAuditService(db), nil, nil)

		router := gin.New()
		router.PUT("/api/books/:id/pages", controller.SavePage)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/books/1/pages", bytes.NewReader([]byte(`{"page_number":0,"content":"x"}`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBooksController_DeleteBook(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := booksdb.NewRepository(db.DB)
	book := entities.Book{Title: "کتاب", Published: true}
	require.NoError(t, repo.CreateBook(&book))

	controller := NewBooksController(repo, newTestAuditService(db), nil, nil)

	router := gin.New()
	router.DELETE("/api/books/:id", asUser(1, entities.UserRoleEditor, entities.LevelBeginner), controller.DeleteBook)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/books/1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	_, err := repo.GetBookByID(book.ID)
	assert.Error(t, err)
}
