package books

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ketabyar/ketabyar/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Repository, func()) {
	dbPath := "./test_books_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Page{},
		&entities.WordPosition{},
	)
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, repo, cleanup
}

func TestRepository_CreateAndGetBook(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := &entities.Book{
		Title:  "شازده کوچولو",
		Author: "Antoine de Saint-Exupéry",
		Level:  entities.LevelBeginner,
	}
	require.NoError(t, repo.CreateBook(book))
	require.NotZero(t, book.ID)

	got, err := repo.GetBookByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, "شازده کوچولو", got.Title)
	assert.Equal(t, "fa", got.Language)
}

func TestRepository_GetPublishedBooks_HidesDrafts(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.CreateBook(&entities.Book{Title: "Draft", Author: "A"}))
	require.NoError(t, repo.CreateBook(&entities.Book{Title: "Live", Author: "A", Published: true}))

	published, total, err := repo.GetPublishedBooks(10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, published, 1)
	assert.Equal(t, "Live", published[0].Title)

	all, total, err := repo.GetAllBooks(10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)
}

func TestRepository_SavePage_UpsertsByPageNumber(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := &entities.Book{Title: "Test", Author: "A"}
	require.NoError(t, repo.CreateBook(book))

	require.NoError(t, repo.SavePage(&entities.Page{
		BookID: book.ID, PageNumber: 1, Content: "first draft",
	}))
	require.NoError(t, repo.SavePage(&entities.Page{
		BookID: book.ID, PageNumber: 1, Content: "revised",
	}))

	page, err := repo.GetPage(book.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "revised", page.Content)

	count, err := repo.CountPages(book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_RecountTotalPages(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := &entities.Book{Title: "Test", Author: "A"}
	require.NoError(t, repo.CreateBook(book))

	require.NoError(t, repo.SavePage(&entities.Page{BookID: book.ID, PageNumber: 1, Content: "a"}))
	require.NoError(t, repo.SavePage(&entities.Page{BookID: book.ID, PageNumber: 5, Content: "b"}))

	total, err := repo.RecountTotalPages(book.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	got, err := repo.GetBookByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.TotalPages)
}

func TestRepository_RecountTotalPages_EmptyBookIsZero(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := &entities.Book{Title: "Empty", Author: "A", TotalPages: 3}
	require.NoError(t, repo.CreateBook(book))

	total, err := repo.RecountTotalPages(book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestRepository_DeletePage_RemovesPositions(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := &entities.Book{Title: "Test", Author: "A"}
	require.NoError(t, repo.CreateBook(book))
	page := &entities.Page{BookID: book.ID, PageNumber: 1, Content: "some text"}
	require.NoError(t, repo.SavePage(page))
	require.NoError(t, db.Create(&entities.WordPosition{
		PageID: page.ID, WordID: 1, ExplanationID: 1, StartOffset: 0, EndOffset: 4,
	}).Error)

	require.NoError(t, repo.DeletePage(page.ID))

	var count int64
	require.NoError(t, db.Model(&entities.WordPosition{}).
		Where("page_id = ?", page.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestRepository_SearchBooks(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.CreateBook(&entities.Book{Title: "بوف کور", Author: "صادق هدایت", Published: true}))
	require.NoError(t, repo.CreateBook(&entities.Book{Title: "سه قطره خون", Author: "صادق هدایت", Published: true}))
	require.NoError(t, repo.CreateBook(&entities.Book{Title: "کلیدر", Author: "محمود دولت‌آبادی", Published: true}))

	found, err := repo.SearchBooks("هدایت", 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}
