// Package books provides database operations for the book catalog and page
// content.
//
// This package implements the CatalogStore interface defined in
// internal/http/books.go and the PageStore part of internal/http/reader.go.
package books

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ketabyar/ketabyar/internal/entities"
)

var ErrPageExists = errors.New("page number already exists for this book")

// Repository handles all catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBook adds a new book to the catalog.
func (r *Repository) CreateBook(book *entities.Book) error {
	return r.db.Create(book).Error
}

// UpdateBook updates a book's catalog fields.
func (r *Repository) UpdateBook(book *entities.Book) error {
	return r.db.Save(book).Error
}

// GetBookByID retrieves a book by ID without page contents.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// DeleteBook soft-deletes a book.
func (r *Repository) DeleteBook(id uint) error {
	return r.db.Delete(&entities.Book{}, id).Error
}

// GetPublishedBooks returns catalog books visible to readers with pagination.
func (r *Repository) GetPublishedBooks(limit, offset int) ([]entities.Book, int64, error) {
	var books []entities.Book
	var total int64

	query := r.db.Model(&entities.Book{}).Where("published = ?", true)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.db.Where("published = ?", true).Order("title ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&books).Error
	return books, total, err
}

// GetAllBooks returns every book, including unpublished drafts, for the
// back-office.
func (r *Repository) GetAllBooks(limit, offset int) ([]entities.Book, int64, error) {
	var books []entities.Book
	var total int64

	if err := r.db.Model(&entities.Book{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&books).Error
	return books, total, err
}

// SearchBooks searches published books by title or author.
func (r *Repository) SearchBooks(query string, limit int) ([]entities.Book, error) {
	var books []entities.Book
	searchPattern := "%" + query + "%"
	q := r.db.Where("published = ?", true).
		Where("title LIKE ? OR author LIKE ?", searchPattern, searchPattern).
		Order("title ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&books).Error
	return books, err
}

// SavePage creates or replaces the content of a page. Page numbers are
// unique per book; saving an existing page number overwrites its content.
func (r *Repository) SavePage(page *entities.Page) error {
	var existing entities.Page
	err := r.db.Where("book_id = ? AND page_number = ?", page.BookID, page.PageNumber).First(&existing).Error
	if err == nil {
		existing.Content = page.Content
		if saveErr := r.db.Save(&existing).Error; saveErr != nil {
			return saveErr
		}
		*page = existing
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.Create(page).Error
}

// GetPage retrieves a page by book and page number.
func (r *Repository) GetPage(bookID uint, pageNumber int) (*entities.Page, error) {
	var page entities.Page
	err := r.db.Where("book_id = ? AND page_number = ?", bookID, pageNumber).First(&page).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPageByID retrieves a page by its ID.
func (r *Repository) GetPageByID(id uint) (*entities.Page, error) {
	var page entities.Page
	err := r.db.First(&page, id).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// DeletePage removes a page and its word positions.
func (r *Repository) DeletePage(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("page_id = ?", id).Delete(&entities.WordPosition{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Page{}, id).Error
	})
}

// CountPages returns the number of stored pages for a book.
func (r *Repository) CountPages(bookID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Page{}).Where("book_id = ?", bookID).Count(&count).Error
	return count, err
}

// RecountTotalPages recalculates a book's total_pages from its highest
// stored page number. Used by the background recount task after editorial
// changes.
func (r *Repository) RecountTotalPages(bookID uint) (int, error) {
	var maxPage int
	err := r.db.Model(&entities.Page{}).
		Where("book_id = ?", bookID).
		Select("COALESCE(MAX(page_number), 0)").
		Scan(&maxPage).Error
	if err != nil {
		return 0, err
	}

	err = r.db.Model(&entities.Book{}).Where("id = ?", bookID).
		Update("total_pages", maxPage).Error
	return maxPage, err
}

// ListBookIDs returns the IDs of all books, for bulk maintenance tasks.
func (r *Repository) ListBookIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entities.Book{}).Pluck("id", &ids).Error
	return ids, err
}
