package http

import (
	"time"

	"github.com/ketabyar/ketabyar/internal/entities"
)

// This file consolidates the store interface definitions used by HTTP
// controllers. Each controller declares the narrow interface it needs; the
// repositories in internal/database satisfy them.

// BookStore covers catalog reads and editorial writes.
type BookStore interface {
	CreateBook(book *entities.Book) error
	UpdateBook(book *entities.Book) error
	GetBookByID(id uint) (*entities.Book, error)
	DeleteBook(id uint) error
	GetPublishedBooks(limit, offset int) ([]entities.Book, int64, error)
	GetAllBooks(limit, offset int) ([]entities.Book, int64, error)
	SearchBooks(query string, limit int) ([]entities.Book, error)

	SavePage(page *entities.Page) error
	GetPage(bookID uint, pageNumber int) (*entities.Page, error)
	GetPageByID(id uint) (*entities.Page, error)
	DeletePage(id uint) error
	RecountTotalPages(bookID uint) (int, error)
}

// VocabularyStore covers word, explanation, and position management.
type VocabularyStore interface {
	AddWord(word *entities.Word) error
	GetAllWords(limit, offset int) ([]entities.Word, int64, error)
	GetWordByID(id uint) (*entities.Word, error)
	FindWordBySurfaceForm(surfaceForm string) (*entities.Word, error)
	SearchWords(query string, limit int) ([]entities.Word, error)
	UpdateWord(word *entities.Word) error
	DeleteWord(id uint) error

	SaveExplanation(explanation *entities.WordExplanation) error
	GetExplanationByID(id uint) (*entities.WordExplanation, error)
	DeleteExplanation(id uint) error

	AddPosition(position *entities.WordPosition) error
	GetPositionsForPage(pageID uint) ([]entities.WordPosition, error)
	GetPositionByID(id uint) (*entities.WordPosition, error)
	DeletePosition(id uint) error

	GetVocabularyStats() (totalWords int64, perLevel map[entities.Level]int64, err error)
}

// SessionStore covers explicit reading session lifecycle calls.
type SessionStore interface {
	StartSession(userID, bookID uint, startedAt time.Time) (*entities.ReadingSession, error)
	EndSession(sessionID uint, endedAt time.Time, pagesRead int) (*entities.ReadingSession, error)
	GetSessionByID(id uint) (*entities.ReadingSession, error)
}

// UserStore covers the admin user management surface.
type UserStore interface {
	GetUserByID(id uint) (*entities.User, error)
	GetAllUsers(limit, offset int) ([]entities.User, int64, error)
	UpdateLevel(userID uint, level entities.Level) error
	UpdateRole(userID uint, role entities.UserRole) error
	DeleteUser(id uint) error
}
