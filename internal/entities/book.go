package entities

import (
	"time"

	"gorm.io/gorm"
)

type Book struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"index;size:512" json:"title"`
	Author      string `gorm:"index;size:256" json:"author"`
	Translator  string `gorm:"size:256" json:"translator,omitempty"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Language    string `gorm:"size:10;default:'fa'" json:"language"`

	// Level is the suggested difficulty of the book itself, shown in the
	// catalog. Independent of per-word explanation levels.
	Level Level `gorm:"size:20;default:'beginner'" json:"level"`

	// TotalPages is maintained by the editorial workflow and verified by the
	// recount task. Zero means unknown.
	TotalPages int  `json:"total_pages"`
	Published  bool `gorm:"default:false;index" json:"published"`

	Pages []Page `gorm:"foreignKey:BookID" json:"pages,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Book) TableName() string {
	return "books"
}

type Page struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	BookID     uint   `gorm:"not null;index;uniqueIndex:idx_book_page" json:"book_id"`
	PageNumber int    `gorm:"not null;uniqueIndex:idx_book_page" json:"page_number"`
	Content    string `gorm:"type:text" json:"content"`

	Book      Book           `gorm:"foreignKey:BookID" json:"-"`
	Positions []WordPosition `gorm:"foreignKey:PageID" json:"positions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Page) TableName() string {
	return "pages"
}
