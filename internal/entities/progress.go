package entities

import "time"

// ReadingProgress tracks the page a user last visited in a book. One row per
// (user, book); currentPage always reflects the latest visited page, not the
// furthest reached.
type ReadingProgress struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index;uniqueIndex:idx_user_book" json:"user_id"`
	BookID      uint      `gorm:"not null;index;uniqueIndex:idx_user_book" json:"book_id"`
	CurrentPage int       `gorm:"not null;default:0" json:"current_page"`
	TotalPages  int       `gorm:"not null;default:0" json:"total_pages"`
	LastReadAt  time.Time `gorm:"index" json:"last_read_at"`

	Book Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ReadingProgress) TableName() string {
	return "reading_progress"
}

// CompletionPercentage derives completion from the latest visited page. Never
// stored as ground truth.
func (p *ReadingProgress) CompletionPercentage() float64 {
	if p.TotalPages <= 0 {
		return 0
	}
	return float64(p.CurrentPage) / float64(p.TotalPages) * 100
}

// ReadingSession is one sitting of reading, used for day-streak stats. Open
// sessions (EndedAt nil) are closed by the user or by the stale-session task.
type ReadingSession struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	BookID          uint       `gorm:"not null;index" json:"book_id"`
	StartedAt       time.Time  `gorm:"not null;index" json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	PagesRead       int        `gorm:"default:0" json:"pages_read"`
	DurationSeconds int        `gorm:"default:0" json:"duration_seconds"`

	Book Book `gorm:"foreignKey:BookID" json:"-"`
	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (ReadingSession) TableName() string {
	return "reading_sessions"
}

// Bookmark marks a page in a book for a user. Multiple bookmarks on the same
// page are allowed; each carries its own note.
type Bookmark struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	BookID     uint   `gorm:"not null;index" json:"book_id"`
	PageNumber int    `gorm:"not null" json:"page_number"`
	Note       string `gorm:"size:1000" json:"note,omitempty"`

	Book Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (Bookmark) TableName() string {
	return "bookmarks"
}
