package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ketabyar/ketabyar/internal/audit"
	"github.com/ketabyar/ketabyar/internal/bookmarks"
)

// BookmarksController manages per-user page bookmarks.
type BookmarksController struct {
	service      *bookmarks.Service
	auditService *audit.Service
}

// NewBookmarksController creates a new BookmarksController.
func NewBookmarksController(service *bookmarks.Service, auditService *audit.Service) *BookmarksController {
	return &BookmarksController{
		service:      service,
		auditService: auditService,
	}
}

// BookmarkRequest is the create payload for a bookmark.
type BookmarkRequest struct {
	PageNumber int    `json:"page_number" binding:"required,min=1"`
	Note       string `json:"note"`
}

// CreateBookmark handles POST /api/books/:id/bookmarks
func (bc *BookmarksController) CreateBookmark(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req BookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "page_number is required")
		return
	}

	bookmark, err := bc.service.Create(GetUserID(c), bookID, req.PageNumber, req.Note)
	switch {
	case err == nil:
	case errors.Is(err, bookmarks.ErrNotFound):
		respondNotFound(c, "book")
		return
	case errors.Is(err, bookmarks.ErrInvalidPage):
		respondBadRequest(c, err.Error())
		return
	default:
		respondInternalError(c, err, "create bookmark")
		return
	}

	respondCreated(c, bookmark)
}

// ListBookBookmarks handles GET /api/books/:id/bookmarks
func (bc *BookmarksController) ListBookBookmarks(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	items, err := bc.service.ListForBook(GetUserID(c), bookID)
	if err != nil {
		respondInternalError(c, err, "list book bookmarks")
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookmarks": items})
}

// ListBookmarks handles GET /api/bookmarks
func (bc *BookmarksController) ListBookmarks(c *gin.Context) {
	limit, offset := parsePagination(c, 50, 200)

	items, total, err := bc.service.ListForUser(GetUserID(c), limit, offset)
	if err != nil {
		respondInternalError(c, err, "list bookmarks")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+limit) < total,
	})
}

// DeleteBookmark handles DELETE /api/bookmarks/:id
// Deleting another user's bookmark is forbidden, not hidden; the bookmark
// ID namespace is global.
func (bc *BookmarksController) DeleteBookmark(c *gin.Context) {
	bookmarkID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := bc.service.Delete(GetUserID(c), bookmarkID)
	switch {
	case err == nil:
	case errors.Is(err, bookmarks.ErrNotFound):
		respondNotFound(c, "bookmark")
		return
	case errors.Is(err, bookmarks.ErrNotOwner):
		respondForbidden(c, err.Error())
		return
	default:
		respondInternalError(c, err, "delete bookmark")
		return
	}

	bc.auditService.LogDelete(GetUserID(c), "bookmark", bookmarkID, "")

	respondSuccess(c, "bookmark deleted")
}
