package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ketabyar/ketabyar/internal/progress"
)

// ProgressController serves reading progress and aggregate statistics.
type ProgressController struct {
	tracker *progress.Tracker
}

// NewProgressController creates a new ProgressController.
func NewProgressController(tracker *progress.Tracker) *ProgressController {
	return &ProgressController{tracker: tracker}
}

// ListProgress handles GET /api/progress
func (pc *ProgressController) ListProgress(c *gin.Context) {
	items, err := pc.tracker.ListProgress(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list progress")
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": items})
}

// GetBookProgress handles GET /api/books/:id/progress
// A book never opened reports an empty progress row, not an error.
func (pc *ProgressController) GetBookProgress(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := pc.tracker.GetProgress(GetUserID(c), bookID)
	if err != nil {
		respondInternalError(c, err, "get progress")
		return
	}

	c.JSON(http.StatusOK, item)
}

// GetStats handles GET /api/progress/stats
// Stats degrade per field: a failed aggregate reports zero rather than
// failing the whole response.
func (pc *ProgressController) GetStats(c *gin.Context) {
	stats := pc.tracker.ComputeStats(GetUserID(c))
	c.JSON(http.StatusOK, stats)
}
