package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultPageLimit is used when no limit query parameter is given.
	DefaultPageLimit = 50

	// MaxPageLimit caps the limit query parameter.
	MaxPageLimit = 100
)

// ParsePagination safely parses and validates offset and limit query
// parameters. Offset defaults to 0 and limit to DefaultPageLimit; a limit
// above MaxPageLimit is clamped rather than rejected.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	offsetStr := c.DefaultQuery("offset", "0")
	offset, err = strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("invalid offset parameter: must be a non-negative integer")
	}

	limitStr := c.DefaultQuery("limit", strconv.Itoa(DefaultPageLimit))
	limit, err = strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		return 0, 0, fmt.Errorf("invalid limit parameter: must be a positive integer")
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	return offset, limit, nil
}
