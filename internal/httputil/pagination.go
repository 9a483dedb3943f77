package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
)

// ParsePagination safely parses and validates offset and limit query parameters.
// It uses default values of 0 for offset and 50 for limit.
// The limit cannot exceed 100.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	offsetStr := c.DefaultQuery("offset", "0")
	offset, err = strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("invalid offset parameter: must be a non-negative integer")
	}

	limitStr := c.DefaultQuery("limit", "50")
	limit, err = strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > 100 {
		return 0, 0, fmt.Errorf("invalid limit parameter: must be between 1 and 100")
	}

	return offset, limit, nil
}

// ParseOrder parses order_by and order_direction query parameters, defaulting
// to ordering by name ascending.
func ParseOrder(c *gin.Context) (domain.OrderBy, domain.OrderDirection, error) {
	orderBy := domain.OrderBy(c.DefaultQuery("order_by", string(domain.OrderByName)))
	if orderBy != domain.OrderByName {
		return "", "", fmt.Errorf("invalid order_by parameter: must be %q", domain.OrderByName)
	}

	direction := domain.OrderDirection(c.DefaultQuery("order_direction", string(domain.OrderAsc)))
	if direction != domain.OrderAsc && direction != domain.OrderDesc {
		return "", "", fmt.Errorf("invalid order_direction parameter: must be %q or %q",
			domain.OrderAsc, domain.OrderDesc)
	}

	return orderBy, direction, nil
}
