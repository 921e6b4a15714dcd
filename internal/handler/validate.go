package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/jobhunt-api/internal/safejson"
)

type ValidateHandler struct {
	parser *safejson.Parser
}

func NewValidateHandler(parser *safejson.Parser) *ValidateHandler {
	return &ValidateHandler{parser: parser}
}

// Validate handles POST /json/validate
// Shows how a stored list column will be read back, for debugging bad rows.
func (h *ValidateHandler) Validate(c *gin.Context) {
	var req struct {
		Value *string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": safejson.IsValid(req.Value),
		"items": h.parser.Array(req.Value),
	})
}
