package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// The verification wire contract is deliberately narrow: a valid purchase
// answers 200 with the validated receipt, everything else answers 400 with
// an empty body. Upstream transport failures are absorbed into the 400;
// no other status is used.

// OK sends a 200 response with the given body
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// BadRequest sends a 400 response with an empty body
func BadRequest(c *gin.Context) {
	c.Status(http.StatusBadRequest)
}
