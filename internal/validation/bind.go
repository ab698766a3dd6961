package validation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/rental-dispatch/internal/catalog"
)

// BindRow binds a JSON object body into a catalog row and validates it.
// On failure it writes a 400 and returns the error so the handler can short-circuit.
func BindRow(c *gin.Context, v *validatorv10.Validate, table catalog.Table, partial bool) (catalog.Row, error) {
	var row catalog.Row
	if err := c.ShouldBindJSON(&row); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid_request_body",
			"msg":     err.Error(),
		})
		return nil, err
	}
	if row == nil {
		err := errors.New("request body must be a JSON object")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid_request_body", "msg": err.Error()})
		return nil, err
	}

	if err := ValidateRow(v, table, row, partial); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "validation_failed",
			"fields":  validationErrorsToMap(err),
		})
		return nil, err
	}
	return row, nil
}

func validationErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.StructNamespace()] = fe.Error()
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}
