package utils

import (
	"errors"
	"net/http"

	"stash/src/common"
	"stash/src/config"
	"stash/src/types"

	"github.com/gin-gonic/gin"
)

// AbortWithError maps the settlement error taxonomy onto response codes:
// precondition violations are "rejected, do not retry", transient gateway or
// store failures are "failed, safe to retry".
func AbortWithError(ctx *gin.Context, err error) {
	var pre *common.FailedPrecondition
	var retry *common.RetryableError
	switch {
	case errors.Is(err, common.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &pre):
		ctx.JSON(http.StatusPreconditionFailed, gin.H{"error": pre.Message, "code": pre.Code})
	case errors.As(err, &retry):
		ctx.JSON(http.StatusBadGateway, gin.H{"error": retry.Error(), "retryable": true})
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func IsProd() bool {
	return types.Env(config.API_ENV) == types.Production
}
