package main

import (
	"crypto/subtle"
	"net/http"

	"stash/src/config"
	"stash/src/utils"

	"github.com/gin-gonic/gin"
)

// taskRoutes are for out-of-band runners (cron containers, ops tooling) and
// are guarded by a shared secret instead of a user token.
func taskRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	tasks := apiv1.Group("/tasks")
	tasks.Use(func(ctx *gin.Context) {
		secret := ctx.GetHeader("x-secret")
		if config.TASK_RUNNER_SECRET == "" ||
			subtle.ConstantTimeCompare([]byte(secret), []byte(config.TASK_RUNNER_SECRET)) != 1 {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid task secret"})
			return
		}
	})
	tasks.POST("/settlements", func(ctx *gin.Context) {
		report, err := engine.RunDueSettlements(ctx)
		if err != nil {
			utils.AbortWithError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"data": report})
	})
	return tasks
}
