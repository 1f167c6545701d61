package main

import (
	"net/http"
	"time"

	"stash/src/config"
	"stash/src/models"
	"stash/src/types"
	"stash/src/utils"

	"github.com/gin-gonic/gin"
)

func reservationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/reservations", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			var body types.CreateReservationRequestBody
			if err := ctx.BindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			space, err := recordStore.GetSpace(ctx, body.SpaceID)
			if err != nil {
				utils.AbortWithError(ctx, err)
				return
			}
			startDate, err := time.Parse(config.TIME_PARSE_FORMAT, body.StartDate)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var endDate *time.Time
			if body.EndDate != nil {
				parsed, err := time.Parse(config.TIME_PARSE_FORMAT, *body.EndDate)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				endDate = &parsed
			}
			r := &models.Reservation{
				RequesterID: uid,
				OwnerID:     space.OwnerID,
				SpaceID:     space.ID,
				Status:      types.RESERVATION_REQUESTED,
				StartDate:   startDate,
				EndDate:     endDate,
				// the cursor becomes live once the host accepts
				NextPaymentDate: startDate,
			}
			id, err := recordStore.CreateReservation(ctx, r)
			if err != nil {
				utils.AbortWithError(ctx, err)
				return
			}
			r.ID = id
			ctx.JSON(http.StatusCreated, gin.H{"data": r})
		}).
		GET("/reservations/:id", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			var params types.ReservationURIParams
			if err := ctx.BindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			r, err := recordStore.GetReservation(ctx, params.ReservationID)
			if err != nil {
				utils.AbortWithError(ctx, err)
				return
			}
			if r.RequesterID != uid && r.OwnerID != uid {
				ctx.JSON(http.StatusForbidden, gin.H{"error": "not a party to this reservation"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": r})
		}).
		POST("/reservations/:id/accept", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			var params types.ReservationURIParams
			if err := ctx.BindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			r, err := recordStore.GetReservation(ctx, params.ReservationID)
			if err != nil {
				utils.AbortWithError(ctx, err)
				return
			}
			if r.OwnerID != uid {
				ctx.JSON(http.StatusForbidden, gin.H{"error": "only the host may accept this reservation"})
				return
			}
			if r.Status != types.RESERVATION_REQUESTED && r.Status != types.RESERVATION_AWAITING_ACCEPTANCE {
				ctx.JSON(http.StatusPreconditionFailed, gin.H{"error": "reservation is not awaiting acceptance"})
				return
			}
			if err := recordStore.ConfirmReservation(ctx, r.ID, r.StartDate); err != nil {
				utils.AbortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": types.RESERVATION_CONFIRMED})
		}).
		POST("/reservations/:id/decline", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			var params types.ReservationURIParams
			if err := ctx.BindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			r, err := recordStore.GetReservation(ctx, params.ReservationID)
			if err != nil {
				utils.AbortWithError(ctx, err)
				return
			}
			if r.OwnerID != uid {
				ctx.JSON(http.StatusForbidden, gin.H{"error": "only the host may decline this reservation"})
				return
			}
			if r.Status != types.RESERVATION_REQUESTED && r.Status != types.RESERVATION_AWAITING_ACCEPTANCE {
				ctx.JSON(http.StatusPreconditionFailed, gin.H{"error": "reservation is not awaiting acceptance"})
				return
			}
			if err := recordStore.UpdateReservationStatus(ctx, r.ID, types.RESERVATION_CANCELLED_BY_HOST); err != nil {
				utils.AbortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": types.RESERVATION_CANCELLED_BY_HOST})
		}).
		POST("/reservations/:id/cancel", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			var params types.ReservationURIParams
			if err := ctx.BindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			base, err := engine.CancelReservation(ctx, uid, params.ReservationID)
			if err != nil {
				utils.AbortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"status":         types.RESERVATION_CANCELLED_BY_RENTER,
				"amount_charged": base,
			})
		})
	return g
}
