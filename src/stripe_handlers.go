package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"stash/src/common"
	"stash/src/lib"
	"stash/src/types"
	"stash/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

func stripeWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "account.updated", "account.application.deauthorized":
			if _, err := accounts.HandleAccountEvent(ctx, &event); err != nil {
				log.Printf("[Stripe] Error reconciling account event %s: %s\n", event.ID, err.Error())
				ctx.Status(http.StatusBadGateway)
				return
			}
		case "capability.updated":
			var cap stripe.Capability
			if err := json.Unmarshal(event.Data.Raw, &cap); err != nil {
				log.Printf("[Stripe] Error parsing Capability: %s\n", err.Error())
				break
			}
			// flags arrive on the follow-up account.updated; nothing to write yet
			log.Printf("[Stripe] Capability %s is now %s\n", cap.ID, cap.Status)
		case "payment_intent.succeeded":
			var pi stripe.PaymentIntent
			if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
				log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
				break
			}
			if err := ledger.RecordSettledIntent(ctx, &pi); err != nil {
				log.Printf("[Stripe] Error recording intent %s: %s\n", pi.ID, err.Error())
				ctx.Status(http.StatusBadGateway)
				return
			}
		case "payment_intent.payment_failed":
			var pi stripe.PaymentIntent
			if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
				log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
				break
			}
			if renterId, ok := pi.Metadata["renterId"]; ok && engine.Notifier != nil {
				engine.Notifier.NotifyPaymentFailed(ctx, renterId, pi.Metadata["reservationId"])
			}
		}
		ctx.Status(http.StatusOK)
	})
	return apiv1
}

func stripeHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	sg := g.Group("/stripe")
	sg.
		POST("/accounts", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			accountID, existed, err := accounts.CreateHostAccount(ctx, uid)
			if err != nil {
				utils.AbortWithError(ctx, err)
				return
			}
			status := http.StatusCreated
			if existed {
				status = http.StatusOK
			}
			ctx.JSON(status, gin.H{"account_id": accountID})
		}).
		POST("/onboarding", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			url, err := accounts.OnboardingLink(ctx, uid)
			if err != nil {
				utils.AbortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"url": url})
		}).
		GET("/verified", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			key := fmt.Sprintf("%s:host_verified", uid)
			if rd := lib.GetRedisClient(); rd != nil {
				if cached, err := rd.Get(ctx, key).Result(); err == nil {
					verified, _ := strconv.ParseBool(cached)
					ctx.JSON(http.StatusOK, gin.H{"verified": verified, "cached": true})
					return
				}
			}
			verified, err := accounts.IsHostVerified(ctx, uid)
			if err != nil {
				utils.AbortWithError(ctx, err)
				return
			}
			if rd := lib.GetRedisClient(); rd != nil {
				rd.Set(context.Background(), key, strconv.FormatBool(verified), 5*time.Minute)
			}
			ctx.JSON(http.StatusOK, gin.H{"verified": verified})
		}).
		POST("/customers", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			customerID, err := customers.EnsureCustomer(ctx, uid)
			if err != nil {
				utils.AbortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"customer_id": customerID})
		}).
		POST("/setup_intent", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			secret, err := customers.CreateSetupIntent(ctx, uid)
			if err != nil {
				utils.AbortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"client_secret": secret})
		}).
		GET("/payment_methods", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			methods, err := recordStore.ListPaymentMethods(ctx, uid)
			if err != nil {
				utils.AbortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": methods, "count": len(methods)})
		}).
		POST("/payment_methods", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			var body types.AttachPaymentMethodRequestBody
			if err := ctx.BindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			pm, err := customers.AttachPaymentMethod(ctx, uid, body.PaymentMethodID)
			if err != nil {
				utils.AbortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": pm})
		}).
		PUT("/payment_methods/default", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			var body types.SetDefaultPaymentMethodRequestBody
			if err := ctx.BindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := customers.SetDefaultPaymentMethod(ctx, uid, body.PaymentMethodID); err != nil {
				utils.AbortWithError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		GET("/balance", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			user, err := recordStore.GetUser(ctx, uid)
			if err != nil {
				utils.AbortWithError(ctx, err)
				return
			}
			if user.StripeHost == nil || user.StripeHost.AccountID == "" {
				utils.AbortWithError(ctx, common.Precondition(common.CodeNoAccount, "no connected account exists for this user"))
				return
			}
			balance, err := gateway.RetrieveBalance(ctx, user.StripeHost.AccountID)
			if err != nil {
				utils.AbortWithError(ctx, common.Retryable("retrieving balance", err))
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": balance})
		}).
		GET("/payouts", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			user, err := recordStore.GetUser(ctx, uid)
			if err != nil {
				utils.AbortWithError(ctx, err)
				return
			}
			if user.StripeHost == nil || user.StripeHost.AccountID == "" {
				utils.AbortWithError(ctx, common.Precondition(common.CodeNoAccount, "no connected account exists for this user"))
				return
			}
			payouts, err := gateway.ListPayouts(ctx, user.StripeHost.AccountID, 10)
			if err != nil {
				utils.AbortWithError(ctx, common.Retryable("listing payouts", err))
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payouts, "count": len(payouts)})
		})
	return sg
}
