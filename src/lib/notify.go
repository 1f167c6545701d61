package lib

import (
	"context"
	"fmt"
	"log"
	"strings"

	"firebase.google.com/go/v4/messaging"
)

// FCMNotifier pushes payment outcomes to the renter's registered device.
// Delivery is best-effort: a missing token or send failure is logged and
// dropped, never surfaced into settlement results.
type FCMNotifier struct{}

func (n *FCMNotifier) NotifyPaymentFailed(ctx context.Context, userID, reservationID string) {
	rd := GetRedisClient()
	if rd == nil {
		return
	}
	token := rd.JSONGet(ctx, fmt.Sprintf("%s:fcm", userID), "$.token").Val()
	token = strings.Trim(token, `["]`)
	if token == "" {
		log.Printf("[FCM] No device token cached for user %s\n", userID)
		return
	}
	fcm, err := GetFirebaseMessaging()
	if err != nil {
		log.Printf("[FCM] Could not retrieve FCM instance: %v\n", err)
		return
	}
	res, err := fcm.Send(ctx, &messaging.Message{
		Data: map[string]string{
			"type":          "payment_failed",
			"reservationId": reservationID,
		},
		Token: token,
	})
	if err != nil {
		log.Printf("[FCM] Error notifying user %s: %s\n", userID, err.Error())
		return
	}
	log.Printf("[FCM] Sent payment notification: %s\n", res)
}
