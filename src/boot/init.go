package boot

import (
	"context"
	"log"
	"time"

	"stash/src/common"
	"stash/src/db"
	"stash/src/lib"
	"stash/src/store"
)

// NewSettlementEngine wires the production engine: Firestore store, Stripe
// gateway, FCM notifier.
func NewSettlementEngine() *common.SettlementEngine {
	engine := common.NewSettlementEngine(
		store.New(db.GetFirestore()),
		lib.NewStripeGateway(lib.GetStripeClient()),
	)
	engine.Notifier = &lib.FCMNotifier{}
	return engine
}

// InitScheduler starts the recurring settlement tick. Each run has a hard
// five minute budget; the batch size keeps a full batch well inside it.
func InitScheduler(engine *common.SettlementEngine) {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	id, err := lib.CreateCronJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := engine.RunDueSettlements(ctx); err != nil {
			log.Printf("[Settlement] Tick failed: %s\n", err.Error())
		}
	}, time.Minute)
	if err != nil {
		log.Printf("Error scheduling settlement job: %s\n", err.Error())
		return
	}
	log.Printf("Settlement job scheduled: %s\n", *id)
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
	}
}
