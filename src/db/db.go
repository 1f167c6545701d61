package db

import (
	"context"
	"log"

	"stash/src/lib"

	"cloud.google.com/go/firestore"
)

var fsClient *firestore.Client

// GetFirestore returns the lazily-built Firestore handle. All marketplace
// state lives here; the gateway is the system of record for money movement
// only.
func GetFirestore() *firestore.Client {
	if fsClient != nil {
		return fsClient
	}
	app := lib.GetFirebaseApp()
	client, err := app.Firestore(context.Background())
	if err != nil {
		log.Fatalf("error initializing Firestore: %v\n", err.Error())
	}
	fsClient = client
	return client
}

// NewFirestore replaces the lazily-built client, for tests.
func NewFirestore(c *firestore.Client) *firestore.Client {
	fsClient = c
	return fsClient
}
