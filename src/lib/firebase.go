package lib

import (
	"context"
	"log"
	"os"
	"path"

	"stash/src/config"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var innerApp *firebase.App
var innerAuth *auth.Client
var innerMessaging *messaging.Client

func getOpts() *option.ClientOption {
	secretsPath := os.Getenv("SECRETS_DIR")
	opt := option.WithCredentialsFile(path.Join(secretsPath, "admin-sdk-credentials.json"))
	return &opt
}

func GetFirebaseApp() *firebase.App {
	if innerApp != nil {
		return innerApp
	}
	opt := getOpts()
	app, err := firebase.NewApp(context.Background(), &firebase.Config{
		ProjectID: config.FIREBASE_PROJECT,
	}, *opt)
	if err != nil {
		log.Fatalf("error initializing app: %v\n", err.Error())
	}
	innerApp = app
	return app
}

func GetFirebaseAuth() (*auth.Client, error) {
	if innerAuth != nil {
		return innerAuth, nil
	}
	app := GetFirebaseApp()

	auth, err := app.Auth(context.Background())
	if err != nil {
		log.Fatalf("error initializing Firebase Auth: %v\n", err.Error())
	}
	innerAuth = auth

	return auth, nil
}

func GetFirebaseMessaging() (*messaging.Client, error) {
	if innerMessaging != nil {
		return innerMessaging, nil
	}
	app := GetFirebaseApp()

	msg, err := app.Messaging(context.Background())
	if err != nil {
		log.Fatalf("error initializing FCM: %v\n", err.Error())
	}
	innerMessaging = msg
	return msg, nil
}

// NewFirebaseApp replaces the lazily-built app, for tests.
func NewFirebaseApp(app *firebase.App) {
	innerApp = app
}
