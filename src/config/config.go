package config

import "os"

var (
	API_ENV            = os.Getenv("API_ENV")
	APP_HOST           = os.Getenv("APP_HOST")
	FIREBASE_PROJECT   = os.Getenv("FIREBASE_PROJECT_ID")
	TASK_RUNNER_SECRET = os.Getenv("TASK_RUNNER_SECRET")
)

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"
