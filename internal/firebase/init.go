package firebase

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// InitFirebase initializes and returns a Firebase app instance for FCM
// delivery. Credentials come from one of two sources: an inline service
// account JSON (FIREBASE_CREDENTIALS_JSON) or a path to a credential file
// (FIREBASE_SERVICE_ACCOUNT_PATH). When neither is set the app is nil and
// push delivery runs disabled; that is a valid operating mode, not an error.
func InitFirebase() (*firebase.App, error) {
	ctx := context.Background()

	credentialsJSON := os.Getenv("FIREBASE_CREDENTIALS_JSON")
	serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
	projectID := os.Getenv("FIREBASE_PROJECT_ID")

	config := &firebase.Config{
		ProjectID: projectID,
	}

	var opt option.ClientOption
	switch {
	case credentialsJSON != "":
		opt = option.WithCredentialsJSON([]byte(credentialsJSON))
	case serviceAccountPath != "":
		opt = option.WithCredentialsFile(serviceAccountPath)
	default:
		return nil, nil
	}

	app, err := firebase.NewApp(ctx, config, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	return app, nil
}
