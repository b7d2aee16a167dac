package firebase

import (
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// InitMessaging initializes the Firebase Cloud Messaging client. An empty
// credentials path disables the push channel rather than failing startup, so
// local development works without a service account.
func InitMessaging(ctx context.Context, credentialsPath string) (*messaging.Client, error) {
	if credentialsPath == "" {
		log.Println("FCM: no credentials configured, mobile push disabled")
		return nil, nil
	}

	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	firebaseApp, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := firebaseApp.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase messaging client: %w", err)
	}

	log.Println("Firebase messaging client initialized successfully!")
	return client, nil
}
