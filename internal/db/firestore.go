package db

import (
	"context"
	"encoding/base64"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"resumepilot-backend/internal/config"
)

// Clients bundles the Google Cloud clients the application depends on. They
// are constructed once in main and injected into repositories and middleware;
// there is no package-level singleton.
type Clients struct {
	Firestore *firestore.Client
	Auth      *auth.Client
	Storage   *storage.Client
}

// NewClients initializes the Firebase Admin SDK and returns Firestore, Auth
// and Cloud Storage clients using the credentials from appConfig. Credentials
// resolve in order: service account file path, base64-encoded service account
// JSON, then Application Default Credentials.
func NewClients(ctx context.Context, appConfig *config.Config) (*Clients, error) {
	if appConfig == nil {
		return nil, fmt.Errorf("NewClients: appConfig cannot be nil")
	}

	var opts []option.ClientOption
	switch {
	case appConfig.GoogleApplicationCredentials != "":
		opts = append(opts, option.WithCredentialsFile(appConfig.GoogleApplicationCredentials))
	case appConfig.FirebaseServiceAccountJSONBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(appConfig.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode FIREBASE_SERVICE_ACCOUNT_JSON_BASE64: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(decoded))
	}
	// No explicit option means the SDK falls back to ADC, which is the normal
	// setup on GCE, GKE and Cloud Run.

	fbConfig := &firebase.Config{ProjectID: appConfig.FirebaseProjectID}
	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Firestore: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		fsClient.Close()
		return nil, fmt.Errorf("app.Auth: %w", err)
	}

	storageClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		fsClient.Close()
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}

	return &Clients{
		Firestore: fsClient,
		Auth:      authClient,
		Storage:   storageClient,
	}, nil
}

// Close releases the underlying client connections.
func (c *Clients) Close() error {
	var firstErr error
	if c.Firestore != nil {
		if err := c.Firestore.Close(); err != nil {
			firstErr = err
		}
	}
	if c.Storage != nil {
		if err := c.Storage.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
