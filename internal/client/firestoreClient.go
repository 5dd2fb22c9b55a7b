package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/option"

	"stripe-subscription-relay/internal/config"
)

// InitFirestoreClient bootstraps the Firebase admin app and returns its
// Firestore handle. Credentials resolve in order: service-account file,
// individual env fields, application default credentials.
func InitFirestoreClient(ctx context.Context, cfg *config.Firebase) (*firestore.Client, error) {
	var opts []option.ClientOption

	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.ClientEmail != "" && cfg.PrivateKey != "":
		creds, err := serviceAccountJSON(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}

	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firestore client: %w", err)
	}

	return fs, nil
}

func serviceAccountJSON(cfg *config.Firebase) ([]byte, error) {
	creds, err := json.Marshal(map[string]string{
		"type":         "service_account",
		"project_id":   cfg.ProjectID,
		"client_email": cfg.ClientEmail,
		// env values carry literal \n sequences
		"private_key": strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n"),
		"token_uri":   "https://oauth2.googleapis.com/token",
	})
	if err != nil {
		return nil, fmt.Errorf("assemble firebase credentials: %w", err)
	}

	return creds, nil
}
