package earthengine

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scope is the OAuth2 scope granting Earth Engine access.
const Scope = "https://www.googleapis.com/auth/earthengine"

// Credentials is the authorized HTTP client plus the project named by the key file.
type Credentials struct {
	Client    *http.Client
	ProjectID string
}

// LoadServiceAccount reads a service-account JSON key and returns an HTTP client that signs
// every request with tokens derived from it. Token renewal is handled by the token source.
func LoadServiceAccount(ctx context.Context, keyFile string, timeout time.Duration) (*Credentials, error) {
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("read service account key: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, Scope)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}

	base := &http.Client{Timeout: timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, creds.TokenSource)
	client.Timeout = timeout

	return &Credentials{Client: client, ProjectID: creds.ProjectID}, nil
}
