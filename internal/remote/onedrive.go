package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
)

const (
	onedriveTokenURL = "https://login.microsoftonline.com/consumers/oauth2/v2.0/token"
	onedriveGraphURL = "https://graph.microsoft.com/v1.0/me/drive/root"
)

// OneDrive stores artifacts in a personal OneDrive via the Microsoft Graph
// content endpoints, authenticating with a long-lived refresh token.
type OneDrive struct {
	log          *slog.Logger
	client       *http.Client
	clientID     string
	refreshToken string
	token        *oauth2.Token

	tokenURL string
	graphURL string
}

func NewOneDrive(log *slog.Logger, clientID, refreshToken string) *OneDrive {
	return &OneDrive{
		log:          log,
		client:       http.DefaultClient,
		clientID:     clientID,
		refreshToken: refreshToken,
		tokenURL:     onedriveTokenURL,
		graphURL:     onedriveGraphURL,
	}
}

// Refresh exchanges the refresh token for a fresh bearer token.
func (o *OneDrive) Refresh(ctx context.Context) error {
	conf := &oauth2.Config{
		ClientID: o.clientID,
		Endpoint: oauth2.Endpoint{TokenURL: o.tokenURL},
		Scopes:   []string{"offline_access", "Files.ReadWrite.All"},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, o.client)
	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: o.refreshToken}).Token()
	if err != nil {
		return fmt.Errorf("onedrive token refresh failed: %w", err)
	}

	o.token = token
	o.log.InfoContext(ctx, "onedrive credentials refreshed")
	return nil
}

// Upload replaces the remote file content under the given drive path.
func (o *OneDrive) Upload(ctx context.Context, path string, r io.Reader) error {
	req, err := o.newRequest(ctx, http.MethodPut, path, r)
	if err != nil {
		return err
	}

	res, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("onedrive upload of %s failed: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return fmt.Errorf("onedrive upload of %s failed: [%d] %s", path, res.StatusCode, res.Status)
	}

	o.log.DebugContext(ctx, "uploaded artifact to onedrive", "path", path)
	return nil
}

// Download fetches remote file content; a missing file maps to ErrNotFound.
func (o *OneDrive) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := o.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	res, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("onedrive download of %s failed: %w", path, err)
	}

	switch res.StatusCode {
	case http.StatusOK:
		return res.Body, nil
	case http.StatusNotFound:
		res.Body.Close()
		return nil, ErrNotFound
	default:
		res.Body.Close()
		return nil, fmt.Errorf("onedrive download of %s failed: [%d] %s", path, res.StatusCode, res.Status)
	}
}

func (o *OneDrive) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if o.token == nil || !o.token.Valid() {
		if err := o.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	endpoint := fmt.Sprintf("%s:/%s:/content", o.graphURL, path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+o.token.AccessToken)

	return req, nil
}
