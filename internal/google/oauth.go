package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	logx "github.com/calendar-agent-poc/server/pkg/logger"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
)

// ErrNotConnected is returned until the consent flow has stored a token.
var ErrNotConnected = errors.New("google calendar is not connected; open /auth to connect")

type Config struct {
	ClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	ClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `envconfig:"GOOGLE_REDIRECT_URL" default:"http://localhost:3000/callback"`
	// TokenFile defaults to <user cache dir>/calendar-agent/google.token.
	TokenFile string `envconfig:"GOOGLE_TOKEN_FILE"`
}

// TokenPath resolves the token file location.
func (c Config) TokenPath() (string, error) {
	if c.TokenFile != "" {
		return c.TokenFile, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(dir, "calendar-agent", "google.token"), nil
}

// OAuthConfig returns the calendar-scoped OAuth2 client configuration.
func (c Config) OAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     googleoauth.Endpoint,
		RedirectURL:  c.RedirectURL,
		Scopes:       []string{calendar.CalendarScope},
	}
}

// Credentials is built once at startup and shared read-only.
type Credentials struct {
	conf  *oauth2.Config
	store TokenStore
}

func NewCredentials(cfg Config) (*Credentials, error) {
	path, err := cfg.TokenPath()
	if err != nil {
		return nil, err
	}
	return NewCredentialsWithStore(cfg.OAuthConfig(), NewFileTokenStore(path)), nil
}

func NewCredentialsWithStore(conf *oauth2.Config, store TokenStore) *Credentials {
	return &Credentials{conf: conf, store: store}
}

// AuthURL is the consent page address. Offline access plus forced consent
// makes Google return a refresh token every time.
func (c *Credentials) AuthURL(state string) string {
	return c.conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for tokens and persists them.
func (c *Credentials) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, errors.New("authorization code is empty")
	}
	tok, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if err := c.store.Save(tok); err != nil {
		return nil, err
	}
	logx.Info().Bool("has_refresh_token", tok.RefreshToken != "").Msg("google calendar connected")
	return tok, nil
}

// Connected reports whether a token has been stored.
func (c *Credentials) Connected() bool {
	_, err := c.store.Load()
	return err == nil
}

// TokenSource loads the stored token on first use and refreshes it when it
// expires, writing refreshed tokens back to the store.
func (c *Credentials) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &storeTokenSource{ctx: ctx, conf: c.conf, store: c.store}
}

// HTTPClient returns an authorized client for the Google APIs.
func (c *Credentials) HTTPClient(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, c.TokenSource(ctx))
}

type storeTokenSource struct {
	ctx   context.Context
	conf  *oauth2.Config
	store TokenStore

	mu  sync.Mutex
	cur *oauth2.Token
}

func (s *storeTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil {
		tok, err := s.store.Load()
		if err != nil {
			return nil, err
		}
		s.cur = tok
	}
	if s.cur.Valid() {
		return s.cur, nil
	}

	tok, err := s.conf.TokenSource(s.ctx, s.cur).Token()
	if err != nil {
		// drop the cached token so a fresh consent is picked up next time
		s.cur = nil
		return nil, fmt.Errorf("refresh google token: %w", err)
	}
	if tok.AccessToken != s.cur.AccessToken {
		if err := s.store.Save(tok); err != nil {
			logx.Warn().Err(err).Msg("failed to persist refreshed google token")
		}
	}
	s.cur = tok
	return tok, nil
}
