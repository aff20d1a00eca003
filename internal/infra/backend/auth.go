package backend

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/osa030/musicbox/internal/domain/account"
)

// ErrNoSession is returned by calls that need a signed-in user.
var ErrNoSession = errors.New("no session: sign in first")

// credentials is the body of sign-up and password sign-in.
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userBody represents a user object returned by the auth endpoints.
type userBody struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// tokenResponse represents the response of the token endpoints. Sign-up
// returns a bare user (ID, Email) when email confirmation is pending.
type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
	RefreshToken string   `json:"refresh_token"`
	User         userBody `json:"user"`
	ID           string   `json:"id"`
	Email        string   `json:"email"`
}

func (r *tokenResponse) session() *account.Session {
	user := account.User{ID: r.User.ID, Email: r.User.Email}
	if user.ID == "" {
		user = account.User{ID: r.ID, Email: r.Email}
	}
	if r.AccessToken == "" {
		return &account.Session{User: user}
	}
	return account.NewSession(user, r.AccessToken, r.RefreshToken, time.Duration(r.ExpiresIn)*time.Second)
}

// SignUp registers a new user. When the backend requires email
// confirmation the returned session has no access token and the client
// stays anonymous.
func (c *Client) SignUp(ctx context.Context, email, password string) (*account.Session, error) {
	var resp tokenResponse
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/v1/signup",
		body:      credentials{Email: email, Password: password},
		anonymous: true,
	}, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign up")
	}

	s := resp.session()
	if s.AccessToken != "" {
		c.UseSession(s)
	}
	zlog.Info().Msgf("signed up: user=%s email=%s confirmed=%v", s.User.ID, s.User.Email, s.AccessToken != "")
	return s, nil
}

// SignIn signs in with email and password and uses the new session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*account.Session, error) {
	s, err := c.token(ctx, "password", credentials{Email: email, Password: password})
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign in")
	}
	c.UseSession(s)
	zlog.Info().Msgf("signed in: user=%s", s.User.ID)
	return s, nil
}

// Refresh exchanges a refresh token for a new session. The client's
// current session is not changed.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*account.Session, error) {
	s, err := c.token(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, errors.Wrap(err, "failed to refresh session")
	}
	return s, nil
}

func (c *Client) token(ctx context.Context, grantType string, body any) (*account.Session, error) {
	var resp tokenResponse
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/v1/token",
		query:     url.Values{"grant_type": {grantType}},
		body:      body,
		anonymous: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, errors.New("token response has no access token")
	}
	return resp.session(), nil
}

// CurrentUser returns the signed-in user as seen by the backend.
func (c *Client) CurrentUser(ctx context.Context) (account.User, error) {
	if c.Session() == nil {
		return account.User{}, ErrNoSession
	}

	var u userBody
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/v1/user"}, &u); err != nil {
		return account.User{}, errors.Wrap(err, "failed to get current user")
	}
	return account.User{ID: u.ID, Email: u.Email}, nil
}

// SignOut revokes the session on the backend and falls back to the anon key.
func (c *Client) SignOut(ctx context.Context) error {
	if c.Session() == nil {
		return nil
	}
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/v1/logout"}, nil)
	c.clearSession()
	if err != nil {
		return errors.Wrap(err, "failed to sign out")
	}
	return nil
}

// UseSession makes the client act as the session's user. Expired access
// tokens are refreshed on demand.
func (c *Client) UseSession(s *account.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = s
	tok := &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: s.RefreshToken,
		Expiry:       s.ExpiresAt,
	}
	c.tokens = oauth2.ReuseTokenSource(tok, &refresher{client: c})
}

// Session returns the current session, or nil when anonymous.
func (c *Client) Session() *account.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// UserID returns the signed-in user ID, or "" when anonymous.
func (c *Client) UserID() string {
	if s := c.Session(); s != nil {
		return s.User.ID
	}
	return ""
}

func (c *Client) clearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	c.tokens = c.anonTokens()
}

// refresher refreshes the session when the reused token expires.
type refresher struct {
	client *Client
}

func (r *refresher) Token() (*oauth2.Token, error) {
	c := r.client
	current := c.Session()
	if current == nil || !current.CanRefresh() {
		return nil, errors.New("session expired and cannot be refreshed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.rawHTTP.Timeout)
	defer cancel()

	s, err := c.Refresh(ctx, current.RefreshToken)
	if err != nil {
		return nil, err
	}
	zlog.Debug().Msgf("session refreshed: user=%s expires=%s", s.User.ID, s.ExpiresAt.Format(time.RFC3339))

	c.mu.Lock()
	c.session = s
	onRefresh := c.onRefresh
	c.mu.Unlock()

	if onRefresh != nil {
		onRefresh(s)
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: s.RefreshToken,
		Expiry:       s.ExpiresAt,
	}, nil
}
