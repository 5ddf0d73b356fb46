package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/OlogyCrew/ologywoodv3/config"
	"github.com/OlogyCrew/ologywoodv3/model"
	"github.com/OlogyCrew/ologywoodv3/pkg/logger"
	"golang.org/x/oauth2"
)

// OAuthUserInfo is the profile returned by the identity provider.
type OAuthUserInfo struct {
	OpenID      string `json:"openId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	LoginMethod string `json:"loginMethod"`
	Platform    string `json:"platform"`
}

// UnmarshalJSON accepts the snake_case and OIDC spellings some providers use.
func (u *OAuthUserInfo) UnmarshalJSON(b []byte) error {
	type plain OAuthUserInfo
	var raw struct {
		plain
		OpenIDSnake string `json:"open_id"`
		Sub         string `json:"sub"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*u = OAuthUserInfo(raw.plain)
	if u.OpenID == "" {
		u.OpenID = raw.OpenIDSnake
	}
	if u.OpenID == "" {
		u.OpenID = raw.Sub
	}
	return nil
}

// OAuthService signs users in through an OAuth 2 authorization code flow.
type OAuthService struct {
	config      *config.OAuthConfig
	oauth       *oauth2.Config
	httpClient  *http.Client
	users       *UserStore
	defaultRole string
}

func NewOAuthService(cfg *config.OAuthConfig, users *UserStore) *OAuthService {
	role := cfg.DefaultRole
	if role == "" {
		role = model.RoleUser
	}
	return &OAuthService{
		config: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		httpClient:  &http.Client{Timeout: cfg.Timeout()},
		users:       users,
		defaultRole: role,
	}
}

// AuthCodeURL is where the browser is sent to start a sign in.
func (s *OAuthService) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token
func (s *OAuthService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return tok, nil
}

// UserInfo fetches the signed in user's profile
func (s *OAuthService) UserInfo(ctx context.Context, tok *oauth2.Token) (*OAuthUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info request failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var info OAuthUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &info, nil
}

// SignIn completes the callback: it exchanges the code, loads the profile
// and creates or refreshes the local user.
func (s *OAuthService) SignIn(ctx context.Context, code, state string) (*model.User, error) {
	logger.Debug(ctx, "oauth callback", "state", state)

	tok, err := s.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	info, err := s.UserInfo(ctx, tok)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(info.OpenID) == "" {
		return nil, invalidInput("openId missing from user info")
	}

	loginMethod := info.LoginMethod
	if loginMethod == "" {
		loginMethod = info.Platform
	}
	now := time.Now()
	u := &model.User{
		OpenID:       info.OpenID,
		Name:         info.Name,
		Email:        info.Email,
		Role:         s.defaultRole,
		LoginMethod:  loginMethod,
		LastSignedIn: &now,
	}
	if s.config.IsAdmin(info.OpenID) {
		u.Role = model.RoleAdmin
	}

	user, err := s.users.Upsert(ctx, u)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "user signed in", "user_id", user.ID, "login_method", user.LoginMethod)
	return user, nil
}
