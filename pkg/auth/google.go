package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-storefront/pkg/domain"
)

const (
	googleAuthURL   = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL  = "https://oauth2.googleapis.com/token"
	googleIssuer    = "https://accounts.google.com"
	googleIssuerAlt = "accounts.google.com"

	oauthStateLen = 16
)

// GoogleConfig holds Google OAuth configuration.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// GoogleClaims represents the claims from a Google ID token.
type GoogleClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Nonce         string `json:"nonce"`
}

// GoogleService handles Google OAuth authentication.
type GoogleService struct {
	config     GoogleConfig
	users      UserStore
	sessions   *SessionService
	states     StateStore
	httpClient *http.Client
	tokenURL   string
	now        func() time.Time
}

// NewGoogleService creates a new Google service.
func NewGoogleService(config GoogleConfig, users UserStore, sessions *SessionService, states StateStore) *GoogleService {
	return &GoogleService{
		config:     config,
		users:      users,
		sessions:   sessions,
		states:     states,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tokenURL:   googleTokenURL,
		now:        time.Now,
	}
}

// Enabled reports whether Google sign-in is configured.
func (s *GoogleService) Enabled() bool {
	return s.config.ClientID != "" && s.config.ClientSecret != ""
}

// Start creates a fresh state and nonce and returns the consent URL.
func (s *GoogleService) Start(ctx context.Context) (string, error) {
	state, err := GenerateToken(oauthStateLen)
	if err != nil {
		return "", err
	}
	nonce, err := GenerateToken(oauthStateLen)
	if err != nil {
		return "", err
	}
	if err := s.states.Save(ctx, state, OAuthState{Nonce: nonce, ExpiresAt: s.now().Add(DefaultStateTTL)}); err != nil {
		return "", err
	}
	return s.GenerateAuthURL(state, nonce), nil
}

// GenerateAuthURL generates the Google OAuth authorization URL.
func (s *GoogleService) GenerateAuthURL(state, nonce string) string {
	params := url.Values{
		"client_id":     {s.config.ClientID},
		"redirect_uri":  {s.config.RedirectURI},
		"response_type": {"code"},
		"scope":         {"openid email profile"},
		"state":         {state},
		"nonce":         {nonce},
		"access_type":   {"offline"},
	}
	return googleAuthURL + "?" + params.Encode()
}

// Callback completes the flow: it checks the state, exchanges the code,
// resolves or creates the user and issues a session.
func (s *GoogleService) Callback(ctx context.Context, code, state string, opts IssueSessionOpts) (*domain.User, *domain.IssuedSession, error) {
	if code == "" {
		return nil, nil, errors.New("missing authorization code")
	}
	saved, err := s.states.Take(ctx, state)
	if err != nil {
		return nil, nil, err
	}

	tokens, err := s.ExchangeCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	claims, err := s.ValidateIDToken(tokens.IDToken, saved.Nonce)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.ResolveUser(ctx, claims)
	if err != nil {
		return nil, nil, err
	}

	issued, err := s.sessions.IssueSession(ctx, user, opts)
	if err != nil {
		return nil, nil, err
	}
	return user, issued, nil
}

// GoogleTokenResponse represents the response from Google token endpoint.
type GoogleTokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// ExchangeCode exchanges an authorization code for tokens.
func (s *GoogleService) ExchangeCode(ctx context.Context, code string) (*GoogleTokenResponse, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {s.config.ClientID},
		"client_secret": {s.config.ClientSecret},
		"redirect_uri":  {s.config.RedirectURI},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("token exchange failed: %s", string(body))
	}

	var tokenResp GoogleTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, err
	}
	if tokenResp.IDToken == "" {
		return nil, errors.New("token response has no id_token")
	}
	return &tokenResp, nil
}

// ValidateIDToken checks issuer, audience, expiry and nonce of an ID token.
// The token is received directly from Google's token endpoint over TLS, so
// its signature is not checked again here.
func (s *GoogleService) ValidateIDToken(idToken, expectedNonce string) (*GoogleClaims, error) {
	token, _, err := jwt.NewParser().ParseUnverified(idToken, &GoogleClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse ID token: %w", err)
	}

	claims, ok := token.Claims.(*GoogleClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	if claims.Issuer != googleIssuer && claims.Issuer != googleIssuerAlt {
		return nil, fmt.Errorf("invalid issuer: %s", claims.Issuer)
	}

	validAudience := false
	for _, aud := range claims.Audience {
		if aud == s.config.ClientID {
			validAudience = true
			break
		}
	}
	if !validAudience {
		return nil, errors.New("invalid audience")
	}

	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return nil, errors.New("token expired")
	}

	if expectedNonce != "" && claims.Nonce != expectedNonce {
		return nil, errors.New("nonce mismatch")
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, errors.New("id token has no subject or email")
	}
	return claims, nil
}

// ResolveUser finds the account for a Google identity: by Google subject,
// then by email (linking the subject when the account has none), and
// otherwise creates a passwordless account.
func (s *GoogleService) ResolveUser(ctx context.Context, claims *GoogleClaims) (*domain.User, error) {
	user, err := s.users.GetByGoogleID(ctx, claims.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	email := NormalizeEmail(claims.Email)
	user, err = s.users.GetByEmail(ctx, email)
	if err == nil {
		if !claims.EmailVerified {
			return nil, errors.New("google email is not verified")
		}
		if user.GoogleID == nil {
			if err := s.users.LinkGoogleID(ctx, user.ID, claims.Subject); err != nil {
				return nil, err
			}
			subject := claims.Subject
			user.GoogleID = &subject
		}
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	username := strings.TrimSpace(claims.Name)
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}
	username = SanitizeName(username)
	if len([]rune(username)) > maxUsernameLength {
		username = string([]rune(username)[:maxUsernameLength])
	}

	now := s.now()
	subject := claims.Subject
	newUser := &domain.User{
		ID:        uuid.New(),
		Email:     email,
		Username:  username,
		GoogleID:  &subject,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, newUser); err != nil {
		return nil, err
	}
	return newUser, nil
}
