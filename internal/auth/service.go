package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// googleUserInfoURL is the endpoint queried with the exchanged access token.
const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Config configures the auth service.
type Config struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

// AuthenticatedUser is a user plus a freshly issued token.
type AuthenticatedUser struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Service implements registration, login and the Google OAuth flow.
type Service struct {
	config Config
	store  UserStore
	tokens *TokenService
	logger *zap.Logger

	// oauth is nil when Google login is not configured.
	oauth *oauth2.Config
}

// NewService creates the auth service.
func NewService(cfg Config, store UserStore, tokens *TokenService, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("user store is required")
	}
	if tokens == nil {
		return nil, errors.New("token service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		config: cfg,
		store:  store,
		tokens: tokens,
		logger: logger,
	}

	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		s.oauth = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}

	return s, nil
}

// Register creates an email/password account and returns it with a token.
func (s *Service) Register(ctx context.Context, email, password string, name *string) (*AuthenticatedUser, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if _, err := s.store.FindUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("checking existing email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, email, string(hash), name)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return s.withToken(user)
}

// Login authenticates an email/password pair.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthenticatedUser, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if !user.Active {
		return nil, ErrInactiveUser
	}
	// Google-only accounts have no password hash; they cannot log in here.
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	return s.withToken(user)
}

// GoogleConfigured reports whether Google login is available.
func (s *Service) GoogleConfigured() bool {
	return s.oauth != nil
}

// GoogleAuthURL returns the Google consent screen URL.
func (s *Service) GoogleAuthURL() (string, error) {
	if s.oauth == nil {
		return "", ErrGoogleNotConfigured
	}
	return s.oauth.AuthCodeURL("",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// GoogleExchange trades an authorization code for the Google profile, creates
// or refreshes the matching account and returns it with a token.
func (s *Service) GoogleExchange(ctx context.Context, code string) (*AuthenticatedUser, error) {
	if s.oauth == nil {
		return nil, ErrGoogleNotConfigured
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	profile, err := s.fetchGoogleProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.store.UpsertGoogleUser(ctx, *profile)
	if err != nil {
		return nil, fmt.Errorf("upserting google user: %w", err)
	}

	s.logger.Info("google login", zap.Int64("user_id", user.ID))
	return s.withToken(user)
}

// Me returns the profile behind a verified identity.
func (s *Service) Me(ctx context.Context, ident Identity) (*User, error) {
	return s.store.FindUserByID(ctx, ident.UserID)
}

// fetchGoogleProfile queries the userinfo endpoint with the OAuth client.
func (s *Service) fetchGoogleProfile(ctx context.Context, token *oauth2.Token) (*GoogleProfile, error) {
	client := s.oauth.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetching google userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo returned status %d", resp.StatusCode)
	}

	var info struct {
		ID      string `json:"id"`
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding google userinfo: %w", err)
	}

	googleID := info.ID
	if googleID == "" {
		googleID = info.Sub
	}
	if googleID == "" || info.Email == "" {
		return nil, errors.New("google userinfo missing id or email")
	}

	profile := &GoogleProfile{GoogleID: googleID, Email: info.Email}
	if info.Name != "" {
		profile.Name = &info.Name
	}
	if info.Picture != "" {
		profile.PhotoURL = &info.Picture
	}
	return profile, nil
}

// withToken pairs a user with a freshly issued token.
func (s *Service) withToken(user *User) (*AuthenticatedUser, error) {
	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return &AuthenticatedUser{User: user, Token: token}, nil
}
