package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	githubep "golang.org/x/oauth2/github"
	googleep "golang.org/x/oauth2/google"

	"github.com/logicguard/logicguard/internal/store"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// profile is the normalized identity fetched from an OAuth provider.
type profile struct {
	Provider string
	ID       string
	Email    string
	Name     string
	Picture  string
}

// oauthProvider pairs an oauth2 code-flow config with its profile
// endpoint. The URL fields exist so tests can point at local servers.
type oauthProvider struct {
	name        string
	config      *oauth2.Config
	apiBase     string // github API base, "" for api.github.com
	userInfoURL string // google userinfo endpoint
}

func newGitHubProvider(cfg Config) *oauthProvider {
	return &oauthProvider{
		name: "github",
		config: &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.GitHubRedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     githubep.Endpoint,
		},
	}
}

func newGoogleProvider(cfg Config) *oauthProvider {
	return &oauthProvider{
		name: "google",
		config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     googleep.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (s *service) provider(name string) (*oauthProvider, error) {
	var p *oauthProvider
	switch name {
	case "github":
		p = s.github
	case "google":
		p = s.google
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	if p.config.ClientID == "" {
		return nil, &InputError{Message: fmt.Sprintf("%s oauth is not configured", name)}
	}
	return p, nil
}

func (s *service) OAuthURL(provider, state string) (string, error) {
	p, err := s.provider(provider)
	if err != nil {
		return "", err
	}
	if state == "" {
		return "", &InputError{Message: "oauth state is required"}
	}
	return p.config.AuthCodeURL(state), nil
}

func (s *service) OAuthExchange(ctx context.Context, provider, code string) (*store.User, string, error) {
	p, err := s.provider(provider)
	if err != nil {
		return nil, "", err
	}
	if code == "" {
		return nil, "", &InputError{Message: "oauth code is required"}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		// A rejected code is the caller's problem, not ours.
		return nil, "", &InputError{Message: fmt.Sprintf("oauth exchange failed: %v", err)}
	}

	var prof *profile
	switch p.name {
	case "github":
		prof, err = s.githubProfile(ctx, p, token)
	case "google":
		prof, err = s.googleProfile(ctx, p, token)
	}
	if err != nil {
		return nil, "", err
	}

	user, err := s.upsertOAuthUser(ctx, prof)
	if err != nil {
		return nil, "", err
	}
	return s.openSession(ctx, user)
}

// upsertOAuthUser finds the account for a provider identity, creating it
// on first sign-in.
func (s *service) upsertOAuthUser(ctx context.Context, prof *profile) (*store.User, error) {
	user, err := s.store.GetUserByProvider(ctx, prof.Provider, prof.ID)
	if err == nil {
		if err := s.store.TouchLastLogin(ctx, user.ID); err != nil {
			s.logger.Warn("failed to update last login", zap.Int64("user_id", user.ID), zap.Error(err))
		}
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	user, err = s.store.CreateUser(ctx, &store.User{
		Provider:   prof.Provider,
		ProviderID: prof.ID,
		Email:      prof.Email,
		Name:       prof.Name,
		Picture:    prof.Picture,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("oauth user created",
		zap.Int64("user_id", user.ID),
		zap.String("provider", prof.Provider))
	return user, nil
}

func (s *service) githubProfile(ctx context.Context, p *oauthProvider, token *oauth2.Token) (*profile, error) {
	client := github.NewClient(p.config.Client(ctx, token))
	if p.apiBase != "" {
		base, err := url.Parse(p.apiBase)
		if err != nil {
			return nil, fmt.Errorf("invalid github api base: %w", err)
		}
		client.BaseURL = base
	}

	u, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch github profile: %w", err)
	}

	email := u.GetEmail()
	if email == "" {
		// Profile email is often private; fall back to the primary
		// address from the emails endpoint.
		emails, _, err := client.Users.ListEmails(ctx, nil)
		if err == nil {
			for _, e := range emails {
				if e.GetPrimary() {
					email = e.GetEmail()
					break
				}
			}
		}
	}

	name := u.GetName()
	if name == "" {
		name = u.GetLogin()
	}

	return &profile{
		Provider: "github",
		ID:       strconv.FormatInt(u.GetID(), 10),
		Email:    email,
		Name:     name,
		Picture:  u.GetAvatarURL(),
	}, nil
}

func (s *service) googleProfile(ctx context.Context, p *oauthProvider, token *oauth2.Token) (*profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("google userinfo returned %d: %s", resp.StatusCode, body)
	}

	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode google profile: %w", err)
	}
	if info.ID == "" {
		return nil, errors.New("google profile has no id")
	}

	return &profile{
		Provider: "google",
		ID:       info.ID,
		Email:    info.Email,
		Name:     info.Name,
		Picture:  info.Picture,
	}, nil
}
