package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/procura-app/procura/internal/domain"
	"github.com/procura-app/procura/internal/metrics"
	"github.com/procura-app/procura/internal/repository"
	"github.com/procura-app/procura/internal/token"
)

const (
	googleAuthorizeURL = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL     = "https://oauth2.googleapis.com/token"
	googleUserinfoURL  = "https://openidconnect.googleapis.com/v1/userinfo"
	appleAuthorizeURL  = "https://appleid.apple.com/auth/authorize"
)

// Profile is what a provider asserts about the authenticating subject.
type Profile struct {
	ID    string
	Email string
	Name  string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	AppleClientID      string
	Production         bool
}

type OAuthUsecase struct {
	users  repository.UserRepository
	issuer *token.Issuer
	cfg    OAuthConfig
	client *http.Client
}

func NewOAuthUsecase(users repository.UserRepository, issuer *token.Issuer, cfg OAuthConfig) *OAuthUsecase {
	return &OAuthUsecase{
		users:  users,
		issuer: issuer,
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthURL builds the provider handoff URL. Without provider credentials it
// returns domain.ErrNotConfigured; outside production the caller falls
// straight through to the dev callback instead.
func (u *OAuthUsecase) AuthURL(provider domain.Provider, redirectURI, state string) (string, error) {
	switch provider {
	case domain.ProviderGoogle:
		if u.cfg.GoogleClientID == "" {
			return "", domain.ErrNotConfigured
		}
		q := url.Values{
			"client_id":     {u.cfg.GoogleClientID},
			"redirect_uri":  {redirectURI},
			"response_type": {"code"},
			"scope":         {"openid email profile"},
			"state":         {state},
		}
		return googleAuthorizeURL + "?" + q.Encode(), nil
	case domain.ProviderApple:
		if u.cfg.AppleClientID == "" {
			return "", domain.ErrNotConfigured
		}
		q := url.Values{
			"client_id":     {u.cfg.AppleClientID},
			"redirect_uri":  {redirectURI},
			"response_type": {"code"},
			"scope":         {"name email"},
			"state":         {state},
		}
		return appleAuthorizeURL + "?" + q.Encode(), nil
	default:
		return "", fmt.Errorf("unknown oauth provider %q", provider)
	}
}

// Configured reports whether the provider can run a real code exchange.
func (u *OAuthUsecase) Configured(provider domain.Provider) bool {
	switch provider {
	case domain.ProviderGoogle:
		return u.cfg.GoogleClientID != "" && u.cfg.GoogleClientSecret != ""
	case domain.ProviderApple:
		// Apple token exchange needs a signed client secret, which is not
		// wired yet; only the dev fallback works.
		return false
	default:
		return false
	}
}

// Callback finishes the handoff: it obtains a provider profile (real exchange
// when configured, deterministic stub otherwise outside production) and
// unifies it into a user record.
func (u *OAuthUsecase) Callback(ctx context.Context, provider domain.Provider, code, redirectURI string) (*domain.User, string, error) {
	var profile *Profile
	var err error

	switch {
	case u.Configured(provider):
		profile, err = u.exchangeGoogle(ctx, code, redirectURI)
	case !u.cfg.Production:
		profile = devProfile(provider)
	default:
		err = domain.ErrNotConfigured
	}
	if err != nil {
		return nil, "", err
	}

	return u.resolve(ctx, provider, profile)
}

func (u *OAuthUsecase) resolve(ctx context.Context, provider domain.Provider, p *Profile) (*domain.User, string, error) {
	in := repository.CreateUserInput{
		Provider:   provider,
		ProviderID: &p.ID,
		Name:       p.Name,
		Role:       domain.RoleViewer,
	}
	if p.Email != "" {
		email := NormalizeEmail(p.Email)
		in.Email = &email
	}

	user, err := u.users.FindOrCreateByProviderID(ctx, in)
	if err != nil {
		return nil, "", err
	}
	if !user.Active {
		return nil, "", domain.ErrInvalidCredentials
	}

	signed, err := u.issuer.Issue(user)
	if err != nil {
		return nil, "", err
	}

	metrics.TokensIssuedTotal.Inc()
	return user, signed, nil
}

func (u *OAuthUsecase) exchangeGoogle(ctx context.Context, code, redirectURI string) (*Profile, error) {
	form := url.Values{
		"code":          {code},
		"client_id":     {u.cfg.GoogleClientID},
		"client_secret": {u.cfg.GoogleClientSecret},
		"redirect_uri":  {redirectURI},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, googleTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrInvalidCredentials
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil || tokenResp.AccessToken == "" {
		return nil, domain.ErrInvalidCredentials
	}

	infoReq, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	infoReq.Header.Set("Authorization", "Bearer "+tokenResp.AccessToken)

	infoResp, err := u.client.Do(infoReq)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer infoResp.Body.Close()
	if infoResp.StatusCode != http.StatusOK {
		return nil, domain.ErrInvalidCredentials
	}

	var info struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(infoResp.Body).Decode(&info); err != nil || info.Sub == "" {
		return nil, domain.ErrInvalidCredentials
	}

	return &Profile{ID: info.Sub, Email: info.Email, Name: info.Name}, nil
}

// devProfile is the non-production fallback when a provider has no
// credentials: a fixed stub identity per provider, so local frontends can
// exercise the OAuth paths end to end.
func devProfile(provider domain.Provider) *Profile {
	return &Profile{
		ID:    fmt.Sprintf("dev-%s-user", provider),
		Email: fmt.Sprintf("dev-%s@example.com", provider),
		Name:  fmt.Sprintf("Dev %s User", strings.ToUpper(string(provider)[:1])+string(provider)[1:]),
	}
}
