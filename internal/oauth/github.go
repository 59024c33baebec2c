package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/mrlokans/authkit/internal/config"
	"github.com/mrlokans/authkit/internal/entities"
)

const githubAPIURL = "https://api.github.com"

// GitHubProvider implements Provider for GitHub accounts.
type GitHubProvider struct {
	conf   *oauth2.Config
	apiURL string
}

// NewGitHubProvider creates the GitHub adapter. baseURL is the public base
// URL of this service, used to build the callback URL.
func NewGitHubProvider(client config.OAuthClient, baseURL string) *GitHubProvider {
	return &GitHubProvider{
		conf: &oauth2.Config{
			ClientID:     client.ClientID,
			ClientSecret: client.ClientSecret,
			RedirectURL:  baseURL + "/auth/github/callback",
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiURL: githubAPIURL,
	}
}

func (p *GitHubProvider) Name() entities.OAuthProvider {
	return entities.ProviderGitHub
}

func (p *GitHubProvider) AuthURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

// Exchange trades the authorization code for tokens and fetches the user's
// profile. GitHub may omit the email from /user (private emails), in which
// case the primary verified address is looked up via /user/emails.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("github code exchange failed: %w", err)
	}

	client := p.conf.Client(ctx, token)

	var user struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := p.getJSON(client, "/user", &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("github user response missing id")
	}

	email := user.Email
	if email == "" {
		email, err = p.primaryEmail(client)
		if err != nil {
			return nil, err
		}
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &Profile{
		Provider:  entities.ProviderGitHub,
		SubjectID: strconv.FormatInt(user.ID, 10),
		Email:     email,
		Name:      name,
	}, nil
}

// primaryEmail returns the user's primary verified email, or "" if none.
func (p *GitHubProvider) primaryEmail(client *http.Client) (string, error) {
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := p.getJSON(client, "/user/emails", &emails); err != nil {
		return "", err
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	return "", nil
}

func (p *GitHubProvider) getJSON(client *http.Client, path string, out any) error {
	resp, err := client.Get(p.apiURL + path)
	if err != nil {
		return fmt.Errorf("github api request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode github response %s: %w", path, err)
	}
	return nil
}
