// Package source retrieves meeting notes: Gmail for the "Notes:" emails
// Google Meet sends after a recorded meeting, Google Docs for the linked
// notes document.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// clientSecretsFile is the downloaded Google API credentials.json,
	// expected in the config directory.
	clientSecretsFile = "credentials.json"

	// tokenFile caches the user's OAuth token (access + refresh) next to
	// the credentials.
	tokenFile = "token.json"

	// localAuthPort is where the local redirect listener binds during the
	// browser authorization flow.
	localAuthPort = "6789"

	appName = "gutautomate"
)

// ConfigDir returns ~/.config/gutautomate.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// oauthConfig loads the client secrets and builds an oauth2.Config with a
// localhost redirect on localAuthPort.
func oauthConfig(scopes []string) (*oauth2.Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	secretsPath := filepath.Join(dir, clientSecretsFile)
	b, err := os.ReadFile(secretsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", secretsPath, err)
	}
	cfg, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file: %w", err)
	}
	cfg.RedirectURL = fmt.Sprintf("http://localhost:%s/oauth2callback", localAuthPort)
	return cfg, nil
}

// authedClient returns an HTTP client for the given scopes, reusing the
// cached token or running the browser authorization flow when there is
// none. The returned client refreshes tokens automatically.
func authedClient(ctx context.Context, scopes []string) (*http.Client, error) {
	cfg, err := oauthConfig(scopes)
	if err != nil {
		return nil, err
	}

	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	tokenPath := filepath.Join(dir, tokenFile)

	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		fmt.Printf("No cached token at %s, starting browser authorization...\n", tokenPath)
		tok, err = tokenFromWeb(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("authorization failed: %w", err)
		}
		if err := saveToken(tokenPath, tok); err != nil {
			return nil, err
		}
	}

	return cfg.Client(ctx, tok), nil
}

// tokenFromWeb runs the authorization-code flow: start a local listener,
// print the consent URL, wait for the redirect.
func tokenFromWeb(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", ":"+localAuthPort)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %s: %w", localAuthPort, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "authorization code not found", http.StatusBadRequest)
				errCh <- fmt.Errorf("authorization code not found in redirect")
				return
			}
			fmt.Fprint(w, "Authentication successful! You can close this window.")
			codeCh <- code
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			errCh <- serveErr
		}
	}()
	defer server.Shutdown(context.Background()) //nolint:errcheck

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Open the following URL in your browser to authorize %s:\n%s\n", appName, authURL)

	select {
	case code := <-codeCh:
		exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return cfg.Exchange(exchangeCtx, code)
	case err := <-errCh:
		return nil, err
	case <-time.After(5 * time.Minute):
		return nil, fmt.Errorf("authorization timed out")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from %s: %w", path, err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
