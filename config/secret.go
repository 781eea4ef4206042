package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/sgoldberg/nocogo/nocodb"
	"github.com/zalando/go-keyring"
)

const keyringService = "nocogo"

// tokenEnvVar overrides any stored credential except an explicit flag.
const tokenEnvVar = "NOCODB_API_TOKEN"

// ResolveAuth picks the credential for a server. Resolution order:
// explicit override, environment, OS keyring entry for the server host,
// config file API token, config file JWT token.
func ResolveAuth(override string, server ServerConfig) (nocodb.AuthToken, error) {
	if override != "" {
		return nocodb.APIToken(override), nil
	}

	if env := os.Getenv(tokenEnvVar); env != "" {
		return nocodb.APIToken(env), nil
	}

	if host, err := serverHost(server.URL); err == nil {
		stored, err := keyring.Get(keyringService, host)
		if err == nil && stored != "" {
			return nocodb.APIToken(stored), nil
		}
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			// A broken keyring backend should not lock the user out when
			// other sources exist; only report it if nothing else works.
			if server.APIToken == "" && server.JWTToken == "" {
				return nil, fmt.Errorf("cannot read keyring: %w", err)
			}
		}
	}

	if server.APIToken != "" {
		return nocodb.APIToken(server.APIToken), nil
	}
	if server.JWTToken != "" {
		return nocodb.JWTAuthToken(server.JWTToken), nil
	}

	return nil, errors.New("no API token found: pass --token, set " + tokenEnvVar + ", run `auth login`, or set server.api_token in the config file")
}

// StoreToken saves an API token in the OS keyring, keyed by server host.
func StoreToken(serverURL, token string) error {
	host, err := serverHost(serverURL)
	if err != nil {
		return err
	}
	return keyring.Set(keyringService, host, token)
}

// ForgetToken removes a stored token. A missing entry is not an error.
func ForgetToken(serverURL string) error {
	host, err := serverHost(serverURL)
	if err != nil {
		return err
	}

	if err := keyring.Delete(keyringService, host); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

func serverHost(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid server URL: %q", serverURL)
	}
	return u.Host, nil
}
