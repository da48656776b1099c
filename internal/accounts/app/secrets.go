package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/common/auth"
	"github.com/oracle/oci-go-sdk/v65/secrets"
)

// Secret names understood by every SecretSource.
const (
	SecretKey        = "SECRET_KEY"
	SecretDBPassword = "DB_PASSWORD"
	SecretPepper     = "PASSWORD_PEPPER"
)

// SecretSource resolves a named secret. An unconfigured secret resolves to
// the empty string rather than an error.
type SecretSource interface {
	Secret(ctx context.Context, name string) (string, error)
}

// NewSecretSource returns EnvSecrets in local mode and VaultSecrets in
// production.
func NewSecretSource(cfg Config) (SecretSource, error) {
	if !cfg.IsProduction() {
		return EnvSecrets{}, nil
	}

	client, err := newSecretsClient(cfg.Vault.AuthMode)
	if err != nil {
		return nil, err
	}
	return &VaultSecrets{
		Client: client,
		OCIDs: map[string]string{
			SecretKey:        cfg.Vault.SecretKeyOCID,
			SecretDBPassword: cfg.Vault.DBPasswordOCID,
			SecretPepper:     cfg.Vault.PepperOCID,
		},
	}, nil
}

// EnvSecrets reads secrets from environment variables of the same name.
type EnvSecrets struct{}

func (EnvSecrets) Secret(_ context.Context, name string) (string, error) {
	return os.Getenv(name), nil
}

// SecretBundleGetter is the subset of secrets.SecretsClient that
// VaultSecrets needs.
type SecretBundleGetter interface {
	GetSecretBundle(ctx context.Context, req secrets.GetSecretBundleRequest) (secrets.GetSecretBundleResponse, error)
}

// VaultSecrets reads secrets from OCI Vault. OCIDs maps secret names to
// vault secret OCIDs; names without an OCID resolve to "".
type VaultSecrets struct {
	Client SecretBundleGetter
	OCIDs  map[string]string
}

func (v *VaultSecrets) Secret(ctx context.Context, name string) (string, error) {
	ocid := v.OCIDs[name]
	if ocid == "" {
		return "", nil
	}

	resp, err := v.Client.GetSecretBundle(ctx, secrets.GetSecretBundleRequest{
		SecretId: common.String(ocid),
	})
	if err != nil {
		return "", fmt.Errorf("vault: get secret bundle: %w", err)
	}

	var content *string
	switch c := resp.SecretBundleContent.(type) {
	case secrets.Base64SecretBundleContentDetails:
		content = c.Content
	case *secrets.Base64SecretBundleContentDetails:
		content = c.Content
	default:
		return "", fmt.Errorf("vault: unsupported secret content %T", resp.SecretBundleContent)
	}
	if content == nil {
		return "", errors.New("vault: secret bundle has no content")
	}

	raw, err := base64.StdEncoding.DecodeString(*content)
	if err != nil {
		return "", fmt.Errorf("vault: decode secret: %w", err)
	}
	return string(raw), nil
}

func newSecretsClient(authMode string) (SecretBundleGetter, error) {
	var (
		provider common.ConfigurationProvider
		err      error
	)
	switch authMode {
	case "config":
		provider = common.DefaultConfigProvider()
	case "", "instance_principal":
		provider, err = auth.InstancePrincipalConfigurationProvider()
		if err != nil {
			return nil, fmt.Errorf("vault: instance principal: %w", err)
		}
	default:
		return nil, fmt.Errorf("OCI_AUTH: unknown mode %q", authMode)
	}

	client, err := secrets.NewSecretsClientWithConfigurationProvider(provider)
	if err != nil {
		return nil, fmt.Errorf("vault: create secrets client: %w", err)
	}
	return client, nil
}

// randomSecret returns a URL safe random string for local signing keys.
func randomSecret() (string, error) {
	b := make([]byte, 48)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
