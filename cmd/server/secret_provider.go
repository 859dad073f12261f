package main

import (
	"context"
	"fmt"
	"time"

	"github.com/kevin07696/ixopay-gateway/internal/adapters/ports"
	"github.com/kevin07696/ixopay-gateway/internal/adapters/secrets"
	"github.com/kevin07696/ixopay-gateway/internal/config"
	"github.com/kevin07696/ixopay-gateway/pkg/resilience"
	"go.uber.org/zap"
)

// initSecretProvider returns the provider selected by SECRET_BACKEND.
// The env backend needs none: credentials are already in the config.
//
// Supports:
//   - local: files under SECRET_LOCAL_PATH (development)
//   - aws:   AWS Secrets Manager in AWS_REGION
//   - vault: HashiCorp Vault KV at VAULT_ADDR, token or AppRole auth
func initSecretProvider(ctx context.Context, cfg config.SecretsConfig, logger *zap.Logger) (ports.SecretProvider, error) {
	switch cfg.Backend {
	case "env":
		return nil, nil

	case "local":
		logger.Warn("Using local file secrets - NOT for production use!",
			zap.String("base_path", cfg.LocalBasePath),
		)
		return secrets.NewLocalSecretProvider(cfg.LocalBasePath, logger), nil

	case "aws":
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.AWSRegion)
		awsCfg.Profile = cfg.AWSProfile
		awsCfg.Endpoint = cfg.AWSEndpoint

		provider, err := secrets.NewAWSSecretsProvider(ctx, awsCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize AWS Secrets Manager: %w", err)
		}
		logger.Info("AWS Secrets Manager initialized",
			zap.String("region", cfg.AWSRegion),
		)
		return provider, nil

	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.VaultAddress)
		vaultCfg.Token = cfg.VaultToken
		vaultCfg.RoleID = cfg.VaultRoleID
		vaultCfg.SecretID = cfg.VaultSecretID
		vaultCfg.MountPath = cfg.VaultMountPath
		if cfg.VaultRoleID != "" {
			vaultCfg.AuthMethod = "approle"
		}

		provider, err := secrets.NewVaultProvider(ctx, vaultCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize Vault: %w", err)
		}
		logger.Info("Vault secret provider initialized",
			zap.String("address", cfg.VaultAddress),
			zap.String("mount_path", cfg.VaultMountPath),
		)
		return provider, nil

	default:
		return nil, fmt.Errorf("unknown secret backend %q", cfg.Backend)
	}
}

// resolveCredentials loads the gateway secrets through the configured backend,
// retrying while the secret store is unreachable
func resolveCredentials(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	provider, err := initSecretProvider(ctx, cfg.Secrets, logger)
	if err != nil {
		return err
	}
	if provider == nil {
		return nil
	}

	attempt := 0
	return resilience.Retry(ctx, 4, resilience.StartupBackoff(), func(ctx context.Context) error {
		attempt++
		err := cfg.ResolveSecrets(ctx, provider)
		if err != nil {
			logger.Warn("Resolving gateway credentials failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return err
	})
}
