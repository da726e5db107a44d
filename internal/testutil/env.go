package testutil

import (
	"fmt"
	"os"
	"testing"
)

// CheckAWSEnvVarsForSecretsManager checks that the required environment
// variables are defined for testing against Secrets Manager.
func CheckAWSEnvVarsForSecretsManager(t *testing.T) {
	CheckEnvVars(t,
		"AWS_ACCESS_KEY_ID",
		"AWS_SECRET_ACCESS_KEY",
		"AWS_SECRET_PREFIX",
		"AWS_REGION",
	)
}

// CheckVaultEnvVars checks that the required environment variables are
// defined for testing against a live Vault server.
func CheckVaultEnvVars(t *testing.T) {
	CheckEnvVars(t,
		"VAULT_TEST_ADDR",
		"VAULT_TEST_TOKEN",
	)
}

// CheckEnvVars checks that the required environment variables are set.
func CheckEnvVars(t *testing.T, envVars ...string) {
	var missing []string

	for _, envVar := range envVars {
		if os.Getenv(envVar) == "" {
			missing = append(missing, envVar)
		}
	}

	if len(missing) > 0 {
		t.Skip(fmt.Sprintf("missing required environment variables: %s", missing))
	}
}
