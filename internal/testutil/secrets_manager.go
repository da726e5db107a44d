package testutil

import (
	"context"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/evergreen-ci/utility"
	"github.com/grimoirelab/credman"
	"github.com/stretchr/testify/require"
)

const projectName = "credman"

// NewSecretName creates a new test secret name with a common prefix, the given
// test's name, and a random string.
func NewSecretName(t *testing.T) string {
	return path.Join(secretName(t), utility.RandomString())
}

func secretName(t *testing.T) string {
	return path.Join(strings.TrimSuffix(SecretPrefix(), "/"), projectName, runtimeNamespace, t.Name())
}

// SecretPrefix returns the prefix name for secrets from the environment
// variable.
func SecretPrefix() string {
	return os.Getenv("AWS_SECRET_PREFIX")
}

// CreateSecret is a convenience function for creating a Secrets Manager secret
// and verifying that the result is successful and populates the secret ARN.
func CreateSecret(ctx context.Context, t *testing.T, c credman.SecretsManagerClient, in secretsmanager.CreateSecretInput) secretsmanager.CreateSecretOutput {
	out, err := c.CreateSecret(ctx, &in)
	require.NoError(t, err)
	require.NotZero(t, out)
	require.NotZero(t, out.ARN)
	return *out
}

// CleanupSecret is a convenience function for deleting a Secrets Manager
// secret created within a test.
func CleanupSecret(ctx context.Context, t *testing.T, c credman.SecretsManagerClient, id string) {
	if id == "" {
		return
	}
	_, err := c.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		ForceDeleteWithoutRecovery: utility.TruePtr(),
		SecretId:                   &id,
	})
	require.NoError(t, err)
}
