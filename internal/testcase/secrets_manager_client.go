package testcase

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/evergreen-ci/utility"
	"github.com/grimoirelab/credman"
	"github.com/grimoirelab/credman/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SecretsManagerClientTestCase represents a test case for a
// credman.SecretsManagerClient.
type SecretsManagerClientTestCase func(ctx context.Context, t *testing.T, c credman.SecretsManagerClient)

// SecretsManagerClientTests returns common test cases that a
// credman.SecretsManagerClient should support.
func SecretsManagerClientTests() map[string]SecretsManagerClientTestCase {
	return map[string]SecretsManagerClientTestCase{
		"CreateSecretSucceeds": func(ctx context.Context, t *testing.T, c credman.SecretsManagerClient) {
			out, err := c.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
				Name:         aws.String(testutil.NewSecretName(t)),
				SecretString: aws.String(utility.RandomString()),
			})
			require.NoError(t, err)
			require.NotZero(t, out)

			testutil.CleanupSecret(ctx, t, c, utility.FromStringPtr(out.ARN))
		},
		"CreateSecretFailsWithInvalidInput": func(ctx context.Context, t *testing.T, c credman.SecretsManagerClient) {
			out, err := c.CreateSecret(ctx, &secretsmanager.CreateSecretInput{})
			assert.Error(t, err)
			assert.Zero(t, out)
		},
		"GetSecretValueSucceedsWithExistingSecret": func(ctx context.Context, t *testing.T, c credman.SecretsManagerClient) {
			secretName := testutil.NewSecretName(t)
			createOut := testutil.CreateSecret(ctx, t, c, secretsmanager.CreateSecretInput{
				Name:         aws.String(secretName),
				SecretString: aws.String("foo"),
			})
			defer testutil.CleanupSecret(ctx, t, c, utility.FromStringPtr(createOut.ARN))

			out, err := c.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
				SecretId: createOut.ARN,
			})
			require.NoError(t, err)
			require.NotZero(t, out)
			assert.Equal(t, "foo", utility.FromStringPtr(out.SecretString))
			assert.Equal(t, secretName, utility.FromStringPtr(out.Name))
		},
		"GetSecretValueFailsWithInvalidInput": func(ctx context.Context, t *testing.T, c credman.SecretsManagerClient) {
			out, err := c.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{})
			assert.Error(t, err)
			assert.Zero(t, out)
		},
		"GetSecretValueFailsWithValidNonexistentSecret": func(ctx context.Context, t *testing.T, c credman.SecretsManagerClient) {
			out, err := c.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
				SecretId: aws.String(testutil.NewSecretName(t)),
			})
			assert.Error(t, err)
			assert.Zero(t, out)
		},
		"DeleteSecretSucceeds": func(ctx context.Context, t *testing.T, c credman.SecretsManagerClient) {
			createOut := testutil.CreateSecret(ctx, t, c, secretsmanager.CreateSecretInput{
				Name:         aws.String(testutil.NewSecretName(t)),
				SecretString: aws.String(utility.RandomString()),
			})

			out, err := c.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
				ForceDeleteWithoutRecovery: utility.TruePtr(),
				SecretId:                   createOut.ARN,
			})
			require.NoError(t, err)
			require.NotZero(t, out)
		},
		"DeleteSecretFailsWithInvalidInput": func(ctx context.Context, t *testing.T, c credman.SecretsManagerClient) {
			out, err := c.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{})
			assert.Error(t, err)
			assert.Zero(t, out)
		},
	}
}
