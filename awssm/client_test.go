package awssm

import (
	"context"
	"testing"
	"time"

	"github.com/grimoirelab/credman"
	"github.com/grimoirelab/credman/awsutil"
	"github.com/grimoirelab/credman/internal/testcase"
	"github.com/grimoirelab/credman/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicSecretsManagerClient(t *testing.T) {
	assert.Implements(t, (*credman.SecretsManagerClient)(nil), &BasicSecretsManagerClient{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Run("NewBasicSecretsManagerClientFailsWithInvalidOptions", func(t *testing.T) {
		c, err := NewBasicSecretsManagerClient(ctx, *awsutil.NewClientOptions())
		assert.Error(t, err)
		assert.Zero(t, c)
	})

	testutil.CheckAWSEnvVarsForSecretsManager(t)

	c, err := NewBasicSecretsManagerClient(ctx, testutil.ValidIntegrationAWSOptions())
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, c.Close(ctx))
	}()

	for tName, tCase := range testcase.SecretsManagerClientTests() {
		t.Run(tName, func(t *testing.T) {
			tctx, tcancel := context.WithTimeout(ctx, 30*time.Second)
			defer tcancel()

			tCase(tctx, t, c)
		})
	}
}
