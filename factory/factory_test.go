package factory

import (
	"context"
	"testing"

	"github.com/grimoirelab/credman"
	"github.com/grimoirelab/credman/awsutil"
	"github.com/grimoirelab/credman/bitwarden"
	"github.com/grimoirelab/credman/hcvault"
	"github.com/grimoirelab/credman/internal/testutil"
	"github.com/grimoirelab/credman/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	t.Run("NewOptions", func(t *testing.T) {
		opts := NewOptions()
		require.NotZero(t, opts)
		assert.Zero(t, *opts)
	})
	t.Run("SetBackend", func(t *testing.T) {
		opts := NewOptions().SetBackend(credman.BackendAWS)
		assert.Equal(t, credman.BackendAWS, opts.Backend)
	})
	t.Run("SetAWS", func(t *testing.T) {
		awsOpts := awsutil.NewClientOptions()
		opts := NewOptions().SetAWS(awsOpts)
		assert.Equal(t, awsOpts, opts.AWS)
	})
	t.Run("SetHashicorp", func(t *testing.T) {
		vaultOpts := hcvault.NewBackendOptions()
		opts := NewOptions().SetHashicorp(vaultOpts)
		assert.Equal(t, vaultOpts, opts.Hashicorp)
	})
	t.Run("SetBitwarden", func(t *testing.T) {
		bwOpts := bitwarden.NewBackendOptions()
		opts := NewOptions().SetBitwarden(bwOpts)
		assert.Equal(t, bwOpts, opts.Bitwarden)
	})
	t.Run("Validate", func(t *testing.T) {
		t.Run("FailsWithEmpty", func(t *testing.T) {
			assert.Error(t, NewOptions().Validate())
		})
		t.Run("FailsWithUnsupportedBackend", func(t *testing.T) {
			opts := NewOptions().SetBackend("unsupported")
			assert.Error(t, opts.Validate())
		})
		t.Run("FailsWithoutMatchingConfiguration", func(t *testing.T) {
			assert.Error(t, NewOptions().SetBackend(credman.BackendAWS).Validate())
			assert.Error(t, NewOptions().SetBackend(credman.BackendHashicorp).Validate())
			assert.Error(t, NewOptions().SetBackend(credman.BackendBitwarden).Validate())
		})
		t.Run("IgnoresConfigurationForOtherBackends", func(t *testing.T) {
			opts := NewOptions().
				SetBackend(credman.BackendBitwarden).
				SetBitwarden(bitwarden.NewBackendOptions())
			assert.NoError(t, opts.Validate())
		})
		t.Run("SucceedsPerBackend", func(t *testing.T) {
			assert.NoError(t, NewOptions().
				SetBackend(credman.BackendAWS).
				SetAWS(awsutil.NewClientOptions()).
				Validate())
			assert.NoError(t, NewOptions().
				SetBackend(credman.BackendHashicorp).
				SetHashicorp(hcvault.NewBackendOptions()).
				Validate())
		})
	})
}

func TestNewManager(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Run("FailsWithInvalidOptions", func(t *testing.T) {
		m, err := NewManager(ctx, *NewOptions())
		assert.Error(t, err)
		assert.Zero(t, m)
	})
	t.Run("FailsWithInvalidBackendConfiguration", func(t *testing.T) {
		m, err := NewManager(ctx, *NewOptions().
			SetBackend(credman.BackendBitwarden).
			SetBitwarden(bitwarden.NewBackendOptions()))
		assert.Error(t, err)
		assert.Zero(t, m)
	})
	t.Run("ConstructsBitwardenManager", func(t *testing.T) {
		runner := &mock.ProcessRunner{}
		bwOpts := bitwarden.NewBackendOptions().
			SetEmail("user@example.com").
			SetPassword("hunter2").
			SetRunner(runner)

		m, err := NewManager(ctx, *NewOptions().
			SetBackend(credman.BackendBitwarden).
			SetBitwarden(bwOpts))
		require.NoError(t, err)
		require.NotZero(t, m)

		// Construction must not authenticate yet.
		assert.Zero(t, runner.NumRuns())
	})
	t.Run("ConstructsAWSManager", func(t *testing.T) {
		awsOpts := testutil.ValidNonIntegrationAWSOptions()
		m, err := NewManager(ctx, *NewOptions().
			SetBackend(credman.BackendAWS).
			SetAWS(&awsOpts))
		require.NoError(t, err)
		assert.NotZero(t, m)
	})
}
