package bitwarden

import (
	"context"
	"testing"
	"time"

	"github.com/grimoirelab/credman"
	"github.com/grimoirelab/credman/internal/testutil"
	"github.com/grimoirelab/credman/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendOptions(t *testing.T) {
	t.Run("NewBackendOptions", func(t *testing.T) {
		opts := NewBackendOptions()
		require.NotZero(t, opts)
		assert.Zero(t, *opts)
	})
	t.Run("SetEmail", func(t *testing.T) {
		opts := NewBackendOptions().SetEmail(testEmail)
		assert.Equal(t, testEmail, opts.Email)
	})
	t.Run("SetPassword", func(t *testing.T) {
		opts := NewBackendOptions().SetPassword(testPassword)
		assert.Equal(t, testPassword, opts.Password)
	})
	t.Run("SetAPIKey", func(t *testing.T) {
		opts := NewBackendOptions().SetAPIKey("client-id", "client-secret")
		assert.Equal(t, "client-id", opts.ClientID)
		assert.Equal(t, "client-secret", opts.ClientSecret)
	})
	t.Run("SetExecutablePath", func(t *testing.T) {
		opts := NewBackendOptions().SetExecutablePath("/usr/local/bin/bw")
		assert.Equal(t, "/usr/local/bin/bw", opts.ExecutablePath)
	})
	t.Run("SetSecretsViaStdin", func(t *testing.T) {
		opts := NewBackendOptions().SetSecretsViaStdin(true)
		assert.True(t, opts.SecretsViaStdin)
	})
	t.Run("SetSyncInterval", func(t *testing.T) {
		opts := NewBackendOptions().SetSyncInterval(time.Minute)
		assert.Equal(t, time.Minute, opts.SyncInterval)
	})
	t.Run("SetRunner", func(t *testing.T) {
		r := &mock.ProcessRunner{}
		opts := NewBackendOptions().SetRunner(r)
		assert.Equal(t, r, opts.Runner)
	})
	t.Run("Validate", func(t *testing.T) {
		t.Run("FailsWithEmpty", func(t *testing.T) {
			assert.Error(t, NewBackendOptions().Validate())
		})
		t.Run("FailsWithoutPassword", func(t *testing.T) {
			opts := NewBackendOptions().SetEmail(testEmail)
			assert.Error(t, opts.Validate())
		})
		t.Run("FailsWithoutEmail", func(t *testing.T) {
			opts := NewBackendOptions().SetPassword(testPassword)
			assert.Error(t, opts.Validate())
		})
		t.Run("FailsWithPartialAPIKey", func(t *testing.T) {
			opts := NewBackendOptions().
				SetEmail(testEmail).
				SetPassword(testPassword).
				SetAPIKey("client-id", "")
			assert.Error(t, opts.Validate())

			opts = NewBackendOptions().
				SetEmail(testEmail).
				SetPassword(testPassword).
				SetAPIKey("", "client-secret")
			assert.Error(t, opts.Validate())
		})
		t.Run("SetsDefaults", func(t *testing.T) {
			opts := NewBackendOptions().
				SetEmail(testEmail).
				SetPassword(testPassword)
			require.NoError(t, opts.Validate())
			assert.Equal(t, defaultExecutable, opts.ExecutablePath)
			assert.Equal(t, defaultSyncInterval, opts.SyncInterval)
			assert.NotNil(t, opts.Runner)
		})
		t.Run("KeepsExplicitValues", func(t *testing.T) {
			r := &mock.ProcessRunner{}
			opts := NewBackendOptions().
				SetEmail(testEmail).
				SetPassword(testPassword).
				SetExecutablePath("/usr/local/bin/bw").
				SetSyncInterval(time.Minute).
				SetRunner(r)
			require.NoError(t, opts.Validate())
			assert.Equal(t, "/usr/local/bin/bw", opts.ExecutablePath)
			assert.Equal(t, time.Minute, opts.SyncInterval)
			assert.Equal(t, r, opts.Runner)
		})
	})
}

func TestBackend(t *testing.T) {
	assert.Implements(t, (*credman.SecretBackend)(nil), &Backend{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// newBackend builds a backend on a scripted runner whose first run is an
	// already-unlocked status, so each fetch starts from an adopted session.
	newBackend := func(t *testing.T, r *mock.ProcessRunner) *Backend {
		r.AppendOutput(testutil.StatusOutput(t, "unlocked", testEmail, "tok123"))
		b, err := NewBackend(*NewBackendOptions().
			SetEmail(testEmail).
			SetPassword(testPassword).
			SetRunner(r))
		require.NoError(t, err)
		return b
	}

	t.Run("NewBackendFailsWithInvalidOptions", func(t *testing.T) {
		b, err := NewBackend(*NewBackendOptions())
		assert.Error(t, err)
		assert.Zero(t, b)
	})
	t.Run("NewBackendSpawnsNoProcess", func(t *testing.T) {
		r := &mock.ProcessRunner{}
		_, err := NewBackend(*NewBackendOptions().
			SetEmail(testEmail).
			SetPassword(testPassword).
			SetRunner(r))
		require.NoError(t, err)
		assert.Zero(t, r.NumRuns())
	})

	t.Run("FetchSecret", func(t *testing.T) {
		t.Run("MatchesItemNameCaseInsensitively", func(t *testing.T) {
			r := &mock.ProcessRunner{}
			b := newBackend(t, r)
			r.AppendOutput(testutil.ItemListOutput(t,
				testutil.BitwardenItem{ID: "id1", Name: "GitHub"},
				testutil.BitwardenItem{ID: "id2", Name: "github-ci"},
			)).AppendOutput(testutil.ItemOutput(t, testutil.BitwardenItem{
				ID:    "id1",
				Name:  "GitHub",
				Login: map[string]string{"username": "octocat", "password": "hunter2"},
			}))

			record, err := b.FetchSecret(ctx, "github")
			require.NoError(t, err)
			assert.Equal(t, "github", record.ServiceName)

			val, ok := record.Field("username")
			assert.True(t, ok)
			assert.Equal(t, "octocat", val)

			gets := r.RunsFor("get")
			require.Len(t, gets, 1)
			assert.Equal(t, []string{"get", "item", "id1", "--session", "tok123"}, gets[0].Args)
			assert.NoError(t, r.AssertExhausted())
		})
		t.Run("FirstListedItemWinsOnDuplicateNames", func(t *testing.T) {
			r := &mock.ProcessRunner{}
			b := newBackend(t, r)
			r.AppendOutput(testutil.ItemListOutput(t,
				testutil.BitwardenItem{ID: "id1", Name: "github"},
				testutil.BitwardenItem{ID: "id2", Name: "GITHUB"},
			)).AppendOutput(testutil.ItemOutput(t, testutil.BitwardenItem{
				ID:   "id1",
				Name: "github",
			}))

			_, err := b.FetchSecret(ctx, "github")
			require.NoError(t, err)

			gets := r.RunsFor("get")
			require.Len(t, gets, 1)
			assert.Equal(t, "id1", gets[0].Args[2])
		})
		t.Run("NoMatchingItemIsSecretNotFound", func(t *testing.T) {
			r := &mock.ProcessRunner{}
			b := newBackend(t, r)
			r.AppendOutput(testutil.ItemListOutput(t,
				testutil.BitwardenItem{ID: "id1", Name: "gitlab"},
			))

			record, err := b.FetchSecret(ctx, "github")
			assert.Zero(t, record)
			assert.True(t, credman.IsSecretNotFoundError(err))
			assert.Empty(t, r.RunsFor("get"))
		})
		t.Run("ListFailureIsToolError", func(t *testing.T) {
			r := &mock.ProcessRunner{}
			b := newBackend(t, r)
			r.AppendOutput(testutil.FailedOutput(1, "vault is locked"))

			record, err := b.FetchSecret(ctx, "github")
			assert.Zero(t, record)
			assert.True(t, credman.IsBackendToolError(err))
		})
		t.Run("UnparseableListIsInvalidFormat", func(t *testing.T) {
			r := &mock.ProcessRunner{}
			b := newBackend(t, r)
			r.AppendOutput(testutil.RawOutput("not json"))

			record, err := b.FetchSecret(ctx, "github")
			assert.Zero(t, record)
			assert.True(t, credman.IsInvalidSecretFormatError(err))
		})
		t.Run("UnparseableItemIsInvalidFormat", func(t *testing.T) {
			r := &mock.ProcessRunner{}
			b := newBackend(t, r)
			r.AppendOutput(testutil.ItemListOutput(t,
				testutil.BitwardenItem{ID: "id1", Name: "github"},
			)).AppendOutput(testutil.RawOutput("not json"))

			record, err := b.FetchSecret(ctx, "github")
			assert.Zero(t, record)
			assert.True(t, credman.IsInvalidSecretFormatError(err))
		})
		t.Run("SessionFailurePropagates", func(t *testing.T) {
			r := &mock.ProcessRunner{}
			r.AppendOutput(testutil.FailedOutput(1, "cannot reach server"))
			b, err := NewBackend(*NewBackendOptions().
				SetEmail(testEmail).
				SetPassword(testPassword).
				SetRunner(r))
			require.NoError(t, err)

			record, err := b.FetchSecret(ctx, "github")
			assert.Zero(t, record)
			assert.True(t, credman.IsBackendToolError(err))
			assert.Empty(t, r.RunsFor("list"))
		})
	})

	t.Run("Normalization", func(t *testing.T) {
		fetch := func(t *testing.T, it testutil.BitwardenItem) *credman.SecretRecord {
			r := &mock.ProcessRunner{}
			b := newBackend(t, r)
			r.AppendOutput(testutil.ItemListOutput(t, it)).
				AppendOutput(testutil.ItemOutput(t, it))

			record, err := b.FetchSecret(ctx, it.Name)
			require.NoError(t, err)
			return record
		}

		t.Run("FlattensLoginAndCustomFields", func(t *testing.T) {
			record := fetch(t, testutil.BitwardenItem{
				ID:    "id1",
				Name:  "github",
				Login: map[string]string{"username": "octocat", "password": "hunter2"},
				Fields: []testutil.BitwardenField{
					{Name: "api_key", Value: "k1"},
				},
			})
			assert.Equal(t, map[string]string{
				"username": "octocat",
				"password": "hunter2",
				"api_key":  "k1",
			}, record.Fields)
		})
		t.Run("OmitsEmptyLoginValues", func(t *testing.T) {
			record := fetch(t, testutil.BitwardenItem{
				ID:    "id1",
				Name:  "github",
				Login: map[string]string{"username": "octocat", "password": ""},
			})
			_, ok := record.Field("password")
			assert.False(t, ok)
		})
		t.Run("CustomFieldOverridesLoginValue", func(t *testing.T) {
			record := fetch(t, testutil.BitwardenItem{
				ID:    "id1",
				Name:  "github",
				Login: map[string]string{"username": "octocat"},
				Fields: []testutil.BitwardenField{
					{Name: "username", Value: "deploy-bot"},
				},
			})
			val, ok := record.Field("username")
			assert.True(t, ok)
			assert.Equal(t, "deploy-bot", val)
		})
		t.Run("LastCustomFieldWinsOnDuplicates", func(t *testing.T) {
			record := fetch(t, testutil.BitwardenItem{
				ID:   "id1",
				Name: "github",
				Fields: []testutil.BitwardenField{
					{Name: "api_key", Value: "old"},
					{Name: "api_key", Value: "new"},
				},
			})
			val, ok := record.Field("api_key")
			assert.True(t, ok)
			assert.Equal(t, "new", val)
		})
		t.Run("ItemWithoutLoginYieldsCustomFieldsOnly", func(t *testing.T) {
			record := fetch(t, testutil.BitwardenItem{
				ID:   "id1",
				Name: "github",
				Fields: []testutil.BitwardenField{
					{Name: "token", Value: "tok"},
				},
			})
			assert.Equal(t, map[string]string{"token": "tok"}, record.Fields)
		})
	})

	t.Run("FetchItemSkipsListing", func(t *testing.T) {
		r := &mock.ProcessRunner{}
		b := newBackend(t, r)
		r.AppendOutput(testutil.ItemOutput(t, testutil.BitwardenItem{
			ID:    "id2",
			Name:  "github-ci",
			Login: map[string]string{"username": "ci-bot"},
		}))

		record, err := b.FetchItem(ctx, "id2")
		require.NoError(t, err)
		assert.Equal(t, "github-ci", record.ServiceName)
		assert.Empty(t, r.RunsFor("list"))
	})

	t.Run("LogoutResetsSession", func(t *testing.T) {
		r := &mock.ProcessRunner{}
		b := newBackend(t, r)
		r.AppendOutput(testutil.ItemListOutput(t, testutil.BitwardenItem{ID: "id1", Name: "github"})).
			AppendOutput(testutil.ItemOutput(t, testutil.BitwardenItem{ID: "id1", Name: "github"})).
			AppendOutput(credman.RunOutput{})

		_, err := b.FetchSecret(ctx, "github")
		require.NoError(t, err)
		require.Equal(t, StateUnlocked, b.Session().State())

		require.NoError(t, b.Logout(ctx))
		assert.Equal(t, StateLoggedOut, b.Session().State())
	})

	t.Run("CloseSpawnsNoProcess", func(t *testing.T) {
		r := &mock.ProcessRunner{}
		b := newBackend(t, r)
		require.NoError(t, b.Close(ctx))
		assert.Empty(t, r.RunsFor("logout"))
	})
}
