package bitwarden

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/grimoirelab/credman"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const (
	defaultExecutable   = "bw"
	defaultSyncInterval = 3 * time.Minute
)

// BackendOptions are options to create a Bitwarden secret backend.
type BackendOptions struct {
	// Email is the account email owning the vault.
	Email string
	// Password is the master password used to log in and unlock the
	// vault.
	Password string
	// ClientID and ClientSecret form an optional API key. When set, login
	// uses the API key (passed to the tool through its environment) and
	// the master password is only used to unlock.
	ClientID     string
	ClientSecret string
	// ExecutablePath is the path of the bw executable. Defaults to "bw",
	// resolved against PATH.
	ExecutablePath string
	// SecretsViaStdin pipes the master password to login and unlock over
	// stdin instead of passing it as an argument, keeping it out of the
	// process table.
	SecretsViaStdin bool
	// SyncInterval is the minimum time between advisory vault syncs.
	// Defaults to 3 minutes.
	SyncInterval time.Duration
	// Runner executes the tool's processes. Defaults to a real process
	// runner.
	Runner credman.ProcessRunner
}

// NewBackendOptions returns new unconfigured backend options.
func NewBackendOptions() *BackendOptions {
	return &BackendOptions{}
}

// SetEmail sets the account email.
func (o *BackendOptions) SetEmail(email string) *BackendOptions {
	o.Email = email
	return o
}

// SetPassword sets the master password.
func (o *BackendOptions) SetPassword(password string) *BackendOptions {
	o.Password = password
	return o
}

// SetAPIKey sets the API key client id and secret.
func (o *BackendOptions) SetAPIKey(clientID, clientSecret string) *BackendOptions {
	o.ClientID = clientID
	o.ClientSecret = clientSecret
	return o
}

// SetExecutablePath sets the path of the bw executable.
func (o *BackendOptions) SetExecutablePath(path string) *BackendOptions {
	o.ExecutablePath = path
	return o
}

// SetSecretsViaStdin makes login and unlock pipe the master password over
// stdin.
func (o *BackendOptions) SetSecretsViaStdin(viaStdin bool) *BackendOptions {
	o.SecretsViaStdin = viaStdin
	return o
}

// SetSyncInterval sets the minimum time between advisory vault syncs.
func (o *BackendOptions) SetSyncInterval(interval time.Duration) *BackendOptions {
	o.SyncInterval = interval
	return o
}

// SetRunner sets the process runner used to invoke the tool.
func (o *BackendOptions) SetRunner(r credman.ProcessRunner) *BackendOptions {
	o.Runner = r
	return o
}

// Validate checks that the required fields are given and sets defaults for
// unspecified options.
func (o *BackendOptions) Validate() error {
	catcher := grip.NewBasicCatcher()
	catcher.NewWhen(o.Email == "", "must provide the account email")
	catcher.NewWhen(o.Password == "", "must provide the master password")
	catcher.NewWhen(o.ClientID == "" && o.ClientSecret != "", "must provide a client id with the client secret")
	catcher.NewWhen(o.ClientID != "" && o.ClientSecret == "", "must provide a client secret with the client id")

	if catcher.HasErrors() {
		return catcher.Resolve()
	}

	if o.ExecutablePath == "" {
		o.ExecutablePath = defaultExecutable
	}
	if o.SyncInterval <= 0 {
		o.SyncInterval = defaultSyncInterval
	}
	if o.Runner == nil {
		o.Runner = credman.NewBasicProcessRunner()
	}

	return nil
}

// Backend provides a credman.SecretBackend implementation backed by a
// Bitwarden vault driven through the bw command-line tool. The tool is the
// only API: every operation is a process invocation, and a session manager
// keeps those invocations authenticated.
type Backend struct {
	runner   credman.ProcessRunner
	execPath string
	session  *SessionManager
}

// NewBackend creates a new Bitwarden secret backend from the given
// options. Construction does not spawn any process; authentication happens
// lazily on first fetch.
func NewBackend(opts BackendOptions) (*Backend, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid options")
	}

	return &Backend{
		runner:   opts.Runner,
		execPath: opts.ExecutablePath,
		session:  NewSessionManager(opts),
	}, nil
}

// Session returns the backend's session manager.
func (b *Backend) Session() *SessionManager {
	return b.session
}

// item is the JSON shape of a vault item as printed by the tool.
type item struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Login *struct {
		Username string `json:"username"`
		Password string `json:"password"`
	} `json:"login"`
	Fields []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"fields"`
}

// FetchSecret retrieves the vault item whose name matches the service name
// and normalizes it into a SecretRecord. Matching is an exact,
// case-insensitive comparison against the item listing; when several items
// carry the same name the first listed wins.
func (b *Backend) FetchSecret(ctx context.Context, serviceName string) (*credman.SecretRecord, error) {
	grip.Debug(message.Fields{
		"message": "retrieving secret",
		"backend": credman.BackendBitwarden,
		"service": serviceName,
	})

	token, err := b.session.EnsureSession(ctx)
	if err != nil {
		return nil, err
	}

	items, err := b.listItems(ctx, token)
	if err != nil {
		return nil, err
	}

	match, found := findItem(items, serviceName)
	if !found {
		return nil, credman.NewSecretNotFoundError(serviceName)
	}

	return b.fetchItem(ctx, token, match.ID)
}

// FetchItem retrieves a vault item directly by its internal id, for
// callers that already know it, skipping the listing round trip.
func (b *Backend) FetchItem(ctx context.Context, itemID string) (*credman.SecretRecord, error) {
	token, err := b.session.EnsureSession(ctx)
	if err != nil {
		return nil, err
	}

	return b.fetchItem(ctx, token, itemID)
}

func (b *Backend) listItems(ctx context.Context, token string) ([]item, error) {
	out, err := b.run(ctx, "list", []string{"list", "items", "--session", token})
	if err != nil {
		return nil, err
	}

	var items []item
	if err := json.Unmarshal([]byte(out.Stdout), &items); err != nil {
		return nil, credman.NewInvalidSecretFormatError(errors.Wrap(err, "parsing item listing").Error())
	}

	return items, nil
}

func (b *Backend) fetchItem(ctx context.Context, token, itemID string) (*credman.SecretRecord, error) {
	out, err := b.run(ctx, "get", []string{"get", "item", itemID, "--session", token})
	if err != nil {
		return nil, err
	}

	var it item
	if err := json.Unmarshal([]byte(out.Stdout), &it); err != nil {
		return nil, credman.NewInvalidSecretFormatError(errors.Wrap(err, "parsing item").Error())
	}

	return normalizeItem(it), nil
}

// run invokes a tool subcommand that must succeed with parseable output: a
// non-zero exit is a tool error carrying stderr.
func (b *Backend) run(ctx context.Context, op string, args []string) (credman.RunOutput, error) {
	out, err := b.runner.Run(ctx, credman.RunOptions{
		Path: b.execPath,
		Args: args,
	})
	if err != nil {
		return credman.RunOutput{}, errors.Wrap(credman.NewBackendToolError(op, err.Error()), "invoking tool")
	}
	if out.ExitCode != 0 {
		return credman.RunOutput{}, credman.NewBackendToolError(op, strings.TrimSpace(out.Stderr))
	}

	return out, nil
}

// findItem selects the first item whose name matches the service name
// case-insensitively.
func findItem(items []item, serviceName string) (item, bool) {
	for _, it := range items {
		if strings.EqualFold(it.Name, serviceName) {
			return it, true
		}
	}
	return item{}, false
}

// normalizeItem flattens a vault item into a SecretRecord: username and
// password come from the login sub-object when present, and each custom
// field becomes an entry under its own name, last write winning on
// collisions.
func normalizeItem(it item) *credman.SecretRecord {
	fields := map[string]string{}

	if it.Login != nil {
		if it.Login.Username != "" {
			fields["username"] = it.Login.Username
		}
		if it.Login.Password != "" {
			fields["password"] = it.Login.Password
		}
	}

	for _, f := range it.Fields {
		fields[f.Name] = f.Value
	}

	return credman.NewSecretRecord(it.Name, fields)
}

// Logout logs the account out of the tool and resets the session.
func (b *Backend) Logout(ctx context.Context) error {
	return b.session.Logout(ctx)
}

// Close closes the backend without logging the account out; the tool keeps
// its own persisted session.
func (b *Backend) Close(ctx context.Context) error {
	return nil
}
