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

// State is the authentication state of the session manager.
type State string

const (
	// StateLoggedOut is the initial state: no authentication has been
	// attempted yet.
	StateLoggedOut State = "logged-out"
	// StateAuthenticating means a login or unlock transition is in
	// progress.
	StateAuthenticating State = "authenticating"
	// StateLocked means the account is authenticated but the vault is
	// locked, so no session token is available yet.
	StateLocked State = "locked"
	// StateUnlocked means the vault is unlocked and the session holds a
	// valid token.
	StateUnlocked State = "unlocked"
	// StateError is terminal: authentication failed unrecoverably and the
	// manager must be reconstructed to retry.
	StateError State = "error"
)

// Session is an authenticated, time-bounded handle against the bw tool,
// represented by an opaque token. The token is non-empty if and only if the
// state machine is unlocked.
type Session struct {
	// Token is the opaque session key passed to every --session
	// invocation.
	Token string
	// Email is the identity owning the session.
	Email string
	// EstablishedAt is when the session was established.
	EstablishedAt time.Time
	// LastSyncAt is when the vault was last synced, zero if never.
	LastSyncAt time.Time
}

// toolStatus is the JSON document reported by the status subcommand.
type toolStatus struct {
	Status     string `json:"status"`
	UserEmail  string `json:"userEmail"`
	SessionKey string `json:"sessionKey"`
}

// SessionManager owns the authentication state against the bw tool. The
// tool's state is externally mutable: a human or another process can lock,
// unlock, or log out of the vault out of band, so every use reconfirms the
// live status instead of trusting a cached token indefinitely.
//
// All session mutations happen through named transitions
// (login/unlock/adopt/sync/logout); nothing else writes the session.
type SessionManager struct {
	runner          credman.ProcessRunner
	execPath        string
	email           string
	password        string
	clientID        string
	clientSecret    string
	secretsViaStdin bool
	syncInterval    time.Duration

	state   State
	session Session
}

// NewSessionManager creates a session manager from validated backend
// options.
func NewSessionManager(opts BackendOptions) *SessionManager {
	return &SessionManager{
		runner:          opts.Runner,
		execPath:        opts.ExecutablePath,
		email:           opts.Email,
		password:        opts.Password,
		clientID:        opts.ClientID,
		clientSecret:    opts.ClientSecret,
		secretsViaStdin: opts.SecretsViaStdin,
		syncInterval:    opts.SyncInterval,
		state:           StateLoggedOut,
	}
}

// State returns the current state of the session machine.
func (m *SessionManager) State() State {
	return m.state
}

// Session returns a copy of the current session value.
func (m *SessionManager) Session() Session {
	return m.session
}

// EnsureSession returns a valid session token, authenticating or unlocking
// the vault as necessary. When the current session is still valid it may
// trigger an advisory vault sync; a sync failure never changes state nor
// fails the caller.
func (m *SessionManager) EnsureSession(ctx context.Context) (string, error) {
	if m.state == StateError {
		return "", credman.NewSessionNotFoundError("session is in an unrecoverable error state")
	}

	if m.state == StateUnlocked && m.validateSession(ctx) {
		m.maybeSync(ctx)
		return m.session.Token, nil
	}

	return m.authenticate(ctx)
}

// authenticate drives the state machine from the live tool status to an
// unlocked session.
func (m *SessionManager) authenticate(ctx context.Context) (string, error) {
	m.state = StateAuthenticating

	status, err := m.status(ctx)
	if err != nil {
		m.state = StateError
		return "", err
	}

	var token string
	switch {
	case !strings.EqualFold(status.UserEmail, m.email):
		token, err = m.login(ctx)
	case status.Status == "unlocked":
		// The tool already holds an unlocked session for the configured
		// identity, so adopt its token without re-authenticating.
		grip.Debug(message.Fields{
			"message": "adopting existing session",
			"email":   m.email,
		})
		token = strings.TrimSpace(status.SessionKey)
	default:
		token, err = m.unlock(ctx)
	}
	if err != nil {
		m.state = StateError
		return "", err
	}

	if token == "" {
		m.state = StateError
		return "", credman.NewSessionNotFoundError("could not obtain a session key during login")
	}

	m.state = StateUnlocked
	m.session = Session{
		Token:         token,
		Email:         m.email,
		EstablishedAt: time.Now(),
	}

	m.maybeSync(ctx)

	return token, nil
}

// status queries the live tool status.
func (m *SessionManager) status(ctx context.Context) (toolStatus, error) {
	out, err := m.run(ctx, credman.RunOptions{
		Path: m.execPath,
		Args: []string{"status"},
	})
	if err != nil {
		return toolStatus{}, err
	}
	if out.ExitCode != 0 {
		return toolStatus{}, credman.NewBackendToolError("status", strings.TrimSpace(out.Stderr))
	}

	var status toolStatus
	if err := json.Unmarshal([]byte(out.Stdout), &status); err != nil {
		return toolStatus{}, credman.NewInvalidSecretFormatError(errors.Wrap(err, "parsing status output").Error())
	}

	return status, nil
}

// login authenticates the configured identity and returns the session
// token. With an API key configured it logs in with the key and then
// unlocks, since an API key login does not unlock the vault.
func (m *SessionManager) login(ctx context.Context) (string, error) {
	grip.Debug(message.Fields{
		"message": "logging in",
		"email":   m.email,
		"api_key": m.clientID != "",
	})

	opts := credman.RunOptions{Path: m.execPath}
	if m.clientID != "" {
		opts.Args = []string{"login", "--apikey"}
		opts.Env = []string{
			"BW_CLIENTID=" + m.clientID,
			"BW_CLIENTSECRET=" + m.clientSecret,
		}
	} else if m.secretsViaStdin {
		opts.Args = []string{"login", m.email, "--raw"}
		opts.Stdin = []byte(m.password)
	} else {
		opts.Args = []string{"login", m.email, m.password, "--raw"}
	}

	out, err := m.run(ctx, opts)
	if err != nil {
		return "", err
	}
	if out.ExitCode != 0 {
		return "", classifyAuthFailure("login", out.Stderr)
	}

	if m.clientID != "" {
		m.state = StateLocked
		return m.unlock(ctx)
	}

	token := strings.TrimSpace(out.Stdout)
	if token == "" {
		return "", credman.NewBackendToolError("login", "empty session key received from login command")
	}

	return token, nil
}

// unlock unlocks the vault with the master password and returns the
// session token.
func (m *SessionManager) unlock(ctx context.Context) (string, error) {
	grip.Debug(message.Fields{
		"message": "unlocking vault",
		"email":   m.email,
	})

	opts := credman.RunOptions{Path: m.execPath}
	if m.secretsViaStdin {
		opts.Args = []string{"unlock", "--raw"}
		opts.Stdin = []byte(m.password)
	} else {
		opts.Args = []string{"unlock", m.password, "--raw"}
	}

	out, err := m.run(ctx, opts)
	if err != nil {
		return "", err
	}
	if out.ExitCode != 0 {
		return "", classifyAuthFailure("unlock", out.Stderr)
	}

	// A zero exit with a blank token is a distinct tool failure, not an
	// authentication failure.
	token := strings.TrimSpace(out.Stdout)
	if token == "" {
		return "", credman.NewBackendToolError("unlock", "empty session key received from unlock command")
	}

	return token, nil
}

// validateSession reports whether the held session is still valid: the
// live status must be unlocked, owned by the configured identity, and
// reporting the same token held locally. Any mismatch forces
// re-authentication. The check itself never mutates state.
func (m *SessionManager) validateSession(ctx context.Context) bool {
	status, err := m.status(ctx)
	if err != nil {
		grip.Debug(message.WrapError(err, message.Fields{
			"message": "session validation failed",
		}))
		return false
	}

	return status.Status == "unlocked" &&
		strings.EqualFold(status.UserEmail, m.session.Email) &&
		status.SessionKey == m.session.Token
}

// shouldSync reports whether enough time has elapsed since the last sync
// (or since the session was established, if never synced).
func (m *SessionManager) shouldSync() bool {
	last := m.session.LastSyncAt
	if last.IsZero() {
		last = m.session.EstablishedAt
	}
	return time.Since(last) > m.syncInterval
}

// maybeSync issues a best-effort vault sync when the sync interval has
// elapsed. Sync is advisory: it refreshes the tool's local data cache but
// is not required for subsequent reads to be correct, so failures are
// logged and swallowed.
func (m *SessionManager) maybeSync(ctx context.Context) {
	if !m.shouldSync() {
		return
	}

	out, err := m.run(ctx, credman.RunOptions{
		Path: m.execPath,
		Args: []string{"sync", "--session", m.session.Token},
	})
	if err != nil || out.ExitCode != 0 {
		grip.Debug(message.WrapError(err, message.Fields{
			"message":   "vault sync failed, continuing",
			"exit_code": out.ExitCode,
			"stderr":    strings.TrimSpace(out.Stderr),
		}))
		return
	}

	m.session.LastSyncAt = time.Now()
}

// Logout logs the identity out of the tool and resets the machine to its
// initial state. The tool's exit code is ignored: a failed logout leaves
// nothing worth keeping.
func (m *SessionManager) Logout(ctx context.Context) error {
	_, err := m.run(ctx, credman.RunOptions{
		Path: m.execPath,
		Args: []string{"logout"},
	})

	m.session = Session{}
	m.state = StateLoggedOut

	return errors.Wrap(err, "running logout")
}

func (m *SessionManager) run(ctx context.Context, opts credman.RunOptions) (credman.RunOutput, error) {
	out, err := m.runner.Run(ctx, opts)
	if err != nil {
		return credman.RunOutput{}, errors.Wrap(credman.NewBackendToolError(subcommand(opts.Args), err.Error()), "invoking tool")
	}
	return out, nil
}

func subcommand(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// classifyAuthFailure distinguishes rejected credentials from structural
// tool failures on a non-zero exit.
func classifyAuthFailure(op, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if strings.Contains(strings.ToLower(stderr), "invalid_grant") {
		return credman.NewInvalidCredentialsError(credman.BackendBitwarden)
	}
	return credman.NewBackendToolError(op, stderr)
}
