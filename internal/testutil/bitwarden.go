package testutil

import (
	"encoding/json"
	"testing"

	"github.com/grimoirelab/credman"
	"github.com/stretchr/testify/require"
)

// StatusOutput builds the stdout of a successful status invocation of the
// Bitwarden tool.
func StatusOutput(t *testing.T, status, userEmail, sessionKey string) credman.RunOutput {
	doc := map[string]string{
		"status":    status,
		"userEmail": userEmail,
	}
	if sessionKey != "" {
		doc["sessionKey"] = sessionKey
	}
	return JSONOutput(t, doc)
}

// BitwardenItem is the test shape of one Bitwarden vault item.
type BitwardenItem struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Login  map[string]string `json:"login,omitempty"`
	Fields []BitwardenField  `json:"fields,omitempty"`
}

// BitwardenField is one custom field of a test vault item.
type BitwardenField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ItemOutput builds the stdout of a successful get item invocation.
func ItemOutput(t *testing.T, item BitwardenItem) credman.RunOutput {
	return JSONOutput(t, item)
}

// ItemListOutput builds the stdout of a successful list items invocation.
func ItemListOutput(t *testing.T, items ...BitwardenItem) credman.RunOutput {
	return JSONOutput(t, items)
}

// JSONOutput builds a zero-exit run output whose stdout is the JSON
// encoding of the given document.
func JSONOutput(t *testing.T, doc interface{}) credman.RunOutput {
	encoded, err := json.Marshal(doc)
	require.NoError(t, err)
	return credman.RunOutput{Stdout: string(encoded)}
}

// RawOutput builds a zero-exit run output with the given raw stdout.
func RawOutput(stdout string) credman.RunOutput {
	return credman.RunOutput{Stdout: stdout}
}

// FailedOutput builds a non-zero-exit run output with the given stderr.
func FailedOutput(exitCode int, stderr string) credman.RunOutput {
	return credman.RunOutput{ExitCode: exitCode, Stderr: stderr}
}
