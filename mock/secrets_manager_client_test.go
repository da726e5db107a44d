package mock

import (
	"context"
	"testing"
	"time"

	"github.com/grimoirelab/credman"
	"github.com/grimoirelab/credman/internal/testcase"
	"github.com/stretchr/testify/assert"
)

func TestSecretsManagerClient(t *testing.T) {
	assert.Implements(t, (*credman.SecretsManagerClient)(nil), &SecretsManagerClient{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for tName, tCase := range testcase.SecretsManagerClientTests() {
		t.Run(tName, func(t *testing.T) {
			tctx, tcancel := context.WithTimeout(ctx, 30*time.Second)
			defer tcancel()

			ResetGlobalSecretCache()

			c := &SecretsManagerClient{}
			defer c.Close(tctx)

			tCase(tctx, t, c)
		})
	}
}
