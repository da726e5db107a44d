package mock

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/evergreen-ci/utility"
)

// StoredSecret is a representation of a secret kept in the global secret
// storage cache.
type StoredSecret struct {
	// For the sake of simplicity, the secret ARN is synonymous with the
	// secret name.
	Name         string
	Value        string
	IsDeleted    bool
	Created      time.Time
	LastAccessed time.Time
	Deleted      time.Time
}

// GlobalSecretCache is a global secret storage cache that provides a
// simplified in-memory implementation of a secrets storage service. This
// can be used indirectly with the SecretsManagerClient to access and modify
// secrets, or used directly.
var GlobalSecretCache map[string]StoredSecret

func init() {
	ResetGlobalSecretCache()
}

// ResetGlobalSecretCache resets the global fake secret storage cache to an
// initialized but clean state.
func ResetGlobalSecretCache() {
	GlobalSecretCache = map[string]StoredSecret{}
}

// SecretsManagerClient provides a mock implementation of a
// credman.SecretsManagerClient. This makes it possible to introspect on
// inputs to the client and control the client's output. It provides some
// default implementations where possible. By default, it will issue the API
// calls to the fake GlobalSecretCache.
type SecretsManagerClient struct {
	GetSecretValueInput  *secretsmanager.GetSecretValueInput
	GetSecretValueOutput *secretsmanager.GetSecretValueOutput
	GetSecretValueError  error
	GetSecretValueCalls  int

	CreateSecretInput  *secretsmanager.CreateSecretInput
	CreateSecretOutput *secretsmanager.CreateSecretOutput
	CreateSecretError  error

	DeleteSecretInput  *secretsmanager.DeleteSecretInput
	DeleteSecretOutput *secretsmanager.DeleteSecretOutput
	DeleteSecretError  error

	CloseError error
}

// GetSecretValue saves the input options and returns an existing mock
// secret's value. The mock output can be customized. By default, it will
// return a cached mock secret if it exists in the global secret cache.
func (c *SecretsManagerClient) GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
	c.GetSecretValueInput = in
	c.GetSecretValueCalls++

	if c.GetSecretValueOutput != nil || c.GetSecretValueError != nil {
		return c.GetSecretValueOutput, c.GetSecretValueError
	}

	if in.SecretId == nil {
		return nil, &types.InvalidParameterException{Message: utility.ToStringPtr("missing secret ID")}
	}

	id := utility.FromStringPtr(in.SecretId)
	s, ok := GlobalSecretCache[id]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: utility.ToStringPtr("secret not found")}
	}
	if s.IsDeleted {
		return nil, &types.InvalidRequestException{Message: utility.ToStringPtr("secret is deleted")}
	}

	s.LastAccessed = time.Now()
	GlobalSecretCache[id] = s

	return &secretsmanager.GetSecretValueOutput{
		ARN:          utility.ToStringPtr(s.Name),
		Name:         utility.ToStringPtr(s.Name),
		SecretString: utility.ToStringPtr(s.Value),
		CreatedDate:  utility.ToTimePtr(s.Created),
	}, nil
}

// CreateSecret saves the input options and returns a new mock secret. The
// mock output can be customized. By default, it will create and save a
// cached mock secret based on the input in the global secret cache.
func (c *SecretsManagerClient) CreateSecret(ctx context.Context, in *secretsmanager.CreateSecretInput) (*secretsmanager.CreateSecretOutput, error) {
	c.CreateSecretInput = in

	if c.CreateSecretOutput != nil || c.CreateSecretError != nil {
		return c.CreateSecretOutput, c.CreateSecretError
	}

	if in.Name == nil {
		return nil, &types.InvalidParameterException{Message: utility.ToStringPtr("missing secret name")}
	}
	if in.SecretString == nil {
		return nil, &types.InvalidParameterException{Message: utility.ToStringPtr("missing secret string")}
	}

	name := utility.FromStringPtr(in.Name)
	if s, ok := GlobalSecretCache[name]; ok && !s.IsDeleted {
		return nil, &types.ResourceExistsException{Message: utility.ToStringPtr("secret already exists")}
	}

	GlobalSecretCache[name] = StoredSecret{
		Name:         name,
		Value:        utility.FromStringPtr(in.SecretString),
		Created:      time.Now(),
		LastAccessed: time.Now(),
	}

	return &secretsmanager.CreateSecretOutput{
		ARN:  utility.ToStringPtr(name),
		Name: utility.ToStringPtr(name),
	}, nil
}

// DeleteSecret saves the input options and deletes an existing mock secret.
// The mock output can be customized. By default, it will mark the cached
// mock secret as deleted in the global secret cache.
func (c *SecretsManagerClient) DeleteSecret(ctx context.Context, in *secretsmanager.DeleteSecretInput) (*secretsmanager.DeleteSecretOutput, error) {
	c.DeleteSecretInput = in

	if c.DeleteSecretOutput != nil || c.DeleteSecretError != nil {
		return c.DeleteSecretOutput, c.DeleteSecretError
	}

	if in.SecretId == nil {
		return nil, &types.InvalidParameterException{Message: utility.ToStringPtr("missing secret ID")}
	}

	id := utility.FromStringPtr(in.SecretId)
	s, ok := GlobalSecretCache[id]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: utility.ToStringPtr("secret not found")}
	}

	s.IsDeleted = true
	s.Deleted = time.Now()
	GlobalSecretCache[id] = s

	return &secretsmanager.DeleteSecretOutput{
		ARN:  utility.ToStringPtr(s.Name),
		Name: utility.ToStringPtr(s.Name),
	}, nil
}

// Close closes the mock client. The mock output can be customized. By
// default, it is a no-op that returns no error.
func (c *SecretsManagerClient) Close(ctx context.Context) error {
	return c.CloseError
}
