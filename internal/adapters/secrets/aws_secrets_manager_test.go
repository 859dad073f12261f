package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSecretsManager struct {
	values map[string]string
	calls  int
	err    error
}

func (f *fakeSecretsManager) GetSecretValue(_ context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	id := aws.ToString(params.SecretId)
	value, ok := f.values[id]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{
		ARN:          aws.String("arn:aws:secretsmanager:eu-central-1:123:secret:" + id),
		SecretString: aws.String(value),
		VersionId:    aws.String("v-1"),
	}, nil
}

func TestAWSSecretsProvider_PlainAndField(t *testing.T) {
	fake := &fakeSecretsManager{values: map[string]string{
		"ixopay/plain": "s3cret",
		"ixopay/creds": `{"password": "hunter2", "shared_secret": "abc"}`,
	}}
	provider := newAWSSecretsProvider(fake, DefaultAWSSecretsManagerConfig("eu-central-1"), zap.NewNop())

	plain, err := provider.GetSecret(context.Background(), "ixopay/plain")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", plain.Value)
	assert.Equal(t, "v-1", plain.Version)

	field, err := provider.GetSecret(context.Background(), "ixopay/creds#shared_secret")
	require.NoError(t, err)
	assert.Equal(t, "abc", field.Value)
}

func TestAWSSecretsProvider_MissingField(t *testing.T) {
	fake := &fakeSecretsManager{values: map[string]string{"ixopay/creds": `{"password": "hunter2"}`}}
	provider := newAWSSecretsProvider(fake, DefaultAWSSecretsManagerConfig("eu-central-1"), zap.NewNop())

	_, err := provider.GetSecret(context.Background(), "ixopay/creds#shared_secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shared_secret")
}

func TestAWSSecretsProvider_Caches(t *testing.T) {
	fake := &fakeSecretsManager{values: map[string]string{"ixopay/plain": "s3cret"}}
	provider := newAWSSecretsProvider(fake, DefaultAWSSecretsManagerConfig("eu-central-1"), zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := provider.GetSecret(context.Background(), "ixopay/plain")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fake.calls)

	now := time.Now().Add(10 * time.Minute)
	provider.cache.now = func() time.Time { return now }
	_, err := provider.GetSecret(context.Background(), "ixopay/plain")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.calls, "expired entry is refetched")
}

func TestAWSSecretsProvider_Error(t *testing.T) {
	fake := &fakeSecretsManager{err: errors.New("throttled")}
	provider := newAWSSecretsProvider(fake, DefaultAWSSecretsManagerConfig("eu-central-1"), zap.NewNop())

	_, err := provider.GetSecret(context.Background(), "ixopay/plain")
	assert.ErrorIs(t, err, fake.err)
}

func TestSplitPath(t *testing.T) {
	name, field := splitPath("ixopay/creds#password")
	assert.Equal(t, "ixopay/creds", name)
	assert.Equal(t, "password", field)

	name, field = splitPath("ixopay/plain")
	assert.Equal(t, "ixopay/plain", name)
	assert.Empty(t, field)
}
