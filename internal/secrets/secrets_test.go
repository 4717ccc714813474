package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvStore(t *testing.T) {
	t.Setenv("SPEECH_GATEWAY_TEST_SECRET", "value-1")

	v, err := EnvStore{}.Secret(context.Background(), "SPEECH_GATEWAY_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "value-1", v)

	t.Setenv("SPEECH_GATEWAY_TEST_SECRET", "value-2")

	v, err = EnvStore{}.Secret(context.Background(), "SPEECH_GATEWAY_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "value-2", v)
}

func TestEnvStore_Missing(t *testing.T) {
	t.Setenv("SPEECH_GATEWAY_EMPTY_SECRET", "")

	_, err := EnvStore{}.Secret(context.Background(), "SPEECH_GATEWAY_EMPTY_SECRET")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "SPEECH_GATEWAY_EMPTY_SECRET")
}

func TestMapStore(t *testing.T) {
	store := MapStore{"GOOGLE_CLOUD_API_KEY": "k", "EMPTY": ""}

	v, err := store.Secret(context.Background(), "GOOGLE_CLOUD_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "k", v)

	_, err = store.Secret(context.Background(), "EMPTY")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Secret(context.Background(), "MISSING")
	assert.ErrorIs(t, err, ErrNotFound)
}
