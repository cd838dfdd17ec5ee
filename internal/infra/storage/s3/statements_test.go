package s3

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatementStore_Validates(t *testing.T) {
	_, err := NewStatementStore(Options{Bucket: "b"}, nil)
	assert.Error(t, err)
	_, err = NewStatementStore(Options{Endpoint: "localhost:9000"}, nil)
	assert.Error(t, err)
}

func TestPresignUsesPublicEndpoint(t *testing.T) {
	store, err := NewStatementStore(Options{
		Endpoint:       "http://minio:9000",
		PublicEndpoint: "https://files.pousada.test",
		AccessKey:      "key",
		SecretKey:      "secret",
		Bucket:         "statements",
		LinkTTL:        5 * time.Minute,
	}, nil)
	require.NoError(t, err)

	link, err := store.signer.PresignedGetObject(context.Background(), "statements", "statements/p1/42/x.csv", store.linkTTL, url.Values{})
	require.NoError(t, err)
	assert.Equal(t, "https", link.Scheme)
	assert.Equal(t, "files.pousada.test", link.Host)
	assert.Equal(t, "/statements/statements/p1/42/x.csv", link.Path)
	assert.Equal(t, "300", link.Query().Get("X-Amz-Expires"))
}

func TestParseEndpoint(t *testing.T) {
	assert.Equal(t, "minio:9000", parseEndpoint("http://minio:9000"))
	assert.Equal(t, "minio:9000", parseEndpoint("minio:9000"))
	assert.True(t, isSecure("https://x", false))
	assert.False(t, isSecure("http://x", true))
	assert.True(t, isSecure("x:9000", true))
}
