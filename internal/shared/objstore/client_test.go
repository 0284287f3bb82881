package objstore

import (
	"encoding/json"
	"testing"

	"cardshop/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresConfig(t *testing.T) {
	_, err := NewClient(config.MinIOConfig{})
	assert.Error(t, err)

	_, err = NewClient(config.MinIOConfig{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}

// TestURL 验证公开地址拼接（NewClient 不发起网络请求）
func TestURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MinIOConfig
		want string
	}{
		{
			name: "derived from endpoint",
			cfg:  config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"},
			want: "http://localhost:9000/cardshop/products/x.png",
		},
		{
			name: "ssl",
			cfg:  config.MinIOConfig{Endpoint: "s3.example.com", AccessKey: "a", SecretKey: "b", UseSSL: true, Bucket: "media"},
			want: "https://s3.example.com/media/products/x.png",
		},
		{
			name: "public url",
			cfg:  config.MinIOConfig{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "b", PublicURL: "https://cdn.example.com/media/"},
			want: "https://cdn.example.com/media/products/x.png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.URL("products/x.png"))
		})
	}
}

func TestReadOnlyPolicy(t *testing.T) {
	var p map[string]any
	require.NoError(t, json.Unmarshal([]byte(readOnlyPolicy("cardshop")), &p))
	assert.Contains(t, readOnlyPolicy("cardshop"), "arn:aws:s3:::cardshop/*")
}
