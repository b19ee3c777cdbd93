package s3infra

import (
	"testing"

	"github.com/bike-resale-api/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestPublicBaseURL(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{"aws", config.Config{S3BucketName: "bikes", AWSRegion: "ap-south-1"}, "https://bikes.s3.ap-south-1.amazonaws.com"},
		{"localstack", config.Config{S3BucketName: "bikes", AWSEndpointURL: "http://localhost:4566/"}, "http://localhost:4566/bikes"},
		{"override", config.Config{S3BucketName: "bikes", S3PublicBaseURL: "https://cdn.example.com/"}, "https://cdn.example.com"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PublicBaseURL(&tc.cfg))
		})
	}
}
