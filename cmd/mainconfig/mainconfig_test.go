package mainconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/crm-assistant/internal/config"
)

func TestLoadAWSConfig_EndpointOverride(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	cfg := &appconfig.Config{
		AWSRegion:           "us-west-2",
		AWSAccessKeyID:      "test",
		AWSSecretAccessKey:  "test",
		AWSEndpointOverride: "http://localhost:4566",
	}

	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", awsCfg.Region)
	require.NotNil(t, awsCfg.BaseEndpoint)
	assert.Equal(t, "http://localhost:4566", *awsCfg.BaseEndpoint)

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", creds.AccessKeyID)
}

func TestLoadAWSConfig_NoOverride(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	awsCfg, err := LoadAWSConfig(context.Background(), &appconfig.Config{AWSRegion: "us-east-1"})
	require.NoError(t, err)
	assert.Nil(t, awsCfg.BaseEndpoint)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CRM_ASSISTANT_TEST_VAR=from-file\nCRM_ASSISTANT_KEEP=from-file\n"), 0o600))

	t.Setenv("CRM_ASSISTANT_KEEP", "from-env")
	t.Setenv("CRM_ASSISTANT_TEST_VAR", "")
	require.NoError(t, os.Unsetenv("CRM_ASSISTANT_TEST_VAR"))

	loaded := LoadEnvFiles(path, filepath.Join(dir, "missing.env"))
	assert.Equal(t, []string{path}, loaded)
	assert.Equal(t, "from-file", os.Getenv("CRM_ASSISTANT_TEST_VAR"))
	assert.Equal(t, "from-env", os.Getenv("CRM_ASSISTANT_KEEP"))
}
