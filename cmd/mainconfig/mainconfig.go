package mainconfig

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/joho/godotenv"

	appconfig "github.com/wolfman30/crm-assistant/internal/config"
)

// LoadEnvFiles loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnvFiles(paths ...string) []string {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var loaded []string
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			loaded = append(loaded, path)
		}
	}
	return loaded
}

// LoadAWSConfig builds the SDK config shared by the DynamoDB and SQS perf log
// sinks. AWS_ENDPOINT_OVERRIDE points both at LocalStack.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return aws.Config{}, err
	}
	if endpoint := strings.TrimSpace(cfg.AWSEndpointOverride); endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(endpoint)
	}
	return awsCfg, nil
}
