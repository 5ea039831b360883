package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/samber/do/v2"
)

// CredentialsService wraps the AWS credentials provider used to sign both
// the initial HTTP request and the chunk-signature chain. The provider is
// wrapped in a credentials cache: credentials are retrieved on first use,
// not at container construction, and reused until they expire.
type CredentialsService struct {
	Provider aws.CredentialsProvider
}

// NewCredentialsService loads the default AWS credential chain
// (environment, shared config, IMDS) for the configured region.
func NewCredentialsService(i do.Injector) (*CredentialsService, error) {
	params := do.MustInvoke[*Params](i)

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(params.Region))
	if err != nil {
		return nil, err
	}

	return &CredentialsService{
		Provider: credentials.NewCredentialsCache(cfg.Credentials),
	}, nil
}
