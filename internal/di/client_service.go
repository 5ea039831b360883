package di

import (
	"github.com/samber/do/v2"

	"github.com/javer/aws-transcribe-streaming/transcribestream"
)

// ClientService wraps the assembled transcribestream.Client.
type ClientService struct {
	Client *transcribestream.Client
}

// NewClientService builds the Transport Driver client from the container's
// credentials and logger services.
func NewClientService(i do.Injector) (*ClientService, error) {
	params := do.MustInvoke[*Params](i)
	creds := do.MustInvoke[*CredentialsService](i)
	logger := do.MustInvoke[*LoggerService](i)

	client := transcribestream.NewClient(
		params.Region,
		creds.Provider,
		transcribestream.WithLogger(logger.Logger),
	)

	return &ClientService{Client: client}, nil
}
