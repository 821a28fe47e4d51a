package factory

import (
	"fmt"

	"github.com/callguard/callguard/pkg/infra/providers"
	"github.com/callguard/callguard/pkg/infra/providers/anthropic"
	"github.com/callguard/callguard/pkg/infra/providers/azure"
	"github.com/callguard/callguard/pkg/infra/providers/openai"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderAzure     = "azure"
)

//go:generate mockery --name=ProviderLocator --dir=. --output=./mocks --filename=provider_locator_mock.go --case=underscore

type ProviderLocator interface {
	Get(provider string) (providers.Client, error)
}

type providerLocator struct{}

func NewProviderLocator() ProviderLocator {
	return &providerLocator{}
}

func (f *providerLocator) Get(provider string) (providers.Client, error) {
	switch provider {
	case ProviderOpenAI:
		return openai.NewOpenaiClient(), nil
	case ProviderAnthropic:
		return anthropic.NewAnthropicClient(), nil
	case ProviderAzure:
		return azure.NewAzureClient(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
