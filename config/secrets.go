package config

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ResolveSecrets pulls credentials that are kept outside the config file.
// In prod an empty Twelve Data key is looked up in SSM Parameter Store
// under venues.twelvedata.api_key_param.
func (cfg *Config) ResolveSecrets() {
	td := &cfg.Venues.TwelveData
	if cfg.Environment == "prod" && td.APIKey == "" && td.APIKeyParam != "" {
		td.APIKey = ParameterStoreValue(td.APIKeyParam, true)
	}
}

// ParameterStoreValue reads one SSM parameter. Any failure yields "".
func ParameterStoreValue(parameterName string, decrypt bool) string {
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	awsCfg, err := config.LoadDefaultConfig(ctxWithTimeout)
	if err != nil {
		return ""
	}

	client := ssm.NewFromConfig(awsCfg)

	input := &ssm.GetParameterInput{
		Name:           &parameterName,
		WithDecryption: &decrypt,
	}

	result, err := client.GetParameter(ctxWithTimeout, input)
	if err != nil {
		return ""
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return ""
	}

	return *result.Parameter.Value
}
