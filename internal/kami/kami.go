// Package kami provides a Bittensor subtensor client which relies on Kami as the RPC endpoint.
package kami

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/reprompt/internal/config"
)

// KamiInterface is the subset of the Kami API used by the miner and validator.
type KamiInterface interface {
	GetMetagraph(netuid int) (SubnetMetagraphResponse, error)
	GetLatestBlock() (LatestBlockResponse, error)
	SetWeights(params SetWeightsParams) (ExtrinsicHashResponse, error)
	ServeAxon(params ServeAxonParams) (ExtrinsicHashResponse, error)
	SignMessage(params SignMessageParams) (SignMessageResponse, error)
	VerifyMessage(params VerifyMessageParams) (VerifyMessageResponse, error)
	GetKeyringPair() (KeyringPairInfoResponse, error)
}

// Kami is a client wrapper for the Kami HTTP API.
type Kami struct {
	client  *resty.Client
	Host    string
	Port    string
	BaseURL string
}

var _ KamiInterface = (*Kami)(nil)

// NewKami creates a new Kami client using the provided environment configuration.
// Transport errors and 5xx responses are retried by go-retryablehttp.
func NewKami(cfg *config.KamiEnvConfig) (*Kami, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	url := fmt.Sprintf("http://%s:%s", cfg.KamiHost, cfg.KamiPort)

	timeout := cfg.KamiTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.KamiRetryMax
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.HTTPClient.Timeout = timeout
	rc.Logger = nil

	client := resty.NewWithClient(rc.StandardClient()).
		SetBaseURL(url).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	log.Debug().
		Str("base_url", url).
		Int("retry_max", rc.RetryMax).
		Str("timeout", timeout.String()).
		Msg("kami client initialized")

	return &Kami{
		client:  client,
		Host:    cfg.KamiHost,
		Port:    cfg.KamiPort,
		BaseURL: url,
	}, nil
}

func checkResponse[T any](resp *resty.Response, result KamiResponse[T], path string) (KamiResponse[T], error) {
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("body", resp.String()).Str("path", path).Msg("kami non-2xx")
		return KamiResponse[T]{}, fmt.Errorf("request returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.Error != nil {
		log.Error().Interface("error", result.Error).Str("path", path).Msg("response contains error")
		return KamiResponse[T]{}, fmt.Errorf("response error: %v", result.Error)
	}
	return result, nil
}

func postJSON[T any](client *resty.Client, path string, body any) (KamiResponse[T], error) {
	var result KamiResponse[T]
	resp, err := client.R().
		SetBody(body).
		SetResult(&result).
		Post(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("post request failed")
		return KamiResponse[T]{}, fmt.Errorf("post %s: %w", path, err)
	}
	return checkResponse(resp, result, path)
}

func getJSON[T any](client *resty.Client, path string) (KamiResponse[T], error) {
	var result KamiResponse[T]
	resp, err := client.R().
		SetResult(&result).
		Get(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("get request failed")
		return KamiResponse[T]{}, fmt.Errorf("get %s: %w", path, err)
	}
	return checkResponse(resp, result, path)
}

// GetMetagraph fetches the subnet metagraph for the given netuid.
func (k *Kami) GetMetagraph(netuid int) (SubnetMetagraphResponse, error) {
	path := fmt.Sprintf("/chain/subnet-metagraph/%d", netuid)
	return getJSON[SubnetMetagraph](k.client, path)
}

// GetLatestBlock retrieves the latest block details from the chain.
func (k *Kami) GetLatestBlock() (LatestBlockResponse, error) {
	return getJSON[LatestBlock](k.client, "/chain/latest-block")
}

// SetWeights sets the subnet weights and returns the extrinsic hash response.
func (k *Kami) SetWeights(params SetWeightsParams) (ExtrinsicHashResponse, error) {
	return postJSON[string](k.client, "/chain/set-weights", params)
}

// ServeAxon announces the miner's axon endpoint on chain.
func (k *Kami) ServeAxon(params ServeAxonParams) (ExtrinsicHashResponse, error) {
	return postJSON[string](k.client, "/chain/serve-axon", params)
}

// SignMessage signs an arbitrary message with the node's keypair.
func (k *Kami) SignMessage(params SignMessageParams) (SignMessageResponse, error) {
	return postJSON[SignMessage](k.client, "/substrate/sign-message/sign", params)
}

// VerifyMessage verifies a signed message against a signee address.
func (k *Kami) VerifyMessage(params VerifyMessageParams) (VerifyMessageResponse, error) {
	return postJSON[VerifyMessage](k.client, "/substrate/sign-message/verify", params)
}

// GetKeyringPair returns information about the node's keyring pair.
func (k *Kami) GetKeyringPair() (KeyringPairInfoResponse, error) {
	return getJSON[KeyringPairInfo](k.client, "/substrate/keyring-pair-info")
}

// GetHotkey resolves the ss58 address of the keypair Kami signs with.
func GetHotkey(k KamiInterface) (string, error) {
	info, err := k.GetKeyringPair()
	if err != nil {
		return "", fmt.Errorf("keyring pair info: %w", err)
	}
	address := info.Data.KeyringPair.Address
	if address == "" {
		return "", fmt.Errorf("kami returned an empty keyring address")
	}
	return address, nil
}
