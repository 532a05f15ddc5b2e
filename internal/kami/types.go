package kami

type KamiResponse[T any] struct {
	StatusCode int            `json:"statusCode"`
	Success    bool           `json:"success"`
	Data       T              `json:"data"`
	Error      map[string]any `json:"error"`
}

type (
	SubnetMetagraphResponse = KamiResponse[SubnetMetagraph]
	LatestBlockResponse     = KamiResponse[LatestBlock]
	KeyringPairInfoResponse = KamiResponse[KeyringPairInfo]
	SignMessageResponse     = KamiResponse[SignMessage]
	VerifyMessageResponse   = KamiResponse[VerifyMessage]
	ExtrinsicHashResponse   = KamiResponse[string]
)

// SubnetMetagraph holds the per-uid columns of the subnet metagraph. Kami
// returns many more subnet-level fields; only the ones read here are decoded.
type SubnetMetagraph struct {
	Netuid            int        `json:"netuid"`
	Name              string     `json:"name"`
	Block             int        `json:"block"`
	Tempo             int        `json:"tempo"`
	NumUids           int        `json:"numUids"`
	MaxUids           int        `json:"maxUids"`
	WeightsVersion    int        `json:"weightsVersion"`
	WeightsRateLimit  int        `json:"weightsRateLimit"`
	MinAllowedWeights int        `json:"minAllowedWeights"`
	MaxAllowedWeights int        `json:"maxAllowedWeights"`
	Hotkeys           []string   `json:"hotkeys"`
	Coldkeys          []string   `json:"coldkeys"`
	Axons             []AxonInfo `json:"axons"`
	Active            []bool     `json:"active"`
	ValidatorPermit   []bool     `json:"validatorPermit"`
	LastUpdate        []int      `json:"lastUpdate"`
	Emission          []float64  `json:"emission"`
	Incentives        []float64  `json:"incentives"`
	Dividends         []float64  `json:"dividends"`
	AlphaStake        []float64  `json:"alphaStake"`
	TaoStake          []float64  `json:"taoStake"`
	TotalStake        []float64  `json:"totalStake"`
}

type AxonInfo struct {
	Block    int    `json:"block"`
	Version  int    `json:"version"`
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	IPType   int    `json:"ipType"`
	Protocol int    `json:"protocol"`
}

type LatestBlock struct {
	ParentHash     string `json:"parentHash"`
	BlockNumber    int    `json:"blockNumber"`
	StateRoot      string `json:"stateRoot"`
	ExtrinsicsRoot string `json:"extrinsicsRoot"`
}

type KeyringPair struct {
	Address  string         `json:"address"`
	IsLocked bool           `json:"isLocked"`
	Meta     map[string]any `json:"meta"`
	Type     string         `json:"type"`
}

type KeyringPairInfo struct {
	KeyringPair   KeyringPair `json:"keyringPair"`
	WalletColdkey string      `json:"walletColdkey"`
}

type ServeAxonParams struct {
	Version      int `json:"version"`
	IP           int `json:"ip"`
	Port         int `json:"port"`
	IPType       int `json:"ipType"`
	Netuid       int `json:"netuid"`
	Protocol     int `json:"protocol"`
	Placeholder1 int `json:"placeholder1"`
	Placeholder2 int `json:"placeholder2"`
}

type SetWeightsParams struct {
	Netuid     int   `json:"netuid"`
	Dests      []int `json:"dests"`
	Weights    []int `json:"weights"`
	VersionKey int   `json:"versionKey"`
}

type SignMessageParams struct {
	Message string `json:"message"`
}

type SignMessage struct {
	Signature string `json:"signature"`
}

type VerifyMessageParams struct {
	Message       string `json:"message"`
	Signature     string `json:"signature"`
	SigneeAddress string `json:"signeeAddress"`
}

type VerifyMessage struct {
	Valid bool `json:"valid"`
}
