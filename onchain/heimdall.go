package onchain

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/crytic/hydrafuzz/abi"
)

// HeimdallClient is the synchronous HTTP decompiler fallback: when bytecode-level selector
// extraction leaves too many selectors unrecognized, the corpus initializer posts the contract's
// hex-encoded bytecode to a running Heimdall decompiler service and recovers a best-effort ABI
// from its response. Grounded on ityfuzz's fetch_abi_heimdall (src/evm/onchain/abi_decompiler.rs,
// referenced but filtered from the kept original_source/ set; endpoint/response shape
// reconstructed from its call site in corpus_initializer.rs).
type HeimdallClient struct {
	endpoint string
	client   *http.Client
}

// NewHeimdallClient returns a client posting decompile requests to endpoint (e.g.
// "http://localhost:8080/decompile").
func NewHeimdallClient(endpoint string) *HeimdallClient {
	return &HeimdallClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type heimdallRequest struct {
	Bytecode string `json:"bytecode"`
}

type heimdallFunction struct {
	Selector string `json:"selector"`
	Name     string `json:"name"`
	Inputs   string `json:"inputs"`
	Payable  bool   `json:"payable"`
	Constant bool   `json:"constant"`
}

type heimdallResponse struct {
	Functions []heimdallFunction `json:"functions"`
}

// Decompile posts hexBytecode (no 0x prefix) to the configured Heimdall endpoint and returns the
// best-effort ABIConfig list it recovers. A non-200 response or malformed body yields an error;
// the caller (the corpus initializer) treats that as "ABI recovery failed", not a fatal error.
func (c *HeimdallClient) Decompile(hexBytecode string) ([]abi.ABIConfig, error) {
	reqBody, err := json.Marshal(heimdallRequest{Bytecode: hexBytecode})
	if err != nil {
		return nil, errors.Wrap(err, "marshaling heimdall request")
	}

	resp, err := c.client.Post(c.endpoint, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return nil, errors.Wrap(err, "posting to heimdall")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("heimdall returned status %d", resp.StatusCode)
	}

	var parsed heimdallResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "decoding heimdall response")
	}

	configs := make([]abi.ABIConfig, 0, len(parsed.Functions))
	for _, fn := range parsed.Functions {
		argTypes, err := abi.ParseArgTypes(fn.Inputs)
		if err != nil {
			continue
		}
		selectorBytes, err := hex.DecodeString(strings.TrimPrefix(fn.Selector, "0x"))
		if err != nil || len(selectorBytes) != 4 {
			continue
		}
		var selector [4]byte
		copy(selector[:], selectorBytes)
		_ = argTypes

		configs = append(configs, abi.ABIConfig{
			Function:     selector,
			FunctionName: fn.Name,
			TypeString:   fn.Inputs,
			IsPayable:    fn.Payable,
			IsStatic:     fn.Constant,
		})
	}
	return configs, nil
}
