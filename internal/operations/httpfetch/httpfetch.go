// Package httpfetch implements the fetch_api_data operation: issue an
// HTTP request and persist the response body as JSON on disk.
package httpfetch

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
)

// Name is the operation identifier registered in the Operation Registry.
const Name = "fetch_api_data"

// Op implements registry.Operation over a shared resty client, matching
// the original's one-session-per-request aiohttp usage but pooling
// connections the way a long-lived Go process should.
type Op struct {
	client  *resty.Client
	dataDir string
}

// New builds an Op. dataDir is used to generate an output path when the
// caller does not supply output_path, mirroring the original's
// "./userdata/<random>.json" default.
func New(dataDir string) *Op {
	if dataDir == "" {
		dataDir = "./userdata"
	}
	return &Op{client: resty.New(), dataDir: dataDir}
}

func (o *Op) Name() string { return Name }

func (o *Op) Defaults() map[string]any {
	return map[string]any{
		"headers": map[string]any{},
		"params":  map[string]any{},
	}
}

func (o *Op) Invoke(ctx context.Context, params map[string]any) (map[string]any, error) {
	url, _ := params["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("httpfetch: url is required")
	}
	method, _ := params["method"].(string)
	if method == "" {
		return nil, fmt.Errorf("httpfetch: method is required")
	}

	headers := toStringMap(params["headers"])
	query := toStringMap(params["params"])

	outputPath, _ := params["output_path"].(string)
	if outputPath == "" {
		p, err := o.randomOutputPath()
		if err != nil {
			return nil, fmt.Errorf("httpfetch: generate output path: %w", err)
		}
		outputPath = p
	}

	req := o.client.R().SetContext(ctx).SetHeaders(headers)

	var resp *resty.Response
	var err error
	switch strings.ToUpper(method) {
	case "GET":
		resp, err = req.SetQueryParams(query).Get(url)
	case "POST":
		resp, err = req.SetBody(query).Post(url)
	default:
		return nil, fmt.Errorf("httpfetch: unsupported HTTP method %q", method)
	}
	if err != nil {
		return nil, fmt.Errorf("httpfetch: request failed: %w", err)
	}

	var payload any
	if jsonErr := json.Unmarshal(resp.Body(), &payload); jsonErr != nil {
		payload = string(resp.Body())
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("httpfetch: create output dir: %w", err)
	}
	raw, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("httpfetch: marshal response: %w", err)
	}
	if err := os.WriteFile(outputPath, raw, 0o644); err != nil {
		return nil, fmt.Errorf("httpfetch: write output: %w", err)
	}

	return map[string]any{"output_file_path": outputPath}, nil
}

func (o *Op) randomOutputPath() (string, error) {
	for {
		n, err := rand.Int(rand.Reader, big.NewInt(9000000))
		if err != nil {
			return "", err
		}
		id := n.Int64() + 1000000
		path := filepath.Join(o.dataDir, fmt.Sprintf("%d.json", id))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
	}
}

func toStringMap(v any) map[string]string {
	m, _ := v.(map[string]any)
	out := make(map[string]string, len(m))
	for k, val := range m {
		out[k] = fmt.Sprintf("%v", val)
	}
	return out
}
