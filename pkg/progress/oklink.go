package progress

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/lisanmuaddib/hyperfarm/pkg/actions"
	"github.com/lisanmuaddib/hyperfarm/pkg/db/models"
	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

const (
	// DefaultOKLinkURL is the OKLink explorer API root
	DefaultOKLinkURL = "https://www.oklink.com"

	transactionListPath = "/api/v5/explorer/address/transaction-list"
	pageLimit           = 50
	maxPages            = 20
	requestTimeout      = 30 * time.Second
)

// ErrNoAPIKey is returned when the explorer source is used without a key
var ErrNoAPIKey = errors.New("oklink api key is not configured")

// OKLinkConfig configures the explorer source
type OKLinkConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	// Limiter paces requests; OKLink's free tier allows a few per second
	Limiter *rate.Limiter
}

// OKLinkSource counts successful bridge transactions sent by the wallet to
// the Merkly contracts, as listed by the OKLink explorer
type OKLinkSource struct {
	config OKLinkConfig
	logger *logrus.Logger
	ids    map[actions.Type]string
}

// NewOKLinkSource creates an explorer-backed progress source
func NewOKLinkSource(logger *logrus.Logger, cfg OKLinkConfig) *OKLinkSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOKLinkURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: requestTimeout}
	}
	if cfg.Limiter == nil {
		cfg.Limiter = rate.NewLimiter(rate.Every(250*time.Millisecond), 1)
	}

	ids := make(map[actions.Type]string)
	for t, id := range actions.BridgeMethodIDs() {
		ids[t] = "0x" + hex.EncodeToString(id)
	}

	return &OKLinkSource{config: cfg, logger: logger, ids: ids}
}

type explorerTx struct {
	TxID     string `json:"txId"`
	MethodID string `json:"methodId"`
	To       string `json:"to"`
	State    string `json:"state"`
}

type transactionListResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		Page             string       `json:"page"`
		TotalPage        string       `json:"totalPage"`
		TransactionLists []explorerTx `json:"transactionLists"`
	} `json:"data"`
}

func (s *OKLinkSource) Counts(ctx context.Context, w *models.Wallet) (Counts, error) {
	if s.config.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	counts := Counts{}
	for _, t := range actions.Types {
		counts[t] = 0
	}

	for _, network := range wallet.DefaultNetworkConfigs() {
		if network.ExplorerChain == "" {
			continue
		}
		contracts := s.contractsOn(network.Type)
		if len(contracts) == 0 {
			continue
		}

		txs, err := s.transactions(ctx, network.ExplorerChain, w.Address)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s transactions: %w", network.Type, err)
		}

		for _, tx := range txs {
			if tx.State != "success" {
				continue
			}
			for t, contract := range contracts {
				if strings.EqualFold(tx.To, contract.Hex()) && strings.EqualFold(tx.MethodID, s.ids[t]) {
					counts[t]++
				}
			}
		}
	}

	s.logger.WithFields(logrus.Fields{
		"address": w.Address,
		"hft":     counts[actions.MintBridgeHFT],
		"hnft":    counts[actions.MintBridgeHNFT],
	}).Debug("Explorer progress")

	return counts, nil
}

func (s *OKLinkSource) contractsOn(network wallet.NetworkType) map[actions.Type]common.Address {
	out := make(map[actions.Type]common.Address)
	if addr, ok := actions.HFTContract(network); ok {
		out[actions.MintBridgeHFT] = addr
	}
	if addr, ok := actions.HNFTContract(network); ok {
		out[actions.MintBridgeHNFT] = addr
	}
	return out
}

func (s *OKLinkSource) transactions(ctx context.Context, chain, address string) ([]explorerTx, error) {
	var all []explorerTx
	for page := 1; page <= maxPages; page++ {
		batch, totalPages, err := s.fetchPage(ctx, chain, address, page)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < pageLimit || (totalPages > 0 && page >= totalPages) {
			break
		}
	}
	return all, nil
}

func (s *OKLinkSource) fetchPage(ctx context.Context, chain, address string, page int) ([]explorerTx, int, error) {
	if err := s.config.Limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	query := url.Values{}
	query.Set("chainShortName", chain)
	query.Set("address", address)
	query.Set("limit", strconv.Itoa(pageLimit))
	query.Set("page", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.BaseURL+transactionListPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Ok-Access-Key", s.config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.config.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, 0, fmt.Errorf("oklink api error: status=%d body=%s", resp.StatusCode, string(bytes.TrimSpace(body)))
	}

	var parsed transactionListResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Code != "0" {
		return nil, 0, fmt.Errorf("oklink api error: code=%s message=%s", parsed.Code, parsed.Msg)
	}
	if len(parsed.Data) == 0 {
		return nil, 0, nil
	}

	total, _ := strconv.Atoi(parsed.Data[0].TotalPage)
	return parsed.Data[0].TransactionLists, total, nil
}
