package progress_test

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/lisanmuaddib/hyperfarm/pkg/actions"
	"github.com/lisanmuaddib/hyperfarm/pkg/db/models"
	"github.com/lisanmuaddib/hyperfarm/pkg/progress"
	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

const owner = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

var _ = Describe("StoreSource", func() {
	It("reads the done counters from the wallet", func() {
		w := &models.Wallet{HMerk: 3, HNFT: 2, HMerkDone: 1, HNFTDone: 2}

		counts, err := progress.StoreSource{}.Counts(context.Background(), w)
		Expect(err).NotTo(HaveOccurred())
		Expect(counts).To(Equal(progress.Counts{actions.MintBridgeHFT: 1, actions.MintBridgeHNFT: 2}))
		Expect(progress.Targets(w)).To(Equal(progress.Counts{actions.MintBridgeHFT: 3, actions.MintBridgeHNFT: 2}))
	})
})

var _ = Describe("OKLinkSource", func() {
	var (
		logger   *logrus.Logger
		mu       sync.Mutex
		requests []string
		pages    map[string][][]map[string]string
		server   *httptest.Server
		hftID    string
		hnftID   string
	)

	tx := func(to, method, state string) map[string]string {
		return map[string]string{"txId": "0x1", "to": to, "methodId": method, "state": state}
	}

	BeforeEach(func() {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
		requests = nil
		pages = map[string][][]map[string]string{}

		ids := actions.BridgeMethodIDs()
		hftID = "0x" + hex.EncodeToString(ids[actions.MintBridgeHFT])
		hnftID = "0x" + hex.EncodeToString(ids[actions.MintBridgeHNFT])

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/api/v5/explorer/address/transaction-list"))
			Expect(r.Header.Get("Ok-Access-Key")).To(Equal("secret"))
			Expect(r.URL.Query().Get("address")).To(Equal(owner))

			chain := r.URL.Query().Get("chainShortName")
			page, _ := strconv.Atoi(r.URL.Query().Get("page"))

			mu.Lock()
			requests = append(requests, chain+":"+strconv.Itoa(page))
			chainPages := pages[chain]
			mu.Unlock()

			var list []map[string]string
			if page-1 < len(chainPages) {
				list = chainPages[page-1]
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"code": "0",
				"msg":  "",
				"data": []interface{}{map[string]interface{}{
					"page":             strconv.Itoa(page),
					"totalPage":        strconv.Itoa(len(chainPages)),
					"transactionLists": list,
				}},
			})
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newSource := func(key string) *progress.OKLinkSource {
		return progress.NewOKLinkSource(logger, progress.OKLinkConfig{
			APIKey:  key,
			BaseURL: server.URL,
			Limiter: rate.NewLimiter(rate.Inf, 1),
		})
	}

	It("counts successful bridge calls to the Merkly contracts", func() {
		polygonHFT, _ := actions.HFTContract(wallet.Polygon)
		baseHNFT, _ := actions.HNFTContract(wallet.Base)

		pages["POLYGON"] = [][]map[string]string{{
			tx(polygonHFT.Hex(), hftID, "success"),
			tx(polygonHFT.Hex(), hftID, "fail"),
			tx(polygonHFT.Hex(), "0xdeadbeef", "success"),
		}}
		pages["BASE"] = [][]map[string]string{{
			tx(baseHNFT.Hex(), hnftID, "success"),
			tx(baseHNFT.Hex(), hftID, "success"),
		}}

		counts, err := newSource("secret").Counts(context.Background(), &models.Wallet{Address: owner})
		Expect(err).NotTo(HaveOccurred())
		Expect(counts[actions.MintBridgeHFT]).To(Equal(1))
		Expect(counts[actions.MintBridgeHNFT]).To(Equal(1))
	})

	It("follows pages while they are full", func() {
		arbHFT, _ := actions.HFTContract(wallet.Arbitrum)
		full := make([]map[string]string, 50)
		for i := range full {
			full[i] = tx(arbHFT.Hex(), hftID, "success")
		}
		pages["ARBITRUM"] = [][]map[string]string{full, {tx(arbHFT.Hex(), hftID, "success")}}

		counts, err := newSource("secret").Counts(context.Background(), &models.Wallet{Address: owner})
		Expect(err).NotTo(HaveOccurred())
		Expect(counts[actions.MintBridgeHFT]).To(Equal(51))
		Expect(requests).To(ContainElements("ARBITRUM:1", "ARBITRUM:2"))
		Expect(requests).NotTo(ContainElement("ARBITRUM:3"))
	})

	It("refuses to run without an api key", func() {
		_, err := newSource("").Counts(context.Background(), &models.Wallet{Address: owner})
		Expect(err).To(MatchError(progress.ErrNoAPIKey))
	})

	It("surfaces api errors", func() {
		server.Close()
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"code":"50011","msg":"too many requests","data":[]}`))
		}))

		_, err := newSource("secret").Counts(context.Background(), &models.Wallet{Address: owner})
		Expect(err).To(MatchError(ContainSubstring("too many requests")))
	})
})
