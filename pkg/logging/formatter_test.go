package logging_test

import (
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/hyperfarm/pkg/logging"
)

var _ = Describe("ColoredJSONFormatter", func() {
	var formatter *logging.ColoredJSONFormatter

	format := func(fields logrus.Fields) string {
		entry := logrus.NewEntry(logrus.New()).WithFields(fields)
		entry.Time = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		entry.Level = logrus.InfoLevel
		entry.Message = "Wallet imported"

		out, err := formatter.Format(entry)
		Expect(err).NotTo(HaveOccurred())
		return string(out)
	}

	BeforeEach(func() {
		formatter = logging.NewColoredJSONFormatter()
		formatter.DisableColors = true
	})

	It("writes time, level and message first", func() {
		out := format(logrus.Fields{"chain": "polygon"})
		Expect(out).To(HavePrefix("2024-05-01T12:00:00Z INFO    Wallet imported "))
		Expect(out).To(HaveSuffix("\n"))
	})

	It("orders wallet fields before the rest", func() {
		out := format(logrus.Fields{
			"zeta":    1,
			"chain":   "base",
			"tick_id": "t1",
			"address": "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		})

		tick := strings.Index(out, "tick_id=")
		addr := strings.Index(out, "address=")
		chain := strings.Index(out, "chain=")
		zeta := strings.Index(out, "zeta=")
		Expect(tick).To(BeNumerically("<", addr))
		Expect(addr).To(BeNumerically("<", chain))
		Expect(chain).To(BeNumerically("<", zeta))
	})

	It("shortens addresses unless disabled", func() {
		fields := logrus.Fields{"address": "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"}
		Expect(format(fields)).To(ContainSubstring(`address="0xf39F...2266"`))

		formatter.ShortAddresses = false
		Expect(format(fields)).To(ContainSubstring(`address="0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"`))
	})

	It("renders errors and structured values", func() {
		out := format(logrus.Fields{"error": errors.New("boom"), "hashes": []string{"0x1"}})
		Expect(out).To(ContainSubstring(`error="boom"`))
		Expect(out).To(ContainSubstring(`hashes=["0x1"]`))
	})
})

var _ = Describe("NewLogger", func() {
	It("parses the level", func() {
		Expect(logging.NewLogger("debug").GetLevel()).To(Equal(logrus.DebugLevel))
	})

	It("falls back to info on an unknown level", func() {
		Expect(logging.NewLogger("chatty").GetLevel()).To(Equal(logrus.InfoLevel))
		Expect(logging.NewLogger("").GetLevel()).To(Equal(logrus.InfoLevel))
	})
})
