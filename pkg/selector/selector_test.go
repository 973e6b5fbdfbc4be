package selector_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lisanmuaddib/hyperfarm/pkg/actions"
	"github.com/lisanmuaddib/hyperfarm/pkg/db/models"
	"github.com/lisanmuaddib/hyperfarm/pkg/progress"
	"github.com/lisanmuaddib/hyperfarm/pkg/selector"
	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

var _ = Describe("Select", func() {
	var (
		sel  *selector.Selector
		dest []wallet.NetworkType
	)

	BeforeEach(func() {
		sel = selector.New()
		dest = []wallet.NetworkType{wallet.Base}
	})

	It("returns Processed once every target is met", func() {
		w := &models.Wallet{HMerk: 2, HNFT: 1}
		done := progress.Counts{actions.MintBridgeHFT: 2, actions.MintBridgeHNFT: 1}

		Expect(sel.Select(w, done, dest).Kind).To(Equal(selector.Processed))
		Expect(sel.Select(w, done, nil).Kind).To(Equal(selector.Processed))
	})

	It("treats overshoot as met", func() {
		w := &models.Wallet{HMerk: 1, HNFT: 0}
		done := progress.Counts{actions.MintBridgeHFT: 4}

		Expect(sel.Select(w, done, dest).Kind).To(Equal(selector.Processed))
	})

	It("returns NoDestination when work remains but nowhere to bridge", func() {
		w := &models.Wallet{HMerk: 1, HNFT: 1}

		Expect(sel.Select(w, progress.Counts{}, nil).Kind).To(Equal(selector.NoDestination))
	})

	It("only offers the pending type", func() {
		w := &models.Wallet{HMerk: 2, HNFT: 0}
		for i := 0; i < 100; i++ {
			s := sel.Select(w, progress.Counts{}, dest)
			Expect(s.Kind).To(Equal(selector.Chosen))
			Expect(s.Action).To(Equal(actions.MintBridgeHFT))
		}

		w = &models.Wallet{HMerk: 2, HNFT: 3}
		done := progress.Counts{actions.MintBridgeHFT: 2, actions.MintBridgeHNFT: 1}
		Expect(sel.Select(w, done, dest).Action).To(Equal(actions.MintBridgeHNFT))
	})

	It("balances draws between pending types", func() {
		w := &models.Wallet{HMerk: 10, HNFT: 10}
		seen := map[actions.Type]int{}
		for i := 0; i < 10000; i++ {
			seen[sel.Select(w, progress.Counts{}, dest).Action]++
		}

		Expect(seen[actions.MintBridgeHFT]).To(BeNumerically("~", 5000, 300))
		Expect(seen[actions.MintBridgeHNFT]).To(BeNumerically("~", 5000, 300))
	})

	It("maps the random draw onto equal slices", func() {
		w := &models.Wallet{HMerk: 1, HNFT: 1}

		sel.Float = func() float64 { return 0.49 }
		Expect(sel.Select(w, progress.Counts{}, dest).Action).To(Equal(actions.MintBridgeHFT))

		sel.Float = func() float64 { return 0.51 }
		Expect(sel.Select(w, progress.Counts{}, dest).Action).To(Equal(actions.MintBridgeHNFT))
	})
})
