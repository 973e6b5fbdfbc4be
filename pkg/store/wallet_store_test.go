package store_test

import (
	"context"
	"io"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/hyperfarm/pkg/db"
	"github.com/lisanmuaddib/hyperfarm/pkg/db/models"
	"github.com/lisanmuaddib/hyperfarm/pkg/store"
)

var _ = Describe("WalletStore", func() {
	var (
		s   *store.WalletStore
		ctx context.Context
	)

	newWallet := func(key string, status models.Status, next int64) *models.Wallet {
		return &models.Wallet{
			PrivateKey:            key,
			Address:               "0x" + key,
			HMerk:                 2,
			HNFT:                  1,
			Status:                status,
			NextInitialActionTime: next,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		logger := logrus.New()
		logger.SetOutput(io.Discard)

		conn, err := db.SetupDatabase(logger, db.Config{
			Driver: db.DriverSQLite,
			Path:   filepath.Join(GinkgoT().TempDir(), "wallets.db"),
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			sqlDB, _ := conn.DB()
			sqlDB.Close()
		})

		s = store.NewWalletStore(logger, conn)
	})

	Describe("Insert", func() {
		It("keeps one row per private key", func() {
			inserted, err := s.Insert(ctx, newWallet("aa", models.StatusInitial, 0))
			Expect(err).NotTo(HaveOccurred())
			Expect(inserted).To(BeTrue())

			inserted, err = s.Insert(ctx, newWallet("aa", models.StatusInitial, 0))
			Expect(err).NotTo(HaveOccurred())
			Expect(inserted).To(BeFalse())

			all, err := s.ListAll(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
		})

		It("keeps one row per address even when the stored keys differ", func() {
			inserted, err := s.Insert(ctx, newWallet("aa", models.StatusInitial, 0))
			Expect(err).NotTo(HaveOccurred())
			Expect(inserted).To(BeTrue())

			sealed := newWallet("sealed-aa", models.StatusInitial, 0)
			sealed.Address = "0xaa"
			inserted, err = s.Insert(ctx, sealed)
			Expect(err).NotTo(HaveOccurred())
			Expect(inserted).To(BeFalse())

			got, err := s.GetByAddress(ctx, "0xaa")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.PrivateKey).To(Equal("aa"))
		})

		It("rejects unknown statuses", func() {
			_, err := s.Insert(ctx, newWallet("aa", models.Status("Failed"), 0))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ListDue", func() {
		BeforeEach(func() {
			for _, w := range []*models.Wallet{
				newWallet("a", models.StatusInitial, 0),
				newWallet("b", models.StatusInitial, 100),
				newWallet("c", models.StatusInitial, 200),
				newWallet("d", models.StatusNotStarted, 0),
			} {
				_, err := s.Insert(ctx, w)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("returns only wallets in the status whose time has come, oldest first", func() {
			due, err := s.ListDue(ctx, models.StatusInitial, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(due).To(HaveLen(2))
			Expect(due[0].PrivateKey).To(Equal("a"))
			Expect(due[1].PrivateKey).To(Equal("b"))
		})
	})

	Describe("Commit", func() {
		It("persists scheduling fields", func() {
			w := newWallet("a", models.StatusInitial, 0)
			_, err := s.Insert(ctx, w)
			Expect(err).NotTo(HaveOccurred())

			w.Status = models.StatusNotStarted
			w.NextActivityActionTime = 500
			w.HMerkDone = 1
			Expect(s.Commit(ctx, w)).To(Succeed())

			got, err := s.GetByAddress(ctx, "0xa")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(models.StatusNotStarted))
			Expect(got.NextActivityActionTime).To(Equal(int64(500)))
			Expect(got.HMerkDone).To(Equal(1))
			Expect(got.HMerk).To(Equal(2))
		})

		It("persists a corrected address", func() {
			w := newWallet("a", models.StatusInitial, 0)
			_, err := s.Insert(ctx, w)
			Expect(err).NotTo(HaveOccurred())

			w.Address = "0xA"
			Expect(s.Commit(ctx, w)).To(Succeed())

			got, err := s.GetByAddress(ctx, "0xA")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(w.ID))

			_, err = s.GetByAddress(ctx, "0xa")
			Expect(err).To(MatchError(store.ErrNotFound))
		})

		It("refuses an invalid status without writing anything", func() {
			a := newWallet("a", models.StatusInitial, 0)
			b := newWallet("b", models.StatusInitial, 0)
			_, _ = s.Insert(ctx, a)
			_, _ = s.Insert(ctx, b)

			a.NextInitialActionTime = 42
			b.Status = models.Status("bogus")
			Expect(s.Commit(ctx, a, b)).NotTo(Succeed())

			got, err := s.GetByAddress(ctx, "0xa")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.NextInitialActionTime).To(Equal(int64(0)))
		})
	})

	Describe("administration", func() {
		BeforeEach(func() {
			for _, key := range []string{"a", "b", "c"} {
				_, err := s.Insert(ctx, newWallet(key, models.StatusNotStarted, 0))
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("renames a wallet", func() {
			w, err := s.GetByAddress(ctx, "0xa")
			Expect(err).NotTo(HaveOccurred())
			Expect(s.UpdateName(ctx, w.ID, "main")).To(Succeed())

			w, _ = s.GetByAddress(ctx, "0xa")
			Expect(w.Name).To(Equal("main"))
		})

		It("reports a missing wallet", func() {
			_, err := s.GetByAddress(ctx, "0xzz")
			Expect(err).To(MatchError(store.ErrNotFound))
		})

		It("deletes listed wallets", func() {
			n, err := s.Delete(ctx, "0xa", "0xb", "0xmissing")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(2)))
		})

		It("deletes every wallet", func() {
			n, err := s.DeleteAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(3)))
		})

		It("requeues not started wallets", func() {
			n, err := s.Requeue(ctx, models.StatusNotStarted, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(3)))

			counts, err := s.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(counts[models.StatusInitial]).To(Equal(int64(3)))

			due, err := s.ListDue(ctx, models.StatusInitial, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(due).To(HaveLen(3))
		})
	})
})
