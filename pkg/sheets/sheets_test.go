package sheets_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/hyperfarm/pkg/db"
	"github.com/lisanmuaddib/hyperfarm/pkg/db/models"
	"github.com/lisanmuaddib/hyperfarm/pkg/secrets"
	"github.com/lisanmuaddib/hyperfarm/pkg/settings"
	"github.com/lisanmuaddib/hyperfarm/pkg/sheets"
	"github.com/lisanmuaddib/hyperfarm/pkg/store"
)

const (
	keyA     = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	keyB     = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	addressA = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

var _ = Describe("Spreadsheets", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	for _, ext := range []string{".xlsx", ".csv"} {
		It("round trips rows through "+ext, func() {
			path := filepath.Join(dir, "import"+ext)
			Expect(sheets.Write(path, []string{"Private_Key", "name", "proxy"}, [][]string{
				{keyA, "alpha", "user:pass@10.0.0.1:8080"},
				{"", "empty", ""},
				{keyB, "", ""},
			})).To(Succeed())

			rows, err := sheets.ReadRows(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(Equal([]sheets.Row{
				{PrivateKey: keyA, Name: "alpha", Proxy: "user:pass@10.0.0.1:8080"},
				{PrivateKey: keyB},
			}))
		})
	}

	It("creates the template only once", func() {
		path := filepath.Join(dir, "files", "import.xlsx")

		created, err := sheets.EnsureTemplate(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeTrue())

		created, err = sheets.EnsureTemplate(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeFalse())

		rows, err := sheets.ReadRows(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(BeEmpty())
	})

	It("rejects sheets without a private key column", func() {
		path := filepath.Join(dir, "bad.csv")
		Expect(sheets.Write(path, []string{"name"}, [][]string{{"x"}})).To(Succeed())

		_, err := sheets.ReadRows(path)
		Expect(err).To(MatchError(ContainSubstring("private_key")))
	})
})

var _ = Describe("Importer", func() {
	var (
		ctx      context.Context
		ws       *store.WalletStore
		importer *sheets.Importer
		s        *settings.Settings
		logger   *logrus.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)

		gdb, err := db.SetupDatabase(logger, db.Config{
			Driver: db.DriverSQLite,
			Path:   filepath.Join(GinkgoT().TempDir(), "wallets.db"),
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			sqlDB, _ := gdb.DB()
			sqlDB.Close()
		})

		ws = store.NewWalletStore(logger, gdb)
		s = settings.Default()
		s.HMekr = settings.IntRange{From: 2, To: 4}
		s.HNFT = settings.IntRange{From: 1, To: 1}
		importer = sheets.NewImporter(logger, ws, secrets.Plain(), s)
	})

	It("imports the same key twice as one row and only renames it", func() {
		report, err := importer.Import(ctx, []sheets.Row{{PrivateKey: keyA, Name: "first", Proxy: "10.0.0.1:8080"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Imported).To(Equal(1))

		before, err := ws.GetByAddress(ctx, addressA)
		Expect(err).NotTo(HaveOccurred())
		Expect(before.Address).To(Equal(addressA))
		Expect(before.Proxy).To(Equal("http://10.0.0.1:8080"))
		Expect(before.Status).To(Equal(models.StatusInitial))
		Expect(before.NextInitialActionTime).To(BeZero())
		Expect(before.HMerk).To(BeNumerically(">=", 2))
		Expect(before.HMerk).To(BeNumerically("<=", 4))
		Expect(before.HNFT).To(Equal(1))

		report, err = importer.Import(ctx, []sheets.Row{{PrivateKey: keyA, Name: "second"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Imported).To(BeZero())
		Expect(report.Edited).To(Equal(1))

		all, err := ws.ListAll(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(1))
		Expect(all[0].Name).To(Equal("second"))
		Expect(all[0].HMerk).To(Equal(before.HMerk))
		Expect(all[0].Proxy).To(Equal(before.Proxy))
	})

	It("skips malformed keys", func() {
		report, err := importer.Import(ctx, []sheets.Row{{PrivateKey: "not-a-key"}, {PrivateKey: keyB}})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Skipped).To(Equal(1))
		Expect(report.Imported).To(Equal(1))
	})

	It("aborts when keys cannot be decrypted", func() {
		cipher, err := secrets.New([]byte("password"), []byte("salt-salt-salt"))
		Expect(err).NotTo(HaveOccurred())
		importer = sheets.NewImporter(logger, ws, cipher, s)

		_, err = importer.Import(ctx, []sheets.Row{{PrivateKey: keyA}})
		Expect(err).To(MatchError(secrets.ErrDecrypt))
	})

	It("imports encrypted keys and derives the address from the plaintext", func() {
		cipher, err := secrets.New([]byte("password"), []byte("salt-salt-salt"))
		Expect(err).NotTo(HaveOccurred())
		sealed, err := cipher.Encrypt(keyA)
		Expect(err).NotTo(HaveOccurred())
		importer = sheets.NewImporter(logger, ws, cipher, s)

		report, err := importer.Import(ctx, []sheets.Row{{PrivateKey: sealed}})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Imported).To(Equal(1))

		w, err := ws.GetByAddress(ctx, addressA)
		Expect(err).NotTo(HaveOccurred())
		Expect(w.PrivateKey).To(Equal(sealed))
	})

	It("treats a 0x-prefixed key as the wallet already stored", func() {
		_, err := importer.Import(ctx, []sheets.Row{{PrivateKey: keyA, Name: "plain"}})
		Expect(err).NotTo(HaveOccurred())

		report, err := importer.Import(ctx, []sheets.Row{{PrivateKey: "0x" + keyA, Name: "prefixed"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Imported).To(BeZero())
		Expect(report.Edited).To(Equal(1))

		all, err := ws.ListAll(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(1))
		Expect(all[0].PrivateKey).To(Equal(keyA))
		Expect(all[0].Name).To(Equal("prefixed"))
	})

	It("treats a key encrypted twice as one wallet", func() {
		cipher, err := secrets.New([]byte("password"), []byte("salt-salt-salt"))
		Expect(err).NotTo(HaveOccurred())
		first, err := cipher.Encrypt(keyA)
		Expect(err).NotTo(HaveOccurred())
		second, err := cipher.Encrypt(keyA)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).NotTo(Equal(first))
		importer = sheets.NewImporter(logger, ws, cipher, s)

		report, err := importer.Import(ctx, []sheets.Row{
			{PrivateKey: first, Name: "a"},
			{PrivateKey: second, Name: "a"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Imported).To(Equal(1))
		Expect(report.Skipped).To(Equal(1))

		all, err := ws.ListAll(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(1))
		Expect(all[0].PrivateKey).To(Equal(first))
	})

	It("exports and deletes the listed wallets", func() {
		_, err := importer.Import(ctx, []sheets.Row{{PrivateKey: keyA, Name: "a"}, {PrivateKey: keyB, Name: "b"}})
		Expect(err).NotTo(HaveOccurred())

		path := filepath.Join(GinkgoT().TempDir(), "export.csv")
		n, err := importer.Export(ctx, path)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))

		rows, err := sheets.ReadRows(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(2))

		removed, err := importer.Delete(ctx, []sheets.Row{{PrivateKey: "0x" + keyA}, {PrivateKey: "not-a-key"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(removed).To(Equal(int64(1)))

		all, err := ws.ListAll(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(1))
	})
})
