package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/hyperfarm/pkg/db/models"
	"github.com/lisanmuaddib/hyperfarm/pkg/secrets"
	"github.com/lisanmuaddib/hyperfarm/pkg/settings"
	"github.com/lisanmuaddib/hyperfarm/pkg/store"
	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

// WalletStore is the persistence the importer needs
type WalletStore interface {
	GetByAddress(ctx context.Context, address string) (*models.Wallet, error)
	Insert(ctx context.Context, w *models.Wallet) (bool, error)
	UpdateName(ctx context.Context, id uint, name string) error
	Delete(ctx context.Context, addresses ...string) (int64, error)
	ListAll(ctx context.Context, status models.Status) ([]*models.Wallet, error)
}

// ImportReport counts what an import did
type ImportReport struct {
	Total    int
	Imported int
	Edited   int
	Skipped  int
}

// Importer moves spreadsheet rows into the wallet store
type Importer struct {
	store    WalletStore
	cipher   *secrets.Cipher
	settings *settings.Settings
	logger   *logrus.Logger
}

// NewImporter creates an importer
func NewImporter(logger *logrus.Logger, st WalletStore, cipher *secrets.Cipher, s *settings.Settings) *Importer {
	if cipher == nil {
		cipher = secrets.Plain()
	}
	return &Importer{store: st, cipher: cipher, settings: s, logger: logger}
}

// Import stores each row as a new Initial wallet with randomized targets.
// Rows are matched on the address derived from the key, so a key already
// stored under another spelling or ciphertext only has its name updated. A
// key that cannot be decrypted aborts the import.
func (im *Importer) Import(ctx context.Context, rows []Row) (ImportReport, error) {
	report := ImportReport{Total: len(rows)}

	for i, row := range rows {
		log := im.logger.WithField("row", i+2)

		addr, err := im.address(row)
		if errors.Is(err, secrets.ErrDecrypt) {
			return report, err
		}
		if err != nil {
			log.WithError(err).Error("Invalid private key")
			report.Skipped++
			continue
		}
		log = log.WithField("address", addr)

		existing, err := im.store.GetByAddress(ctx, addr)
		switch {
		case err == nil:
			if existing.Name != row.Name {
				if err := im.store.UpdateName(ctx, existing.ID, row.Name); err != nil {
					return report, err
				}
				log.WithField("name", row.Name).Info("Wallet name updated")
				report.Edited++
			} else {
				report.Skipped++
			}
			continue
		case !errors.Is(err, store.ErrNotFound):
			return report, err
		}

		w := &models.Wallet{
			PrivateKey: row.PrivateKey,
			Address:    addr,
			Name:       row.Name,
			Proxy:      normalizeProxy(row.Proxy),
			HMerk:      int(im.settings.HMekr.Rand()),
			HNFT:       int(im.settings.HNFT.Rand()),
			Status:     models.StatusInitial,
		}
		inserted, err := im.store.Insert(ctx, w)
		if err != nil {
			return report, err
		}
		if !inserted {
			report.Skipped++
			continue
		}

		log.WithFields(logrus.Fields{"h_merk": w.HMerk, "h_nft": w.HNFT}).Info("Wallet imported")
		report.Imported++
	}

	return report, nil
}

// Delete removes the wallets whose keys are listed in rows and returns how
// many were removed. Rows with malformed keys are skipped.
func (im *Importer) Delete(ctx context.Context, rows []Row) (int64, error) {
	addresses := make([]string, 0, len(rows))
	for i, row := range rows {
		addr, err := im.address(row)
		if errors.Is(err, secrets.ErrDecrypt) {
			return 0, err
		}
		if err != nil {
			im.logger.WithError(err).WithField("row", i+2).Warn("Skipping row with invalid private key")
			continue
		}
		addresses = append(addresses, addr)
	}
	return im.store.Delete(ctx, addresses...)
}

// address decrypts the row key and returns its checksum address
func (im *Importer) address(row Row) (string, error) {
	plain, err := im.cipher.Decrypt(row.PrivateKey)
	if err != nil {
		return "", err
	}
	addr, err := wallet.AddressFromKey(plain)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}

// Export writes every stored wallet to path
func (im *Importer) Export(ctx context.Context, path string) (int, error) {
	wallets, err := im.store.ListAll(ctx, "")
	if err != nil {
		return 0, err
	}

	records := make([][]string, 0, len(wallets))
	for _, w := range wallets {
		records = append(records, []string{w.PrivateKey, w.Name, w.Proxy, w.Address, string(w.Status)})
	}

	header := []string{ColPrivateKey, ColName, ColProxy, ColAddress, ColStatus}
	if err := Write(path, header, records); err != nil {
		return 0, fmt.Errorf("failed to export wallets: %w", err)
	}
	return len(records), nil
}

// normalizeProxy accepts host:port and user:pass@host:port shorthands
func normalizeProxy(proxy string) string {
	proxy = strings.TrimSpace(proxy)
	if proxy == "" || strings.Contains(proxy, "://") {
		return proxy
	}
	return "http://" + proxy
}
