package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/term"
	"gorm.io/gorm"

	"github.com/lisanmuaddib/hyperfarm/internal/farmconfig"
	"github.com/lisanmuaddib/hyperfarm/pkg/db"
	"github.com/lisanmuaddib/hyperfarm/pkg/db/models"
	"github.com/lisanmuaddib/hyperfarm/pkg/secrets"
	"github.com/lisanmuaddib/hyperfarm/pkg/settings"
	"github.com/lisanmuaddib/hyperfarm/pkg/sheets"
	"github.com/lisanmuaddib/hyperfarm/pkg/store"
	"github.com/lisanmuaddib/hyperfarm/pkg/summary"
)

// runtime holds what commands share once loaded
type runtime struct {
	ctx context.Context
	env settings.EnvConfig
	log *logrus.Logger

	settings *settings.Settings
	cipher   *secrets.Cipher
	conn     *gorm.DB
	store    *store.WalletStore
}

func (r *runtime) commands() []cli.Command {
	fileFlag := cli.StringFlag{
		Name:  "file, f",
		Value: r.env.ImportFile,
		Usage: "spreadsheet path (.xlsx or .csv)",
	}

	return []cli.Command{
		{
			Name:   "import",
			Usage:  "import wallets from the spreadsheet",
			Flags:  []cli.Flag{fileFlag},
			Action: r.importWallets,
		},
		{
			Name:   "export",
			Usage:  "write every stored wallet to a spreadsheet",
			Flags:  []cli.Flag{cli.StringFlag{Name: "file, f", Value: "files/export.xlsx", Usage: "output path"}},
			Action: r.exportWallets,
		},
		{
			Name:   "delete",
			Usage:  "delete the wallets listed in the spreadsheet",
			Flags:  []cli.Flag{fileFlag},
			Action: r.deleteWallets,
		},
		{
			Name:   "delete-all",
			Usage:  "delete every stored wallet",
			Flags:  []cli.Flag{cli.BoolFlag{Name: "yes", Usage: "skip confirmation"}},
			Action: r.deleteAll,
		},
		{
			Name:   "run",
			Usage:  "run the scheduler until interrupted",
			Action: r.run,
		},
		{
			Name:   "summary",
			Usage:  "print wallet counts, timers and settings",
			Flags:  []cli.Flag{cli.BoolFlag{Name: "no-color", Usage: "disable colored output"}},
			Action: r.summary,
		},
		{
			Name:   "requeue",
			Usage:  "move wallets in 'not started' back to 'initial', due immediately",
			Action: r.requeue,
		},
		{
			Name:   "encrypt",
			Usage:  "print the ciphertext of a private key typed at a hidden prompt",
			Action: r.encrypt,
		},
		{
			Name:   "balances",
			Usage:  "write native balances per wallet and chain as JSON",
			Flags:  []cli.Flag{cli.StringFlag{Name: "out, o", Value: "files/balances.json", Usage: "output path, - for stdout"}},
			Action: r.balances,
		},
	}
}

// load reads settings, opens the database and prepares the key cipher
func (r *runtime) load() error {
	s, err := settings.Load(r.env.SettingsFile)
	if err != nil {
		return err
	}
	r.settings = s

	if _, err := sheets.EnsureTemplate(r.env.ImportFile); err != nil {
		r.log.WithError(err).Warn("Failed to create import template")
	}

	conn, err := db.SetupDatabase(r.log, db.NewConfigFromEnv())
	if err != nil {
		return err
	}
	r.conn = conn
	r.store = store.NewWalletStore(r.log, conn)

	return r.loadCipher()
}

func (r *runtime) loadCipher() error {
	if !r.settings.UsePrivateKeyEncryption {
		r.cipher = secrets.Plain()
		return nil
	}

	salt, err := secrets.LoadOrCreateSalt(r.env.SaltFile)
	if err != nil {
		return err
	}
	password, err := readSecret("Password: ")
	if err != nil {
		return err
	}
	cipher, err := secrets.New(password, salt)
	if err != nil {
		return err
	}

	// A stored key that does not open means the password is wrong
	wallets, err := r.store.ListAll(r.ctx, "")
	if err != nil {
		return err
	}
	if len(wallets) > 0 {
		if _, err := cipher.Decrypt(wallets[0].PrivateKey); err != nil {
			return err
		}
	}

	r.cipher = cipher
	return nil
}

func (r *runtime) close() {
	if r.conn == nil {
		return
	}
	if sqlDB, err := r.conn.DB(); err == nil {
		sqlDB.Close()
	}
}

func readSecret(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if len(secret) == 0 {
		return nil, errors.New("input cannot be empty")
	}
	return secret, nil
}

func (r *runtime) importWallets(c *cli.Context) error {
	if err := r.load(); err != nil {
		return err
	}

	rows, err := sheets.ReadRows(c.String("file"))
	if err != nil {
		return err
	}

	report, err := sheets.NewImporter(r.log, r.store, r.cipher, r.settings).Import(r.ctx, rows)
	if err != nil {
		return err
	}

	r.log.WithFields(logrus.Fields{
		"total":    report.Total,
		"imported": report.Imported,
		"edited":   report.Edited,
		"skipped":  report.Skipped,
	}).Info("Import finished")
	return nil
}

func (r *runtime) exportWallets(c *cli.Context) error {
	if err := r.load(); err != nil {
		return err
	}

	path := c.String("file")
	n, err := sheets.NewImporter(r.log, r.store, r.cipher, r.settings).Export(r.ctx, path)
	if err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{"path": path, "wallets": n}).Info("Export finished")
	return nil
}

func (r *runtime) deleteWallets(c *cli.Context) error {
	if err := r.load(); err != nil {
		return err
	}

	rows, err := sheets.ReadRows(c.String("file"))
	if err != nil {
		return err
	}

	n, err := sheets.NewImporter(r.log, r.store, r.cipher, r.settings).Delete(r.ctx, rows)
	if err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{"listed": len(rows), "deleted": n}).Info("Wallets deleted")
	return nil
}

func (r *runtime) deleteAll(c *cli.Context) error {
	if err := r.load(); err != nil {
		return err
	}

	if !c.Bool("yes") {
		fmt.Fprint(os.Stderr, "Type 'yes' to delete every wallet: ")
		answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if strings.TrimSpace(answer) != "yes" {
			r.log.Info("Aborted")
			return nil
		}
	}

	n, err := r.store.DeleteAll(r.ctx)
	if err != nil {
		return err
	}
	r.log.WithField("deleted", n).Info("All wallets deleted")
	return nil
}

func (r *runtime) run(_ *cli.Context) error {
	if err := r.load(); err != nil {
		return err
	}

	farm, err := farmconfig.NewFarm(farmconfig.FarmConfig{
		Logger:   r.log,
		Settings: r.settings,
		Store:    r.store,
		Cipher:   r.cipher,
	})
	if err != nil {
		return err
	}

	r.log.Info("Starting wallet farm")
	if err := farm.Run(r.ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	r.log.Info("Farm shutdown complete")
	return nil
}

func (r *runtime) summary(c *cli.Context) error {
	if err := r.load(); err != nil {
		return err
	}

	wallets, err := r.store.ListAll(r.ctx, "")
	if err != nil {
		return err
	}

	plain := c.Bool("no-color") || color.NoColor
	summary.Render(os.Stdout, summary.Build(wallets, r.settings, time.Now()), plain)
	return nil
}

func (r *runtime) requeue(_ *cli.Context) error {
	if err := r.load(); err != nil {
		return err
	}

	n, err := r.store.Requeue(r.ctx, models.StatusNotStarted, 0)
	if err != nil {
		return err
	}
	r.log.WithField("wallets", n).Info("Wallets moved back to initial")
	return nil
}

func (r *runtime) encrypt(_ *cli.Context) error {
	s, err := settings.Load(r.env.SettingsFile)
	if err != nil {
		return err
	}
	if !s.UsePrivateKeyEncryption {
		return errors.New("use_private_key_encryption is disabled in settings")
	}

	salt, err := secrets.LoadOrCreateSalt(r.env.SaltFile)
	if err != nil {
		return err
	}
	password, err := readSecret("Password: ")
	if err != nil {
		return err
	}
	cipher, err := secrets.New(password, salt)
	if err != nil {
		return err
	}

	key, err := readSecret("Private key: ")
	if err != nil {
		return err
	}
	sealed, err := cipher.Encrypt(strings.TrimSpace(string(key)))
	if err != nil {
		return err
	}

	fmt.Println(sealed)
	return nil
}

func (r *runtime) balances(c *cli.Context) error {
	if err := r.load(); err != nil {
		return err
	}

	wallets, err := r.store.ListAll(r.ctx, "")
	if err != nil {
		return err
	}

	dialer := farmconfig.NewChainDialer(r.log, r.settings)
	result, err := farmconfig.Balances(r.ctx, r.log, dialer, r.cipher, r.settings, wallets)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode balances: %w", err)
	}

	out := c.String("out")
	if out == "-" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	r.log.WithFields(logrus.Fields{"path": out, "wallets": len(result)}).Info("Balances written")
	return nil
}
