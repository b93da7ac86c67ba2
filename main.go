package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"library-lending/config"
	"library-lending/library"
	"library-lending/logger"
)

// app holds what every command shares. The manager is opened on first use.
type app struct {
	flags config.Flags
	cfg   *config.Config
	log   *slog.Logger
	mgr   *library.LibraryManager
	p     *printer

	in     io.Reader
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, stdout, stderr io.Writer) int {
	a := &app{in: in, stdout: stdout, stderr: stderr, now: time.Now}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "lend",
		Short:         "Manage the books and loans of a small library",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
		RunE: func(*cobra.Command, []string) error {
			return a.runMenu()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.DataDir, "data-dir", "", "directory holding the library files (default \"data\")")
	pf.StringVar(&a.flags.Backend, "backend", "", "storage backend: files or sqlite (default \"files\")")
	pf.StringVar(&a.flags.EnvFile, "env-file", "", "path to .env file (default \".env\")")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.flags.LogFormat, "log-format", "", "log format: text or json")
	pf.StringVar(&a.flags.Currency, "currency", "", "ISO currency used to display fees (default \"EUR\")")

	root.AddCommand(
		newMenuCmd(a),
		newBookCmd(a),
		newBorrowCmd(a),
		newLoansCmd(a),
		newReturnCmd(a),
		newBorrowerCmd(a),
		newMigrateCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.flags)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.New(logger.Config{
		Writer: a.stderr,
		Format: cfg.Logger.Format,
		Level:  logger.ParseLevel(cfg.Logger.Level),
	})
	a.p = newPrinter(a.stdout, cfg.Currency)
	return nil
}

// openStore opens the configured files of backend.
func (a *app) openStore(backend string) (library.Store, error) {
	return library.OpenStore(a.cfg.Storage.StoreConfig(backend), a.log)
}

// manager opens the configured store and loads the library.
func (a *app) manager() (*library.LibraryManager, error) {
	if a.mgr != nil {
		return a.mgr, nil
	}
	store, err := a.openStore(a.cfg.Storage.Backend)
	if err != nil {
		return nil, err
	}
	mgr, err := library.NewLibraryManager(store,
		library.WithLogger(a.log),
		library.WithClock(a.now),
		library.WithPhotosDir(a.cfg.Storage.Path(a.cfg.Storage.PhotosDir)),
	)
	if err != nil {
		store.Close()
		return nil, err
	}
	a.mgr = mgr
	return mgr, nil
}

func (a *app) close() {
	if a.mgr == nil {
		return
	}
	if err := a.mgr.Close(); err != nil {
		a.log.Warn("failed to close store", "error", err)
	}
	a.mgr = nil
}
