package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"library-catalog/library"
)

// app holds the components one command run works with.
type app struct {
	logger  library.Logger
	journal *library.Journal
	catalog *library.Catalog
	session *library.Session
}

// openApp seeds a catalog from cfg. Notifications go to out and logs to logOut.
func openApp(cfg Config, out, logOut io.Writer) (*app, error) {
	logger, err := cfg.newLogger(logOut)
	if err != nil {
		return nil, err
	}
	seed, err := cfg.seed()
	if err != nil {
		return nil, fmt.Errorf("load seed: %w", err)
	}
	journal, err := library.OpenJournal(cfg.AuditDB)
	if err != nil {
		return nil, err
	}

	opts := []library.CatalogOption{
		library.WithLogger(logger),
		library.WithLedger(cfg.ledger()),
		library.WithAuditSink(library.TeeSink(library.NewLogSink(logger), journal)),
		library.WithNotifier(library.NotifierFunc(func(n library.Notification) {
			fmt.Fprintln(out, n)
		})),
		library.WithSeed(seed),
	}
	if cfg.Digital {
		opts = append(opts, library.WithDigital())
	}
	catalog, err := library.NewCatalog(opts...)
	if err != nil {
		journal.Close()
		return nil, err
	}

	directory := library.NewDirectory(library.WithDirectoryLogger(logger))
	return &app{
		logger:  logger,
		journal: journal,
		catalog: catalog,
		session: library.NewSession(catalog, directory, logger),
	}, nil
}

func (a *app) Close() error { return a.journal.Close() }

func newRootCmd() *cobra.Command {
	cfg := defaultConfig()

	root := &cobra.Command{
		Use:           "library",
		Short:         "Library catalog manager",
		Long:          "Manage a library catalog: lend, return and reserve books from an interactive shell.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			a.logger.Debug("shell started", "books", a.catalog.Len(), "audit_db", cfg.AuditDB)

			sh := newShell(cmd.InOrStdin(), cmd.OutOrStdout(), a.session)
			if f, ok := cmd.InOrStdin().(*os.File); ok {
				sh.readSecret = terminalSecretReader(f, cmd.OutOrStdout(), sh.readSecret)
			}
			sh.run()
			return nil
		},
	}
	cfg.bindFlags(root.PersistentFlags())

	root.AddCommand(
		newBooksCmd(&cfg),
		newSearchCmd(&cfg),
		newGenresCmd(&cfg),
		newJournalCmd(&cfg),
	)
	return root
}

func newBooksCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "books",
		Short: "List every book in the seeded catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			var books []library.Book
			for b := range a.catalog.Books() {
				books = append(books, b)
			}
			printBooks(cmd.OutOrStdout(), books)
			return nil
		},
	}
}

func newSearchCmd(cfg *Config) *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "search TERM",
		Short: "Search the seeded catalog by title, author or ISBN",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			books, err := a.session.Search(library.SearchField(by), strings.Join(args, " "))
			if err != nil {
				return err
			}
			printBooks(cmd.OutOrStdout(), books)
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", string(library.ByTitle), "title, author or isbn")
	return cmd
}

func newGenresCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "Show available books grouped by genre",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			printGenres(cmd.OutOrStdout(), a.session.GroupByGenre())
			return nil
		},
	}
}

func newJournalCmd(cfg *Config) *cobra.Command {
	var (
		filter library.JournalFilter
		counts bool
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print entries from an audit journal file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.AuditDB == "" {
				return errors.New("journal needs --audit-db (or LIBRARY_AUDIT_DB)")
			}
			j, err := library.OpenJournal(cfg.AuditDB)
			if err != nil {
				return err
			}
			defer j.Close()

			out := cmd.OutOrStdout()
			if counts {
				byAction, err := j.CountByAction()
				if err != nil {
					return err
				}
				printCounts(out, byAction)
				return nil
			}

			entries, err := j.Entries(filter)
			if err != nil {
				return err
			}
			printEntries(out, entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Action, "action", "", "only entries with this action, e.g. LEND_BOOK")
	cmd.Flags().StringVar(&filter.ISBN, "isbn", "", "only entries for this ISBN")
	cmd.Flags().StringVar(&filter.UserID, "user", "", "only entries for this user id")
	cmd.Flags().UintVar(&filter.Limit, "limit", 0, "maximum number of entries (0 for all)")
	cmd.Flags().BoolVar(&counts, "counts", false, "print the number of entries per action instead")
	return cmd
}
