package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/protkit/protkit/internal/config"
	"github.com/protkit/protkit/internal/domain/protein"
	"github.com/protkit/protkit/internal/platform/blast"
	"github.com/protkit/protkit/internal/platform/db"
	"github.com/protkit/protkit/internal/platform/middleware"
	"github.com/protkit/protkit/internal/platform/seqio"
	"github.com/protkit/protkit/internal/platform/uniprot"
	"github.com/protkit/protkit/pkg/proteome"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "protkit",
		Short:        "Fetch, convert, search and store protein sequences",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(blastCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(serveCmd())
	return rootCmd
}

// setup loads configuration and builds the logger. Logs go to stderr so
// that command output on stdout stays clean.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, newLogger(cfg, os.Stderr), nil
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	logger := zerolog.New(w).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	return logger.Level(cfg.Level())
}

func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch ID...",
		Short: "Fetch protein sequences from UniProt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			format, _ := cmd.Flags().GetString("format")
			width, _ := cmd.Flags().GetInt("width")

			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			client := uniprot.NewClient(
				uniprot.WithBaseURL(cfg.UniProtBaseURL),
				uniprot.WithLogger(logger),
			)
			p, err := client.FetchProteome(cmd.Context(), args...)
			if err != nil {
				return err
			}
			logger.Info().Int("count", p.Len()).Msg("fetched proteins")

			w, closeOut, err := openOutput(cmd, out)
			if err != nil {
				return err
			}
			defer closeOut()
			return writeProteome(w, p, format, width, seqio.CSVWriterOptions{})
		},
	}
	cmd.Flags().String("out", "", "Output file (default stdout)")
	cmd.Flags().String("format", "fasta", "Output format: fasta or csv")
	cmd.Flags().Int("width", seqio.DefaultLineWidth, "FASTA line width")
	return cmd
}

func convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Convert between FASTA and delimited tables",
		Long: "Convert a FASTA file into an identifier/sequence table, or a table " +
			"with identifier and sequence columns back into FASTA. The direction " +
			"follows the input extension: .csv and .tsv are tables, anything else is FASTA.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delim, _ := cmd.Flags().GetString("delimiter")
			index, _ := cmd.Flags().GetBool("index")
			width, _ := cmd.Flags().GetInt("width")

			_, logger, err := setup()
			if err != nil {
				return err
			}
			in, out := args[0], args[1]
			tablePath := out
			if isTable(in) {
				tablePath = in
			}
			comma, err := parseDelimiter(delim, tablePath)
			if err != nil {
				return err
			}

			if isTable(in) {
				t, err := seqio.ReadCSVFile(in, seqio.CSVOptions{Delimiter: comma})
				if err != nil {
					return err
				}
				p, err := seqio.ProteomeFromTable(t)
				if err != nil {
					return err
				}
				logger.Info().Str("in", in).Str("out", out).Int("count", p.Len()).Msg("table converted")
				return seqio.WriteFASTAFile(out, p, width)
			}

			p, err := seqio.NewFASTAReader(in, seqio.WithLogger(logger)).ReadToProteome()
			if err != nil {
				return err
			}
			logger.Info().Str("in", in).Str("out", out).Int("count", p.Len()).Msg("fasta converted")
			return seqio.WriteCSVFile(out, seqio.TableFromProteome(p),
				seqio.CSVWriterOptions{Delimiter: comma, Index: index})
		},
	}
	cmd.Flags().String("delimiter", "", `Field delimiter (default "," or tab for .tsv)`)
	cmd.Flags().Bool("index", false, "Write a leading row-number column")
	cmd.Flags().Int("width", seqio.DefaultLineWidth, "FASTA line width")
	return cmd
}

func blastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blast FASTA",
		Short: "Run a blastp search against swissprot for every protein in a FASTA file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entrez, _ := cmd.Flags().GetString("entrez-query")
			expect, _ := cmd.Flags().GetFloat64("expect")
			hitlist, _ := cmd.Flags().GetInt("hitlist-size")
			outDir, _ := cmd.Flags().GetString("out-dir")

			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = cfg.BLASTReportDir
			}

			p, err := seqio.NewFASTAReader(args[0], seqio.WithLogger(logger)).ReadToProteome()
			if err != nil {
				return err
			}

			client := blast.NewClient(
				blast.WithBaseURL(cfg.BLASTBaseURL),
				blast.WithPollInterval(cfg.BLASTPollInterval),
				blast.WithLogger(logger),
			)
			search := blast.NewSearch(p, blast.SearchOptions{
				EntrezQuery: entrez,
				Expect:      expect,
				HitlistSize: hitlist,
			}, client)
			search.SetLogger(logger)

			handles, err := search.Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, h := range handles {
				records, err := blast.ParseXML(h.NewReader())
				if err != nil {
					return fmt.Errorf("report for %s: %w", h.QueryID, err)
				}
				hits := 0
				for _, rec := range records {
					hits += len(rec.Alignments)
				}
				fmt.Fprintf(out, "%s\t%s\t%d\n", h.QueryID, h.RID, hits)
			}

			if outDir != "" {
				paths, err := blast.SaveReports(outDir, "xml", handles)
				if err != nil {
					return err
				}
				logger.Info().Str("dir", outDir).Int("reports", len(paths)).Msg("reports saved")
			}
			return nil
		},
	}
	cmd.Flags().String("entrez-query", "", `Restrict the database, e.g. "Arabidopsis thaliana[organism]"`)
	cmd.Flags().Float64("expect", 0, "Expect value threshold")
	cmd.Flags().Int("hitlist-size", 0, "Maximum number of hits per query")
	cmd.Flags().String("out-dir", "", "Directory for the XML reports (default BLAST_REPORT_DIR)")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FASTA...",
		Short: "Store the proteins of FASTA files in the database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _ := cmd.Flags().GetString("source")

			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if err := cfg.RequireDatabase(); err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := db.Open(ctx, poolConfig(cfg), logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := protein.NewService(protein.NewProteinRepoPG(pool))
			svc.SetTxRunner(func(ctx context.Context, fn func(context.Context) error) error {
				return db.WithTx(ctx, pool, fn)
			})
			svc.SetLogger(logger)

			for _, path := range args {
				p, err := seqio.NewFASTAReader(path, seqio.WithLogger(logger)).ReadToProteome()
				if err != nil {
					return err
				}
				label := source
				if label == "" {
					label = filepath.Base(path)
				}
				n, err := svc.ImportProteome(ctx, p, label)
				if err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d protein(s) from %s.\n", n, path)
			}
			return nil
		},
	}
	cmd.Flags().String("source", "", "Source label stored with each protein (default file name)")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}
	cmd.PersistentFlags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")

	connect := func(cmd *cobra.Command) (*db.Migrator, func(), error) {
		cfg, logger, err := setup()
		if err != nil {
			return nil, nil, err
		}
		if err := cfg.RequireDatabase(); err != nil {
			return nil, nil, err
		}
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.MigrationsDir
		}
		pool, err := db.Open(cmd.Context(), poolConfig(cfg), logger)
		if err != nil {
			return nil, nil, err
		}
		return db.NewMigrator(pool, dir), pool.Close, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			count, err := migrator.Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			statuses, err := migrator.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	})
	return cmd
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	for _, s := range statuses {
		status, appliedAt := "pending", ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the protein API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	pool, err := db.Open(ctx, poolConfig(cfg), logger)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	svc := protein.NewService(protein.NewProteinRepoPG(pool))
	svc.SetTxRunner(func(ctx context.Context, fn func(context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	})
	svc.SetLogger(logger)

	e := newServer(cfg, logger, svc)
	health := db.HealthCheck{
		DB:      pool,
		Stats:   func() db.PoolStats { return db.GetPoolStats(pool) },
		Pending: db.NewMigrator(pool, cfg.MigrationsDir).Pending,
	}
	e.GET("/health/db", health.Handler())

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func poolConfig(cfg *config.Config) db.PoolConfig {
	return db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns}
}

func newServer(cfg *config.Config, logger zerolog.Logger, svc *protein.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID(logger))
	e.Use(middleware.AccessLog())
	e.Use(middleware.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.UploadLimit))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	apiV1 := e.Group("/api/v1")
	protein.NewHandler(svc).RegisterRoutes(apiV1)
	return e
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	fh, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return fh, func() { fh.Close() }, nil
}

func writeProteome(w io.Writer, p *proteome.Proteome, format string, width int, opts seqio.CSVWriterOptions) error {
	switch strings.ToLower(format) {
	case "fasta", "":
		return seqio.NewFASTAWriter(w, width).WriteProteome(p)
	case "csv":
		return seqio.NewCSVWriter(w, opts).Write(seqio.TableFromProteome(p))
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func isTable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return true
	}
	return false
}

// parseDelimiter accepts a single character or "tab". An empty value
// selects tab for .tsv paths and comma otherwise.
func parseDelimiter(s, path string) (rune, error) {
	switch {
	case s == "" && strings.EqualFold(filepath.Ext(path), ".tsv"):
		return '\t', nil
	case s == "":
		return ',', nil
	case s == "tab" || s == `\t`:
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	return r[0], nil
}
