// Command catalog-ingest imports supplier product feeds into the catalog.
// Feeds are gzip-compressed JSONL files, one product per line. Files are
// scanned concurrently; SKUs are deduplicated across feeds with a bloom
// filter, first occurrence wins. Products whose category slug is unknown are
// skipped with a warning.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/northwind-labs/storefront/internal/domain/category"
	"github.com/northwind-labs/storefront/internal/domain/product"
	"github.com/northwind-labs/storefront/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

// skuNamespace makes product IDs deterministic per SKU, so re-running the
// ingest updates rows instead of duplicating them.
var skuNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// feedProduct is one line of a supplier feed.
type feedProduct struct {
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Gender       string          `json:"gender"`
	CategorySlug string          `json:"category_slug"`
	Image        string          `json:"image"`
	InStock      bool            `json:"in_stock"`
}

func main() {
	var (
		feedDir     string
		databaseURL string
	)

	flag.StringVar(&feedDir, "feed-dir", "feeds", "directory containing *.jsonl.gz supplier feeds")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, feedDir, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, feedDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(feedDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob feed dir")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz feeds in %s", feedDir)
	}
	sort.Strings(files)

	slog.Info("scanning feeds", slog.Int("files", len(files)))

	perFile, err := scanFeeds(ctx, files)
	if err != nil {
		return errors.Wrap(err, "scan feeds")
	}

	// Merge in feed order; the bloom filter drops SKUs already accepted.
	// A false positive skips a product at the configured FPR.
	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	var merged []feedProduct
	var dupes int
	for _, products := range perFile {
		for _, p := range products {
			if seen.TestString(p.SKU) {
				dupes++
				continue
			}
			seen.AddString(p.SKU)
			merged = append(merged, p)
		}
	}

	slog.Info("feeds merged",
		slog.Int("products", len(merged)),
		slog.Int("duplicates_skipped", dupes),
	)

	if len(merged) == 0 {
		slog.Info("nothing to ingest")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	return writeProducts(ctx, pool, merged)
}

// scanFeeds parses every feed concurrently, keeping per-file order.
func scanFeeds(ctx context.Context, files []string) ([][]feedProduct, error) {
	results := make([][]feedProduct, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(scanFeedFile(ctx, i, f, results))
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func scanFeedFile(ctx context.Context, idx int, path string, results [][]feedProduct) func() error {
	return func() error {
		var products []feedProduct
		var lines, bad uint64

		if err := streamGzFile(ctx, path, func(line []byte) {
			lines++
			if lines%progressEvery == 0 {
				slog.Info("scan progress",
					slog.String("file", filepath.Base(path)),
					slog.Uint64("lines", lines),
				)
			}

			var p feedProduct
			if err := json.Unmarshal(line, &p); err != nil || p.SKU == "" || p.Name == "" || !p.Price.IsPositive() {
				bad++
				return
			}
			products = append(products, p)
		}); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("scan complete",
			slog.String("file", filepath.Base(path)),
			slog.Uint64("lines", lines),
			slog.Uint64("rejected", bad),
			slog.Int("products", len(products)),
		)

		results[idx] = products
		return nil
	}
}

// streamGzFile reads a gzip-compressed file line by line.
func streamGzFile(ctx context.Context, path string, fn func(line []byte)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Bytes())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// writeProducts resolves category slugs and upserts the merged products.
func writeProducts(ctx context.Context, pool *pgxpool.Pool, products []feedProduct) error {
	categories := repository.NewCategoryRepository(pool)
	productRepo := repository.NewProductRepository(pool)

	// Category slugs repeat heavily across a feed; resolve each once.
	categoryIDs := make(map[string]string)
	var written, skipped int

	for i, p := range products {
		id, ok := categoryIDs[p.CategorySlug]
		if !ok {
			c, err := categories.GetBySlug(ctx, p.CategorySlug)
			switch {
			case errors.Is(err, category.ErrNotFound):
				slog.Warn("unknown category slug, skipping product",
					slog.String("sku", p.SKU),
					slog.String("slug", p.CategorySlug),
				)
				categoryIDs[p.CategorySlug] = ""
				skipped++
				continue
			case err != nil:
				return errors.Wrapf(err, "lookup category %q", p.CategorySlug)
			}
			id = c.ID
			categoryIDs[p.CategorySlug] = id
		}
		if id == "" {
			skipped++
			continue
		}

		err := productRepo.Create(ctx, &product.Product{
			ID:         uuid.NewSHA1(skuNamespace, []byte(p.SKU)).String(),
			Name:       p.Name,
			Price:      p.Price.Round(2),
			Gender:     p.Gender,
			CategoryID: id,
			Image:      p.Image,
			InStock:    p.InStock,
		})
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.SKU)
		}
		written++

		if (i+1)%1000 == 0 || i+1 == len(products) {
			slog.Info("write progress", slog.Int("written", written), slog.Int("total", len(products)))
		}
	}

	slog.Info("products written", slog.Int("written", written), slog.Int("skipped", skipped))
	return nil
}
