// Command seed-db loads the catalog seed file and an initial admin account
// into the database. It is idempotent: categories, products, and promos are
// upserted, and an existing admin user is left untouched.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/northwind-labs/storefront/internal/domain/auth"
	"github.com/northwind-labs/storefront/internal/domain/category"
	"github.com/northwind-labs/storefront/internal/domain/product"
	"github.com/northwind-labs/storefront/internal/domain/promo"
	"github.com/northwind-labs/storefront/internal/repository"
)

type catalogJSON struct {
	Categories []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
		Image       string `json:"image"`
	} `json:"categories"`
	Products []struct {
		ID         string          `json:"id"`
		Name       string          `json:"name"`
		Price      decimal.Decimal `json:"price"`
		Gender     string          `json:"gender"`
		CategoryID string          `json:"category_id"`
		Image      string          `json:"image"`
		InStock    bool            `json:"in_stock"`
	} `json:"products"`
	Promos []struct {
		Code        string          `json:"code"`
		Kind        string          `json:"kind"`
		Value       decimal.Decimal `json:"value"`
		MinSubtotal decimal.Decimal `json:"min_subtotal"`
		Description string          `json:"description"`
		Active      bool            `json:"active"`
	} `json:"promos"`
}

func main() {
	var (
		databaseURL   string
		catalogFile   string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.StringVar(&adminEmail, "admin-email", "", "admin account email (or STORE_ADMIN_EMAIL env)")
	flag.StringVar(&adminPassword, "admin-password", "", "admin account password (or STORE_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminEmail == "" {
		adminEmail = os.Getenv("STORE_ADMIN_EMAIL")
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("STORE_ADMIN_PASSWORD")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile, adminEmail, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	catalog, err := readCatalog(catalogFile)
	if err != nil {
		return err
	}

	if err := seedCatalog(ctx, pool, catalog); err != nil {
		return err
	}

	if adminEmail != "" && adminPassword != "" {
		if err := seedAdmin(ctx, pool, adminEmail, adminPassword); err != nil {
			return errors.Wrap(err, "seed admin")
		}
	} else {
		slog.Info("no admin credentials given, skipping admin account")
	}

	return nil
}

func readCatalog(path string) (*catalogJSON, error) {
	slog.Info("reading catalog file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog file")
	}
	var catalog catalogJSON
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, errors.Wrap(err, "parse catalog JSON")
	}
	return &catalog, nil
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool, catalog *catalogJSON) error {
	categories := repository.NewCategoryRepository(pool)
	products := repository.NewProductRepository(pool)
	promos := repository.NewPromoRepository(pool)

	for _, c := range catalog.Categories {
		err := categories.Create(ctx, &category.Category{
			ID:          c.ID,
			Name:        c.Name,
			Slug:        c.Slug,
			Description: c.Description,
			Image:       c.Image,
		})
		if err != nil {
			return errors.Wrapf(err, "seed category %q", c.Slug)
		}
	}
	slog.Info("seeded categories", slog.Int("count", len(catalog.Categories)))

	for _, p := range catalog.Products {
		err := products.Create(ctx, &product.Product{
			ID:         p.ID,
			Name:       p.Name,
			Price:      p.Price,
			Gender:     p.Gender,
			CategoryID: p.CategoryID,
			Image:      p.Image,
			InStock:    p.InStock,
		})
		if err != nil {
			return errors.Wrapf(err, "seed product %q", p.Name)
		}
	}
	slog.Info("seeded products", slog.Int("count", len(catalog.Products)))

	for _, rule := range catalog.Promos {
		err := promos.Upsert(ctx, &promo.Rule{
			Code:        rule.Code,
			Kind:        promo.Kind(rule.Kind),
			Value:       rule.Value,
			MinSubtotal: rule.MinSubtotal,
			Description: rule.Description,
			Active:      rule.Active,
		})
		if err != nil {
			return errors.Wrapf(err, "seed promo %q", rule.Code)
		}
	}
	slog.Info("seeded promos", slog.Int("count", len(catalog.Promos)))

	return nil
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	users := repository.NewUserRepository(pool)

	if _, err := users.GetByEmail(ctx, email); err == nil {
		slog.Info("admin user already exists", slog.String("email", email))
		return nil
	} else if !errors.Is(err, auth.ErrUserNotFound) {
		return errors.Wrap(err, "check existing admin")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}

	err = users.Create(ctx, &auth.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Store",
		LastName:     "Admin",
		IsAdmin:      true,
	})
	if err != nil {
		return errors.Wrap(err, "create admin user")
	}

	slog.Info("created admin user", slog.String("email", email))
	return nil
}
