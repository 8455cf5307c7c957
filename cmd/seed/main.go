package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"photo-market/internal/config"
	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/repository"
	pg "photo-market/internal/infra/db/postgres"
	"photo-market/internal/infra/logging"
	"photo-market/internal/usecase"

	"github.com/jackc/pgx/v4"
)

// seed prepares a predictable local database: a demo seller and a handful of
// approved ads. With -reset it empties the marketplace tables first.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	reset := flag.Bool("reset", false, "truncate users, ads and payments before seeding")
	tgID := flag.Int64("tg-id", 100000001, "telegram id of the demo seller")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := pg.Migrate(cfg.Database.URL, logger); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	if *reset {
		if _, err := pool.Exec(ctx, `TRUNCATE users, ads, ad_images, payments RESTART IDENTITY CASCADE`); err != nil {
			logger.Fatal().Err(err).Msg("reset tables")
		}
		logger.Info().Msg("marketplace tables truncated")
	}

	tm := pg.NewTxManager(pool)
	users := pg.NewUserRepo(pool)
	ads := pg.NewAdRepo(pool)
	userUC := usecase.NewUserUseCase(users, tm, logger)

	seller, err := userUC.CreateOrUpdate(ctx, *tgID, model.UserProfile{
		PhoneNumber: "09120000000",
		FirstName:   "فروشنده",
		LastName:    "نمونه",
		Username:    "demo_seller",
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("seed user")
	}

	existing, err := ads.ListByUser(ctx, repository.NoTX, seller.ID)
	if err != nil {
		logger.Fatal().Err(err).Msg("list ads")
	}
	if len(existing) > 0 {
		logger.Info().Int("ads", len(existing)).Str("user_id", seller.ID).Msg("demo ads already present; no changes")
		return
	}

	samples := []model.AdPayload{
		{Title: "دوربین کانن 5D Mark IV", Description: "بدنه سالم، شاتر ۲۰ هزار، با جعبه و شارژر", Category: model.CategoryCamera, Condition: model.ConditionLikeNew, Brand: "Canon", Price: 85_000_000, Province: "تهران", City: "تهران"},
		{Title: "لنز سونی 24-70 GM", Description: "بدون خط و قارچ، فیلتر UV همراه", Category: model.CategoryLens, Condition: model.ConditionUsed, Brand: "Sony", Price: 62_000_000, Province: "اصفهان", City: "اصفهان"},
		{Title: "سه پایه منفروتو", Description: "سه پایه آلومینیومی با هد بال", Category: model.CategoryAccessories, Condition: model.ConditionNew, Brand: "Manfrotto", Price: 9_500_000, Province: "فارس", City: "شیراز"},
	}

	now := time.Now()
	err = tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		for _, p := range samples {
			ad, err := model.NewAd(seller.ID, p, model.AdStatusApproved, now)
			if err != nil {
				return fmt.Errorf("build %q: %w", p.Title, err)
			}
			if err := ads.Save(ctx, tx, ad); err != nil {
				return fmt.Errorf("save %q: %w", p.Title, err)
			}
			logger.Info().Str("ad_id", ad.ID).Str("title", ad.Title).Msg("seeded ad")
		}
		return nil
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("seed ads")
	}
	logger.Info().Str("user_id", seller.ID).Int("ads", len(samples)).Msg("seeding complete")
}
