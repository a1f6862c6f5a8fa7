package db

import (
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/brokerpulse/incentive-backend/internal/logger"
	"github.com/brokerpulse/incentive-backend/internal/types"
	"github.com/brokerpulse/incentive-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	log.Info("Loading environment variables...")
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "incentive", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := gormDB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gormDB, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Agent{},
		&types.AgentToken{},
		&types.Campaign{},
		&types.CampaignCriterion{},
		&types.Policy{},
		&types.PolicyCampaignLink{},
		&types.Prize{},
		&types.AwardedPrize{},
		&types.RedemptionOrder{},
		&types.ClassifierCallLog{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	fks := []struct {
		table, name, column, refTable string
	}{
		{"agent_token", "fk_agent_token_agent_id", "agent_id", "agent"},
		{"campaign", "fk_campaign_agent_id", "agent_id", "agent"},
		{"campaign_criterion", "fk_campaign_criterion_campaign_id", "campaign_id", "campaign"},
		{"policy", "fk_policy_agent_id", "agent_id", "agent"},
		{"policy_campaign_link", "fk_policy_campaign_link_policy_id", "policy_id", "policy"},
		{"policy_campaign_link", "fk_policy_campaign_link_campaign_id", "campaign_id", "campaign"},
		{"prize", "fk_prize_campaign_id", "campaign_id", "campaign"},
		{"awarded_prize", "fk_awarded_prize_campaign_id", "campaign_id", "campaign"},
	}
	for _, fk := range fks {
		stmt := fmt.Sprintf(`
			DO $$ BEGIN
				IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
					ALTER TABLE "%s" ADD CONSTRAINT "%s" FOREIGN KEY ("%s") REFERENCES "%s"("id") ON DELETE CASCADE;
				END IF;
			END $$;
		`, fk.name, fk.table, fk.name, fk.column, fk.refTable)
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", fk.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

// AdvisoryXactLock serializes competing writers on one entity for the
// duration of the surrounding transaction. Two recomputations racing on the
// same campaign queue up here instead of double-awarding.
func AdvisoryXactLock(tx *gorm.DB, namespace string, id uuid.UUID) error {
	if tx == nil || namespace == "" || id == uuid.Nil {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(?)", advisoryKey64(namespace, id)).Error
}

func advisoryKey64(namespace string, id uuid.UUID) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(namespace))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(id.String()))
	return int64(h.Sum64())
}
