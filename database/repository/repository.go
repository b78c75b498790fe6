package repository

import (
	"context"

	"wellness/database"
	providerRepo "wellness/database/repository/provider"
	quotaRepo "wellness/database/repository/quota"
	recurringRepo "wellness/database/repository/recurring"
	schedulerRepo "wellness/database/repository/scheduler"
	timeslotRepo "wellness/database/repository/timeslot"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Re-export the repository interfaces.
type (
	ProviderRepository  = providerRepo.ProviderRepository
	QuotaRepository     = quotaRepo.QuotaRepository
	RecurringRepository = recurringRepo.RecurringRepository
	SchedulerRepository = schedulerRepo.SchedulerRepository
	SlotRepository      = timeslotRepo.SlotRepository
)

// Repositories bundles one backend's implementations with its transactor.
type Repositories struct {
	Providers ProviderRepository
	Quota     QuotaRepository
	Recurring RecurringRepository
	Scheduler SchedulerRepository
	Slots     SlotRepository
	Tx        database.Transactor
	Health    interface{ Ping(context.Context) error }
}

// NewMongoRepositories wires every repository to one MongoDB database.
// Transactions require a replica set.
func NewMongoRepositories(client *mongo.Client, db *mongo.Database) *Repositories {
	return &Repositories{
		Providers: providerRepo.NewMongoProviderRepo(db),
		Quota:     quotaRepo.NewMongoQuotaRepo(db),
		Recurring: recurringRepo.NewMongoRecurringRepo(db),
		Scheduler: schedulerRepo.NewMongoSchedulerRepo(db),
		Slots:     timeslotRepo.NewMongoSlotRepo(db),
		Tx:        database.NewMongoTransactor(client),
		Health:    database.MongoPinger(client),
	}
}

// NewGormRepositories wires every repository to a postgres or sqlite handle.
func NewGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Providers: providerRepo.NewGormProviderRepo(db),
		Quota:     quotaRepo.NewGormQuotaRepo(db),
		Recurring: recurringRepo.NewGormRecurringRepo(db),
		Scheduler: schedulerRepo.NewGormSchedulerRepo(db),
		Slots:     timeslotRepo.NewGormSlotRepo(db),
		Tx:        database.NewGormTransactor(db),
		Health:    database.GormPinger(db),
	}
}

// EnsureMongoIndexes creates every collection index the engine queries on.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	for _, ensure := range []func(context.Context, *mongo.Database) error{
		providerRepo.EnsureIndexes,
		quotaRepo.EnsureIndexes,
		recurringRepo.EnsureIndexes,
		schedulerRepo.EnsureIndexes,
		timeslotRepo.EnsureIndexes,
	} {
		if err := ensure(ctx, db); err != nil {
			return err
		}
	}
	return nil
}
