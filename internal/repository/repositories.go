package repository

import "log/slog"

// Repositories bundles every repository built on one DB.
type Repositories struct {
	Users              UserRepository
	Applications       ApplicationRepository
	JobOffers          JobOfferRepository
	Documents          DocumentRepository
	Templates          TemplateRepository
	GenerationTasks    GenerationTaskRepository
	GeneratedDocuments GeneratedDocumentRepository
	Matching           MatchingRepository
}

func NewRepositories(db *DB, logger *slog.Logger) *Repositories {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repositories{
		Users:              NewUserRepository(db, logger),
		Applications:       NewApplicationRepository(db, logger),
		JobOffers:          NewJobOfferRepository(db, logger),
		Documents:          NewDocumentRepository(db, logger),
		Templates:          NewTemplateRepository(db, logger),
		GenerationTasks:    NewGenerationTaskRepository(db, logger),
		GeneratedDocuments: NewGeneratedDocumentRepository(db, logger),
		Matching:           NewMatchingRepository(db, logger),
	}
}
