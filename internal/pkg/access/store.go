package access

import (
	"github.com/juridiskporten/portal/app/models"
	"github.com/juridiskporten/portal/app/repository"
)

// repositoryStore adapts the repository layer to the evaluator's Store.
type repositoryStore struct {
	users    repository.UserRepository
	packages repository.PackageRepository
	subs     repository.SubscriptionRepository
}

// NewRepositoryStore builds an evaluator store from the repositories.
func NewRepositoryStore(repos *repository.Repositories) Store {
	return &repositoryStore{
		users:    repos.User,
		packages: repos.Package,
		subs:     repos.Subscription,
	}
}

func (s *repositoryStore) GetUser(id uint) (*models.User, error) {
	return s.users.GetByID(id)
}

func (s *repositoryStore) GetPackage(id uint) (*models.LegalPackage, error) {
	return s.packages.GetByID(id)
}

func (s *repositoryStore) ListEntitling(userID, packageID uint) ([]models.PackageSubscription, error) {
	return s.subs.ListEntitling(userID, packageID)
}
