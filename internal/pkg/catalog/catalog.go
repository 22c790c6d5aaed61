// Package catalog serves the public legal-package catalog with a Redis
// cache in front of the database.
package catalog

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/juridiskporten/portal/app/models"
	"github.com/juridiskporten/portal/internal/pkg/cache"
)

const (
	CacheKeyPackages = "catalog:packages:active"
	CacheExpiration  = 10 * time.Minute
)

// PackageLister is the repository slice the catalog reads from.
type PackageLister interface {
	GetActive() ([]models.LegalPackage, error)
	GetBySlug(slug string) (*models.LegalPackage, error)
}

// Service answers catalog queries, preferring the Redis cache.
type Service struct {
	packages PackageLister
}

func NewService(packages PackageLister) *Service {
	return &Service{packages: packages}
}

// ListActive returns all purchasable packages in display order.
// Cache misses and cache errors fall through to the database.
func (s *Service) ListActive() ([]models.LegalPackage, error) {
	if raw, err := cache.Get(CacheKeyPackages); err == nil && raw != "" {
		var cached []models.LegalPackage
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, nil
		}
		// Stale or corrupt entry, drop it and rebuild below
		_ = cache.Delete(CacheKeyPackages)
	}

	packages, err := s.packages.GetActive()
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(packages); err == nil {
		if err := cache.Set(CacheKeyPackages, string(data), CacheExpiration); err != nil {
			log.Warnf("[Catalog] Failed to cache package list: %v", err)
		}
	}

	return packages, nil
}

// GetBySlug resolves one package by its URL slug, uncached.
func (s *Service) GetBySlug(slug string) (*models.LegalPackage, error) {
	return s.packages.GetBySlug(slug)
}

// Invalidate drops the cached package list. Admin mutations call this so
// catalog pages pick up changes immediately.
func (s *Service) Invalidate() {
	if err := cache.Delete(CacheKeyPackages); err != nil {
		log.Warnf("[Catalog] Failed to invalidate package cache: %v", err)
	}
}
