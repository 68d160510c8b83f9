package appointments

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the appointments feature. It is disabled without a database.
func NewFeature(db *gorm.DB, loc *time.Location, logger *zap.Logger) *Feature {
	svc := NewService(NewSource(db, logger), loc, logger)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "appointments"
}

// IsEnabled reports whether a database connection is available.
func (f *Feature) IsEnabled() bool {
	return f.service.source.db != nil
}

// Load checks the legacy schema and registers the routes.
func (f *Feature) Load(app fiber.Router) error {
	if err := f.service.source.CheckSchema(); err != nil {
		return err
	}
	f.handler.RegisterRoutes(app)
	return nil
}

// Service returns the feature service.
func (f *Feature) Service() *Service {
	return f.service
}
