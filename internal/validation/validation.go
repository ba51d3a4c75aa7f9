package validation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zfogg/formdesk/internal/logger"
	"go.uber.org/zap"
)

// Check probes one external dependency.
type Check func(ctx context.Context) error

// ServiceValidator handles validation of the services an operator marked as
// required
type ServiceValidator struct {
	requiredServices []string
	checks           map[string]Check
	timeout          time.Duration
}

// NewServiceValidator creates a new service validator. required names keys
// of checks; unknown names are logged and skipped.
func NewServiceValidator(required []string, checks map[string]Check) *ServiceValidator {
	normalized := make([]string, 0, len(required))
	for _, name := range required {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			normalized = append(normalized, name)
		}
	}
	return &ServiceValidator{
		requiredServices: normalized,
		checks:           checks,
		timeout:          10 * time.Second,
	}
}

// ValidateServices runs the check of every required service and fails on
// the first one that is unreachable.
func (sv *ServiceValidator) ValidateServices(ctx context.Context) error {
	if len(sv.requiredServices) == 0 {
		logger.Log.Info("No required services configured for validation")
		return nil
	}

	logger.Log.Info("Validating required services",
		zap.Strings("services", sv.requiredServices),
	)

	for _, serviceName := range sv.requiredServices {
		check, ok := sv.checks[serviceName]
		if !ok {
			logger.Log.Warn("Unknown service type in validation",
				zap.String("service", serviceName),
			)
			continue
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, sv.timeout)
		err := check(timeoutCtx)
		cancel()
		if err != nil {
			logger.Log.Error("Required service validation failed",
				zap.String("service", serviceName),
				zap.Error(err),
			)
			return fmt.Errorf("required service %q validation failed: %w", serviceName, err)
		}

		logger.Log.Info("Service validated successfully",
			zap.String("service", serviceName),
		)
	}

	logger.Log.Info("All required services validated successfully")
	return nil
}
