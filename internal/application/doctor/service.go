package doctor

import (
	"context"
	"errors"
	"fmt"

	appconfig "github.com/doeshing/formatapi/internal/application/config"
	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/ports"
)

// OCRChecker reports which OCR modes exist and whether each can run.
type OCRChecker interface {
	Modes() []string
	Check(mode string) error
}

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	History        ports.HistoryRepository
	Templates      ports.TemplateRepository
	OCR            OCRChecker
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	if err := appconfig.Validate(cfg); err != nil {
		checks = append(checks, fail("Config file", err.Error()))
	} else {
		checks = append(checks, ok("Config file", fmt.Sprintf("loaded version %s", cfg.ConfigFormatVersion)))
	}

	if s.History != nil {
		records, err := s.History.Load()
		checks = append(checks, storeCheck("History store", s.History.Path(), len(records), err))
	} else {
		checks = append(checks, warn("History store", "not initialized"))
	}

	if s.Templates != nil {
		templates, err := s.Templates.Load()
		checks = append(checks, storeCheck("Template store", s.Templates.Path(), len(templates), err))
	}

	if s.OCR != nil {
		for _, mode := range s.OCR.Modes() {
			checks = append(checks, ocrCheck(mode, mode == cfg.Preferences.OCRMode, s.OCR.Check(mode)))
		}
	} else {
		checks = append(checks, warn("OCR", "adapter not initialized"))
	}

	return domain.HealthReport{Checks: checks}, nil
}

func storeCheck(name, path string, count int, err error) domain.HealthCheck {
	switch {
	case err == nil:
		return ok(name, fmt.Sprintf("%d entries in %s", count, path))
	case errors.Is(err, domain.ErrCorruptStore):
		return warn(name, fmt.Sprintf("corrupt, will be moved aside on next write: %v", err))
	default:
		return fail(name, err.Error())
	}
}

func ocrCheck(mode string, preferred bool, err error) domain.HealthCheck {
	name := "OCR " + mode
	if preferred {
		name += " (default)"
	}
	if err == nil {
		return ok(name, "ready")
	}
	if preferred {
		return fail(name, err.Error())
	}
	return warn(name, err.Error())
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
