package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

// ListPackages возвращает пакеты; activeOnly оставляет только активные.
func (s *PaymentService) ListPackages(ctx context.Context, activeOnly bool) ([]models.Package, error) {
	const op = "payment.ListPackages"
	res, err := s.repo.ListPackages(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// GetPackage возвращает пакет по ID.
func (s *PaymentService) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	const op = "payment.GetPackage"
	res, err := s.repo.GetPackage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// normalizePricing проверяет периоды и приводит валюту к верхнему регистру.
// Один период не может встречаться дважды.
func normalizePricing(options []models.PricingOption) ([]models.PricingOption, error) {
	if len(options) == 0 {
		return nil, fmt.Errorf("no pricing options: %w", models.ErrBadInput)
	}
	seen := make(map[models.BillingCycle]struct{}, len(options))
	res := make([]models.PricingOption, 0, len(options))
	for _, opt := range options {
		if opt.BillingCycle.Months() == 0 {
			return nil, fmt.Errorf("unknown billing cycle %q: %w", opt.BillingCycle, models.ErrBadInput)
		}
		if _, dup := seen[opt.BillingCycle]; dup {
			return nil, fmt.Errorf("duplicate billing cycle %q: %w", opt.BillingCycle, models.ErrBadInput)
		}
		if opt.Amount < 0 {
			return nil, fmt.Errorf("negative amount for %q: %w", opt.BillingCycle, models.ErrBadInput)
		}
		seen[opt.BillingCycle] = struct{}{}
		opt.Currency = strings.ToUpper(strings.TrimSpace(opt.Currency))
		if opt.Currency == "" {
			opt.Currency = defaultCurrency
		}
		res = append(res, opt)
	}
	return res, nil
}

// CreatePackage создаёт пакет. Без явного is_active пакет активен.
func (s *PaymentService) CreatePackage(ctx context.Context, req models.DummyPackage) (*models.Package, error) {
	const op = "payment.CreatePackage"
	pricing, err := normalizePricing(req.PricingOptions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	pkg := models.Package{
		PackageName:    strings.TrimSpace(req.PackageName),
		Description:    req.Description,
		Features:       req.Features,
		PricingOptions: pricing,
		IsActive:       req.IsActive == nil || *req.IsActive,
	}
	id, err := s.repo.CreatePackage(ctx, pkg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	pkg.ID = id
	return &pkg, nil
}

// UpdatePackage перезаписывает пакет. Без is_active флаг не меняется.
func (s *PaymentService) UpdatePackage(ctx context.Context, id string, req models.DummyPackage) (*models.Package, error) {
	const op = "payment.UpdatePackage"
	pkg, err := s.repo.GetPackage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	pricing, err := normalizePricing(req.PricingOptions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	pkg.PackageName = strings.TrimSpace(req.PackageName)
	pkg.Description = req.Description
	pkg.Features = req.Features
	pkg.PricingOptions = pricing
	if req.IsActive != nil {
		pkg.IsActive = *req.IsActive
	}
	if err := s.repo.UpdatePackage(ctx, *pkg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pkg, nil
}
