package receipt

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

// QRGenerator renders the lookup link for a receipt as a PNG.
type QRGenerator interface {
	Generate(receiptID uuid.UUID) ([]byte, error)
}

type DefaultQRGenerator struct {
	BaseURL string
}

func (g DefaultQRGenerator) URL(receiptID uuid.UUID) string {
	return fmt.Sprintf("%s/receipts/%s", strings.TrimRight(g.BaseURL, "/"), receiptID)
}

func (g DefaultQRGenerator) Generate(receiptID uuid.UUID) ([]byte, error) {
	return qrcode.Encode(g.URL(receiptID), qrcode.Medium, 256)
}

type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*Receipt, error)
	List(ctx context.Context, f ListFilter) ([]Receipt, error)
	QRCode(ctx context.Context, id uuid.UUID) ([]byte, error)
	MarkEmailed(ctx context.Context, id uuid.UUID) (*Receipt, error)
}

type service struct {
	repo Repository
	qr   QRGenerator
}

func NewService(repo Repository, qr QRGenerator) Service {
	return &service{repo: repo, qr: qr}
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Receipt, error) {
	rc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get receipt: %w", err)
	}
	return rc, nil
}

func (s *service) List(ctx context.Context, f ListFilter) ([]Receipt, error) {
	receipts, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list receipts: %w", err)
	}
	return receipts, nil
}

func (s *service) QRCode(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("service: failed to get receipt for qr code: %w", err)
	}
	png, err := s.qr.Generate(id)
	if err != nil {
		log.Error().Err(err).Stringer("receipt_id", id).Msg("service: failed to render qr code")
		return nil, fmt.Errorf("service: failed to render qr code: %w", err)
	}
	return png, nil
}

func (s *service) MarkEmailed(ctx context.Context, id uuid.UUID) (*Receipt, error) {
	rc, err := s.repo.MarkEmailed(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to mark receipt emailed: %w", err)
	}
	log.Info().Stringer("receipt_id", id).Msg("service: receipt marked as emailed")
	return rc, nil
}
