package confirmations

import (
	"context"

	"seatline/internal/notifications"
	"seatline/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	// PDF renders the confirmation document of a finished reservation
	PDF(ctx context.Context, reservationID uuid.UUID) ([]byte, error)
	// HTML renders the confirmation as a web page
	HTML(ctx context.Context, reservationID uuid.UUID) (string, error)
	// Send mails the confirmation to the reservation owner and returns the recipient
	Send(ctx context.Context, reservationID uuid.UUID) (string, error)
}

type Renderer interface {
	Render(templateID string, data *Confirmation) (string, error)
}

type PDFGenerator interface {
	RenderPDF(templateID string, data *Confirmation) ([]byte, error)
}

type service struct {
	builder  *Builder
	renderer Renderer
	pdf      PDFGenerator
	mailer   notifications.Mailer
	logger   *logger.Logger
}

func NewService(builder *Builder, renderer Renderer, pdf PDFGenerator, mailer notifications.Mailer) Service {
	return &service{
		builder:  builder,
		renderer: renderer,
		pdf:      pdf,
		mailer:   mailer,
		logger:   logger.GetDefault(),
	}
}

func (s *service) PDF(ctx context.Context, reservationID uuid.UUID) ([]byte, error) {
	confirmation, err := s.builder.Build(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	return s.pdf.RenderPDF(TemplateBooking, confirmation)
}

func (s *service) HTML(ctx context.Context, reservationID uuid.UUID) (string, error) {
	confirmation, err := s.builder.Build(ctx, reservationID)
	if err != nil {
		return "", err
	}
	return s.renderer.Render(TemplateBooking, confirmation)
}

func (s *service) Send(ctx context.Context, reservationID uuid.UUID) (string, error) {
	confirmation, err := s.builder.Build(ctx, reservationID)
	if err != nil {
		return "", err
	}
	if confirmation.OwnerEmail == "" {
		return "", ErrNoRecipient
	}

	html, err := s.renderer.Render(TemplateBookingEmail, confirmation)
	if err != nil {
		return "", err
	}

	err = s.mailer.Send(ctx, notifications.Mail{
		To:      confirmation.OwnerEmail,
		Subject: MailSubject,
		HTML:    html,
		Text:    confirmation.PlainText(),
	})
	if err != nil {
		s.logger.ErrorWithContext(ctx, "Failed to send confirmation", err, map[string]interface{}{
			"reservation_id": reservationID.String(),
		})
		return "", err
	}
	return confirmation.OwnerEmail, nil
}
