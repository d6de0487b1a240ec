package booking

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/GonzaloEspina/barbatero-landing/internal/store"
)

var (
	clientIDCols    = []string{"ID", "Id", "Row ID", "id"}
	clientNameCols  = []string{"Nombre y Apellido", "Nombre", "name"}
	clientEmailCols = []string{"Correo Electrónico", "Correo Electronico", "Email", "Correo", "email"}
	clientPhoneCols = []string{"Teléfono", "Telefono", "Celular", "phone"}
)

// Client is a registered shop client.
type Client struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// NewClient is the registration payload.
type NewClient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func newRowID() string { return uuid.NewString() }

// normalizeEmail lowercases and trims an address and checks it parses.
func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", invalid("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email %q is not valid", raw)
	}
	return email, nil
}

func clientFromRow(row store.Row) Client {
	return Client{
		ID:    row.String(clientIDCols...),
		Name:  row.String(clientNameCols...),
		Email: strings.ToLower(row.String(clientEmailCols...)),
		Phone: row.String(clientPhoneCols...),
	}
}

// FindClient looks a client up by email, case-insensitively.
func (s *Service) FindClient(ctx context.Context, email string) (Client, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.find_client")
	defer span.End()

	normalized, err := normalizeEmail(email)
	if err != nil {
		return Client{}, err
	}
	span.SetAttributes(attribute.String("booking.client_email", normalized))

	filter := store.Filter(s.tables.Clients, store.LowerEquals(clientEmailCols[0], normalized))
	rows, err := s.find(ctx, s.tables.Clients, filter)
	if err != nil {
		span.RecordError(err)
		return Client{}, err
	}
	for _, row := range rows {
		if c := clientFromRow(row); c.Email == normalized {
			return c, nil
		}
	}
	return Client{}, ErrClientNotFound
}

// CreateClient registers a new client. Registering an email twice fails with
// ErrClientExists.
func (s *Service) CreateClient(ctx context.Context, in NewClient) (Client, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.create_client")
	defer span.End()

	name := strings.Join(strings.Fields(in.Name), " ")
	if name == "" {
		return Client{}, invalid("name is required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return Client{}, err
	}

	if existing, err := s.FindClient(ctx, email); err == nil {
		s.logger.Info("client already registered", "client_id", existing.ID)
		return existing, ErrClientExists
	} else if !errors.Is(err, ErrClientNotFound) {
		return Client{}, err
	}

	client := Client{ID: s.newID(), Name: name, Email: email, Phone: strings.TrimSpace(in.Phone)}
	row := store.Row{
		clientIDCols[0]:    client.ID,
		clientNameCols[0]:  client.Name,
		clientEmailCols[0]: client.Email,
	}
	if client.Phone != "" {
		row[clientPhoneCols[0]] = client.Phone
	}
	if err := s.add(ctx, s.tables.Clients, row); err != nil {
		span.RecordError(err)
		return Client{}, err
	}
	s.logger.Info("client registered", "client_id", client.ID)
	return client, nil
}
