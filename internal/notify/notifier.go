package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/GonzaloEspina/barbatero-landing/internal/calendar"
	"github.com/GonzaloEspina/barbatero-landing/pkg/logging"
)

// ErrNoRecipient is returned when a confirmation has no email address.
var ErrNoRecipient = errors.New("notify: confirmation has no recipient")

// Confirmation describes a confirmed appointment.
type Confirmation struct {
	AppointmentID string
	ClientName    string
	ClientEmail   string
	Date          calendar.Date
	Times         []string
	ServiceName   string
}

// Notifier renders and sends client-facing emails.
type Notifier struct {
	sender   EmailSender
	shopName string
	logger   *logging.Logger
}

func NewNotifier(sender EmailSender, shopName string, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Default()
	}
	if sender == nil {
		sender = NewStubEmailSender(logger)
	}
	return &Notifier{
		sender:   sender,
		shopName: fromNameOrDefault(shopName),
		logger:   logger.Component("notify"),
	}
}

var spanishWeekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// longDate renders e.g. "lunes 18 de marzo de 2024".
func longDate(d calendar.Date) string {
	t := d.Time()
	return fmt.Sprintf("%s %d de %s de %d", spanishWeekdays[t.Weekday()], t.Day(), spanishMonths[t.Month()-1], t.Year())
}

type confirmationView struct {
	Shop    string
	Name    string
	Date    string
	Times   string
	Service string
	ID      string
}

var confirmationText = texttemplate.Must(texttemplate.New("text").Parse(
	`Hola{{if .Name}} {{.Name}}{{end}},

Tu turno en {{.Shop}} está confirmado.

Fecha: {{.Date}}
Hora: {{.Times}}
{{- if .Service}}
Servicio: {{.Service}}
{{- end}}

Si no podés asistir, avisanos con tiempo para liberar el horario.
Referencia: {{.ID}}
`))

var confirmationHTML = htmltemplate.Must(htmltemplate.New("html").Parse(
	`<p>Hola{{if .Name}} {{.Name}}{{end}},</p>
<p>Tu turno en <strong>{{.Shop}}</strong> está confirmado.</p>
<ul>
<li>Fecha: {{.Date}}</li>
<li>Hora: {{.Times}}</li>
{{- if .Service}}
<li>Servicio: {{.Service}}</li>
{{- end}}
</ul>
<p>Si no podés asistir, avisanos con tiempo para liberar el horario.</p>
<p><small>Referencia: {{.ID}}</small></p>
`))

// RenderConfirmation builds the confirmation email without sending it.
func (n *Notifier) RenderConfirmation(c Confirmation) (EmailMessage, error) {
	if strings.TrimSpace(c.ClientEmail) == "" {
		return EmailMessage{}, ErrNoRecipient
	}
	view := confirmationView{
		Shop:    n.shopName,
		Name:    strings.TrimSpace(c.ClientName),
		Date:    longDate(c.Date),
		Times:   strings.Join(c.Times, ", "),
		Service: strings.TrimSpace(c.ServiceName),
		ID:      c.AppointmentID,
	}

	var text, html bytes.Buffer
	if err := confirmationText.Execute(&text, view); err != nil {
		return EmailMessage{}, fmt.Errorf("notify: render text: %w", err)
	}
	if err := confirmationHTML.Execute(&html, view); err != nil {
		return EmailMessage{}, fmt.Errorf("notify: render html: %w", err)
	}

	return EmailMessage{
		To:      strings.TrimSpace(c.ClientEmail),
		ToName:  view.Name,
		Subject: fmt.Sprintf("Turno confirmado: %s %s", c.Date.Format("02/01"), view.Times),
		Body:    text.String(),
		HTML:    html.String(),
	}, nil
}

// AppointmentConfirmed sends the confirmation email for an appointment.
func (n *Notifier) AppointmentConfirmed(ctx context.Context, c Confirmation) error {
	msg, err := n.RenderConfirmation(c)
	if err != nil {
		return err
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send confirmation %s: %w", c.AppointmentID, err)
	}
	n.logger.Info("confirmation sent", "appointment_id", c.AppointmentID, "date", c.Date.ISO())
	return nil
}
