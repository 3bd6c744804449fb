package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"
)

type Config struct {
	Host     string
	Port     int
	From     string
	Password string
}

type Mailer struct {
	cfg Config
	log *zerolog.Logger
}

func New(cfg Config, log *zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

// Enabled reports whether SMTP credentials were configured. When disabled,
// SendRegistrationEmail is a no-op so local setups work without a mailbox.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != "" && m.cfg.From != ""
}

func (m *Mailer) SendRegistrationEmail(tournamentName, stato, recipientEmail string) error {
	if !m.Enabled() {
		m.log.Debug().Msg("mailer disabled, skipping registration email")
		return nil
	}

	var subject, body string
	switch stato {
	case "PENDENTE":
		subject = "Iscrizione ricevuta"
		body = fmt.Sprintf("La tua iscrizione al torneo «%s» è stata registrata ed è in attesa di conferma.", tournamentName)
	case "CONFERMATA":
		subject = "Iscrizione confermata"
		body = fmt.Sprintf("La tua iscrizione al torneo «%s» è stata confermata. Ti aspettiamo!", tournamentName)
	case "MODIFICATA":
		subject = "Iscrizione modificata"
		body = fmt.Sprintf("Il turno della tua iscrizione al torneo «%s» è stato modificato dallo staff.", tournamentName)
	case "RIFIUTATA":
		subject = "Iscrizione annullata"
		body = fmt.Sprintf("La tua iscrizione al torneo «%s» è stata annullata. L'eventuale quota è stata rimborsata sul tuo borsellino.", tournamentName)
	default:
		return fmt.Errorf("unknown registration stato %q", stato)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.From, recipientEmail, subject, body,
	)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{recipientEmail}, []byte(msg)); err != nil {
		m.log.Warn().Msgf("failed to send email to %s: %v", recipientEmail, err)
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Msgf("Email sent to %s (stato: %s)", recipientEmail, stato)
	return nil
}
