package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"github.com/mikey/sender-protect/internal/config"
	"github.com/mikey/sender-protect/internal/core"
	"github.com/mikey/sender-protect/internal/emlparse"
	"github.com/mikey/sender-protect/internal/whitelist"
	"go.uber.org/zap"
)

// classifyTimeout bounds one intake classification so a slow API cannot
// hold an SMTP transaction open forever
const classifyTimeout = 30 * time.Second

// Verdict is what the intake decided for one message
type Verdict struct {
	AttemptID string
	Trusted   bool
	Spam      bool
	Reject    bool
	Result    *core.AnalysisResult
	Err       error
}

// SMTPIntake accepts mail over SMTP and submits each message as a file
// analysis. Messages are analyzed and dropped, never relayed.
type SMTPIntake struct {
	service *core.AnalysisService
	trusted *whitelist.Checker
	logger  *zap.Logger
	cfg     config.IntakeConfig

	server *smtp.Server
	addr   net.Addr
}

// NewSMTPIntake creates a new SMTP intake
func NewSMTPIntake(
	service *core.AnalysisService,
	trusted *whitelist.Checker,
	logger *zap.Logger,
	cfg config.IntakeConfig,
) *SMTPIntake {
	if cfg.Domain == "" {
		cfg.Domain = "localhost"
	}
	return &SMTPIntake{
		service: service,
		trusted: trusted,
		logger:  logger,
		cfg:     cfg,
	}
}

// Name returns the front end name
func (i *SMTPIntake) Name() string {
	return "intake"
}

// Start starts the SMTP server in the background
func (i *SMTPIntake) Start() error {
	ln, err := net.Listen("tcp", i.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", i.cfg.ListenAddress, err)
	}
	i.addr = ln.Addr()

	i.server = smtp.NewServer(&smtpBackend{intake: i})
	i.server.Addr = ln.Addr().String()
	i.server.Domain = i.cfg.Domain
	i.server.ReadTimeout = 30 * time.Second
	i.server.WriteTimeout = 30 * time.Second
	i.server.MaxMessageBytes = i.cfg.MaxMessageBytes
	i.server.MaxRecipients = 50

	i.logger.Info("SMTP intake starting",
		zap.String("address", i.addr.String()),
		zap.Bool("block_spam", i.cfg.BlockSpam),
		zap.Bool("use_enhanced", i.cfg.UseEnhanced))

	server := i.server
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			i.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the SMTP server
func (i *SMTPIntake) Stop() error {
	if i.server != nil {
		return i.server.Close()
	}
	return nil
}

// Addr returns the bound address once started
func (i *SMTPIntake) Addr() string {
	if i.addr == nil {
		return ""
	}
	return i.addr.String()
}

// Process classifies one raw message. API failures never reject mail.
func (i *SMTPIntake) Process(ctx context.Context, sender string, raw []byte) Verdict {
	attemptID := uuid.NewString()
	logger := i.logger.With(
		zap.String("attempt_id", attemptID),
		zap.String("envelope_from", sender),
		zap.String("sender_domain", whitelist.SenderDomain(sender)))

	if text, err := emlparse.DecodeFile(raw); err == nil {
		extracted := emlparse.Parse(text)
		logger = logger.With(
			zap.String("from", emlparse.DecodeHeader(extracted.From)),
			zap.String("subject", emlparse.DecodeHeader(extracted.Subject)))
	}

	if i.trusted != nil && i.trusted.IsTrusted(sender) {
		logger.Info("Accepted message from trusted domain")
		return Verdict{AttemptID: attemptID, Trusted: true}
	}

	ctx = core.WithAttemptID(ctx, attemptID)
	sub := core.FileSubmission{
		FileName:    attemptID + emlparse.Extension,
		Data:        raw,
		UseEnhanced: i.cfg.UseEnhanced,
	}

	result, err := i.service.Classify(ctx, sub)
	if err != nil {
		logger.Warn("Accepting message without verdict", zap.String("error", core.Message(err)))
		return Verdict{AttemptID: attemptID, Err: err}
	}

	active := result.Active(i.cfg.UseEnhanced)
	verdict := Verdict{
		AttemptID: attemptID,
		Result:    result,
		Spam:      active.IsSpam(),
	}
	verdict.Reject = verdict.Spam && i.cfg.BlockSpam

	fields := []zap.Field{
		zap.Bool("is_spam", verdict.Spam),
		zap.Bool("rejected", verdict.Reject),
	}
	if active != nil {
		fields = append(fields,
			zap.String("model", active.ModelName),
			zap.Float64("confidence", active.Confidence))
	}
	logger.Info("Processed message", fields...)

	return verdict
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	intake *SMTPIntake
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	b.intake.logger.Debug("SMTP session opened", zap.String("remote", c.Conn().RemoteAddr().String()))
	return &smtpSession{intake: b.intake}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	intake     *SMTPIntake
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data reads the message and answers with the verdict
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.intake.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), classifyTimeout)
	defer cancel()

	verdict := s.intake.Process(ctx, s.sender, raw)
	if verdict.Reject {
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      "Message rejected as spam",
		}
	}
	return nil
}

// Logout ends the session
func (s *smtpSession) Logout() error {
	return nil
}
