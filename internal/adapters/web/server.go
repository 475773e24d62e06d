package web

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/mikey/sender-protect/internal/core"
	"go.uber.org/zap"
)

//go:embed templates
var templatesFS embed.FS

const shutdownTimeout = 10 * time.Second

// Server is the web front end: one page over the shared state tree
type Server struct {
	service    *core.AnalysisService
	api        core.ClassifierAPI
	logger     *zap.Logger
	listenAddr string
	app        *fiber.App
}

// NewServer creates the web front end and registers its routes
func NewServer(
	service *core.AnalysisService,
	api core.ClassifierAPI,
	logger *zap.Logger,
	listenAddr string,
	bodyLimit int,
) (*Server, error) {
	views, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to open templates: %w", err)
	}

	engine := html.NewFileSystem(http.FS(views), ".html")

	s := &Server{
		service:    service,
		api:        api,
		logger:     logger,
		listenAddr: listenAddr,
	}

	s.app = fiber.New(fiber.Config{
		Views:                 engine,
		ViewsLayout:           "layouts/main",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(requestLogger(logger))

	s.routes()

	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/", s.handleIndex)
	s.app.Post("/field", s.handleField)
	s.app.Post("/file", s.handleFile)
	s.app.Post("/analyze", s.handleAnalyze)
	s.app.Post("/reset", s.handleReset)
	s.app.Get("/health", s.handleHealth)

	api := s.app.Group("/api")
	api.Get("/state", s.handleState)
	api.Post("/analyze", s.handleAPIAnalyze)
}

// App exposes the fiber application, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Name returns the front end name
func (s *Server) Name() string {
	return "web"
}

// Start binds the listen address and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listenAddr, err)
	}

	s.logger.Info("Web front end starting", zap.String("address", ln.Addr().String()))

	go func() {
		if err := s.app.Listener(ln); err != nil {
			s.logger.Error("Web server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop shuts the web server down
func (s *Server) Stop() error {
	return s.app.ShutdownWithTimeout(shutdownTimeout)
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	if code >= fiber.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
	}

	if strings.HasPrefix(c.Path(), "/api") {
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(code).SendString(err.Error())
}

// requestLogger logs one line per request with zap
func requestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		logger.Debug("HTTP request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)))

		return err
	}
}
