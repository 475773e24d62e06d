package web

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/mikey/sender-protect/internal/core"
	"github.com/mikey/sender-protect/internal/form"
	"github.com/mikey/sender-protect/internal/render"
	"go.uber.org/zap"
)

const fileField = "file"

var formFields = []string{
	form.FieldSenderEmail,
	form.FieldEmailContent,
	form.FieldRawHeaders,
	form.FieldUseEnhanced,
}

// handleIndex renders the page. The metrics panel is fetched on every mount.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	return s.renderPage(c, fiber.StatusOK, "")
}

func (s *Server) renderPage(c *fiber.Ctx, status int, inlineErr string) error {
	view := s.service.View()
	metrics := render.LoadMetrics(c.UserContext(), s.api, s.logger)

	errMsg := view.Error
	if inlineErr != "" {
		errMsg = inlineErr
	}

	return c.Status(status).Render("index", fiber.Map{
		"Title":           render.Title,
		"Subtitle":        render.Subtitle,
		"Metrics":         metrics,
		"Form":            view.Form,
		"FileName":        view.FileName,
		"Loading":         view.Loading,
		"Error":           errMsg,
		"Result":          render.NewResultView(view.Outcome),
		"DifferenceTitle": render.DifferenceTitle,
		"FeatureSteps":    render.FeatureSteps,
		"Ethics":          render.Ethics,
	})
}

// handleField sets every posted field. Unknown names are rejected.
func (s *Server) handleField(c *fiber.Ctx) error {
	for name, values := range postedValues(c) {
		if len(values) == 0 {
			continue
		}
		if err := s.service.Form().SetField(name, values[len(values)-1]); err != nil {
			if errors.Is(err, form.ErrUnknownField) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return err
		}
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// handleFile models the file picker. Text fields posted alongside the file
// are applied first so typed input survives the round trip.
func (s *Server) handleFile(c *fiber.Ctx) error {
	if err := s.applyFields(c, false); err != nil {
		return err
	}

	fh, err := c.FormFile(fileField)
	if err != nil {
		s.logger.Debug("No file in upload", zap.Error(err))
		return c.Redirect("/", fiber.StatusSeeOther)
	}

	f, err := fh.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to open uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to read uploaded file")
	}

	changed, err := s.service.SelectFile(fh.Filename, data)
	s.logger.Debug("File selected",
		zap.String("file", fh.Filename),
		zap.Int("size", len(data)),
		zap.Bool("changed", changed),
		zap.Error(err))

	return c.Redirect("/", fiber.StatusSeeOther)
}

// handleAnalyze applies the posted form and runs one analysis. The outcome
// lands in the state tree and the browser is sent back to the page.
func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	if s.service.Loading() {
		return s.renderPage(c, fiber.StatusConflict, core.Message(core.ErrAnalysisInProgress))
	}

	if err := s.applyFields(c, true); err != nil {
		return err
	}

	if _, err := s.service.Analyze(c.UserContext()); errors.Is(err, core.ErrAnalysisInProgress) {
		return s.renderPage(c, fiber.StatusConflict, core.Message(err))
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

func (s *Server) handleReset(c *fiber.Ctx) error {
	s.service.Reset()
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.service.View())
}

// handleAPIAnalyze runs an analysis on the current state and answers with
// the resulting state tree
func (s *Server) handleAPIAnalyze(c *fiber.Ctx) error {
	_, err := s.service.Analyze(c.UserContext())
	view := s.service.View()
	if err != nil {
		view.Error = core.Message(err)
	}
	return c.Status(statusFor(err)).JSON(view)
}

func statusFor(err error) int {
	var validationErr *core.ValidationError
	var transportErr *core.TransportError
	var apiErr *core.APIError

	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, core.ErrAnalysisInProgress):
		return fiber.StatusConflict
	case errors.As(err, &validationErr), errors.As(err, &apiErr):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &transportErr):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// applyFields writes the known form fields found in the request. The last
// value wins, so a hidden "false" input followed by the checkbox works. With
// uncheckedWhenMissing an absent checkbox means unchecked.
func (s *Server) applyFields(c *fiber.Ctx, uncheckedWhenMissing bool) error {
	values := postedValues(c)
	for _, name := range formFields {
		v := values[name]
		if len(v) == 0 {
			if name != form.FieldUseEnhanced || !uncheckedWhenMissing {
				continue
			}
			v = []string{"false"}
		}
		if err := s.service.Form().SetField(name, v[len(v)-1]); err != nil {
			return err
		}
	}
	return nil
}

// postedValues returns the form values of a multipart or urlencoded body
func postedValues(c *fiber.Ctx) map[string][]string {
	if mf, err := c.MultipartForm(); err == nil {
		return mf.Value
	}

	values := make(map[string][]string)
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		values[k] = append(values[k], string(value))
	})
	return values
}
