// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/pdiddy/paper-explainer/internal/server/middleware"
	"github.com/pdiddy/paper-explainer/pkg/types"
)

// explainResponse is the JSON body of a successful POST /explain.
type explainResponse struct {
	Explanation string         `json:"explanation"`
	DownloadURL string         `json:"download_url"`
	MirrorURL   string         `json:"mirror_url,omitempty"`
	Model       string         `json:"model"`
	Audience    types.Audience `json:"audience"`
}

func wantsJSON(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}

func (s *Server) index(c *fiber.Ctx) error {
	return s.page(c, fiber.StatusOK, pageData{Audience: string(types.AudienceScholar)})
}

func (s *Server) page(c *fiber.Ctx, status int, d pageData) error {
	body, err := renderPage(d)
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(body)
}

// fail reports a classified failure as JSON or as the form page with an
// error string and no download link.
func (s *Server) fail(c *fiber.Ctx, d pageData, err error) error {
	kind := types.KindOf(err)
	status := statusFor(kind)
	if wantsJSON(c) {
		return writeError(c, status, codeFor(kind), err.Error())
	}
	d.Error = err.Error()
	return s.page(c, status, d)
}

func (s *Server) explain(c *fiber.Ctx) error {
	d := pageData{
		URL:      strings.TrimSpace(c.FormValue("url")),
		Audience: c.FormValue("audience"),
	}
	audience, err := types.ParseAudience(d.Audience, types.AudienceScholar)
	if err != nil {
		return s.fail(c, d, err)
	}
	d.Audience = string(audience)

	req := types.Request{URL: d.URL, Audience: audience}

	fh, ferr := c.FormFile("file")
	hasFile := ferr == nil && fh != nil && fh.Filename != ""
	if hasFile {
		if d.URL != "" {
			return s.fail(c, d, types.Request{URL: d.URL, UploadPath: fh.Filename}.Validate())
		}
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
			return s.fail(c, d, types.Errorf(types.InvalidInput, "upload", "only .pdf files are accepted, got %q", fh.Filename))
		}

		dir, err := os.MkdirTemp(s.uploadDir, "paper-explainer-upload-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)

		dest := filepath.Join(dir, filepath.Base(fh.Filename))
		if err := c.SaveFile(fh, dest); err != nil {
			return s.fail(c, d, types.Errorf(types.FileNotFound, "upload", "could not store the uploaded file: %w", err))
		}
		req.UploadPath = dest
	}

	res := s.runner.Run(c.UserContext(), req)
	exp, ok := res.Explanation()
	if !ok {
		s.log.Warn("explain failed", "request_id", middleware.RequestIDFrom(c), "kind", res.Kind(), "error", res.Err())
		return s.fail(c, d, res.Err())
	}

	downloadURL := "/download/" + s.artifacts.add(exp.ArtifactPath)

	if wantsJSON(c) {
		out := explainResponse{
			Explanation: exp.Text,
			DownloadURL: downloadURL,
			Model:       exp.Model,
			Audience:    exp.Audience,
		}
		if s.mirror != nil && exp.MirrorKey != "" {
			link, err := s.mirror.PresignGet(c.UserContext(), exp.MirrorKey, s.linkTTL)
			if err != nil {
				s.log.Warn("presign failed", "key", exp.MirrorKey, "error", err)
			} else {
				out.MirrorURL = link
			}
		}
		return c.JSON(out)
	}

	html, err := renderMarkdown(exp.Text)
	if err != nil {
		return err
	}
	d.ExplanationHTML = html
	d.DownloadURL = downloadURL
	return s.page(c, fiber.StatusOK, d)
}

func (s *Server) download(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	path, ok := s.artifacts.get(id)
	if !ok {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "explanation not found")
	}
	if _, err := os.Stat(path); err != nil {
		return writeError(c, fiber.StatusGone, "GONE", "explanation file no longer exists")
	}
	c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
	return c.Download(path, filepath.Base(path))
}
