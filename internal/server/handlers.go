// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/convertly/internal/artifact"
	"github.com/pdiddy/convertly/internal/tool"
	"github.com/pdiddy/convertly/pkg/types"
)

const (
	opConvert  = "convert"
	toolFetch  = "yt-dlp"
	mimeJSON   = "application/json"
	mimeDOCX   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeBinary = "application/octet-stream"
)

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{"status": "convertly is running"}
	if s.opts.Sweeper != nil {
		body["sweeper"] = s.opts.Sweeper.State().String()
	}
	c.JSON(http.StatusOK, body)
}

// exchange follows one request from receipt to its ledger record.
type exchange struct {
	s   *Server
	c   *gin.Context
	rec types.RequestRecord
}

func (s *Server) begin(c *gin.Context, operation string) *exchange {
	return &exchange{
		s: s,
		c: c,
		rec: types.RequestRecord{
			ID:        c.GetString(ctxRequestID),
			Operation: operation,
			StartedAt: time.Now(),
		},
	}
}

func (x *exchange) fail(err *requestError) {
	x.c.AbortWithStatusJSON(err.Status, gin.H{"error": err.Message})

	level := slog.LevelError
	if err.Kind == kindValidation {
		level = slog.LevelWarn
	}
	attrs := []any{
		"operation", x.rec.Operation,
		"request_id", x.rec.ID,
		"status", err.Status,
		"error", err,
	}
	var te *tool.Error
	if errors.As(err.Cause, &te) {
		attrs = append(attrs, "tool", te.Tool, "timeout", te.Timeout())
	}
	x.s.logger.Log(x.c.Request.Context(), level, "request failed", attrs...)
	x.rec.Status = err.recordStatus()
	x.rec.Error = err.Message
	x.finish()
}

func (x *exchange) succeed(bytes int64) {
	x.rec.Status = types.StatusSucceeded
	x.rec.OutputBytes = bytes
	x.finish()
}

func (x *exchange) finish() {
	x.rec.FinishedAt = time.Now()
	x.s.opts.Metrics.ObserveRequest(x.rec.Operation, string(x.rec.Status))
	ctx := context.WithoutCancel(x.c.Request.Context())
	if err := x.s.opts.Ledger.Record(ctx, x.rec); err != nil {
		x.s.logger.Warn("ledger write failed", "request_id", x.rec.ID, "error", err)
	}
}

func (s *Server) handleMedia(p types.Platform) gin.HandlerFunc {
	return func(c *gin.Context) {
		x := s.begin(c, string(p))
		url, err := requestURL(c)
		x.rec.Source = url
		if err != nil {
			x.fail(&requestError{Kind: kindValidation, Status: http.StatusRequestEntityTooLarge, Message: msgBodyTooLarge, Cause: err})
			return
		}
		if url == "" {
			x.fail(validationError(msgNoURL))
			return
		}

		req := types.DownloadRequest{URL: url, Platform: p, Prefix: artifact.UniquePrefix()}
		ctx := context.WithoutCancel(c.Request.Context())
		path, err := s.invoke(toolFetch, func() (string, error) {
			return s.opts.Fetcher.Fetch(ctx, req)
		})
		if err != nil {
			x.fail(toolFailure(downloadFailed(p), err))
			return
		}
		s.deliver(x, path, s.opts.CleanupAfterSend, downloadFailed(p))
	}
}

func (s *Server) handleConvert(c *gin.Context) {
	x := s.begin(c, opConvert)

	fh, err := formFile(c, "file", "files")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			x.fail(&requestError{Kind: kindValidation, Status: http.StatusRequestEntityTooLarge, Message: msgFileTooLarge, Cause: err})
			return
		}
		x.fail(validationError(msgNoFile))
		return
	}
	x.rec.Source = fh.Filename
	name := artifact.SanitizeName(fh.Filename)

	raw := formValue(c, "conversionType", "conversion_type", "kind")
	if raw == "" {
		x.fail(validationError(msgMissingKind))
		return
	}
	kind, ok := types.ParseConversionKind(raw)
	if !ok {
		x.fail(validationError(msgInvalidKind))
		return
	}
	x.rec.Operation = opConvert + ":" + string(kind)

	if !(types.ConversionRequest{SourceFile: name, Kind: kind}).Valid() {
		x.fail(validationError(wrongFormat(kind)))
		return
	}
	conv, err := s.opts.Converters.Lookup(kind)
	if err != nil {
		x.fail(toolFailure(conversionFailed(kind), err))
		return
	}

	in, err := s.saveUpload(fh, name)
	if err != nil {
		x.fail(toolFailure(msgConvertFailed, err))
		return
	}
	release := s.opts.Store.Lease(in.Path)
	defer release()
	defer s.remove(in.Path)

	ctx := context.WithoutCancel(c.Request.Context())
	out, err := s.invoke(string(kind), func() (string, error) {
		return conv.Convert(ctx, in.Path)
	})
	if err != nil {
		x.fail(toolFailure(conversionFailed(kind), err))
		return
	}
	s.deliver(x, out, true, msgConvertFailed)
}

// invoke runs a tool call through tool.Invoke and records its duration.
func (s *Server) invoke(name string, fn func() (string, error)) (string, error) {
	start := time.Now()
	path, err := tool.Invoke(name, fn)
	s.opts.Metrics.ObserveTool(name, err == nil, time.Since(start))
	return path, err
}

// deliver verifies that path is a file in a managed directory and streams
// it as an attachment while holding a lease on it. When remove is set the
// file is deleted once the body has been handed off.
func (s *Server) deliver(x *exchange, path string, remove bool, failMsg string) {
	release := s.opts.Store.Lease(path)
	defer release()
	if remove {
		defer s.remove(path)
	}

	art, err := s.opts.Store.Artifact(path)
	if err != nil {
		x.fail(toolFailure(failMsg, err))
		return
	}

	x.c.Header("Content-Type", contentType(art.Name))
	x.c.FileAttachment(art.Path, art.Name)

	n := int64(x.c.Writer.Size())
	if n < 0 {
		n = 0
	}
	x.succeed(n)
}

// remove deletes a managed artifact. Paths outside the store are left alone.
func (s *Server) remove(path string) {
	if !s.opts.Store.Contains(path) {
		return
	}
	if err := s.opts.Store.Delete(path); err != nil {
		s.logger.Warn("artifact cleanup failed", "path", path, "error", err)
	}
}

func (s *Server) saveUpload(fh *multipart.FileHeader, name string) (types.Artifact, error) {
	f, err := fh.Open()
	if err != nil {
		return types.Artifact{}, err
	}
	defer f.Close()
	return s.opts.Store.Save(f, name)
}

// requestURL reads the media URL from a JSON body ("link" or "url"), a form
// field ("url" or "link"), or the "url" query parameter, in that order. The
// only error is a body over the size limit.
func requestURL(c *gin.Context) (string, error) {
	if c.ContentType() == mimeJSON {
		var body struct {
			Link string `json:"link"`
			URL  string `json:"url"`
		}
		err := c.ShouldBindJSON(&body)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", err
		}
		if err == nil {
			for _, v := range []string{body.Link, body.URL} {
				if v = strings.TrimSpace(v); v != "" {
					return v, nil
				}
			}
		}
	}
	if v := formValue(c, "url", "link"); v != "" {
		return v, nil
	}
	return strings.TrimSpace(c.Query("url")), nil
}

// formFile returns the first uploaded file found under names. A body that
// exceeds the upload limit is reported immediately.
func formFile(c *gin.Context, names ...string) (*multipart.FileHeader, error) {
	var firstErr error
	for _, name := range names {
		fh, err := c.FormFile(name)
		if err == nil {
			return fh, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

func formValue(c *gin.Context, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(c.PostForm(name)); v != "" {
			return v
		}
	}
	return ""
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mkv":
		return "video/x-matroska"
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return mimeDOCX
	}
	return mimeBinary
}
