// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"strings"
	"time"
)

// Artifact is a file produced or consumed by one request.
type Artifact struct {
	// Path is the on-disk location inside a managed directory.
	Path string `json:"path" yaml:"path"`

	// Name is the client-facing file name used in Content-Disposition.
	Name string `json:"name" yaml:"name"`

	// CreatedAt is when the artifact was written.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ConversionKind selects a document transformation.
type ConversionKind string

const (
	KindPDFToDoc ConversionKind = "pdf-to-doc"
	KindDocToPDF ConversionKind = "doc-to-pdf"
)

// ParseConversionKind returns the kind named by s and whether it is known.
func ParseConversionKind(s string) (ConversionKind, bool) {
	switch k := ConversionKind(strings.TrimSpace(s)); k {
	case KindPDFToDoc, KindDocToPDF:
		return k, true
	}
	return "", false
}

// InputExt returns the extension a source file must carry for this kind.
func (k ConversionKind) InputExt() string {
	switch k {
	case KindPDFToDoc:
		return ".pdf"
	case KindDocToPDF:
		return ".docx"
	}
	return ""
}

// OutputExt returns the extension of the converted file.
func (k ConversionKind) OutputExt() string {
	switch k {
	case KindPDFToDoc:
		return ".docx"
	case KindDocToPDF:
		return ".pdf"
	}
	return ""
}

// ConversionRequest asks for SourceFile to be converted according to Kind.
type ConversionRequest struct {
	SourceFile string         `json:"source_file"`
	Kind       ConversionKind `json:"kind"`
}

// Valid reports whether the source file extension matches the kind.
// Comparison is case-insensitive.
func (r ConversionRequest) Valid() bool {
	want := r.Kind.InputExt()
	return want != "" && strings.EqualFold(filepath.Ext(r.SourceFile), want)
}

// Platform names the video host a download request targets. It only
// affects log and error messages.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
)

// DisplayName returns the human-readable platform name.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformYouTube:
		return "YouTube"
	case PlatformInstagram:
		return "Instagram"
	}
	return string(p)
}

// DownloadRequest asks for the media at URL to be fetched.
type DownloadRequest struct {
	URL      string   `json:"url"`
	Platform Platform `json:"platform"`

	// Prefix is prepended to the output file name so concurrent fetches
	// never share a path.
	Prefix string `json:"-"`
}
