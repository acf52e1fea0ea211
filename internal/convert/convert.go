// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements document conversion behind a pluggable
// Converter interface: PDF to DOCX by page-text extraction, and DOCX to PDF
// through a headless office suite.
package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdiddy/convertly/pkg/types"
)

// Converter transforms the document at inputPath and returns the path of
// the converted file. Implementations never panic to the caller; every
// failure is a *tool.Error.
type Converter interface {
	Convert(ctx context.Context, inputPath string) (string, error)
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(ctx context.Context, inputPath string) (string, error)

// Convert implements Converter.
func (f ConverterFunc) Convert(ctx context.Context, inputPath string) (string, error) {
	return f(ctx, inputPath)
}

// Registry maps each conversion kind to its converter.
type Registry struct {
	converters map[types.ConversionKind]Converter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{converters: make(map[types.ConversionKind]Converter)}
}

// Register sets the converter for kind, replacing any previous one.
func (r *Registry) Register(kind types.ConversionKind, c Converter) {
	r.converters[kind] = c
}

// Lookup returns the converter for kind.
func (r *Registry) Lookup(kind types.ConversionKind) (Converter, error) {
	c, ok := r.converters[kind]
	if !ok || c == nil {
		return nil, fmt.Errorf("no converter registered for %q", kind)
	}
	return c, nil
}

// Kinds returns the registered kinds in a stable order.
func (r *Registry) Kinds() []types.ConversionKind {
	var kinds []types.ConversionKind
	for _, k := range []types.ConversionKind{types.KindPDFToDoc, types.KindDocToPDF} {
		if _, ok := r.converters[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// outputPath returns dir/<input stem><ext>.
func outputPath(dir, inputPath, ext string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+ext)
}
