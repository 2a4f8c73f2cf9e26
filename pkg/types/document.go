// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Audience selects who the explanation is written for.
type Audience string

const (
	// AudienceScholar targets a research scholar in a related field.
	AudienceScholar Audience = "scholar"
	// AudienceStudent targets an undergraduate or master's student.
	AudienceStudent Audience = "student"
)

// Description returns the audience phrase used in the prompt.
func (a Audience) Description() string {
	switch a {
	case AudienceStudent:
		return "an undergraduate or master's student who has a general background in the field but no experience with its research literature"
	default:
		return "a research scholar in a related scientific field who may not be familiar with the specific jargon or advanced techniques used in this paper"
	}
}

// ParseAudience maps a flag or form value to an Audience. Empty selects def.
func ParseAudience(s string, def Audience) (Audience, error) {
	switch Audience(s) {
	case "":
		return def, nil
	case AudienceScholar, AudienceStudent:
		return Audience(s), nil
	default:
		return "", Errorf(InvalidInput, "audience", "unknown audience %q (want scholar or student)", s)
	}
}

// SourceKind records how a document reached local storage.
type SourceKind string

const (
	SourceURL    SourceKind = "url"
	SourceUpload SourceKind = "upload"
)

// Request is one explanation request. Exactly one of URL and UploadPath
// must be set.
type Request struct {
	// URL is an arXiv abstract or PDF address.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// UploadPath is a PDF already on local disk.
	UploadPath string `json:"upload_path,omitempty" yaml:"upload_path,omitempty"`

	// Audience selects the prompt variant.
	Audience Audience `json:"audience" yaml:"audience"`
}

// Validate enforces the one-of-two input rule without touching the
// network or file system.
func (r Request) Validate() error {
	hasURL := r.URL != ""
	hasUpload := r.UploadPath != ""
	switch {
	case !hasURL && !hasUpload:
		return Errorf(MissingInput, "request", "provide an arXiv URL or upload a PDF file")
	case hasURL && hasUpload:
		return Errorf(InvalidInput, "request", "provide either an arXiv URL or a PDF file, not both")
	}
	return nil
}

// LocalDocument is a PDF on transient storage.
type LocalDocument struct {
	// Path is the local filesystem path to the PDF.
	Path string `json:"path" yaml:"path"`

	// Source records whether the PDF was downloaded or supplied.
	Source SourceKind `json:"source" yaml:"source"`

	// SourceURL is the address the PDF was fetched from, if any.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`
}

// ConvertedDocument is the Markdown rendition of a LocalDocument.
type ConvertedDocument struct {
	Path     string            `json:"path" yaml:"path"`
	Markdown string            `json:"-" yaml:"-"`
	Pages    int               `json:"pages" yaml:"pages"`
	Backend  ConversionBackend `json:"backend" yaml:"backend"`
}

// RemoteFile is the service-side copy of an uploaded document.
type RemoteFile struct {
	// Name is the server-assigned identifier used for deletion.
	Name string `json:"name"`

	// DisplayName is the human-readable label referenced by the prompt.
	DisplayName string `json:"displayName"`

	// URI is passed back to the service in generation requests.
	URI string `json:"uri"`

	MIMEType string `json:"mimeType"`
}

// Explanation is a generated explanation and its downloadable copy.
type Explanation struct {
	Text         string    `json:"explanation"`
	ArtifactPath string    `json:"artifact_path,omitempty"`
	MirrorKey    string    `json:"mirror_key,omitempty"`
	Model        string    `json:"model"`
	Audience     Audience  `json:"audience"`
	CreatedAt    time.Time `json:"created_at"`
}

// Stage is a step of one pipeline run.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageResolving  Stage = "resolving_source"
	StageConverting Stage = "converting"
	StageUploading  Stage = "uploading"
	StageGenerating Stage = "generating"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)
