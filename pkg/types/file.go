package types

import (
	"sort"
	"strings"
	"time"
)

// Icon URLs for file types. The placeholder is reported by artifacts that
// have no revision yet and by revisions whose content type is unrecognised.
const (
	FiletypeIconDir         = "/images/filetypes/"
	FiletypeIconPlaceholder = FiletypeIconDir + "unknown.png"
)

// Icon kinds derived from a revision's content type.
const (
	IconKindUnknown  = "unknown"
	IconKindImage    = "image"
	IconKindText     = "text"
	IconKindPDF      = "pdf"
	IconKindArchive  = "archive"
	IconKindAudio    = "audio"
	IconKindVideo    = "video"
	IconKindDocument = "doc"
	IconKindSheet    = "xls"
)

// FileArtifact is the stable identity of an uploaded file. Size, icon and
// attribution are never stored on the artifact; they are read from the head
// of Revisions, which the store hydrates in descending revision order.
type FileArtifact struct {
	FileID          string    `json:"file_id"`
	ProjectID       string    `json:"project_id"`
	FolderID        *string   `json:"folder_id,omitempty"`
	Filename        string    `json:"filename"`
	Description     string    `json:"description"`
	IsPrivate       bool      `json:"is_private"`
	IsVisible       bool      `json:"is_visible"`
	CommentsEnabled bool      `json:"comments_enabled"`
	ExpirationTime  time.Time `json:"expiration_time"`
	CreatedAt       time.Time `json:"created_on"`
	UpdatedAt       time.Time `json:"updated_on"`

	Revisions []Revision `json:"revisions,omitempty"`
}

// Revision is one uploaded version of a file's content. RevisionNumber is
// assigned by the caller and never changes once the revision exists.
type Revision struct {
	RevisionID     string    `json:"revision_id"`
	FileID         string    `json:"file_id"`
	RevisionNumber int       `json:"revision_number"`
	PayloadRef     string    `json:"payload_ref"`
	Filesize       int64     `json:"filesize"`
	ContentType    string    `json:"content_type"`
	IconKind       string    `json:"icon_kind"`
	ThumbRef       string    `json:"thumb_ref,omitempty"`
	Comment        string    `json:"comment"`
	CreatedBy      string    `json:"created_by"`
	UpdatedBy      *string   `json:"updated_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FiletypeIconURL returns the icon for the revision's content classification.
func (r *Revision) FiletypeIconURL() string {
	if r.IconKind == "" || r.IconKind == IconKindUnknown {
		return FiletypeIconPlaceholder
	}
	return FiletypeIconDir + r.IconKind + ".png"
}

// SortRevisions orders revisions by descending revision number, the order
// every "latest" lookup relies on.
func SortRevisions(revs []Revision) {
	sort.SliceStable(revs, func(i, j int) bool {
		return revs[i].RevisionNumber > revs[j].RevisionNumber
	})
}

// LatestRevision returns the revision with the highest number, or false when
// the artifact has none.
func (f *FileArtifact) LatestRevision() (*Revision, bool) {
	if len(f.Revisions) == 0 {
		return nil, false
	}
	return &f.Revisions[0], true
}

// FileSize is the latest revision's size, 0 without revisions.
func (f *FileArtifact) FileSize() int64 {
	rev, ok := f.LatestRevision()
	if !ok {
		return 0
	}
	return rev.Filesize
}

// IconURL is the latest revision's file type icon, or the placeholder.
func (f *FileArtifact) IconURL() string {
	rev, ok := f.LatestRevision()
	if !ok {
		return FiletypeIconPlaceholder
	}
	return rev.FiletypeIconURL()
}

// CreatedBy returns the creator of the latest revision.
// Returns ErrNoRevisions when the artifact has no revisions.
func (f *FileArtifact) CreatedBy() (string, error) {
	rev, ok := f.LatestRevision()
	if !ok {
		return "", ErrNoRevisions
	}
	return rev.CreatedBy, nil
}

// UpdatedBy returns the last updater of the latest revision, or its creator
// when the revision was never updated in place.
// Returns ErrNoRevisions when the artifact has no revisions.
func (f *FileArtifact) UpdatedBy() (string, error) {
	rev, ok := f.LatestRevision()
	if !ok {
		return "", ErrNoRevisions
	}
	if rev.UpdatedBy != nil {
		return *rev.UpdatedBy, nil
	}
	return rev.CreatedBy, nil
}

// OwnerID returns the user the ownership rules apply to: the creator of the
// latest revision, the same user CreatedBy reports. Empty when there are no
// revisions.
func (f *FileArtifact) OwnerID() string {
	owner, err := f.CreatedBy()
	if err != nil {
		return ""
	}
	return owner
}

// ObjectName is the display name used in audit entries.
func (f *FileArtifact) ObjectName() string {
	return f.Filename
}

// Clone returns a copy that shares no slices with f.
func (f *FileArtifact) Clone() *FileArtifact {
	cp := *f
	if f.FolderID != nil {
		id := *f.FolderID
		cp.FolderID = &id
	}
	if f.Revisions != nil {
		cp.Revisions = make([]Revision, len(f.Revisions))
		copy(cp.Revisions, f.Revisions)
	}
	return &cp
}

// SanitizeFilename strips any directory part from name and replaces every
// character outside [A-Za-z0-9._-] with an underscore. Names that reduce to
// nothing, "." or ".." return the empty string.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "." || out == ".." {
		return ""
	}
	return out
}

// IconKindFor classifies a MIME type into one of the IconKind constants.
func IconKindFor(contentType string) string {
	ct := strings.ToLower(contentType)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case ct == "":
		return IconKindUnknown
	case strings.HasPrefix(ct, "image/"):
		return IconKindImage
	case strings.HasPrefix(ct, "audio/"):
		return IconKindAudio
	case strings.HasPrefix(ct, "video/"):
		return IconKindVideo
	case ct == "application/pdf":
		return IconKindPDF
	case ct == "application/zip", ct == "application/gzip", ct == "application/x-tar",
		ct == "application/x-7z-compressed", ct == "application/x-rar-compressed",
		ct == "application/x-bzip2", ct == "application/x-xz":
		return IconKindArchive
	case ct == "application/msword", ct == "application/rtf",
		ct == "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		ct == "application/vnd.oasis.opendocument.text":
		return IconKindDocument
	case ct == "application/vnd.ms-excel", ct == "text/csv",
		ct == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		ct == "application/vnd.oasis.opendocument.spreadsheet":
		return IconKindSheet
	case strings.HasPrefix(ct, "text/"), ct == "application/json", ct == "application/xml":
		return IconKindText
	default:
		return IconKindUnknown
	}
}
