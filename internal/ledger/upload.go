package ledger

import (
	"encoding/json"
	"strings"
)

// UploadKind discriminates UploadState.
type UploadKind uint8

const (
	UploadEmpty UploadKind = iota
	UploadRemote
	UploadPending
)

func (k UploadKind) String() string {
	switch k {
	case UploadRemote:
		return "remote"
	case UploadPending:
		return "pending"
	default:
		return "empty"
	}
}

// Blob is a locally attached file that has not been uploaded yet.
type Blob struct {
	Data     []byte
	FileName string
	MIMEType string
}

// UploadState is the attachment slot of a record: nothing, a stored file URL,
// or a blob awaiting upload. Only edit sessions ever hold a pending blob.
type UploadState struct {
	kind UploadKind
	url  string
	blob Blob
}

// NoUpload returns the empty state.
func NoUpload() UploadState { return UploadState{} }

// RemoteUpload returns a state pointing at an already stored file.
func RemoteUpload(url string) UploadState {
	url = strings.TrimSpace(url)
	if url == "" || url == NoImage {
		return UploadState{}
	}
	return UploadState{kind: UploadRemote, url: url}
}

// PendingUpload returns a state holding a local blob.
func PendingUpload(b Blob) UploadState {
	return UploadState{kind: UploadPending, blob: b}
}

func (u UploadState) Kind() UploadKind { return u.kind }

// URL returns the remote URL, empty unless Kind is UploadRemote.
func (u UploadState) URL() string { return u.url }

// Blob returns the pending blob and whether one is held.
func (u UploadState) Blob() (Blob, bool) {
	return u.blob, u.kind == UploadPending
}

// Cell renders the state for the store. A pending blob has no cell value of
// its own and must be resolved before it is written.
func (u UploadState) Cell() string {
	if u.kind == UploadRemote {
		return u.url
	}
	return NoImage
}

func (u UploadState) IsZero() bool { return u.kind == UploadEmpty }

type uploadJSON struct {
	Kind     string `json:"kind"`
	URL      string `json:"url,omitempty"`
	FileName string `json:"fileName,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	Size     int    `json:"size,omitempty"`
}

// MarshalJSON never includes blob bytes.
func (u UploadState) MarshalJSON() ([]byte, error) {
	out := uploadJSON{Kind: u.kind.String(), URL: u.url}
	if u.kind == UploadPending {
		out.FileName = u.blob.FileName
		out.MIMEType = u.blob.MIMEType
		out.Size = len(u.blob.Data)
	}
	return json.Marshal(out)
}
