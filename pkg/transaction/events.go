package transaction

import (
	"time"

	"pakd/pkg/backend"
)

// EventKind tags the variant of an Event.
type EventKind string

const (
	KindPackage           EventKind = "package"
	KindDetails           EventKind = "details"
	KindFiles             EventKind = "files"
	KindUpdateDetail      EventKind = "update-detail"
	KindRepoDetail        EventKind = "repo-detail"
	KindError             EventKind = "error"
	KindEulaRequired      EventKind = "eula-required"
	KindSignatureRequired EventKind = "signature-required"
	KindRestartRequired   EventKind = "restart-required"
	KindPercentage        EventKind = "percentage"
	KindStatusChanged     EventKind = "status"
	KindFinished          EventKind = "finished"
)

// Event is one entry in a transaction's result log.
type Event interface {
	Kind() EventKind
}

type PackageEvent struct {
	Info    backend.Info
	ID      backend.PackageID
	Summary string
}

type DetailsEvent struct {
	backend.Details
}

type FilesEvent struct {
	ID    backend.PackageID
	Files []string
}

type UpdateDetailEvent struct {
	backend.UpdateDetail
}

type RepoDetailEvent struct {
	backend.RepoDetail
}

// ErrorEvent reports a runtime failure or a cancellation.
type ErrorEvent struct {
	ErrorKind backend.ErrorKind
	Message   string
}

type EulaRequiredEvent struct {
	backend.Eula
}

type SignatureRequiredEvent struct {
	backend.RepoSignature
}

type RestartRequiredEvent struct {
	Restart backend.Restart
	ID      backend.PackageID
}

// PercentageEvent reports overall progress. Percentage is
// backend.PercentageUnknown when the adapter cannot estimate it.
type PercentageEvent struct {
	Percentage    int
	SubPercentage int
}

type StatusChangedEvent struct {
	Status backend.Status
}

// FinishedEvent is always the last event of a transaction.
type FinishedEvent struct {
	Exit    backend.Exit
	Runtime time.Duration
}

func (PackageEvent) Kind() EventKind           { return KindPackage }
func (DetailsEvent) Kind() EventKind           { return KindDetails }
func (FilesEvent) Kind() EventKind             { return KindFiles }
func (UpdateDetailEvent) Kind() EventKind      { return KindUpdateDetail }
func (RepoDetailEvent) Kind() EventKind        { return KindRepoDetail }
func (ErrorEvent) Kind() EventKind             { return KindError }
func (EulaRequiredEvent) Kind() EventKind      { return KindEulaRequired }
func (SignatureRequiredEvent) Kind() EventKind { return KindSignatureRequired }
func (RestartRequiredEvent) Kind() EventKind   { return KindRestartRequired }
func (PercentageEvent) Kind() EventKind        { return KindPercentage }
func (StatusChangedEvent) Kind() EventKind     { return KindStatusChanged }
func (FinishedEvent) Kind() EventKind          { return KindFinished }

// Err converts the event into a backend error.
func (e ErrorEvent) Err() *backend.Error {
	return &backend.Error{Kind: e.ErrorKind, Message: e.Message}
}
