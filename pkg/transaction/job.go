package transaction

import (
	"context"

	"pakd/pkg/backend"
)

// job adapts a Transaction to the backend.Job interface.
type job struct {
	t *Transaction
}

func (j *job) Context() context.Context { return j.t.ctx }
func (j *job) ID() string               { return j.t.id }
func (j *job) Role() backend.Role       { return j.t.req.Role }
func (j *job) Locale() string           { return j.t.locale }
func (j *job) Cancelled() bool          { return j.t.cancelled() }

func (j *job) SetAllowCancel(allow bool)       { j.t.setAllowCancel(allow) }
func (j *job) SetStatus(status backend.Status) { j.t.setStatus(status) }
func (j *job) SetPercentage(percent int)       { j.t.setPercentage(percent) }
func (j *job) SetSubPercentage(percent int)    { j.t.setSubPercentage(percent) }

func (j *job) Package(info backend.Info, id backend.PackageID, summary string) error {
	return j.t.emit(PackageEvent{Info: info, ID: id, Summary: summary})
}

func (j *job) Details(d backend.Details) error {
	return j.t.emit(DetailsEvent{d})
}

func (j *job) Files(id backend.PackageID, files []string) error {
	return j.t.emit(FilesEvent{ID: id, Files: append([]string(nil), files...)})
}

func (j *job) UpdateDetail(d backend.UpdateDetail) error {
	return j.t.emit(UpdateDetailEvent{d})
}

func (j *job) RepoDetail(d backend.RepoDetail) error {
	return j.t.emit(RepoDetailEvent{d})
}

func (j *job) RepoSignatureRequired(sig backend.RepoSignature) error {
	return j.t.emit(SignatureRequiredEvent{sig})
}

func (j *job) EulaRequired(eula backend.Eula) error {
	return j.t.emit(EulaRequiredEvent{eula})
}

func (j *job) RequireRestart(restart backend.Restart, id backend.PackageID) error {
	return j.t.emit(RestartRequiredEvent{Restart: restart, ID: id})
}
