package sample

import (
	"errors"

	"pakd/pkg/backend"
	"pakd/pkg/repos"
)

func (b *Backend) GetRepoList(job backend.Job, filters backend.Filter) error {
	job.SetStatus(backend.StatusQuery)

	for _, r := range b.repos.List() {
		if filters&backend.FilterNotDevel != 0 && r.Devel {
			continue
		}
		if filters&backend.FilterDevel != 0 && !r.Devel {
			continue
		}
		if err := job.RepoDetail(backend.RepoDetail{ID: r.ID, Description: r.Name, Enabled: r.Enabled}); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) RepoEnable(job backend.Job, repoID string, enabled bool) error {
	job.SetStatus(backend.StatusRequest)
	if err := b.repos.SetEnabled(repoID, enabled); err != nil {
		return repoError(repoID, err)
	}
	b.log.WithField("repo", repoID).WithField("enabled", enabled).Info("repository changed")
	return nil
}

func (b *Backend) RepoSetData(job backend.Job, repoID, parameter, value string) error {
	job.SetStatus(backend.StatusRequest)
	if err := b.repos.Set(repoID, parameter, value); err != nil {
		return repoError(repoID, err)
	}
	b.log.WithField("repo", repoID).WithField(parameter, value).Info("repository changed")
	return nil
}

func repoError(id string, err error) error {
	if errors.Is(err, repos.ErrNotFound) {
		return backend.Errorf(backend.ErrorRepoNotFound, "repository %s not found", id)
	}
	return backend.Errorf(backend.ErrorInternal, "%v", err)
}
