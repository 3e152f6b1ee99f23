// Package app implements the application layer for gany.
package app

import (
	"context"
	"errors"

	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
	"go.trai.ch/gany/internal/engine/syncer"
	"go.trai.ch/gany/internal/engine/transaction"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	engine    *transaction.Engine
	syncer    *syncer.Syncer
	repos     ports.RepositoryStore
	installed ports.InstalledStore
	journal   ports.Journal
	verifier  ports.Verifier
	locker    ports.Locker
	logger    ports.Logger
	arch      string
}

// New creates a new App instance.
func New(
	engine *transaction.Engine,
	syn *syncer.Syncer,
	repos ports.RepositoryStore,
	installed ports.InstalledStore,
	journal ports.Journal,
	verifier ports.Verifier,
	locker ports.Locker,
	log ports.Logger,
	arch string,
) *App {
	return &App{
		engine:    engine,
		syncer:    syn,
		repos:     repos,
		installed: installed,
		journal:   journal,
		verifier:  verifier,
		locker:    locker,
		logger:    log,
		arch:      arch,
	}
}

// Install installs the requested packages, each given as "name" or "name@constraint".
func (a *App) Install(ctx context.Context, requests []string) (*domain.Transaction, error) {
	reqs, err := domain.ParseRequests(requests)
	if err != nil {
		return nil, err
	}
	return a.execute(ctx, domain.InstallIntent(reqs...))
}

// Upgrade moves the named packages, or every installed package when names is empty,
// to the highest available version.
func (a *App) Upgrade(ctx context.Context, names []string) (*domain.Transaction, error) {
	return a.execute(ctx, domain.UpgradeIntent(names...))
}

// Drop removes the named packages. With cascade, packages depending on them are removed too.
func (a *App) Drop(ctx context.Context, names []string, cascade bool) (*domain.Transaction, error) {
	return a.execute(ctx, domain.RemoveIntent(cascade, names...))
}

// Plan resolves intent without touching the system.
func (a *App) Plan(ctx context.Context, intent domain.Intent) (*domain.Plan, error) {
	repos, err := a.repos.LoadRepositories(ctx)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load repositories")
	}
	return a.engine.Plan(repos, a.arch, intent)
}

func (a *App) execute(ctx context.Context, intent domain.Intent) (tx *domain.Transaction, err error) {
	err = a.locked(func() error {
		repos, loadErr := a.repos.LoadRepositories(ctx)
		if loadErr != nil {
			return zerr.Wrap(loadErr, "failed to load repositories")
		}
		var execErr error
		tx, execErr = a.engine.Execute(ctx, repos, a.arch, intent)
		return execErr
	})
	return tx, err
}

// Sync refreshes every repository listing. Repositories that fail keep their previous
// listing and are reported, which is not an error.
func (a *App) Sync(ctx context.Context) (domain.SyncReport, error) {
	var report domain.SyncReport
	err := a.locked(func() error {
		var syncErr error
		report, syncErr = a.syncer.Refresh(ctx)
		return syncErr
	})
	if err != nil {
		return report, err
	}
	for _, name := range report.FailedNames() {
		a.logger.Warn("repository " + name + " kept its previous listing: " + report.Failed[name].Error())
	}
	return report, nil
}

// AddRepository registers a repository under an explicit name.
func (a *App) AddRepository(ctx context.Context, desc domain.RepositoryDescriptor) (domain.Repository, error) {
	var repo domain.Repository
	err := a.locked(func() error {
		var addErr error
		repo, addErr = a.repos.AddRepository(ctx, desc)
		return addErr
	})
	return repo, err
}

// AddRepositoryWithURL registers a repository named after its address.
func (a *App) AddRepositoryWithURL(ctx context.Context, address string) (domain.Repository, error) {
	var repo domain.Repository
	err := a.locked(func() error {
		var addErr error
		repo, addErr = a.repos.AddRepositoryWithURL(ctx, address)
		return addErr
	})
	return repo, err
}

// RemoveRepository forgets a repository. Installed packages that came from it stay installed.
func (a *App) RemoveRepository(ctx context.Context, name string) error {
	return a.locked(func() error {
		return a.repos.RemoveRepository(ctx, name)
	})
}

// ListRepositories returns every configured repository with its cached listing.
func (a *App) ListRepositories(ctx context.Context) ([]domain.Repository, error) {
	return a.repos.LoadRepositories(ctx)
}

// Push publishes packages to the named repository.
func (a *App) Push(ctx context.Context, repo string, sources []string) ([]domain.Package, error) {
	var pushed []domain.Package
	err := a.locked(func() error {
		var pushErr error
		pushed, pushErr = a.syncer.Push(ctx, repo, sources)
		return pushErr
	})
	return pushed, err
}

// CreatePackage archives the source tree at src into outDir.
func (a *App) CreatePackage(ctx context.Context, src, outDir string) (*domain.Package, error) {
	return a.syncer.Build(ctx, src, outDir)
}

// List returns the installed packages sorted by name.
func (a *App) List() ([]domain.InstalledPackage, error) {
	db, err := a.installed.Snapshot()
	if err != nil {
		return nil, err
	}
	out := make([]domain.InstalledPackage, 0, db.Len())
	for _, name := range db.Names() {
		p, _ := db.Get(name)
		out = append(out, p)
	}
	return out, nil
}

// PackageInfo describes a package as known locally and to the configured repositories.
type PackageInfo struct {
	Name      string
	Installed *domain.InstalledPackage
	// Available lists the versions offered for this system, highest first.
	Available []domain.Package
}

// Info looks name up in the installed database and in every repository.
func (a *App) Info(ctx context.Context, name string) (*PackageInfo, error) {
	db, err := a.installed.Snapshot()
	if err != nil {
		return nil, err
	}
	repos, err := a.repos.LoadRepositories(ctx)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load repositories")
	}

	info := &PackageInfo{
		Name:      name,
		Available: domain.NewUniverse(repos, a.arch).Candidates(name),
	}
	if p, ok := db.Get(name); ok {
		info.Installed = &p
	}
	if info.Installed == nil && len(info.Available) == 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrPackageNotFound, "unknown package"), "package", name)
	}
	return info, nil
}

// Verify compares the named installed packages, or all of them, against the filesystem.
func (a *App) Verify(names []string) ([]domain.FileIssue, error) {
	db, err := a.installed.Snapshot()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		names = db.Names()
	}

	var issues []domain.FileIssue
	for _, name := range names {
		p, ok := db.Get(name)
		if !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrPackageNotInstalled, "cannot verify"), "package", name)
		}
		found, err := a.verifier.Verify(&p)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to verify"), "package", name)
		}
		issues = append(issues, found...)
	}
	return issues, nil
}

// History returns the last recorded transaction, or nil when none ran yet.
func (a *App) History() (*domain.Transaction, error) {
	return a.journal.Last()
}

func (a *App) locked(fn func() error) error {
	if err := a.locker.TryLock(); err != nil {
		return err
	}
	err := fn()
	if unlockErr := a.locker.Unlock(); unlockErr != nil {
		err = errors.Join(err, zerr.Wrap(unlockErr, "failed to release lock"))
	}
	return err
}
