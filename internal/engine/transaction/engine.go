// Package transaction applies resolution plans to the filesystem under an all-or-nothing
// staging protocol.
package transaction

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// DefaultStageParallelism bounds the number of archives fetched and staged at once.
const DefaultStageParallelism = 4

// Engine runs one transaction at a time. Callers serialize Execute with the system lock.
type Engine struct {
	resolver     ports.Resolver
	materializer ports.Materializer
	fetcher      ports.Fetcher
	store        ports.InstalledStore
	journal      ports.Journal
	telemetry    ports.Telemetry
	logger       ports.Logger

	parallelism int
	newID       func() string
	now         func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for transaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides how transaction IDs are generated.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithStageParallelism sets how many packages are staged concurrently.
func WithStageParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// New creates an Engine.
func New(
	resolver ports.Resolver,
	materializer ports.Materializer,
	fetcher ports.Fetcher,
	store ports.InstalledStore,
	journal ports.Journal,
	telemetry ports.Telemetry,
	logger ports.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		resolver:     resolver,
		materializer: materializer,
		fetcher:      fetcher,
		store:        store,
		journal:      journal,
		telemetry:    telemetry,
		logger:       logger,
		parallelism:  DefaultStageParallelism,
		newID:        uuid.NewString,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Plan resolves intent against the current installed database without applying it.
func (e *Engine) Plan(repos []domain.Repository, arch string, intent domain.Intent) (*domain.Plan, error) {
	db, err := e.store.Snapshot()
	if err != nil {
		return nil, err
	}
	return e.resolver.Resolve(db, domain.NewUniverse(repos, arch), intent)
}

// Execute resolves intent, stages every archive the plan needs and commits the plan.
// The returned transaction is always non-nil and in a terminal state.
func (e *Engine) Execute(ctx context.Context, repos []domain.Repository, arch string, intent domain.Intent) (*domain.Transaction, error) {
	tx := domain.NewTransaction(e.newID(), intent, e.now().UTC())

	db, err := e.store.Snapshot()
	if err != nil {
		return tx, e.fail(tx, err)
	}
	plan, err := e.resolver.Resolve(db, domain.NewUniverse(repos, arch), intent)
	if err != nil {
		return tx, e.fail(tx, err)
	}
	tx.Plan = *plan
	if err := ctx.Err(); err != nil {
		return tx, e.fail(tx, err)
	}

	if err := tx.Transition(domain.TxStaged); err != nil {
		return tx, err
	}
	if plan.Empty() {
		e.logger.Info("nothing to do")
		if err := tx.Transition(domain.TxCommitting); err != nil {
			return tx, err
		}
		return tx, tx.Finish(domain.TxCommitted, nil, e.now().UTC())
	}

	staged, err := e.stage(ctx, tx, db, addresses(repos))
	if err != nil {
		return tx, e.rollback(tx, err)
	}
	if err := ctx.Err(); err != nil {
		return tx, e.rollback(tx, err)
	}

	return tx, e.commit(ctx, tx, db, staged)
}

func addresses(repos []domain.Repository) map[string]string {
	out := make(map[string]string, len(repos))
	for i := range repos {
		out[repos[i].Name] = repos[i].Address
	}
	return out
}

// stage fetches and extracts every archive of the plan, then checks file ownership plan wide.
// Every failure is collected so that the rollback reports all of them.
func (e *Engine) stage(ctx context.Context, tx *domain.Transaction, db *domain.InstalledDB, addrs map[string]string) (map[string]*domain.StagedPackage, error) {
	installs := tx.Plan.Installs()
	results := make([]*domain.StagedPackage, len(installs))
	errs := make([]error, len(installs))

	g := new(errgroup.Group)
	g.SetLimit(e.parallelism)
	for i, action := range installs {
		g.Go(func() error {
			results[i], errs[i] = e.stageOne(ctx, tx.ID, action.Package, addrs)
			return nil
		})
	}
	_ = g.Wait()

	var failures []error
	for _, err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) > 0 {
		return nil, &domain.StagingError{Errs: failures}
	}

	var gone []string
	for _, a := range tx.Plan.Actions {
		if a.Kind == domain.ActionRemove || a.Kind == domain.ActionReplace {
			gone = append(gone, a.Name)
		}
	}
	if err := e.materializer.CheckOwnership(db, results, gone); err != nil {
		return nil, &domain.StagingError{Errs: []error{err}}
	}

	staged := make(map[string]*domain.StagedPackage, len(results))
	for _, sp := range results {
		staged[sp.Package.Name] = sp
	}
	return staged, nil
}

func (e *Engine) stageOne(ctx context.Context, txID string, pkg *domain.Package, addrs map[string]string) (sp *domain.StagedPackage, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, vertex := e.telemetry.Record(ctx, "stage "+pkg.ID())
	defer func() { vertex.Complete(err) }()

	address, ok := addrs[pkg.Repository]
	if !ok {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrRepositoryNotFound, "package source is not configured"),
			"repository", pkg.Repository), "package", pkg.ID())
	}
	archive, err := e.fetcher.FetchArchive(ctx, address, pkg)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to fetch archive"), "package", pkg.ID())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.materializer.Stage(ctx, txID, pkg, archive)
}

// commit applies the plan in order and persists the database after every action. It cannot
// be cancelled: once the first file moved, the database must reflect exactly the actions
// that completed.
func (e *Engine) commit(ctx context.Context, tx *domain.Transaction, db *domain.InstalledDB, staged map[string]*domain.StagedPackage) error {
	ctx = context.WithoutCancel(ctx)
	if err := tx.Transition(domain.TxCommitting); err != nil {
		return err
	}

	working := db.Clone()
	var commitErr error
	for i, action := range tx.Plan.Actions {
		err := e.apply(ctx, action, working, staged)
		if err == nil {
			err = e.store.Commit(working)
		}
		if err != nil {
			commitErr = err
			tx.Failed = slices.Clone(tx.Plan.Actions[i:])
			break
		}
		tx.Completed = append(tx.Completed, action)
	}
	e.discard(tx.ID)

	if commitErr == nil {
		err := tx.Finish(domain.TxCommitted, nil, e.now().UTC())
		e.record(tx)
		return err
	}

	partial := &domain.PartialCommitError{
		Completed: tx.Completed,
		Failed:    tx.Failed,
		Err:       commitErr,
	}
	if err := tx.Finish(domain.TxPartiallyCommitted, partial, e.now().UTC()); err != nil {
		return errors.Join(partial, err)
	}
	e.record(tx)
	return partial
}

func (e *Engine) apply(ctx context.Context, action domain.Action, db *domain.InstalledDB, staged map[string]*domain.StagedPackage) (err error) {
	ctx, vertex := e.telemetry.Record(ctx, action.String())
	defer func() { vertex.Complete(err) }()

	switch action.Kind {
	case domain.ActionRemove:
		inst, ok := db.Get(action.Name)
		if !ok {
			return zerr.With(zerr.Wrap(domain.ErrPackageNotInstalled, "cannot remove"), "package", action.Name)
		}
		if err := e.materializer.Remove(ctx, &inst, db); err != nil {
			return err
		}
		db.Delete(action.Name)
	case domain.ActionInstall, domain.ActionReplace:
		sp, ok := staged[action.Name]
		if !ok {
			return zerr.With(zerr.New("package was not staged"), "package", action.Package.ID())
		}
		installed, err := e.materializer.Install(ctx, sp, db)
		if err != nil {
			return err
		}
		db.Put(*installed)
	default:
		return zerr.With(zerr.New("unknown action"), "kind", string(action.Kind))
	}
	return nil
}

// fail ends a transaction that never touched the filesystem.
func (e *Engine) fail(tx *domain.Transaction, cause error) error {
	if err := tx.Finish(domain.TxFailed, cause, e.now().UTC()); err != nil {
		return errors.Join(cause, err)
	}
	e.record(tx)
	return cause
}

// rollback deletes everything staged for tx.
func (e *Engine) rollback(tx *domain.Transaction, cause error) error {
	if err := e.materializer.Discard(tx.ID); err != nil {
		var staging *domain.StagingError
		if errors.As(cause, &staging) {
			staging.Errs = append(staging.Errs, err)
		} else {
			cause = errors.Join(cause, err)
		}
	}
	if err := tx.Finish(domain.TxRolledBack, cause, e.now().UTC()); err != nil {
		return errors.Join(cause, err)
	}
	e.record(tx)
	return cause
}

func (e *Engine) discard(txID string) {
	if err := e.materializer.Discard(txID); err != nil {
		e.logger.Warn("failed to remove staging area: " + err.Error())
	}
}

func (e *Engine) record(tx *domain.Transaction) {
	if err := e.journal.Record(tx); err != nil {
		e.logger.Warn("failed to record transaction " + tx.ID + ": " + err.Error())
	}
}
