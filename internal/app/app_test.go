package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gany/internal/adapters/fetch"
	"go.trai.ch/gany/internal/adapters/fs"
	"go.trai.ch/gany/internal/adapters/installdb"
	"go.trai.ch/gany/internal/adapters/lock"
	"go.trai.ch/gany/internal/adapters/repostore"
	"go.trai.ch/gany/internal/adapters/telemetry"
	"go.trai.ch/gany/internal/app"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
	"go.trai.ch/gany/internal/core/ports/mocks"
	"go.trai.ch/gany/internal/engine/resolver"
	"go.trai.ch/gany/internal/engine/syncer"
	"go.trai.ch/gany/internal/engine/transaction"
	"go.trai.ch/gany/internal/pkgtest"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type env struct {
	root  string
	state string
	app   *app.App
}

// newEnv wires the real adapters below temporary directories. A nil locker uses a lock file.
func newEnv(t *testing.T, locker ports.Locker, log ports.Logger) *env {
	t.Helper()
	return newEnvAt(t, t.TempDir(), t.TempDir(), locker, log)
}

// newEnvAt wires an App on existing directories, the way a second process would see them.
func newEnvAt(t *testing.T, root, state string, locker ports.Locker, log ports.Logger) *env {
	t.Helper()
	if locker == nil {
		locker = lock.New(domain.LockPath(state))
	}

	codec := pkgtest.Codec(t)
	hasher := fs.NewHasher()
	client := fetch.NewClient(5 * time.Second)
	repos := repostore.NewStore(state)
	installed, err := installdb.NewStore(domain.InstalledPath(state))
	require.NoError(t, err)
	journal := installdb.NewJournal(domain.JournalPath(state))

	engine := transaction.New(
		resolver.New(),
		fs.NewMaterializer(root, state, codec, hasher),
		client,
		installed,
		journal,
		telemetry.NoOp{},
		log,
	)
	syn := syncer.New(repos, client, client, codec, telemetry.NoOp{})

	a := app.New(engine, syn, repos, installed, journal, fs.NewVerifier(root, hasher), locker, log, "x86_64")
	return &env{root: root, state: state, app: a}
}

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	return log
}

func TestApp_PublishInstallVerifyDrop(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil, quietLogger(t))
	repoDir := t.TempDir()

	_, err := e.app.AddRepository(ctx, domain.RepositoryDescriptor{Name: "main", Address: repoDir})
	require.NoError(t, err)

	src := pkgtest.Source(t, domain.Package{Name: "hello", Version: "1.0.0"}, map[string]string{
		"usr/bin/hello": "#!/bin/sh\necho hello\n",
	})
	out := t.TempDir()
	built, err := e.app.CreatePackage(ctx, src, out)
	require.NoError(t, err)
	assert.Equal(t, "hello@1.0.0", built.ID())

	pushed, err := e.app.Push(ctx, "main", []string{out})
	require.NoError(t, err)
	require.Len(t, pushed, 1)

	tx, err := e.app.Install(ctx, []string{"hello@^1"})
	require.NoError(t, err)
	assert.Equal(t, domain.TxCommitted, tx.State)

	installedPath := filepath.Join(e.root, "usr", "bin", "hello")
	assert.FileExists(t, installedPath)

	list, err := e.app.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hello", list[0].Name())
	assert.Equal(t, "main", list[0].Repository)

	info, err := e.app.Info(ctx, "hello")
	require.NoError(t, err)
	require.NotNil(t, info.Installed)
	require.Len(t, info.Available, 1)
	assert.Equal(t, "1.0.0", info.Available[0].Version)

	issues, err := e.app.Verify(nil)
	require.NoError(t, err)
	assert.Empty(t, issues)

	require.NoError(t, os.WriteFile(installedPath, []byte("tampered"), 0o644))
	issues, err = e.app.Verify([]string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, []domain.FileIssue{{Package: "hello", Path: "usr/bin/hello", Problem: domain.IssueModified}}, issues)

	last, err := e.app.History()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, tx.ID, last.ID)

	tx, err = e.app.Drop(ctx, []string{"hello"}, false)
	require.NoError(t, err)
	assert.Equal(t, domain.TxCommitted, tx.State)
	assert.NoFileExists(t, installedPath)

	list, err = e.app.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestApp_ConcurrentProcessesKeepEachOthersInstalls(t *testing.T) {
	ctx := context.Background()
	first := newEnv(t, nil, quietLogger(t))
	second := newEnvAt(t, first.root, first.state, nil, quietLogger(t))

	repoDir := t.TempDir()
	_, err := first.app.AddRepository(ctx, domain.RepositoryDescriptor{Name: "main", Address: repoDir})
	require.NoError(t, err)
	out := t.TempDir()
	for _, name := range []string{"a", "b"} {
		_, err := first.app.CreatePackage(ctx, pkgtest.Source(t, domain.Package{Name: name, Version: "1.0.0"},
			map[string]string{"usr/bin/" + name: name}), out)
		require.NoError(t, err)
	}
	_, err = first.app.Push(ctx, "main", []string{out})
	require.NoError(t, err)

	_, err = second.app.Install(ctx, []string{"a"})
	require.NoError(t, err)
	_, err = first.app.Install(ctx, []string{"b"})
	require.NoError(t, err)

	list, err := second.app.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name())
	assert.Equal(t, "b", list[1].Name())
}

func TestApp_Plan(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil, quietLogger(t))
	repoDir := t.TempDir()
	_, err := e.app.AddRepository(ctx, domain.RepositoryDescriptor{Name: "main", Address: repoDir})
	require.NoError(t, err)

	out := t.TempDir()
	for _, p := range []domain.Package{
		{Name: "libc", Version: "2.0.0"},
		{Name: "app", Version: "1.0.0", Dependencies: []domain.Requirement{{Name: "libc", Constraint: ">=2"}}},
	} {
		_, err := e.app.CreatePackage(ctx, pkgtest.Source(t, p, map[string]string{"usr/share/" + p.Name: p.Name}), out)
		require.NoError(t, err)
	}
	_, err = e.app.Push(ctx, "main", []string{out})
	require.NoError(t, err)

	plan, err := e.app.Plan(ctx, domain.InstallIntent(domain.Request{Name: "app"}))
	require.NoError(t, err)
	require.Equal(t, 2, plan.Len())
	assert.Equal(t, "libc", plan.Actions[0].Package.Name)
	assert.Equal(t, "app", plan.Actions[1].Package.Name)

	list, err := e.app.List()
	require.NoError(t, err)
	assert.Empty(t, list, "planning must not install anything")
}

func TestApp_LockHeld(t *testing.T) {
	ctrl := gomock.NewController(t)
	locker := mocks.NewMockLocker(ctrl)
	locker.EXPECT().TryLock().Return(zerr.Wrap(domain.ErrLocked, "lock is held by another process")).Times(4)

	e := newEnv(t, locker, quietLogger(t))
	ctx := context.Background()

	_, err := e.app.Install(ctx, []string{"hello"})
	require.ErrorIs(t, err, domain.ErrLocked)
	_, err = e.app.Drop(ctx, []string{"hello"}, true)
	require.ErrorIs(t, err, domain.ErrLocked)
	_, err = e.app.Sync(ctx)
	require.ErrorIs(t, err, domain.ErrLocked)
	err = e.app.RemoveRepository(ctx, "main")
	require.ErrorIs(t, err, domain.ErrLocked)
}

func TestApp_UnlockFailureIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	locker := mocks.NewMockLocker(ctrl)
	gomock.InOrder(
		locker.EXPECT().TryLock().Return(nil),
		locker.EXPECT().Unlock().Return(zerr.New("bad file descriptor")),
	)

	e := newEnv(t, locker, quietLogger(t))
	_, err := e.app.AddRepository(context.Background(), domain.RepositoryDescriptor{Name: "main", Address: "/srv/main"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to release lock")

	repos, err := e.app.ListRepositories(context.Background())
	require.NoError(t, err)
	assert.Len(t, repos, 1, "the repository was added before the unlock failed")
}

func TestApp_InstallRequiresTargets(t *testing.T) {
	e := newEnv(t, nil, quietLogger(t))

	_, err := e.app.Install(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrNoTargetsSpecified)

	_, err = e.app.Install(context.Background(), []string{"@1.0.0"})
	require.ErrorIs(t, err, domain.ErrNoTargetsSpecified)
}

func TestApp_SyncWarnsAboutFailedRepositories(t *testing.T) {
	ctx := context.Background()
	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().Warn(gomock.Any()).Times(1)

	e := newEnv(t, nil, log)
	_, err := e.app.AddRepository(ctx, domain.RepositoryDescriptor{Name: "gone", Address: filepath.Join(t.TempDir(), "missing")})
	require.NoError(t, err)

	report, err := e.app.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"gone"}, report.FailedNames())
	require.ErrorIs(t, report.Failed["gone"], domain.ErrFetchFailed)
}

func TestApp_UnknownPackages(t *testing.T) {
	e := newEnv(t, nil, quietLogger(t))

	_, err := e.app.Info(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrPackageNotFound)

	_, err = e.app.Verify([]string{"nope"})
	require.ErrorIs(t, err, domain.ErrPackageNotInstalled)

	last, err := e.app.History()
	require.NoError(t, err)
	assert.Nil(t, last)
}
