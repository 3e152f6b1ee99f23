package commands_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gany/cmd/gany/commands"
	"go.trai.ch/gany/internal/app"
	"go.trai.ch/gany/internal/build"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/zerr"
)

var fixed = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

type mockApp struct {
	installFunc func(ctx context.Context, requests []string) (*domain.Transaction, error)
	upgradeFunc func(ctx context.Context, names []string) (*domain.Transaction, error)
	dropFunc    func(ctx context.Context, names []string, cascade bool) (*domain.Transaction, error)
	planFunc    func(ctx context.Context, intent domain.Intent) (*domain.Plan, error)
	syncFunc    func(ctx context.Context) (domain.SyncReport, error)
	addFunc     func(ctx context.Context, desc domain.RepositoryDescriptor) (domain.Repository, error)
	pushFunc    func(ctx context.Context, repo string, sources []string) ([]domain.Package, error)
	createFunc  func(ctx context.Context, src, outDir string) (*domain.Package, error)
	repos       []domain.Repository
	installed   []domain.InstalledPackage
	info        *app.PackageInfo
	issues      []domain.FileIssue
	last        *domain.Transaction
}

func (m *mockApp) Install(ctx context.Context, requests []string) (*domain.Transaction, error) {
	if m.installFunc != nil {
		return m.installFunc(ctx, requests)
	}
	return nil, nil
}

func (m *mockApp) Upgrade(ctx context.Context, names []string) (*domain.Transaction, error) {
	if m.upgradeFunc != nil {
		return m.upgradeFunc(ctx, names)
	}
	return nil, nil
}

func (m *mockApp) Drop(ctx context.Context, names []string, cascade bool) (*domain.Transaction, error) {
	if m.dropFunc != nil {
		return m.dropFunc(ctx, names, cascade)
	}
	return nil, nil
}

func (m *mockApp) Plan(ctx context.Context, intent domain.Intent) (*domain.Plan, error) {
	if m.planFunc != nil {
		return m.planFunc(ctx, intent)
	}
	return &domain.Plan{}, nil
}

func (m *mockApp) Sync(ctx context.Context) (domain.SyncReport, error) {
	if m.syncFunc != nil {
		return m.syncFunc(ctx)
	}
	return domain.SyncReport{}, nil
}

func (m *mockApp) AddRepository(ctx context.Context, desc domain.RepositoryDescriptor) (domain.Repository, error) {
	if m.addFunc != nil {
		return m.addFunc(ctx, desc)
	}
	return domain.Repository{RepositoryDescriptor: desc}, nil
}

func (m *mockApp) AddRepositoryWithURL(_ context.Context, address string) (domain.Repository, error) {
	name, err := domain.RepositoryNameFromAddress(address)
	if err != nil {
		return domain.Repository{}, err
	}
	return domain.Repository{RepositoryDescriptor: domain.RepositoryDescriptor{Name: name, Address: address}}, nil
}

func (m *mockApp) RemoveRepository(context.Context, string) error { return nil }

func (m *mockApp) ListRepositories(context.Context) ([]domain.Repository, error) {
	return m.repos, nil
}

func (m *mockApp) Push(ctx context.Context, repo string, sources []string) ([]domain.Package, error) {
	if m.pushFunc != nil {
		return m.pushFunc(ctx, repo, sources)
	}
	return nil, nil
}

func (m *mockApp) CreatePackage(ctx context.Context, src, outDir string) (*domain.Package, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, src, outDir)
	}
	return &domain.Package{}, nil
}

func (m *mockApp) List() ([]domain.InstalledPackage, error) { return m.installed, nil }

func (m *mockApp) Info(_ context.Context, name string) (*app.PackageInfo, error) {
	if m.info == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrPackageNotFound, "unknown package"), "package", name)
	}
	return m.info, nil
}

func (m *mockApp) Verify([]string) ([]domain.FileIssue, error) { return m.issues, nil }

func (m *mockApp) History() (*domain.Transaction, error) { return m.last, nil }

type logSettings struct {
	json, verbose bool
}

func (l *logSettings) SetJSON(enable bool)    { l.json = enable }
func (l *logSettings) SetVerbose(enable bool) { l.verbose = enable }

func execute(t *testing.T, a commands.Application, args ...string) (string, error) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	cli := commands.New(a)
	var out bytes.Buffer
	cli.SetOutput(&out, &out)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return out.String(), err
}

func hello() domain.Package {
	return domain.Package{Name: "hello", Version: "1.0.0", Arch: domain.ArchAny, Repository: "main"}
}

func committed(intent domain.Intent, actions ...domain.Action) *domain.Transaction {
	return &domain.Transaction{
		ID:         "tx-1",
		Intent:     intent,
		State:      domain.TxCommitted,
		Plan:       domain.Plan{Actions: actions},
		Completed:  actions,
		StartedAt:  fixed,
		FinishedAt: fixed.Add(time.Second),
	}
}

func TestCommands_Add(t *testing.T) {
	t.Run("installs requests", func(t *testing.T) {
		var got []string
		mock := &mockApp{
			installFunc: func(_ context.Context, requests []string) (*domain.Transaction, error) {
				got = requests
				return committed(domain.InstallIntent(domain.Request{Name: "hello"}), domain.Install(hello())), nil
			},
		}
		out, err := execute(t, mock, "add", "hello@^1", "libc")
		require.NoError(t, err)
		assert.Equal(t, []string{"hello@^1", "libc"}, got)
		assert.Equal(t, "✓ install hello@1.0.0\ntransaction tx-1 committed\n", out)
	})

	t.Run("dry run only plans", func(t *testing.T) {
		var intent domain.Intent
		mock := &mockApp{
			installFunc: func(context.Context, []string) (*domain.Transaction, error) {
				t.Fatal("dry run must not install")
				return nil, nil
			},
			planFunc: func(_ context.Context, i domain.Intent) (*domain.Plan, error) {
				intent = i
				return &domain.Plan{Actions: []domain.Action{domain.Install(hello())}}, nil
			},
		}
		out, err := execute(t, mock, "add", "--dry-run", "hello@>=1")
		require.NoError(t, err)
		assert.Equal(t, domain.InstallIntent(domain.Request{Name: "hello", Constraint: ">=1"}), intent)
		assert.Equal(t, "→ install hello@1.0.0\n", out)
	})

	t.Run("dry run rejects a bad constraint", func(t *testing.T) {
		mock := &mockApp{
			planFunc: func(context.Context, domain.Intent) (*domain.Plan, error) {
				t.Fatal("an invalid request must not be planned")
				return nil, nil
			},
		}
		_, err := execute(t, mock, "add", "-n", "hello@not-a-range")
		require.ErrorIs(t, err, domain.ErrInvalidVersion)
	})

	t.Run("prints a rolled back transaction with its error", func(t *testing.T) {
		staging := &domain.StagingError{Errs: []error{zerr.New("connection refused")}}
		mock := &mockApp{
			installFunc: func(context.Context, []string) (*domain.Transaction, error) {
				return &domain.Transaction{
					ID:    "tx-2",
					State: domain.TxRolledBack,
					Plan:  domain.Plan{Actions: []domain.Action{domain.Install(hello())}},
				}, staging
			},
		}
		out, err := execute(t, mock, "add", "hello")
		require.ErrorIs(t, err, domain.ErrStagingFailed)
		assert.Equal(t, "○ install hello@1.0.0\ntransaction tx-2 rolled_back\n", out)
	})

	t.Run("requires a package", func(t *testing.T) {
		_, err := execute(t, &mockApp{}, "add")
		require.Error(t, err)
	})
}

func TestCommands_Drop(t *testing.T) {
	var gotNames []string
	var gotCascade bool
	mock := &mockApp{
		dropFunc: func(_ context.Context, names []string, cascade bool) (*domain.Transaction, error) {
			gotNames, gotCascade = names, cascade
			return committed(domain.RemoveIntent(cascade, names...), domain.Remove(hello())), nil
		},
	}
	out, err := execute(t, mock, "drop", "--cascade", "hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, gotNames)
	assert.True(t, gotCascade)
	assert.Contains(t, out, "✓ remove hello@1.0.0")
}

func TestCommands_UpgradeNothingToDo(t *testing.T) {
	mock := &mockApp{
		upgradeFunc: func(_ context.Context, names []string) (*domain.Transaction, error) {
			assert.Empty(t, names)
			return committed(domain.UpgradeIntent()), nil
		},
	}
	out, err := execute(t, mock, "upgrade")
	require.NoError(t, err)
	assert.Equal(t, "nothing to do\n", out)
}

func TestCommands_Sync(t *testing.T) {
	mock := &mockApp{
		syncFunc: func(context.Context) (domain.SyncReport, error) {
			return domain.SyncReport{
				Updated: []string{"main"},
				Failed:  map[string]error{"mirror": zerr.New("fetch failed")},
			}, nil
		},
	}
	out, err := execute(t, mock, "sync")
	require.NoError(t, err)
	assert.Equal(t, "✓ main\n✗ mirror: fetch failed\n", out)
}

func TestCommands_Repo(t *testing.T) {
	t.Run("add passes the descriptor", func(t *testing.T) {
		var got domain.RepositoryDescriptor
		mock := &mockApp{
			addFunc: func(_ context.Context, desc domain.RepositoryDescriptor) (domain.Repository, error) {
				got = desc
				return domain.Repository{RepositoryDescriptor: desc}, nil
			},
		}
		out, err := execute(t, mock, "repo", "add", "main", "https://pkgs.example.org/main", "--arch", "x86_64")
		require.NoError(t, err)
		assert.Equal(t, domain.RepositoryDescriptor{Name: "main", Address: "https://pkgs.example.org/main", Arch: "x86_64"}, got)
		assert.Equal(t, "✓ added main\n", out)
	})

	t.Run("add-url derives the name", func(t *testing.T) {
		out, err := execute(t, &mockApp{}, "repo", "add-url", "https://pkgs.example.org/stable")
		require.NoError(t, err)
		assert.Equal(t, "✓ added pkgs.example.org-stable\n", out)
	})

	t.Run("push", func(t *testing.T) {
		var gotRepo string
		var gotSources []string
		mock := &mockApp{
			pushFunc: func(_ context.Context, repo string, sources []string) ([]domain.Package, error) {
				gotRepo, gotSources = repo, sources
				return []domain.Package{hello()}, nil
			},
		}
		out, err := execute(t, mock, "repo", "push", "main", "dist", "more")
		require.NoError(t, err)
		assert.Equal(t, "main", gotRepo)
		assert.Equal(t, []string{"dist", "more"}, gotSources)
		assert.Equal(t, "✓ hello@1.0.0\n", out)
	})

	t.Run("list", func(t *testing.T) {
		mock := &mockApp{repos: []domain.Repository{
			domain.NewRepository(
				domain.RepositoryDescriptor{Name: "main", Address: "https://pkgs.example.org/main"},
				domain.Listing{Name: "main", Packages: []domain.Package{hello()}},
				fixed,
			),
			domain.NewRepository(domain.RepositoryDescriptor{Name: "local", Address: "/srv/repo"}, domain.Listing{}, time.Time{}),
		}}
		out, err := execute(t, mock, "repo", "list")
		require.NoError(t, err)
		goldie.New(t).Assert(t, "repo_list", []byte(out))
	})
}

func TestCommands_Create(t *testing.T) {
	var gotSrc, gotOut string
	mock := &mockApp{
		createFunc: func(_ context.Context, src, outDir string) (*domain.Package, error) {
			gotSrc, gotOut = src, outDir
			p := hello()
			p.Digest = domain.NewDigest(domain.SHA3, make([]byte, domain.DigestSize))
			return &p, nil
		},
	}
	out, err := execute(t, mock, "create", "pkg/hello", "-o", "dist")
	require.NoError(t, err)
	assert.Equal(t, "pkg/hello", gotSrc)
	assert.Equal(t, "dist", gotOut)
	assert.Equal(t, "✓ hello@1.0.0 000000000000\n", out)
}

func TestCommands_List(t *testing.T) {
	libc := domain.Package{Name: "libc", Version: "2.31.0", Arch: "x86_64"}
	mock := &mockApp{installed: []domain.InstalledPackage{
		{Package: hello(), InstalledAt: fixed, Repository: "main"},
		{Package: libc, InstalledAt: fixed.Add(time.Hour)},
	}}
	out, err := execute(t, mock, "list")
	require.NoError(t, err)
	goldie.New(t).Assert(t, "list", []byte(out))
}

func TestCommands_Info(t *testing.T) {
	t.Run("installed and available", func(t *testing.T) {
		next := hello()
		next.Version = "1.1.0"
		next.Description = "prints a greeting"
		next.Dependencies = []domain.Requirement{{Name: "libc", Constraint: ">=2"}}
		installed := domain.InstalledPackage{Package: hello(), InstalledAt: fixed, Repository: "main"}
		installed.Package.Description = "prints a greeting"

		mock := &mockApp{info: &app.PackageInfo{
			Name:      "hello",
			Installed: &installed,
			Available: []domain.Package{next, hello()},
		}}
		out, err := execute(t, mock, "info", "hello")
		require.NoError(t, err)
		goldie.New(t).Assert(t, "info", []byte(out))
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := execute(t, &mockApp{}, "info", "nope")
		require.ErrorIs(t, err, domain.ErrPackageNotFound)
	})
}

func TestCommands_Verify(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		out, err := execute(t, &mockApp{}, "verify")
		require.NoError(t, err)
		assert.Equal(t, "✓ all files intact\n", out)
	})

	t.Run("issues fail the command", func(t *testing.T) {
		mock := &mockApp{issues: []domain.FileIssue{
			{Package: "hello", Path: "usr/bin/hello", Problem: domain.IssueModified},
			{Package: "libc", Path: "usr/lib/libc.so", Problem: domain.IssueMissing},
		}}
		out, err := execute(t, mock, "verify")
		require.ErrorIs(t, err, domain.ErrVerificationFailed)
		goldie.New(t).Assert(t, "verify", []byte(out))
	})
}

func TestCommands_History(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		out, err := execute(t, &mockApp{}, "history")
		require.NoError(t, err)
		assert.Equal(t, "no transaction recorded\n", out)
	})

	t.Run("partial commit", func(t *testing.T) {
		libc := domain.Package{Name: "libc", Version: "2.31.0", Arch: domain.ArchAny}
		actions := []domain.Action{domain.Install(libc), domain.Install(hello())}
		tx := &domain.Transaction{
			ID:         "tx-1",
			Intent:     domain.InstallIntent(domain.Request{Name: "hello", Constraint: "^1"}),
			State:      domain.TxPartiallyCommitted,
			Plan:       domain.Plan{Actions: actions},
			Completed:  actions[:1],
			Failed:     actions[1:],
			Error:      "transaction partially committed",
			StartedAt:  fixed,
			FinishedAt: fixed.Add(time.Second),
		}
		out, err := execute(t, &mockApp{last: tx}, "history")
		require.NoError(t, err)
		goldie.New(t).Assert(t, "history", []byte(out))
	})
}

func TestCommands_LogFlags(t *testing.T) {
	logs := &logSettings{}
	cli := commands.New(&mockApp{}, commands.WithLogSettings(logs))
	cli.SetOutput(&bytes.Buffer{}, &bytes.Buffer{})
	cli.SetArgs([]string{"list", "--json-logs", "-v"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.True(t, logs.json)
	assert.True(t, logs.verbose)
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Equal(t, "gany version "+build.Version+" (commit: none, date: unknown)\n", out)
}
