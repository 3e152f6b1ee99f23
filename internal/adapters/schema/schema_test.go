package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gany/internal/adapters/schema"
	"go.trai.ch/gany/internal/core/domain"
)

func TestValidate_Package(t *testing.T) {
	valid := domain.Package{
		Name:         "libfoo",
		Version:      "1.2.3",
		Arch:         domain.ArchAny,
		Dependencies: []domain.Requirement{{Name: "libc", Constraint: ">=2.0"}},
		Files:        []domain.FileEntry{{Path: "usr/lib/libfoo.so"}},
	}
	require.NoError(t, schema.Validate(valid, domain.ErrInvalidManifest))

	tests := []struct {
		name   string
		mutate func(p *domain.Package)
	}{
		{"bad name", func(p *domain.Package) { p.Name = "Lib Foo" }},
		{"bad version", func(p *domain.Package) { p.Version = "one" }},
		{"missing arch", func(p *domain.Package) { p.Arch = "" }},
		{"bad constraint", func(p *domain.Package) { p.Dependencies[0].Constraint = "~>~" }},
		{"empty file path", func(p *domain.Package) { p.Files[0].Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid.Clone()
			tt.mutate(&p)
			err := schema.Validate(p, domain.ErrInvalidManifest)
			require.ErrorIs(t, err, domain.ErrInvalidManifest)
		})
	}
}

func TestValidName(t *testing.T) {
	assert.True(t, schema.ValidName("gtk+3.0"))
	assert.False(t, schema.ValidName("-leading"))
	assert.False(t, schema.ValidName(""))
}
