package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/gany/internal/adapters/telemetry"
	"go.trai.ch/gany/internal/app"
	"go.trai.ch/gany/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		expectError  bool
		expectedExit int
	}{
		{name: "version", args: []string{"version"}, expectedExit: 0},
		{name: "help", args: []string{"--help"}, expectedExit: 0},
		{name: "unknown command", args: []string{"frobnicate"}, expectError: true, expectedExit: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			log := mocks.NewMockLogger(ctrl)
			if tt.expectError {
				log.EXPECT().Error(gomock.Any()).Times(1)
			}

			cleaned := false
			provider := func(context.Context) (*app.Components, func(), error) {
				return &app.Components{Logger: log, Telemetry: telemetry.NoOp{}}, func() { cleaned = true }, nil
			}

			var stdout, stderr bytes.Buffer
			exitCode := run(context.Background(), tt.args, &stdout, &stderr, provider)
			assert.Equal(t, tt.expectedExit, exitCode)
			assert.True(t, cleaned, "cleanup must run")
		})
	}
}

func TestRun_InitError(t *testing.T) {
	provider := func(context.Context) (*app.Components, func(), error) {
		return nil, nil, zerr.New("invalid configuration")
	}

	var stdout, stderr bytes.Buffer
	exitCode := run(context.Background(), []string{"list"}, &stdout, &stderr, provider)
	assert.Equal(t, 1, exitCode)
	assert.Equal(t, "Error: invalid configuration\n", stderr.String())
}
