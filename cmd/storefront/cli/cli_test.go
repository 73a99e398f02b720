package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ronak-creation/storefront/jobs"
)

func TestHashPasswordFromFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"hash-password", "--password", "hunter22"}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	hash := strings.TrimSpace(stdout.String())
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter22")))
}

func TestHashPasswordFromStdin(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"hash-password"}, strings.NewReader("from-stdin\n"), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	hash := strings.TrimSpace(stdout.String())
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("from-stdin")))
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"hash-password"}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "password is empty")
}

func TestUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, Run(context.Background(), []string{"frobnicate"}, nil, &stdout, &stderr))
	require.Equal(t, 2, Run(context.Background(), nil, nil, &stdout, &stderr))
}

func TestJobsTriggerValidatesBeforeConnecting(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"jobs", "trigger", "media:cleanup", "--redis", "127.0.0.1:1"}, nil, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "no public ids")

	code = Run(context.Background(), []string{"jobs", "trigger", "reports:daily"}, nil, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "unsupported job")
}

func TestBuildTask(t *testing.T) {
	task, err := BuildTask(jobs.TaskCatalogWarmup, nil)
	require.NoError(t, err)
	require.Equal(t, jobs.TaskCatalogWarmup, task.Type())

	task, err = BuildTask(jobs.TaskMediaCleanup, []string{"products/a", "products/b"})
	require.NoError(t, err)
	require.JSONEq(t, `{"public_ids":["products/a","products/b"]}`, string(task.Payload()))
}
