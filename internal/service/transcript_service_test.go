package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/pkg/util"
)

func fixedClock(value string) func() time.Time {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return ts }
}

func seedHistory(gateway *fakeGateway, channelID string, contents ...string) {
	base := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	for i, content := range contents {
		gateway.history[channelID] = append(gateway.history[channelID], domain.ChannelMessage{
			Timestamp:         base.Add(time.Duration(i) * time.Minute),
			AuthorDisplayName: "alice",
			Content:           content,
		})
	}
}

func TestTranscript_OneLinePerMessage(t *testing.T) {
	gateway := newFakeGateway()
	channel := gateway.addTextChannel("ch-1", "ticket-alice_1", "cat-1")
	seedHistory(gateway, channel.ID, "hello", "", "still there?", "", "bye")

	svc := NewTranscriptService(gateway, t.TempDir(), CollisionSuffix, zap.NewNop())
	artifact, err := svc.Generate(context.Background(), *channel)
	require.NoError(t, err)
	defer artifact.Remove()

	raw, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	lines := strings.Split(string(raw), "\n")
	require.Len(t, lines, 5, "line count must equal history length")

	placeholders := 0
	for _, line := range lines {
		if strings.HasSuffix(line, "[Non-text content]") {
			placeholders++
		}
	}
	assert.Equal(t, 2, placeholders)
	assert.Equal(t, "[2024-05-01 09:30] alice: hello", lines[0])
}

func TestTranscript_EmptyHistory(t *testing.T) {
	gateway := newFakeGateway()
	channel := gateway.addTextChannel("ch-1", "ticket-alice_1", "cat-1")

	svc := NewTranscriptService(gateway, t.TempDir(), CollisionSuffix, zap.NewNop())
	artifact, err := svc.Generate(context.Background(), *channel)
	require.NoError(t, err)
	defer artifact.Remove()

	raw, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	assert.Empty(t, string(raw))
}

func TestTranscript_FilenameIsDeterministic(t *testing.T) {
	gateway := newFakeGateway()
	channel := gateway.addTextChannel("ch-1", "ticket-alice_1", "cat-1")
	seedHistory(gateway, channel.ID, "hello")

	svc := NewTranscriptService(gateway, t.TempDir(), CollisionSuffix, zap.NewNop())
	svc.now = fixedClock("2024-05-01T09:45:07Z")

	artifact, err := svc.Generate(context.Background(), *channel)
	require.NoError(t, err)
	defer artifact.Remove()

	assert.Equal(t, "ticket-alice_1_20240501094507.txt", artifact.Name)
	assert.Equal(t, artifact.Name, filepath.Base(artifact.Path))
}

func TestTranscript_SameSecondCollision_Suffix(t *testing.T) {
	gateway := newFakeGateway()
	channel := gateway.addTextChannel("ch-1", "ticket-alice_1", "cat-1")
	seedHistory(gateway, channel.ID, "hello")

	svc := NewTranscriptService(gateway, t.TempDir(), CollisionSuffix, zap.NewNop())
	svc.now = fixedClock("2024-05-01T09:45:07Z")

	first, err := svc.Generate(context.Background(), *channel)
	require.NoError(t, err)
	defer first.Remove()

	second, err := svc.Generate(context.Background(), *channel)
	require.NoError(t, err)
	defer second.Remove()

	assert.Equal(t, "ticket-alice_1_20240501094507_2.txt", second.Name)
	assert.FileExists(t, first.Path)
	assert.FileExists(t, second.Path)
}

func TestTranscript_SameSecondCollision_Error(t *testing.T) {
	gateway := newFakeGateway()
	channel := gateway.addTextChannel("ch-1", "ticket-alice_1", "cat-1")
	seedHistory(gateway, channel.ID, "hello")

	svc := NewTranscriptService(gateway, t.TempDir(), CollisionError, zap.NewNop())
	svc.now = fixedClock("2024-05-01T09:45:07Z")

	first, err := svc.Generate(context.Background(), *channel)
	require.NoError(t, err)
	defer first.Remove()

	_, err = svc.Generate(context.Background(), *channel)
	require.Error(t, err)
	assert.True(t, util.IsCode(err, util.CodeConflict))
	// The first artifact is untouched.
	assert.FileExists(t, first.Path)
}

func TestTranscript_HistoryFailure(t *testing.T) {
	gateway := newFakeGateway()
	channel := gateway.addTextChannel("ch-1", "ticket-alice_1", "cat-1")
	gateway.failHistory = true

	svc := NewTranscriptService(gateway, t.TempDir(), CollisionSuffix, zap.NewNop())
	_, err := svc.Generate(context.Background(), *channel)
	require.Error(t, err)
	assert.True(t, util.IsCode(err, util.CodeUpstreamFailure))
}

func TestArtifact_Remove(t *testing.T) {
	gateway := newFakeGateway()
	channel := gateway.addTextChannel("ch-1", "ticket-alice_1", "cat-1")
	seedHistory(gateway, channel.ID, "hello")

	svc := NewTranscriptService(gateway, t.TempDir(), CollisionSuffix, zap.NewNop())
	artifact, err := svc.Generate(context.Background(), *channel)
	require.NoError(t, err)

	artifact.Remove()
	assert.NoFileExists(t, artifact.Path)
	// Removing twice is harmless.
	artifact.Remove()
}
