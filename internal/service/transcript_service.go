package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/platform"
	"github.com/spec-kit/ticket-bot/pkg/util"
)

// CollisionPolicy decides what happens when two transcripts of the same
// channel are generated within the same second.
type CollisionPolicy string

const (
	CollisionSuffix CollisionPolicy = "suffix"
	CollisionError  CollisionPolicy = "error"
)

const transcriptTimestampLayout = "20060102150405"
const transcriptLineTimestampLayout = "2006-01-02 15:04"

// nonTextPlaceholder renders for messages that carry no text payload, so
// every historical message produces exactly one transcript line.
const nonTextPlaceholder = "[Non-text content]"

// Artifact is a fully written local transcript file. The local copy is a
// scoped resource: callers release it with Remove after delivery hand-off,
// whether or not delivery succeeded.
type Artifact struct {
	Path string
	Name string
}

// Remove deletes the local file. Best effort: a failed removal is not
// surfaced.
func (a Artifact) Remove() {
	if a.Path == "" {
		return
	}
	_ = os.Remove(a.Path)
}

// Open returns a reader over the artifact for delivery.
func (a Artifact) Open() (*os.File, error) {
	return os.Open(a.Path)
}

// TranscriptService converts a channel's ordered message history into a
// durable flat-text artifact.
type TranscriptService struct {
	gateway platform.Gateway
	dir     string
	policy  CollisionPolicy
	logger  *zap.Logger
	now     func() time.Time
}

// NewTranscriptService constructs the service. dir is created on demand.
func NewTranscriptService(gateway platform.Gateway, dir string, policy CollisionPolicy, logger *zap.Logger) *TranscriptService {
	if policy != CollisionError {
		policy = CollisionSuffix
	}
	return &TranscriptService{
		gateway: gateway,
		dir:     dir,
		policy:  policy,
		logger:  logger,
		now:     time.Now,
	}
}

// Generate fetches the channel's full history oldest-first and writes one
// line per message. The artifact is flushed to disk before the handle is
// returned, so callers may immediately attempt delivery.
func (t *TranscriptService) Generate(ctx context.Context, channel platform.Channel) (Artifact, error) {
	history, err := t.gateway.History(ctx, channel.ID)
	if err != nil {
		return Artifact{}, util.NewUpstreamFailure("could not fetch the channel history", err)
	}

	lines := make([]string, 0, len(history))
	for _, msg := range history {
		content := msg.Content
		if content == "" {
			content = nonTextPlaceholder
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s",
			msg.Timestamp.UTC().Format(transcriptLineTimestampLayout),
			msg.AuthorDisplayName,
			content))
	}

	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return Artifact{}, util.NewUpstreamFailure("could not create the transcripts directory", err)
	}

	base := fmt.Sprintf("%s_%s", channel.Name, t.now().UTC().Format(transcriptTimestampLayout))
	file, name, err := t.createArtifactFile(base)
	if err != nil {
		return Artifact{}, err
	}
	path := filepath.Join(t.dir, name)

	if _, err := file.WriteString(strings.Join(lines, "\n")); err != nil {
		file.Close()
		_ = os.Remove(path)
		return Artifact{}, util.NewUpstreamFailure("could not write the transcript", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(path)
		return Artifact{}, util.NewUpstreamFailure("could not flush the transcript", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return Artifact{}, util.NewUpstreamFailure("could not close the transcript", err)
	}

	t.logger.Info("transcript generated",
		zap.String("channel", channel.Name),
		zap.String("file", name),
		zap.Int("lines", len(lines)))
	return Artifact{Path: path, Name: name}, nil
}

// createArtifactFile opens the artifact with O_EXCL so a same-second
// regeneration is detected instead of silently overwritten, then applies
// the configured collision policy.
func (t *TranscriptService) createArtifactFile(base string) (*os.File, string, error) {
	name := base + ".txt"
	for attempt := 2; ; attempt++ {
		file, err := os.OpenFile(filepath.Join(t.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return file, name, nil
		}
		if !os.IsExist(err) {
			return nil, "", util.NewUpstreamFailure("could not create the transcript file", err)
		}
		if t.policy == CollisionError {
			return nil, "", util.NewConflict("a transcript for this channel was just generated", map[string]any{"file": name})
		}
		name = fmt.Sprintf("%s_%d.txt", base, attempt)
	}
}
