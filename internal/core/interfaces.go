// Package core defines the core business logic and interfaces for the announcer service.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidAction is returned when an action is outside the supported set.
var ErrInvalidAction = errors.New("action must be 'join' or 'leave'")

// Action is one of the two supported session events.
type Action string

// Supported actions.
const (
	ActionJoin  Action = "join"
	ActionLeave Action = "leave"
)

// ParseAction normalizes and validates a raw action string.
func ParseAction(raw string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionJoin:
		return ActionJoin, nil
	case ActionLeave:
		return ActionLeave, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidAction, raw)
	}
}

// Voice describes a single voice available to a speech engine.
type Voice struct {
	Index     int      `json:"index"`
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Languages []string `json:"languages"`
	Gender    string   `json:"gender,omitempty"`
}

// SpeechEngine is the capability set shared by all synthesis backends.
// Synthesize writes audio for the given text to outputPath in the engine's
// native format (see NativeExt). Implementations must be safe for concurrent
// use; engines backed by a non-reentrant process serialize internally.
type SpeechEngine interface {
	Synthesize(ctx context.Context, text, outputPath string) error
	Voices() ([]Voice, error)
	Name() string
	NativeExt() string
}

// EngineDescription summarizes a cloud engine that exposes a language and
// accent domain instead of an enumerable voice list.
type EngineDescription struct {
	Engine   string `json:"engine"`
	Language string `json:"lang"`
	TLD      string `json:"tld"`
}

// Describer is implemented by engines whose voice surface is a single
// language/accent descriptor rather than a voice list.
type Describer interface {
	Describe() EngineDescription
}

// Transcoder converts an audio file from an engine's native format to the
// delivery format at targetPath. The source file is always removed afterwards,
// best effort, whether or not the conversion succeeded.
type Transcoder interface {
	Transcode(ctx context.Context, sourcePath, targetPath string) error
}

// AnnouncementCreatedEvent is published after a new artifact has been written.
type AnnouncementCreatedEvent struct {
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	Identifier string    `json:"identifier"`
	Action     Action    `json:"action"`
	Engine     string    `json:"engine"`
	CreatedAt  time.Time `json:"created_at"`
}

// Publisher notifies downstream consumers about freshly created announcements.
type Publisher interface {
	AnnouncementCreated(ctx context.Context, event AnnouncementCreatedEvent) error
}
