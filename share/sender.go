package share

import (
	"errors"
	"os"
	"sync/atomic"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/texshare/internal/logx"
)

var nextSenderID atomic.Uint64

// Sender owns one named channel in a Directory.
//
// Directory calls are best-effort: failures are logged at Warn and never
// returned. Sender is not safe for concurrent use; callers serialize it
// under the host's exclusive graphics access because the published handle
// refers to a GPU resource.
type Sender struct {
	dir    Directory
	format gputypes.TextureFormat
	owner  int
	id     uint64

	name    string
	created bool
}

// NewSender returns an unnamed sender that publishes textures of the given
// format into dir. Rename gives it a name.
func NewSender(dir Directory, format gputypes.TextureFormat) *Sender {
	return &Sender{
		dir:    dir,
		format: format,
		owner:  os.Getpid(),
		id:     nextSenderID.Add(1),
	}
}

// Name returns the live channel name, or "" if the sender has none.
func (s *Sender) Name() string { return s.name }

// Created reports whether a channel is published.
func (s *Sender) Created() bool { return s.created }

// ID returns the sender id recorded on published channels.
func (s *Sender) ID() uint64 { return s.id }

// Release unregisters the channel if one is published. Calling it again is
// a no-op.
func (s *Sender) Release() {
	if !s.created {
		return
	}
	s.created = false
	if err := s.dir.Unregister(s.channel(0, 0, 0)); err != nil {
		logx.Logger().Warn("share: unregister channel failed", "name", s.name, "err", err)
		return
	}
	logx.Logger().Debug("share: channel released", "name", s.name)
}

// Create publishes the channel bound to handle at width x height. The
// caller must Release first whenever handle refers to a recreated texture.
// A sender without a name publishes nothing, and a name held by another
// sender is logged and left unpublished.
func (s *Sender) Create(handle uintptr, width, height uint32) {
	if s.name == "" {
		return
	}
	ch := s.channel(handle, width, height)
	if err := s.dir.Register(ch); err != nil {
		if errors.Is(err, ErrExists) {
			logx.Logger().Warn("share: channel name in use", "name", s.name, "err", err)
			return
		}
		logx.Logger().Warn("share: register channel failed", "channel", ch.String(), "err", err)
		return
	}
	s.created = true
	logx.Logger().Debug("share: channel created", "channel", ch.String())
}

// Rename compares name with the live name and, if they differ, releases
// the channel, adopts the new name and publishes it again against handle
// at the given size. It reports whether a rename happened. The name is
// published as given.
//
// An invalid name is logged and leaves the sender unnamed and released.
func (s *Sender) Rename(name string, handle uintptr, width, height uint32) bool {
	if err := ValidateName(name); err != nil {
		logx.Logger().Warn("share: invalid channel name", "name", name, "err", err)
		name = ""
	}
	if name == s.name {
		return false
	}

	s.Release()
	old := s.name
	s.name = name
	s.Create(handle, width, height)

	if old != "" {
		logx.Logger().Info("share: channel renamed", "from", old, "to", name)
	}
	return true
}

func (s *Sender) channel(handle uintptr, width, height uint32) Channel {
	return Channel{
		Name:   s.name,
		Handle: handle,
		Width:  width,
		Height: height,
		Format: s.format,
		Owner:  s.owner,
		Sender: s.id,
	}
}
