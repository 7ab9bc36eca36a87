// Package share publishes textures as named channels that other processes
// can discover.
//
// A Directory maps channel names to native texture handles. Sender keeps
// exactly one channel bound to one texture and handles release, create
// and rename. Directory failures never propagate out of Sender: they are
// logged and the render pipeline carries on.
package share

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"golang.org/x/text/unicode/norm"
)

// MaxNameLength is the longest channel name in bytes.
const MaxNameLength = 256

// Channel errors.
var (
	// ErrEmptyName is returned for a name that is empty or only white space.
	ErrEmptyName = errors.New("share: empty channel name")

	// ErrNameTooLong is returned for a name longer than MaxNameLength bytes.
	ErrNameTooLong = errors.New("share: channel name too long")

	// ErrNotFound is returned when a channel is not registered.
	ErrNotFound = errors.New("share: channel not found")

	// ErrExists is returned by Register when the name is held by another
	// sender.
	ErrExists = errors.New("share: channel name already in use")

	// ErrNotOwner is returned by Unregister when the name is held by
	// another sender.
	ErrNotOwner = errors.New("share: channel held by another sender")
)

// Channel is one published texture.
//
// Handle is process-local: a consumer resolves it in the context of the
// publishing process, identified by Owner.
type Channel struct {
	Name   string
	Handle uintptr
	Width  uint32
	Height uint32
	Format gputypes.TextureFormat

	// Owner is the id of the publishing process. Directories record their
	// own owner id when it is zero, and cross-process directories always
	// record theirs.
	Owner int

	// Sender identifies the publishing Sender within its process.
	Sender uint64
}

// Placeholder reports whether the channel was published before any frame
// size was known.
func (c Channel) Placeholder() bool { return c.Width == 0 && c.Height == 0 }

// SameHolder reports whether c and o were published by the same sender.
func (c Channel) SameHolder(o Channel) bool {
	return c.Owner == o.Owner && c.Sender == o.Sender
}

func (c Channel) String() string {
	return fmt.Sprintf("%s %dx%d handle=%#x owner=%d", c.Name, c.Width, c.Height, c.Handle, c.Owner)
}

// Directory registers and unregisters channels.
//
// A name belongs to the sender that registered it until that sender
// unregisters it. Names are compared by Key.
type Directory interface {
	// Register publishes ch. Registering again from the same sender
	// replaces the channel; a name held by another sender returns
	// ErrExists.
	Register(ch Channel) error

	// Unregister removes ch.Name if ch's sender holds it. Returns
	// ErrNotFound if the name is not registered and ErrNotOwner if another
	// sender holds it.
	Unregister(ch Channel) error
}

// Catalog is a Directory that consumers can query.
type Catalog interface {
	Directory

	// Lookup returns the named channel or ErrNotFound.
	Lookup(name string) (Channel, error)

	// List returns all channels sorted by name.
	List() ([]Channel, error)
}

// ValidateName reports whether name can be published. The name itself is
// published unchanged.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: %d bytes, max %d", ErrNameTooLong, len(name), MaxNameLength)
	}
	return nil
}

// Key returns the directory key of name: its NFC form, so visually
// identical names typed on different systems refer to the same channel.
func Key(name string) string {
	return norm.NFC.String(name)
}
