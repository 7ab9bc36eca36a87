package share

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
)

// recordingDirectory logs every call and optionally fails them.
type recordingDirectory struct {
	calls []string
	fail  error
	last  Channel
}

func (d *recordingDirectory) Register(ch Channel) error {
	d.calls = append(d.calls, "create "+ch.Name)
	d.last = ch
	return d.fail
}

func (d *recordingDirectory) Unregister(ch Channel) error {
	d.calls = append(d.calls, "release "+ch.Name)
	d.last = ch
	return d.fail
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr error
	}{
		{"plain", "camera", nil},
		{"surrounding space", "  camera \n", nil},
		{"decomposed", "cafe\u0301", nil},
		{"empty", "", ErrEmptyName},
		{"blank", "   ", ErrEmptyName},
		{"too long", strings.Repeat("x", MaxNameLength+1), ErrNameTooLong},
		{"max", strings.Repeat("x", MaxNameLength), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateName(%q) err = %v, want %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestKey(t *testing.T) {
	if Key("cafe\u0301") != Key("caf\u00e9") {
		t.Error("composed and decomposed names should share a key")
	}
	if Key(" cam") == Key("cam") {
		t.Error("Key should not trim")
	}
}

func TestSenderReleaseIdempotent(t *testing.T) {
	dir := &recordingDirectory{}
	s := NewSender(dir, gputypes.TextureFormatBGRA8Unorm)
	s.Rename("out", 0, 0, 0)

	s.Release()
	s.Release()

	if s.Created() {
		t.Error("Created() = true after Release")
	}
	want := []string{"create out", "release out"}
	if strings.Join(dir.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", dir.calls, want)
	}
}

func TestSenderRename(t *testing.T) {
	dir := &recordingDirectory{}
	s := NewSender(dir, gputypes.TextureFormatRGBA8Unorm)

	if !s.Rename("A", 0, 0, 0) {
		t.Fatal("first Rename should publish")
	}
	if !dir.last.Placeholder() {
		t.Errorf("initial channel = %v, want placeholder", dir.last)
	}

	if s.Rename("A", 7, 10, 10) {
		t.Error("Rename to the same name should be a no-op")
	}

	if !s.Rename("B", 7, 640, 480) {
		t.Fatal("Rename(B) returned false")
	}
	want := "create A,release A,create B"
	if got := strings.Join(dir.calls, ","); got != want {
		t.Errorf("calls = %s, want %s", got, want)
	}
	if dir.last.Handle != 7 || dir.last.Width != 640 || dir.last.Height != 480 {
		t.Errorf("last channel = %v, want handle 7 at 640x480", dir.last)
	}
	if dir.last.Format != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("format = %v, want RGBA8Unorm", dir.last.Format)
	}
	if s.Name() != "B" || !s.Created() {
		t.Errorf("sender = %q created=%v, want B created", s.Name(), s.Created())
	}
}

func TestSenderRenameKeepsRawName(t *testing.T) {
	dir := &recordingDirectory{}
	s := NewSender(dir, gputypes.TextureFormatRGBA8Unorm)
	s.Rename("A", 0, 0, 0)

	if !s.Rename(" A ", 0, 0, 0) {
		t.Fatal("names differing in white space are different names")
	}
	if s.Name() != " A " || dir.last.Name != " A " {
		t.Errorf("name = %q, published %q, want %q", s.Name(), dir.last.Name, " A ")
	}
}

func TestSenderPublishesHolder(t *testing.T) {
	dir := &recordingDirectory{}
	a := NewSender(dir, gputypes.TextureFormatRGBA8Unorm)
	b := NewSender(dir, gputypes.TextureFormatRGBA8Unorm)
	if a.ID() == b.ID() {
		t.Fatalf("senders share id %d", a.ID())
	}

	a.Rename("A", 0, 0, 0)
	if dir.last.Owner != os.Getpid() || dir.last.Sender != a.ID() {
		t.Errorf("registered owner=%d sender=%d, want %d/%d", dir.last.Owner, dir.last.Sender, os.Getpid(), a.ID())
	}
	a.Release()
	if dir.last.Sender != a.ID() {
		t.Errorf("unregistered sender=%d, want %d", dir.last.Sender, a.ID())
	}
}

func TestSenderNameConflict(t *testing.T) {
	dir := NewMemoryDirectory()
	first := NewSender(dir, gputypes.TextureFormatRGBA8Unorm)
	second := NewSender(dir, gputypes.TextureFormatRGBA8Unorm)

	first.Rename("cam", 0, 0, 0)
	first.Release()
	first.Create(11, 64, 48)
	second.Rename("cam", 22, 32, 32)

	if !first.Created() {
		t.Fatal("first sender should hold cam")
	}
	if second.Created() {
		t.Error("second sender should not publish a name already in use")
	}

	second.Release()
	ch, err := dir.Lookup("cam")
	if err != nil {
		t.Fatalf("Lookup(cam) after second release: %v", err)
	}
	if ch.Handle != 11 || ch.Sender != first.ID() {
		t.Errorf("cam = %v sender %d, want first sender's handle 0xb", ch, ch.Sender)
	}

	first.Release()
	second.Release()
	second.Create(22, 32, 32)
	if !second.Created() {
		t.Error("second sender should take cam once it is free")
	}
}

func TestSenderInvalidNameLeavesReleased(t *testing.T) {
	dir := &recordingDirectory{}
	s := NewSender(dir, gputypes.TextureFormatRGBA8Unorm)
	s.Rename("A", 1, 4, 4)

	if !s.Rename("   ", 1, 4, 4) {
		t.Fatal("Rename to invalid name should release the old channel")
	}
	if s.Created() || s.Name() != "" {
		t.Errorf("sender = %q created=%v, want unnamed and released", s.Name(), s.Created())
	}

	// An unnamed sender publishes nothing.
	s.Create(1, 4, 4)
	if s.Created() {
		t.Error("unnamed sender should not publish")
	}
	if got := strings.Join(dir.calls, ","); got != "create A,release A" {
		t.Errorf("calls = %s", got)
	}
}

func TestSenderDirectoryFailuresAreAbsorbed(t *testing.T) {
	dir := &recordingDirectory{fail: errors.New("directory offline")}
	s := NewSender(dir, gputypes.TextureFormatRGBA8Unorm)

	s.Rename("A", 0, 0, 0)
	if s.Created() {
		t.Error("failed Create should leave the channel unpublished")
	}
	if s.Name() != "A" {
		t.Errorf("Name() = %q, want A", s.Name())
	}

	// Release of an unpublished channel does not touch the directory.
	s.Release()
	if got := strings.Join(dir.calls, ","); got != "create A" {
		t.Errorf("calls = %s, want create A", got)
	}

	// The next Create retries.
	dir.fail = nil
	s.Create(3, 8, 8)
	if !s.Created() {
		t.Error("Create should publish once the directory accepts it")
	}
	dir.fail = errors.New("directory offline")
	s.Release()
	if s.Created() {
		t.Error("Release should clear Created even when the directory fails")
	}
}

func TestMemoryDirectory(t *testing.T) {
	d := NewMemoryDirectory()

	if err := d.Register(Channel{}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Register(empty) err = %v, want ErrEmptyName", err)
	}
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := d.Register(Channel{Name: name, Width: 1, Height: 1}); err != nil {
			t.Fatalf("Register(%s) failed: %v", name, err)
		}
	}
	if err := d.Register(Channel{Name: "mid", Handle: 9, Width: 2, Height: 2}); err != nil {
		t.Fatalf("Register(mid) replace failed: %v", err)
	}

	ch, err := d.Lookup("mid")
	if err != nil {
		t.Fatalf("Lookup(mid) failed: %v", err)
	}
	if ch.Handle != 9 || ch.Width != 2 {
		t.Errorf("Lookup(mid) = %v, want replaced channel", ch)
	}

	list, err := d.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	var names []string
	for _, c := range list {
		names = append(names, c.Name)
	}
	if got := strings.Join(names, ","); got != "alpha,mid,zeta" {
		t.Errorf("List() names = %s, want alpha,mid,zeta", got)
	}

	if err := d.Unregister(Channel{Name: "alpha"}); err != nil {
		t.Errorf("Unregister(alpha) failed: %v", err)
	}
	if err := d.Unregister(Channel{Name: "alpha"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Unregister err = %v, want ErrNotFound", err)
	}
	if _, err := d.Lookup("alpha"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(alpha) err = %v, want ErrNotFound", err)
	}
	if d.Len() != 2 {
		t.Errorf("Len() = %d, want 2", d.Len())
	}
}

func TestMemoryDirectoryHolders(t *testing.T) {
	d := NewMemoryDirectory()
	held := Channel{Name: "cam", Handle: 5, Width: 8, Height: 8, Sender: 1}
	if err := d.Register(held); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	other := Channel{Name: "cam", Handle: 5, Width: 8, Height: 8, Sender: 2}
	if err := d.Register(other); !errors.Is(err, ErrExists) {
		t.Errorf("Register from another sender err = %v, want ErrExists", err)
	}
	foreign := held
	foreign.Owner = os.Getpid() + 1
	if err := d.Register(foreign); !errors.Is(err, ErrExists) {
		t.Errorf("Register from another owner err = %v, want ErrExists", err)
	}
	if err := d.Register(Channel{Name: "cafe\u0301", Sender: 2}); err != nil {
		t.Fatalf("Register(cafe) failed: %v", err)
	}
	if err := d.Register(Channel{Name: "caf\u00e9", Sender: 3}); !errors.Is(err, ErrExists) {
		t.Errorf("Register of the composed form err = %v, want ErrExists", err)
	}

	if err := d.Unregister(other); !errors.Is(err, ErrNotOwner) {
		t.Errorf("Unregister by another sender err = %v, want ErrNotOwner", err)
	}
	ch, err := d.Lookup("cam")
	if err != nil {
		t.Fatalf("Lookup(cam) failed: %v", err)
	}
	if ch.Owner != os.Getpid() || ch.Sender != 1 {
		t.Errorf("cam held by %d/%d, want %d/1", ch.Owner, ch.Sender, os.Getpid())
	}

	if err := d.Unregister(Channel{Name: "cam", Sender: 1}); err != nil {
		t.Errorf("Unregister by holder failed: %v", err)
	}
	if err := d.Register(other); err != nil {
		t.Errorf("Register after release failed: %v", err)
	}
}

func TestChannelString(t *testing.T) {
	ch := Channel{Name: "out", Handle: 0x10, Width: 3, Height: 4, Owner: 7}
	if got := ch.String(); got != "out 3x4 handle=0x10 owner=7" {
		t.Errorf("String() = %q", got)
	}
}
