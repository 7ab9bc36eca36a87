// Package sqlitedir stores share channels in an SQLite file so processes on
// the same machine can discover each other's textures.
//
// Every row records the directory owner (by default the process id) and the
// sender that registered it. A handle is only meaningful together with its
// owner: two processes may publish the same handle value for unrelated
// textures. Register refuses a name held by another owner or sender, and
// Unregister only removes rows the caller still holds, so one process cannot
// take down another process's channel by reusing its name.
//
// Rows left behind by a process that exited without unregistering stay
// until RemoveOwner is called for that owner.
package sqlitedir

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	_ "modernc.org/sqlite"

	"github.com/gogpu/texshare/share"
)

const schema = `
CREATE TABLE IF NOT EXISTS channels (
    key     TEXT PRIMARY KEY,   -- share.Key(name)
    name    TEXT NOT NULL,
    handle  INTEGER NOT NULL,
    width   INTEGER NOT NULL,
    height  INTEGER NOT NULL,
    format  INTEGER NOT NULL,
    owner   INTEGER NOT NULL,
    sender  INTEGER NOT NULL,
    updated INTEGER NOT NULL    -- UnixNano
);
CREATE INDEX IF NOT EXISTS channels_owner ON channels (owner);
`

const columns = `name, handle, width, height, format, owner, sender`

// Directory is a share.Catalog backed by SQLite. It is safe for
// concurrent use.
type Directory struct {
	db    *sql.DB
	owner int
	now   func() time.Time

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Directory.
type Option func(*Directory)

// WithOwner sets the owner id recorded on registered rows. Defaults to the
// process id.
func WithOwner(id int) Option {
	return func(d *Directory) { d.owner = id }
}

// Open opens or creates the directory database at path.
func Open(path string, opts ...Option) (*Directory, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlitedir: create directory: %w", err)
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(2000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitedir: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitedir: connect: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitedir: create schema: %w", err)
	}

	d := &Directory{db: db, owner: os.Getpid(), now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Owner returns the owner id recorded on rows this directory registers.
func (d *Directory) Owner() int { return d.owner }

// Register publishes ch under this directory's owner. It updates the row
// when the same owner and sender already hold the name and returns
// share.ErrExists when anyone else does.
func (d *Directory) Register(ch share.Channel) error {
	if ch.Name == "" {
		return share.ErrEmptyName
	}
	ch.Owner = d.owner
	res, err := d.db.Exec(`
		INSERT INTO channels (key, name, handle, width, height, format, owner, sender, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			name = excluded.name,
			handle = excluded.handle,
			width = excluded.width,
			height = excluded.height,
			format = excluded.format,
			updated = excluded.updated
		WHERE channels.owner = excluded.owner AND channels.sender = excluded.sender`,
		share.Key(ch.Name), ch.Name, int64(ch.Handle), ch.Width, ch.Height, uint32(ch.Format),
		ch.Owner, int64(ch.Sender), d.now().UnixNano())
	if err != nil {
		return fmt.Errorf("sqlitedir: register %q: %w", ch.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlitedir: register %q: %w", ch.Name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", share.ErrExists, ch.Name)
	}
	return nil
}

// Unregister removes ch.Name if this directory's owner and ch.Sender still
// hold it. A row held by someone else is left alone and reported as
// share.ErrNotOwner.
func (d *Directory) Unregister(ch share.Channel) error {
	key := share.Key(ch.Name)
	res, err := d.db.Exec(`DELETE FROM channels WHERE key = ? AND owner = ? AND sender = ?`,
		key, d.owner, int64(ch.Sender))
	if err != nil {
		return fmt.Errorf("sqlitedir: unregister %q: %w", ch.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlitedir: unregister %q: %w", ch.Name, err)
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = d.db.QueryRow(`SELECT COUNT(*) FROM channels WHERE key = ?`, key).Scan(&exists)
	if err != nil {
		return fmt.Errorf("sqlitedir: unregister %q: %w", ch.Name, err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %q", share.ErrNotOwner, ch.Name)
	}
	return fmt.Errorf("%w: %q", share.ErrNotFound, ch.Name)
}

// RemoveOwner deletes every row registered under owner and returns how many
// were removed. It clears channels left by a process that exited without
// releasing them.
func (d *Directory) RemoveOwner(owner int) (int64, error) {
	res, err := d.db.Exec(`DELETE FROM channels WHERE owner = ?`, owner)
	if err != nil {
		return 0, fmt.Errorf("sqlitedir: remove owner %d: %w", owner, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlitedir: remove owner %d: %w", owner, err)
	}
	return n, nil
}

// Lookup returns the named channel.
func (d *Directory) Lookup(name string) (share.Channel, error) {
	row := d.db.QueryRow(`SELECT `+columns+` FROM channels WHERE key = ?`, share.Key(name))
	ch, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return share.Channel{}, fmt.Errorf("%w: %q", share.ErrNotFound, name)
	}
	if err != nil {
		return share.Channel{}, fmt.Errorf("sqlitedir: lookup %q: %w", name, err)
	}
	return ch, nil
}

// List returns all channels sorted by name.
func (d *Directory) List() ([]share.Channel, error) {
	rows, err := d.db.Query(`SELECT ` + columns + ` FROM channels ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlitedir: list: %w", err)
	}
	defer rows.Close()

	var out []share.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlitedir: list: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// Owned returns the names registered by this directory's owner, sorted.
func (d *Directory) Owned() ([]string, error) {
	rows, err := d.db.Query(`SELECT name FROM channels WHERE owner = ? ORDER BY name`, d.owner)
	if err != nil {
		return nil, fmt.Errorf("sqlitedir: owned: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlitedir: owned: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close closes the database. Calling Close more than once returns the
// first result.
func (d *Directory) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.db.Close()
	})
	return d.closeErr
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChannel(s scanner) (share.Channel, error) {
	var (
		ch     share.Channel
		handle int64
		format uint32
		sender int64
	)
	if err := s.Scan(&ch.Name, &handle, &ch.Width, &ch.Height, &format, &ch.Owner, &sender); err != nil {
		return share.Channel{}, err
	}
	ch.Handle = uintptr(handle)
	ch.Sender = uint64(sender)
	ch.Format = gputypes.TextureFormat(format)
	return ch, nil
}

var _ share.Catalog = (*Directory)(nil)
