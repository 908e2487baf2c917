// Package sqlite implements store.Store on an embedded SQLite database for local development.
// Timestamps are stored as UTC unix nanoseconds.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"time"

	"backend-chirper/internal/store"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed schema.sql
var schema string

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func New(handle *sql.DB) *Store {
	return &Store{db: handle, now: time.Now}
}

func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range store.SplitStatements(schema) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) stamp() int64 {
	return s.now().UTC().UnixNano()
}

func fromStamp(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var sqlErr *msqlite.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return store.ErrDuplicate
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return store.ErrNotFound
		}
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

const accountColumns = `a.id, a.display_name, a.handle, a.password_hash, a.gender, a.created_at`

func scanAccount(row scanner) (store.Account, error) {
	var a store.Account
	var gender string
	var created int64
	if err := row.Scan(&a.ID, &a.DisplayName, &a.Handle, &a.PasswordHash, &gender, &created); err != nil {
		return store.Account{}, err
	}
	a.Gender = store.Gender(gender)
	a.CreatedAt = fromStamp(created)
	return a, nil
}

func collectAccounts(rows *sql.Rows, err error) ([]store.Account, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []store.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *Store) CreateAccount(ctx context.Context, a store.Account) (store.Account, error) {
	created := s.stamp()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, display_name, handle, password_hash, gender, created_at)
		VALUES (?,?,?,?,?,?)
	`, a.ID, a.DisplayName, a.Handle, a.PasswordHash, string(a.Gender), created)
	if err != nil {
		return store.Account{}, translate(err)
	}
	a.CreatedAt = fromStamp(created)
	return a, nil
}

func (s *Store) FindAccountByHandle(ctx context.Context, handle string) (store.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts a WHERE a.handle = ?
	`, handle))
	if err != nil {
		return store.Account{}, translate(err)
	}
	return a, nil
}

func (s *Store) FindAccountByID(ctx context.Context, id string) (store.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts a WHERE a.id = ?
	`, id))
	if err != nil {
		return store.Account{}, translate(err)
	}
	return a, nil
}

func (s *Store) FollowExists(ctx context.Context, followerID, followingID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id=? AND following_id=?)
	`, followerID, followingID).Scan(&exists)
	return exists, err
}

func (s *Store) CreateFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO follows (follower_id, following_id, created_at)
		VALUES (?,?,?)
	`, followerID, followingID, s.stamp())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) DeleteFollow(ctx context.Context, followerID, followingID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM follows WHERE follower_id=? AND following_id=?`, followerID, followingID)
	return err
}

func (s *Store) ListFollowers(ctx context.Context, accountID string) ([]store.Account, error) {
	return collectAccounts(s.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM follows f JOIN accounts a ON a.id = f.follower_id
		WHERE f.following_id = ?
		ORDER BY f.created_at DESC
	`, accountID))
}

func (s *Store) ListFollowing(ctx context.Context, accountID string) ([]store.Account, error) {
	return collectAccounts(s.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM follows f JOIN accounts a ON a.id = f.following_id
		WHERE f.follower_id = ?
		ORDER BY f.created_at DESC
	`, accountID))
}

func (s *Store) CountFollows(ctx context.Context, accountID string) (int, int, error) {
	var followers, following int
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM follows WHERE following_id = ?1),
			(SELECT COUNT(*) FROM follows WHERE follower_id = ?1)
	`, accountID).Scan(&followers, &following)
	return followers, following, err
}

func (s *Store) Suggestions(ctx context.Context, accountID string, limit int) ([]store.Account, error) {
	return collectAccounts(s.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts a
		WHERE a.id <> ?1
		  AND a.id NOT IN (SELECT following_id FROM follows WHERE follower_id = ?1)
		ORDER BY random()
		LIMIT ?2
	`, accountID, limit))
}

const postSelect = `
	SELECT p.id, p.author_id, a.handle, a.display_name, p.text,
		(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id),
		(SELECT COUNT(*) FROM replies r WHERE r.post_id = p.id),
		p.created_at
	FROM posts p JOIN accounts a ON a.id = p.author_id`

func scanPost(row scanner) (store.Post, error) {
	var p store.Post
	var created int64
	if err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorHandle, &p.AuthorName, &p.Text, &p.LikeCount, &p.ReplyCount, &created); err != nil {
		return store.Post{}, err
	}
	p.CreatedAt = fromStamp(created)
	return p, nil
}

func collectPosts(rows *sql.Rows, err error) ([]store.Post, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []store.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *Store) CreatePost(ctx context.Context, p store.Post) (store.Post, error) {
	created := s.stamp()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, author_id, text, created_at)
		VALUES (?,?,?,?)
	`, p.ID, p.AuthorID, p.Text, created)
	if err != nil {
		return store.Post{}, translate(err)
	}
	p.CreatedAt = fromStamp(created)
	return p, nil
}

func (s *Store) FindPost(ctx context.Context, id string) (store.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, postSelect+` WHERE p.id = ?`, id))
	if err != nil {
		return store.Post{}, translate(err)
	}
	return p, nil
}

func (s *Store) PostAuthor(ctx context.Context, postID string) (string, error) {
	var authorID string
	if err := s.db.QueryRowContext(ctx, `SELECT author_id FROM posts WHERE id=?`, postID).Scan(&authorID); err != nil {
		return "", translate(err)
	}
	return authorID, nil
}

func (s *Store) ListPostsByAuthor(ctx context.Context, authorID string) ([]store.Post, error) {
	return collectPosts(s.db.QueryContext(ctx, postSelect+`
		WHERE p.author_id = ?
		ORDER BY p.created_at DESC, p.rowid DESC
	`, authorID))
}

func (s *Store) Feed(ctx context.Context, accountID string) ([]store.Post, error) {
	return collectPosts(s.db.QueryContext(ctx, postSelect+`
		WHERE p.author_id IN (SELECT following_id FROM follows WHERE follower_id = ?)
		ORDER BY p.created_at DESC, p.rowid DESC
	`, accountID))
}

func (s *Store) DeletePost(ctx context.Context, postID, authorID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id=? AND author_id=?`, postID, authorID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) LikeExists(ctx context.Context, postID, accountID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM likes WHERE post_id=? AND liker_id=?)
	`, postID, accountID).Scan(&exists)
	return exists, err
}

func (s *Store) CreateLike(ctx context.Context, postID, accountID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO likes (post_id, liker_id, created_at)
		VALUES (?,?,?)
	`, postID, accountID, s.stamp())
	if err != nil {
		return translate(err)
	}
	return nil
}

func (s *Store) DeleteLike(ctx context.Context, postID, accountID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM likes WHERE post_id=? AND liker_id=?`, postID, accountID)
	return err
}

func (s *Store) ListLikers(ctx context.Context, postID string) ([]store.Account, error) {
	return collectAccounts(s.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM likes l JOIN accounts a ON a.id = l.liker_id
		WHERE l.post_id = ?
		ORDER BY l.created_at DESC
	`, postID))
}

func (s *Store) CreateReply(ctx context.Context, r store.Reply) (store.Reply, error) {
	created := s.stamp()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO replies (id, post_id, author_id, text, created_at)
		VALUES (?,?,?,?,?)
	`, r.ID, r.PostID, r.AuthorID, r.Text, created)
	if err != nil {
		return store.Reply{}, translate(err)
	}
	r.CreatedAt = fromStamp(created)
	return r, nil
}

func (s *Store) ListReplies(ctx context.Context, postID string) ([]store.Reply, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.post_id, r.author_id, a.handle, r.text, r.created_at
		FROM replies r JOIN accounts a ON a.id = r.author_id
		WHERE r.post_id = ?
		ORDER BY r.created_at, r.rowid
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	replies := []store.Reply{}
	for rows.Next() {
		var r store.Reply
		var created int64
		if err := rows.Scan(&r.ID, &r.PostID, &r.AuthorID, &r.AuthorHandle, &r.Text, &created); err != nil {
			return nil, err
		}
		r.CreatedAt = fromStamp(created)
		replies = append(replies, r)
	}
	return replies, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *Store) CreateNotification(ctx context.Context, n store.Notification) (store.Notification, error) {
	created := s.stamp()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, recipient_id, actor_id, post_id, kind, message, is_read, created_at)
		VALUES (?,?,?,?,?,?,0,?)
	`, n.ID, n.RecipientID, n.ActorID, nullable(n.PostID), string(n.Kind), n.Message, created)
	if err != nil {
		return store.Notification{}, translate(err)
	}
	n.IsRead = false
	n.CreatedAt = fromStamp(created)
	return n, nil
}

func (s *Store) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool) ([]store.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.recipient_id, n.actor_id, a.handle, COALESCE(n.post_id, ''), n.kind, n.message, n.is_read, n.created_at
		FROM notifications n JOIN accounts a ON a.id = n.actor_id
		WHERE n.recipient_id = ? AND (? = 0 OR n.is_read = 0)
		ORDER BY n.created_at DESC, n.rowid DESC
	`, recipientID, unreadOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []store.Notification{}
	for rows.Next() {
		var n store.Notification
		var kind string
		var created int64
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.ActorID, &n.ActorHandle, &n.PostID, &kind, &n.Message, &n.IsRead, &created); err != nil {
			return nil, err
		}
		n.Kind = store.NotificationKind(kind)
		n.CreatedAt = fromStamp(created)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, recipientID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = 1
		WHERE id=? AND recipient_id=?
	`, id, recipientID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipientID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = 1
		WHERE recipient_id=? AND is_read = 0
	`, recipientID)
	return err
}
