// Package postgres implements store.Store on top of pgx.
package postgres

import (
	"context"
	_ "embed"
	"errors"

	"backend-chirper/internal/db"
	"backend-chirper/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema.sql
var schema string

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type Store struct {
	db db.Querier
}

var _ store.Store = (*Store)(nil)

func New(q db.Querier) *Store {
	return &Store{db: q}
}

func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range store.SplitStatements(schema) {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return store.ErrDuplicate
		case foreignKeyViolation:
			return store.ErrNotFound
		}
	}
	return err
}

const accountColumns = `a.id, a.display_name, a.handle, a.password_hash, a.gender, a.created_at`

func scanAccount(row pgx.Row) (store.Account, error) {
	var a store.Account
	var gender string
	if err := row.Scan(&a.ID, &a.DisplayName, &a.Handle, &a.PasswordHash, &gender, &a.CreatedAt); err != nil {
		return store.Account{}, err
	}
	a.Gender = store.Gender(gender)
	return a, nil
}

func collectAccounts(rows pgx.Rows, err error) ([]store.Account, error) {
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
	row := s.db.QueryRow(ctx, `
		INSERT INTO accounts (id, display_name, handle, password_hash, gender)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, a.ID, a.DisplayName, a.Handle, a.PasswordHash, string(a.Gender))
	if err := row.Scan(&a.CreatedAt); err != nil {
		return store.Account{}, translate(err)
	}
	return a, nil
}

func (s *Store) FindAccountByHandle(ctx context.Context, handle string) (store.Account, error) {
	a, err := scanAccount(s.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts a WHERE a.handle = $1
	`, handle))
	if err != nil {
		return store.Account{}, translate(err)
	}
	return a, nil
}

func (s *Store) FindAccountByID(ctx context.Context, id string) (store.Account, error) {
	a, err := scanAccount(s.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts a WHERE a.id = $1
	`, id))
	if err != nil {
		return store.Account{}, translate(err)
	}
	return a, nil
}

func (s *Store) FollowExists(ctx context.Context, followerID, followingID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id=$1 AND following_id=$2)
	`, followerID, followingID).Scan(&exists)
	return exists, err
}

func (s *Store) CreateFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO follows (follower_id, following_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, followerID, followingID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DeleteFollow(ctx context.Context, followerID, followingID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM follows WHERE follower_id=$1 AND following_id=$2`, followerID, followingID)
	return err
}

func (s *Store) ListFollowers(ctx context.Context, accountID string) ([]store.Account, error) {
	return collectAccounts(s.db.Query(ctx, `
		SELECT `+accountColumns+`
		FROM follows f JOIN accounts a ON a.id = f.follower_id
		WHERE f.following_id = $1
		ORDER BY f.created_at DESC
	`, accountID))
}

func (s *Store) ListFollowing(ctx context.Context, accountID string) ([]store.Account, error) {
	return collectAccounts(s.db.Query(ctx, `
		SELECT `+accountColumns+`
		FROM follows f JOIN accounts a ON a.id = f.following_id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC
	`, accountID))
}

func (s *Store) CountFollows(ctx context.Context, accountID string) (int, int, error) {
	var followers, following int
	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM follows WHERE following_id = $1),
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1)
	`, accountID).Scan(&followers, &following)
	return followers, following, err
}

func (s *Store) Suggestions(ctx context.Context, accountID string, limit int) ([]store.Account, error) {
	return collectAccounts(s.db.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts a
		WHERE a.id <> $1
		  AND a.id NOT IN (SELECT following_id FROM follows WHERE follower_id = $1)
		ORDER BY random()
		LIMIT $2
	`, accountID, limit))
}

const postSelect = `
	SELECT p.id, p.author_id, a.handle, a.display_name, p.text,
		(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id),
		(SELECT COUNT(*) FROM replies r WHERE r.post_id = p.id),
		p.created_at
	FROM posts p JOIN accounts a ON a.id = p.author_id`

func scanPost(row pgx.Row) (store.Post, error) {
	var p store.Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorHandle, &p.AuthorName, &p.Text, &p.LikeCount, &p.ReplyCount, &p.CreatedAt)
	return p, err
}

func collectPosts(rows pgx.Rows, err error) ([]store.Post, error) {
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
	row := s.db.QueryRow(ctx, `
		INSERT INTO posts (id, author_id, text)
		VALUES ($1,$2,$3)
		RETURNING created_at
	`, p.ID, p.AuthorID, p.Text)
	if err := row.Scan(&p.CreatedAt); err != nil {
		return store.Post{}, translate(err)
	}
	return p, nil
}

func (s *Store) FindPost(ctx context.Context, id string) (store.Post, error) {
	p, err := scanPost(s.db.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return store.Post{}, translate(err)
	}
	return p, nil
}

func (s *Store) PostAuthor(ctx context.Context, postID string) (string, error) {
	var authorID string
	if err := s.db.QueryRow(ctx, `SELECT author_id FROM posts WHERE id=$1`, postID).Scan(&authorID); err != nil {
		return "", translate(err)
	}
	return authorID, nil
}

func (s *Store) ListPostsByAuthor(ctx context.Context, authorID string) ([]store.Post, error) {
	return collectPosts(s.db.Query(ctx, postSelect+`
		WHERE p.author_id = $1
		ORDER BY p.created_at DESC, p.id DESC
	`, authorID))
}

func (s *Store) Feed(ctx context.Context, accountID string) ([]store.Post, error) {
	return collectPosts(s.db.Query(ctx, postSelect+`
		WHERE p.author_id IN (SELECT following_id FROM follows WHERE follower_id = $1)
		ORDER BY p.created_at DESC, p.id DESC
	`, accountID))
}

func (s *Store) DeletePost(ctx context.Context, postID, authorID string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id=$1 AND author_id=$2`, postID, authorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) LikeExists(ctx context.Context, postID, accountID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM likes WHERE post_id=$1 AND liker_id=$2)
	`, postID, accountID).Scan(&exists)
	return exists, err
}

func (s *Store) CreateLike(ctx context.Context, postID, accountID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO likes (post_id, liker_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, postID, accountID)
	if err != nil {
		return translate(err)
	}
	return nil
}

func (s *Store) DeleteLike(ctx context.Context, postID, accountID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM likes WHERE post_id=$1 AND liker_id=$2`, postID, accountID)
	return err
}

func (s *Store) ListLikers(ctx context.Context, postID string) ([]store.Account, error) {
	return collectAccounts(s.db.Query(ctx, `
		SELECT `+accountColumns+`
		FROM likes l JOIN accounts a ON a.id = l.liker_id
		WHERE l.post_id = $1
		ORDER BY l.created_at DESC
	`, postID))
}

func (s *Store) CreateReply(ctx context.Context, r store.Reply) (store.Reply, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO replies (id, post_id, author_id, text)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, r.ID, r.PostID, r.AuthorID, r.Text)
	if err := row.Scan(&r.CreatedAt); err != nil {
		return store.Reply{}, translate(err)
	}
	return r, nil
}

func (s *Store) ListReplies(ctx context.Context, postID string) ([]store.Reply, error) {
	rows, err := s.db.Query(ctx, `
		SELECT r.id, r.post_id, r.author_id, a.handle, r.text, r.created_at
		FROM replies r JOIN accounts a ON a.id = r.author_id
		WHERE r.post_id = $1
		ORDER BY r.created_at, r.id
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	replies := []store.Reply{}
	for rows.Next() {
		var r store.Reply
		if err := rows.Scan(&r.ID, &r.PostID, &r.AuthorID, &r.AuthorHandle, &r.Text, &r.CreatedAt); err != nil {
			return nil, err
		}
		replies = append(replies, r)
	}
	return replies, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *Store) CreateNotification(ctx context.Context, n store.Notification) (store.Notification, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO notifications (id, recipient_id, actor_id, post_id, kind, message)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING is_read, created_at
	`, n.ID, n.RecipientID, n.ActorID, nullable(n.PostID), string(n.Kind), n.Message)
	if err := row.Scan(&n.IsRead, &n.CreatedAt); err != nil {
		return store.Notification{}, translate(err)
	}
	return n, nil
}

func (s *Store) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool) ([]store.Notification, error) {
	rows, err := s.db.Query(ctx, `
		SELECT n.id, n.recipient_id, n.actor_id, a.handle, COALESCE(n.post_id::text, ''), n.kind, n.message, n.is_read, n.created_at
		FROM notifications n JOIN accounts a ON a.id = n.actor_id
		WHERE n.recipient_id = $1 AND ($2 = false OR n.is_read = false)
		ORDER BY n.created_at DESC, n.id DESC
	`, recipientID, unreadOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []store.Notification{}
	for rows.Next() {
		var n store.Notification
		var kind string
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.ActorID, &n.ActorHandle, &n.PostID, &kind, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Kind = store.NotificationKind(kind)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, recipientID string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = true
		WHERE id=$1 AND recipient_id=$2
	`, id, recipientID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipientID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = true
		WHERE recipient_id=$1 AND is_read = false
	`, recipientID)
	return err
}
