package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"homegrid/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			avatar TEXT,
			password_hash TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS chats (
			chat_id TEXT PRIMARY KEY,
			last_message TEXT,
			last_message_at DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS chat_participants (
			chat_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			seen INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (chat_id, user_id),
			FOREIGN KEY (chat_id) REFERENCES chats(chat_id),
			FOREIGN KEY (user_id) REFERENCES users(user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_participants_user ON chat_participants(user_id)`,
		// seq is the authoritative ordering within a chat; created_at is
		// informational and must not be used to sort.
		`CREATE TABLE IF NOT EXISTS messages (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT NOT NULL UNIQUE,
			chat_id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (chat_id) REFERENCES chats(chat_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, seq)`,
		`CREATE TABLE IF NOT EXISTS posts (
			post_id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			title TEXT NOT NULL,
			price INTEGER NOT NULL,
			city TEXT NOT NULL,
			address TEXT,
			bedroom INTEGER NOT NULL DEFAULT 0,
			bathroom INTEGER NOT NULL DEFAULT 0,
			type TEXT NOT NULL,
			property TEXT NOT NULL,
			images TEXT,
			detail TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (owner_id) REFERENCES users(user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_city ON posts(city)`,
		`CREATE TABLE IF NOT EXISTS saved_posts (
			user_id TEXT NOT NULL,
			post_id TEXT NOT NULL,
			PRIMARY KEY (user_id, post_id),
			FOREIGN KEY (user_id) REFERENCES users(user_id),
			FOREIGN KEY (post_id) REFERENCES posts(post_id)
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateUser creates a new user.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, username, email, avatar, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.UserID, user.Username, user.Email, user.Avatar, user.PasswordHash, user.CreatedAt)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return domain.ErrConflict
	}
	return err
}

// GetUser retrieves a user by id. Returns nil if the user does not exist.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT user_id, username, email, avatar, password_hash, created_at FROM users WHERE user_id = ?`,
		userID))
}

// GetUserByUsername retrieves a user by username. Returns nil if absent.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT user_id, username, email, avatar, password_hash, created_at FROM users WHERE username = ?`,
		username))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	var avatar sql.NullString
	err := row.Scan(&user.UserID, &user.Username, &user.Email, &avatar, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if avatar.Valid {
		user.Avatar = avatar.String
	}
	return &user, nil
}

// CreateChat creates a chat and its participant rows. The creator counts
// as having seen the empty conversation; the other party does not.
func (s *SQLiteStore) CreateChat(ctx context.Context, chat *domain.Chat) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chats (chat_id, created_at) VALUES (?, ?)`,
		chat.ChatID, chat.CreatedAt); err != nil {
		return err
	}
	for _, userID := range chat.ParticipantIDs {
		seen := 0
		for _, seenID := range chat.SeenBy {
			if seenID == userID {
				seen = 1
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_participants (chat_id, user_id, seen) VALUES (?, ?, ?)`,
			chat.ChatID, userID, seen); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetChat retrieves a chat with its participants and seen set, without
// messages. Returns nil if the chat does not exist.
func (s *SQLiteStore) GetChat(ctx context.Context, chatID string) (*domain.Chat, error) {
	var chat domain.Chat
	var lastMessage sql.NullString
	var lastMessageAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT chat_id, last_message, last_message_at, created_at FROM chats WHERE chat_id = ?`,
		chatID).Scan(&chat.ChatID, &lastMessage, &lastMessageAt, &chat.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lastMessage.Valid {
		chat.LastMessage = lastMessage.String
	}
	if lastMessageAt.Valid {
		chat.LastMessageAt = &lastMessageAt.Time
	}
	if err := s.loadParticipants(ctx, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (s *SQLiteStore) loadParticipants(ctx context.Context, chat *domain.Chat) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, seen FROM chat_participants WHERE chat_id = ? ORDER BY user_id`,
		chat.ChatID)
	if err != nil {
		return err
	}
	defer rows.Close()

	chat.ParticipantIDs = chat.ParticipantIDs[:0]
	chat.SeenBy = chat.SeenBy[:0]
	for rows.Next() {
		var userID string
		var seen int
		if err := rows.Scan(&userID, &seen); err != nil {
			return err
		}
		chat.ParticipantIDs = append(chat.ParticipantIDs, userID)
		if seen != 0 {
			chat.SeenBy = append(chat.SeenBy, userID)
		}
	}
	return rows.Err()
}

// GetChatByParticipants finds the existing chat between two users, if any.
func (s *SQLiteStore) GetChatByParticipants(ctx context.Context, userA, userB string) (*domain.Chat, error) {
	var chatID string
	err := s.db.QueryRowContext(ctx,
		`SELECT p1.chat_id FROM chat_participants p1
		 JOIN chat_participants p2 ON p2.chat_id = p1.chat_id
		 WHERE p1.user_id = ? AND p2.user_id = ?`,
		userA, userB).Scan(&chatID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.GetChat(ctx, chatID)
}

// ListChats retrieves chat summaries for a user, most recent activity
// first. The other participant is attached as Receiver.
func (s *SQLiteStore) ListChats(ctx context.Context, userID string) ([]domain.Chat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.chat_id, c.last_message, c.last_message_at, c.created_at
		 FROM chats c
		 JOIN chat_participants p ON p.chat_id = c.chat_id
		 WHERE p.user_id = ?
		 ORDER BY COALESCE(c.last_message_at, c.created_at) DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []domain.Chat
	for rows.Next() {
		var chat domain.Chat
		var lastMessage sql.NullString
		var lastMessageAt sql.NullTime
		if err := rows.Scan(&chat.ChatID, &lastMessage, &lastMessageAt, &chat.CreatedAt); err != nil {
			return nil, err
		}
		if lastMessage.Valid {
			chat.LastMessage = lastMessage.String
		}
		if lastMessageAt.Valid {
			chat.LastMessageAt = &lastMessageAt.Time
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range chats {
		if err := s.loadParticipants(ctx, &chats[i]); err != nil {
			return nil, err
		}
		for _, id := range chats[i].ParticipantIDs {
			if id == userID {
				continue
			}
			receiver, err := s.GetUser(ctx, id)
			if err != nil {
				return nil, err
			}
			chats[i].Receiver = receiver
		}
	}
	return chats, nil
}

// GetMessages retrieves all messages of a chat in insertion order.
func (s *SQLiteStore) GetMessages(ctx context.Context, chatID string) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, message_id, chat_id, sender_id, text, created_at
		 FROM messages WHERE chat_id = ? ORDER BY seq ASC`,
		chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.Seq, &msg.MessageID, &msg.ChatID, &msg.SenderID, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// AppendMessage persists a message and updates the chat's seen set and
// last-message summary in a single transaction.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *domain.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO messages (message_id, chat_id, sender_id, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.MessageID, msg.ChatID, msg.SenderID, msg.Text, msg.CreatedAt)
	if err != nil {
		return err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return err
	}
	msg.Seq = seq

	if _, err := tx.ExecContext(ctx,
		`UPDATE chat_participants SET seen = CASE WHEN user_id = ? THEN 1 ELSE 0 END WHERE chat_id = ?`,
		msg.SenderID, msg.ChatID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE chats SET last_message = ?, last_message_at = ? WHERE chat_id = ?`,
		msg.Text, msg.CreatedAt, msg.ChatID); err != nil {
		return err
	}
	return tx.Commit()
}

// MarkRead marks the chat seen by userID and returns the updated seen set.
func (s *SQLiteStore) MarkRead(ctx context.Context, chatID, userID string) ([]string, error) {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE chat_participants SET seen = 1 WHERE chat_id = ? AND user_id = ?`,
		chatID, userID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM chat_participants WHERE chat_id = ? AND seen = 1 ORDER BY user_id`,
		chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seenBy []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		seenBy = append(seenBy, id)
	}
	return seenBy, rows.Err()
}

// CreatePost creates a listing.
func (s *SQLiteStore) CreatePost(ctx context.Context, post *domain.Post) error {
	images, err := json.Marshal(post.Images)
	if err != nil {
		return err
	}
	detail := ""
	if post.Detail != nil {
		detail = string(post.Detail)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO posts (post_id, owner_id, title, price, city, address, bedroom, bathroom, type, property, images, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.PostID, post.OwnerID, post.Title, post.Price, post.City, post.Address,
		post.Bedroom, post.Bathroom, post.Type, post.Property, string(images), detail, post.CreatedAt)
	return err
}

// GetPost retrieves a listing by id. Returns nil if absent.
func (s *SQLiteStore) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT post_id, owner_id, title, price, city, address, bedroom, bathroom, type, property, images, detail, created_at
		 FROM posts WHERE post_id = ?`,
		postID)
	post, err := scanPost(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return post, err
}

// ListPosts retrieves listings matching the filter, newest first.
func (s *SQLiteStore) ListPosts(ctx context.Context, filter domain.PostFilter) ([]domain.Post, error) {
	query := `SELECT post_id, owner_id, title, price, city, address, bedroom, bathroom, type, property, images, detail, created_at FROM posts`
	var conds []string
	var args []interface{}

	if filter.City != "" {
		conds = append(conds, "city = ?")
		args = append(args, filter.City)
	}
	if filter.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Property != "" {
		conds = append(conds, "property = ?")
		args = append(args, filter.Property)
	}
	if filter.Bedroom > 0 {
		conds = append(conds, "bedroom = ?")
		args = append(args, filter.Bedroom)
	}
	if filter.MinPrice > 0 {
		conds = append(conds, "price >= ?")
		args = append(args, filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		conds = append(conds, "price <= ?")
		args = append(args, filter.MaxPrice)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows.Scan)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

func scanPost(scan func(dest ...interface{}) error) (*domain.Post, error) {
	var post domain.Post
	var address, images, detail sql.NullString
	err := scan(&post.PostID, &post.OwnerID, &post.Title, &post.Price, &post.City, &address,
		&post.Bedroom, &post.Bathroom, &post.Type, &post.Property, &images, &detail, &post.CreatedAt)
	if err != nil {
		return nil, err
	}
	if address.Valid {
		post.Address = address.String
	}
	if images.Valid && images.String != "" {
		if err := json.Unmarshal([]byte(images.String), &post.Images); err != nil {
			return nil, err
		}
	}
	if detail.Valid && detail.String != "" {
		post.Detail = json.RawMessage(detail.String)
	}
	return &post, nil
}

// UpdatePost replaces the mutable fields of a listing.
func (s *SQLiteStore) UpdatePost(ctx context.Context, post *domain.Post) error {
	images, err := json.Marshal(post.Images)
	if err != nil {
		return err
	}
	detail := ""
	if post.Detail != nil {
		detail = string(post.Detail)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, price = ?, city = ?, address = ?, bedroom = ?, bathroom = ?, type = ?, property = ?, images = ?, detail = ?
		 WHERE post_id = ?`,
		post.Title, post.Price, post.City, post.Address, post.Bedroom, post.Bathroom,
		post.Type, post.Property, string(images), detail, post.PostID)
	return err
}

// DeletePost removes a listing and its saved-post rows.
func (s *SQLiteStore) DeletePost(ctx context.Context, postID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM saved_posts WHERE post_id = ?`, postID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE post_id = ?`, postID); err != nil {
		return err
	}
	return tx.Commit()
}

// SetPostSaved adds or removes a saved-post marker.
func (s *SQLiteStore) SetPostSaved(ctx context.Context, userID, postID string, saved bool) error {
	if saved {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO saved_posts (user_id, post_id) VALUES (?, ?)`,
			userID, postID)
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM saved_posts WHERE user_id = ? AND post_id = ?`,
		userID, postID)
	return err
}

// IsPostSaved reports whether the user saved the listing.
func (s *SQLiteStore) IsPostSaved(ctx context.Context, userID, postID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM saved_posts WHERE user_id = ? AND post_id = ?`,
		userID, postID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
