package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"readest-ai-core/internal/model"
	"readest-ai-core/internal/ragerr"
)

// DBNamePrefix matches the persisted-layout contract: one database per
// book, named prefix + bookHash.
const DBNamePrefix = "readest-ai-"

// SQLiteBackend is a per-book Backend implementation over a single
// SQLite file, generalized from the reference corpus's shared-database
// repo pattern to an isolated database per book.
type SQLiteBackend struct {
	db       *sql.DB
	bookHash string
}

// OpenSQLiteBackend opens (creating if needed) the SQLite file at path
// and migrates its schema. path is expected to be named
// DBNamePrefix+bookHash by the caller.
func OpenSQLiteBackend(path, bookHash string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, ragerr.Store("store.OpenSQLiteBackend", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, ragerr.Store("store.OpenSQLiteBackend", err)
	}
	db.SetMaxOpenConns(1) // one writer per book file; avoids SQLITE_BUSY across goroutines
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, ragerr.Store("store.OpenSQLiteBackend", err)
	}

	b := &SQLiteBackend{db: db, bookHash: bookHash}
	if err := b.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			book_hash TEXT NOT NULL,
			section_index INTEGER NOT NULL,
			chapter_title TEXT,
			page_number INTEGER NOT NULL,
			text TEXT NOT NULL,
			embedding BLOB
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_book_hash ON chunks(book_hash);`,
		`CREATE TABLE IF NOT EXISTS book_meta (
			book_hash TEXT PRIMARY KEY,
			book_title TEXT,
			author_name TEXT,
			total_sections INTEGER,
			total_chunks INTEGER,
			embedding_model TEXT,
			embedding_dimension INTEGER,
			page_size_chars INTEGER,
			last_updated DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS bm25_indices (
			book_hash TEXT PRIMARY KEY,
			data BLOB
		);`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			book_hash TEXT NOT NULL,
			title TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_book_hash ON conversations(book_hash);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages(conversation_id);`,
	}
	for _, stmt := range schema {
		if _, err := b.db.Exec(stmt); err != nil {
			return ragerr.Store("store.migrate", err)
		}
	}
	return nil
}

// SaveChunks writes all chunks for the book in a single transaction,
// replacing whatever was there before (re-index wholesale replacement).
func (b *SQLiteBackend) SaveChunks(ctx context.Context, chunks []model.Chunk) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return ragerr.Store("store.SaveChunks", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE book_hash = ?`, b.bookHash); err != nil {
		return ragerr.Store("store.SaveChunks", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks
		(id, book_hash, section_index, chapter_title, page_number, text, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return ragerr.Store("store.SaveChunks", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		var embBlob []byte
		if c.HasEmbedding() {
			embBlob = encodeEmbedding(c.Embedding)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.BookHash, c.SectionIndex, c.ChapterTitle, c.PageNumber, c.Text, embBlob); err != nil {
			return ragerr.Store("store.SaveChunks", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ragerr.Store("store.SaveChunks", err)
	}
	return nil
}

// LoadChunks returns every persisted chunk for the book.
func (b *SQLiteBackend) LoadChunks(ctx context.Context) ([]model.Chunk, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT id, book_hash, section_index, chapter_title, page_number, text, embedding
		FROM chunks WHERE book_hash = ? ORDER BY section_index, page_number`, b.bookHash)
	if err != nil {
		return nil, ragerr.Store("store.LoadChunks", err)
	}
	defer rows.Close()

	var chunks []model.Chunk
	for rows.Next() {
		var c model.Chunk
		var embBlob []byte
		if err := rows.Scan(&c.ID, &c.BookHash, &c.SectionIndex, &c.ChapterTitle, &c.PageNumber, &c.Text, &embBlob); err != nil {
			return nil, ragerr.Store("store.LoadChunks", err)
		}
		if len(embBlob) > 0 {
			c.Embedding = decodeEmbedding(embBlob)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, ragerr.Store("store.LoadChunks", err)
	}
	return chunks, nil
}

// SaveBM25 persists the serialized lexical index as one record,
// replacing any prior value wholesale.
func (b *SQLiteBackend) SaveBM25(ctx context.Context, data []byte) error {
	_, err := b.db.ExecContext(ctx, `INSERT INTO bm25_indices (book_hash, data) VALUES (?, ?)
		ON CONFLICT(book_hash) DO UPDATE SET data = excluded.data`, b.bookHash, data)
	if err != nil {
		return ragerr.Store("store.SaveBM25", err)
	}
	return nil
}

// LoadBM25 returns the persisted serialized lexical index, or nil if none exists.
func (b *SQLiteBackend) LoadBM25(ctx context.Context) ([]byte, error) {
	var data []byte
	err := b.db.QueryRowContext(ctx, `SELECT data FROM bm25_indices WHERE book_hash = ?`, b.bookHash).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ragerr.Store("store.LoadBM25", err)
	}
	return data, nil
}

// SaveMeta writes book metadata. It is written last in an indexing
// run, marking the book as committed.
func (b *SQLiteBackend) SaveMeta(ctx context.Context, meta model.BookIndexMeta) error {
	_, err := b.db.ExecContext(ctx, `INSERT INTO book_meta
		(book_hash, book_title, author_name, total_sections, total_chunks, embedding_model, embedding_dimension, page_size_chars, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(book_hash) DO UPDATE SET
			book_title=excluded.book_title, author_name=excluded.author_name,
			total_sections=excluded.total_sections, total_chunks=excluded.total_chunks,
			embedding_model=excluded.embedding_model, embedding_dimension=excluded.embedding_dimension,
			page_size_chars=excluded.page_size_chars, last_updated=excluded.last_updated`,
		meta.BookHash, meta.BookTitle, meta.AuthorName, meta.TotalSections, meta.TotalChunks,
		meta.EmbeddingModel, meta.EmbeddingDimension, meta.PageSizeChars, meta.LastUpdated)
	if err != nil {
		return ragerr.Store("store.SaveMeta", err)
	}
	return nil
}

// LoadMeta returns the book's meta record, if any.
func (b *SQLiteBackend) LoadMeta(ctx context.Context) (model.BookIndexMeta, bool, error) {
	var m model.BookIndexMeta
	err := b.db.QueryRowContext(ctx, `SELECT book_hash, book_title, author_name, total_sections, total_chunks,
		embedding_model, embedding_dimension, page_size_chars, last_updated
		FROM book_meta WHERE book_hash = ?`, b.bookHash).Scan(
		&m.BookHash, &m.BookTitle, &m.AuthorName, &m.TotalSections, &m.TotalChunks,
		&m.EmbeddingModel, &m.EmbeddingDimension, &m.PageSizeChars, &m.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.BookIndexMeta{}, false, nil
	}
	if err != nil {
		return model.BookIndexMeta{}, false, ragerr.Store("store.LoadMeta", err)
	}
	return m, true, nil
}

// ClearBook deletes every object kind for this book: chunks, bm25
// index, meta and conversations (which cascades to messages).
func (b *SQLiteBackend) ClearBook(ctx context.Context) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return ragerr.Store("store.ClearBook", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`DELETE FROM chunks WHERE book_hash = ?`,
		`DELETE FROM bm25_indices WHERE book_hash = ?`,
		`DELETE FROM book_meta WHERE book_hash = ?`,
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s, b.bookHash); err != nil {
			return ragerr.Store("store.ClearBook", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id IN
		(SELECT id FROM conversations WHERE book_hash = ?)`, b.bookHash); err != nil {
		return ragerr.Store("store.ClearBook", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE book_hash = ?`, b.bookHash); err != nil {
		return ragerr.Store("store.ClearBook", err)
	}

	if err := tx.Commit(); err != nil {
		return ragerr.Store("store.ClearBook", err)
	}
	return nil
}

// SaveConversation upserts a conversation record.
func (b *SQLiteBackend) SaveConversation(ctx context.Context, c model.Conversation) error {
	_, err := b.db.ExecContext(ctx, `INSERT INTO conversations (id, book_hash, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title=excluded.title, updated_at=excluded.updated_at`,
		c.ID, c.BookHash, c.Title, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return ragerr.Store("store.SaveConversation", err)
	}
	return nil
}

// ListConversations returns every conversation for the book, sorted by
// updatedAt descending.
func (b *SQLiteBackend) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT id, book_hash, title, created_at, updated_at
		FROM conversations WHERE book_hash = ? ORDER BY updated_at DESC`, b.bookHash)
	if err != nil {
		return nil, ragerr.Store("store.ListConversations", err)
	}
	defer rows.Close()

	var convos []model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.ID, &c.BookHash, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, ragerr.Store("store.ListConversations", err)
		}
		convos = append(convos, c)
	}
	return convos, rows.Err()
}

// GetConversation returns one conversation by id.
func (b *SQLiteBackend) GetConversation(ctx context.Context, id string) (model.Conversation, bool, error) {
	var c model.Conversation
	err := b.db.QueryRowContext(ctx, `SELECT id, book_hash, title, created_at, updated_at
		FROM conversations WHERE id = ? AND book_hash = ?`, id, b.bookHash).
		Scan(&c.ID, &c.BookHash, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Conversation{}, false, nil
	}
	if err != nil {
		return model.Conversation{}, false, ragerr.Store("store.GetConversation", err)
	}
	return c, true, nil
}

// UpdateConversationTitle updates a conversation's title and updatedAt
// in a single statement, returning the updated row so callers never
// need a separate read to refresh their cache.
func (b *SQLiteBackend) UpdateConversationTitle(ctx context.Context, id, title string, updatedAt time.Time) (model.Conversation, error) {
	res, err := b.db.ExecContext(ctx, `UPDATE conversations SET title = ?, updated_at = ?
		WHERE id = ? AND book_hash = ?`, title, updatedAt, id, b.bookHash)
	if err != nil {
		return model.Conversation{}, ragerr.Store("store.UpdateConversationTitle", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Conversation{}, ragerr.Store("store.UpdateConversationTitle", err)
	}
	if n == 0 {
		return model.Conversation{}, ragerr.Store("store.UpdateConversationTitle", errConversationNotFound(id))
	}
	c, ok, err := b.GetConversation(ctx, id)
	if err != nil {
		return model.Conversation{}, err
	}
	if !ok {
		return model.Conversation{}, ragerr.Store("store.UpdateConversationTitle", errConversationNotFound(id))
	}
	return c, nil
}

// DeleteConversation deletes the conversation and cascades to delete
// all its messages in the same transaction.
func (b *SQLiteBackend) DeleteConversation(ctx context.Context, id string) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return ragerr.Store("store.DeleteConversation", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return ragerr.Store("store.DeleteConversation", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ? AND book_hash = ?`, id, b.bookHash); err != nil {
		return ragerr.Store("store.DeleteConversation", err)
	}

	if err := tx.Commit(); err != nil {
		return ragerr.Store("store.DeleteConversation", err)
	}
	return nil
}

// SaveMessage appends a message. Messages are never rewritten.
func (b *SQLiteBackend) SaveMessage(ctx context.Context, m model.Message) error {
	_, err := b.db.ExecContext(ctx, `INSERT INTO messages (id, conversation_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)`, m.ID, m.ConversationID, m.Role, m.Content, m.CreatedAt)
	if err != nil {
		return ragerr.Store("store.SaveMessage", err)
	}
	return nil
}

// ListMessages returns every message of a conversation, sorted by
// createdAt ascending.
func (b *SQLiteBackend) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT id, conversation_id, role, content, created_at
		FROM messages WHERE conversation_id = ? ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, ragerr.Store("store.ListMessages", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, ragerr.Store("store.ListMessages", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Close closes the underlying database handle.
func (b *SQLiteBackend) Close() error {
	if err := b.db.Close(); err != nil {
		return ragerr.Store("store.Close", err)
	}
	return nil
}

// encodeEmbedding packs a float32 vector into a little-endian byte
// blob for BLOB storage.
func encodeEmbedding(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeEmbedding(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	r := bytes.NewReader(blob)
	for i := range vec {
		var bits uint32
		_ = binary.Read(r, binary.LittleEndian, &bits)
		vec[i] = math.Float32frombits(bits)
	}
	return vec
}
