// Package token implements single-use, TTL-bound download tokens backed
// by an embedded key-value store with native per-key TTL, adapted from
// the block-store cache the teacher uses badger for.
package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/productinventor/filevault/pkg/apierr"
)

// DefaultExpiry is used when a caller does not specify a TTL.
const DefaultExpiry = 5 * time.Minute

// Entry is the payload a token resolves to on consume.
type Entry struct {
	IssuedToID    string    `json:"issued_to_id"`
	FileID        string    `json:"file_id"`
	VersionNumber int32     `json:"version_number"`
	ProjectID     string    `json:"project_id"`
	FileName      string    `json:"file_name"`
	MimeType      string    `json:"mime_type"`
	ContentHash   string    `json:"content_hash"`
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// newToken generates a 32-byte random token rendered as 64 lowercase hex
// characters.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Service is the Token Service component.
type Service struct {
	db     *badger.DB
	expiry time.Duration
}

// Config configures the underlying badger database.
type Config struct {
	// Path to the badger data directory. Empty uses an in-memory store,
	// suitable for tests.
	Path   string
	Expiry time.Duration
}

// New opens (or creates) the badger database at cfg.Path.
func New(cfg Config) (*Service, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("token: opening store: %w", err)
	}

	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	return &Service{db: db, expiry: expiry}, nil
}

// Close releases the underlying badger database.
func (s *Service) Close() error {
	return s.db.Close()
}

// Create mints a new single-use token for entry, expiring after the
// service's configured TTL.
func (s *Service) Create(ctx context.Context, entry Entry) (string, error) {
	entry.IssuedAt = time.Now()
	entry.ExpiresAt = entry.IssuedAt.Add(s.expiry)
	payload, err := json.Marshal(entry)
	if err != nil {
		return "", err
	}

	tok, err := newToken()
	if err != nil {
		return "", fmt.Errorf("token: generating token: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(tok), payload).WithTTL(s.expiry)
		return txn.SetEntry(e)
	})
	if err != nil {
		return "", fmt.Errorf("token: creating token: %w", err)
	}
	return tok, nil
}

// readEntry reads and decodes the payload at tok. A missing key means the
// token was never issued, already consumed, or has expired; the store does
// not distinguish these, so all three surface as TokenExpiredError.
func (s *Service) readEntry(txn *badger.Txn, tok string) (*Entry, error) {
	item, err := txn.Get([]byte(tok))
	if err == badger.ErrKeyNotFound {
		return nil, &apierr.TokenExpiredError{Token: tok}
	}
	if err != nil {
		return nil, err
	}
	var raw []byte
	if err := item.Value(func(val []byte) error {
		raw = append([]byte(nil), val...)
		return nil
	}); err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Consume atomically reads the token and deletes it, enforcing single use,
// without checking who is asking. A second consume of the same token finds
// the key gone and returns TokenExpiredError. Use Download when the
// caller's identity must match the token's issuance.
func (s *Service) Consume(ctx context.Context, tok string) (*Entry, error) {
	var entry *Entry
	err := s.db.Update(func(txn *badger.Txn) error {
		e, err := s.readEntry(txn, tok)
		if err != nil {
			return err
		}
		entry = e
		return txn.Delete([]byte(tok))
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Download verifies tok was issued to requestedByUserID before consuming
// it, so a mismatched request leaves the token intact for its rightful
// owner rather than burning it. A mismatch surfaces as
// *apierr.TokenUserMismatchError, distinct from a missing/expired token.
func (s *Service) Download(ctx context.Context, tok, requestedByUserID string) (*Entry, error) {
	var entry *Entry
	err := s.db.Update(func(txn *badger.Txn) error {
		e, err := s.readEntry(txn, tok)
		if err != nil {
			return err
		}
		if e.IssuedToID != "" && e.IssuedToID != requestedByUserID {
			return &apierr.TokenUserMismatchError{
				Token:           tok,
				IssuedToUserID:  e.IssuedToID,
				RequestedByUser: requestedByUserID,
			}
		}
		entry = e
		return txn.Delete([]byte(tok))
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Revoke deletes tok before it is consumed or expires, if present. Revoking
// an unknown token is not an error: callers may race a consume.
func (s *Service) Revoke(ctx context.Context, tok string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(tok))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("token: revoking token: %w", err)
	}
	return nil
}
