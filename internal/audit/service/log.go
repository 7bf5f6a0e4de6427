package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/tradeware/securecore/internal/audit/domain"
)

// Log is a bounded in-memory audit log. Appends never fail the caller: an
// operation that succeeded is never rolled back because its audit entry could
// not be recorded.
type Log interface {
	// Append records an audit entry. Signing or capacity problems are logged
	// and swallowed; the caller's operation is already done.
	Append(
		ctx context.Context,
		operation auditDomain.Operation,
		actorID string,
		description string,
		metadata map[string]string,
	)

	// List returns up to limit entries visible to ownerID (the owner's own
	// entries plus system entries), most recent first. limit <= 0 means all.
	List(ownerID string, limit int) []*auditDomain.Entry

	// Verify re-checks every entry signature and returns the tampered entries.
	Verify() []*auditDomain.Entry

	// Len returns the number of entries currently retained.
	Len() int
}

// ringLog implements Log as a fixed-capacity circular buffer with FIFO
// eviction: when full, the oldest entry is overwritten.
type ringLog struct {
	mu         sync.Mutex
	buf        []*auditDomain.Entry
	start      int
	count      int
	signer     Signer
	signingKey []byte
	logger     *slog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewLog creates a ring-buffered audit log. Entries are signed with a key
// derived from signingKey (the active master key material).
func NewLog(capacity int, signer Signer, signingKey []byte, logger *slog.Logger) Log {
	if capacity <= 0 {
		capacity = 10000
	}
	return &ringLog{
		buf:        make([]*auditDomain.Entry, capacity),
		signer:     signer,
		signingKey: signingKey,
		logger:     logger,
		now:        time.Now,
	}
}

// Append records an audit entry.
func (r *ringLog) Append(
	ctx context.Context,
	operation auditDomain.Operation,
	actorID string,
	description string,
	metadata map[string]string,
) {
	entry := &auditDomain.Entry{
		ID:          uuid.Must(uuid.NewV7()),
		Operation:   operation,
		ActorID:     actorID,
		Description: description,
		Metadata:    metadata,
		CreatedAt:   r.now().UTC(),
	}

	signature, err := r.signer.Sign(r.signingKey, entry)
	if err != nil {
		// The entry is still retained; Verify will flag it as unsigned.
		r.logger.ErrorContext(ctx, "failed to sign audit entry",
			"entry_id", entry.ID,
			"operation", operation,
			"error", err,
		)
	} else {
		entry.Signature = signature
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count < len(r.buf) {
		r.buf[(r.start+r.count)%len(r.buf)] = entry
		r.count++
		return
	}

	// Full: overwrite the oldest slot.
	r.buf[r.start] = entry
	r.start = (r.start + 1) % len(r.buf)
}

// List returns up to limit entries visible to ownerID, most recent first.
func (r *ringLog) List(ownerID string, limit int) []*auditDomain.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]*auditDomain.Entry, 0, r.count)
	for i := r.count - 1; i >= 0; i-- {
		entry := r.buf[(r.start+i)%len(r.buf)]
		if !entry.VisibleTo(ownerID) {
			continue
		}
		entries = append(entries, entry)
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries
}

// Verify re-checks every retained entry signature, oldest first, and returns
// the entries that fail.
func (r *ringLog) Verify() []*auditDomain.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var tampered []*auditDomain.Entry
	for i := range r.count {
		entry := r.buf[(r.start+i)%len(r.buf)]
		if err := r.signer.Verify(r.signingKey, entry); err != nil {
			tampered = append(tampered, entry)
		}
	}
	return tampered
}

// Len returns the number of entries currently retained.
func (r *ringLog) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
