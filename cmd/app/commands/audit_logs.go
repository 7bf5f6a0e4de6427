package commands

import (
	"context"
	"fmt"

	"github.com/tradeware/securecore/internal/app"
	auditDomain "github.com/tradeware/securecore/internal/audit/domain"
	"github.com/tradeware/securecore/internal/config"
)

// RunAuditLogs lists audit log entries visible to ownerID, most recent first.
// Scheduler-generated entries are always included. A limit of zero prints
// every retained entry.
func RunAuditLogs(ctx context.Context, ownerID string, limit int) error {
	container := app.NewContainer(config.Load())
	logger := container.Logger()
	defer closeContainer(container, logger)

	auditLog, err := container.AuditLog(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize audit log: %w", err)
	}

	entries := auditLog.List(ownerID, limit)
	if len(entries) == 0 {
		fmt.Println("No audit log entries found")
		return nil
	}

	for _, entry := range entries {
		printEntry(entry, fmt.Printf)
	}

	return nil
}

// RunVerifyAuditLogs checks every retained audit entry's HMAC signature and
// reports the entries that fail verification. A non-empty result means the
// log was tampered with after append.
func RunVerifyAuditLogs(ctx context.Context) error {
	container := app.NewContainer(config.Load())
	logger := container.Logger()
	defer closeContainer(container, logger)

	auditLog, err := container.AuditLog(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize audit log: %w", err)
	}

	tampered := auditLog.Verify()

	fmt.Printf("Total entries: %d\n", auditLog.Len())
	fmt.Printf("Tampered:      %d\n\n", len(tampered))

	if len(tampered) == 0 {
		fmt.Println("Status: PASSED")
		return nil
	}

	fmt.Println("Tampered entries:")
	for _, entry := range tampered {
		printEntry(entry, fmt.Printf)
	}

	return fmt.Errorf("integrity check failed: %d tampered entry(ies)", len(tampered))
}

// printEntry writes one audit entry in a single human-readable line.
func printEntry(entry *auditDomain.Entry, printf func(format string, a ...any) (int, error)) {
	_, _ = printf(
		"%s  %-18s actor=%s  %s",
		entry.CreatedAt.Format("2006-01-02 15:04:05"),
		entry.Operation,
		entry.ActorID,
		entry.Description,
	)
	for key, value := range entry.Metadata {
		_, _ = printf("  %s=%s", key, value)
	}
	_, _ = printf("\n")
}
