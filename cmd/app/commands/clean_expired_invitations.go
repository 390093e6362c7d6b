package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	invitationUsecase "github.com/allisson/identity/internal/invitation/usecase"
)

// RunCleanExpiredInvitations marks pending invitations past their deadline as
// expired. Supports both text and JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunCleanExpiredInvitations(
	ctx context.Context,
	invitationUseCase invitationUsecase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	logger.Info("expiring stale invitations")

	count, err := invitationUseCase.ExpireStale(ctx)
	if err != nil {
		return fmt.Errorf("failed to expire stale invitations: %w", err)
	}

	if format == "json" {
		outputCleanInvitationsJSON(count, writer)
	} else {
		outputCleanInvitationsText(count, writer)
	}

	logger.Info("expiration sweep completed", slog.Int64("count", count))

	return nil
}

// outputCleanInvitationsText outputs the result in human-readable text format.
func outputCleanInvitationsText(count int64, writer io.Writer) {
	_, _ = fmt.Fprintf(writer, "Marked %d invitation(s) as expired\n", count)
}

// outputCleanInvitationsJSON outputs the result in JSON format for machine consumption.
func outputCleanInvitationsJSON(count int64, writer io.Writer) {
	result := map[string]interface{}{
		"count": count,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
