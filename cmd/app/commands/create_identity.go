package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	identityDomain "github.com/allisson/identity/internal/identity/domain"
	identityUsecase "github.com/allisson/identity/internal/identity/usecase"
)

// CreateIdentityInput carries the command line arguments for RunCreateIdentity.
type CreateIdentityInput struct {
	Name           string
	Email          string
	Password       string
	Role           string
	OrganizationID string
	MFAMethod      string
	Format         string
}

// RunCreateIdentity registers an identity directly, without an invitation.
// Admin-created identities are marked verified since there is no email
// round trip. Outputs the identity ID in either text or JSON format.
//
// Requirements: Database must be migrated and accessible.
func RunCreateIdentity(
	ctx context.Context,
	identityUseCase identityUsecase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	input CreateIdentityInput,
) error {
	role := identityDomain.Role(input.Role)
	if !role.IsValid() {
		return fmt.Errorf(
			"invalid role: %s (valid options: super_admin, site_admin, operator, client_admin, client_user)",
			input.Role,
		)
	}

	mfaMethod := identityDomain.MFAMethod(input.MFAMethod)
	if !mfaMethod.IsValid() {
		return fmt.Errorf("invalid mfa method: %s (valid options: totp, otp)", input.MFAMethod)
	}

	var organizationID *uuid.UUID
	if input.OrganizationID != "" {
		parsed, err := uuid.Parse(input.OrganizationID)
		if err != nil {
			return fmt.Errorf("invalid organization id: %w", err)
		}
		organizationID = &parsed
	}

	if role.IsClientScoped() && organizationID == nil {
		return fmt.Errorf("organization id is required for role %s", role)
	}

	logger.Info("creating identity",
		slog.String("role", role.String()),
		slog.String("mfa_method", mfaMethod.String()),
	)

	identity, err := identityUseCase.Register(ctx, identityUsecase.RegisterIdentityInput{
		Name:           input.Name,
		Email:          input.Email,
		Password:       input.Password,
		Role:           role,
		OrganizationID: organizationID,
		MFAMethod:      mfaMethod,
		IsVerified:     true,
	})
	if err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}

	if input.Format == "json" {
		outputCreateIdentityJSON(identity, writer)
	} else {
		outputCreateIdentityText(identity, writer)
	}

	logger.Info("identity created successfully",
		slog.String("identity_id", identity.ID.String()),
		slog.String("role", role.String()),
	)

	return nil
}

// outputCreateIdentityText outputs the result in human-readable text format.
func outputCreateIdentityText(identity *identityDomain.Identity, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "\nIdentity created successfully!")
	_, _ = fmt.Fprintf(writer, "Identity ID: %s\n", identity.ID.String())
	_, _ = fmt.Fprintf(writer, "Role: %s\n", identity.Role)
	_, _ = fmt.Fprintf(writer, "MFA method: %s\n", identity.MFAMethod)
	if identity.OrganizationID != nil {
		_, _ = fmt.Fprintf(writer, "Organization ID: %s\n", identity.OrganizationID.String())
	}
}

// outputCreateIdentityJSON outputs the result in JSON format for machine consumption.
func outputCreateIdentityJSON(identity *identityDomain.Identity, writer io.Writer) {
	result := map[string]interface{}{
		"identity_id": identity.ID.String(),
		"role":        identity.Role,
		"mfa_method":  identity.MFAMethod,
	}
	if identity.OrganizationID != nil {
		result["organization_id"] = identity.OrganizationID.String()
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
