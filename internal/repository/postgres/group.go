package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fitledger/fitledger/internal/domain/invoice"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/logger"
	"github.com/fitledger/fitledger/internal/postgres"
	"github.com/fitledger/fitledger/internal/types"
)

type groupRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewGroupRepository(client postgres.IClient, logger *logger.Logger) invoice.GroupRepository {
	return &groupRepository{client: client, logger: logger}
}

func (r *groupRepository) Create(ctx context.Context, group *invoice.Group) error {
	query := `
	INSERT INTO invoice_groups (
		id, name, invoice_prefix, prefix_year, next_id, due_days, terms, footer,
		status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :name, :invoice_prefix, :prefix_year, :next_id, :due_days, :terms, :footer,
		:status, :created_at, :updated_at, :created_by, :updated_by
	)
	`

	_, err := r.client.Querier(ctx).NamedExecContext(ctx, query, group)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create invoice group").
			WithReportableDetails(map[string]any{
				"group_id": group.ID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *groupRepository) Get(ctx context.Context, id string) (*invoice.Group, error) {
	query := `SELECT * FROM invoice_groups WHERE id = $1 AND status != $2`

	var group invoice.Group
	err := r.client.Querier(ctx).GetContext(ctx, &group, query, id, types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Invoice group with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get invoice group").
			Mark(ierr.ErrDatabase)
	}
	return &group, nil
}

// NextInvoiceNumber assigns the next number of the group inside a
// transaction, locking the group row so concurrent callers are serialized and
// numbers are never duplicated. Year-prefixed groups restart the counter at 1
// on the first invoice of each calendar year.
func (r *groupRepository) NextInvoiceNumber(ctx context.Context, groupID string, createdAt time.Time) (string, error) {
	var number string
	err := r.client.WithTx(ctx, func(ctx context.Context) error {
		var group invoice.Group
		err := r.client.Querier(ctx).GetContext(ctx, &group,
			`SELECT * FROM invoice_groups WHERE id = $1 AND status != $2 FOR UPDATE`,
			groupID, types.StatusDeleted)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ierr.WithError(err).
					WithHintf("Invoice group with ID %s was not found", groupID).
					Mark(ierr.ErrNotFound)
			}
			return ierr.WithError(err).
				WithHint("Failed to lock invoice group").
				Mark(ierr.ErrDatabase)
		}

		nextID := group.NextID
		if group.PrefixYear {
			reset, err := r.isFirstOfYear(ctx, groupID, createdAt.Year())
			if err != nil {
				return err
			}
			if reset {
				nextID = 1
			}
			number = fmt.Sprintf("%s%d%d", group.InvoicePrefix, createdAt.Year(), nextID)
		} else {
			number = fmt.Sprintf("%s%d", group.InvoicePrefix, nextID)
		}

		_, err = r.client.Querier(ctx).ExecContext(ctx,
			`UPDATE invoice_groups SET next_id = $1, updated_at = $2, updated_by = $3 WHERE id = $4`,
			nextID+1, time.Now().UTC(), types.GetUserID(ctx), groupID)
		if err != nil {
			return ierr.WithError(err).
				WithHint("Failed to advance invoice group counter").
				WithReportableDetails(map[string]any{
					"group_id": groupID,
				}).
				Mark(ierr.ErrDatabase)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return number, nil
}

// isFirstOfYear reports whether no invoice has been created in the group for
// the given calendar year yet. The group row is already locked, so the check
// and the counter reset are atomic.
func (r *groupRepository) isFirstOfYear(ctx context.Context, groupID string, year int) (bool, error) {
	query := `
	SELECT COUNT(*) FROM invoices
	WHERE group_id = $1 AND date_part('year', date_created) = $2 AND status != $3
	`

	var count int
	err := r.client.Querier(ctx).GetContext(ctx, &count, query, groupID, year, types.StatusDeleted)
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to count invoices for year").
			Mark(ierr.ErrDatabase)
	}
	return count == 0, nil
}
