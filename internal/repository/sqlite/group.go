package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/48Nauts-Operator/hubble-sub000/internal/apperror"
	"github.com/48Nauts-Operator/hubble-sub000/internal/model"
	"github.com/48Nauts-Operator/hubble-sub000/internal/repository"
)

var _ repository.GroupRepository = (*DB)(nil)

// CreateGroup inserts a new group, filling in its id and timestamps.
func (db *DB) CreateGroup(ctx context.Context, group *model.Group) error {
	group.ID = xid.New().String()
	now := time.Now()
	group.CreatedAt = now
	group.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO groups (id, name, icon, color, sort_order, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		group.ID, group.Name, group.Icon, group.Color, group.SortOrder,
		group.CreatedAt, group.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating group: %w", err)
	}
	return nil
}

func (db *DB) GetGroupByID(ctx context.Context, id string) (*model.Group, error) {
	var g model.Group
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, icon, color, sort_order, created_at, updated_at
		 FROM groups WHERE id = ?`, id,
	).Scan(&g.ID, &g.Name, &g.Icon, &g.Color, &g.SortOrder, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("group", id)
		}
		return nil, fmt.Errorf("sqlite: getting group %s: %w", id, err)
	}
	return &g, nil
}

// ListGroups returns all groups in dashboard order.
func (db *DB) ListGroups(ctx context.Context) ([]model.Group, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, icon, color, sort_order, created_at, updated_at
		 FROM groups ORDER BY sort_order ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing groups: %w", err)
	}
	defer rows.Close()

	groups := make([]model.Group, 0, 16)
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Icon, &g.Color, &g.SortOrder,
			&g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning group row: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating groups: %w", err)
	}
	return groups, nil
}

func (db *DB) UpdateGroup(ctx context.Context, group *model.Group) error {
	group.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE groups SET name = ?, icon = ?, color = ?, sort_order = ?, updated_at = ?
		 WHERE id = ?`,
		group.Name, group.Icon, group.Color, group.SortOrder, group.UpdatedAt, group.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating group %s: %w", group.ID, err)
	}
	return notFoundOnZeroRows(result, "group", group.ID)
}

// DeleteGroup removes a group and detaches its bookmarks in one transaction.
// The bookmarks survive as ungrouped.
func (db *DB) DeleteGroup(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning group delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE bookmarks SET group_id = '' WHERE group_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: detaching bookmarks from group %s: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting group %s: %w", id, err)
	}
	if err := notFoundOnZeroRows(result, "group", id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing group delete: %w", err)
	}
	return nil
}
