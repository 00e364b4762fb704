package tag

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/intravine/kudos/internal/platform/apperr"
	"github.com/intravine/kudos/internal/platform/database/schema"
	"github.com/intravine/kudos/internal/platform/dberr"
)

type PostgresRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresRepository(db *pgxpool.Pool, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{db: db, logger: logger}
}

// tagMetadata is the shape of the metadata JSON column.
type tagMetadata struct {
	BgColour *string `json:"bg_colour,omitempty"`
}

func (repository *PostgresRepository) List(context context.Context, limit, offset int, filter ListFilter, orders []Order) ([]*Tag, error) {
	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s, %s, %s FROM %s WHERE 1=1`,
		schema.Tag.ID, schema.Tag.Name, schema.Tag.Active, schema.Tag.Metadata,
		schema.Tag.CreatedBy, schema.Tag.CreatedDate, schema.Tag.ModifiedBy, schema.Tag.ModifiedDate,
		schema.Tag.Table))

	if filter.NamePrefix != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND %s LIKE $%d", schema.Tag.Name, argID))
		args = append(args, likePrefix(filter.NamePrefix))
		argID++
	}

	if filter.Active != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND %s = $%d", schema.Tag.Active, argID))
		args = append(args, *filter.Active)
		argID++
	}

	orderClause, err := renderOrders(orders)
	if err != nil {
		return nil, err
	}
	queryBuilder.WriteString(orderClause)

	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, dberr.Wrap(err, "list_tags")
	}
	defer rows.Close()

	tags := make([]*Tag, 0)
	for rows.Next() {
		tag, err := repository.scanTag(rows.Scan)
		if err != nil {
			return nil, err
		}
		if tag == nil {
			continue
		}
		tags = append(tags, tag)
	}

	return tags, rows.Err()
}

func (repository *PostgresRepository) Total(context context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, schema.Tag.Table)

	var total int
	if err := repository.db.QueryRow(context, query).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "total_tags")
	}
	return total, nil
}

func (repository *PostgresRepository) GetByIDs(context context.Context, ids []int) (map[int]*Tag, error) {
	tags := make(map[int]*Tag, len(ids))
	if len(ids) == 0 {
		return tags, nil
	}

	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s, %s, %s FROM %s WHERE %s = ANY($1)`,
		schema.Tag.ID, schema.Tag.Name, schema.Tag.Active, schema.Tag.Metadata,
		schema.Tag.CreatedBy, schema.Tag.CreatedDate, schema.Tag.ModifiedBy, schema.Tag.ModifiedDate,
		schema.Tag.Table, schema.Tag.ID)

	rows, err := repository.db.Query(context, query, ids)
	if err != nil {
		return nil, dberr.Wrap(err, "get_tags_by_ids")
	}
	defer rows.Close()

	for rows.Next() {
		tag, err := repository.scanTag(rows.Scan)
		if err != nil {
			return nil, err
		}
		if tag == nil {
			continue
		}
		tags[tag.ID] = tag
	}

	return tags, rows.Err()
}

func (repository *PostgresRepository) NameExists(context context.Context, name string, excludeID int) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE %s = $1 AND %s <> $2)`,
		schema.Tag.Table, schema.Tag.Name, schema.Tag.ID)

	var exists bool
	if err := repository.db.QueryRow(context, query, name, excludeID).Scan(&exists); err != nil {
		return false, dberr.Wrap(err, "tag_name_exists")
	}
	return exists, nil
}

func (repository *PostgresRepository) Save(context context.Context, tag *Tag) (int, error) {
	metadata, err := json.Marshal(tagMetadata{BgColour: tag.BgColour})
	if err != nil {
		return 0, apperr.Internal(err)
	}

	if !tag.IsPersisted() {
		query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING %s`,
			schema.Tag.Table,
			schema.Tag.Name, schema.Tag.Active, schema.Tag.Metadata,
			schema.Tag.CreatedBy, schema.Tag.CreatedDate, schema.Tag.ModifiedBy, schema.Tag.ModifiedDate,
			schema.Tag.ID)

		var id int
		err := repository.db.QueryRow(context, query,
			tag.Name, tag.Active, metadata,
			tag.CreatedBy, tag.CreatedDate, tag.ModifiedBy, tag.ModifiedDate,
		).Scan(&id)
		if err != nil {
			// The unique index on name backstops the service-level pre-check.
			return 0, dberr.Wrap(err, "insert_tag")
		}

		tag.ID = id
		return id, nil
	}

	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = $2, %s = $3, %s = $4, %s = $5 WHERE %s = $6`,
		schema.Tag.Table,
		schema.Tag.Name, schema.Tag.Active, schema.Tag.Metadata,
		schema.Tag.ModifiedBy, schema.Tag.ModifiedDate,
		schema.Tag.ID)

	commandTag, err := repository.db.Exec(context, query,
		tag.Name, tag.Active, metadata,
		tag.ModifiedBy, tag.ModifiedDate, tag.ID,
	)
	if err != nil {
		return 0, dberr.Wrap(err, "update_tag")
	}
	if commandTag.RowsAffected() == 0 {
		return 0, apperr.NotFound("Tag")
	}

	return tag.ID, nil
}

func (repository *PostgresRepository) Delete(context context.Context, id int) error {
	tx, err := repository.db.Begin(context)
	if err != nil {
		return apperr.Storage("failed to begin tag delete", err)
	}
	defer tx.Rollback(context)

	taggedQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.Tagged.Table, schema.Tagged.TagID)
	if _, err := tx.Exec(context, taggedQuery, id); err != nil {
		return apperr.Storage("failed to delete tag associations", err)
	}

	tagQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.Tag.Table, schema.Tag.ID)
	commandTag, err := tx.Exec(context, tagQuery, id)
	if err != nil {
		return apperr.Storage("failed to delete tag", err)
	}
	if commandTag.RowsAffected() == 0 {
		return apperr.NotFound("Tag")
	}

	if err := tx.Commit(context); err != nil {
		return apperr.Storage("failed to commit tag delete", err)
	}
	return nil
}

// scanTag scans one tag row and unpacks its metadata JSON.
//
// Rows that fail the entity's required fields are skipped with a logged
// data-integrity error rather than failing the whole read.
func (repository *PostgresRepository) scanTag(scan func(...any) error) (*Tag, error) {
	tag := &Tag{}
	var metadata []byte

	if err := scan(&tag.ID, &tag.Name, &tag.Active, &metadata,
		&tag.CreatedBy, &tag.CreatedDate, &tag.ModifiedBy, &tag.ModifiedDate); err != nil {
		return nil, dberr.Wrap(err, "scan_tag")
	}

	if tag.Name == "" {
		repository.logger.Error("tag_row_missing_name", slog.Int("tag_id", tag.ID))
		return nil, nil
	}

	if len(metadata) > 0 {
		meta := tagMetadata{}
		if err := json.Unmarshal(metadata, &meta); err != nil {
			repository.logger.Error("tag_metadata_unreadable",
				slog.Int("tag_id", tag.ID), slog.Any("error", err))
		} else {
			tag.BgColour = meta.BgColour
		}
	}

	return tag, nil
}

// renderOrders turns validated orders into an ORDER BY clause.
// Column names pass through the allow-list, never user input directly.
func renderOrders(orders []Order) (string, error) {
	if len(orders) == 0 {
		return fmt.Sprintf(" ORDER BY %s ASC", schema.Tag.Name), nil
	}

	parts := make([]string, 0, len(orders))
	for _, order := range orders {
		if !ValidOrderColumn(order.Column) {
			return "", apperr.InvalidFilter(fmt.Sprintf("cannot order tags by %q", order.Column))
		}
		direction := "ASC"
		if order.Desc {
			direction = "DESC"
		}
		parts = append(parts, order.Column+" "+direction)
	}

	return " ORDER BY " + strings.Join(parts, ", "), nil
}

func likePrefix(prefix string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	return escaped + "%"
}
