package thankyou

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/intravine/kudos/internal/directory"
	"github.com/intravine/kudos/internal/platform/apperr"
	"github.com/intravine/kudos/internal/platform/database/schema"
	"github.com/intravine/kudos/internal/platform/dberr"
	"github.com/intravine/kudos/pkg/slice"
)

// DB is the slice of [pgxpool.Pool] the repository uses. Tests substitute
// it to drive the transaction paths without a server.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ DB = (*pgxpool.Pool)(nil)

// PostgresRepository implements [Repository] over pgx, resolving people
// through the directory service in batches.
type PostgresRepository struct {
	db        DB
	directory directory.Service
	logger    *slog.Logger
}

func NewPostgresRepository(db DB, directoryService directory.Service, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{db: db, directory: directoryService, logger: logger}
}

// # Filtered Reads

func (repository *PostgresRepository) GetRecentThankYouIDs(context context.Context, limit, offset int, filter Filter) ([]int, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query, args := composeRecentIDs(filter, limit, offset)

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "recent_thank_you_ids")
	}
	defer rows.Close()

	ids := make([]int, 0, limit)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, dberr.Wrap(err, "scan_thank_you_id")
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (repository *PostgresRepository) CountThankYous(context context.Context, filter Filter) (int, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}

	query, args := composeCount(filter)

	var total int
	if err := repository.db.QueryRow(context, query, args...).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "count_thank_yous")
	}
	return total, nil
}

// # Hydration

func (repository *PostgresRepository) GetThankYousByIDs(context context.Context, ids []int) (map[int]*ThankYou, error) {
	thankYous := make(map[int]*ThankYou, len(ids))
	if len(ids) == 0 {
		return thankYous, nil
	}

	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = ANY($1)`,
		schema.Item.ID, schema.Item.UserID, schema.Item.Description, schema.Item.DateCreated,
		schema.Item.Table, schema.Item.ID)

	rows, err := repository.db.Query(context, query, ids)
	if err != nil {
		return nil, dberr.Wrap(err, "get_thank_yous_by_ids")
	}
	defer rows.Close()

	type itemRow struct {
		id          int
		authorID    int
		description string
		dateCreated int64
	}

	var items []itemRow
	var authorIDs []int

	for rows.Next() {
		row := itemRow{}
		if err := rows.Scan(&row.id, &row.authorID, &row.description, &row.dateCreated); err != nil {
			return nil, dberr.Wrap(err, "scan_thank_you")
		}
		items = append(items, row)
		authorIDs = append(authorIDs, row.authorID)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "get_thank_yous_by_ids")
	}

	// One directory batch for every author in the row set.
	authors, err := directory.ResolveUsersWithPlaceholders(context, repository.directory, slice.Unique(authorIDs))
	if err != nil {
		return nil, err
	}

	for _, row := range items {
		created, err := FromSortableDate(row.dateCreated)
		if err != nil {
			// A corrupt timestamp loses that row, not the whole read.
			repository.logger.Error("thank_you_row_bad_date",
				slog.Int("thank_you_id", row.id),
				slog.Int64("date_created", row.dateCreated))
			continue
		}

		thankYous[row.id] = &ThankYou{
			ID:          row.id,
			Author:      authors[row.authorID],
			Description: row.description,
			DateCreated: created,
		}
	}

	return thankYous, nil
}

func (repository *PostgresRepository) GetThankedsByThankYouIDs(context context.Context, ids []int) (map[int]map[int]Thanked, error) {
	thankeds := make(map[int]map[int]Thanked, len(ids))
	if len(ids) == 0 {
		return thankeds, nil
	}

	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = ANY($1) ORDER BY %s, %s`,
		schema.Thanked.ID, schema.Thanked.ItemID, schema.Thanked.ObjectType, schema.Thanked.ObjectID,
		schema.Thanked.Table, schema.Thanked.ItemID,
		schema.Thanked.ItemID, schema.Thanked.ID)

	rows, err := repository.db.Query(context, query, ids)
	if err != nil {
		return nil, dberr.Wrap(err, "get_thankeds_by_thank_you_ids")
	}
	defer rows.Close()

	type thankedRow struct {
		id         int
		itemID     int
		ownerClass OwnerClass
		objectID   int
	}

	var lines []thankedRow
	var userIDs, groupIDs []int

	for rows.Next() {
		row := thankedRow{}
		if err := rows.Scan(&row.id, &row.itemID, &row.ownerClass, &row.objectID); err != nil {
			return nil, dberr.Wrap(err, "scan_thanked")
		}

		switch row.ownerClass {
		case OwnerClassIndividual:
			userIDs = append(userIDs, row.objectID)
		case OwnerClassGroup:
			groupIDs = append(groupIDs, row.objectID)
		default:
			// One unreadable owner class poisons the batch: a partial
			// recipient list would misrepresent who was thanked, so the
			// whole call degrades to empty.
			repository.logger.Error("thanked_row_unsupported_owner_class",
				slog.Int("thanked_id", row.id),
				slog.Int("owner_class", int(row.ownerClass)))
			return map[int]map[int]Thanked{}, nil
		}

		lines = append(lines, row)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "get_thankeds_by_thank_you_ids")
	}

	// All users in one batch, all groups in another.
	users, err := directory.ResolveUsersWithPlaceholders(context, repository.directory, slice.Unique(userIDs))
	if err != nil {
		return nil, err
	}
	groups, err := repository.directory.GetGroups(context, slice.Unique(groupIDs))
	if err != nil {
		return nil, err
	}

	for _, row := range lines {
		thanked := Thanked{
			ID:         row.id,
			OwnerClass: row.ownerClass,
			ObjectID:   row.objectID,
		}

		switch row.ownerClass {
		case OwnerClassIndividual:
			user := users[row.objectID]
			thanked.Name = user.DisplayName()
			thanked.ExtranetID = user.ExAreaID
		case OwnerClassGroup:
			if group, found := groups[row.objectID]; found {
				thanked.Name = group.Name
			} else {
				thanked.Name = "Deleted Group"
			}
		}

		if thankeds[row.itemID] == nil {
			thankeds[row.itemID] = make(map[int]Thanked)
		}
		thankeds[row.itemID][row.id] = thanked
	}

	return thankeds, nil
}

func (repository *PostgresRepository) GetUsersByThankYouIDs(context context.Context, ids []int) (map[int][]directory.User, error) {
	usersByItem := make(map[int][]directory.User, len(ids))
	if len(ids) == 0 {
		return usersByItem, nil
	}

	query := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s = ANY($1) ORDER BY %s, %s`,
		schema.ThankedUser.ItemID, schema.ThankedUser.UserID,
		schema.ThankedUser.Table, schema.ThankedUser.ItemID,
		schema.ThankedUser.ItemID, schema.ThankedUser.UserID)

	rows, err := repository.db.Query(context, query, ids)
	if err != nil {
		return nil, dberr.Wrap(err, "get_users_by_thank_you_ids")
	}
	defer rows.Close()

	type userRow struct {
		itemID int
		userID int
	}

	var links []userRow
	var userIDs []int

	for rows.Next() {
		row := userRow{}
		if err := rows.Scan(&row.itemID, &row.userID); err != nil {
			return nil, dberr.Wrap(err, "scan_thanked_user")
		}
		links = append(links, row)
		userIDs = append(userIDs, row.userID)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "get_users_by_thank_you_ids")
	}

	users, err := repository.directory.GetUsers(context, slice.Unique(userIDs))
	if err != nil {
		return nil, err
	}

	for _, link := range links {
		user, found := users[link.userID]
		if !found {
			// Departed users drop out of the flattened view.
			continue
		}
		usersByItem[link.itemID] = append(usersByItem[link.itemID], user)
	}

	return usersByItem, nil
}

func (repository *PostgresRepository) GetTagIDsByThankYouIDs(context context.Context, ids []int) (map[int][]int, error) {
	tagsByItem := make(map[int][]int, len(ids))
	if len(ids) == 0 {
		return tagsByItem, nil
	}

	query := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s = ANY($1) ORDER BY %s, %s`,
		schema.Tagged.ItemID, schema.Tagged.TagID,
		schema.Tagged.Table, schema.Tagged.ItemID,
		schema.Tagged.ItemID, schema.Tagged.TagID)

	rows, err := repository.db.Query(context, query, ids)
	if err != nil {
		return nil, dberr.Wrap(err, "get_tag_ids_by_thank_you_ids")
	}
	defer rows.Close()

	for rows.Next() {
		var itemID, tagID int
		if err := rows.Scan(&itemID, &tagID); err != nil {
			return nil, dberr.Wrap(err, "scan_tagged")
		}
		tagsByItem[itemID] = append(tagsByItem[itemID], tagID)
	}

	return tagsByItem, rows.Err()
}

// # Aggregations

func (repository *PostgresRepository) GetTagsTotalUses(context context.Context, orders []Order, limit, offset int, filter Filter) (map[int]int, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query, args, err := composeTagTotals(filter, orders, limit, offset)
	if err != nil {
		return nil, err
	}

	totals, err := repository.queryTotals(context, query, args, "tag_totals")
	if err != nil {
		return nil, err
	}

	return backfillZeroTotals(totals, filter.TagIDs), nil
}

func (repository *PostgresRepository) GetUsersTotalThankYous(context context.Context, limit, offset int, filter Filter) (map[int]int, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query, args := composeUserTotals(filter, limit, offset)

	totals, err := repository.queryTotals(context, query, args, "user_totals")
	if err != nil {
		return nil, err
	}

	return backfillZeroTotals(totals, filter.ThankedUserIDs), nil
}

func (repository *PostgresRepository) GetTotalUsers(context context.Context, filter Filter) (int, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}

	query, args := composeTotalUsers(filter)

	var total int
	if err := repository.db.QueryRow(context, query, args...).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "total_users")
	}
	return total, nil
}

func (repository *PostgresRepository) GetTotalTags(context context.Context, filter Filter) (int, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}

	query, args := composeTotalTags(filter)

	var total int
	if err := repository.db.QueryRow(context, query, args...).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "total_tags")
	}
	return total, nil
}

// backfillZeroTotals adds a zero entry for every filtered-on id the
// aggregate rows left out, so a tag or user with no uses still shows up.
func backfillZeroTotals(totals map[int]int, ids []int) map[int]int {
	for _, id := range ids {
		if _, found := totals[id]; !found {
			totals[id] = 0
		}
	}
	return totals
}

// queryTotals runs a two-column (id, count) aggregate into a map.
func (repository *PostgresRepository) queryTotals(context context.Context, query string, args []any, action string) (map[int]int, error) {
	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	defer rows.Close()

	totals := make(map[int]int)
	for rows.Next() {
		var id, count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, dberr.Wrap(err, "scan_"+action)
		}
		totals[id] = count
	}

	return totals, rows.Err()
}

// # Writes

/*
Save persists a thank-you and synchronizes its junction rows.

Description: The parent row and every non-nil collection rewrite run inside
one transaction, so a failed junction insert cannot strand a half-saved
thank-you. Nil collections are left exactly as stored; empty non-nil
collections clear their junction table for this thank-you.

Parameters:
  - context: context.Context
  - thankYou: *ThankYou (ID 0 inserts, otherwise updates)

Returns:
  - int: The persisted thank-you id
  - error: apperr.NotFound for updates of missing rows, STORAGE_ERROR otherwise
*/
func (repository *PostgresRepository) Save(context context.Context, thankYou *ThankYou) (int, error) {
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return 0, apperr.Storage("failed to begin thank-you save", err)
	}
	defer transaction.Rollback(context)

	id := thankYou.ID

	if id == 0 {
		query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, $3) RETURNING %s`,
			schema.Item.Table,
			schema.Item.UserID, schema.Item.Description, schema.Item.DateCreated,
			schema.Item.ID)

		err := transaction.QueryRow(context, query,
			thankYou.Author.ID, thankYou.Description, ToSortableDate(thankYou.DateCreated),
		).Scan(&id)
		if err != nil {
			return 0, apperr.Storage("failed to insert thank-you", err)
		}
	} else {
		query := fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE %s = $2`,
			schema.Item.Table, schema.Item.Description, schema.Item.ID)

		commandTag, err := transaction.Exec(context, query, thankYou.Description, id)
		if err != nil {
			return 0, apperr.Storage("failed to update thank-you", err)
		}
		if commandTag.RowsAffected() == 0 {
			return 0, apperr.NotFound("Thank you")
		}
	}

	if thankYou.Thanked != nil {
		if err := repository.replaceThanked(context, transaction, id, thankYou.Thanked); err != nil {
			return 0, err
		}
	}

	if thankYou.UserIDs != nil {
		err := repository.replaceJunction(context, transaction,
			schema.ThankedUser.Table, schema.ThankedUser.ItemID, schema.ThankedUser.UserID,
			id, slice.Unique(thankYou.UserIDs))
		if err != nil {
			return 0, err
		}
	}

	if thankYou.TagIDs != nil {
		err := repository.replaceJunction(context, transaction,
			schema.Tagged.Table, schema.Tagged.ItemID, schema.Tagged.TagID,
			id, slice.Unique(thankYou.TagIDs))
		if err != nil {
			return 0, err
		}
	}

	if err := transaction.Commit(context); err != nil {
		return 0, apperr.Storage("failed to commit thank-you save", err)
	}

	thankYou.ID = id
	return id, nil
}

func (repository *PostgresRepository) Delete(context context.Context, id int) error {
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return apperr.Storage("failed to begin thank-you delete", err)
	}
	defer transaction.Rollback(context)

	// Junction rows first, parent last.
	junctionDeletes := []struct {
		table  string
		column string
	}{
		{schema.ThankedUser.Table, schema.ThankedUser.ItemID},
		{schema.Thanked.Table, schema.Thanked.ItemID},
		{schema.Tagged.Table, schema.Tagged.ItemID},
	}

	for _, target := range junctionDeletes {
		query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, target.table, target.column)
		if _, err := transaction.Exec(context, query, id); err != nil {
			return apperr.Storage(fmt.Sprintf("failed to clear %s", target.table), err)
		}
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Item.Table, schema.Item.ID)
	commandTag, err := transaction.Exec(context, query, id)
	if err != nil {
		return apperr.Storage("failed to delete thank-you", err)
	}
	if commandTag.RowsAffected() == 0 {
		return apperr.NotFound("Thank you")
	}

	if err := transaction.Commit(context); err != nil {
		return apperr.Storage("failed to commit thank-you delete", err)
	}
	return nil
}

// replaceThanked rewrites the recipient lines for one thank-you.
func (repository *PostgresRepository) replaceThanked(context context.Context, transaction pgx.Tx, itemID int, thanked []Thanked) error {
	delQuery := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", schema.Thanked.Table, schema.Thanked.ItemID)
	if _, err := transaction.Exec(context, delQuery, itemID); err != nil {
		return apperr.Storage("failed to clear thanked rows", err)
	}

	if len(thanked) == 0 {
		return nil
	}

	insQuery := fmt.Sprintf("INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, $3)",
		schema.Thanked.Table, schema.Thanked.ItemID, schema.Thanked.ObjectType, schema.Thanked.ObjectID)

	batch := &pgx.Batch{}
	for _, line := range thanked {
		batch.Queue(insQuery, itemID, int(line.OwnerClass), line.ObjectID)
	}

	response := transaction.SendBatch(context, batch)
	if err := response.Close(); err != nil {
		return apperr.Storage("failed to insert thanked rows", err)
	}
	return nil
}

// replaceJunction implements the clear-and-insert strategy for the two
// (item_id, value) junction tables, batching inserts over one round-trip.
func (repository *PostgresRepository) replaceJunction(context context.Context, transaction pgx.Tx, table, idCol, valCol string, itemID int, vals []int) error {
	delQuery := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, idCol)
	if _, err := transaction.Exec(context, delQuery, itemID); err != nil {
		return apperr.Storage(fmt.Sprintf("failed to clear %s", table), err)
	}

	if len(vals) == 0 {
		return nil
	}

	insQuery := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES ($1, $2)", table, idCol, valCol)
	batch := &pgx.Batch{}
	for _, value := range vals {
		batch.Queue(insQuery, itemID, value)
	}

	response := transaction.SendBatch(context, batch)
	if err := response.Close(); err != nil {
		return apperr.Storage(fmt.Sprintf("failed to batch insert into %s", table), err)
	}
	return nil
}
