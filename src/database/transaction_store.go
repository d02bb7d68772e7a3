package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/username/clubtreso/backend/src/models"
	"github.com/username/clubtreso/backend/src/utils"
)

const transactionColumns = `id, execution_date, amount, counterparty_name,
	counterparty_account, communication, account_number, dedup_hash,
	is_parent, parent_id, child_index, child_count, matched_entities,
	category, account_code`

// InsertTransactions stores a batch inside one SQL transaction.
func InsertTransactions(db *sql.DB, txs []models.Transaction) error {
	dbTx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`INSERT INTO bank_transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, tx := range txs {
		entities, err := json.Marshal(entitiesOrEmpty(tx.MatchedEntities))
		if err != nil {
			return fmt.Errorf("error encoding matched entities for %s: %w", tx.ID, err)
		}
		_, err = stmt.Exec(
			tx.ID, tx.ExecutionDate.Format(utils.DayFormat), tx.Amount.String(),
			tx.CounterpartyName, tx.CounterpartyAccount, tx.Communication,
			tx.AccountNumber, tx.DedupHash,
			tx.IsParent, nullable(tx.ParentID), nullableInt(tx.ChildIndex), nullableInt(tx.ChildCount),
			string(entities), nullable(tx.Category), nullable(tx.AccountCode),
		)
		if err != nil {
			return fmt.Errorf("error inserting transaction %s: %w", tx.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing transactions: %w", err)
	}
	return nil
}

// UpdateTransaction rewrites every mutable field of one record in a single
// UPDATE, so a repair or link change lands atomically or not at all.
func UpdateTransaction(db *sql.DB, tx models.Transaction) error {
	entities, err := json.Marshal(entitiesOrEmpty(tx.MatchedEntities))
	if err != nil {
		return fmt.Errorf("error encoding matched entities for %s: %w", tx.ID, err)
	}
	result, err := db.Exec(`UPDATE bank_transactions
		SET is_parent = ?, matched_entities = ?, category = ?, account_code = ?
		WHERE id = ?`,
		tx.IsParent, string(entities), nullable(tx.Category), nullable(tx.AccountCode), tx.ID)
	if err != nil {
		return fmt.Errorf("error updating transaction %s: %w", tx.ID, err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SaveSplit persists a ventilation atomically: the parent flag flips and the
// children appear together, or nothing changes.
func SaveSplit(db *sql.DB, parent models.Transaction, children []models.Transaction) error {
	dbTx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec(`UPDATE bank_transactions SET is_parent = TRUE WHERE id = ?`, parent.ID); err != nil {
		return fmt.Errorf("error flagging parent %s: %w", parent.ID, err)
	}

	stmt, err := dbTx.Prepare(`INSERT INTO bank_transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, child := range children {
		entities, err := json.Marshal(entitiesOrEmpty(child.MatchedEntities))
		if err != nil {
			return fmt.Errorf("error encoding matched entities for %s: %w", child.ID, err)
		}
		_, err = stmt.Exec(
			child.ID, child.ExecutionDate.Format(utils.DayFormat), child.Amount.String(),
			child.CounterpartyName, child.CounterpartyAccount, child.Communication,
			child.AccountNumber, child.DedupHash,
			child.IsParent, nullable(child.ParentID), nullableInt(child.ChildIndex), nullableInt(child.ChildCount),
			string(entities), nullable(child.Category), nullable(child.AccountCode),
		)
		if err != nil {
			return fmt.Errorf("error inserting child %s: %w", child.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing split: %w", err)
	}
	return nil
}

// GetTransactionByID loads one record.
func GetTransactionByID(db *sql.DB, id string) (models.Transaction, error) {
	row := db.QueryRow(`SELECT `+transactionColumns+` FROM bank_transactions WHERE id = ?`, id)
	return scanTransaction(row)
}

// ListTransactions loads the full record set ordered by execution date then
// ID, newest first.
func ListTransactions(db *sql.DB) ([]models.Transaction, error) {
	return queryTransactions(db, `SELECT `+transactionColumns+`
		FROM bank_transactions ORDER BY execution_date DESC, id DESC`)
}

// ListCategorized loads every record that carries an account code, the
// history the category suggester mines.
func ListCategorized(db *sql.DB) ([]models.Transaction, error) {
	return queryTransactions(db, `SELECT `+transactionColumns+`
		FROM bank_transactions
		WHERE account_code IS NOT NULL AND account_code != ''
		ORDER BY execution_date DESC, id DESC`)
}

// ExistingHashes returns the set of fingerprints already stored, the import
// gate's lookup table.
func ExistingHashes(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query(`SELECT DISTINCT dedup_hash FROM bank_transactions`)
	if err != nil {
		return nil, fmt.Errorf("error querying stored fingerprints: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]bool)
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("error scanning fingerprint: %w", err)
		}
		hashes[h] = true
	}
	return hashes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func queryTransactions(db *sql.DB, query string, args ...interface{}) ([]models.Transaction, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var (
		tx                              models.Transaction
		dateStr, amountStr, entitiesStr string
		parentID, category, accountCode sql.NullString
		childIndex, childCount          sql.NullInt64
	)
	err := row.Scan(
		&tx.ID, &dateStr, &amountStr, &tx.CounterpartyName,
		&tx.CounterpartyAccount, &tx.Communication, &tx.AccountNumber, &tx.DedupHash,
		&tx.IsParent, &parentID, &childIndex, &childCount, &entitiesStr,
		&category, &accountCode,
	)
	if err != nil {
		return models.Transaction{}, err
	}

	if tx.ExecutionDate, err = utils.ParseStatementDate(dateStr); err != nil {
		return models.Transaction{}, fmt.Errorf("error parsing stored date for %s: %w", tx.ID, err)
	}
	if tx.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return models.Transaction{}, fmt.Errorf("error parsing stored amount for %s: %w", tx.ID, err)
	}
	if err := json.Unmarshal([]byte(entitiesStr), &tx.MatchedEntities); err != nil {
		return models.Transaction{}, fmt.Errorf("error decoding matched entities for %s: %w", tx.ID, err)
	}
	tx.ParentID = parentID.String
	tx.Category = category.String
	tx.AccountCode = accountCode.String
	tx.ChildIndex = int(childIndex.Int64)
	tx.ChildCount = int(childCount.Int64)
	return tx, nil
}

func entitiesOrEmpty(entities []models.MatchedEntity) []models.MatchedEntity {
	if entities == nil {
		return []models.MatchedEntity{}
	}
	return entities
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableInt(i int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(i), Valid: i != 0}
}
