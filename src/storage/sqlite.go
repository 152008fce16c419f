package storage

import (
	"database/sql"
	"fmt"

	"floorsheet-observer/src/helpers"
	"floorsheet-observer/src/logger"
	"floorsheet-observer/src/models"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------
// SQLiteStore is the embedded-store backend. The tables are keyed by each
// store's unique key and carry the same merge/retention contracts as the
// parquet files: every write replaces the whole dataset inside one
// transaction.
// -----------------------------------------------------------------------------

type SQLiteStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteStore(cfg *models.MConfig, log *logger.Logger) (*SQLiteStore, error) {
	return &SQLiteStore{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return helpers.NewStorageError("failed to open sqlite store", err)
	}

	if err := db.Ping(); err != nil {
		return helpers.NewStorageError("failed to ping sqlite store", err)
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS raw_floorsheet (
			date TEXT,
			transaction_no INTEGER,
			symbol TEXT,
			symbol_full TEXT,
			buyer_id TEXT,
			buyer_name TEXT,
			seller_id TEXT,
			seller_name TEXT,
			quantity INTEGER,
			rate TEXT,
			amount TEXT,
			PRIMARY KEY (date, transaction_no)
		);`,
		`CREATE TABLE IF NOT EXISTS date_summarized_floorsheet (
			date TEXT,
			broker_id TEXT,
			broker_name TEXT,
			symbol TEXT,
			buy_quantity INTEGER,
			sell_quantity INTEGER,
			buy_amount TEXT,
			sell_amount TEXT,
			transaction_count INTEGER,
			avg_buy_price TEXT,
			avg_sell_price TEXT,
			net_quantity INTEGER,
			avg_holding_price TEXT,
			PRIMARY KEY (date, broker_id, symbol)
		);`,
		`CREATE TABLE IF NOT EXISTS summarized_floorsheet (
			broker_id TEXT,
			broker_name TEXT,
			symbol TEXT,
			buy_quantity INTEGER,
			sell_quantity INTEGER,
			buy_amount TEXT,
			sell_amount TEXT,
			transaction_count INTEGER,
			avg_buy_price TEXT,
			avg_sell_price TEXT,
			net_quantity INTEGER,
			avg_holding_price TEXT,
			last_updated TEXT,
			PRIMARY KEY (broker_id, symbol)
		);`,
	}

	for _, q := range queries {
		if _, err := d.DB.Exec(q); err != nil {
			return helpers.NewStorageError("failed to create sqlite tables", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// Initialize creates the backing tables, so a reachable database always has
// them; an empty table is an empty dataset, not a missing input.
func (d *SQLiteStore) HasTransactions() (bool, error) {
	return true, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) HasDateSummaries() (bool, error) {
	return true, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) LoadTransactions() ([]models.MTransaction, error) {
	rows, err := d.DB.Query(`
		SELECT date, transaction_no, symbol, symbol_full, buyer_id, buyer_name,
		       seller_id, seller_name, quantity, rate, amount
		FROM raw_floorsheet`)
	if err != nil {
		return nil, helpers.NewStorageError("failed to read raw_floorsheet", err)
	}
	defer rows.Close()

	var out []models.MTransaction
	for rows.Next() {
		var t models.MTransaction
		var rate, amount string
		if err := rows.Scan(&t.Date, &t.TransactionNo, &t.Symbol, &t.SymbolFull,
			&t.BuyerID, &t.BuyerName, &t.SellerID, &t.SellerName,
			&t.Quantity, &rate, &amount); err != nil {
			return nil, helpers.NewStorageError("failed to scan raw_floorsheet row", err)
		}
		if t.Rate, err = decimal.NewFromString(rate); err != nil {
			return nil, helpers.NewStorageError(fmt.Sprintf("corrupt rate value %q", rate), err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, helpers.NewStorageError(fmt.Sprintf("corrupt amount value %q", amount), err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) ReplaceTransactions(list []models.MTransaction) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM raw_floorsheet"); err != nil {
		return helpers.NewStorageError("failed to clear raw_floorsheet", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO raw_floorsheet (date, transaction_no, symbol, symbol_full,
			buyer_id, buyer_name, seller_id, seller_name, quantity, rate, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return helpers.NewStorageError("failed to prepare insert", err)
	}
	defer stmt.Close()

	for _, t := range list {
		if _, err := stmt.Exec(t.Date, t.TransactionNo, t.Symbol, t.SymbolFull,
			t.BuyerID, t.BuyerName, t.SellerID, t.SellerName,
			t.Quantity, t.Rate.String(), t.Amount.String()); err != nil {
			return helpers.NewStorageError("failed to insert raw_floorsheet row", err)
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) LoadDateSummaries() ([]models.MDateSummary, error) {
	rows, err := d.DB.Query(`
		SELECT date, broker_id, broker_name, symbol, buy_quantity, sell_quantity,
		       buy_amount, sell_amount, transaction_count, avg_buy_price,
		       avg_sell_price, net_quantity, avg_holding_price
		FROM date_summarized_floorsheet`)
	if err != nil {
		return nil, helpers.NewStorageError("failed to read date_summarized_floorsheet", err)
	}
	defer rows.Close()

	var out []models.MDateSummary
	for rows.Next() {
		var s models.MDateSummary
		var buyAmt, sellAmt, avgBuy, avgSell, avgHold string
		if err := rows.Scan(&s.Date, &s.BrokerID, &s.BrokerName, &s.Symbol,
			&s.BuyQuantity, &s.SellQuantity, &buyAmt, &sellAmt,
			&s.TransactionCount, &avgBuy, &avgSell, &s.NetQuantity, &avgHold); err != nil {
			return nil, helpers.NewStorageError("failed to scan date summary row", err)
		}
		if err := scanDecimals(map[*decimal.Decimal]string{
			&s.BuyAmount: buyAmt, &s.SellAmount: sellAmt,
			&s.AvgBuyPrice: avgBuy, &s.AvgSellPrice: avgSell, &s.AvgHoldingPrice: avgHold,
		}); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) ReplaceDateSummaries(list []models.MDateSummary) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM date_summarized_floorsheet"); err != nil {
		return helpers.NewStorageError("failed to clear date_summarized_floorsheet", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO date_summarized_floorsheet (date, broker_id, broker_name, symbol,
			buy_quantity, sell_quantity, buy_amount, sell_amount, transaction_count,
			avg_buy_price, avg_sell_price, net_quantity, avg_holding_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return helpers.NewStorageError("failed to prepare insert", err)
	}
	defer stmt.Close()

	for _, s := range list {
		if _, err := stmt.Exec(s.Date, s.BrokerID, s.BrokerName, s.Symbol,
			s.BuyQuantity, s.SellQuantity, s.BuyAmount.String(), s.SellAmount.String(),
			s.TransactionCount, s.AvgBuyPrice.String(), s.AvgSellPrice.String(),
			s.NetQuantity, s.AvgHoldingPrice.String()); err != nil {
			return helpers.NewStorageError("failed to insert date summary row", err)
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) LoadCombinedSummaries() ([]models.MCombinedSummary, error) {
	rows, err := d.DB.Query(`
		SELECT broker_id, broker_name, symbol, buy_quantity, sell_quantity,
		       buy_amount, sell_amount, transaction_count, avg_buy_price,
		       avg_sell_price, net_quantity, avg_holding_price, last_updated
		FROM summarized_floorsheet`)
	if err != nil {
		return nil, helpers.NewStorageError("failed to read summarized_floorsheet", err)
	}
	defer rows.Close()

	var out []models.MCombinedSummary
	for rows.Next() {
		var s models.MCombinedSummary
		var buyAmt, sellAmt, avgBuy, avgSell, avgHold string
		if err := rows.Scan(&s.BrokerID, &s.BrokerName, &s.Symbol,
			&s.BuyQuantity, &s.SellQuantity, &buyAmt, &sellAmt,
			&s.TransactionCount, &avgBuy, &avgSell, &s.NetQuantity,
			&avgHold, &s.LastUpdated); err != nil {
			return nil, helpers.NewStorageError("failed to scan combined summary row", err)
		}
		if err := scanDecimals(map[*decimal.Decimal]string{
			&s.BuyAmount: buyAmt, &s.SellAmount: sellAmt,
			&s.AvgBuyPrice: avgBuy, &s.AvgSellPrice: avgSell, &s.AvgHoldingPrice: avgHold,
		}); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) ReplaceCombinedSummaries(list []models.MCombinedSummary) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM summarized_floorsheet"); err != nil {
		return helpers.NewStorageError("failed to clear summarized_floorsheet", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO summarized_floorsheet (broker_id, broker_name, symbol,
			buy_quantity, sell_quantity, buy_amount, sell_amount, transaction_count,
			avg_buy_price, avg_sell_price, net_quantity, avg_holding_price, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return helpers.NewStorageError("failed to prepare insert", err)
	}
	defer stmt.Close()

	for _, s := range list {
		if _, err := stmt.Exec(s.BrokerID, s.BrokerName, s.Symbol,
			s.BuyQuantity, s.SellQuantity, s.BuyAmount.String(), s.SellAmount.String(),
			s.TransactionCount, s.AvgBuyPrice.String(), s.AvgSellPrice.String(),
			s.NetQuantity, s.AvgHoldingPrice.String(), s.LastUpdated); err != nil {
			return helpers.NewStorageError("failed to insert combined summary row", err)
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------

func scanDecimals(fields map[*decimal.Decimal]string) error {
	for dst, raw := range fields {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return helpers.NewStorageError(fmt.Sprintf("corrupt decimal value %q", raw), err)
		}
		*dst = v
	}
	return nil
}
