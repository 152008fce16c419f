package storage

import (
	"database/sql"
	"fmt"

	"floorsheet-observer/src/helpers"
	"floorsheet-observer/src/logger"
	"floorsheet-observer/src/models"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// PostgresStore is the server-DB backend for shared analyst access. All three
// stage binaries must see the same tables, so the schema is fixed rather than
// derived per binary.
// -----------------------------------------------------------------------------

const pgSchema = "floorsheet"

type PostgresStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresStore(cfg *models.MConfig, log *logger.Logger) (*PostgresStore, error) {
	return &PostgresStore{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return helpers.NewStorageError("failed to open postgres store", err)
	}

	if err := db.Ping(); err != nil {
		return helpers.NewStorageError("failed to ping postgres store", err)
	}

	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, pgSchema)); err != nil {
		return helpers.NewStorageError(fmt.Sprintf("failed to create schema %s", pgSchema), err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresStore initialized successfully (Schema: %s)", pgSchema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) createTables() error {
	queries := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s".raw_floorsheet (
			date TEXT,
			transaction_no BIGINT,
			symbol TEXT,
			symbol_full TEXT,
			buyer_id TEXT,
			buyer_name TEXT,
			seller_id TEXT,
			seller_name TEXT,
			quantity BIGINT,
			rate NUMERIC,
			amount NUMERIC,
			PRIMARY KEY (date, transaction_no)
		);`, pgSchema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s".date_summarized_floorsheet (
			date TEXT,
			broker_id TEXT,
			broker_name TEXT,
			symbol TEXT,
			buy_quantity BIGINT,
			sell_quantity BIGINT,
			buy_amount NUMERIC,
			sell_amount NUMERIC,
			transaction_count BIGINT,
			avg_buy_price NUMERIC,
			avg_sell_price NUMERIC,
			net_quantity BIGINT,
			avg_holding_price NUMERIC,
			PRIMARY KEY (date, broker_id, symbol)
		);`, pgSchema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s".summarized_floorsheet (
			broker_id TEXT,
			broker_name TEXT,
			symbol TEXT,
			buy_quantity BIGINT,
			sell_quantity BIGINT,
			buy_amount NUMERIC,
			sell_amount NUMERIC,
			transaction_count BIGINT,
			avg_buy_price NUMERIC,
			avg_sell_price NUMERIC,
			net_quantity BIGINT,
			avg_holding_price NUMERIC,
			last_updated TEXT,
			PRIMARY KEY (broker_id, symbol)
		);`, pgSchema),
	}

	for _, q := range queries {
		if _, err := d.DB.Exec(q); err != nil {
			return helpers.NewStorageError("failed to create postgres tables", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// Initialize creates the backing tables, so a reachable database always has
// them; an empty table is an empty dataset, not a missing input.
func (d *PostgresStore) HasTransactions() (bool, error) {
	return true, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) HasDateSummaries() (bool, error) {
	return true, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) LoadTransactions() ([]models.MTransaction, error) {
	rows, err := d.DB.Query(fmt.Sprintf(`
		SELECT date, transaction_no, symbol, symbol_full, buyer_id, buyer_name,
		       seller_id, seller_name, quantity, rate::text, amount::text
		FROM "%s".raw_floorsheet`, pgSchema))
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

func (d *PostgresStore) ReplaceTransactions(list []models.MTransaction) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM "%s".raw_floorsheet`, pgSchema)); err != nil {
		return helpers.NewStorageError("failed to clear raw_floorsheet", err)
	}

	stmt, err := tx.Prepare(fmt.Sprintf(`
		INSERT INTO "%s".raw_floorsheet (date, transaction_no, symbol, symbol_full,
			buyer_id, buyer_name, seller_id, seller_name, quantity, rate, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`, pgSchema))
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

func (d *PostgresStore) LoadDateSummaries() ([]models.MDateSummary, error) {
	rows, err := d.DB.Query(fmt.Sprintf(`
		SELECT date, broker_id, broker_name, symbol, buy_quantity, sell_quantity,
		       buy_amount::text, sell_amount::text, transaction_count,
		       avg_buy_price::text, avg_sell_price::text, net_quantity,
		       avg_holding_price::text
		FROM "%s".date_summarized_floorsheet`, pgSchema))
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

func (d *PostgresStore) ReplaceDateSummaries(list []models.MDateSummary) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM "%s".date_summarized_floorsheet`, pgSchema)); err != nil {
		return helpers.NewStorageError("failed to clear date_summarized_floorsheet", err)
	}

	stmt, err := tx.Prepare(fmt.Sprintf(`
		INSERT INTO "%s".date_summarized_floorsheet (date, broker_id, broker_name,
			symbol, buy_quantity, sell_quantity, buy_amount, sell_amount,
			transaction_count, avg_buy_price, avg_sell_price, net_quantity,
			avg_holding_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`, pgSchema))
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

func (d *PostgresStore) LoadCombinedSummaries() ([]models.MCombinedSummary, error) {
	rows, err := d.DB.Query(fmt.Sprintf(`
		SELECT broker_id, broker_name, symbol, buy_quantity, sell_quantity,
		       buy_amount::text, sell_amount::text, transaction_count,
		       avg_buy_price::text, avg_sell_price::text, net_quantity,
		       avg_holding_price::text, last_updated
		FROM "%s".summarized_floorsheet`, pgSchema))
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

func (d *PostgresStore) ReplaceCombinedSummaries(list []models.MCombinedSummary) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM "%s".summarized_floorsheet`, pgSchema)); err != nil {
		return helpers.NewStorageError("failed to clear summarized_floorsheet", err)
	}

	stmt, err := tx.Prepare(fmt.Sprintf(`
		INSERT INTO "%s".summarized_floorsheet (broker_id, broker_name, symbol,
			buy_quantity, sell_quantity, buy_amount, sell_amount, transaction_count,
			avg_buy_price, avg_sell_price, net_quantity, avg_holding_price,
			last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`, pgSchema))
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

func (d *PostgresStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
