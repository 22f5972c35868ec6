package store

import (
	"database/sql"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/holiman/uint256"

	_ "modernc.org/sqlite"

	"xcall-engine/codec"
)

// SQLite is a Store backed by modernc.org/sqlite, used the same way
// cmd/geth-17-indexer opens its transfers.db: sql.Open("sqlite", path),
// CREATE TABLE IF NOT EXISTS, parameterized queries. Rollback/ProxyRequest
// protocol lists are RLP-encoded (via package codec) into BLOB columns, so
// the on-disk shape tracks the wire shape.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) a sqlite-backed store at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS config(
			id INTEGER PRIMARY KEY CHECK (id = 0),
			admin TEXT, fee_handler TEXT, network_id TEXT,
			protocol_fee TEXT, sequence_no INTEGER, last_request_id INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS default_connection(nid TEXT PRIMARY KEY, address TEXT)`,
		`CREATE TABLE IF NOT EXISTS rollback_record(
			seq INTEGER PRIMARY KEY, "from" TEXT, "to" TEXT,
			protocols BLOB, rollback_bytes BLOB, enabled INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS proxy_request(
			req_id INTEGER PRIMARY KEY, "from" TEXT, "to" TEXT,
			sequence_no INTEGER, protocols BLOB, msg_type INTEGER, data_hash BLOB
		)`,
		`CREATE TABLE IF NOT EXISTS pending_request(hash TEXT PRIMARY KEY, sources BLOB)`,
		`CREATE TABLE IF NOT EXISTS pending_response(hash TEXT PRIMARY KEY, sources BLOB)`,
		`CREATE TABLE IF NOT EXISTS successful_response(seq INTEGER PRIMARY KEY)`,
		`CREATE TABLE IF NOT EXISTS receipt(conn_id TEXT, src_nid TEXT, conn_sn INTEGER, PRIMARY KEY(conn_id, src_nid, conn_sn))`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLite) GetConfig() (Config, error) {
	row := s.db.QueryRow(`SELECT admin, fee_handler, network_id, protocol_fee, sequence_no, last_request_id FROM config WHERE id = 0`)
	var c Config
	var feeStr string
	if err := row.Scan(&c.Admin, &c.FeeHandler, &c.NetworkID, &feeStr, &c.SequenceNo, &c.LastRequestID); err != nil {
		if err == sql.ErrNoRows {
			return Config{}, ErrNotFound
		}
		return Config{}, err
	}
	fee := new(uint256.Int)
	if err := fee.SetFromDecimal(feeStr); err != nil {
		fee = uint256.NewInt(0)
	}
	c.ProtocolFee = fee
	return c, nil
}

func (s *SQLite) PutConfig(c Config) error {
	fee := c.ProtocolFee
	if fee == nil {
		fee = uint256.NewInt(0)
	}
	_, err := s.db.Exec(`INSERT INTO config(id, admin, fee_handler, network_id, protocol_fee, sequence_no, last_request_id)
		VALUES(0, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET admin=excluded.admin, fee_handler=excluded.fee_handler,
			network_id=excluded.network_id, protocol_fee=excluded.protocol_fee,
			sequence_no=excluded.sequence_no, last_request_id=excluded.last_request_id`,
		c.Admin, c.FeeHandler, c.NetworkID, fee.Dec(), c.SequenceNo, c.LastRequestID)
	return err
}

func (s *SQLite) GetDefaultConnection(nid string) (string, error) {
	row := s.db.QueryRow(`SELECT address FROM default_connection WHERE nid = ?`, nid)
	var addr string
	if err := row.Scan(&addr); err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", err
	}
	return addr, nil
}

func (s *SQLite) SetDefaultConnection(nid, address string) error {
	_, err := s.db.Exec(`INSERT INTO default_connection(nid, address) VALUES(?, ?)
		ON CONFLICT(nid) DO UPDATE SET address=excluded.address`, nid, address)
	return err
}

func (s *SQLite) GetRollback(seq uint64) (Rollback, error) {
	row := s.db.QueryRow(`SELECT "from", "to", protocols, rollback_bytes, enabled FROM rollback_record WHERE seq = ?`, seq)
	var rb Rollback
	var protoBlob []byte
	var enabled int
	if err := row.Scan(&rb.From, &rb.To, &protoBlob, &rb.RollbackBytes, &enabled); err != nil {
		if err == sql.ErrNoRows {
			return Rollback{}, ErrNotFound
		}
		return Rollback{}, err
	}
	if err := codec.Decode(protoBlob, &rb.Protocols); err != nil {
		return Rollback{}, err
	}
	rb.Enabled = enabled != 0
	return rb, nil
}

func (s *SQLite) PutRollback(seq uint64, rb Rollback) error {
	protoBlob, err := codec.Encode(rb.Protocols)
	if err != nil {
		return err
	}
	enabled := 0
	if rb.Enabled {
		enabled = 1
	}
	_, err = s.db.Exec(`INSERT INTO rollback_record(seq, "from", "to", protocols, rollback_bytes, enabled)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO UPDATE SET "from"=excluded."from", "to"=excluded."to",
			protocols=excluded.protocols, rollback_bytes=excluded.rollback_bytes, enabled=excluded.enabled`,
		seq, rb.From, rb.To, protoBlob, rb.RollbackBytes, enabled)
	return err
}

func (s *SQLite) DeleteRollback(seq uint64) error {
	_, err := s.db.Exec(`DELETE FROM rollback_record WHERE seq = ?`, seq)
	return err
}

func (s *SQLite) GetProxyRequest(reqID uint64) (ProxyRequest, error) {
	row := s.db.QueryRow(`SELECT "from", "to", sequence_no, protocols, msg_type, data_hash FROM proxy_request WHERE req_id = ?`, reqID)
	var pr ProxyRequest
	var protoBlob []byte
	if err := row.Scan(&pr.From, &pr.To, &pr.SequenceNo, &protoBlob, &pr.MsgType, &pr.DataHash); err != nil {
		if err == sql.ErrNoRows {
			return ProxyRequest{}, ErrNotFound
		}
		return ProxyRequest{}, err
	}
	if err := codec.Decode(protoBlob, &pr.Protocols); err != nil {
		return ProxyRequest{}, err
	}
	return pr, nil
}

func (s *SQLite) PutProxyRequest(reqID uint64, pr ProxyRequest) error {
	protoBlob, err := codec.Encode(pr.Protocols)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO proxy_request(req_id, "from", "to", sequence_no, protocols, msg_type, data_hash)
		VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(req_id) DO UPDATE SET "from"=excluded."from", "to"=excluded."to",
			sequence_no=excluded.sequence_no, protocols=excluded.protocols,
			msg_type=excluded.msg_type, data_hash=excluded.data_hash`,
		reqID, pr.From, pr.To, pr.SequenceNo, protoBlob, pr.MsgType, pr.DataHash)
	return err
}

func (s *SQLite) DeleteProxyRequest(reqID uint64) error {
	_, err := s.db.Exec(`DELETE FROM proxy_request WHERE req_id = ?`, reqID)
	return err
}

func (s *SQLite) getSourceSet(table string, hash []byte) (mapset.Set[string], error) {
	row := s.db.QueryRow(fmt.Sprintf(`SELECT sources FROM %s WHERE hash = ?`, table), hashKey(hash))
	var blob []byte
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return mapset.NewSet[string](), nil
		}
		return nil, err
	}
	var sources []string
	if err := codec.Decode(blob, &sources); err != nil {
		return nil, err
	}
	return mapset.NewSet(sources...), nil
}

func (s *SQLite) putSourceSet(table string, hash []byte, sources mapset.Set[string]) error {
	blob, err := codec.Encode(sources.ToSlice())
	if err != nil {
		return err
	}
	_, err = s.db.Exec(fmt.Sprintf(`INSERT INTO %s(hash, sources) VALUES(?, ?)
		ON CONFLICT(hash) DO UPDATE SET sources=excluded.sources`, table), hashKey(hash), blob)
	return err
}

func (s *SQLite) deleteSourceSet(table string, hash []byte) error {
	_, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE hash = ?`, table), hashKey(hash))
	return err
}

func (s *SQLite) GetPendingRequest(hash []byte) (mapset.Set[string], error) {
	return s.getSourceSet("pending_request", hash)
}
func (s *SQLite) PutPendingRequest(hash []byte, sources mapset.Set[string]) error {
	return s.putSourceSet("pending_request", hash, sources)
}
func (s *SQLite) DeletePendingRequest(hash []byte) error {
	return s.deleteSourceSet("pending_request", hash)
}

func (s *SQLite) GetPendingResponse(hash []byte) (mapset.Set[string], error) {
	return s.getSourceSet("pending_response", hash)
}
func (s *SQLite) PutPendingResponse(hash []byte, sources mapset.Set[string]) error {
	return s.putSourceSet("pending_response", hash, sources)
}
func (s *SQLite) DeletePendingResponse(hash []byte) error {
	return s.deleteSourceSet("pending_response", hash)
}

func (s *SQLite) IsSuccessfulResponse(seq uint64) (bool, error) {
	row := s.db.QueryRow(`SELECT 1 FROM successful_response WHERE seq = ?`, seq)
	var x int
	if err := row.Scan(&x); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *SQLite) SetSuccessfulResponse(seq uint64) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO successful_response(seq) VALUES(?)`, seq)
	return err
}

func (s *SQLite) HasReceipt(connID, srcNID string, connSN int64) (bool, error) {
	row := s.db.QueryRow(`SELECT 1 FROM receipt WHERE conn_id = ? AND src_nid = ? AND conn_sn = ?`, connID, srcNID, connSN)
	var x int
	if err := row.Scan(&x); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *SQLite) PutReceipt(connID, srcNID string, connSN int64) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO receipt(conn_id, src_nid, conn_sn) VALUES(?, ?, ?)`, connID, srcNID, connSN)
	return err
}
