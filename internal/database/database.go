package database

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"

	_ "github.com/mattn/go-sqlite3"

	"github.com/56quarters/redeye/internal/parser"
)

// Archive copies parsed access log records into a sqlite database in
// addition to the JSON output. Records are deduplicated by a hash of the
// raw line so the same file can be replayed without double inserts.
type Archive struct {
	db         *sql.DB
	insertStmt *sql.Stmt
	hashStmt   *sql.Stmt
}

const schema = `CREATE TABLE IF NOT EXISTS accesslog (
	remote_host TEXT,
	remote_user TEXT,
	time_local TIMESTAMP,
	request_method TEXT,
	request_uri TEXT,
	request_protocol TEXT,
	status INTEGER,
	content_length INTEGER,
	referrer TEXT,
	user_agent TEXT,
	message TEXT,
	hash TEXT)`

func Open(filename string) (*Archive, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, err
	}
	if _, err = db.Exec(schema); err == nil {
		_, err = db.Exec("CREATE INDEX IF NOT EXISTS accesslog_hash_idx ON accesslog (hash)")
	}
	if err != nil {
		db.Close()
		return nil, err
	}
	archive := &Archive{db: db}
	archive.insertStmt, err = db.Prepare("INSERT INTO accesslog (remote_host,remote_user,time_local,request_method,request_uri,request_protocol,status,content_length,referrer,user_agent,message,hash) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)")
	if err == nil {
		archive.hashStmt, err = db.Prepare("SELECT 1 FROM accesslog WHERE hash=$1")
	}
	if err != nil {
		archive.Close()
		return nil, err
	}
	return archive, nil
}

// Insert stores the record unless an identical line was stored before.
// Returns whether the record was skipped as a duplicate.
func (archive *Archive) Insert(record parser.Record) (bool, error) {
	hash := hashLine(record.Message)
	rows, err := archive.hashStmt.Query(hash)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	if rows.Next() {
		return true, nil
	}
	var length any
	if record.ContentLength != nil {
		length = *record.ContentLength
	}
	_, err = archive.insertStmt.Exec(record.RemoteHost, record.RemoteUser, record.Timestamp,
		record.Method, record.RequestedURI, record.Protocol, record.StatusCode, length,
		record.Referrer, record.UserAgent, record.Message, hash)
	return false, err
}

func (archive *Archive) Close() {
	if archive.hashStmt != nil {
		archive.hashStmt.Close()
		archive.hashStmt = nil
	}
	if archive.insertStmt != nil {
		archive.insertStmt.Close()
		archive.insertStmt = nil
	}
	if archive.db != nil {
		archive.db.Close()
		archive.db = nil
	}
}

// private

func hashLine(line string) string {
	hasher := md5.New()
	hasher.Write([]byte(line))
	return hex.EncodeToString(hasher.Sum(nil))
}
