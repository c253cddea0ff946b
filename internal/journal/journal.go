package journal

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/Hara602/usbFortify/internal/sink"
	_ "modernc.org/sqlite"
)

// Journal 把日志行同时写入 SQLite，作为文本日志的第二份持久化副本
type Journal struct {
	db *sql.DB
	mu sync.Mutex
}

// Open 打开（或创建）数据库并初始化表结构
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// 两个轮询循环都会写入，单连接避免 SQLITE_BUSY
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS log_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		written_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		line TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &Journal{db: db}, nil
}

// Append 一次调用的所有行在同一个事务中写入
func (j *Journal) Append(lines ...string) error {
	if len(lines) == 0 {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO log_lines(line) VALUES (?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("journal prepare: %w", err)
	}
	defer stmt.Close()

	for _, l := range lines {
		if _, err := stmt.Exec(sink.Flatten(l)); err != nil {
			tx.Rollback()
			return fmt.Errorf("journal insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal commit: %w", err)
	}
	return nil
}

// Count 返回已写入的行数
func (j *Journal) Count() (int, error) {
	var n int
	if err := j.db.QueryRow("SELECT COUNT(*) FROM log_lines").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}
