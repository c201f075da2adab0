package database

import (
    "context"
    "database/sql"
    "fmt"
    "net"
    "time"

    "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.  Times are parsed
// into time.Time and kept in UTC; the studio timezone is applied above the
// storage layer.
func Open(ctx context.Context, user, pass, host, port, name string) (*sql.DB, error) {
    mc := mysql.NewConfig()
    mc.User = user
    mc.Passwd = pass
    mc.Net = "tcp"
    mc.Addr = net.JoinHostPort(host, port)
    mc.DBName = name
    mc.ParseTime = true
    mc.Loc = time.UTC
    mc.Params = map[string]string{"charset": "utf8mb4"}

    db, err := sql.Open("mysql", mc.FormatDSN())
    if err != nil {
        return nil, err
    }

    // Pool settings
    db.SetMaxOpenConns(25)
    db.SetMaxIdleConns(25)
    db.SetConnMaxLifetime(30 * time.Minute)

    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("ping mysql %s: %w", mc.Addr, err)
    }
    return db, nil
}
