package database

import (
    "context"
    "database/sql"
    "fmt"
)

// schema is applied in order by Migrate.  Every statement is idempotent.
//
// bookings.active_user_id is user_id while the row is confirmed and NULL
// otherwise, so UNIQUE (class_id, active_user_id) allows any number of
// cancelled rows but only one confirmed row per user and class.
var schema = []string{
    `CREATE TABLE IF NOT EXISTS class_sessions (
        id          CHAR(36)     NOT NULL PRIMARY KEY,
        name        VARCHAR(255) NOT NULL,
        description TEXT         NOT NULL,
        instructor  VARCHAR(255) NOT NULL,
        start_time  DATETIME(6)  NOT NULL,
        end_time    DATETIME(6)  NOT NULL,
        capacity    INT UNSIGNED NOT NULL,
        status      ENUM('scheduled','cancelled','completed') NOT NULL DEFAULT 'scheduled',
        created_at  DATETIME(6)  NOT NULL,
        updated_at  DATETIME(6)  NOT NULL,
        KEY idx_class_sessions_start (start_time, id),
        KEY idx_class_sessions_status_end (status, end_time),
        CONSTRAINT chk_class_sessions_window CHECK (end_time > start_time)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
    `CREATE TABLE IF NOT EXISTS bookings (
        id             CHAR(36)     NOT NULL PRIMARY KEY,
        class_id       CHAR(36)     NOT NULL,
        user_id        VARCHAR(128) NOT NULL,
        user_name      VARCHAR(255) NOT NULL,
        status         ENUM('confirmed','cancelled') NOT NULL,
        created_at     DATETIME(6)  NOT NULL,
        updated_at     DATETIME(6)  NOT NULL,
        active_user_id VARCHAR(128) AS (IF(status = 'confirmed', user_id, NULL)) STORED,
        UNIQUE KEY uq_bookings_active (class_id, active_user_id),
        KEY idx_bookings_class_status (class_id, status),
        KEY idx_bookings_user_created (user_id, created_at),
        CONSTRAINT fk_bookings_class FOREIGN KEY (class_id) REFERENCES class_sessions (id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
    `CREATE TABLE IF NOT EXISTS reviews (
        id         CHAR(36)         NOT NULL PRIMARY KEY,
        class_id   CHAR(36)         NOT NULL,
        user_id    VARCHAR(128)     NOT NULL,
        user_name  VARCHAR(255)     NOT NULL,
        rating     TINYINT UNSIGNED NOT NULL,
        content    TEXT             NOT NULL,
        images     JSON             NOT NULL,
        created_at DATETIME(6)      NOT NULL,
        updated_at DATETIME(6)      NOT NULL,
        UNIQUE KEY uq_reviews_class_user (class_id, user_id),
        KEY idx_reviews_class_created (class_id, created_at),
        CONSTRAINT chk_reviews_rating CHECK (rating BETWEEN 1 AND 5),
        CONSTRAINT fk_reviews_class FOREIGN KEY (class_id) REFERENCES class_sessions (id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
    `CREATE TABLE IF NOT EXISTS knowledge_bases (
        id          CHAR(36)     NOT NULL PRIMARY KEY,
        name        VARCHAR(255) NOT NULL,
        description TEXT         NOT NULL,
        type        VARCHAR(16)  NOT NULL DEFAULT 'text',
        created_at  DATETIME(6)  NOT NULL,
        updated_at  DATETIME(6)  NOT NULL
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
    `CREATE TABLE IF NOT EXISTS knowledge_items (
        id                CHAR(36)     NOT NULL PRIMARY KEY,
        knowledge_base_id CHAR(36)     NOT NULL,
        title             VARCHAR(255) NOT NULL,
        content           MEDIUMTEXT   NOT NULL,
        content_type      VARCHAR(16)  NOT NULL DEFAULT 'text',
        file_path         VARCHAR(512) NOT NULL DEFAULT '',
        mime_type         VARCHAR(128) NOT NULL DEFAULT '',
        created_at        DATETIME(6)  NOT NULL,
        updated_at        DATETIME(6)  NOT NULL,
        KEY idx_knowledge_items_base (knowledge_base_id),
        CONSTRAINT fk_knowledge_items_base FOREIGN KEY (knowledge_base_id) REFERENCES knowledge_bases (id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
    for i, stmt := range schema {
        if _, err := db.ExecContext(ctx, stmt); err != nil {
            return fmt.Errorf("migrate step %d: %w", i+1, err)
        }
    }
    return nil
}
