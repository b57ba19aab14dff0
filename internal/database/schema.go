package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied statement by statement at startup. Every statement is
// idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id CHAR(36) NOT NULL PRIMARY KEY,
		seq BIGINT NOT NULL AUTO_INCREMENT UNIQUE,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(20) NOT NULL,
		full_name VARCHAR(120) NOT NULL,
		password_hash VARCHAR(100) NOT NULL,
		role ENUM('admin','trainer','member') NOT NULL,
		center ENUM('Ranaghat','Chakdah','Madanpur') NULL,
		approval_status ENUM('pending','approved','rejected') NOT NULL DEFAULT 'pending',
		is_primary_admin TINYINT(1) NOT NULL DEFAULT 0,
		primary_marker TINYINT GENERATED ALWAYS AS (IF(is_primary_admin = 1, 1, NULL)) STORED,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		push_token VARCHAR(255) NULL,
		address VARCHAR(255) NULL,
		emergency_contact JSON NULL,
		goals TEXT NULL,
		medical_notes TEXT NULL,
		membership_plan VARCHAR(60) NULL,
		membership_start DATE NULL,
		membership_end DATE NULL,
		next_payment_date DATE NULL,
		last_payment_reminder DATE NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email),
		UNIQUE KEY uq_users_phone (phone),
		UNIQUE KEY uq_users_primary (primary_marker),
		KEY idx_users_role_center (role, center),
		KEY idx_users_next_payment (next_payment_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_hash (token_hash),
		KEY idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS approval_requests (
		id CHAR(36) NOT NULL PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		user_role ENUM('admin','trainer','member') NOT NULL,
		center ENUM('Ranaghat','Chakdah','Madanpur') NULL,
		status ENUM('pending','approved','rejected') NOT NULL DEFAULT 'pending',
		reviewed_by CHAR(36) NULL,
		reviewed_at DATETIME NULL,
		rejection_reason VARCHAR(500) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_approvals_status (status, user_role, center),
		KEY idx_approvals_user (user_id),
		CONSTRAINT fk_approvals_user FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS attendance (
		id CHAR(36) NOT NULL PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		center ENUM('Ranaghat','Chakdah','Madanpur') NULL,
		check_in_time DATETIME NOT NULL,
		check_out_time DATETIME NULL,
		open_marker TINYINT GENERATED ALWAYS AS (IF(check_out_time IS NULL, 1, NULL)) STORED,
		method ENUM('qr','manual','self') NOT NULL,
		marked_by CHAR(36) NULL,
		UNIQUE KEY uq_attendance_open (user_id, open_marker),
		KEY idx_attendance_center_day (center, check_in_time),
		KEY idx_attendance_user_day (user_id, check_in_time),
		CONSTRAINT fk_attendance_user FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS messages (
		id CHAR(36) NOT NULL PRIMARY KEY,
		sender_id CHAR(36) NOT NULL,
		receiver_id CHAR(36) NOT NULL,
		content TEXT NOT NULL,
		message_type ENUM('text','image','pdf') NOT NULL DEFAULT 'text',
		is_read TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME(3) NOT NULL,
		KEY idx_messages_pair (sender_id, receiver_id, created_at),
		KEY idx_messages_inbox (receiver_id, is_read)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS announcements (
		id CHAR(36) NOT NULL PRIMARY KEY,
		author_id CHAR(36) NOT NULL,
		title VARCHAR(200) NOT NULL,
		content TEXT NOT NULL,
		target ENUM('all','members','trainers','center','selected') NOT NULL,
		target_center ENUM('Ranaghat','Chakdah','Madanpur') NULL,
		target_users JSON NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		KEY idx_announcements_active (is_active, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS merchandise (
		id CHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(150) NOT NULL,
		description TEXT NULL,
		price DECIMAL(10,2) NOT NULL,
		category VARCHAR(60) NOT NULL,
		image_url VARCHAR(500) NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS merchandise_stock (
		item_id CHAR(36) NOT NULL,
		size VARCHAR(20) NOT NULL,
		quantity INT NOT NULL DEFAULT 0,
		PRIMARY KEY (item_id, size),
		CONSTRAINT chk_stock_nonnegative CHECK (quantity >= 0),
		CONSTRAINT fk_stock_item FOREIGN KEY (item_id) REFERENCES merchandise(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS orders (
		id CHAR(36) NOT NULL PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		center ENUM('Ranaghat','Chakdah','Madanpur') NULL,
		status ENUM('pending','ready','completed','cancelled') NOT NULL DEFAULT 'pending',
		total DECIMAL(10,2) NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		KEY idx_orders_user (user_id, created_at),
		KEY idx_orders_status (status, center)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS order_items (
		order_id CHAR(36) NOT NULL,
		line_no INT NOT NULL,
		item_id CHAR(36) NOT NULL,
		item_name VARCHAR(150) NOT NULL,
		size VARCHAR(20) NOT NULL,
		quantity INT NOT NULL,
		unit_price DECIMAL(10,2) NOT NULL,
		PRIMARY KEY (order_id, line_no),
		CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS workout_plans (
		id CHAR(36) NOT NULL PRIMARY KEY,
		member_id CHAR(36) NOT NULL,
		author_id CHAR(36) NOT NULL,
		title VARCHAR(200) NOT NULL,
		description TEXT NULL,
		exercises JSON NOT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		KEY idx_workouts_member (member_id, is_active)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS diet_plans (
		id CHAR(36) NOT NULL PRIMARY KEY,
		member_id CHAR(36) NOT NULL,
		author_id CHAR(36) NOT NULL,
		title VARCHAR(200) NOT NULL,
		meals JSON NOT NULL,
		daily_calories INT NULL,
		notes TEXT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		KEY idx_diets_member (member_id, is_active)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS body_metrics (
		id CHAR(36) NOT NULL PRIMARY KEY,
		member_id CHAR(36) NOT NULL,
		recorded_by CHAR(36) NOT NULL,
		weight DECIMAL(6,2) NULL,
		height DECIMAL(6,2) NULL,
		body_fat DECIMAL(5,2) NULL,
		chest DECIMAL(6,2) NULL,
		waist DECIMAL(6,2) NULL,
		hips DECIMAL(6,2) NULL,
		biceps DECIMAL(6,2) NULL,
		thighs DECIMAL(6,2) NULL,
		notes TEXT NULL,
		recorded_at DATETIME NOT NULL,
		KEY idx_metrics_member (member_id, recorded_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS payments (
		id CHAR(36) NOT NULL PRIMARY KEY,
		member_id CHAR(36) NOT NULL,
		center VARCHAR(20) NOT NULL,
		amount DECIMAL(10,2) NOT NULL,
		payment_method VARCHAR(30) NOT NULL,
		description VARCHAR(255) NULL,
		status VARCHAR(20) NOT NULL,
		recorded_by CHAR(36) NOT NULL,
		payment_date DATETIME NOT NULL,
		next_payment_date DATE NULL,
		KEY idx_payments_member (member_id, payment_date),
		KEY idx_payments_revenue (status, payment_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id CHAR(36) NOT NULL PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		title VARCHAR(200) NOT NULL,
		body TEXT NOT NULL,
		type VARCHAR(40) NOT NULL,
		data JSON NULL,
		is_read TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME(3) NOT NULL,
		KEY idx_notifications_user (user_id, is_read, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
