package database

import (
	"database/sql"
	"log"
)

type migration struct {
	name  string
	query string
}

var migrations = []migration{
	{"academic_years", `
		CREATE TABLE IF NOT EXISTS academic_years (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(100) NOT NULL UNIQUE,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			is_current BOOLEAN NOT NULL DEFAULT false,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMP
		);`},
	{"terms", `
		CREATE TABLE IF NOT EXISTS terms (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			academic_year_id UUID NOT NULL REFERENCES academic_years(id),
			name VARCHAR(100) NOT NULL,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			is_current BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_terms_academic_year ON terms(academic_year_id);`},
	{"pupils", `
		CREATE TABLE IF NOT EXISTS pupils (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			class_id UUID,
			section VARCHAR(20) DEFAULT 'day',
			admission_number VARCHAR(50) UNIQUE,
			registration_date DATE,
			date_of_birth DATE,
			status VARCHAR(20) NOT NULL DEFAULT 'Active',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_pupils_class ON pupils(class_id);
		CREATE INDEX IF NOT EXISTS idx_pupils_status ON pupils(status);`},
	{"fee_structures", `
		CREATE TABLE IF NOT EXISTS fee_structures (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(150) NOT NULL,
			amount NUMERIC(14,2) NOT NULL,
			category VARCHAR(50),
			class_id UUID,
			section VARCHAR(20),
			academic_year_id UUID NOT NULL REFERENCES academic_years(id),
			term_id UUID NOT NULL REFERENCES terms(id),
			is_assignment_fee BOOLEAN NOT NULL DEFAULT false,
			is_required BOOLEAN NOT NULL DEFAULT true,
			linked_fee_id UUID REFERENCES fee_structures(id),
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_fee_structures_term ON fee_structures(academic_year_id, term_id);`},
	{"pupil_assigned_fees", `
		CREATE TABLE IF NOT EXISTS pupil_assigned_fees (
			pupil_id UUID NOT NULL REFERENCES pupils(id),
			fee_structure_id UUID NOT NULL REFERENCES fee_structures(id),
			assigned_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (pupil_id, fee_structure_id)
		);`},
	{"payments", `
		CREATE TABLE IF NOT EXISTS payments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			pupil_id UUID NOT NULL REFERENCES pupils(id),
			fee_id UUID NOT NULL REFERENCES fee_structures(id),
			amount NUMERIC(14,2) NOT NULL,
			payment_date TIMESTAMP NOT NULL,
			payment_method VARCHAR(50),
			reference VARCHAR(100),
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_payments_pupil ON payments(pupil_id);`},
	{"pupil_term_snapshots", `
		CREATE TABLE IF NOT EXISTS pupil_term_snapshots (
			id UUID PRIMARY KEY,
			pupil_id UUID NOT NULL REFERENCES pupils(id),
			term_id UUID NOT NULL REFERENCES terms(id),
			academic_year_id UUID NOT NULL REFERENCES academic_years(id),
			class_id UUID,
			section VARCHAR(20),
			admission_number VARCHAR(50),
			date_of_birth DATE,
			frozen_at TIMESTAMP NOT NULL,
			UNIQUE (pupil_id, term_id)
		);`},
	{"requirements", `
		CREATE TABLE IF NOT EXISTS requirements (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(150) NOT NULL,
			class_id UUID,
			section VARCHAR(20),
			academic_year_id UUID NOT NULL REFERENCES academic_years(id),
			term_id UUID NOT NULL REFERENCES terms(id),
			quantity INTEGER NOT NULL DEFAULT 1,
			unit_price NUMERIC(14,2) NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMP
		);`},
}

// RunMigrations checks and applies necessary schema updates
func RunMigrations(db *sql.DB) error {
	log.Println("Running database migrations...")

	for _, m := range migrations {
		if _, err := db.Exec(m.query); err != nil {
			log.Printf("Failed to run migration for %s: %v", m.name, err)
			return err
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}
