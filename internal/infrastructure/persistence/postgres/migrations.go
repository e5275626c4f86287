package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: SCHOOL TREE
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Grades belong to a stage; grade names are unique per stage.
CREATE TABLE IF NOT EXISTS grades (
    id SERIAL PRIMARY KEY,
    stage VARCHAR(20) NOT NULL,
    name VARCHAR(50) NOT NULL,
    position INTEGER NOT NULL,

    CONSTRAINT valid_stage CHECK (stage IN ('primaria', 'secundaria')),
    CONSTRAINT unique_grade_per_stage UNIQUE (stage, name)
);

CREATE TABLE IF NOT EXISTS courses (
    id SERIAL PRIMARY KEY,
    grade_id INTEGER NOT NULL REFERENCES grades(id) ON DELETE CASCADE,
    label VARCHAR(20) NOT NULL,
    position INTEGER NOT NULL,

    CONSTRAINT unique_course_per_grade UNIQUE (grade_id, label)
);

CREATE TABLE IF NOT EXISTS students (
    id SERIAL PRIMARY KEY,
    course_id INTEGER NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    name VARCHAR(100) NOT NULL,
    gender VARCHAR(10) NOT NULL,
    position INTEGER NOT NULL,

    CONSTRAINT valid_gender CHECK (gender IN ('male', 'female'))
);

CREATE TABLE IF NOT EXISTS subject_records (
    id SERIAL PRIMARY KEY,
    student_id INTEGER NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    subject VARCHAR(50) NOT NULL,
    position INTEGER NOT NULL,

    CONSTRAINT unique_subject_per_student UNIQUE (student_id, subject)
);

CREATE TABLE IF NOT EXISTS scores (
    id SERIAL PRIMARY KEY,
    record_id INTEGER NOT NULL REFERENCES subject_records(id) ON DELETE CASCADE,
    value DOUBLE PRECISION NOT NULL,
    position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_courses_grade ON courses(grade_id, position);
CREATE INDEX IF NOT EXISTS idx_students_course ON students(course_id, position);
CREATE INDEX IF NOT EXISTS idx_subject_records_student ON subject_records(student_id, position);
CREATE INDEX IF NOT EXISTS idx_scores_record ON scores(record_id, position);
`

const migration001Down = `
DROP TABLE IF EXISTS scores;
DROP TABLE IF EXISTS subject_records;
DROP TABLE IF EXISTS students;
DROP TABLE IF EXISTS courses;
DROP TABLE IF EXISTS grades;
`

// GetMigrations returns all embedded migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_school_tree",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
	}
}
