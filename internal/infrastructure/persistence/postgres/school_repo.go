package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/school-report/internal/domain/school"
	"github.com/alem-hub/school-report/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHOOL REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

const selectSchoolTree = `
	SELECT g.stage, g.name,
	       c.id, c.label,
	       s.id, s.name, s.gender,
	       r.id, r.subject,
	       sc.value
	FROM grades g
	LEFT JOIN courses c ON c.grade_id = g.id
	LEFT JOIN students s ON s.course_id = c.id
	LEFT JOIN subject_records r ON r.student_id = s.id
	LEFT JOIN scores sc ON sc.record_id = r.id
	ORDER BY CASE g.stage WHEN 'primaria' THEN 0 ELSE 1 END,
	         g.position, c.position, s.position, r.position, sc.position
`

// SchoolRepository loads and stores the school tree.
type SchoolRepository struct {
	conn *Connection
	log  *slog.Logger
}

// NewSchoolRepository creates a new repository.
func NewSchoolRepository(conn *Connection, log *slog.Logger) *SchoolRepository {
	if log == nil {
		log = slog.Default()
	}
	return &SchoolRepository{
		conn: conn,
		log:  log.With("component", "postgres.school"),
	}
}

// LoadSchool reads the whole tree from one consistent snapshot.
func (r *SchoolRepository) LoadSchool(ctx context.Context) (*school.School, error) {
	start := time.Now()
	var rows []treeRow

	err := r.conn.WithTx(ctx, SnapshotTxOptions(), func(tx pgx.Tx) error {
		result, err := tx.Query(ctx, selectSchoolTree)
		if err != nil {
			return fmt.Errorf("query school tree: %w", err)
		}
		defer result.Close()

		for result.Next() {
			var row treeRow
			if err := result.Scan(
				&row.Stage, &row.Grade,
				&row.CourseID, &row.Course,
				&row.StudentID, &row.StudentName, &row.Gender,
				&row.RecordID, &row.Subject,
				&row.Score,
			); err != nil {
				return fmt.Errorf("scan school row: %w", err)
			}
			rows = append(rows, row)
		}
		return result.Err()
	})
	if err != nil {
		return nil, err
	}

	s, err := assembleSchool(rows)
	if err != nil {
		return nil, err
	}

	r.log.Debug("school loaded", "rows", len(rows), "latency", time.Since(start))
	return s, nil
}

// ReplaceSchool deletes the stored tree and writes s in its place, in one
// transaction.
func (r *SchoolRepository) ReplaceSchool(ctx context.Context, s *school.School) error {
	var students, scores int

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "TRUNCATE grades RESTART IDENTITY CASCADE"); err != nil {
			return fmt.Errorf("truncate: %w", err)
		}

		for _, stage := range s.Stages() {
			for gi, g := range stage.Grades {
				var gradeID int64
				if err := tx.QueryRow(ctx,
					"INSERT INTO grades (stage, name, position) VALUES ($1, $2, $3) RETURNING id",
					string(stage.Name), g.Name, gi,
				).Scan(&gradeID); err != nil {
					return importError(fmt.Sprintf("grade %s/%s", stage.Name, g.Name), err)
				}

				for ci, c := range g.Courses {
					var courseID int64
					if err := tx.QueryRow(ctx,
						"INSERT INTO courses (grade_id, label, position) VALUES ($1, $2, $3) RETURNING id",
						gradeID, c.Label, ci,
					).Scan(&courseID); err != nil {
						return importError(fmt.Sprintf("course %s/%s/%s", stage.Name, g.Name, c.Label), err)
					}

					for si := range c.Students {
						n, err := insertStudent(ctx, tx, courseID, si, &c.Students[si])
						if err != nil {
							return err
						}
						students++
						scores += n
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info("school stored", "students", students, "scores", scores)
	return nil
}

func insertStudent(ctx context.Context, tx pgx.Tx, courseID int64, position int, st *school.Student) (int, error) {
	var studentID int64
	if err := tx.QueryRow(ctx,
		"INSERT INTO students (course_id, name, gender, position) VALUES ($1, $2, $3, $4) RETURNING id",
		courseID, st.Name, string(st.Gender), position,
	).Scan(&studentID); err != nil {
		return 0, importError(fmt.Sprintf("student %q", st.Name), err)
	}

	batch := &pgx.Batch{}
	count := 0
	for ri, rec := range st.Subjects {
		var recordID int64
		if err := tx.QueryRow(ctx,
			"INSERT INTO subject_records (student_id, subject, position) VALUES ($1, $2, $3) RETURNING id",
			studentID, rec.Subject, ri,
		).Scan(&recordID); err != nil {
			return 0, importError(fmt.Sprintf("subject %q for %q", rec.Subject, st.Name), err)
		}
		for pi, v := range rec.Scores {
			batch.Queue("INSERT INTO scores (record_id, value, position) VALUES ($1, $2, $3)", recordID, v, pi)
			count++
		}
	}

	if batch.Len() == 0 {
		return 0, nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, importError(fmt.Sprintf("scores for %q", st.Name), err)
	}
	return count, nil
}

// importError reports constraint violations as a malformed dataset; any other
// failure is returned as a plain insert error.
func importError(what string, err error) error {
	if IsUniqueViolation(err) || IsCheckViolation(err) {
		return shared.WrapError("postgres", "ReplaceSchool", shared.ErrInvalidFormat,
			fmt.Sprintf("%s violates the schema", what), err)
	}
	return fmt.Errorf("insert %s: %w", what, err)
}
