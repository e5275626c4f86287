// Package school contains the read-only data model of a school and the
// navigator used to narrow it to a stage, grade or course.
//
// The hierarchy is a strict tree:
//
//	School
//	  └── Stage ("primaria", "secundaria")
//	        └── Grade ("primero", "segundo", ...)
//	              └── Course ("A", "B", ...)
//	                    └── Student
//	                          └── SubjectRecord ("fisica" -> [3.5, 4.0, ...])
//
// Grades, courses, students, subjects and scores are kept in the order the
// data source supplied them. Every traversal in the module follows that order,
// starting with primaria and then secundaria, so "first encountered" is
// deterministic.
//
// A School is built once with New and must not be modified afterwards; all
// lookups are safe for concurrent readers.
//
// # Navigation
//
//	stage, err := s.ResolveStage(school.StagePrimaria)
//	courses, err := stage.ResolveGrade("segundo")
//	students, err := stage.ResolveCourse("segundo", "A")
//
// Unknown keys fail with an error for which shared.IsNotFound reports true.
package school
