package csvstore

import (
	"io"
	"strconv"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/grouping"
)

// Export columns. The order is relied on by the spreadsheets instructors keep,
// so columns are only ever appended.
var ExportHeader = []string{
	"STT",
	ColStudentID,
	ColName,
	ColCurrentClass,
	ColGPA,
	ColMark,
	"Điểm ĐTĐM (hệ 4)",
	"Điểm tổng",
	ColSession,
	ColGoal,
	ColStrengths,
	ColDesiredRole,
	"Vai trò",
	"Nhóm",
}

// WriteGroups writes every formed group as one flat CSV. STT restarts at 1 in
// each group. An absent mark is left blank.
func WriteGroups(w io.Writer, res grouping.Result) error {
	var rows [][]string
	for _, c := range res.Cohorts {
		for _, g := range c.Groups {
			for i, m := range g.Members {
				rows = append(rows, exportRow(i+1, m))
			}
		}
	}
	return WriteRows(w, ExportHeader, rows)
}

func exportRow(stt int, s grouping.Student) []string {
	mark := ""
	if s.Mark != 0 {
		mark = strconv.FormatFloat(s.Mark, 'f', -1, 64)
	}
	return []string{
		strconv.Itoa(stt),
		s.ID,
		s.Name,
		s.Class,
		strconv.FormatFloat(s.GPA, 'f', -1, 64),
		mark,
		fixed2(s.ScaledMark()),
		fixed2(s.Score),
		s.Session,
		string(s.Goal),
		s.Skills.String(),
		s.DesiredRole,
		s.Role.String(),
		s.GroupID,
	}
}

func fixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ReadRoster reads engine input from a registration CSV. Malformed numbers
// become zero rather than failing the whole file.
func ReadRoster(r io.Reader) ([]grouping.Student, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}
	out := make([]grouping.Student, len(rows))
	for i, row := range rows {
		out[i] = grouping.NewStudent(grouping.NewStudentParams{
			ID:          row[0],
			Name:        row[1],
			Class:       row[2],
			GPA:         row[3],
			Mark:        row[4],
			Session:     row[5],
			Goal:        row[6],
			Skills:      row[7],
			DesiredRole: row[8],
		})
	}
	return out, nil
}
