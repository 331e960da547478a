// Package csvstore keeps registrations in one CSV file per class, the format
// instructors open in a spreadsheet.
package csvstore

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
)

// Registration columns in stored order.
const (
	ColStudentID    = "MSSV"
	ColName         = "Họ tên"
	ColCurrentClass = "Lớp hiện tại"
	ColGPA          = "GPA"
	ColMark         = "Điểm ĐTĐM"
	ColSession      = "Ca học"
	ColGoal         = "Mục tiêu"
	ColStrengths    = "Điểm mạnh"
	ColDesiredRole  = "Vai trò mong muốn"
)

// Header is the header row of every class file.
var Header = []string{
	ColStudentID, ColName, ColCurrentClass, ColGPA, ColMark,
	ColSession, ColGoal, ColStrengths, ColDesiredRole,
}

// bom makes spreadsheet software read the file as UTF-8.
const bom = "﻿"

// Store implements registration.Repository on a directory of CSV files.
// Read-modify-write cycles are serialised by one store-wide mutex, so
// concurrent submissions never lose a row. Files are replaced atomically.
type Store struct {
	dir    string
	mu     sync.Mutex
	logger *slog.Logger
}

var _ registration.Repository = (*Store)(nil)

// New creates the directory if needed.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{dir: dir, logger: logger.With("component", "csvstore")}, nil
}

// Path returns the file of a class.
func (s *Store) Path(class shared.ClassCode) string {
	return filepath.Join(s.dir, class.String()+".csv")
}

// Upsert removes the student from every other class file, then replaces the
// student's row in the registered class or appends it.
func (s *Store) Upsert(ctx context.Context, reg *registration.Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, class := range shared.KnownClasses {
		if class == reg.Class {
			continue
		}
		rows, err := s.readClass(class)
		if err != nil {
			return err
		}
		kept := rows[:0]
		for _, r := range rows {
			if r[0] != reg.StudentID.String() {
				kept = append(kept, r)
			}
		}
		if len(kept) != len(rows) {
			if err := s.writeClass(class, kept); err != nil {
				return err
			}
			s.logger.Info("registration moved", "student_id", reg.StudentID.String(), "from", class.String(), "to", reg.Class.String())
		}
	}

	rows, err := s.readClass(reg.Class)
	if err != nil {
		return err
	}
	row := reg.Row()
	replaced := false
	for i, r := range rows {
		if r[0] == reg.StudentID.String() {
			rows[i] = row
			replaced = true
		}
	}
	if !replaced {
		rows = append(rows, row)
	}
	if err := s.writeClass(reg.Class, rows); err != nil {
		return err
	}

	s.logger.Info("registration stored",
		"student_id", reg.StudentID.String(),
		"class", reg.Class.String(),
		"updated", replaced,
	)
	return nil
}

// Get finds the class the student is registered in.
func (s *Store) Get(ctx context.Context, id shared.StudentID) (*registration.Registration, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].StudentID == id {
			return &all[i], nil
		}
	}
	return nil, shared.ErrRegistrationNotFound
}

// List returns the registrations of one class. A class nobody registered
// for yet is empty, not an error.
func (s *Store) List(ctx context.Context, class shared.ClassCode) ([]registration.Registration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	rows, err := s.readClass(class)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]registration.Registration, len(rows))
	for i, r := range rows {
		out[i] = registration.FromRow(class, r)
	}
	return out, nil
}

// ListAll returns every class in KnownClasses order.
func (s *Store) ListAll(ctx context.Context) ([]registration.Registration, error) {
	var out []registration.Registration
	for _, class := range shared.KnownClasses {
		regs, err := s.List(ctx, class)
		if err != nil {
			return nil, err
		}
		out = append(out, regs...)
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FILE I/O
// ══════════════════════════════════════════════════════════════════════════════

// readClass must be called with the lock held. Rows come back in Header
// order.
func (s *Store) readClass(class shared.ClassCode) ([][]string, error) {
	f, err := os.Open(s.Path(class))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", class, err)
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", class, err)
	}
	return rows, nil
}

// writeClass must be called with the lock held.
func (s *Store) writeClass(class shared.ClassCode, rows [][]string) error {
	var buf bytes.Buffer
	if err := WriteRows(&buf, Header, rows); err != nil {
		return fmt.Errorf("encode %s: %w", class, err)
	}
	if err := atomicWriteFile(s.Path(class), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", class, err)
	}
	return nil
}

// ReadRows decodes a registration CSV. Columns are matched by header name, so
// files edited in a spreadsheet with reordered or extra columns still load.
// An empty file has no rows.
func ReadRows(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], bom)
	}

	index := make([]int, len(Header))
	for i, col := range Header {
		index[i] = -1
		for j, h := range header {
			if strings.TrimSpace(h) == col {
				index[i] = j
				break
			}
		}
	}
	if index[0] < 0 {
		return nil, fmt.Errorf("missing %q column", ColStudentID)
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		row := make([]string, len(Header))
		for i, j := range index {
			if j >= 0 && j < len(rec) {
				row[i] = rec[j]
			}
		}
		if strings.TrimSpace(row[0]) == "" {
			continue
		}
		rows = append(rows, row)
	}
}

// WriteRows encodes a header and rows with a UTF-8 byte order mark.
func WriteRows(w io.Writer, header []string, rows [][]string) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// atomicWriteFile writes to a temporary file in the same directory and
// renames it over path, so readers never see a partial file.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	success = true
	return nil
}
