package csvstore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/grouping"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
)

func newReg(id string, class shared.ClassCode) *registration.Registration {
	mark := 8.5
	return &registration.Registration{
		StudentID:    shared.StudentID(id),
		Name:         "Sinh viên " + id,
		CurrentClass: "64HTTT2",
		GPA:          3.2,
		Mark:         &mark,
		Sessions:     shared.SessionSlots{"Ca 1", "Ca 3"},
		Goal:         grouping.GoalHighGrade,
		Strengths:    grouping.ParseSkills("Lập trình; Quản lý"),
		DesiredRole:  grouping.MemberLabel,
		Class:        class,
	}
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	return s
}

func TestStore_UpsertAppendsAndReplaces(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Upsert(ctx, newReg("2251060001", "64HTTT1")))
	require.NoError(t, s.Upsert(ctx, newReg("2251060002", "64HTTT1")))

	updated := newReg("2251060001", "64HTTT1")
	updated.Goal = grouping.GoalPass
	require.NoError(t, s.Upsert(ctx, updated))

	regs, err := s.List(ctx, "64HTTT1")
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.Equal(t, shared.StudentID("2251060001"), regs[0].StudentID, "replaced in place")
	assert.Equal(t, grouping.GoalPass, regs[0].Goal)
	assert.Equal(t, shared.StudentID("2251060002"), regs[1].StudentID)
}

func TestStore_UpsertMovesBetweenClasses(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Upsert(ctx, newReg("2251060001", "64HTTT1")))
	require.NoError(t, s.Upsert(ctx, newReg("2251060002", "64HTTT1")))
	require.NoError(t, s.Upsert(ctx, newReg("2251060001", "64HTTT3")))

	first, err := s.List(ctx, "64HTTT1")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, shared.StudentID("2251060002"), first[0].StudentID)

	got, err := s.Get(ctx, "2251060001")
	require.NoError(t, err)
	assert.Equal(t, shared.ClassCode("64HTTT3"), got.Class)
}

func TestStore_RoundTripFields(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	in := newReg("2251060001", "64HTTT2")
	require.NoError(t, s.Upsert(ctx, in))

	got, err := s.Get(ctx, in.StudentID)
	require.NoError(t, err)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.GPA, got.GPA)
	require.NotNil(t, got.Mark)
	assert.Equal(t, 8.5, *got.Mark)
	assert.Equal(t, "Ca 1, Ca 3", got.Session())
	assert.Equal(t, in.Strengths, got.Strengths)
	assert.Equal(t, in.DesiredRole, got.DesiredRole)
}

func TestStore_FileFormat(t *testing.T) {
	s := newStore(t)
	reg := newReg("2251060001", "64HTTT4")
	reg.Mark = nil
	require.NoError(t, s.Upsert(context.Background(), reg))

	data, err := os.ReadFile(s.Path("64HTTT4"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte(bom)), "file starts with a BOM")

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(data), bom)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(Header, ","), lines[0])
	assert.Equal(t, `2251060001,Sinh viên 2251060001,64HTTT2,3.2,,"Ca 1, Ca 3",Điểm cao,Lập trình; Quản lý,Thành viên`, lines[1])

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(s.Path("64HTTT4")), ".tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "no temp files left behind")
}

func TestStore_ValidationAndMissing(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	err := s.Upsert(ctx, newReg("2251060001", "65XYZ"))
	assert.ErrorIs(t, err, shared.ErrUnknownClass)

	_, err = s.Get(ctx, "2251060001")
	assert.ErrorIs(t, err, shared.ErrRegistrationNotFound)

	regs, err := s.List(ctx, "64HTTT2")
	require.NoError(t, err)
	assert.Empty(t, regs)
}

func TestStore_ConcurrentUpserts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			class := shared.KnownClasses[i%len(shared.KnownClasses)]
			assert.NoError(t, s.Upsert(ctx, newReg(fmt.Sprintf("22510600%02d", i), class)))
		}(i)
	}
	wg.Wait()

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 20)
}

func TestReadRows_HeaderMapping(t *testing.T) {
	in := bom + "Ghi chú,Mục tiêu,MSSV,GPA\n" +
		"x,Qua môn,2251060001,3.5\n" +
		"y,Học hỏi,,2.0\n"

	rows, err := ReadRows(strings.NewReader(in))

	require.NoError(t, err)
	require.Len(t, rows, 1, "rows without a student id are skipped")
	assert.Equal(t, "2251060001", rows[0][0])
	assert.Equal(t, "3.5", rows[0][3])
	assert.Equal(t, "Qua môn", rows[0][6])
	assert.Empty(t, rows[0][1])
}

func TestReadRows_Errors(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, rows)

	_, err = ReadRows(strings.NewReader("Họ tên,GPA\nA,3\n"))
	assert.ErrorContains(t, err, "MSSV")
}
