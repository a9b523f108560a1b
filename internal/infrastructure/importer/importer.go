// Package importer seeds the user collections from the sample lists handed
// out with the system: one file each for students, staff and company
// representatives, comma or tab separated, with a header row.
package importer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ipms/placement-hub/internal/domain/registration"
	"github.com/ipms/placement-hub/internal/domain/user"
	"github.com/ipms/placement-hub/pkg/logger"
	"github.com/ipms/placement-hub/pkg/password"
	"github.com/ipms/placement-hub/pkg/timeutil"
)

// Kind names one of the sample lists.
type Kind string

const (
	KindStudents Kind = "students"
	KindStaff    Kind = "staff"
	KindReps     Kind = "reps"
)

var separator = regexp.MustCompile(`[,\t]`)

// Importer writes imported accounts through the domain repositories.
type Importer struct {
	Users         user.Repository
	Registrations registration.Repository
	Hasher        password.Hasher
	Clock         timeutil.Clock

	// DefaultPassword is given to imported students and staff.
	DefaultPassword string

	Logger *logger.Logger
}

// Result counts what one list produced.
type Result struct {
	Kind     Kind
	Source   string
	Imported int

	// Existing counts ids that were already registered and left untouched.
	Existing int

	// Skipped counts short or invalid rows.
	Skipped int
}

func (r Result) String() string {
	return fmt.Sprintf("%s: imported %d, existing %d, skipped %d (%s)",
		r.Kind, r.Imported, r.Existing, r.Skipped, r.Source)
}

// ImportFile opens path and imports it as kind.
func (im *Importer) ImportFile(ctx context.Context, kind Kind, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{Kind: kind, Source: path}, fmt.Errorf("open %s list: %w", kind, err)
	}
	defer f.Close()

	res, err := im.Import(ctx, kind, f)
	res.Source = filepath.Base(path)
	return res, err
}

// Import reads one list from r.
func (im *Importer) Import(ctx context.Context, kind Kind, r io.Reader) (Result, error) {
	res := Result{Kind: kind}

	var row func(ctx context.Context, fields []string) (bool, error)
	switch kind {
	case KindStudents:
		row = im.student
	case KindStaff:
		row = im.staff
	case KindReps:
		row = im.rep
	default:
		return res, fmt.Errorf("unknown list kind %q", kind)
	}

	log := im.log().With(logger.Collection(string(kind)))
	sc := bufio.NewScanner(r)
	header := true
	line := 0
	for sc.Scan() {
		line++
		if header {
			header = false
			continue
		}
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		fields := separator.Split(text, -1)
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		created, err := row(ctx, fields)
		switch {
		case err != nil:
			res.Skipped++
			log.Warn("row skipped", logger.Int("line", line), logger.Err(err))
		case created:
			res.Imported++
		default:
			res.Existing++
		}
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("read %s list: %w", kind, err)
	}

	log.Info("list imported",
		logger.Int("imported", res.Imported),
		logger.Int("existing", res.Existing),
		logger.Int("skipped", res.Skipped),
	)
	return res, nil
}

// ─── rows ────────────────────────────────────────────────────────────────────

// student reads id, name, password, year, major. The password column is
// ignored; students start on the default password.
func (im *Importer) student(ctx context.Context, f []string) (bool, error) {
	if len(f) < 5 {
		return false, fmt.Errorf("expected 5 columns, got %d", len(f))
	}
	if im.exists(ctx, f[0]) {
		return false, nil
	}
	year, err := strconv.Atoi(f[3])
	if err != nil {
		return false, fmt.Errorf("year %q: %w", f[3], err)
	}
	digest, err := im.Hasher.Hash(im.DefaultPassword)
	if err != nil {
		return false, err
	}
	s, err := user.NewStudent(user.NewStudentParams{
		ID: f[0], Name: f[1], YearOfStudy: year, Major: f[4], PasswordDigest: digest,
	})
	if err != nil {
		return false, err
	}
	return true, im.Users.Save(ctx, s)
}

// staff reads id, name, role, department, email. The email is the login id
// when present.
func (im *Importer) staff(ctx context.Context, f []string) (bool, error) {
	if len(f) < 4 {
		return false, fmt.Errorf("expected 4 columns, got %d", len(f))
	}
	id := f[0]
	if len(f) > 4 && f[4] != "" {
		id = f[4]
	}
	if im.exists(ctx, id) {
		return false, nil
	}
	digest, err := im.Hasher.Hash(im.DefaultPassword)
	if err != nil {
		return false, err
	}
	s, err := user.NewStaff(user.NewStaffParams{
		ID: id, Name: f[1], Department: f[3], PasswordDigest: digest,
	})
	if err != nil {
		return false, err
	}
	return true, im.Users.Save(ctx, s)
}

// rep reads id, name, password, company, department, position. Imported reps
// wait for staff approval like self-registered ones.
func (im *Importer) rep(ctx context.Context, f []string) (bool, error) {
	if len(f) < 6 {
		return false, fmt.Errorf("expected 6 columns, got %d", len(f))
	}
	if im.exists(ctx, f[0]) {
		return false, nil
	}
	plain := f[2]
	if plain == "" {
		plain = im.DefaultPassword
	}
	digest, err := im.Hasher.Hash(plain)
	if err != nil {
		return false, err
	}
	rep, err := user.NewRep(user.NewRepParams{
		ID: f[0], Name: f[1], CompanyName: f[3], Department: f[4], Position: f[5], PasswordDigest: digest,
	})
	if err != nil {
		return false, err
	}
	if err := im.Users.Save(ctx, rep); err != nil {
		return false, err
	}
	if im.Registrations == nil {
		return true, nil
	}
	req := registration.NewRequest(im.Registrations.NextID(), rep.ID, im.now())
	return true, im.Registrations.Save(ctx, req)
}

func (im *Importer) exists(ctx context.Context, id string) bool {
	_, ok := im.Users.FindByID(ctx, id)
	return ok
}

func (im *Importer) now() time.Time {
	if im.Clock == nil {
		return timeutil.NewSystemClock(nil).Now()
	}
	return im.Clock.Now()
}

func (im *Importer) log() *logger.Logger {
	if im.Logger == nil {
		return logger.Discard()
	}
	return im.Logger.With(logger.Component("importer"))
}
