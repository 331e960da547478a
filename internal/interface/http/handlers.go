package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tlu-hub/tlu-group-hub/internal/application/command"
	"github.com/tlu-hub/tlu-group-hub/internal/application/query"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
	"github.com/tlu-hub/tlu-group-hub/internal/infrastructure/persistence/csvstore"
	"github.com/tlu-hub/tlu-group-hub/internal/interface/presenter"
)

// SessionCookie holds the opaque session id.
const SessionCookie = "tlu_session"

// portalRetryAfter is sent, in seconds, with 503 answers while the portal
// recovers.
const portalRetryAfter = "30"

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.pages.render(w, http.StatusOK, "login", loginView{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.pages.render(w, http.StatusBadRequest, "login", loginView{Error: "Dữ liệu gửi lên không hợp lệ"})
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))

	res, err := s.deps.Login.Handle(r.Context(), command.LoginCommand{
		Username: username,
		Password: r.PostForm.Get("password"),
	})
	if err != nil {
		status, msg := loginFailure(err)
		if status == http.StatusServiceUnavailable {
			w.Header().Set("Retry-After", portalRetryAfter)
		}
		if status >= http.StatusInternalServerError {
			s.logger.Error("login failed", "username", username, "error", err, "request_id", getRequestID(r.Context()))
		}
		s.pages.render(w, status, "login", loginView{Username: username, Error: msg})
		return
	}

	s.setSessionCookie(w, res.Session.ID, res.Session.ExpiresAt)
	http.Redirect(w, r, "/form", http.StatusSeeOther)
}

func loginFailure(err error) (int, string) {
	switch {
	case shared.IsValidation(err):
		return http.StatusBadRequest, "Vui lòng nhập MSSV và mật khẩu"
	case errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Sai MSSV hoặc mật khẩu"
	case shared.IsRetryable(err):
		return http.StatusServiceUnavailable, "Không kết nối được cổng đào tạo, vui lòng thử lại sau"
	case shared.IsExternalService(err):
		return http.StatusBadGateway, "Không kết nối được cổng đào tạo, vui lòng thử lại sau"
	default:
		return http.StatusInternalServerError, "Đã xảy ra lỗi, vui lòng thử lại sau"
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if err := s.deps.Login.Logout(r.Context(), c.Value); err != nil {
			s.logger.Warn("logout failed", "error", err)
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRATION FORM
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	form, err := s.deps.Form.Handle(r.Context(), query.GetRegistrationFormQuery{SessionID: sessionID})
	if err != nil {
		s.handleSessionError(w, r, err)
		return
	}
	s.pages.render(w, http.StatusOK, "form", newFormView(form, nil, ""))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderError(w, http.StatusBadRequest, "Dữ liệu không hợp lệ", "Không đọc được biểu mẫu.")
		return
	}
	cmd := command.SubmitRegistrationCommand{
		SessionID:   sessionID,
		Class:       r.PostForm.Get("registered_class"),
		Goal:        r.PostForm.Get("goal"),
		Strengths:   r.PostForm["strength"],
		DesiredRole: r.PostForm.Get("role"),
	}

	res, err := s.deps.Submit.Handle(r.Context(), cmd)
	if err == nil {
		s.pages.render(w, http.StatusOK, "submitted", submittedView{
			Name:          res.Registration.Name,
			Class:         res.Registration.Class.String(),
			PreviousClass: res.PreviousClass.String(),
			Updated:       res.Updated,
		})
		return
	}
	if !shared.IsValidation(err) {
		s.handleSessionError(w, r, err)
		return
	}

	// Show the form again with the posted choices and the reason.
	form, ferr := s.deps.Form.Handle(r.Context(), query.GetRegistrationFormQuery{SessionID: sessionID})
	if ferr != nil {
		s.handleSessionError(w, r, ferr)
		return
	}
	s.pages.render(w, http.StatusBadRequest, "form", newFormView(form, &cmd, validationMessage(err)))
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, shared.ErrUnknownClass):
		return "Vui lòng chọn lớp đăng ký hợp lệ"
	case errors.Is(err, shared.ErrUnknownGoal):
		return "Vui lòng chọn mục tiêu"
	case errors.Is(err, shared.ErrInvalidRole):
		return "Vui lòng chọn vai trò mong muốn"
	default:
		return "Thông tin đăng ký không hợp lệ"
	}
}

// handleSessionError maps failures of the signed-in pages.
func (s *Server) handleSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrSessionNotFound),
		errors.Is(err, shared.ErrSessionExpired),
		errors.Is(err, shared.ErrPortalTokenExpired):
		s.clearSessionCookie(w)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case shared.IsRetryable(err):
		s.logger.Warn("portal unavailable", "error", err, "request_id", getRequestID(r.Context()))
		w.Header().Set("Retry-After", portalRetryAfter)
		s.renderError(w, http.StatusServiceUnavailable, "Cổng đào tạo không phản hồi", "Không tải được thông tin sinh viên, vui lòng thử lại sau.")
	case shared.IsExternalService(err):
		s.logger.Warn("portal request failed", "error", err, "request_id", getRequestID(r.Context()))
		s.renderError(w, http.StatusBadGateway, "Cổng đào tạo không phản hồi", "Không tải được thông tin sinh viên, vui lòng thử lại sau.")
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err, "request_id", getRequestID(r.Context()))
		s.renderError(w, http.StatusInternalServerError, "Lỗi hệ thống", "Đã xảy ra lỗi, vui lòng thử lại sau.")
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// INSTRUCTOR PAGES
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleAdminGroups(w http.ResponseWriter, r *http.Request) {
	s.renderGroups(w, r, false)
}

// handleRecordGroups forms the groups and stores the run. Only this POST
// records, so reloading the summary or downloading the CSV adds nothing.
func (s *Server) handleRecordGroups(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Sec-Fetch-Site") == "cross-site" {
		s.renderError(w, http.StatusForbidden, "Yêu cầu bị từ chối", "Không thể lưu kết quả từ trang khác.")
		return
	}
	s.renderGroups(w, r, true)
}

func (s *Server) renderGroups(w http.ResponseWriter, r *http.Request, record bool) {
	cmd, res, ok := s.formGroups(w, r, record)
	if !ok {
		return
	}

	title := "Kết quả chia nhóm"
	if res.Class != "" {
		title += " lớp " + res.Class
	}
	params := groupsQuery(cmd)
	page := presenter.HTMLPage{
		Summary:     presenter.NewSummary(title, res.Class, res.Result),
		DownloadURL: "/admin/groups/export.csv" + params,
	}
	switch {
	case !record:
		page.RecordURL = "/admin/groups" + params
	case res.Recorded:
		page.Notice = "Đã lưu lần chia nhóm " + res.RunID.String()
	default:
		page.Notice = "Kho lưu trữ hiện tại không ghi lại lần chia nhóm."
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Run-ID", res.RunID.String())
	if err := presenter.RenderHTML(w, page); err != nil {
		s.logger.Error("render summary failed", "error", err)
	}
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	_, res, ok := s.formGroups(w, r, false)
	if !ok {
		return
	}

	name := "all"
	if res.Class != "" {
		name = res.Class
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="groups_%s.csv"`, name))
	w.Header().Set("X-Run-ID", res.RunID.String())
	if err := csvstore.WriteGroups(w, res.Result); err != nil {
		s.logger.Error("export failed", "error", err)
	}
}

// formGroups parses class, size and seed from the query or the posted form
// and runs the engine.
func (s *Server) formGroups(w http.ResponseWriter, r *http.Request, record bool) (command.FormGroupsCommand, *command.FormGroupsResult, bool) {
	var cmd command.FormGroupsCommand
	err := r.ParseForm()
	if err == nil {
		cmd, err = parseFormGroups(r.Form)
	}
	if err == nil {
		err = cmd.Validate()
	}
	if err != nil {
		s.renderError(w, http.StatusBadRequest, "Tham số không hợp lệ", err.Error())
		return cmd, nil, false
	}
	cmd.Record = record

	res, err := s.deps.Grouping.Handle(r.Context(), cmd)
	if err != nil {
		s.logger.Error("grouping failed", "class", cmd.Class, "error", err, "request_id", getRequestID(r.Context()))
		s.renderError(w, http.StatusInternalServerError, "Lỗi chia nhóm", "Không chia nhóm được, vui lòng thử lại sau.")
		return cmd, nil, false
	}
	return cmd, res, true
}

func parseFormGroups(values url.Values) (command.FormGroupsCommand, error) {
	cmd := command.FormGroupsCommand{Class: strings.TrimSpace(values.Get("class"))}
	if v := values.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cmd, fmt.Errorf("size: %q is not a number", v)
		}
		cmd.GroupSize = n
	}
	if v := values.Get("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cmd, fmt.Errorf("seed: %q is not a number", v)
		}
		cmd.Seed = &seed
	}
	return cmd, nil
}

// groupsQuery rebuilds the query string of a run from its parameters only.
func groupsQuery(cmd command.FormGroupsCommand) string {
	q := url.Values{}
	if cmd.Class != "" {
		q.Set("class", cmd.Class)
	}
	if cmd.GroupSize > 0 {
		q.Set("size", strconv.Itoa(cmd.GroupSize))
	}
	if cmd.Seed != nil {
		q.Set("seed", strconv.FormatInt(*cmd.Seed, 10))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.Health.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION COOKIE
// ══════════════════════════════════════════════════════════════════════════════

// sessionID returns the cookie value or redirects to the login page.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return "", false
	}
	return c.Value, true
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string, expires time.Time) {
	c := &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if !expires.IsZero() {
		c.Expires = expires
	}
	http.SetCookie(w, c)
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// VIEW MODELS
// ══════════════════════════════════════════════════════════════════════════════

type loginView struct {
	Username string
	Error    string
}

type submittedView struct {
	Name          string
	Class         string
	PreviousClass string
	Updated       bool
}

type option struct {
	Value    string
	Selected bool
}

type formView struct {
	Name         string
	StudentID    string
	CurrentClass string
	GPA          string
	Mark         string
	Sessions     string
	Existing     string

	Classes []option
	Goals   []option
	Skills  []option
	Roles   []option

	Error string
}

// newFormView preselects the posted choices, else the stored registration.
func newFormView(form *query.RegistrationForm, posted *command.SubmitRegistrationCommand, errMsg string) formView {
	p := form.Profile
	v := formView{
		Name:         p.Name,
		StudentID:    p.StudentID.String(),
		CurrentClass: p.CurrentClass,
		GPA:          registration.FormatNumber(p.GPA),
		Sessions:     p.Sessions.String(),
		Error:        errMsg,
	}
	if p.Mark != nil {
		v.Mark = registration.FormatNumber(*p.Mark)
	}

	var (
		class, goal, role string
		strengths         []string
	)
	switch {
	case posted != nil:
		class, goal, role, strengths = posted.Class, posted.Goal, posted.DesiredRole, posted.Strengths
	case form.Existing != nil:
		e := form.Existing
		class, goal, role = e.Class.String(), string(e.Goal), e.DesiredRole
		for _, sk := range e.Strengths.Sorted() {
			strengths = append(strengths, string(sk))
		}
	}
	if form.Existing != nil {
		v.Existing = form.Existing.Class.String()
	}

	for _, c := range form.Classes {
		v.Classes = append(v.Classes, option{Value: c.String(), Selected: c.String() == class})
	}
	for _, g := range form.Goals {
		v.Goals = append(v.Goals, option{Value: string(g), Selected: string(g) == goal})
	}
	for _, sk := range form.Skills {
		v.Skills = append(v.Skills, option{Value: string(sk), Selected: contains(strengths, string(sk))})
	}
	for _, rl := range form.Roles {
		v.Roles = append(v.Roles, option{Value: rl, Selected: rl == role})
	}
	return v
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if strings.TrimSpace(s) == v {
			return true
		}
	}
	return false
}
