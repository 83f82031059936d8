package httpapi_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/workconnect/server/internal/feed"
	"github.com/workconnect/server/internal/httpapi"
	"github.com/workconnect/server/internal/workconnect/service"
	"github.com/workconnect/server/internal/workconnect/store/memory"
	"github.com/workconnect/server/internal/workconnect/types"
)

// newTestServer wires the full dependency graph over the in-memory store and
// returns an httptest.Server plus the store for seeding and inspection.
func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()

	ms := memory.New()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	markerFeed := feed.New()
	attendance := service.NewAttendanceService(ms, markerFeed, logger)
	vacations := service.NewVacationService(ms, ms, logger)
	payslips := service.NewPayslipService(ms.Payslips(), logger)

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:        logger,
		Addr:          ":0",
		Attendance:    attendance,
		Vacations:     vacations,
		Payslips:      payslips,
		Users:         ms,
		Notifications: ms,
		CompanyZone:   time.UTC,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, ms
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

// ── attendance ───────────────────────────────────────────────────────────────

func TestAttendance_StartEndFlow(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/attendance/start", `{"user_id":"emp-1","company_id":"acme"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", resp.StatusCode)
	}
	body := decode[map[string]string](t, resp)
	if body["result"] != "STARTED" {
		t.Fatalf("expected STARTED, got %q", body["result"])
	}

	resp = postJSON(t, ts.URL+"/v1/attendance/start", `{"user_id":"emp-1","company_id":"acme"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("double start: expected 200, got %d", resp.StatusCode)
	}
	body = decode[map[string]string](t, resp)
	if body["result"] != "ALREADY_STARTED" {
		t.Fatalf("expected ALREADY_STARTED, got %q", body["result"])
	}

	resp = postJSON(t, ts.URL+"/v1/attendance/end", `{"user_id":"emp-1"}`)
	body = decode[map[string]string](t, resp)
	if body["result"] != "ENDED" {
		t.Fatalf("expected ENDED, got %q", body["result"])
	}

	resp = postJSON(t, ts.URL+"/v1/attendance/end", `{"user_id":"emp-1"}`)
	body = decode[map[string]string](t, resp)
	if body["result"] != "NOT_STARTED" {
		t.Fatalf("expected NOT_STARTED, got %q", body["result"])
	}
}

func TestAttendance_StartMissingUser(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/attendance/start", `{"user_id":"","company_id":"acme"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAttendance_StartBadTimezone(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/attendance/start",
		`{"user_id":"emp-1","company_id":"acme","timezone":"Mars/Olympus"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAttendance_MonthlyHours(t *testing.T) {
	ts, _ := newTestServer(t)

	postJSON(t, ts.URL+"/v1/attendance/start", `{"user_id":"emp-1","company_id":"acme"}`)

	month := time.Now().UTC().Format("2006-01")
	resp, err := http.Get(fmt.Sprintf("%s/v1/attendance/hours?user_id=emp-1&company_id=acme&month=%s", ts.URL, month))
	if err != nil {
		t.Fatalf("get hours: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decode[map[string]any](t, resp)
	if body["month"] != month {
		t.Errorf("expected month %s, got %v", month, body["month"])
	}
	if _, ok := body["hours"].(float64); !ok {
		t.Errorf("expected numeric hours, got %v", body["hours"])
	}
}

// ── vacations ────────────────────────────────────────────────────────────────

func seedUsers(ms *memory.Store) {
	ms.AddUser(types.User{ID: "mgr-1", FullName: "Dana Levi", CompanyID: "acme", VacationBalance: 12})
	ms.AddUser(types.User{ID: "emp-1", FullName: "Noam Katz", CompanyID: "acme", ManagerID: "mgr-1", VacationBalance: 10})
}

func TestVacation_CreateApproveFlow(t *testing.T) {
	ts, ms := newTestServer(t)
	seedUsers(ms)

	resp := postJSON(t, ts.URL+"/v1/vacations",
		`{"employee_id":"emp-1","manager_id":"mgr-1","start_date":"2026-09-01","end_date":"2026-09-04","reason":"trip"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	created := decode[types.VacationRequest](t, resp)
	if created.DaysRequested != 4 {
		t.Fatalf("expected 4 days, got %d", created.DaysRequested)
	}

	resp = postJSON(t, ts.URL+"/v1/vacations/"+created.ID+"/approve", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d", resp.StatusCode)
	}

	// Balance visible through the user endpoint.
	uResp, err := http.Get(ts.URL + "/v1/users/emp-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	defer uResp.Body.Close()
	u := decode[types.User](t, uResp)
	if u.VacationBalance != 6.0 {
		t.Errorf("expected balance 6.0 after approval, got %f", u.VacationBalance)
	}

	// Employee got the approval notification.
	nResp, err := http.Get(ts.URL + "/v1/notifications?user_id=emp-1")
	if err != nil {
		t.Fatalf("get notifications: %v", err)
	}
	defer nResp.Body.Close()
	notifs := decode[map[string][]types.Notification](t, nResp)["notifications"]
	if len(notifs) != 1 || notifs[0].Type != types.NotifVacationApproved {
		t.Fatalf("expected one approval notification, got %v", notifs)
	}
}

func TestVacation_CreateInsufficientBalance(t *testing.T) {
	ts, ms := newTestServer(t)
	ms.AddUser(types.User{ID: "emp-1", CompanyID: "acme", ManagerID: "mgr-1", VacationBalance: 2})

	resp := postJSON(t, ts.URL+"/v1/vacations",
		`{"employee_id":"emp-1","manager_id":"mgr-1","start_date":"2026-09-01","end_date":"2026-09-05"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestVacation_DecisionEchoesStandingStatus(t *testing.T) {
	ts, ms := newTestServer(t)
	seedUsers(ms)

	resp := postJSON(t, ts.URL+"/v1/vacations",
		`{"employee_id":"emp-1","manager_id":"mgr-1","start_date":"2026-09-01","end_date":"2026-09-02"}`)
	created := decode[types.VacationRequest](t, resp)

	resp = postJSON(t, ts.URL+"/v1/vacations/"+created.ID+"/reject", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d", resp.StatusCode)
	}

	// Approving a rejected request is a no-op; the response must report the
	// standing rejection, not a phantom approval.
	resp = postJSON(t, ts.URL+"/v1/vacations/"+created.ID+"/approve", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve after reject: expected 200, got %d", resp.StatusCode)
	}
	body := decode[map[string]string](t, resp)
	if body["status"] != string(types.VacationRejected) {
		t.Fatalf("expected status REJECTED echoed back, got %q", body["status"])
	}

	uResp, err := http.Get(ts.URL + "/v1/users/emp-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	defer uResp.Body.Close()
	u := decode[types.User](t, uResp)
	if u.VacationBalance != 10 {
		t.Errorf("no-op approve must not deduct, got %f", u.VacationBalance)
	}
}

func TestVacation_CreateUnknownEmployee(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/vacations",
		`{"employee_id":"ghost","manager_id":"mgr-1","start_date":"2026-09-01","end_date":"2026-09-02"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestVacation_ApproveUnknownRequest(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/vacations/nope/approve", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestVacation_BadDate(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/vacations",
		`{"employee_id":"emp-1","manager_id":"mgr-1","start_date":"01/09/2026","end_date":"2026-09-05"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestVacation_ListRequiresExactlyOneFilter(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/vacations")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without filters, got %d", resp.StatusCode)
	}
}

func TestVacation_PendingForManager(t *testing.T) {
	ts, ms := newTestServer(t)
	seedUsers(ms)

	postJSON(t, ts.URL+"/v1/vacations",
		`{"employee_id":"emp-1","manager_id":"mgr-1","start_date":"2026-09-01","end_date":"2026-09-02"}`)

	resp, err := http.Get(ts.URL + "/v1/vacations?manager_id=mgr-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	reqs := decode[map[string][]types.VacationRequest](t, resp)["requests"]
	if len(reqs) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(reqs))
	}
	if reqs[0].Status != types.VacationPending {
		t.Errorf("expected PENDING, got %s", reqs[0].Status)
	}
}

// ── users and notifications ──────────────────────────────────────────────────

func TestGetUser_NotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/users/ghost")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetUser_IncludesActiveShift(t *testing.T) {
	ts, ms := newTestServer(t)
	seedUsers(ms)

	postJSON(t, ts.URL+"/v1/attendance/start", `{"user_id":"emp-1","company_id":"acme"}`)

	resp, err := http.Get(ts.URL + "/v1/users/emp-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	u := decode[types.User](t, resp)
	if u.ActiveShift == nil {
		t.Fatal("expected active shift on the user snapshot")
	}
	if u.ActiveShift.CompanyID != "acme" {
		t.Errorf("unexpected marker %+v", u.ActiveShift)
	}
}

func TestNotifications_DeleteRemoves(t *testing.T) {
	ts, ms := newTestServer(t)
	seedUsers(ms)

	postJSON(t, ts.URL+"/v1/vacations",
		`{"employee_id":"emp-1","manager_id":"mgr-1","start_date":"2026-09-01","end_date":"2026-09-02"}`)

	resp, err := http.Get(ts.URL + "/v1/notifications?user_id=mgr-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	notifs := decode[map[string][]types.Notification](t, resp)["notifications"]
	resp.Body.Close()
	if len(notifs) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifs))
	}

	req, _ := http.NewRequest(http.MethodDelete,
		ts.URL+"/v1/notifications/"+notifs[0].ID+"?user_id=mgr-1", nil)
	dResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	dResp.Body.Close()
	if dResp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", dResp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/v1/notifications?user_id=mgr-1")
	if err != nil {
		t.Fatalf("list again: %v", err)
	}
	defer resp.Body.Close()
	notifs = decode[map[string][]types.Notification](t, resp)["notifications"]
	if len(notifs) != 0 {
		t.Errorf("expected empty list after delete, got %d", len(notifs))
	}
}

// ── payslips ─────────────────────────────────────────────────────────────────

func TestPayslips_UploadAndFetch(t *testing.T) {
	ts, ms := newTestServer(t)
	seedUsers(ms)

	payload := []byte("%PDF-1.4 fake payslip")
	req, _ := http.NewRequest(http.MethodPut,
		ts.URL+"/v1/users/emp-1/payslips/2026-08?file_name=aug.pdf", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d", resp.StatusCode)
	}
	meta := decode[types.Payslip](t, resp)
	if meta.SizeBytes != int64(len(payload)) {
		t.Errorf("expected size %d, got %d", len(payload), meta.SizeBytes)
	}
	if meta.PayloadB64 != "" {
		t.Error("upload response must not echo the payload")
	}

	gResp, err := http.Get(ts.URL + "/v1/users/emp-1/payslips/2026-08")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	defer gResp.Body.Close()
	full := decode[types.Payslip](t, gResp)
	raw, err := base64.StdEncoding.DecodeString(full.PayloadB64)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !bytes.Equal(raw, payload) {
		t.Error("stored payload does not round-trip")
	}

	// Upload notifies the employee.
	nResp, err := http.Get(ts.URL + "/v1/notifications?user_id=emp-1")
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	defer nResp.Body.Close()
	notifs := decode[map[string][]types.Notification](t, nResp)["notifications"]
	if len(notifs) != 1 || notifs[0].Type != types.NotifPayslipUploaded {
		t.Fatalf("expected one payslip notification, got %v", notifs)
	}
}

func TestPayslips_OversizeRejected(t *testing.T) {
	ts, _ := newTestServer(t)

	big := bytes.Repeat([]byte("x"), types.MaxPayslipBytes+1)
	req, _ := http.NewRequest(http.MethodPut,
		ts.URL+"/v1/users/emp-1/payslips/2026-08", bytes.NewReader(big))
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.StatusCode)
	}
}

func TestPayslips_ListMetadataOnly(t *testing.T) {
	ts, ms := newTestServer(t)
	seedUsers(ms)

	for _, period := range []string{"2026-07", "2026-08"} {
		req, _ := http.NewRequest(http.MethodPut,
			ts.URL+"/v1/users/emp-1/payslips/"+period, bytes.NewReader([]byte("doc")))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("upload %s: %v", period, err)
		}
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/v1/users/emp-1/payslips")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()
	slips := decode[map[string][]types.Payslip](t, resp)["payslips"]
	if len(slips) != 2 {
		t.Fatalf("expected 2 payslips, got %d", len(slips))
	}
	if slips[0].PeriodKey != "2026-08" {
		t.Errorf("expected newest period first, got %s", slips[0].PeriodKey)
	}
	for _, p := range slips {
		if p.PayloadB64 != "" {
			t.Errorf("list must not include payloads (%s)", p.PeriodKey)
		}
	}
}
