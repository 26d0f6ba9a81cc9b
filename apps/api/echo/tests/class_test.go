package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/tests"
)

func Test_classApi_create(t *testing.T) {
	resetDB(t)

	staff := testutil.CreateUser(t, usrRepo, "staff@test.cd", "", access.RoleStaff)
	prt := testutil.CreateParent(t, prtRepo, "Mama Ya", "mama@test.cd", "LeM0tDePass!", staff.ID)

	tests := []httpTest{
		{name: "auth required", body: marchallObj(t, map[string]string{"name": "Math"}), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "staff required", body: marchallObj(t, map[string]string{"name": "Math"}), token: getParentToken(t, prt),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "name required", body: marchallObj(t, map[string]string{}), token: getToken(t, staff),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name: "bad day of week", token: getToken(t, staff),
			body:     marchallObj(t, map[string]string{"name": "Math", "day_of_week": "caturday"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "end before start", token: getToken(t, staff),
			body:     marchallObj(t, map[string]string{"name": "Math", "day_of_week": "monday", "start_time": "10:00", "end_time": "09:00"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "created with default capacity", token: getToken(t, staff),
			body:     marchallObj(t, map[string]string{"name": "Math", "day_of_week": "monday", "start_time": "10:00", "end_time": "11:00"}),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/classes", tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusCreated {
				var respData class.Class
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.MaxStudents != class.DefaultMaxStudents {
					t.Errorf("failed! max_students = %v; want %v", respData.MaxStudents, class.DefaultMaxStudents)
				}
				if respData.CreatedBy != staff.ID {
					t.Errorf("failed! created_by = %v; want %v", respData.CreatedBy, staff.ID)
				}
				if respData.Status != class.StatusActive {
					t.Errorf("failed! status = %v; want %v", respData.Status, class.StatusActive)
				}
				return
			}
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			}
		})
	}
}

func Test_classApi_enrollment(t *testing.T) {
	resetDB(t)

	staff := testutil.CreateUser(t, usrRepo, "staff@test.cd", "", access.RoleStaff)
	prt := testutil.CreateParent(t, prtRepo, "Mama Ya", "mama@test.cd", "LeM0tDePass!", staff.ID)
	other := testutil.CreateParent(t, prtRepo, "Papa Wa", "papa@test.cd", "LeM0tDePass!", staff.ID)
	std := testutil.CreateStudent(t, stdRepo, "Junior", prt.ID)
	std2 := testutil.CreateStudent(t, stdRepo, "Kele", prt.ID)
	std3 := testutil.CreateStudent(t, stdRepo, "Nana", prt.ID)

	math := testutil.CreateClass(t, clsRepo, "Math", "monday", "10:00", "11:00", 2, staff.ID)
	physics := testutil.CreateClass(t, clsRepo, "Physics", "monday", "10:30", "11:30", 10, staff.ID)
	chemistry := testutil.CreateClass(t, clsRepo, "Chemistry", "tuesday", "10:00", "11:00", 10, staff.ID)
	biology := testutil.CreateClass(t, clsRepo, "Biology", "wednesday", "10:00", "11:00", 10, staff.ID)

	prtToken := getParentToken(t, prt)
	body := func(studentID string) []byte {
		return marchallObj(t, class.RegisterStudent{StudentID: studentID})
	}

	// deactivated classes stop accepting registrations
	req, rec := newAuthRequest(http.MethodPut, "/v1/classes/"+biology.ID, getToken(t, staff),
		marchallObj(t, map[string]string{"status": "inactive"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate failed! code = %v; body %s", rec.Code, rec.Body.String())
	}

	tests := []httpTest{
		{
			name: "unknown class", path: "/v1/classes/lol/register", body: body(std.ID), token: prtToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "class not found"}),
		},
		{
			name: "other family's student denied", path: "/v1/classes/" + math.ID + "/register", body: body(std.ID),
			token: getParentToken(t, other), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "access denied"}),
		},
		{
			name: "inactive class", path: "/v1/classes/" + biology.ID + "/register", body: body(std.ID), token: prtToken,
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "class is not active"}),
		},
		{name: "registered", path: "/v1/classes/" + math.ID + "/register", body: body(std.ID), token: prtToken, wantCode: http.StatusCreated},
		{
			name: "duplicate", path: "/v1/classes/" + math.ID + "/register", body: body(std.ID), token: prtToken,
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "student is already registered in this class"}),
		},
		{
			name: "schedule conflict", path: "/v1/classes/" + physics.ID + "/register", body: body(std.ID), token: prtToken,
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "class schedule conflicts with another registered class"}),
		},
		{name: "different day ok", path: "/v1/classes/" + chemistry.ID + "/register", body: body(std.ID), token: prtToken, wantCode: http.StatusCreated},
		{name: "second seat", path: "/v1/classes/" + math.ID + "/register", body: body(std2.ID), token: prtToken, wantCode: http.StatusCreated},
		{
			name: "class full", path: "/v1/classes/" + math.ID + "/register", body: body(std3.ID), token: prtToken,
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "class is full"}),
		},
		{name: "unregister", path: "/v1/classes/" + math.ID + "/unregister", body: body(std.ID), token: prtToken, wantCode: http.StatusNoContent},
		{
			name: "unregister twice", path: "/v1/classes/" + math.ID + "/unregister", body: body(std.ID), token: prtToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "registration not found"}),
		},
		{name: "freed seat taken", path: "/v1/classes/" + math.ID + "/register", body: body(std3.ID), token: prtToken, wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			switch tt.wantCode {
			case http.StatusCreated:
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var reg class.Registration
				if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if !reg.Active() {
					t.Errorf("failed! status = %v; want %v", reg.Status, class.RegistrationActive)
				}
			case http.StatusNoContent:
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
			default:
				checkCodeAndData(t, tt, rec)
			}
		})
	}
}

func Test_classApi_updateAndDelete(t *testing.T) {
	resetDB(t)

	staff := testutil.CreateUser(t, usrRepo, "staff@test.cd", "", access.RoleStaff)
	prt := testutil.CreateParent(t, prtRepo, "Mama Ya", "mama@test.cd", "LeM0tDePass!", staff.ID)
	std := testutil.CreateStudent(t, stdRepo, "Junior", prt.ID)
	std2 := testutil.CreateStudent(t, stdRepo, "Kele", prt.ID)
	math := testutil.CreateClass(t, clsRepo, "Math", "monday", "10:00", "11:00", 5, staff.ID)

	staffToken := getToken(t, staff)

	register := func(studentID string) {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes/"+math.ID+"/register", staffToken,
			marchallObj(t, class.RegisterStudent{StudentID: studentID}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("register failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	}
	register(std.ID)
	register(std2.ID)

	// staff may only touch their own classes
	otherStaff := testutil.CreateUser(t, usrRepo, "staff2@test.cd", "", access.RoleStaff)
	otherToken := getToken(t, otherStaff)
	req, rec := newAuthRequest(http.MethodPut, "/v1/classes/"+math.ID, otherToken,
		marchallObj(t, map[string]interface{}{"name": "Maths"}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "access denied"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodDelete, "/v1/classes/"+math.ID, otherToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "access denied"}),
	}, rec)

	// capacity cannot shrink below the enrolled count
	req, rec = newAuthRequest(http.MethodPut, "/v1/classes/"+math.ID, staffToken,
		marchallObj(t, map[string]interface{}{"max_students": 1}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: "max students cannot be lower than current registrations"}),
	}, rec)

	// shrinking to the enrolled count is fine
	req, rec = newAuthRequest(http.MethodPut, "/v1/classes/"+math.ID, staffToken,
		marchallObj(t, map[string]interface{}{"max_students": 2}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update failed! code = %v; body %s", rec.Code, rec.Body.String())
	}

	// deletion is blocked while registrations are active
	req, rec = newAuthRequest(http.MethodDelete, "/v1/classes/"+math.ID, staffToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: "class still has 2 registrations"}),
	}, rec)

	unregister := func(studentID string) {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes/"+math.ID+"/unregister", staffToken,
			marchallObj(t, class.RegisterStudent{StudentID: studentID}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("unregister failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	}
	unregister(std.ID)
	unregister(std2.ID)

	req, rec = newAuthRequest(http.MethodDelete, "/v1/classes/"+math.ID, staffToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
}
