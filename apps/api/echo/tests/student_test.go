package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/tests"
)

func Test_studentApi_create(t *testing.T) {
	resetDB(t)

	staffA := testutil.CreateUser(t, usrRepo, "staffa@test.cd", "", access.RoleStaff)
	staffB := testutil.CreateUser(t, usrRepo, "staffb@test.cd", "", access.RoleStaff)
	prtA := testutil.CreateParent(t, prtRepo, "Mama Ya", "mama@test.cd", "LeM0tDePass!", staffA.ID)
	prtB := testutil.CreateParent(t, prtRepo, "Papa Wa", "papa@test.cd", "LeM0tDePass!", staffB.ID)

	body := func(name, parentID string) []byte {
		return marchallObj(t, map[string]string{"name": name, "parent_id": parentID})
	}

	tests := []httpTest{
		{name: "auth required", body: body("Junior", prtA.ID), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "unknown parent", body: body("Junior", "21c761ac-6d67-4ac3-9f75-4c0b29b12bd4"), token: getToken(t, staffA),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"parent_id": "parent not found"}),
		},
		{
			name: "parent cannot create under another family", body: body("Junior", prtB.ID), token: getParentToken(t, prtA),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "access denied"}),
		},
		{
			name: "staff cannot create under unmanaged parent", body: body("Junior", prtB.ID), token: getToken(t, staffA),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "access denied"}),
		},
		{
			name: "bad dob", token: getToken(t, staffA),
			body:     marchallObj(t, map[string]string{"name": "Junior", "parent_id": prtA.ID, "dob": "15-06-2017"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"dob": "dob does not match the 2006-01-02 format"}),
		},
		{
			name: "bad gender", token: getToken(t, staffA),
			body:     marchallObj(t, map[string]string{"name": "Junior", "parent_id": prtA.ID, "gender": "boy"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"gender": "gender must be one of [male female other]"}),
		},
		{name: "parent creates own child", body: body("Junior", prtA.ID), token: getParentToken(t, prtA), wantCode: http.StatusCreated},
		{name: "managing staff creates child", body: body("Kele", prtA.ID), token: getToken(t, staffA), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/students", tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var respData student.Student
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.ParentID != prtA.ID {
					t.Errorf("failed! parent_id = %v; want %v", respData.ParentID, prtA.ID)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	// dob and gender round-trip
	req, rec := newAuthRequest(http.MethodPost, "/v1/students", getToken(t, staffA),
		marchallObj(t, map[string]string{"name": "Nana", "parent_id": prtA.ID, "dob": "2017-06-15", "gender": "female"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var respData student.Student
	if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if respData.Dob.String != "2017-06-15" || respData.Gender.String != "female" {
		t.Errorf("failed! dob/gender = %v/%v; want 2017-06-15/female", respData.Dob.String, respData.Gender.String)
	}
}

func Test_studentApi_destroy(t *testing.T) {
	resetDB(t)

	staff := testutil.CreateUser(t, usrRepo, "staff@test.cd", "", access.RoleStaff)
	prt := testutil.CreateParent(t, prtRepo, "Mama Ya", "mama@test.cd", "LeM0tDePass!", staff.ID)
	std := testutil.CreateStudent(t, stdRepo, "Junior", prt.ID)
	sub := testutil.CreateSubscription(t, subRepo, std.ID, 10, 0)
	cls := testutil.CreateClass(t, clsRepo, "Math", "monday", "10:00", "11:00", 5, staff.ID)

	staffToken := getToken(t, staff)

	req, rec := newAuthRequest(http.MethodPost, "/v1/classes/"+cls.ID+"/register", staffToken,
		marchallObj(t, map[string]string{"student_id": std.ID}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed! code = %v; body %s", rec.Code, rec.Body.String())
	}

	// subscriptions block deletion first
	req, rec = newAuthRequest(http.MethodDelete, "/v1/students/"+std.ID, staffToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: "student still has 1 subscriptions"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodDelete, "/v1/subscriptions/"+sub.ID, staffToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete subscription failed! code = %v; body %s", rec.Code, rec.Body.String())
	}

	// then registrations
	req, rec = newAuthRequest(http.MethodDelete, "/v1/students/"+std.ID, staffToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: "student still has 1 class registrations"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodPost, "/v1/classes/"+cls.ID+"/unregister", staffToken,
		marchallObj(t, map[string]string{"student_id": std.ID}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unregister failed! code = %v; body %s", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodDelete, "/v1/students/"+std.ID, staffToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete student failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
}

func Test_studentApi_reassign(t *testing.T) {
	resetDB(t)

	staff := testutil.CreateUser(t, usrRepo, "staff@test.cd", "", access.RoleStaff)
	otherStaff := testutil.CreateUser(t, usrRepo, "other@test.cd", "", access.RoleStaff)
	prtA := testutil.CreateParent(t, prtRepo, "Mama Ya", "mama@test.cd", "LeM0tDePass!", staff.ID)
	prtB := testutil.CreateParent(t, prtRepo, "Papa Wa", "papa@test.cd", "LeM0tDePass!", staff.ID)
	prtC := testutil.CreateParent(t, prtRepo, "Koko Bi", "koko@test.cd", "LeM0tDePass!", otherStaff.ID)
	std := testutil.CreateStudent(t, stdRepo, "Junior", prtA.ID)

	body := func(parentID string) []byte {
		return marchallObj(t, map[string]string{"parent_id": parentID})
	}

	tests := []httpTest{
		{
			name: "staff required", body: body(prtB.ID), token: getParentToken(t, prtA),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "unmanaged target denied", body: body(prtC.ID), token: getToken(t, staff),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "access denied"}),
		},
		{name: "reassigned", body: body(prtB.ID), token: getToken(t, staff), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/students/"+std.ID+"/reassign", tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var respData student.Student
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.ParentID != prtB.ID {
					t.Errorf("failed! parent_id = %v; want %v", respData.ParentID, prtB.ID)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}
