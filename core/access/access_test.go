package access

import "testing"

func TestCanAccess(t *testing.T) {
	staffA := Staff{UserID: "staff-a"}
	staffB := Staff{UserID: "staff-b"}
	parentX := Parent{ParentID: "parent-x"}
	parentY := Parent{ParentID: "parent-y"}

	childOfX := OwnerPath{ManagerID: "staff-a", ParentID: "parent-x"}
	classOfA := OwnerPath{ManagerID: "staff-a"}

	tests := []struct {
		name string
		act  Actor
		path OwnerPath
		want bool
	}{
		{name: "admin always allowed", act: Admin{UserID: "root"}, path: childOfX, want: true},
		{name: "admin allowed on class", act: Admin{UserID: "root"}, path: classOfA, want: true},
		{name: "managing staff allowed", act: staffA, path: childOfX, want: true},
		{name: "unrelated staff denied", act: staffB, path: childOfX, want: false},
		{name: "class creator allowed", act: staffA, path: classOfA, want: true},
		{name: "other staff denied on class", act: staffB, path: classOfA, want: false},
		{name: "owning parent allowed", act: parentX, path: childOfX, want: true},
		{name: "cross-parent denied", act: parentY, path: childOfX, want: false},
		{name: "parent denied on class", act: parentX, path: classOfA, want: false},
		{name: "parent denied on user chain", act: parentX, path: OwnerPath{}, want: false},
		{name: "staff denied on empty path", act: staffA, path: OwnerPath{}, want: false},
		{name: "unauthenticated denied", act: nil, path: childOfX, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccess(tt.act, tt.path); got != tt.want {
				t.Errorf("CanAccess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromRole(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		userID   string
		parentID string
		want     Actor
		wantErr  bool
	}{
		{name: "admin", role: RoleAdmin, userID: "u1", want: Admin{UserID: "u1"}},
		{name: "staff", role: RoleStaff, userID: "u2", want: Staff{UserID: "u2"}},
		{name: "parent", role: RoleParent, parentID: "p1", want: Parent{ParentID: "p1"}},
		{name: "unknown", role: "teacher", wantErr: true},
		{name: "empty", role: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromRole(tt.role, tt.userID, tt.parentID)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromRole() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("FromRole() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
