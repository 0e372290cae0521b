package auth

import "testing"

func TestDeriveRoles(t *testing.T) {
	tests := []struct {
		name       string
		superuser  bool
		groups     []string
		management bool
		clinical   bool
	}{
		{"superuser without groups", true, nil, true, false},
		{"administration group", false, []string{GroupAdministration}, true, false},
		{"driver only", false, []string{GroupDriver}, false, true},
		{"nurse and administration", false, []string{GroupNurse, GroupAdministration}, true, true},
		{"nursing technician", false, []string{GroupNursingTech}, false, true},
		{"unrelated group", false, []string{"Recepção"}, false, false},
		{"no groups", false, nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, c := DeriveRoles(tt.superuser, tt.groups)
			if m != tt.management || c != tt.clinical {
				t.Errorf("DeriveRoles() = (%v, %v), want (%v, %v)", m, c, tt.management, tt.clinical)
			}
		})
	}
}

func TestAccessLevel(t *testing.T) {
	if got := AccessLevel(true, true); got != AccessManagement {
		t.Errorf("expected %q, got %q", AccessManagement, got)
	}
	if got := AccessLevel(false, true); got != AccessClinical {
		t.Errorf("expected %q, got %q", AccessClinical, got)
	}
	if got := AccessLevel(false, false); got != AccessNone {
		t.Errorf("expected %q, got %q", AccessNone, got)
	}
}
