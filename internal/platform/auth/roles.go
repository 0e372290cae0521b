package auth

import "github.com/samber/lo"

// Group names as stored in the groups table.
const (
	GroupAdministration = "Administração"
	GroupDoctor         = "Médico"
	GroupNurse          = "Enfermeiro"
	GroupNursingTech    = "Técnico de Enfermagem"
	GroupDriver         = "Condutor"
	AccessManagement    = "Gerencial"
	AccessClinical      = "Assistencial"
	AccessNone          = "N/A"
)

// ClinicalGroups are the field-staff groups that make a user clinical.
var ClinicalGroups = []string{GroupDoctor, GroupNurse, GroupNursingTech, GroupDriver}

// DeriveRoles computes the management and clinical flags. A user may hold
// both.
func DeriveRoles(superuser bool, groups []string) (management, clinical bool) {
	management = superuser || lo.Contains(groups, GroupAdministration)
	clinical = len(lo.Intersect(groups, ClinicalGroups)) > 0
	return management, clinical
}

// AccessLevel is the label shown in user listings. Management wins when both
// flags hold.
func AccessLevel(management, clinical bool) string {
	switch {
	case management:
		return AccessManagement
	case clinical:
		return AccessClinical
	default:
		return AccessNone
	}
}
